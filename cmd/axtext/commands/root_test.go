package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livp123/axtext/internal/config"
	"github.com/livp123/axtext/internal/runtime"
	apperrors "github.com/livp123/axtext/pkg/errors"
)

const feedLines = `{"source_app":"com.example.mail","display_name":"Mail","kind":"k","root":{"text":"Inbox","children":[{"text":"Compose"}]}}
{"source_app":"com.example.chat","display_name":"Chat","kind":"k","root":{"text":"hello","children":[{"text":"Inbox"}]}}
{"source_app":"axtext","kind":"k","root":{"text":"self"}}
`

// executeCommand executes a fresh root command and returns its output.
// executeCommand 执行新的根命令并返回输出。
func executeCommand(args ...string) (string, error) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCommandHelp(t *testing.T) {
	output, err := executeCommand("--help")
	assert.NoError(t, err)
	assert.Contains(t, output, "axtext")
	assert.Contains(t, output, "Available Commands:")
	for _, sub := range []string{"run", "walk", "apps", "helper", "init", "version"} {
		assert.Contains(t, output, sub)
	}
}

func TestInvalidCommand(t *testing.T) {
	_, err := executeCommand("invalid-command")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand("version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(output, "axtext "))
}

func TestFlagsResetBetweenRuns(t *testing.T) {
	_, err := executeCommand("-c", "/tmp/does-not-matter.yaml", "--self-app", "x", "version")
	require.NoError(t, err)
	NewRootCmd()
	assert.Empty(t, runtime.ConfigPath)
	assert.Empty(t, runtime.SelfApp)
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	output, err := executeCommand("-c", path, "init")
	require.NoError(t, err)
	assert.Contains(t, output, path)

	_, err = executeCommand("-c", path, "init")
	assert.ErrorContains(t, err, "already exists")

	require.NoError(t, os.WriteFile(path, []byte("log: [broken"), 0644))
	_, err = executeCommand("-c", path, "init", "--force")
	require.NoError(t, err)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestInvalidConfigFails(t *testing.T) {
	cfgPath := writeFile(t, "config.yaml", "log:\n  capacity: 0\n")
	_, err := executeCommand("-c", cfgPath, "version")
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
}

func TestWalkFormats(t *testing.T) {
	feed := writeFile(t, "feed.jsonl", feedLines)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.WriteDefault(cfgPath, false))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"plain", nil, "Inbox\nCompose\nhello\nInbox\n"},
		{"dedupe", []string{"--dedupe"}, "Inbox\nCompose\nhello\n"},
		{"separator", []string{"--separator", " | "}, "Inbox | Compose | hello | Inbox\n"},
		{"escaped separator", []string{"--separator", `\t`}, "Inbox\tCompose\thello\tInbox\n"},
		{"app info", []string{"--format", "apps"}, "[Mail] Inbox\n[Mail] Compose\n[Chat] hello\n[Chat] Inbox\n"},
		{"by app", []string{"--format", "by-app"}, "== Mail (com.example.mail) ==\nInbox\nCompose\n\n== Chat (com.example.chat) ==\nhello\nInbox\n"},
		{"filtered", []string{"--app", "com.example.chat"}, "hello\nInbox\n"},
		{"self app override", []string{"--self-app", "com.example.chat"}, "Inbox\nCompose\nself\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"-c", cfgPath, "walk", feed}, tc.args...)
			output, err := executeCommand(args...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, output)
		})
	}
}

func TestWalkTimestamps(t *testing.T) {
	feed := writeFile(t, "feed.jsonl", feedLines)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.WriteDefault(cfgPath, false))

	output, err := executeCommand("-c", cfgPath, "walk", feed, "--format", "timestamps")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 4)
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] Inbox$`, lines[0])
}

func TestWalkErrors(t *testing.T) {
	feed := writeFile(t, "feed.jsonl", feedLines)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.WriteDefault(cfgPath, false))

	_, err := executeCommand("-c", cfgPath, "walk", feed, "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = executeCommand("-c", cfgPath, "walk", filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func TestWalkAppliesCaptureConfig(t *testing.T) {
	feed := writeFile(t, "feed.jsonl", feedLines+
		`{"source_app":"com.example.mail","display_name":"Mail","kind":"k","root":{"text":"write to bob@example.com"}}`+"\n")
	cfgPath := writeFile(t, "config.yaml", `
capture:
  redact_emails: true
  exclude:
    - id: no-chat
      apps: ["com.example.chat"]
`)

	output, err := executeCommand("-c", cfgPath, "walk", feed)
	require.NoError(t, err)
	assert.Equal(t, "Inbox\nCompose\nwrite to [REDACTED]\n", output)
}

func TestAppsCommand(t *testing.T) {
	feed := writeFile(t, "feed.jsonl", feedLines)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.WriteDefault(cfgPath, false))

	output, err := executeCommand("-c", cfgPath, "apps", feed)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "APP")
	assert.Contains(t, lines[1], "com.example.mail")
	assert.Contains(t, lines[1], "Mail")
	assert.Contains(t, lines[2], "com.example.chat")

	empty := writeFile(t, "empty.jsonl", "")
	output, err = executeCommand("-c", cfgPath, "apps", empty)
	require.NoError(t, err)
	assert.Equal(t, "No applications captured.\n", output)
}

func TestHelperCommands(t *testing.T) {
	proc := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(proc, "1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(proc, "1", "mem"), nil, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(proc, "42"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(proc, "42", "maps"), []byte("7f00-7f01 r-xp 0 0:0 0 /lib/libc.so\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(proc, "42", "cmdline"), []byte("/usr/bin/editor\x00notes.txt\x00"), 0644))
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.WriteDefault(cfgPath, false))

	output, err := executeCommand("-c", cfgPath, "helper", "--proc-root", proc, "status")
	require.NoError(t, err)
	assert.Equal(t, "Root access available\n", output)

	output, err = executeCommand("-c", cfgPath, "helper", "--proc-root", proc, "maps", "42")
	require.NoError(t, err)
	assert.Contains(t, output, "/lib/libc.so")

	output, err = executeCommand("-c", cfgPath, "helper", "--proc-root", proc, "strings", "42", "--min-length", "5")
	require.NoError(t, err)
	assert.Contains(t, output, "  notes.txt\n")

	_, err = executeCommand("-c", cfgPath, "helper", "maps", "abc")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPID)

	_, err = executeCommand("-c", cfgPath, "helper", "--proc-root", proc, "maps", "7")
	assert.ErrorIs(t, err, apperrors.ErrHelperUnavailable)
}

func TestRunOneShot(t *testing.T) {
	feed := writeFile(t, "feed.jsonl", feedLines)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.WriteDefault(cfgPath, false))

	output, err := executeCommand("-c", cfgPath, "run", "--feed", feed, "--follow=false")
	require.NoError(t, err)
	assert.Contains(t, output, "[Mail] Inbox\n")
	assert.Contains(t, output, "[Mail] Compose\n")
	assert.Contains(t, output, "[Chat] hello\n")
	assert.NotContains(t, output, "self")
	assert.Equal(t, 4, strings.Count(output, "\n"))

	output, err = executeCommand("-c", cfgPath, "run", "--feed", feed, "--follow=false", "--quiet")
	require.NoError(t, err)
	assert.Empty(t, output)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// TestRunServesAPI follows a feed and reads the captured records back over HTTP.
// TestRunServesAPI 跟随数据源并通过 HTTP 读回捕获的记录。
func TestRunServesAPI(t *testing.T) {
	feed := writeFile(t, "feed.jsonl", feedLines)
	cfg := config.Default()
	cfg.Source.TailPosition = "start"
	cfg.API.Enabled = true
	cfg.API.Port = freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- runCapture(ctx, new(bytes.Buffer), cfg, runOptions{feed: feed, follow: true, quiet: true})
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/records", cfg.API.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var body struct {
			Total int `json:"total"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) != nil {
			return false
		}
		return body.Total == 4
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
