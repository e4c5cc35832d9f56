package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livp123/axtext/internal/capture"
	"github.com/livp123/axtext/internal/eventlog"
	"github.com/livp123/axtext/internal/runtime"
	"github.com/livp123/axtext/internal/walker"
	apperrors "github.com/livp123/axtext/pkg/errors"
	"github.com/livp123/axtext/pkg/record"
)

func TestGetConfigPath(t *testing.T) {
	old := runtime.ConfigPath
	defer func() { runtime.ConfigPath = old }()

	runtime.ConfigPath = ""
	assert.Equal(t, DefaultConfigPath, GetConfigPath())

	runtime.ConfigPath = "/tmp/custom.yaml"
	assert.Equal(t, "/tmp/custom.yaml", GetConfigPath())
}

// TestTemplateMatchesDefaults keeps the init template and Default in step.
// TestTemplateMatchesDefaults 保持 init 模板与 Default 一致。
func TestTemplateMatchesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(DefaultConfigTemplate))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log:
  capacity: 50
  delivery: async
walker:
  self_app: com.example.capture
selection:
  separator: " | "
  remove_duplicates: true
capture:
  redact: ["jwt"]
  exclude:
    - id: bank
      apps: ["com.example.bank"]
`))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Log.Capacity)
	assert.Equal(t, "async", cfg.Log.Delivery)
	assert.Equal(t, 1024, cfg.Log.AsyncBuffer, "untouched keys keep defaults")
	assert.Equal(t, "com.example.capture", cfg.Walker.SelfApp)
	assert.Equal(t, walker.DefaultMaxDepth, cfg.Walker.MaxDepth)
	assert.Equal(t, " | ", cfg.Selection.Separator)
	assert.True(t, cfg.Selection.RemoveDuplicates)
	assert.True(t, cfg.Selection.ClearOnLogClear)
	require.Len(t, cfg.Capture.Exclude, 1)
	assert.Equal(t, "bank", cfg.Capture.Exclude[0].ID)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("log:\n  capacityy: 10\n"))
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Log.Capacity = 0 }},
		{"unknown delivery", func(c *Config) { c.Log.Delivery = "eventually" }},
		{"negative async buffer", func(c *Config) { c.Log.AsyncBuffer = -1 }},
		{"zero depth", func(c *Config) { c.Walker.MaxDepth = 0 }},
		{"bad tail position", func(c *Config) { c.Source.TailPosition = "middle" }},
		{"no workers", func(c *Config) { c.Source.Workers = 0 }},
		{"bad api port", func(c *Config) { c.API.Enabled = true; c.API.Port = 70000 }},
		{"bad rule", func(c *Config) { c.Capture.Exclude = []capture.Rule{{ID: "x", Expression: "App =="}} }},
		{"bad pattern", func(c *Config) { c.Capture.Redact = []string{"("} }},
	}

	assert.NoError(t, Default().Validate())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), apperrors.ErrConfigInvalid)
		})
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, apperrors.ErrConfigNotFound)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Log.Capacity = 10
	cfg.Capture.Exclude = []capture.Rule{{ID: "pw", Expression: `Editable() && Has("password")`}}

	require.NoError(t, SaveConfig(path, cfg))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")
	require.NoError(t, WriteDefault(path, false))
	assert.ErrorIs(t, WriteDefault(path, false), os.ErrExist)
	require.NoError(t, WriteDefault(path, true))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestOptionsMapping(t *testing.T) {
	cfg := Default()
	cfg.Log.Delivery = "async"

	lo := cfg.EventLogOptions(nil)
	assert.Equal(t, eventlog.DeliveryAsync, lo.Delivery)
	assert.Equal(t, eventlog.DefaultCapacity, lo.Capacity)

	wo := cfg.WalkerOptions(nil)
	assert.Equal(t, "axtext", wo.SelfApp)
	assert.Equal(t, walker.DefaultEditClasses, wo.EditClasses)

	fc := cfg.FeedConfig(true)
	assert.True(t, fc.Follow)
	assert.Equal(t, DefaultSourcePath, fc.Path)

	assert.Len(t, cfg.MergeOptions(), 3)

	cfg.Capture.RedactEmails = true
	cfg.Capture.Exclude = []capture.Rule{{ID: "bank", Apps: []string{"bank"}}}
	filter, redactor, err := cfg.BuildCapture()
	require.NoError(t, err)
	assert.Equal(t, 1, filter.Len())
	assert.True(t, redactor.Active())

	id, matched, err := filter.Match(record.New(record.Fields{SourceApp: "bank", Text: "balance"}))
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, "bank", id)
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefault(path, false))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var capacity atomic.Int64
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func(c *Config) { capacity.Store(int64(c.Log.Capacity)) })
	}()

	updated := Default()
	updated.Log.Capacity = 7
	require.Eventually(t, func() bool {
		if err := SaveConfig(path, updated); err != nil {
			return false
		}
		return capacity.Load() == 7
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
