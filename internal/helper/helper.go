// Package helper is the privileged diagnostic collaborator. It reports on
// other processes through procfs and returns opaque text, or
// ErrHelperUnavailable when the host does not grant access. The capture core
// never depends on it.
// Package helper 是特权诊断协作组件，通过 procfs 报告其他进程的信息。
package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/livp123/axtext/pkg/errors"
)

const (
	DefaultProcRoot  = "/proc"
	DefaultMinLength = 4
)

// Status describes whether privileged access is available.
// Status 描述特权访问是否可用。
type Status struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// Helper reads process information below a procfs root.
type Helper struct {
	procRoot string
}

// New creates a Helper. An empty procRoot means /proc.
func New(procRoot string) *Helper {
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}
	return &Helper{procRoot: procRoot}
}

func (h *Helper) path(pid int, name string) string {
	return filepath.Join(h.procRoot, strconv.Itoa(pid), name)
}

// memAccessible reports whether pid's memory file can be opened, which the
// kernel only allows with ptrace-level privileges.
func (h *Helper) memAccessible(pid int) bool {
	f, err := os.Open(h.path(pid, "mem"))
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// Status probes privileged access using the init process.
func (h *Helper) Status() Status {
	if h.memAccessible(1) {
		return Status{Available: true, Message: "Root access available"}
	}
	return Status{Message: "Root access not available - native memory extraction will be limited"}
}

// MemoryMaps returns the memory map listing of pid.
// MemoryMaps 返回 pid 的内存映射列表。
func (h *Helper) MemoryMaps(pid int) (string, error) {
	if pid <= 0 {
		return "", apperrors.NewPIDError(pid)
	}
	maps, err := os.ReadFile(h.path(pid, "maps"))
	if err != nil {
		return "", apperrors.NewHelperError("read maps", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Memory maps for PID %d:\n", pid)
	b.Write(maps)
	if h.memAccessible(pid) {
		b.WriteString("\nMemory accessible (root available)\n")
	} else {
		b.WriteString("\nMemory not accessible (requires root)\n")
	}
	return b.String(), nil
}

// ProcessStrings summarizes pid: its command line and the printable strings
// of at least minLength bytes found in it.
// ProcessStrings 汇总 pid 的命令行及其中长度不少于 minLength 的可打印字符串。
func (h *Helper) ProcessStrings(pid, minLength int) (string, error) {
	if pid <= 0 {
		return "", apperrors.NewPIDError(pid)
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	cmdline, err := os.ReadFile(h.path(pid, "cmdline"))
	if err != nil {
		return "", apperrors.NewHelperError("read cmdline", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Process: %s\n", strings.TrimSpace(strings.ReplaceAll(string(cmdline), "\x00", " ")))
	fmt.Fprintf(&b, "PID: %d\n", pid)
	fmt.Fprintf(&b, "Minimum string length: %d\n\n", minLength)
	for _, s := range PrintableStrings(cmdline, minLength) {
		fmt.Fprintf(&b, "  %s\n", s)
	}
	if !h.memAccessible(pid) {
		b.WriteString("\nNote: Full memory scanning requires root access\n")
	}
	return b.String(), nil
}

// PrintableStrings returns every run of printable ASCII (0x20-0x7e) in data
// that is at least minLength bytes long, including a run at the very end.
// PrintableStrings 返回 data 中长度不少于 minLength 的可打印 ASCII 序列。
func PrintableStrings(data []byte, minLength int) []string {
	var out []string
	start := -1
	for i, c := range data {
		if c >= 0x20 && c <= 0x7e {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= minLength {
			out = append(out, string(data[start:i]))
		}
		start = -1
	}
	if start >= 0 && len(data)-start >= minLength {
		out = append(out, string(data[start:]))
	}
	return out
}
