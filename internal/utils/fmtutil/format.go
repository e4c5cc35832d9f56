// Package fmtutil provides formatting utilities for human-readable output.
// Package fmtutil 提供用于人类可读输出的格式化工具。
package fmtutil

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders d as "1d 2h 3m 4s", omitting zero units. Durations
// under a second fall back to time.Duration's own format.
// FormatDuration 将 d 格式化为 "1d 2h 3m 4s"，省略为零的单位。
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}

	units := []struct {
		suffix string
		value  int
	}{
		{"d", int(d.Hours()) / 24},
		{"h", int(d.Hours()) % 24},
		{"m", int(d.Minutes()) % 60},
		{"s", int(d.Seconds()) % 60},
	}

	var parts []string
	for _, u := range units {
		if u.value > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", u.value, u.suffix))
		}
	}
	return strings.Join(parts, " ")
}

// Truncate shortens s to at most max runes, marking the cut with "...".
// Truncate 将 s 截断为最多 max 个字符，并以 "..." 标记截断。
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
