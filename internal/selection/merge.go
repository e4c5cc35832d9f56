package selection

import (
	"fmt"
	"strings"

	"github.com/livp123/axtext/pkg/record"
)

const (
	DefaultSeparator  = "\n"
	DefaultTimeLayout = "15:04:05"
)

// MergeOption adjusts a merge.
// MergeOption 调整合并行为。
type MergeOption func(*mergeConfig)

type mergeConfig struct {
	separator        string
	removeDuplicates bool
	timeLayout       string
}

// WithSeparator joins surviving texts with sep instead of a newline.
func WithSeparator(sep string) MergeOption {
	return func(c *mergeConfig) { c.separator = sep }
}

// WithRemoveDuplicates keeps only the first occurrence of each distinct
// trimmed text anywhere in the input, not just adjacent repeats.
// WithRemoveDuplicates 仅保留每个不同修剪文本在整个输入中的首次出现。
func WithRemoveDuplicates(enabled bool) MergeOption {
	return func(c *mergeConfig) { c.removeDuplicates = enabled }
}

// WithTimeLayout sets the time.Format layout used by MergeWithTimestamps.
func WithTimeLayout(layout string) MergeOption {
	return func(c *mergeConfig) { c.timeLayout = layout }
}

func newMergeConfig(opts []MergeOption) mergeConfig {
	c := mergeConfig{separator: DefaultSeparator, timeLayout: DefaultTimeLayout}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Merge trims each text, drops blanks, optionally removes duplicates, and joins
// the rest. Empty input, or input with no survivors, yields "".
// Merge 修剪每段文本、丢弃空白、可选去重，然后拼接剩余文本。
func Merge(records []record.Record, opts ...MergeOption) string {
	c := newMergeConfig(opts)
	lines := survivors(records, c.removeDuplicates, func(r record.Record, text string) string {
		return text
	})
	return strings.Join(lines, c.separator)
}

// MergeWithTimestamps formats each surviving record as "[<time>] <text>".
func MergeWithTimestamps(records []record.Record, opts ...MergeOption) string {
	c := newMergeConfig(opts)
	lines := survivors(records, c.removeDuplicates, func(r record.Record, text string) string {
		return fmt.Sprintf("[%s] %s", r.CapturedAt.Format(c.timeLayout), text)
	})
	return strings.Join(lines, DefaultSeparator)
}

// MergeWithAppInfo formats each surviving record as "[<display name>] <text>".
func MergeWithAppInfo(records []record.Record, opts ...MergeOption) string {
	c := newMergeConfig(opts)
	lines := survivors(records, c.removeDuplicates, func(r record.Record, text string) string {
		return fmt.Sprintf("[%s] %s", r.DisplayName, text)
	})
	return strings.Join(lines, DefaultSeparator)
}

// AppText is the merged text of one source app.
type AppText struct {
	SourceApp string `json:"source_app"`
	Text      string `json:"text"`
}

// MergeByApp groups surviving texts by source app in first-seen order and
// joins each group with a newline.
// MergeByApp 按首次出现顺序对来源应用分组，并以换行拼接每组文本。
func MergeByApp(records []record.Record) []AppText {
	index := make(map[string]int)
	var groups []AppText
	var parts [][]string

	for _, r := range records {
		text := r.Trimmed()
		if text == "" {
			continue
		}
		i, ok := index[r.SourceApp]
		if !ok {
			i = len(groups)
			index[r.SourceApp] = i
			groups = append(groups, AppText{SourceApp: r.SourceApp})
			parts = append(parts, nil)
		}
		parts[i] = append(parts[i], text)
	}

	for i := range groups {
		groups[i].Text = strings.Join(parts[i], DefaultSeparator)
	}
	return groups
}

// MergeByAppMap is MergeByApp as a map keyed by source app.
func MergeByAppMap(records []record.Record) map[string]string {
	groups := MergeByApp(records)
	out := make(map[string]string, len(groups))
	for _, g := range groups {
		out[g.SourceApp] = g.Text
	}
	return out
}

func survivors(records []record.Record, dedupe bool, format func(record.Record, string) string) []string {
	lines := make([]string, 0, len(records))
	var seen map[string]struct{}
	if dedupe {
		seen = make(map[string]struct{}, len(records))
	}
	for _, r := range records {
		text := r.Trimmed()
		if text == "" {
			continue
		}
		if dedupe {
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}
		}
		lines = append(lines, format(r, text))
	}
	return lines
}
