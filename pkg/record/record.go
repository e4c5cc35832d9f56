// Package record defines the immutable Event Record produced for every piece of
// text captured from an observed UI node graph.
// Package record 定义从观察到的 UI 节点图中捕获的每段文本所生成的不可变事件记录。
package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Record is one captured text observation. It is a plain value: copies are
// independent, so a Record held by the log can never be changed by a consumer.
// Record 是一次捕获的文本观察。它是纯值类型：副本相互独立。
type Record struct {
	SourceApp   string    `json:"source_app" yaml:"source_app"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	Text        string    `json:"text" yaml:"text"`
	NodeClass   string    `json:"node_class,omitempty" yaml:"node_class,omitempty"`
	NodeID      string    `json:"node_id,omitempty" yaml:"node_id,omitempty"`
	CapturedAt  time.Time `json:"captured_at" yaml:"captured_at"`
	Kind        string    `json:"kind" yaml:"kind"`
}

// Fields carries everything a Record needs except its capture time.
// Fields 包含 Record 除捕获时间以外的所有字段。
type Fields struct {
	SourceApp   string
	DisplayName string
	Text        string
	NodeClass   string
	NodeID      string
	Kind        string
}

// Key is the comparable identity of a Record. Two records are the same record
// iff their keys are equal.
// Key 是 Record 的可比较标识。
type Key struct {
	SourceApp   string
	DisplayName string
	Text        string
	NodeClass   string
	NodeID      string
	CapturedAt  int64
	Kind        string
}

// New builds a Record stamped with the current time.
// New 构建带有当前时间戳的 Record。
func New(f Fields) Record {
	return NewAt(f, time.Now())
}

// NewAt builds a Record with an explicit capture time. The display name falls
// back to the source app when it is blank.
// NewAt 使用显式的捕获时间构建 Record；显示名称为空时回退为来源应用。
func NewAt(f Fields, at time.Time) Record {
	name := f.DisplayName
	if strings.TrimSpace(name) == "" {
		name = f.SourceApp
	}
	return Record{
		SourceApp:   f.SourceApp,
		DisplayName: name,
		Text:        f.Text,
		NodeClass:   f.NodeClass,
		NodeID:      f.NodeID,
		CapturedAt:  at,
		Kind:        f.Kind,
	}
}

// Key returns the value identity of r.
func (r Record) Key() Key {
	return Key{
		SourceApp:   r.SourceApp,
		DisplayName: r.DisplayName,
		Text:        r.Text,
		NodeClass:   r.NodeClass,
		NodeID:      r.NodeID,
		CapturedAt:  r.CapturedAt.UnixNano(),
		Kind:        r.Kind,
	}
}

// ID returns a short opaque identifier derived from Key, stable across
// processes. Records that are Equal share an ID.
// ID 返回由 Key 派生的简短不透明标识；相等的记录具有相同 ID。
func (r Record) ID() string {
	k := r.Key()
	d := xxhash.New()
	for _, field := range []string{
		k.SourceApp, k.DisplayName, k.Text, k.NodeClass, k.NodeID,
		strconv.FormatInt(k.CapturedAt, 10), k.Kind,
	} {
		_, _ = d.WriteString(field)
		_, _ = d.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// Equal reports whether all seven fields of r and o are equal.
// Equal 报告 r 与 o 的全部七个字段是否相等。
func (r Record) Equal(o Record) bool {
	return r.Key() == o.Key()
}

// Trimmed returns the text with surrounding whitespace removed.
func (r Record) Trimmed() string {
	return strings.TrimSpace(r.Text)
}

// Blank reports whether the record carries no text after trimming.
func (r Record) Blank() bool {
	return r.Trimmed() == ""
}

func (r Record) String() string {
	return fmt.Sprintf("[%s] %s (%s)", r.DisplayName, r.Trimmed(), r.Kind)
}
