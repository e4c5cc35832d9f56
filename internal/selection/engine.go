// Package selection holds the user's ordered choice of records and merges
// records into formatted text.
//
// An Engine is owned by a single logical caller; callers sharing one across
// goroutines must serialize access themselves.
// Package selection 保存用户选择的有序记录集合，并将记录合并为格式化文本。
package selection

import (
	"github.com/livp123/axtext/pkg/record"
)

// Engine is an insertion-ordered, duplicate-free set of records.
// Engine 是按插入顺序、无重复的记录集合。
type Engine struct {
	order []record.Record
	index map[record.Key]struct{}
	opts  []MergeOption
}

// New creates an empty Engine. opts become the defaults for MergedSelection.
func New(opts ...MergeOption) *Engine {
	return &Engine{
		index: make(map[record.Key]struct{}),
		opts:  opts,
	}
}

// SetSelection replaces the selection with records, collapsing duplicates.
func (e *Engine) SetSelection(records []record.Record) {
	e.Clear()
	for _, r := range records {
		e.Append(r)
	}
}

// Append adds r if it is not already selected.
func (e *Engine) Append(r record.Record) {
	k := r.Key()
	if _, ok := e.index[k]; ok {
		return
	}
	e.index[k] = struct{}{}
	e.order = append(e.order, r)
}

// Toggle selects r when absent and deselects it when present. It reports
// whether r is selected afterwards.
// Toggle 在 r 不存在时选中它，存在时取消选中；返回之后是否处于选中状态。
func (e *Engine) Toggle(r record.Record) bool {
	k := r.Key()
	if _, ok := e.index[k]; !ok {
		e.index[k] = struct{}{}
		e.order = append(e.order, r)
		return true
	}
	delete(e.index, k)
	for i, existing := range e.order {
		if existing.Key() == k {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return false
}

// Clear empties the selection.
func (e *Engine) Clear() {
	e.order = nil
	e.index = make(map[record.Key]struct{})
}

func (e *Engine) IsSelected(r record.Record) bool {
	_, ok := e.index[r.Key()]
	return ok
}

func (e *Engine) Count() int {
	return len(e.order)
}

// Selected returns a copy of the selection in insertion order.
func (e *Engine) Selected() []record.Record {
	out := make([]record.Record, len(e.order))
	copy(out, e.order)
	return out
}

// MergedSelection merges the current selection with the engine's defaults.
// MergedSelection 使用引擎默认选项合并当前选择。
func (e *Engine) MergedSelection() string {
	return Merge(e.order, e.opts...)
}
