package api

import (
	"sync"

	"github.com/livp123/axtext/internal/selection"
	"github.com/livp123/axtext/pkg/record"
)

// Selection serializes access to a selection.Engine shared between HTTP
// handlers and the event log's clear hook.
// Selection 串行化对 selection.Engine 的访问，供 HTTP 处理器与日志清空钩子共享。
type Selection struct {
	mu     sync.Mutex
	engine *selection.Engine
}

func NewSelection(e *selection.Engine) *Selection {
	return &Selection{engine: e}
}

// ToggleID toggles the record whose ID is id. It is looked up in candidates
// first, then among the selected records so an evicted record can still be
// deselected. found is false when neither holds it.
// ToggleID 按 ID 切换记录：先在 candidates 中查找，再在已选记录中查找。
func (s *Selection) ToggleID(id string, candidates []record.Record) (selected, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range candidates {
		if r.ID() == id {
			return s.engine.Toggle(r), true
		}
	}
	for _, r := range s.engine.Selected() {
		if r.ID() == id {
			return s.engine.Toggle(r), true
		}
	}
	return false, false
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Clear()
}

func (s *Selection) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Count()
}

// SelectionView is the JSON form of the selection.
type SelectionView struct {
	Count   int                 `json:"count"`
	Records []RecordView        `json:"records"`
	Merged  string              `json:"merged"`
	ByApp   []selection.AppText `json:"by_app"`
}

// View returns a consistent copy of the selection and its merged forms.
func (s *Selection) View() SelectionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	selected := s.engine.Selected()
	return SelectionView{
		Count:   len(selected),
		Records: recordViews(selected),
		Merged:  s.engine.MergedSelection(),
		ByApp:   selection.MergeByApp(selected),
	}
}
