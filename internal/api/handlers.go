package api

import (
	"encoding/json"
	"net/http"

	"github.com/livp123/axtext/internal/appdir"
	"github.com/livp123/axtext/pkg/record"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth reports liveness and log occupancy.
// handleHealth 报告存活状态与日志占用情况。
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"records":  s.log.Len(),
		"capacity": s.log.Cap(),
	})
}

// RecordView is a record as served over HTTP, tagged with the ID clients use
// to address it.
// RecordView 是通过 HTTP 提供的记录，附带客户端用于定位它的 ID。
type RecordView struct {
	ID string `json:"id"`
	record.Record
}

func recordViews(records []record.Record) []RecordView {
	out := make([]RecordView, 0, len(records))
	for _, r := range records {
		out = append(out, RecordView{ID: r.ID(), Record: r})
	}
	return out
}

type recordsResponse struct {
	Records []RecordView `json:"records"`
	Total   int          `json:"total"`
}

// handleRecords lists records oldest first, optionally for one app
// (?app=), and clears the log on DELETE.
// handleRecords 按从旧到新列出记录（可用 ?app= 过滤），DELETE 时清空日志。
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var records []record.Record
		if app := r.URL.Query().Get("app"); app != "" {
			records = s.log.SnapshotFiltered(app)
		} else {
			records = s.log.Snapshot()
		}
		writeJSON(w, http.StatusOK, recordsResponse{Records: recordViews(records), Total: len(records)})
	case http.MethodDelete:
		s.log.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleApps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	apps := appdir.Apps(s.log)
	if apps == nil {
		apps = []appdir.App{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"apps": apps})
}

type toggleRequest struct {
	// ID is the record ID from /api/records or the selection view.
	ID string `json:"id"`
}

// handleSelection returns the selection (GET), toggles one record by ID
// (POST) or clears it (DELETE).
// handleSelection 返回当前选择（GET）、按 ID 切换一条记录（POST）或清空选择（DELETE）。
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	if s.selection == nil {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.selection.View())
	case http.MethodPost:
		var req toggleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
			http.Error(w, "Invalid Request", http.StatusBadRequest)
			return
		}
		selected, found := s.selection.ToggleID(req.ID, s.log.Snapshot())
		if !found {
			http.Error(w, "Record Not Found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"selected": selected,
			"count":    s.selection.Count(),
		})
	case http.MethodDelete:
		s.selection.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}
