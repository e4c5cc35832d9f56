package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livp123/axtext/internal/appdir"
	"github.com/livp123/axtext/internal/eventlog"
	"github.com/livp123/axtext/internal/selection"
	"github.com/livp123/axtext/pkg/record"
)

var base = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T, opts Options) (*eventlog.Log, *Selection, http.Handler) {
	t.Helper()
	log := eventlog.New(eventlog.Options{})
	t.Cleanup(log.Close)

	log.Append(record.NewAt(record.Fields{SourceApp: "com.example.mail", DisplayName: "Mail", Text: "Inbox"}, base))
	log.Append(record.NewAt(record.Fields{SourceApp: "com.example.chat", DisplayName: "Chat", Text: "hello"}, base.Add(time.Second)))
	log.Append(record.NewAt(record.Fields{SourceApp: "com.example.mail", DisplayName: "Mail", Text: "Compose"}, base.Add(2*time.Second)))

	sel := NewSelection(selection.New())
	return log, sel, NewServer(log, sel, opts).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, _, h := newFixture(t, Options{})
	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["records"])
	assert.EqualValues(t, eventlog.DefaultCapacity, body["capacity"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, h := newFixture(t, Options{})
	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "axtext_records_appended_total")
}

func TestRecords(t *testing.T) {
	log, _, h := newFixture(t, Options{})

	var all recordsResponse
	rec := do(t, h, http.MethodGet, "/api/records", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, "Inbox", all.Records[0].Text)

	var mail recordsResponse
	rec = do(t, h, http.MethodGet, "/api/records?app=com.example.mail", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mail))
	assert.Equal(t, 2, mail.Total)
	assert.Equal(t, "Compose", mail.Records[1].Text)

	rec = do(t, h, http.MethodDelete, "/api/records", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, log.Len())

	rec = do(t, h, http.MethodPut, "/api/records", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestApps(t *testing.T) {
	_, _, h := newFixture(t, Options{})
	rec := do(t, h, http.MethodGet, "/api/apps", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Apps []appdir.App `json:"apps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Apps, 2)
	assert.Equal(t, "com.example.mail", body.Apps[0].SourceApp)
	assert.Equal(t, 2, body.Apps[0].Count)
	assert.Equal(t, "Chat", body.Apps[1].DisplayName)
}

func recordsOf(t *testing.T, h http.Handler, target string) recordsResponse {
	t.Helper()
	var body recordsResponse
	rec := do(t, h, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func toggleBody(id string) string {
	return `{"id":"` + id + `"}`
}

func TestSelectionToggleAndClear(t *testing.T) {
	log, sel, h := newFixture(t, Options{})
	log.OnClear(sel.Clear)

	mail := recordsOf(t, h, "/api/records?app=com.example.mail")
	require.Len(t, mail.Records, 2)
	assert.Equal(t, mail.Records[1].Record.ID(), mail.Records[1].ID)

	rec := do(t, h, http.MethodPost, "/api/selection", toggleBody(mail.Records[1].ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"selected":true,"count":1}`, rec.Body.String())

	do(t, h, http.MethodPost, "/api/selection", toggleBody(mail.Records[0].ID))

	var view SelectionView
	rec = do(t, h, http.MethodGet, "/api/selection", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, "Compose\nInbox", view.Merged)
	require.Len(t, view.ByApp, 1)
	assert.Equal(t, "Compose\nInbox", view.ByApp[0].Text)
	assert.Equal(t, mail.Records[1].ID, view.Records[0].ID)

	rec = do(t, h, http.MethodPost, "/api/selection", toggleBody(mail.Records[0].ID))
	assert.JSONEq(t, `{"selected":false,"count":1}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/selection", toggleBody("0000000000000000")).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/selection", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/selection", `{`).Code)

	do(t, h, http.MethodDelete, "/api/records", "")
	assert.Equal(t, 0, sel.Count(), "clearing the log clears the selection")

	do(t, h, http.MethodDelete, "/api/selection", "")
	assert.Equal(t, 0, sel.Count())
}

// TestSelectionToggleSurvivesWindowShift 测试在浏览与切换之间日志窗口移动时仍切换所选记录
func TestSelectionToggleSurvivesWindowShift(t *testing.T) {
	log := eventlog.New(eventlog.Options{Capacity: 3})
	t.Cleanup(log.Close)
	for i, text := range []string{"A", "B", "C"} {
		log.Append(record.NewAt(record.Fields{SourceApp: "com.example.mail", Text: text}, base.Add(time.Duration(i)*time.Second)))
	}
	sel := NewSelection(selection.New())
	h := NewServer(log, sel, Options{}).Handler()

	listed := recordsOf(t, h, "/api/records")
	require.Equal(t, "A", listed.Records[0].Text)
	wantB := listed.Records[1]

	log.Append(record.NewAt(record.Fields{SourceApp: "com.example.mail", Text: "D"}, base.Add(3*time.Second)))

	rec := do(t, h, http.MethodPost, "/api/selection", toggleBody(wantB.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	view := sel.View()
	require.Len(t, view.Records, 1)
	assert.Equal(t, "B", view.Records[0].Text)

	// "A" was evicted between listing and toggling.
	rec = do(t, h, http.MethodPost, "/api/selection", toggleBody(listed.Records[0].ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, sel.Count())

	// A selected record that has since been evicted can still be deselected.
	for _, text := range []string{"E", "F"} {
		log.Append(record.NewAt(record.Fields{SourceApp: "com.example.mail", Text: text}, base.Add(5*time.Second)))
	}
	rec = do(t, h, http.MethodPost, "/api/selection", toggleBody(wantB.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"selected":false,"count":0}`, rec.Body.String())
}

func TestSelectionDisabled(t *testing.T) {
	log := eventlog.New(eventlog.Options{})
	defer log.Close()
	h := NewServer(log, nil, Options{}).Handler()
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/selection", "").Code)
}

func TestAuth(t *testing.T) {
	_, _, h := newFixture(t, Options{Token: "s3cret"})

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/records", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code, "health is public")

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/apps", nil)
	req.Header.Set(tokenHeader, "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStartStop(t *testing.T) {
	log := eventlog.New(eventlog.Options{})
	defer log.Close()
	srv := NewServer(log, nil, Options{Host: "127.0.0.1", Port: 0})

	require.NoError(t, srv.Start(context.Background()))
	addr := srv.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop())
	require.NoError(t, srv.Stop(), "second stop is a no-op")
}
