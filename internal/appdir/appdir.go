// Package appdir derives the set of applications seen in the event log.
// Package appdir 从事件日志中推导出出现过的应用集合。
package appdir

import (
	"time"

	"github.com/livp123/axtext/pkg/record"
)

// Snapshotter is the only view of the log the directory needs.
type Snapshotter interface {
	Snapshot() []record.Record
}

// App summarizes the records captured from one source app.
type App struct {
	SourceApp   string    `json:"source_app"`
	DisplayName string    `json:"display_name"`
	Count       int       `json:"count"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
}

// Apps lists distinct source apps in first-seen order. The display name is
// taken from the most recent record of each app.
// Apps 按首次出现顺序列出不同的来源应用；显示名称取自每个应用最近的记录。
func Apps(log Snapshotter) []App {
	index := make(map[string]int)
	var apps []App
	for _, r := range log.Snapshot() {
		i, ok := index[r.SourceApp]
		if !ok {
			index[r.SourceApp] = len(apps)
			apps = append(apps, App{
				SourceApp:   r.SourceApp,
				DisplayName: r.DisplayName,
				Count:       1,
				FirstSeen:   r.CapturedAt,
				LastSeen:    r.CapturedAt,
			})
			continue
		}
		a := &apps[i]
		a.Count++
		a.DisplayName = r.DisplayName
		if r.CapturedAt.After(a.LastSeen) {
			a.LastSeen = r.CapturedAt
		}
		if r.CapturedAt.Before(a.FirstSeen) {
			a.FirstSeen = r.CapturedAt
		}
	}
	return apps
}
