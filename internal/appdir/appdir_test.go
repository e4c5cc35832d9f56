package appdir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livp123/axtext/internal/eventlog"
	"github.com/livp123/axtext/pkg/record"
)

func TestAppsFromLog(t *testing.T) {
	base := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	log := eventlog.New(eventlog.Options{})
	log.Append(record.NewAt(record.Fields{SourceApp: "com.app1", DisplayName: "App", Text: "a"}, base))
	log.Append(record.NewAt(record.Fields{SourceApp: "com.app2", Text: "b"}, base.Add(time.Second)))
	log.Append(record.NewAt(record.Fields{SourceApp: "com.app1", DisplayName: "App One", Text: "c"}, base.Add(2*time.Second)))

	apps := Apps(log)
	require.Len(t, apps, 2)

	assert.Equal(t, "com.app1", apps[0].SourceApp)
	assert.Equal(t, "App One", apps[0].DisplayName)
	assert.Equal(t, 2, apps[0].Count)
	assert.Equal(t, base, apps[0].FirstSeen)
	assert.Equal(t, base.Add(2*time.Second), apps[0].LastSeen)

	assert.Equal(t, "com.app2", apps[1].SourceApp)
	assert.Equal(t, "com.app2", apps[1].DisplayName)
}

func TestAppsEmpty(t *testing.T) {
	assert.Empty(t, Apps(eventlog.New(eventlog.Options{})))
}
