package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/livp123/axtext/internal/capture"
	"github.com/livp123/axtext/internal/config"
	"github.com/livp123/axtext/internal/eventlog"
	"github.com/livp123/axtext/internal/runtime"
	"github.com/livp123/axtext/internal/source"
	"github.com/livp123/axtext/internal/utils/logger"
	"github.com/livp123/axtext/internal/walker"
	"github.com/livp123/axtext/pkg/record"
)

// stack is the capture chain: walker -> capture pipeline -> event log.
// stack 是捕获链：walker -> 捕获管道 -> 事件日志。
type stack struct {
	log     *eventlog.Log
	capture *capture.Pipeline
	walker  *walker.Walker
}

func newStack(cfg *config.Config, l *zap.SugaredLogger) (*stack, error) {
	filter, redactor, err := cfg.BuildCapture()
	if err != nil {
		return nil, err
	}
	log := eventlog.New(cfg.EventLogOptions(l))
	pipe := capture.NewPipeline(log, filter, redactor, l)

	wo := cfg.WalkerOptions(l)
	if runtime.SelfApp != "" {
		wo.SelfApp = runtime.SelfApp
	}
	return &stack{log: log, capture: pipe, walker: walker.New(pipe, wo)}, nil
}

// ingest reads path (or the configured feed) to the end and returns the
// resulting log. The caller closes it.
// ingest 将 path（或配置的数据源）读到末尾并返回得到的日志，由调用方关闭。
func ingest(ctx context.Context, cfg *config.Config, path string) (*eventlog.Log, error) {
	l := logger.Get(ctx)
	st, err := newStack(cfg, l)
	if err != nil {
		return nil, err
	}

	fc := cfg.FeedConfig(false)
	if path != "" {
		fc.Path = path
	}
	// A single worker keeps records in file order.
	fc.Workers = 1

	if err := source.NewFeed(fc, st.walker, l).Run(ctx); err != nil {
		st.log.Close()
		return nil, err
	}
	return st.log, nil
}

// renderer prints each appended record as one line. Subscribers may be
// invoked from several walker workers at once.
// renderer 将每条追加的记录打印为一行；可能被多个 walker 工作协程同时调用。
type renderer struct {
	mu     sync.Mutex
	out    io.Writer
	layout string
}

func (r *renderer) write(rec record.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] [%s] %s\n", rec.CapturedAt.Format(r.layout), rec.DisplayName, rec.Trimmed())
}

// unescape turns a flag value such as `\n` or `\t` into the character it
// names; anything that does not parse is used verbatim.
func unescape(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}
