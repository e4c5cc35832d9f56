package capture

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/livp123/axtext/internal/metrics"
	"github.com/livp123/axtext/internal/utils/logger"
	"github.com/livp123/axtext/pkg/record"
)

// Sink is the downstream store, normally *eventlog.Log.
type Sink interface {
	Append(record.Record)
}

// Pipeline filters and redacts records before handing them to the sink.
// It is itself a Sink, so the walker can emit straight into it.
// Pipeline 在将记录交给 sink 之前进行过滤和脱敏；它本身也是 Sink。
type Pipeline struct {
	sink     Sink
	filter   atomic.Pointer[Filter]
	redactor atomic.Pointer[Redactor]
	logger   logger.Logger
}

// NewPipeline wires filter and redactor in front of sink. A nil filter
// captures everything.
func NewPipeline(sink Sink, filter *Filter, redactor Redactor, l logger.Logger) *Pipeline {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	p := &Pipeline{sink: sink, logger: l}
	p.Reload(filter, redactor)
	return p
}

// Reload swaps the filter and redactor atomically.
// Reload 原子地替换过滤器与脱敏器。
func (p *Pipeline) Reload(filter *Filter, redactor Redactor) {
	if filter == nil {
		filter, _ = NewFilter(nil)
	}
	p.filter.Store(filter)
	p.redactor.Store(&redactor)
}

// Append drops r if a rule excludes it, otherwise redacts and forwards it.
func (p *Pipeline) Append(r record.Record) {
	id, matched, err := p.filter.Load().Match(r)
	if err != nil {
		p.logger.Warnf("⚠️  Capture rule evaluation failed: %v", err)
	}
	if matched {
		metrics.RecordsFiltered.WithLabelValues(id).Inc()
		p.logger.Debugf("Record from %s dropped by rule %s", r.SourceApp, id)
		return
	}
	if red := p.redactor.Load(); red.Active() {
		r.Text = red.Apply(r.Text)
	}
	p.sink.Append(r)
}
