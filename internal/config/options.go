package config

import (
	"github.com/livp123/axtext/internal/api"
	"github.com/livp123/axtext/internal/capture"
	"github.com/livp123/axtext/internal/eventlog"
	"github.com/livp123/axtext/internal/selection"
	"github.com/livp123/axtext/internal/source"
	"github.com/livp123/axtext/internal/utils/logger"
	"github.com/livp123/axtext/internal/walker"
)

// EventLogOptions maps the log section onto eventlog.Options.
func (c *Config) EventLogOptions(l logger.Logger) eventlog.Options {
	return eventlog.Options{
		Capacity:    c.Log.Capacity,
		Delivery:    eventlog.Delivery(c.Log.Delivery),
		AsyncBuffer: c.Log.AsyncBuffer,
		Logger:      l,
	}
}

// WalkerOptions maps the walker section onto walker.Options.
func (c *Config) WalkerOptions(l logger.Logger) walker.Options {
	return walker.Options{
		SelfApp:           c.Walker.SelfApp,
		HintPrefix:        c.Walker.HintPrefix,
		DescriptionSuffix: c.Walker.DescriptionSuffix,
		HintSuffix:        c.Walker.HintSuffix,
		EditClasses:       c.Walker.EditClasses,
		MaxDepth:          c.Walker.MaxDepth,
		Logger:            l,
	}
}

// FeedConfig maps the source section onto source.Config.
func (c *Config) FeedConfig(follow bool) source.Config {
	return source.Config{
		Path:         c.Source.Path,
		TailPosition: c.Source.TailPosition,
		Follow:       follow,
		Poll:         c.Source.Poll,
		Workers:      c.Source.Workers,
	}
}

// MergeOptions returns the selection defaults as merge options.
func (c *Config) MergeOptions() []selection.MergeOption {
	return []selection.MergeOption{
		selection.WithSeparator(c.Selection.Separator),
		selection.WithTimeLayout(c.Selection.TimeLayout),
		selection.WithRemoveDuplicates(c.Selection.RemoveDuplicates),
	}
}

// BuildCapture compiles the capture section.
// BuildCapture 编译捕获配置。
func (c *Config) BuildCapture() (*capture.Filter, capture.Redactor, error) {
	filter, err := capture.NewFilter(c.Capture.Exclude)
	if err != nil {
		return nil, capture.Redactor{}, err
	}
	redactor, err := capture.NewRedactor(c.Capture.RedactEmails, c.Capture.Redact)
	if err != nil {
		return nil, capture.Redactor{}, err
	}
	return filter, redactor, nil
}

// APIOptions maps the api section onto api.Options.
func (c *Config) APIOptions(l logger.Logger) api.Options {
	return api.Options{
		Host:   c.API.Host,
		Port:   c.API.Port,
		Token:  c.API.Token,
		Logger: l,
	}
}
