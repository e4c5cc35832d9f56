// Package source feeds observations recorded by an external accessibility
// bridge into the tree walker.
// Package source 将外部无障碍桥接记录的观察数据送入 walker。
package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nxadm/tail"
	"go.uber.org/zap"

	"github.com/livp123/axtext/internal/metrics"
	"github.com/livp123/axtext/internal/utils/logger"
	"github.com/livp123/axtext/internal/walker"
	apperrors "github.com/livp123/axtext/pkg/errors"
)

const (
	PositionStart = "start"
	PositionEnd   = "end"

	defaultWorkers = 4
)

// Handler consumes decoded observations. *walker.Walker satisfies it.
type Handler interface {
	Handle(walker.Observation)
}

// Config controls how the feed file is read.
type Config struct {
	Path string
	// TailPosition is "start" or "end"; ignored when Follow is false.
	TailPosition string
	// Follow keeps reading as the file grows and survives rotation.
	Follow  bool
	Poll    bool
	Workers int
}

// Feed tails a JSON-lines observation file and fans observations out to a
// pool of workers.
// Feed 跟踪 JSON 行格式的观察文件，并将观察分发给工作池。
type Feed struct {
	cfg     Config
	handler Handler
	logger  logger.Logger
}

// NewFeed creates a Feed.
func NewFeed(cfg Config, h Handler, l logger.Logger) *Feed {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	return &Feed{cfg: cfg, handler: h, logger: l}
}

func (f *Feed) location() *tail.SeekInfo {
	if f.cfg.Follow && f.cfg.TailPosition != PositionStart {
		return &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}
	return &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}
}

// Run reads the feed until ctx is cancelled or, without Follow, the end of
// the file is reached. It returns after every worker has drained.
// Run 读取数据流直到 ctx 被取消，或在非跟随模式下读到文件末尾。
func (f *Feed) Run(ctx context.Context) error {
	if f.cfg.Path == "" {
		return fmt.Errorf("%w: feed path is empty", apperrors.ErrInvalidFilePath)
	}

	t, err := tail.TailFile(f.cfg.Path, tail.Config{
		Location:  f.location(),
		Follow:    f.cfg.Follow,
		ReOpen:    f.cfg.Follow,
		MustExist: !f.cfg.Follow,
		Poll:      f.cfg.Poll,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("tail %s: %w", f.cfg.Path, err)
	}
	defer t.Cleanup()

	f.logger.Infof("📥 Reading observations from %s (follow: %v, workers: %d)", f.cfg.Path, f.cfg.Follow, f.cfg.Workers)

	queue := make(chan walker.Observation, f.cfg.Workers*16)
	var wg sync.WaitGroup
	for i := 0; i < f.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for obs := range queue {
				f.handler.Handle(obs)
			}
		}()
	}

	err = f.read(ctx, t, queue)
	close(queue)
	wg.Wait()
	return err
}

func (f *Feed) read(ctx context.Context, t *tail.Tail, queue chan<- walker.Observation) error {
	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Wait()
			}
			if line.Err != nil {
				metrics.FeedLines.WithLabelValues("error").Inc()
				f.logger.Warnf("⚠️  Error reading %s: %v", f.cfg.Path, line.Err)
				continue
			}
			text := strings.TrimSpace(line.Text)
			if text == "" {
				continue
			}
			obs, err := ParseObservation([]byte(text))
			if err != nil {
				metrics.FeedLines.WithLabelValues("malformed").Inc()
				f.logger.Warnf("⚠️  %s line %d: %v", f.cfg.Path, line.Num, err)
				continue
			}
			metrics.FeedLines.WithLabelValues("parsed").Inc()
			select {
			case queue <- obs:
			case <-ctx.Done():
				_ = t.Stop()
				return nil
			}
		}
	}
}
