package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/livp123/axtext/internal/api"
	"github.com/livp123/axtext/internal/config"
	"github.com/livp123/axtext/internal/selection"
	"github.com/livp123/axtext/internal/source"
	"github.com/livp123/axtext/internal/utils/fileutil"
	"github.com/livp123/axtext/internal/utils/logger"
)

type runOptions struct {
	feed   string
	follow bool
	quiet  bool
	watch  string
}

func newRunCmd(st *state) *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Capture observations from the feed until interrupted",
		// Short: 持续从数据源捕获观察直到被中断
		Long: `Read observations from the configured feed, turn them into records, and
print each record as it is captured. The HTTP API is started when api.enabled is set,
and capture rules are reloaded whenever the configuration file changes.
从配置的数据源读取观察并转换为记录，逐条打印；api.enabled 时启动 HTTP 接口，
配置文件变化时重新加载捕获规则。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if fileutil.Exists(config.GetConfigPath()) {
				opts.watch = config.GetConfigPath()
			}
			return runCapture(ctx, cmd.OutOrStdout(), st.cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.feed, "feed", "", "Observation feed file (default: source.path from config)")
	cmd.Flags().BoolVar(&opts.follow, "follow", true, "Keep reading as the feed grows; false stops at end of file")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print captured records")
	return cmd
}

// runCapture wires the capture chain, optional API server and config watcher
// and runs them until ctx is done or the feed ends.
// runCapture 组装捕获链、可选的 API 服务和配置监视器，运行至 ctx 结束或数据源读完。
func runCapture(ctx context.Context, out io.Writer, cfg *config.Config, opts runOptions) error {
	l := logger.Get(ctx)

	st, err := newStack(cfg, l)
	if err != nil {
		return err
	}
	defer st.log.Close()

	sel := api.NewSelection(selection.New(cfg.MergeOptions()...))
	if cfg.Selection.ClearOnLogClear {
		st.log.OnClear(sel.Clear)
	}

	if !opts.quiet {
		// Close drains pending async notifications to the renderer.
		r := &renderer{out: out, layout: cfg.Selection.TimeLayout}
		st.log.Subscribe(r.write)
	}

	fc := cfg.FeedConfig(opts.follow)
	if opts.feed != "" {
		fc.Path = opts.feed
	}
	feed := source.NewFeed(fc, st.walker, l)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// The feed ending stops everything else.
	// 数据源结束时停止其余组件。
	g.Go(func() error {
		defer cancel()
		return feed.Run(gctx)
	})

	if cfg.API.Enabled {
		srv := api.NewServer(st.log, sel, cfg.APIOptions(l))
		if err := srv.Start(gctx); err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			return srv.Stop()
		})
	}

	if opts.watch != "" {
		g.Go(func() error {
			return config.Watch(gctx, opts.watch, l, func(next *config.Config) {
				filter, redactor, err := next.BuildCapture()
				if err != nil {
					l.Warnf("[WARN]  Keeping previous capture rules: %v", err)
					return
				}
				st.capture.Reload(filter, redactor)
				l.Infof("[RELOAD] Capture rules reloaded (%d rules)", filter.Len())
			})
		})
	}

	l.Infof("[START] axtext capturing (log capacity %d, delivery %s)", st.log.Cap(), cfg.Log.Delivery)
	err = g.Wait()
	l.Infof("[STOP] Captured %d records in window", st.log.Len())
	return err
}
