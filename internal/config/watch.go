package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/livp123/axtext/internal/utils/logger"
)

// Watch reloads path whenever it is written or replaced and passes each valid
// configuration to onChange. Invalid files are logged and skipped. Watch
// returns when ctx is done.
// Watch 在 path 被写入或替换时重新加载，并将有效配置传给 onChange；无效文件记录后跳过。
func Watch(ctx context.Context, path string, l logger.Logger, onChange func(*Config)) error {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// The directory is watched because atomic saves replace the file inode.
	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := LoadConfig(target)
			if err != nil {
				l.Warnf("[WARN]  Ignoring config change in %s: %v", target, err)
				continue
			}
			l.Infof("[RELOAD] Configuration reloaded from %s", target)
			onChange(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Warnf("[WARN]  Config watcher error: %v", err)
		}
	}
}
