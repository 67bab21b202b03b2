package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a dropped file must stay quiet before it is
// staged, so partially copied files are not picked up mid-write.
const settleDelay = 500 * time.Millisecond

// ReportCallback is called after a watcher-driven staging pass.
type ReportCallback func(Report)

// Watch monitors dropDir and stages files as they appear, the CLI analog
// of drag-and-drop onto the upload area. Events are debounced per batch:
// a burst of drops settles into a single Select call. Runs until ctx is
// cancelled.
func Watch(ctx context.Context, area *Area, dropDir string, logger *slog.Logger, cb ReportCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := os.MkdirAll(dropDir, 0o755); err != nil {
		return err
	}
	if err := w.Add(dropDir); err != nil {
		return err
	}

	logger.Info("staging watcher: started", slog.String("dir", dropDir))

	pending := make(map[string]struct{})
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleSettle := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("staging watcher: stopped")
			return nil

		case <-settleCh:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				if info, statErr := os.Stat(p); statErr == nil && !info.IsDir() {
					paths = append(paths, p)
				}
			}
			pending = make(map[string]struct{})
			if len(paths) == 0 {
				continue
			}

			report := area.Select(paths)
			logger.Info("staging watcher: staged batch",
				slog.Int("staged", len(report.Staged)),
				slog.Int("rejected", len(report.Rejected)),
				slog.Int("duplicates", len(report.Duplicates)))
			if cb != nil {
				cb(report)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			// Ignore dotfiles and editor temp files.
			if base := filepath.Base(ev.Name); base == "" || base[0] == '.' {
				continue
			}
			pending[ev.Name] = struct{}{}
			scheduleSettle()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("staging watcher: error", slog.String("error", err.Error()))
		}
	}
}
