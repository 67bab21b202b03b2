// Package internal wires the memoria application together: configuration,
// logging, the REST client, the session gate, staging, and the journal
// service, plus the long-running watch mode.
package internal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/leaflora/memoria/internal/cache"
	"github.com/leaflora/memoria/internal/journal"
	"github.com/leaflora/memoria/internal/models"
	"github.com/leaflora/memoria/internal/notify"
	"github.com/leaflora/memoria/internal/restapi"
	"github.com/leaflora/memoria/internal/session"
	"github.com/leaflora/memoria/internal/staging"
	"github.com/leaflora/memoria/internal/timeline"
	"github.com/leaflora/memoria/internal/uploader"
)

// App holds the assembled application.
type App struct {
	cfg     *Config
	out     io.Writer
	confirm session.Confirmer

	Logger   *slog.Logger
	API      *restapi.Client
	Session  *session.Store
	Cache    *cache.DB // nil when the offline cache is disabled
	Staging  *staging.Area
	Uploader *uploader.Client
	Broker   *notify.Broker
	Journal  *journal.Service
	Renderer *timeline.Renderer
}

// NewApp builds the application from options.
func NewApp(opts ...Option) (*App, error) {
	app := &App{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.cfg

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	app.Logger = logger

	logger.Debug("configuration loaded",
		slog.String("base_url", cfg.API.BaseURL),
		slog.String("session_path", cfg.Session.Path),
		slog.String("cache_path", cfg.Cache.Path))

	if app.confirm == nil {
		app.confirm = terminalConfirmer{}
	}

	app.API = restapi.New(cfg.API.BaseURL, cfg.API.Timeout(), logger)
	app.Session = session.NewStore(cfg.Session.Path, app.API, logger)

	if cfg.Cache.Path != "" {
		db, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			// The client works without the offline cache; keep going.
			logger.Warn("offline cache unavailable", slog.String("error", err.Error()))
		} else {
			app.Cache = db
		}
	}

	previewer, err := staging.NewPreviewer(cfg.Staging.PreviewDir, cfg.Staging.PreviewSize, logger)
	if err != nil {
		return nil, fmt.Errorf("init previews: %w", err)
	}
	app.Staging = staging.NewArea(previewer, logger)
	app.Uploader = uploader.New(app.API, cfg.API.StoragePrefix, logger)
	app.Broker = notify.NewBroker(0)

	var journalCache journal.Cache
	if app.Cache != nil {
		journalCache = app.Cache
	}
	app.Journal = journal.NewService(app.API, app.Session, app.Uploader, journalCache, app.Broker, logger)
	app.Renderer = timeline.New(app.out)

	return app, nil
}

// Confirm exposes the configured confirmer for commands.
func (a *App) Confirm() session.Confirmer { return a.confirm }

// Close releases the app's resources.
func (a *App) Close() {
	if a.Broker != nil {
		a.Broker.Close()
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn("close cache failed", slog.String("error", err.Error()))
		}
	}
}

// Run starts watch mode: restore the session, render the timeline, then
// keep it current: files dropped into the staging directory are staged
// automatically, and every journal change triggers a whole-list re-render.
func Run(ctx context.Context, opts ...Option) error {
	app, err := NewApp(opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	ok, err := app.Session.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not logged in; run the login command first")
	}

	if err := app.Journal.Load(ctx); err != nil {
		return err
	}
	app.Renderer.Render(app.Journal.Records(), models.SearchFilter{})

	g, gCtx := errgroup.WithContext(ctx)

	if app.cfg.Staging.DropDir != "" {
		g.Go(func() error {
			return staging.Watch(gCtx, app.Staging, app.cfg.Staging.DropDir, app.Logger, func(r staging.Report) {
				for _, rej := range r.Rejected {
					app.Broker.Notify(notify.LevelError, fmt.Sprintf("%s: %s", rej.Name, rej.Reason))
				}
				if r.OnlyDuplicates() {
					app.Broker.Notify(notify.LevelError, "all selected files are already staged")
				}
				if len(r.Staged) > 0 {
					app.Broker.Publish(notify.Event{Type: notify.EventStagingAdded, Data: len(r.Staged)})
				}
			})
		})
	}

	g.Go(func() error {
		events := app.Broker.Subscribe()
		defer app.Broker.Unsubscribe(events)
		for {
			select {
			case <-gCtx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				switch ev.Type {
				case notify.EventRefresh:
					app.Renderer.Render(app.Journal.Records(), models.SearchFilter{})
				case notify.EventNotice:
					if n, ok := ev.Data.(notify.Notice); ok {
						app.Renderer.RenderNotice(n)
					}
				case notify.EventStagingAdded:
					app.Renderer.RenderStaged(app.Staging.Files())
				}
			}
		}
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			app.Logger.Info("received shutdown signal", slog.String("signal", sig.String()))
			return context.Canceled
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error("watch mode error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// terminalConfirmer prompts on stdin.
type terminalConfirmer struct{}

func (terminalConfirmer) Confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
