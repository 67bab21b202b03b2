package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/leaflora/memoria/internal"
	"github.com/leaflora/memoria/internal/apperr"
	"github.com/leaflora/memoria/internal/mcpserver"
	"github.com/leaflora/memoria/internal/models"
	"github.com/leaflora/memoria/internal/notify"
	"github.com/leaflora/memoria/internal/staging"
)

// dateLayouts accepted by --date, most specific first.
var dateLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (want 2006-01-02T15:04)", s)
}

// requireSession restores the persisted session and fails when it is
// missing or no longer valid.
func requireSession(ctx context.Context, app *internal.App) error {
	ok, err := app.Session.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not logged in; run `memoria login` first")
	}
	return nil
}

// drainNotices prints any notices an operation published, after it
// settled. One-shot commands have no long-lived event loop, so this is
// where transient notifications reach the terminal.
func drainNotices(app *internal.App, events chan notify.Event) {
	for {
		select {
		case ev := <-events:
			if n, ok := ev.Data.(notify.Notice); ok && ev.Type == notify.EventNotice {
				app.Renderer.RenderNotice(n)
			}
		default:
			return
		}
	}
}

func reportStaging(app *internal.App, report staging.Report) {
	for _, rej := range report.Rejected {
		app.Renderer.RenderNotice(notify.Notice{Level: notify.LevelError, Message: rej.Name + ": " + rej.Reason})
	}
	if report.OnlyDuplicates() {
		app.Renderer.RenderNotice(notify.Notice{Level: notify.LevelError, Message: "all selected files are already staged"})
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate and store the session token",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			fmt.Fprint(os.Stderr, "Password: ")
			password, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			if err := app.Session.Login(ctx, string(password)); err != nil {
				if errors.Is(err, apperr.ErrPasswordRequired) {
					return fmt.Errorf("please enter the password")
				}
				return err
			}

			fmt.Println("Logged in.")
			// Warm the timeline like the page does right after login.
			if err := app.Journal.Load(ctx); err == nil {
				app.Renderer.Render(app.Journal.Records(), models.SearchFilter{})
			}
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Clear the session token and cached records",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Session.Logout(app.Confirm()); err != nil {
				if errors.Is(err, apperr.ErrCancelled) {
					return nil
				}
				return err
			}
			if app.Cache != nil {
				if err := app.Cache.ReplaceAll(nil); err != nil {
					return err
				}
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func timelineCommand() *cli.Command {
	return &cli.Command{
		Name:  "timeline",
		Usage: "Load and render the memory timeline",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sort", Value: "desc", Usage: "Sort by event date: asc or desc"},
			&cli.StringFlag{Name: "search", Usage: "Keyword filter (matches title or content)"},
			&cli.StringFlag{Name: "date", Usage: "Calendar day filter (2006-01-02)"},
			&cli.BoolFlag{Name: "offline", Usage: "Render from the offline cache without contacting the backend"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			dir := models.SortDescending
			if cmd.String("sort") == string(models.SortAscending) {
				dir = models.SortAscending
			}
			app.Journal.SetSort(dir)

			filter := models.SearchFilter{
				Keyword: cmd.String("search"),
				Day:     cmd.String("date"),
			}

			if cmd.Bool("offline") {
				records, err := app.Journal.Offline()
				if err != nil {
					return err
				}
				app.Renderer.Render(filter.Apply(records, dir), filter)
				return nil
			}

			if err := requireSession(ctx, app); err != nil {
				return err
			}
			events := app.Broker.Subscribe()
			defer app.Broker.Unsubscribe(events)

			if err := app.Journal.Load(ctx); err != nil {
				drainNotices(app, events)
				return err
			}
			app.Renderer.Render(app.Journal.Filter(filter), filter)
			return nil
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Record a new memory; file arguments are staged and uploaded",
		ArgsUsage: "[media files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Optional title"},
			&cli.StringFlag{Name: "content", Usage: "Memory text (required)"},
			&cli.StringFlag{Name: "date", Usage: "Event date (default: now)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := requireSession(ctx, app); err != nil {
				return err
			}

			eventDate := time.Now()
			if cmd.IsSet("date") {
				if eventDate, err = parseDate(cmd.String("date")); err != nil {
					return err
				}
			}

			kind := models.KindText
			if args := cmd.Args().Slice(); len(args) > 0 {
				report := app.Staging.Select(args)
				reportStaging(app, report)
				if app.Staging.Count() == 0 {
					return fmt.Errorf("no usable media files")
				}
				// A mixed selection stages both kinds; the memory's own
				// kind follows the first staged file.
				kind = app.Staging.Files()[0].Kind
			}

			draft := models.Draft{
				Title:     cmd.String("title"),
				Content:   cmd.String("content"),
				EventDate: eventDate,
				Kind:      kind,
			}

			events := app.Broker.Subscribe()
			defer app.Broker.Unsubscribe(events)
			err = app.Journal.Create(ctx, draft, app.Staging)
			drainNotices(app, events)
			return err
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Update a memory in place; new file arguments are uploaded and appended",
		ArgsUsage: "<id> [media files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Replace the title"},
			&cli.StringFlag{Name: "content", Usage: "Replace the text"},
			&cli.StringFlag{Name: "date", Usage: "Replace the event date"},
			&cli.StringSliceFlag{Name: "remove-media", Usage: "Stored media URL to detach and delete (repeatable)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) == 0 {
				return fmt.Errorf("memory id is required")
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid memory id %q", args[0])
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := requireSession(ctx, app); err != nil {
				return err
			}
			if err := app.Journal.Load(ctx); err != nil {
				return err
			}

			record, ok := findRecord(app.Journal.Records(), id)
			if !ok {
				return fmt.Errorf("memory %d: %w", id, apperr.ErrNotFound)
			}

			// Start the draft from the stored record, then apply overrides.
			draft := models.Draft{
				Title:     record.Title,
				Content:   record.Content,
				EventDate: record.EventDate.Time,
				Kind:      record.Type,
				MediaURLs: append([]string(nil), record.MediaURLs...),
			}
			if cmd.IsSet("title") {
				draft.Title = cmd.String("title")
			}
			if cmd.IsSet("content") {
				draft.Content = cmd.String("content")
			}
			if cmd.IsSet("date") {
				if draft.EventDate, err = parseDate(cmd.String("date")); err != nil {
					return err
				}
			}

			removed := cmd.StringSlice("remove-media")
			draft.MediaURLs = withoutURLs(draft.MediaURLs, removed)

			if files := args[1:]; len(files) > 0 {
				report := app.Staging.Select(files)
				reportStaging(app, report)
				if kept := app.Staging.Files(); len(kept) > 0 && draft.Kind == models.KindText {
					draft.Kind = kept[0].Kind
				}
			}

			events := app.Broker.Subscribe()
			defer app.Broker.Unsubscribe(events)
			err = app.Journal.Update(ctx, id, draft, app.Staging, removed)
			drainNotices(app, events)
			return err
		},
	}
}

func rmCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a memory (asks for confirmation)",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) != 1 {
				return fmt.Errorf("memory id is required")
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid memory id %q", args[0])
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := requireSession(ctx, app); err != nil {
				return err
			}

			events := app.Broker.Subscribe()
			defer app.Broker.Unsubscribe(events)
			err = app.Journal.Delete(ctx, id, app.Confirm())
			drainNotices(app, events)
			if errors.Is(err, apperr.ErrCancelled) {
				return nil
			}
			return err
		},
	}
}

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "Open a memory's media in the lightbox viewer (Esc closes, arrows navigate)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "index", Usage: "Item to start on", Value: 0},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) != 1 {
				return fmt.Errorf("memory id is required")
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid memory id %q", args[0])
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := requireSession(ctx, app); err != nil {
				return err
			}
			if err := app.Journal.Load(ctx); err != nil {
				return err
			}

			record, ok := findRecord(app.Journal.Records(), id)
			if !ok {
				return fmt.Errorf("memory %d: %w", id, apperr.ErrNotFound)
			}
			if !record.HasMedia() {
				return fmt.Errorf("memory %d has no media", id)
			}

			return runLightbox(app, record, int(cmd.Int("index")))
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep the timeline rendered and stage files dropped into the staging directory",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return internal.Run(ctx, internal.WithConfig(cfg))
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve journal tools over MCP on stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := requireSession(ctx, app); err != nil {
				return err
			}
			return mcpserver.New(app.Journal).ServeStdio()
		},
	}
}

func findRecord(records []models.MemoryRecord, id int64) (models.MemoryRecord, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return models.MemoryRecord{}, false
}

func withoutURLs(urls, removed []string) []string {
	if len(removed) == 0 {
		return urls
	}
	drop := make(map[string]struct{}, len(removed))
	for _, u := range removed {
		drop[u] = struct{}{}
	}
	var out []string
	for _, u := range urls {
		if _, ok := drop[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}
