// Package timeline renders the memory list and lightbox frames to a
// terminal. The whole list is re-rendered on every change; with timelines
// this size, simplicity wins over incremental diffing, and that is a
// deliberate choice, not an accident.
package timeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/leaflora/memoria/internal/carousel"
	"github.com/leaflora/memoria/internal/models"
	"github.com/leaflora/memoria/internal/notify"
	"github.com/leaflora/memoria/internal/staging"
)

const dateLayout = "2006-01-02 15:04"

// Renderer writes timeline views to a single destination.
type Renderer struct {
	w io.Writer
}

// New creates a renderer writing to w.
func New(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render draws the full record list. An active filter is shown above the
// list so the narrowed view is never mistaken for the whole timeline.
func (r *Renderer) Render(records []models.MemoryRecord, f models.SearchFilter) {
	if !f.IsZero() {
		var parts []string
		if f.Keyword != "" {
			parts = append(parts, fmt.Sprintf("keyword %q", f.Keyword))
		}
		if f.Day != "" {
			parts = append(parts, "day "+f.Day)
		}
		fmt.Fprintf(r.w, "filter: %s\n\n", strings.Join(parts, ", "))
	}

	if len(records) == 0 {
		fmt.Fprintln(r.w, "No memories yet. Go record some!")
		return
	}

	for i, rec := range records {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		r.renderRecord(rec)
	}
}

func (r *Renderer) renderRecord(rec models.MemoryRecord) {
	fmt.Fprintf(r.w, "[%d] %s\n", rec.ID, rec.EventDate.Format(dateLayout))
	if rec.Title != "" {
		fmt.Fprintf(r.w, "    %s\n", rec.Title)
	}
	fmt.Fprintf(r.w, "    %s\n", rec.Content)
	if rec.HasMedia() {
		noun := "photos"
		if rec.Type == models.KindVideo {
			noun = "videos"
		}
		fmt.Fprintf(r.w, "    %d %s\n", len(rec.MediaURLs), noun)
	}
	fmt.Fprintf(r.w, "    posted %s\n", rec.CreatedAt.Format(dateLayout))
}

// RenderFrame draws one lightbox frame: the current media URL, a position
// counter, and the per-item progress indicator.
func (r *Renderer) RenderFrame(snap carousel.Snapshot) {
	if !snap.Open {
		fmt.Fprintln(r.w, "viewer closed")
		return
	}
	fmt.Fprintf(r.w, "%s\n%d/%d  %s\n", snap.URL, snap.Index+1, snap.Length, progressBar(snap.Progress))
}

func progressBar(progress []carousel.ItemProgress) string {
	var b strings.Builder
	for _, p := range progress {
		switch p {
		case carousel.ProgressCompleted:
			b.WriteString("●")
		case carousel.ProgressActive:
			b.WriteString("◉")
		default:
			b.WriteString("○")
		}
	}
	return b.String()
}

// RenderStaged lists the staged files of a form, with preview state.
func (r *Renderer) RenderStaged(files []staging.StagedFile) {
	if len(files) == 0 {
		fmt.Fprintln(r.w, "no files staged")
		return
	}
	for i, f := range files {
		preview := "preview pending"
		if f.PreviewPath != "" {
			preview = f.PreviewPath
		} else if f.Kind == models.KindVideo {
			preview = "video"
		}
		fmt.Fprintf(r.w, "%d. %s (%s, %d bytes) %s\n", i+1, f.Name, f.Kind, f.Size, preview)
	}
}

// RenderNotice prints a transient notification.
func (r *Renderer) RenderNotice(n notify.Notice) {
	prefix := ""
	if n.Level == notify.LevelError {
		prefix = "error: "
	}
	fmt.Fprintf(r.w, "%s%s\n", prefix, n.Message)
}
