package staging

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
	_ "golang.org/x/image/webp" // register webp decoding

	"github.com/leaflora/memoria/internal/checksum"
	"github.com/leaflora/memoria/internal/models"
)

// previewWorkers bounds concurrent decodes so a large batch cannot starve
// the rest of the process.
const previewWorkers = 2

// Previewer generates thumbnail previews for staged photos in the
// background, one decode per file. Videos get no decode; their preview
// stays empty and the renderer shows a placeholder.
type Previewer struct {
	dir    string
	size   int
	logger *slog.Logger
	group  errgroup.Group
	slots  chan struct{}
}

// NewPreviewer creates a previewer writing thumbnails (longest side capped
// at size pixels) into dir.
func NewPreviewer(dir string, size int, logger *slog.Logger) (*Previewer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create preview dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Previewer{
		dir:    dir,
		size:   size,
		logger: logger,
		slots:  make(chan struct{}, previewWorkers),
	}, nil
}

// Enqueue schedules the preview decode for one staged file and returns
// immediately; at most previewWorkers decodes run at a time, the rest wait
// off the staging path so selecting further files is never blocked. done
// is called with the file's ID when the preview is ready; completions may
// arrive out of staging order. Failures are logged and skipped; a missing
// preview is never fatal.
func (p *Previewer) Enqueue(id, path string, kind models.MediaKind, done func(id, sum, previewPath string)) {
	p.group.Go(func() error {
		p.slots <- struct{}{}
		defer func() { <-p.slots }()
		p.generate(id, path, kind, done)
		return nil
	})
}

func (p *Previewer) generate(id, path string, kind models.MediaKind, done func(id, sum, previewPath string)) {
	sum, err := checksum.SumFile(path)
	if err != nil {
		p.logger.Warn("preview checksum failed",
			slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	if kind != models.KindPhoto {
		done(id, sum, "")
		return
	}

	out := fmt.Sprintf("%s/%s.jpg", p.dir, sum)
	if _, statErr := os.Stat(out); statErr == nil {
		// Content-identical file already decoded once.
		done(id, sum, out)
		return
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		p.logger.Warn("preview decode failed",
			slog.String("path", path), slog.String("error", err.Error()))
		done(id, sum, "")
		return
	}
	thumb := imaging.Fit(img, p.size, p.size, imaging.Lanczos)
	if err := imaging.Save(thumb, out); err != nil {
		p.logger.Warn("preview save failed",
			slog.String("path", out), slog.String("error", err.Error()))
		done(id, sum, "")
		return
	}
	done(id, sum, out)
}

// Wait blocks until every enqueued preview has settled.
func (p *Previewer) Wait() {
	_ = p.group.Wait()
}
