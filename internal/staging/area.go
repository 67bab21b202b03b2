// Package staging holds locally selected files pending upload: validation
// against MIME allow-lists and size ceilings, dedup by name, asynchronous
// preview generation, and removal. One Area backs one form (create or
// edit); staged files are destroyed on removal, explicit clear, or
// successful upload.
package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/leaflora/memoria/internal/models"
)

// StagedFile is one locally selected file not yet uploaded.
type StagedFile struct {
	ID   string // stable handle, independent of list position
	Name string // display name, the dedup key
	Path string // local path to the underlying blob
	Kind models.MediaKind
	MIME string
	Size int64

	// Checksum and PreviewPath are filled in asynchronously when the
	// preview decode for this file completes.
	Checksum    string
	PreviewPath string
}

// Rejection is a per-file validation failure with a user-visible reason.
type Rejection struct {
	Name   string
	Reason string
}

// Report summarizes one Select call.
type Report struct {
	Staged     []StagedFile
	Rejected   []Rejection
	Duplicates []string
}

// OnlyDuplicates reports whether every candidate was a duplicate, in which
// case nothing was staged and the caller should warn.
func (r Report) OnlyDuplicates() bool {
	return len(r.Staged) == 0 && len(r.Duplicates) > 0 && len(r.Rejected) == 0
}

// Area is the staged-file collection for one form context.
type Area struct {
	mu        sync.Mutex
	files     []*StagedFile
	previewer *Previewer
	logger    *slog.Logger
}

// NewArea creates an empty staging area. previewer may be nil to disable
// preview generation.
func NewArea(previewer *Previewer, logger *slog.Logger) *Area {
	if logger == nil {
		logger = slog.Default()
	}
	return &Area{previewer: previewer, logger: logger}
}

// Select validates and stages the candidate files. Each candidate is
// classified by sniffed MIME type and checked against its kind's size
// ceiling; failures are reported per file without aborting the rest of the
// batch. Candidates whose name matches an already-staged file (or an
// earlier candidate in the same batch) are skipped as duplicates. Valid,
// non-duplicate files are appended and their previews enqueued.
func (a *Area) Select(paths []string) Report {
	var report Report

	a.mu.Lock()
	seen := make(map[string]struct{}, len(a.files))
	for _, f := range a.files {
		seen[f.Name] = struct{}{}
	}

	var accepted []*StagedFile
	for _, path := range paths {
		name := filepath.Base(path)

		info, err := os.Stat(path)
		if err != nil {
			report.Rejected = append(report.Rejected, Rejection{Name: name, Reason: "cannot read file"})
			continue
		}

		kind, mime, err := Classify(path)
		if err != nil {
			report.Rejected = append(report.Rejected, Rejection{Name: name, Reason: "unsupported file type"})
			continue
		}

		if info.Size() > sizeLimit(kind) {
			limit := "50MB"
			if kind == models.KindVideo {
				limit = "100MB"
			}
			report.Rejected = append(report.Rejected, Rejection{
				Name:   name,
				Reason: fmt.Sprintf("file too large (max %s)", limit),
			})
			continue
		}

		if _, dup := seen[name]; dup {
			report.Duplicates = append(report.Duplicates, name)
			continue
		}
		seen[name] = struct{}{}

		f := &StagedFile{
			ID:   uuid.NewString(),
			Name: name,
			Path: path,
			Kind: kind,
			MIME: mime,
			Size: info.Size(),
		}
		a.files = append(a.files, f)
		accepted = append(accepted, f)
		report.Staged = append(report.Staged, *f)
	}
	a.mu.Unlock()

	// Previews decode off the staging path so further selection is never
	// blocked; each completion is keyed to its file's ID, so out-of-order
	// completion is harmless.
	if a.previewer != nil {
		for _, f := range accepted {
			a.previewer.Enqueue(f.ID, f.Path, f.Kind, a.setPreview)
		}
	}

	return report
}

// Remove discards exactly one staged file by position; out-of-range
// indexes are a no-op.
func (a *Area) Remove(index int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.files) {
		return
	}
	a.files = append(a.files[:index], a.files[index+1:]...)
}

// Clear empties the staged set.
func (a *Area) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = nil
}

// Files returns a snapshot of the staged set in staging order.
func (a *Area) Files() []StagedFile {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]StagedFile, len(a.files))
	for i, f := range a.files {
		out[i] = *f
	}
	return out
}

// Count returns the number of staged files.
func (a *Area) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.files)
}

// PathsByKind returns the local paths of staged files of one kind, in
// staging order.
func (a *Area) PathsByKind(kind models.MediaKind) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, f := range a.files {
		if f.Kind == kind {
			out = append(out, f.Path)
		}
	}
	return out
}

// setPreview records a completed preview. The file may have been removed
// while its decode was in flight; that is fine, the result is dropped.
func (a *Area) setPreview(id, sum, previewPath string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, f := range a.files {
		if f.ID == id {
			f.Checksum = sum
			f.PreviewPath = previewPath
			return
		}
	}
}
