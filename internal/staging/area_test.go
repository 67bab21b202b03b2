package staging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leaflora/memoria/internal/models"
	"github.com/leaflora/memoria/internal/testutil"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testArea(t *testing.T) (*Area, *Previewer) {
	t.Helper()
	previewer, err := NewPreviewer(filepath.Join(t.TempDir(), "previews"), 64, discard())
	if err != nil {
		t.Fatalf("NewPreviewer: %v", err)
	}
	return NewArea(previewer, discard()), previewer
}

func TestSelectClassifies(t *testing.T) {
	area, previewer := testArea(t)
	photo := testutil.TempFile(t, "sunset.png", testutil.TinyPNG())
	video := testutil.TempFile(t, "clip.mp4", testutil.FakeMP4())

	report := area.Select([]string{photo, video})
	previewer.Wait()

	if len(report.Staged) != 2 || len(report.Rejected) != 0 {
		t.Fatalf("report = %+v", report)
	}
	files := area.Files()
	if files[0].Kind != models.KindPhoto || files[0].MIME != "image/png" {
		t.Fatalf("photo classified as %s (%s)", files[0].Kind, files[0].MIME)
	}
	if files[1].Kind != models.KindVideo {
		t.Fatalf("video classified as %s (%s)", files[1].Kind, files[1].MIME)
	}
}

func TestSelectRejectsUnsupportedType(t *testing.T) {
	area, _ := testArea(t)
	text := testutil.TempFile(t, "notes.txt", []byte("just text"))

	report := area.Select([]string{text})
	if len(report.Staged) != 0 {
		t.Fatal("text file staged")
	}
	if len(report.Rejected) != 1 || report.Rejected[0].Reason != "unsupported file type" {
		t.Fatalf("rejections = %+v", report.Rejected)
	}
}

func TestSelectRejectsMissingFile(t *testing.T) {
	area, _ := testArea(t)
	report := area.Select([]string{filepath.Join(t.TempDir(), "ghost.png")})
	if len(report.Rejected) != 1 || report.Rejected[0].Reason != "cannot read file" {
		t.Fatalf("rejections = %+v", report.Rejected)
	}
}

func TestSelectRejectionDoesNotAbortBatch(t *testing.T) {
	area, _ := testArea(t)
	bad := testutil.TempFile(t, "doc.txt", []byte("nope"))
	good := testutil.TempFile(t, "ok.png", testutil.TinyPNG())

	report := area.Select([]string{bad, good})
	if len(report.Staged) != 1 || report.Staged[0].Name != "ok.png" {
		t.Fatalf("staged = %+v", report.Staged)
	}
	if len(report.Rejected) != 1 {
		t.Fatalf("rejected = %+v", report.Rejected)
	}
}

func TestSelectDeduplicatesByName(t *testing.T) {
	area, _ := testArea(t)
	first := testutil.TempFile(t, "same.png", testutil.TinyPNG())
	second := testutil.TempFile(t, "same.png", testutil.TinyPNG())

	report := area.Select([]string{first})
	if len(report.Staged) != 1 {
		t.Fatalf("first select staged %d", len(report.Staged))
	}

	report = area.Select([]string{second})
	if len(report.Staged) != 0 || len(report.Duplicates) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if !report.OnlyDuplicates() {
		t.Fatal("OnlyDuplicates = false")
	}
	if area.Count() != 1 {
		t.Fatalf("count = %d", area.Count())
	}
}

func TestSelectDeduplicatesWithinBatch(t *testing.T) {
	area, _ := testArea(t)
	a := testutil.TempFile(t, "twin.png", testutil.TinyPNG())
	b := testutil.TempFile(t, "twin.png", testutil.TinyPNG())

	report := area.Select([]string{a, b})
	if len(report.Staged) != 1 || len(report.Duplicates) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.OnlyDuplicates() {
		t.Fatal("OnlyDuplicates with one staged file")
	}
}

func TestRemovePreservesOrder(t *testing.T) {
	area, _ := testArea(t)
	paths := []string{
		testutil.TempFile(t, "a.png", testutil.TinyPNG()),
		testutil.TempFile(t, "b.png", testutil.TinyPNG()),
		testutil.TempFile(t, "c.png", testutil.TinyPNG()),
	}
	area.Select(paths)

	area.Remove(1)
	files := area.Files()
	if len(files) != 2 || files[0].Name != "a.png" || files[1].Name != "c.png" {
		t.Fatalf("files = %+v", files)
	}

	// Out of range: no-op.
	area.Remove(5)
	area.Remove(-1)
	if area.Count() != 2 {
		t.Fatalf("count = %d", area.Count())
	}
}

func TestClear(t *testing.T) {
	area, _ := testArea(t)
	area.Select([]string{testutil.TempFile(t, "a.png", testutil.TinyPNG())})
	area.Clear()
	if area.Count() != 0 {
		t.Fatalf("count = %d", area.Count())
	}
}

func TestPathsByKind(t *testing.T) {
	area, _ := testArea(t)
	photo := testutil.TempFile(t, "p.png", testutil.TinyPNG())
	video := testutil.TempFile(t, "v.mp4", testutil.FakeMP4())
	area.Select([]string{video, photo})

	photos := area.PathsByKind(models.KindPhoto)
	if len(photos) != 1 || !strings.HasSuffix(photos[0], "p.png") {
		t.Fatalf("photos = %v", photos)
	}
	videos := area.PathsByKind(models.KindVideo)
	if len(videos) != 1 || !strings.HasSuffix(videos[0], "v.mp4") {
		t.Fatalf("videos = %v", videos)
	}
}

func TestPreviewGeneration(t *testing.T) {
	area, previewer := testArea(t)
	photo := testutil.TempFile(t, "p.png", testutil.TinyPNG())
	video := testutil.TempFile(t, "v.mp4", testutil.FakeMP4())

	area.Select([]string{photo, video})
	previewer.Wait()

	files := area.Files()
	if files[0].PreviewPath == "" {
		t.Fatal("photo preview missing")
	}
	if !strings.HasSuffix(files[0].PreviewPath, files[0].Checksum+".jpg") {
		t.Fatalf("preview path %q not keyed by checksum %q", files[0].PreviewPath, files[0].Checksum)
	}
	if files[1].PreviewPath != "" {
		t.Fatalf("video got a preview: %q", files[1].PreviewPath)
	}
	if files[1].Checksum == "" {
		t.Fatal("video checksum missing")
	}
}

func TestPreviewReuseForIdenticalContent(t *testing.T) {
	area, previewer := testArea(t)
	a := testutil.TempFile(t, "one.png", testutil.TinyPNG())
	b := testutil.TempFile(t, "two.png", testutil.TinyPNG())

	area.Select([]string{a, b})
	previewer.Wait()

	files := area.Files()
	if files[0].PreviewPath != files[1].PreviewPath {
		t.Fatalf("identical content got distinct previews: %q vs %q",
			files[0].PreviewPath, files[1].PreviewPath)
	}
}
