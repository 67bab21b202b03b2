package staging

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/leaflora/memoria/internal/models"
)

// Per-kind size ceilings.
const (
	MaxPhotoBytes = 50 << 20  // 50 MB
	MaxVideoBytes = 100 << 20 // 100 MB
)

// MIME allow-lists. Classification sniffs file content rather than
// trusting the extension.
var (
	photoMIMEs = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
		"image/gif":  {},
		"image/webp": {},
	}
	videoMIMEs = map[string]struct{}{
		"video/mp4":       {},
		"video/webm":      {},
		"video/ogg":       {},
		"video/x-msvideo": {}, // avi
		"video/avi":       {},
		"video/quicktime": {}, // mov
	}
)

// classifyMIME maps a MIME type onto a media kind.
func classifyMIME(mime string) (models.MediaKind, bool) {
	if _, ok := photoMIMEs[mime]; ok {
		return models.KindPhoto, true
	}
	if _, ok := videoMIMEs[mime]; ok {
		return models.KindVideo, true
	}
	return "", false
}

// sizeLimit returns the ceiling for a kind.
func sizeLimit(kind models.MediaKind) int64 {
	if kind == models.KindVideo {
		return MaxVideoBytes
	}
	return MaxPhotoBytes
}

// Classify sniffs the file at path and returns its media kind and MIME
// type, or an error when the type is not on either allow-list.
func Classify(path string) (models.MediaKind, string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", fmt.Errorf("staging: detect %s: %w", path, err)
	}
	mime := mt.String()
	kind, ok := classifyMIME(mime)
	if !ok {
		return "", mime, fmt.Errorf("staging: unsupported type %s", mime)
	}
	return kind, mime, nil
}
