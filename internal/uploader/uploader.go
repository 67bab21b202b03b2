// Package uploader sends staged files to the backend and maps stored URLs
// back to deletable filenames.
package uploader

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/leaflora/memoria/internal/models"
)

// API is the slice of the REST client the uploader needs.
type API interface {
	Upload(ctx context.Context, path string, kind models.MediaKind) (string, error)
	UploadMultiple(ctx context.Context, paths []string, kind models.MediaKind) ([]string, error)
	DeleteUpload(ctx context.Context, filename string) error
}

// Source is the slice of the staging area the uploader reads: local paths
// of staged files of one kind, in staging order.
type Source interface {
	PathsByKind(kind models.MediaKind) []string
}

// Client uploads staged files, partitioned by kind.
type Client struct {
	api           API
	storagePrefix string
	logger        *slog.Logger
}

// New creates an upload client. storagePrefix is the known path prefix
// under which the backend stores files (used to derive filenames for
// deletion).
func New(api API, storagePrefix string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, storagePrefix: storagePrefix, logger: logger}
}

// Upload sends the staged files and returns the stored URLs, photos before
// videos, each kind in staging order. Exactly one file of a kind goes
// through the single-file endpoint; two or more go through the batch
// endpoint. The first failure propagates; kinds already uploaded are not
// rolled back, so a partial upload can leave orphaned stored files.
func (c *Client) Upload(ctx context.Context, files Source) ([]string, error) {
	var urls []string
	for _, kind := range []models.MediaKind{models.KindPhoto, models.KindVideo} {
		paths := files.PathsByKind(kind)

		switch len(paths) {
		case 0:
		case 1:
			u, err := c.api.Upload(ctx, paths[0], kind)
			if err != nil {
				return nil, err
			}
			urls = append(urls, u)
		default:
			batch, err := c.api.UploadMultiple(ctx, paths, kind)
			if err != nil {
				return nil, err
			}
			urls = append(urls, batch...)
		}
	}

	c.logger.Info("uploaded staged files", slog.Int("urls", len(urls)))
	return urls, nil
}

// DeleteStored removes a previously stored file given its URL.
func (c *Client) DeleteStored(ctx context.Context, storedURL string) error {
	return c.api.DeleteUpload(ctx, DeriveFilename(storedURL, c.storagePrefix))
}

// DeriveFilename extracts the backend filename from a stored URL by
// stripping the known storage prefix, or, failing that, taking the last
// two path segments.
func DeriveFilename(storedURL, prefix string) string {
	if prefix != "" {
		if idx := strings.Index(storedURL, prefix); idx >= 0 {
			return strings.TrimPrefix(storedURL[idx+len(prefix):], "/")
		}
	}

	path := storedURL
	if u, err := url.Parse(storedURL); err == nil && u.Path != "" {
		path = u.Path
	}
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) >= 2 {
		return strings.Join(segs[len(segs)-2:], "/")
	}
	return segs[len(segs)-1]
}
