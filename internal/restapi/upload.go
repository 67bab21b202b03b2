package restapi

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/leaflora/memoria/internal/models"
)

type uploadResponse struct {
	envelope
	URL string `json:"url"`
}

type uploadMultipleResponse struct {
	envelope
	URLs []string `json:"urls"`
}

// Upload sends a single file to POST /upload and returns the stored URL.
func (c *Client) Upload(ctx context.Context, path string, kind models.MediaKind) (string, error) {
	body, contentType := multipartBody(kind, "file", path)
	defer body.Close()

	var resp uploadResponse
	if err := c.do(ctx, http.MethodPost, "/upload", body, contentType, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// UploadMultiple sends a batch of files of one kind to POST /upload/multiple
// and returns the stored URLs in request order.
func (c *Client) UploadMultiple(ctx context.Context, paths []string, kind models.MediaKind) ([]string, error) {
	body, contentType := multipartBody(kind, "files", paths...)
	defer body.Close()

	var resp uploadMultipleResponse
	if err := c.do(ctx, http.MethodPost, "/upload/multiple", body, contentType, &resp); err != nil {
		return nil, err
	}
	return resp.URLs, nil
}

type deleteUploadRequest struct {
	Filename string `json:"filename"`
}

// DeleteUpload removes a previously stored file by its backend filename.
func (c *Client) DeleteUpload(ctx context.Context, filename string) error {
	var resp envelope
	return c.doJSON(ctx, http.MethodDelete, "/upload", deleteUploadRequest{Filename: filename}, &resp)
}

// multipartBody streams a multipart form carrying the files under fieldName
// plus the media kind. Streaming through a pipe avoids buffering media files
// that can be up to 100MB.
func multipartBody(kind models.MediaKind, fieldName string, paths ...string) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			for _, path := range paths {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("restapi: open upload %s: %w", path, err)
				}
				part, err := mw.CreateFormFile(fieldName, filepath.Base(path))
				if err != nil {
					f.Close()
					return fmt.Errorf("restapi: multipart part: %w", err)
				}
				if _, err := io.Copy(part, f); err != nil {
					f.Close()
					return fmt.Errorf("restapi: copy upload %s: %w", path, err)
				}
				f.Close()
			}
			if err := mw.WriteField("type", string(kind)); err != nil {
				return fmt.Errorf("restapi: multipart type field: %w", err)
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}
