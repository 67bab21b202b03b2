// Package testutil provides shared test helpers: an in-process fake of
// the journal backend and small file fixtures.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/leaflora/memoria/internal/models"
)

// DefaultPassword is accepted by the fake backend's login endpoint.
const DefaultPassword = "opensesame"

// DefaultToken is issued by the fake backend on successful login.
const DefaultToken = "test-token"

// Backend is an in-memory stand-in for the journal REST backend. It
// speaks the same envelope protocol as the real one and records the
// requests tests care about.
type Backend struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	nextID   int64
	memories []models.MemoryRecord

	// Uploads holds the basenames stored through the upload endpoints,
	// in arrival order. DeletedUploads holds filenames removed through
	// DELETE /upload.
	Uploads        []string
	DeletedUploads []string

	// FailMessage, when set, makes the next enveloped request answer
	// success=false with this message, then clears itself.
	FailMessage string
}

// NewBackend starts a fake backend that is torn down with the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{t: t, nextID: 1}

	r := chi.NewRouter()
	r.Post("/auth/login", b.handleLogin)
	r.Post("/auth/verify", b.handleVerify)
	r.Group(func(r chi.Router) {
		r.Use(b.requireToken)
		r.Get("/memories", b.handleList)
		r.Post("/memories", b.handleCreate)
		r.Put("/memories/{id}", b.handleUpdate)
		r.Delete("/memories/{id}", b.handleDelete)
		r.Post("/upload", b.handleUpload)
		r.Post("/upload/multiple", b.handleUploadMultiple)
		r.Delete("/upload", b.handleDeleteUpload)
	})

	b.srv = httptest.NewServer(r)
	t.Cleanup(b.srv.Close)
	return b
}

// URL returns the backend's base URL.
func (b *Backend) URL() string { return b.srv.URL }

// Seed installs records directly, bypassing the HTTP surface.
func (b *Backend) Seed(records ...models.MemoryRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rec := range records {
		if rec.ID == 0 {
			rec.ID = b.nextID
		}
		if rec.ID >= b.nextID {
			b.nextID = rec.ID + 1
		}
		b.memories = append(b.memories, rec)
	}
}

// Memories returns a copy of the stored records.
func (b *Backend) Memories() []models.MemoryRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.MemoryRecord(nil), b.memories...)
}

func (b *Backend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+DefaultToken {
			writeJSON(w, map[string]any{"success": false, "message": "authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// failNow consumes FailMessage; it reports whether the request was failed.
func (b *Backend) failNow(w http.ResponseWriter) bool {
	b.mu.Lock()
	msg := b.FailMessage
	b.FailMessage = ""
	b.mu.Unlock()
	if msg == "" {
		return false
	}
	writeJSON(w, map[string]any{"success": false, "message": msg})
	return true
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != DefaultPassword {
		writeJSON(w, map[string]any{"success": false, "message": "incorrect password"})
		return
	}
	writeJSON(w, map[string]any{"success": true, "token": DefaultToken})
}

func (b *Backend) handleVerify(w http.ResponseWriter, r *http.Request) {
	valid := r.Header.Get("Authorization") == "Bearer "+DefaultToken
	writeJSON(w, map[string]any{"success": true, "valid": valid})
}

func (b *Backend) handleList(w http.ResponseWriter, r *http.Request) {
	if b.failNow(w) {
		return
	}
	b.mu.Lock()
	records := append([]models.MemoryRecord(nil), b.memories...)
	b.mu.Unlock()

	asc := r.URL.Query().Get("sort") == "asc"
	sort.SliceStable(records, func(i, j int) bool {
		if asc {
			return records[i].EventDate.Before(records[j].EventDate.Time)
		}
		return records[j].EventDate.Before(records[i].EventDate.Time)
	})
	writeJSON(w, map[string]any{"success": true, "data": records})
}

type memoryRequest struct {
	Title     *string          `json:"title"`
	Content   string           `json:"content"`
	EventDate string           `json:"event_date"`
	Type      models.MediaKind `json:"type"`
	MediaURLs []string         `json:"media_urls"`
}

func (req memoryRequest) record(id int64) (models.MemoryRecord, error) {
	var rec models.MemoryRecord
	if err := rec.EventDate.UnmarshalJSON([]byte(strconv.Quote(req.EventDate))); err != nil {
		return rec, fmt.Errorf("bad event_date %q", req.EventDate)
	}
	rec.ID = id
	if req.Title != nil {
		rec.Title = *req.Title
	}
	rec.Content = req.Content
	rec.Type = req.Type
	rec.MediaURLs = req.MediaURLs
	return rec, nil
}

func (b *Backend) handleCreate(w http.ResponseWriter, r *http.Request) {
	if b.failNow(w) {
		return
	}
	var req memoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, map[string]any{"success": false, "message": "bad request"})
		return
	}

	b.mu.Lock()
	rec, err := req.record(b.nextID)
	if err != nil {
		b.mu.Unlock()
		writeJSON(w, map[string]any{"success": false, "message": err.Error()})
		return
	}
	b.nextID++
	b.memories = append(b.memories, rec)
	b.mu.Unlock()

	writeJSON(w, map[string]any{"success": true, "message": "memory created"})
}

func (b *Backend) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if b.failNow(w) {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req memoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, map[string]any{"success": false, "message": "bad request"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.memories {
		if b.memories[i].ID == id {
			rec, err := req.record(id)
			if err != nil {
				writeJSON(w, map[string]any{"success": false, "message": err.Error()})
				return
			}
			rec.CreatedAt = b.memories[i].CreatedAt
			b.memories[i] = rec
			writeJSON(w, map[string]any{"success": true, "message": "memory updated"})
			return
		}
	}
	writeJSON(w, map[string]any{"success": false, "message": "memory not found"})
}

func (b *Backend) handleDelete(w http.ResponseWriter, r *http.Request) {
	if b.failNow(w) {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.memories {
		if b.memories[i].ID == id {
			b.memories = append(b.memories[:i], b.memories[i+1:]...)
			writeJSON(w, map[string]any{"success": true, "message": "memory deleted"})
			return
		}
	}
	writeJSON(w, map[string]any{"success": false, "message": "memory not found"})
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	if b.failNow(w) {
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, map[string]any{"success": false, "message": "bad upload"})
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) != 1 {
		writeJSON(w, map[string]any{"success": false, "message": "expected one file"})
		return
	}

	url := b.store(files[0].Filename)
	writeJSON(w, map[string]any{"success": true, "url": url})
}

func (b *Backend) handleUploadMultiple(w http.ResponseWriter, r *http.Request) {
	if b.failNow(w) {
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, map[string]any{"success": false, "message": "bad upload"})
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, map[string]any{"success": false, "message": "no files"})
		return
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		urls = append(urls, b.store(fh.Filename))
	}
	writeJSON(w, map[string]any{"success": true, "urls": urls})
}

func (b *Backend) store(filename string) string {
	name := filepath.Base(filename)
	b.mu.Lock()
	b.Uploads = append(b.Uploads, name)
	b.mu.Unlock()
	return "/uploads/" + name
}

func (b *Backend) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	if b.failNow(w) {
		return
	}
	var req struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		writeJSON(w, map[string]any{"success": false, "message": "filename required"})
		return
	}

	b.mu.Lock()
	b.DeletedUploads = append(b.DeletedUploads, req.Filename)
	b.mu.Unlock()
	writeJSON(w, map[string]any{"success": true, "message": "file deleted"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// TempFile writes content to a file under the test's temp directory and
// returns its path.
func TempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TinyPNG returns a small valid PNG, enough for MIME sniffing and
// thumbnailing.
func TinyPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// FakeMP4 returns bytes that sniff as video/mp4 without being a playable
// file.
func FakeMP4() []byte {
	header := []byte{0, 0, 0, 0x18}
	header = append(header, []byte("ftypisom")...)
	header = append(header, []byte{0, 0, 2, 0}...)
	header = append(header, []byte("isomiso2mp41")...)
	return append(header, strings.Repeat("\x00", 64)...)
}
