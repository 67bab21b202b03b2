// Package journal coordinates the session, the record cache, the staging
// area, and the upload client. It owns the in-memory record collection:
// loads replace it wholesale, filters derive from it without mutating it,
// and every error is converted into a user-facing notice at this boundary.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leaflora/memoria/internal/apperr"
	"github.com/leaflora/memoria/internal/models"
	"github.com/leaflora/memoria/internal/notify"
	"github.com/leaflora/memoria/internal/restapi"
	"github.com/leaflora/memoria/internal/session"
	"github.com/leaflora/memoria/internal/staging"
	"github.com/leaflora/memoria/internal/uploader"
)

// API is the slice of the REST client the service needs.
type API interface {
	ListMemories(ctx context.Context, dir models.SortDirection) ([]models.MemoryRecord, error)
	CreateMemory(ctx context.Context, d models.Draft) error
	UpdateMemory(ctx context.Context, id int64, d models.Draft) error
	DeleteMemory(ctx context.Context, id int64) error
}

// Uploader sends staged files and deletes stored ones.
type Uploader interface {
	Upload(ctx context.Context, files uploader.Source) ([]string, error)
	DeleteStored(ctx context.Context, storedURL string) error
}

// Cache mirrors the last-loaded record set for offline rendering.
type Cache interface {
	ReplaceAll(records []models.MemoryRecord) error
	All(dir models.SortDirection) ([]models.MemoryRecord, error)
}

// Service is the memory repository plus its save/delete flows.
type Service struct {
	api     API
	sess    *session.Store
	uploads Uploader
	cache   Cache          // optional
	broker  *notify.Broker // optional
	logger  *slog.Logger

	mu        sync.Mutex
	records   []models.MemoryRecord
	ascending bool
	inFlight  map[string]bool
}

// NewService creates the journal service. cache and broker may be nil.
func NewService(api API, sess *session.Store, uploads Uploader, cache Cache, broker *notify.Broker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:      api,
		sess:     sess,
		uploads:  uploads,
		cache:    cache,
		broker:   broker,
		logger:   logger,
		inFlight: make(map[string]bool),
	}
}

// SortDirection returns the current timeline direction.
func (s *Service) SortDirection() models.SortDirection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directionLocked()
}

func (s *Service) directionLocked() models.SortDirection {
	if s.ascending {
		return models.SortAscending
	}
	return models.SortDescending
}

// Records returns a copy of the last-loaded collection.
func (s *Service) Records() []models.MemoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.MemoryRecord(nil), s.records...)
}

// Load fetches the full ordered list and replaces the cached collection.
// It requires an authenticated session and no-ops otherwise. On failure the
// previous collection is left in place, stale but present. Load is
// idempotent and safe to call back-to-back.
func (s *Service) Load(ctx context.Context) error {
	if !s.sess.Authenticated() {
		return apperr.ErrUnauthenticated
	}

	dir := s.SortDirection()
	list, err := s.api.ListMemories(ctx, dir)
	if err != nil {
		s.surface(err, "failed to load memories")
		return err
	}

	s.mu.Lock()
	s.records = list
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.ReplaceAll(list); err != nil {
			s.logger.Warn("offline cache update failed", slog.String("error", err.Error()))
		}
	}
	if s.broker != nil {
		s.broker.PublishMemoryEvent(notify.EventReloaded, 0)
	}
	return nil
}

// SetSort sets the sort direction without reloading.
func (s *Service) SetSort(dir models.SortDirection) {
	s.mu.Lock()
	s.ascending = dir == models.SortAscending
	s.mu.Unlock()
}

// ToggleSort flips the sort direction and reloads.
func (s *Service) ToggleSort(ctx context.Context) error {
	s.mu.Lock()
	s.ascending = !s.ascending
	s.mu.Unlock()
	return s.Load(ctx)
}

// Filter derives a filtered view from the last-loaded collection. Pure and
// idempotent; the stored records are untouched and the current sort
// direction is reapplied to the filtered view.
func (s *Service) Filter(f models.SearchFilter) []models.MemoryRecord {
	s.mu.Lock()
	records := append([]models.MemoryRecord(nil), s.records...)
	dir := s.directionLocked()
	s.mu.Unlock()
	return f.Apply(records, dir)
}

// Offline returns the records mirrored by the offline cache, in the
// current sort direction.
func (s *Service) Offline() ([]models.MemoryRecord, error) {
	if s.cache == nil {
		return nil, fmt.Errorf("journal: no offline cache configured")
	}
	return s.cache.All(s.SortDirection())
}

// Delete removes a memory after interactive confirmation, then reloads.
// No optimistic removal: on failure the record stays visible.
func (s *Service) Delete(ctx context.Context, id int64, confirm session.Confirmer) error {
	if confirm != nil && !confirm.Confirm("Delete this memory?") {
		return apperr.ErrCancelled
	}
	if err := s.api.DeleteMemory(ctx, id); err != nil {
		s.surface(err, "failed to delete memory")
		return err
	}

	s.notice(notify.LevelInfo, "memory deleted")
	if s.broker != nil {
		s.broker.PublishMemoryEvent(notify.EventDeleted, id)
	}
	return s.Load(ctx)
}

// Create validates the draft, uploads any staged files, and saves a new
// memory. On success the staging area is cleared and the list reloaded; on
// failure the draft and staged files are left for retry. A second create
// while one is pending is rejected.
func (s *Service) Create(ctx context.Context, draft models.Draft, area *staging.Area) error {
	release, err := s.acquire("create")
	if err != nil {
		return err
	}
	defer release()

	if err := s.prepare(ctx, &draft, area); err != nil {
		return err
	}

	if err := s.api.CreateMemory(ctx, draft); err != nil {
		s.surface(err, "failed to save memory")
		return err
	}

	if area != nil {
		area.Clear()
	}
	s.notice(notify.LevelInfo, "memory saved")
	if s.broker != nil {
		s.broker.PublishMemoryEvent(notify.EventCreated, 0)
	}
	return s.Load(ctx)
}

// Update replaces an existing memory wholesale. Staged files are uploaded
// and appended to the draft's kept media; removedURLs are deleted from
// storage only after the update succeeds. The deletions are not
// transactional with the update: a failure partway through leaves
// already-stored files behind and is surfaced, not masked.
func (s *Service) Update(ctx context.Context, id int64, draft models.Draft, area *staging.Area, removedURLs []string) error {
	release, err := s.acquire(fmt.Sprintf("edit:%d", id))
	if err != nil {
		return err
	}
	defer release()

	if err := s.prepare(ctx, &draft, area); err != nil {
		return err
	}

	if err := s.api.UpdateMemory(ctx, id, draft); err != nil {
		s.surface(err, "failed to update memory")
		return err
	}

	for _, u := range removedURLs {
		if err := s.uploads.DeleteStored(ctx, u); err != nil {
			s.surface(err, "failed to delete stored file")
		}
	}

	if area != nil {
		area.Clear()
	}
	s.notice(notify.LevelInfo, "memory updated")
	if s.broker != nil {
		s.broker.PublishMemoryEvent(notify.EventUpdated, id)
	}
	return s.Load(ctx)
}

// prepare runs local validation and the upload step shared by create and
// update. Validation failures never reach the network.
func (s *Service) prepare(ctx context.Context, draft *models.Draft, area *staging.Area) error {
	if err := draft.Validate(); err != nil {
		s.notice(notify.LevelError, err.Error())
		return err
	}

	if area != nil && area.Count() > 0 && draft.Kind != models.KindText {
		urls, err := s.uploads.Upload(ctx, area)
		if err != nil {
			s.surface(err, "failed to upload files")
			return err
		}
		draft.MediaURLs = append(draft.MediaURLs, urls...)
	}

	// A photo or video memory must end up with media attached.
	if draft.Kind != models.KindText && len(draft.MediaURLs) == 0 {
		err := fmt.Errorf("journal: %s memory needs at least one file", draft.Kind)
		s.notice(notify.LevelError, err.Error())
		return err
	}
	return nil
}

// acquire takes the single-flight slot for a form, the disabled-button
// analog: one pending save per form, not global.
func (s *Service) acquire(formKey string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[formKey] {
		return nil, apperr.ErrSaveInFlight
	}
	s.inFlight[formKey] = true
	return func() {
		s.mu.Lock()
		delete(s.inFlight, formKey)
		s.mu.Unlock()
	}, nil
}

// surface converts an operation failure into a user notice: application
// failures carry the server message verbatim, transport failures get a
// generic message with the cause logged for diagnostics.
func (s *Service) surface(err error, generic string) {
	var apiErr *restapi.APIError
	if errors.As(err, &apiErr) {
		s.notice(notify.LevelError, apiErr.Message)
		return
	}
	s.logger.Error(generic, slog.String("error", err.Error()))
	s.notice(notify.LevelError, generic+": network error")
}

func (s *Service) notice(level, message string) {
	if s.broker != nil {
		s.broker.Notify(level, message)
	}
}
