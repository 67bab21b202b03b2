package restapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/leaflora/memoria/internal/models"
)

// eventDateLayout matches the datetime-local format the original form
// submits; the backend accepts and echoes it.
const eventDateLayout = "2006-01-02T15:04"

type listResponse struct {
	envelope
	Data []models.MemoryRecord `json:"data"`
}

// ListMemories fetches the full memory list ordered by event date.
func (c *Client) ListMemories(ctx context.Context, dir models.SortDirection) ([]models.MemoryRecord, error) {
	var resp listResponse
	if err := c.doJSON(ctx, http.MethodGet, "/memories?sort="+string(dir), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// memoryPayload is the request body for create and update. Title is a
// pointer so an empty title serializes as null rather than "".
type memoryPayload struct {
	Title     *string          `json:"title"`
	Content   string           `json:"content"`
	EventDate string           `json:"event_date"`
	Type      models.MediaKind `json:"type"`
	MediaURLs []string         `json:"media_urls"`
}

func payloadFromDraft(d models.Draft) memoryPayload {
	var title *string
	if d.Title != "" {
		title = &d.Title
	}
	urls := d.MediaURLs
	if urls == nil {
		urls = []string{}
	}
	return memoryPayload{
		Title:     title,
		Content:   d.Content,
		EventDate: d.EventDate.Format(eventDateLayout),
		Type:      d.Kind,
		MediaURLs: urls,
	}
}

// CreateMemory persists a new memory.
func (c *Client) CreateMemory(ctx context.Context, d models.Draft) error {
	var resp envelope
	return c.doJSON(ctx, http.MethodPost, "/memories", payloadFromDraft(d), &resp)
}

// UpdateMemory replaces an existing memory wholesale.
func (c *Client) UpdateMemory(ctx context.Context, id int64, d models.Draft) error {
	var resp envelope
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/memories/%d", id), payloadFromDraft(d), &resp)
}

// DeleteMemory removes a memory.
func (c *Client) DeleteMemory(ctx context.Context, id int64) error {
	var resp envelope
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/memories/%d", id), nil, &resp)
}
