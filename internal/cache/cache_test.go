package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/leaflora/memoria/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func rec(id int64, title, day string, urls ...string) models.MemoryRecord {
	parsed, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	kind := models.KindText
	if len(urls) > 0 {
		kind = models.KindPhoto
	}
	return models.MemoryRecord{
		ID:        id,
		Title:     title,
		Content:   "content of " + title,
		EventDate: models.Timestamp{Time: parsed},
		CreatedAt: models.Timestamp{Time: parsed.Add(time.Hour)},
		Type:      kind,
		MediaURLs: urls,
	}
}

func TestReplaceAllAndAll(t *testing.T) {
	db := testDB(t)

	err := db.ReplaceAll([]models.MemoryRecord{
		rec(1, "older", "2025-01-01"),
		rec(2, "newer", "2025-03-01", "/uploads/a.jpg", "/uploads/b.jpg"),
	})
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	desc, err := db.All(models.SortDescending)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(desc) != 2 || desc[0].Title != "newer" {
		t.Fatalf("desc = %+v", desc)
	}
	if len(desc[0].MediaURLs) != 2 || desc[0].MediaURLs[0] != "/uploads/a.jpg" {
		t.Fatalf("media urls = %v", desc[0].MediaURLs)
	}
	if desc[0].Type != models.KindPhoto {
		t.Fatalf("type = %s", desc[0].Type)
	}

	asc, err := db.All(models.SortAscending)
	if err != nil {
		t.Fatalf("All asc: %v", err)
	}
	if asc[0].Title != "older" {
		t.Fatalf("asc = %+v", asc)
	}
}

func TestReplaceAllIsWholesale(t *testing.T) {
	db := testDB(t)

	if err := db.ReplaceAll([]models.MemoryRecord{rec(1, "first", "2025-01-01")}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if err := db.ReplaceAll([]models.MemoryRecord{rec(2, "second", "2025-02-01")}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}

	all, _ := db.All(models.SortDescending)
	if all[0].Title != "second" {
		t.Fatalf("all = %+v", all)
	}
}

func TestReplaceAllEmpty(t *testing.T) {
	db := testDB(t)

	if err := db.ReplaceAll([]models.MemoryRecord{rec(1, "gone", "2025-01-01")}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if err := db.ReplaceAll(nil); err != nil {
		t.Fatalf("ReplaceAll nil: %v", err)
	}
	n, _ := db.Count()
	if n != 0 {
		t.Fatalf("count = %d", n)
	}
}

func TestTimestampsSurviveRoundTrip(t *testing.T) {
	db := testDB(t)
	in := rec(1, "dated", "2025-06-14")

	if err := db.ReplaceAll([]models.MemoryRecord{in}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	out, err := db.All(models.SortDescending)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if !out[0].EventDate.Equal(in.EventDate.Time) {
		t.Fatalf("event date %v != %v", out[0].EventDate, in.EventDate)
	}
	if !out[0].CreatedAt.Equal(in.CreatedAt.Time) {
		t.Fatalf("created at %v != %v", out[0].CreatedAt, in.CreatedAt)
	}
}
