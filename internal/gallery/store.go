// Package gallery persists illustration URLs collected across story
// sessions. The store is append-only and deduplicated by exact URL.
package gallery

import (
	"context"
	"fmt"
	"time"

	"github.com/wonderkid/storytime/internal/db"
)

// Image is one stored illustration reference.
type Image struct {
	URL     string
	StoryID string
	AddedAt time.Time
}

// Store provides gallery persistence.
type Store struct {
	db *db.DB
	// maxImages caps the gallery; zero means unbounded. When the cap is
	// exceeded the oldest entries are evicted.
	maxImages int
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB, maxImages int) *Store {
	return &Store{db: database, maxImages: maxImages}
}

// Add inserts the URL if it is not already present. Re-adding an existing
// URL is a no-op; it reports whether a new row was inserted.
func (s *Store) Add(ctx context.Context, url, storyID string) (bool, error) {
	if url == "" {
		return false, fmt.Errorf("empty image URL")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO gallery_images (url, story_id) VALUES (?, ?)
		ON CONFLICT(url) DO NOTHING`, url, storyID)
	if err != nil {
		return false, fmt.Errorf("inserting gallery image: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking insert result: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if s.maxImages > 0 {
		if err := s.evict(ctx); err != nil {
			return true, err
		}
	}
	return true, nil
}

// evict removes the oldest rows beyond the configured cap.
func (s *Store) evict(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM gallery_images WHERE id NOT IN (
			SELECT id FROM gallery_images ORDER BY id DESC LIMIT ?
		)`, s.maxImages)
	if err != nil {
		return fmt.Errorf("evicting old gallery images: %w", err)
	}
	return nil
}

// List returns all images in insertion order.
func (s *Store) List(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, story_id, added_at FROM gallery_images ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing gallery images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		var addedAt string
		if err := rows.Scan(&img.URL, &img.StoryID, &addedAt); err != nil {
			return nil, fmt.Errorf("scanning gallery image: %w", err)
		}
		if t, err := time.Parse(time.DateTime, addedAt); err == nil {
			img.AddedAt = t
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating gallery images: %w", err)
	}
	return images, nil
}

// ListByStory returns images for one story, in insertion order.
func (s *Store) ListByStory(ctx context.Context, storyID string) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, story_id, added_at FROM gallery_images WHERE story_id = ? ORDER BY id`, storyID)
	if err != nil {
		return nil, fmt.Errorf("listing gallery images for story %s: %w", storyID, err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		var addedAt string
		if err := rows.Scan(&img.URL, &img.StoryID, &addedAt); err != nil {
			return nil, fmt.Errorf("scanning gallery image: %w", err)
		}
		if t, err := time.Parse(time.DateTime, addedAt); err == nil {
			img.AddedAt = t
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating gallery images: %w", err)
	}
	return images, nil
}

// Count returns the number of stored images.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gallery_images`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting gallery images: %w", err)
	}
	return n, nil
}

// Clear empties the gallery.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM gallery_images`); err != nil {
		return fmt.Errorf("clearing gallery: %w", err)
	}
	return nil
}
