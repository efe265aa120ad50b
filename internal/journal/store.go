package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wonderkid/storytime/internal/db"
)

// ErrNotFound is returned when a story record does not exist.
var ErrNotFound = errors.New("story record not found")

// Store provides journal persistence.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Save upserts the record keyed by story ID.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.StoryID == "" {
		return fmt.Errorf("record missing story ID")
	}

	paragraphs, err := json.Marshal(rec.Paragraphs)
	if err != nil {
		return fmt.Errorf("marshalling paragraphs: %w", err)
	}
	choices, err := json.Marshal(rec.ChoicesMade)
	if err != nil {
		return fmt.Errorf("marshalling choices: %w", err)
	}
	images, err := json.Marshal(rec.ImageURLs)
	if err != nil {
		return fmt.Errorf("marshalling image URLs: %w", err)
	}

	completed := 0
	var completedAt sql.NullString
	if rec.Completed {
		completed = 1
		at := rec.CompletedAt
		if at.IsZero() {
			at = time.Now()
		}
		completedAt = sql.NullString{String: at.UTC().Format(time.DateTime), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO story_records (
			story_id, title, theme, paragraphs, choices_made, image_urls,
			completed_paragraphs, total_paragraphs, reading_seconds,
			completed, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(story_id) DO UPDATE SET
			title = excluded.title,
			paragraphs = excluded.paragraphs,
			choices_made = excluded.choices_made,
			image_urls = excluded.image_urls,
			completed_paragraphs = excluded.completed_paragraphs,
			total_paragraphs = excluded.total_paragraphs,
			reading_seconds = excluded.reading_seconds,
			completed = excluded.completed,
			completed_at = excluded.completed_at`,
		rec.StoryID, rec.Title, rec.Theme, string(paragraphs), string(choices), string(images),
		rec.CompletedParagraphs, rec.TotalParagraphs, rec.ReadingSeconds,
		completed, completedAt,
	)
	if err != nil {
		return fmt.Errorf("saving story record: %w", err)
	}
	return nil
}

// Get retrieves one story record.
func (s *Store) Get(ctx context.Context, storyID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT story_id, title, theme, paragraphs, choices_made, image_urls,
		       completed_paragraphs, total_paragraphs, reading_seconds,
		       completed, started_at, completed_at
		FROM story_records WHERE story_id = ?`, storyID)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storyID)
		}
		return nil, err
	}
	return rec, nil
}

// List returns all records, most recently started first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT story_id, title, theme, paragraphs, choices_made, image_urls,
		       completed_paragraphs, total_paragraphs, reading_seconds,
		       completed, started_at, completed_at
		FROM story_records ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing story records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating story records: %w", err)
	}
	return records, nil
}

// Stats derives the aggregate reading statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	return s.statsAt(ctx, time.Now())
}

func (s *Store) statsAt(ctx context.Context, now time.Time) (*Stats, error) {
	var storiesRead, totalSeconds int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(reading_seconds), 0)
		FROM story_records WHERE completed = 1`).Scan(&storiesRead, &totalSeconds)
	if err != nil {
		return nil, fmt.Errorf("aggregating journal: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT completed_at FROM story_records
		WHERE completed = 1 AND completed_at IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("reading completion days: %w", err)
	}
	defer rows.Close()

	days := make(map[time.Time]bool)
	for rows.Next() {
		var at string
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("scanning completion day: %w", err)
		}
		if t, err := time.Parse(time.DateTime, at); err == nil {
			days[t.Truncate(24*time.Hour)] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating completion days: %w", err)
	}

	streak := streakFor(days, now.UTC())
	return &Stats{
		StoriesRead:         storiesRead,
		TotalReadingSeconds: totalSeconds,
		Streak:              streak,
		Level:               levelFor(storiesRead),
		Achievements:        achievementsFor(storiesRead, streak),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var paragraphs, choices, images string
	var completed int
	var startedAt string
	var completedAt sql.NullString

	err := row.Scan(&rec.StoryID, &rec.Title, &rec.Theme, &paragraphs, &choices, &images,
		&rec.CompletedParagraphs, &rec.TotalParagraphs, &rec.ReadingSeconds,
		&completed, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(paragraphs), &rec.Paragraphs); err != nil {
		return nil, fmt.Errorf("unmarshalling paragraphs: %w", err)
	}
	if err := json.Unmarshal([]byte(choices), &rec.ChoicesMade); err != nil {
		return nil, fmt.Errorf("unmarshalling choices: %w", err)
	}
	if err := json.Unmarshal([]byte(images), &rec.ImageURLs); err != nil {
		return nil, fmt.Errorf("unmarshalling image URLs: %w", err)
	}

	rec.Completed = completed == 1
	if t, err := time.Parse(time.DateTime, startedAt); err == nil {
		rec.StartedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.DateTime, completedAt.String); err == nil {
			rec.CompletedAt = t
		}
	}
	return &rec, nil
}
