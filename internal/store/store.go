package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"betterfiction/pkg/models"
)

// Store owns the durable state: the bookmark directory, the settings
// snapshot and the capped diagnostic log. It is the single source of truth;
// callers operate on load-time snapshots and push mutations back.
type Store struct {
	DB *sql.DB

	// Serializes read-modify-write operations. There are no true concurrent
	// writers in this single-process model; a plain mutex is enough.
	mu sync.Mutex
}

func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// SetBookmark upserts a record by id. Every field is overwritten wholesale
// except add_time, which is immutable once set. A zero AddTime on first
// insert is replaced with the current time.
func (s *Store) SetBookmark(ctx context.Context, b models.Bookmark) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if !b.Status.Valid() {
		b.Status = models.StatusAutomatic
	}
	if b.AddTime.IsZero() {
		b.AddTime = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO bookmarks (id, chapter, chapters, fandom, author, story_name, add_time, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			chapter = excluded.chapter,
			chapters = excluded.chapters,
			fandom = excluded.fandom,
			author = excluded.author,
			story_name = excluded.story_name,
			status = excluded.status
	`, b.ID, b.Chapter, b.Chapters, b.Fandom, b.Author, b.StoryName, formatTime(b.AddTime), string(b.Status))
	if err != nil {
		return fmt.Errorf("upsert bookmark: %w", err)
	}
	return nil
}

// DelBookmark removes a record entirely. Removing an absent id succeeds.
func (s *Store) DelBookmark(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

// Get returns a single record, or nil when the story is not bookmarked.
func (s *Store) Get(ctx context.Context, id string) (*models.Bookmark, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, chapter, chapters, fandom, author, story_name, add_time, status
		FROM bookmarks
		WHERE id = ?
	`, id)

	b, err := scanBookmark(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	return &b, nil
}

// GetDir returns the entire bookmark directory keyed by story id.
func (s *Store) GetDir(ctx context.Context) (map[string]models.Bookmark, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, chapter, chapters, fandom, author, story_name, add_time, status
		FROM bookmarks
	`)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	dir := make(map[string]models.Bookmark)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		dir[b.ID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows bookmarks: %w", err)
	}
	return dir, nil
}

// SetStatus updates a single record's status in one transaction. If the
// record does not yet exist, a minimal one is created with AddTime set to
// now; the chapter position stays unset until the first real bookmark write.
func (s *Store) SetStatus(ctx context.Context, id string, status models.Status) error {
	if id == "" {
		return fmt.Errorf("set status: id required")
	}
	if !status.Valid() {
		return fmt.Errorf("set status %s: unknown status %q", id, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check bookmark: %w", err)
	}

	if exists == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bookmarks (id, chapter, chapters, fandom, author, story_name, add_time, status)
			VALUES (?, 0, 0, '', '', '', ?, ?)
		`, id, formatTime(time.Now().UTC()), string(status))
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE bookmarks SET status = ? WHERE id = ?`, string(status), id)
	}
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row rowScanner) (models.Bookmark, error) {
	var b models.Bookmark
	var addTime, status string
	if err := row.Scan(&b.ID, &b.Chapter, &b.Chapters, &b.Fandom, &b.Author, &b.StoryName, &addTime, &status); err != nil {
		return b, err
	}
	b.AddTime = parseTime(addTime)
	b.Status = models.ParseStatus(status)
	return b, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime tries the timestamp layouts that have appeared in stored data.
// Unparseable values come back zero rather than failing the read.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
