package store

import (
	"context"
	"encoding/json"
	"fmt"

	"betterfiction/pkg/models"
)

// Blob is the full local store serialized as one JSON document.
type Blob struct {
	Settings  models.Settings            `json:"settings"`
	Bookmarks map[string]models.Bookmark `json:"bookmarks"`
	Logs      []models.LogEntry          `json:"logs"`
}

// Export serializes the entire store.
func (s *Store) Export(ctx context.Context) (*Blob, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	dir, err := s.GetDir(ctx)
	if err != nil {
		return nil, fmt.Errorf("export bookmarks: %w", err)
	}
	logs, err := s.Logs(ctx)
	if err != nil {
		return nil, fmt.Errorf("export logs: %w", err)
	}
	return &Blob{Settings: settings, Bookmarks: dir, Logs: logs}, nil
}

// ExportJSON is Export rendered to bytes.
func (s *Store) ExportJSON(ctx context.Context) ([]byte, error) {
	blob, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return b, nil
}

// Import replaces the entire store with the given blob. This is a
// full-replace operation, not a merge.
func (s *Store) Import(ctx context.Context, blob *Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"bookmarks", "settings", "error_log"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for id, b := range blob.Bookmarks {
		if b.ID == "" {
			b.ID = id
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bookmarks (id, chapter, chapters, fandom, author, story_name, add_time, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, b.ID, b.Chapter, b.Chapters, b.Fandom, b.Author, b.StoryName, formatTime(b.AddTime), string(b.Status)); err != nil {
			return fmt.Errorf("import bookmark %s: %w", b.ID, err)
		}
	}

	for key, value := range blob.Settings {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal setting %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)`, key, string(raw)); err != nil {
			return fmt.Errorf("import setting %s: %w", key, err)
		}
	}

	// logs import oldest-first so that id order matches newest-first reads
	for i := len(blob.Logs) - 1; i >= 0; i-- {
		entry := blob.Logs[i]
		metaJSON := "{}"
		if len(entry.Meta) > 0 {
			if b, err := json.Marshal(entry.Meta); err == nil {
				metaJSON = string(b)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO error_log (ts, type, message, meta) VALUES (?, ?, ?, ?)
		`, formatTime(entry.TS), entry.Type, entry.Message, metaJSON); err != nil {
			return fmt.Errorf("import log entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ImportJSON parses and imports a serialized blob.
func (s *Store) ImportJSON(ctx context.Context, data []byte) error {
	var blob Blob
	if err := json.Unmarshal(data, &blob); err != nil {
		return fmt.Errorf("parse import: %w", err)
	}
	return s.Import(ctx, &blob)
}
