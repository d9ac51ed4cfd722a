package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"betterfiction/pkg/models"
)

// Settings returns the current settings snapshot.
func (s *Store) Settings(ctx context.Context) (models.Settings, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := make(models.Settings)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			// tolerate a corrupt value; the key just falls back to default
			continue
		}
		out[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows settings: %w", err)
	}
	return out, nil
}

// SetSetting writes a single setting value.
func (s *Store) SetSetting(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal setting %s: %w", key, err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(raw))
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// Install brings persisted state up to date: merges any prior settings
// (including legacy key names) over computed defaults, with prior explicit
// values winning, and migrates legacy slash-delimited add times to ISO-8601.
// Safe to run on every startup.
func (s *Store) Install(ctx context.Context) error {
	prior, err := s.Settings(ctx)
	if err != nil {
		s.LogError(ctx, models.LogStorageError, "Failed to read settings on install", map[string]string{"error": err.Error()})
		prior = models.Settings{}
	}

	merged := models.DefaultSettings()
	for _, key := range models.KnownSettingKeys() {
		if v, ok := prior[key]; ok {
			merged[key] = v
		}
	}
	// compatibility with old version settings
	for oldKey, newKey := range models.LegacySettingKeys {
		if v, ok := prior[oldKey]; ok {
			merged[newKey] = v
		}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	for key, value := range merged {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal setting %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)`, key, string(raw)); err != nil {
			return fmt.Errorf("write setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	if err := s.migrateLegacyDates(ctx); err != nil {
		log.Printf("[store] legacy date migration failed: %v", err)
		s.LogError(ctx, models.LogStorageError, "Failed to migrate legacy date storage", map[string]string{"error": err.Error()})
	}
	return nil
}

// migrateLegacyDates rewrites slash-delimited add times (DD/MM/YYYY from
// old releases) into ISO-8601.
func (s *Store) migrateLegacyDates(ctx context.Context) error {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, add_time FROM bookmarks WHERE add_time LIKE '%/%'`)
	if err != nil {
		return fmt.Errorf("list legacy dates: %w", err)
	}
	defer rows.Close()

	fixes := make(map[string]string)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("scan legacy date: %w", err)
		}
		parts := strings.Split(raw, "/")
		if len(parts) != 3 {
			continue
		}
		parsed, err := time.Parse("2/1/2006", strings.Join(parts, "/"))
		if err != nil {
			continue
		}
		fixes[id] = parsed.UTC().Format(time.RFC3339Nano)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows legacy dates: %w", err)
	}

	for id, iso := range fixes {
		if _, err := s.DB.ExecContext(ctx, `UPDATE bookmarks SET add_time = ? WHERE id = ?`, iso, id); err != nil {
			return fmt.Errorf("rewrite add_time for %s: %w", id, err)
		}
	}
	return nil
}
