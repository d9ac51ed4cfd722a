package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"betterfiction/pkg/models"
)

// LogError appends a diagnostic entry and evicts anything beyond the cap.
// Logging failures are reported to the process log only; they never
// propagate into the caller's control flow.
func (s *Store) LogError(ctx context.Context, kind, message string, meta map[string]string) {
	metaJSON := "{}"
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			metaJSON = string(b)
		}
	}

	ts := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.DB.ExecContext(ctx, `
		INSERT INTO error_log (ts, type, message, meta) VALUES (?, ?, ?, ?)
	`, ts, kind, message, metaJSON); err != nil {
		log.Printf("[store] failed to write diagnostic log: %v", err)
		return
	}

	if _, err := s.DB.ExecContext(ctx, `
		DELETE FROM error_log WHERE id NOT IN (
			SELECT id FROM error_log ORDER BY id DESC LIMIT ?
		)
	`, models.MaxLogEntries); err != nil {
		log.Printf("[store] failed to trim diagnostic log: %v", err)
	}
}

// Logs returns the diagnostic log, newest first.
func (s *Store) Logs(ctx context.Context) ([]models.LogEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT ts, type, message, meta FROM error_log ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	out := make([]models.LogEntry, 0)
	for rows.Next() {
		var entry models.LogEntry
		var ts, metaJSON string
		if err := rows.Scan(&ts, &entry.Type, &entry.Message, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entry.TS = parseTime(ts)
		if metaJSON != "" && metaJSON != "{}" {
			_ = json.Unmarshal([]byte(metaJSON), &entry.Meta)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows logs: %w", err)
	}
	return out, nil
}

// ClearLogs drops the entire diagnostic log.
func (s *Store) ClearLogs(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM error_log`); err != nil {
		return fmt.Errorf("clear logs: %w", err)
	}
	return nil
}
