package database

import (
	"database/sql"
	"fmt"
)

// Schema is kept in code rather than a docs/ file so that in-memory test
// databases can be migrated without touching the filesystem.
const schema = `
CREATE TABLE IF NOT EXISTS bookmarks (
	id TEXT PRIMARY KEY,
	chapter INTEGER NOT NULL,
	chapters INTEGER NOT NULL,
	fandom TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL DEFAULT '',
	story_name TEXT NOT NULL DEFAULT '',
	add_time TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Automatic'
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS error_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	type TEXT NOT NULL,
	message TEXT NOT NULL,
	meta TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS devices (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
