package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Device is one paired reader installation. The service is single-user;
// devices exist so a lost token can be revoked by deleting its row.
type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, d Device) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO devices (id, name) VALUES (?, ?)
	`, d.ID, d.Name)
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Device, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM devices WHERE id = ?
	`, id)

	var d Device
	var created string
	if err := row.Scan(&d.ID, &d.Name, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		d.CreatedAt = t
	}
	return &d, nil
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete device: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) List(ctx context.Context) ([]Device, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, created_at FROM devices ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	out := make([]Device, 0)
	for rows.Next() {
		var d Device
		var created string
		if err := rows.Scan(&d.ID, &d.Name, &created); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			d.CreatedAt = t
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows devices: %w", err)
	}
	return out, nil
}
