package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/cwygoda/morgue/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_cookies (
    host       TEXT NOT NULL,
    name       TEXT NOT NULL,
    value      TEXT NOT NULL,
    domain     TEXT NOT NULL DEFAULT '',
    path       TEXT NOT NULL DEFAULT '/',
    expires_at DATETIME,
    http_only  INTEGER NOT NULL DEFAULT 0,
    secure     INTEGER NOT NULL DEFAULT 0,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (host, name, domain, path)
);
`

// Repository implements domain.SessionStore using SQLite.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLite repository, initializing the schema if needed.
func New(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveCookies replaces the stored cookies for host.
func (r *Repository) SaveCookies(ctx context.Context, host string, cookies []domain.SessionCookie) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_cookies WHERE host = ?`, host); err != nil {
		return err
	}

	now := r.now()
	for _, c := range cookies {
		var expires sql.NullTime
		if !c.Expires.IsZero() {
			expires = sql.NullTime{Time: c.Expires.UTC(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO session_cookies
			 (host, name, value, domain, path, expires_at, http_only, secure, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			host, c.Name, c.Value, c.Domain, c.Path, expires, c.HTTPOnly, c.Secure, now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadCookies returns the unexpired cookies stored for host.
func (r *Repository) LoadCookies(ctx context.Context, host string) ([]domain.SessionCookie, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, value, domain, path, expires_at, http_only, secure
		 FROM session_cookies WHERE host = ? ORDER BY name ASC`,
		host,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := r.now()
	var cookies []domain.SessionCookie
	for rows.Next() {
		var c domain.SessionCookie
		var expires sql.NullTime
		if err := rows.Scan(&c.Name, &c.Value, &c.Domain, &c.Path, &expires, &c.HTTPOnly, &c.Secure); err != nil {
			return nil, err
		}
		if expires.Valid {
			c.Expires = expires.Time
		}
		if c.Expired(now) {
			continue
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// ClearCookies removes every cookie stored for host.
func (r *Repository) ClearCookies(ctx context.Context, host string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_cookies WHERE host = ?`, host)
	return err
}
