package cookies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/client/models"
	"github.com/dmitrijs2005/trackmeta/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, c *models.Cookie) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cookies (name, value, path, expires_at, secure, same_site, raw, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			path = excluded.path,
			expires_at = excluded.expires_at,
			secure = excluded.secure,
			same_site = excluded.same_site,
			raw = excluded.raw,
			updated_at = excluded.updated_at
	`, c.Name, c.Value, c.Path, c.Expires.Unix(), c.Secure, c.SameSite, c.Raw, c.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to put cookie[%s]: %w", c.Name, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, name string) (*models.Cookie, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT name, value, path, expires_at, secure, same_site, raw, updated_at
		FROM cookies WHERE name = ?`, name)

	c, err := scanCookie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cookie[%s]: %w", name, err)
	}
	return c, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cookies WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete cookie[%s]: %w", name, err)
	}
	return nil
}

// List returns all cookies ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Cookie, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, value, path, expires_at, secure, same_site, raw, updated_at
		FROM cookies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cookies: %w", err)
	}
	defer rows.Close()

	var result []*models.Cookie
	for rows.Next() {
		c, err := scanCookie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cookie row: %w", err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cookie rows: %w", err)
	}

	return result, nil
}

// DeleteExpired removes every cookie whose expiry is at or before now and
// reports how many rows were removed.
func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cookies WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cookies: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cookies: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCookie(s scanner) (*models.Cookie, error) {
	var (
		c                  models.Cookie
		expires, updatedAt int64
	)
	if err := s.Scan(&c.Name, &c.Value, &c.Path, &expires, &c.Secure, &c.SameSite, &c.Raw, &updatedAt); err != nil {
		return nil, err
	}
	c.Expires = time.Unix(expires, 0).UTC()
	c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &c, nil
}
