package sqlite

import (
	"context"
	"database/sql"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/repository"
)

// KVRepo implements repository.KVRepository.
type KVRepo struct {
	conn *sql.DB
}

var _ repository.KVRepository = (*KVRepo)(nil)

// GetKV reads a preference value. A missing key is apperror.ErrNotFound so
// callers can fall back to their default.
func (db *KVRepo) GetKV(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", apperror.NotFound("preference", key)
	}
	if err != nil {
		return "", apperror.Store("reading preference", err)
	}
	return value, nil
}

// SetKV writes a preference value, replacing any previous one.
func (db *KVRepo) SetKV(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return apperror.Store("writing preference", err)
	}
	return nil
}
