package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/ideahub/internal/apperror"
	"github.com/sakif/ideahub/internal/repository"
)

// IdentityRepo implements repository.IdentityRepository.
type IdentityRepo struct {
	conn *sql.DB
}

var _ repository.IdentityRepository = (*IdentityRepo)(nil)

// CreateIdentity inserts an identity row for the local password provider.
// Email uniqueness is enforced by the store; a duplicate reports
// apperror.ErrConflict.
func (db *IdentityRepo) CreateIdentity(ctx context.Context, rec *repository.IdentityRecord) error {
	if rec.ID == "" {
		rec.ID = xid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO identities (id, email, password_hash, username, full_name, provider,
		                         email_confirmed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Email,
		rec.PasswordHash,
		rec.Username,
		rec.FullName,
		rec.Provider,
		rec.EmailConfirmedAt,
		rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("identity", rec.Email)
		}
		return apperror.Store("inserting identity", err)
	}

	return nil
}

func (db *IdentityRepo) GetIdentityByEmail(ctx context.Context, email string) (*repository.IdentityRecord, error) {
	return db.getIdentity(ctx, `email = ?`, email)
}

func (db *IdentityRepo) GetIdentityByID(ctx context.Context, id string) (*repository.IdentityRecord, error) {
	return db.getIdentity(ctx, `id = ?`, id)
}

func (db *IdentityRepo) getIdentity(ctx context.Context, where string, arg string) (*repository.IdentityRecord, error) {
	var (
		rec       repository.IdentityRecord
		confirmed sql.NullTime
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, username, full_name, provider,
		        email_confirmed_at, created_at
		 FROM identities WHERE `+where,
		arg,
	).Scan(
		&rec.ID,
		&rec.Email,
		&rec.PasswordHash,
		&rec.Username,
		&rec.FullName,
		&rec.Provider,
		&confirmed,
		&rec.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("identity", arg)
		}
		return nil, apperror.Store(fmt.Sprintf("getting identity %s", arg), err)
	}

	if confirmed.Valid {
		rec.EmailConfirmedAt = &confirmed.Time
	}
	return &rec, nil
}

// ConfirmIdentity records the confirmation instant. Confirming an already
// confirmed identity is a no-op overwrite; a missing one is ErrNotFound.
func (db *IdentityRepo) ConfirmIdentity(ctx context.Context, id string, at time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE identities SET email_confirmed_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return apperror.Store(fmt.Sprintf("confirming identity %s", id), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.Store("checking rows affected", err)
	}
	if affected == 0 {
		return apperror.NotFound("identity", id)
	}

	return nil
}

// UpsertOAuthIdentity creates or refreshes an identity for an external
// OAuth account, keyed by email. First sign-in inserts; later sign-ins keep
// the existing internal ID and refresh the profile metadata. OAuth
// identities arrive pre-confirmed — the external provider already verified
// the email.
func (db *IdentityRepo) UpsertOAuthIdentity(ctx context.Context, rec *repository.IdentityRecord) error {
	existing, err := db.GetIdentityByEmail(ctx, rec.Email)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	if err == nil {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		rec.EmailConfirmedAt = existing.EmailConfirmedAt
		if rec.EmailConfirmedAt == nil {
			// A password sign-up that never confirmed. The OAuth provider
			// has verified this email, so confirmation happens here.
			now := time.Now()
			rec.EmailConfirmedAt = &now
		}
		_, err = db.conn.ExecContext(ctx,
			`UPDATE identities SET username = ?, full_name = ?, provider = ?, email_confirmed_at = ? WHERE id = ?`,
			rec.Username, rec.FullName, rec.Provider, rec.EmailConfirmedAt, rec.ID)
		if err != nil {
			return apperror.Store(fmt.Sprintf("updating oauth identity %s", rec.ID), err)
		}
		return nil
	}

	now := time.Now()
	if rec.EmailConfirmedAt == nil {
		rec.EmailConfirmedAt = &now
	}
	return db.CreateIdentity(ctx, rec)
}
