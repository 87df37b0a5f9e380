package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studynotion/apiserver/types"
)

// CodeRepository stores one verification code slot per email.
type CodeRepository struct {
	db DBTX
}

func NewCodeRepository(db DBTX) *CodeRepository {
	return &CodeRepository{db: db}
}

// Upsert replaces the email's code slot.
func (r *CodeRepository) Upsert(ctx context.Context, code types.OneTimeCode) error {
	const query = `
		INSERT INTO one_time_codes (email, code, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`
	_, err := r.db.ExecContext(ctx, query, code.Email, code.Code, code.CreatedAt, code.ExpiresAt)
	return err
}

func (r *CodeRepository) Get(ctx context.Context, email string) (types.OneTimeCode, error) {
	const query = `SELECT email, code, created_at, expires_at FROM one_time_codes WHERE email = $1`
	var code types.OneTimeCode
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&code.Email,
		&code.Code,
		&code.CreatedAt,
		&code.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.OneTimeCode{}, ErrNotFound
		}
		return types.OneTimeCode{}, err
	}
	return code, nil
}

func (r *CodeRepository) Delete(ctx context.Context, email string) error {
	const query = `DELETE FROM one_time_codes WHERE email = $1`
	result, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
