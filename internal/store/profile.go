package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studynotion/apiserver/types"
)

// ProfileRepository handles persistence for user profiles.
type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, id int) (types.Profile, error) {
	const query = `SELECT id, gender, date_of_birth, about, contact_number FROM profiles WHERE id = $1`
	var profile types.Profile
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.Gender,
		&profile.DateOfBirth,
		&profile.About,
		&profile.ContactNumber,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Profile{}, ErrNotFound
		}
		return types.Profile{}, err
	}
	return profile, nil
}

func (r *ProfileRepository) Create(ctx context.Context, profile types.Profile) (types.Profile, error) {
	const query = `
		INSERT INTO profiles (gender, date_of_birth, about, contact_number)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		profile.Gender,
		profile.DateOfBirth,
		profile.About,
		profile.ContactNumber,
	).Scan(&profile.ID); err != nil {
		return types.Profile{}, err
	}
	return profile, nil
}
