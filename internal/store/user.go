package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/studynotion/apiserver/types"
)

const uniqueViolation = "23505"

// UserRepository handles persistence for users and their course lists.
type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, account_type, approved, profile_id, image, created_at, updated_at`

func (r *UserRepository) scan(ctx context.Context, row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.AccountType,
		&user.Approved,
		&user.ProfileID,
		&user.Image,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	user.Courses, err = queryIDs(ctx, r.db,
		`SELECT course_id FROM user_courses WHERE user_id = $1 ORDER BY position`, user.ID)
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scan(ctx, r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scan(ctx, r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (first_name, last_name, email, password_hash, account_type, approved, profile_id, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.AccountType,
		user.Approved,
		user.ProfileID,
		user.Image,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	if user.Courses == nil {
		user.Courses = []int{}
	}
	return user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// AddCourse appends courseID to the user's course list. Adding a course that
// is already listed is a no-op.
func (r *UserRepository) AddCourse(ctx context.Context, userID, courseID int) error {
	const query = `
		INSERT INTO user_courses (user_id, course_id, position)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1 FROM user_courses WHERE user_id = $1
		ON CONFLICT (user_id, course_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, userID, courseID)
	return err
}

func (r *UserRepository) RemoveCourse(ctx context.Context, userID, courseID int) error {
	const query = `DELETE FROM user_courses WHERE user_id = $1 AND course_id = $2`
	_, err := r.db.ExecContext(ctx, query, userID, courseID)
	return err
}
