package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/studynotion/apiserver/types"
)

// RatingRepository handles persistence for ratings and reviews.
type RatingRepository struct {
	db DBTX
}

func NewRatingRepository(db DBTX) *RatingRepository {
	return &RatingRepository{db: db}
}

const ratingColumns = `id, user_id, course_id, rating, review, created_at`

func (r *RatingRepository) list(ctx context.Context, query string, args ...any) ([]types.RatingAndReview, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make([]types.RatingAndReview, 0)
	for rows.Next() {
		var rating types.RatingAndReview
		if err := rows.Scan(
			&rating.ID,
			&rating.UserID,
			&rating.CourseID,
			&rating.Rating,
			&rating.Review,
			&rating.CreatedAt,
		); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *RatingRepository) Create(ctx context.Context, rating types.RatingAndReview) (types.RatingAndReview, error) {
	rating.CreatedAt = time.Now()

	const query = `
		INSERT INTO ratings_and_reviews (user_id, course_id, rating, review, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		rating.UserID,
		rating.CourseID,
		rating.Rating,
		rating.Review,
		rating.CreatedAt,
	).Scan(&rating.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return types.RatingAndReview{}, ErrDuplicate
		}
		return types.RatingAndReview{}, err
	}
	return rating, nil
}

func (r *RatingRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (types.RatingAndReview, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings_and_reviews WHERE user_id = $1 AND course_id = $2`
	var rating types.RatingAndReview
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(
		&rating.ID,
		&rating.UserID,
		&rating.CourseID,
		&rating.Rating,
		&rating.Review,
		&rating.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.RatingAndReview{}, ErrNotFound
		}
		return types.RatingAndReview{}, err
	}
	return rating, nil
}

func (r *RatingRepository) ListByCourse(ctx context.Context, courseID int) ([]types.RatingAndReview, error) {
	return r.list(ctx, `SELECT `+ratingColumns+` FROM ratings_and_reviews WHERE course_id = $1 ORDER BY id`, courseID)
}

// List returns every rating, highest rating first, newest first within a score.
func (r *RatingRepository) List(ctx context.Context) ([]types.RatingAndReview, error) {
	return r.list(ctx, `SELECT `+ratingColumns+` FROM ratings_and_reviews ORDER BY rating DESC, created_at DESC, id DESC`)
}

func (r *RatingRepository) DeleteByCourse(ctx context.Context, courseID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ratings_and_reviews WHERE course_id = $1`, courseID)
	return err
}
