package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studynotion/apiserver/types"
)

// ProgressRepository handles persistence for per-student course progress.
type ProgressRepository struct {
	db DBTX
}

func NewProgressRepository(db DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Get(ctx context.Context, userID, courseID int) (types.CourseProgress, error) {
	const query = `SELECT id, user_id, course_id FROM course_progress WHERE user_id = $1 AND course_id = $2`
	var progress types.CourseProgress
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(&progress.ID, &progress.UserID, &progress.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.CourseProgress{}, ErrNotFound
		}
		return types.CourseProgress{}, err
	}

	progress.CompletedVideos, err = queryIDs(ctx, r.db,
		`SELECT subsection_id FROM course_progress_videos WHERE progress_id = $1 ORDER BY position`, progress.ID)
	if err != nil {
		return types.CourseProgress{}, err
	}
	return progress, nil
}

func (r *ProgressRepository) Create(ctx context.Context, progress types.CourseProgress) (types.CourseProgress, error) {
	const query = `INSERT INTO course_progress (user_id, course_id) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, progress.UserID, progress.CourseID).Scan(&progress.ID); err != nil {
		return types.CourseProgress{}, err
	}
	progress.CompletedVideos = []int{}
	return progress, nil
}

func (r *ProgressRepository) AddCompleted(ctx context.Context, progressID, subSectionID int) error {
	const query = `
		INSERT INTO course_progress_videos (progress_id, subsection_id, position)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1 FROM course_progress_videos WHERE progress_id = $1
		ON CONFLICT (progress_id, subsection_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, progressID, subSectionID)
	return err
}

// RemoveCompleted drops a deleted lecture from every student's progress.
func (r *ProgressRepository) RemoveCompleted(ctx context.Context, subSectionID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM course_progress_videos WHERE subsection_id = $1`, subSectionID)
	return err
}

func (r *ProgressRepository) DeleteByCourse(ctx context.Context, courseID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM course_progress WHERE course_id = $1`, courseID)
	return err
}
