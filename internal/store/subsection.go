package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studynotion/apiserver/types"
)

// SubSectionRepository handles persistence for lecture videos.
type SubSectionRepository struct {
	db DBTX
}

func NewSubSectionRepository(db DBTX) *SubSectionRepository {
	return &SubSectionRepository{db: db}
}

const subSectionColumns = `id, section_id, title, description, time_duration, video_url`

func scanSubSection(row rowScanner) (types.SubSection, error) {
	var sub types.SubSection
	err := row.Scan(
		&sub.ID,
		&sub.SectionID,
		&sub.Title,
		&sub.Description,
		&sub.TimeDuration,
		&sub.VideoURL,
	)
	return sub, err
}

func (r *SubSectionRepository) Get(ctx context.Context, id int) (types.SubSection, error) {
	query := `SELECT ` + subSectionColumns + ` FROM subsections WHERE id = $1`
	sub, err := scanSubSection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.SubSection{}, ErrNotFound
		}
		return types.SubSection{}, err
	}
	return sub, nil
}

// ListBySection returns the section's subsections in order.
func (r *SubSectionRepository) ListBySection(ctx context.Context, sectionID int) ([]types.SubSection, error) {
	query := `SELECT ` + subSectionColumns + ` FROM subsections WHERE section_id = $1 ORDER BY position, id`
	rows, err := r.db.QueryContext(ctx, query, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]types.SubSection, 0)
	for rows.Next() {
		sub, err := scanSubSection(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

// Create appends a subsection to the end of its section.
func (r *SubSectionRepository) Create(ctx context.Context, sub types.SubSection) (types.SubSection, error) {
	const query = `
		INSERT INTO subsections (section_id, title, description, time_duration, video_url, position)
		SELECT $1, $2, $3, $4, $5, COALESCE(MAX(position), 0) + 1 FROM subsections WHERE section_id = $1
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		sub.SectionID,
		sub.Title,
		sub.Description,
		sub.TimeDuration,
		sub.VideoURL,
	).Scan(&sub.ID); err != nil {
		return types.SubSection{}, err
	}
	return sub, nil
}

func (r *SubSectionRepository) Update(ctx context.Context, sub types.SubSection) (types.SubSection, error) {
	const query = `
		UPDATE subsections
		SET title = $1,
			description = $2,
			time_duration = $3,
			video_url = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, sub.Title, sub.Description, sub.TimeDuration, sub.VideoURL, sub.ID)
	if err != nil {
		return types.SubSection{}, err
	}
	if err := expectAffected(result); err != nil {
		return types.SubSection{}, err
	}
	return sub, nil
}

func (r *SubSectionRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subsections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
