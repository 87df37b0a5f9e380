package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studynotion/apiserver/types"
)

// SectionRepository handles persistence for course sections. A section's
// place in its course is kept in the position column.
type SectionRepository struct {
	db DBTX
}

func NewSectionRepository(db DBTX) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) loadSubSections(ctx context.Context, section *types.Section) error {
	var err error
	section.SubSectionIDs, err = queryIDs(ctx, r.db,
		`SELECT id FROM subsections WHERE section_id = $1 ORDER BY position, id`, section.ID)
	return err
}

func (r *SectionRepository) Get(ctx context.Context, id int) (types.Section, error) {
	const query = `SELECT id, course_id, name FROM sections WHERE id = $1`
	var section types.Section
	err := r.db.QueryRowContext(ctx, query, id).Scan(&section.ID, &section.CourseID, &section.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Section{}, ErrNotFound
		}
		return types.Section{}, err
	}
	if err := r.loadSubSections(ctx, &section); err != nil {
		return types.Section{}, err
	}
	return section, nil
}

// ListByCourse returns the course's sections in order.
func (r *SectionRepository) ListByCourse(ctx context.Context, courseID int) ([]types.Section, error) {
	const query = `SELECT id, course_id, name FROM sections WHERE course_id = $1 ORDER BY position, id`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}

	sections := make([]types.Section, 0)
	for rows.Next() {
		var section types.Section
		if err := rows.Scan(&section.ID, &section.CourseID, &section.Name); err != nil {
			rows.Close()
			return nil, err
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range sections {
		if err := r.loadSubSections(ctx, &sections[i]); err != nil {
			return nil, err
		}
	}
	return sections, nil
}

// Create appends a section to the end of its course.
func (r *SectionRepository) Create(ctx context.Context, section types.Section) (types.Section, error) {
	const query = `
		INSERT INTO sections (course_id, name, position)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1 FROM sections WHERE course_id = $1
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, section.CourseID, section.Name).Scan(&section.ID); err != nil {
		return types.Section{}, err
	}
	section.SubSectionIDs = []int{}
	return section, nil
}

func (r *SectionRepository) Update(ctx context.Context, section types.Section) (types.Section, error) {
	const query = `UPDATE sections SET name = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, section.Name, section.ID)
	if err != nil {
		return types.Section{}, err
	}
	if err := expectAffected(result); err != nil {
		return types.Section{}, err
	}
	return section, nil
}

func (r *SectionRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
