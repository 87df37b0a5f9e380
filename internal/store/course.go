package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/studynotion/apiserver/types"
)

// CourseRepository handles persistence for courses and their enrolled
// student lists.
type CourseRepository struct {
	db DBTX
}

func NewCourseRepository(db DBTX) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, name, description, what_you_will_learn, price, category_id, instructor_id, tags, instructions, thumbnail, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (types.Course, error) {
	var course types.Course
	var tagsJSON, instructionsJSON []byte
	if err := row.Scan(
		&course.ID,
		&course.Name,
		&course.Description,
		&course.WhatYouWillLearn,
		&course.Price,
		&course.CategoryID,
		&course.InstructorID,
		&tagsJSON,
		&instructionsJSON,
		&course.Thumbnail,
		&course.Status,
		&course.CreatedAt,
		&course.UpdatedAt,
	); err != nil {
		return types.Course{}, err
	}

	if err := json.Unmarshal(tagsJSON, &course.Tags); err != nil {
		return types.Course{}, fmt.Errorf("course %d tags: %w", course.ID, err)
	}
	if err := json.Unmarshal(instructionsJSON, &course.Instructions); err != nil {
		return types.Course{}, fmt.Errorf("course %d instructions: %w", course.ID, err)
	}
	return course, nil
}

// loadRefs fills the id lists derived from child tables.
func (r *CourseRepository) loadRefs(ctx context.Context, course *types.Course) error {
	var err error
	course.SectionIDs, err = queryIDs(ctx, r.db,
		`SELECT id FROM sections WHERE course_id = $1 ORDER BY position, id`, course.ID)
	if err != nil {
		return err
	}
	course.StudentsEnrolled, err = queryIDs(ctx, r.db,
		`SELECT user_id FROM course_students WHERE course_id = $1 ORDER BY position`, course.ID)
	if err != nil {
		return err
	}
	course.RatingIDs, err = queryIDs(ctx, r.db,
		`SELECT id FROM ratings_and_reviews WHERE course_id = $1 ORDER BY id`, course.ID)
	return err
}

func (r *CourseRepository) list(ctx context.Context, query string, args ...any) ([]types.Course, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	courses := make([]types.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range courses {
		if err := r.loadRefs(ctx, &courses[i]); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

func (r *CourseRepository) Get(ctx context.Context, id int) (types.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	course, err := scanCourse(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Course{}, ErrNotFound
		}
		return types.Course{}, err
	}
	if err := r.loadRefs(ctx, &course); err != nil {
		return types.Course{}, err
	}
	return course, nil
}

func (r *CourseRepository) List(ctx context.Context) ([]types.Course, error) {
	return r.list(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY id`)
}

// ListByInstructor returns the instructor's courses, newest first.
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID int) ([]types.Course, error) {
	return r.list(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE instructor_id = $1 ORDER BY created_at DESC, id DESC`,
		instructorID)
}

// ListByIDs returns the courses with the given ids in the order given.
// Unknown ids are skipped.
func (r *CourseRepository) ListByIDs(ctx context.Context, ids []int) ([]types.Course, error) {
	if len(ids) == 0 {
		return []types.Course{}, nil
	}
	courses, err := r.list(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}

	byID := make(map[int]types.Course, len(courses))
	for _, course := range courses {
		byID[course.ID] = course
	}
	ordered := make([]types.Course, 0, len(courses))
	for _, id := range ids {
		if course, ok := byID[id]; ok {
			ordered = append(ordered, course)
		}
	}
	return ordered, nil
}

func (r *CourseRepository) Create(ctx context.Context, course types.Course) (types.Course, error) {
	now := time.Now()
	course.CreatedAt = now
	course.UpdatedAt = now

	tagsJSON, err := json.Marshal(nonNil(course.Tags))
	if err != nil {
		return types.Course{}, err
	}
	instructionsJSON, err := json.Marshal(nonNil(course.Instructions))
	if err != nil {
		return types.Course{}, err
	}

	const query = `
		INSERT INTO courses (name, description, what_you_will_learn, price, category_id, instructor_id, tags, instructions, thumbnail, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		course.Name,
		course.Description,
		course.WhatYouWillLearn,
		course.Price,
		course.CategoryID,
		course.InstructorID,
		tagsJSON,
		instructionsJSON,
		course.Thumbnail,
		course.Status,
		course.CreatedAt,
		course.UpdatedAt,
	).Scan(&course.ID); err != nil {
		return types.Course{}, err
	}

	course.SectionIDs = []int{}
	course.StudentsEnrolled = []int{}
	course.RatingIDs = []int{}
	return course, nil
}

// Update writes the course's scalar fields. Reference lists are managed by
// their own methods.
func (r *CourseRepository) Update(ctx context.Context, course types.Course) (types.Course, error) {
	course.UpdatedAt = time.Now()

	tagsJSON, err := json.Marshal(nonNil(course.Tags))
	if err != nil {
		return types.Course{}, err
	}
	instructionsJSON, err := json.Marshal(nonNil(course.Instructions))
	if err != nil {
		return types.Course{}, err
	}

	const query = `
		UPDATE courses
		SET name = $1,
			description = $2,
			what_you_will_learn = $3,
			price = $4,
			category_id = $5,
			tags = $6,
			instructions = $7,
			thumbnail = $8,
			status = $9,
			updated_at = $10
		WHERE id = $11`
	result, err := r.db.ExecContext(
		ctx,
		query,
		course.Name,
		course.Description,
		course.WhatYouWillLearn,
		course.Price,
		course.CategoryID,
		tagsJSON,
		instructionsJSON,
		course.Thumbnail,
		course.Status,
		course.UpdatedAt,
		course.ID,
	)
	if err != nil {
		return types.Course{}, err
	}
	if err := expectAffected(result); err != nil {
		return types.Course{}, err
	}
	return course, nil
}

func (r *CourseRepository) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_students WHERE course_id = $1`, id); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// AddStudent appends userID to the course's enrolled list.
func (r *CourseRepository) AddStudent(ctx context.Context, courseID, userID int) error {
	const query = `
		INSERT INTO course_students (course_id, user_id, position)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1 FROM course_students WHERE course_id = $1
		ON CONFLICT (course_id, user_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, courseID, userID)
	return err
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
