package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/studynotion/apiserver/types"
)

// CategoryRepository handles persistence for categories and their course
// lists.
type CategoryRepository struct {
	db DBTX
}

func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) loadCourses(ctx context.Context, category *types.Category) error {
	var err error
	category.Courses, err = queryIDs(ctx, r.db,
		`SELECT course_id FROM category_courses WHERE category_id = $1 ORDER BY position`, category.ID)
	return err
}

func (r *CategoryRepository) Get(ctx context.Context, id int) (types.Category, error) {
	const query = `SELECT id, name, description FROM categories WHERE id = $1`
	var category types.Category
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &category.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	if err := r.loadCourses(ctx, &category); err != nil {
		return types.Category{}, err
	}
	return category, nil
}

// List returns all categories in creation order.
func (r *CategoryRepository) List(ctx context.Context) ([]types.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}

	categories := make([]types.Category, 0)
	for rows.Next() {
		var category types.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Description); err != nil {
			rows.Close()
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range categories {
		if err := r.loadCourses(ctx, &categories[i]); err != nil {
			return nil, err
		}
	}
	return categories, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category types.Category) (types.Category, error) {
	const query = `INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, category.Name, category.Description).Scan(&category.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return types.Category{}, ErrDuplicate
		}
		return types.Category{}, err
	}
	category.Courses = []int{}
	return category, nil
}

func (r *CategoryRepository) AddCourse(ctx context.Context, categoryID, courseID int) error {
	const query = `
		INSERT INTO category_courses (category_id, course_id, position)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1 FROM category_courses WHERE category_id = $1
		ON CONFLICT (category_id, course_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, categoryID, courseID)
	return err
}

func (r *CategoryRepository) RemoveCourse(ctx context.Context, categoryID, courseID int) error {
	const query = `DELETE FROM category_courses WHERE category_id = $1 AND course_id = $2`
	_, err := r.db.ExecContext(ctx, query, categoryID, courseID)
	return err
}
