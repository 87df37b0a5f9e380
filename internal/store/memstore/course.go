package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/types"
)

type courseRepository struct{ h handle }

func copyCourse(c types.Course) types.Course {
	c.SectionIDs = cloneIDs(c.SectionIDs)
	c.Tags = cloneStrings(c.Tags)
	c.Instructions = cloneStrings(c.Instructions)
	c.StudentsEnrolled = cloneIDs(c.StudentsEnrolled)
	c.RatingIDs = cloneIDs(c.RatingIDs)
	return c
}

func (r courseRepository) Get(ctx context.Context, id int) (types.Course, error) {
	var course types.Course
	err := r.h.do(func(t *tables) error {
		c, ok := t.courses[id]
		if !ok {
			return store.ErrNotFound
		}
		course = copyCourse(c)
		return nil
	})
	return course, err
}

func (r courseRepository) List(ctx context.Context) ([]types.Course, error) {
	var courses []types.Course
	err := r.h.do(func(t *tables) error {
		courses = make([]types.Course, 0, len(t.courses))
		for _, c := range t.courses {
			courses = append(courses, copyCourse(c))
		}
		return nil
	})
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	return courses, err
}

func (r courseRepository) ListByInstructor(ctx context.Context, instructorID int) ([]types.Course, error) {
	var courses []types.Course
	err := r.h.do(func(t *tables) error {
		courses = []types.Course{}
		for _, c := range t.courses {
			if c.InstructorID == instructorID {
				courses = append(courses, copyCourse(c))
			}
		}
		return nil
	})
	sort.Slice(courses, func(i, j int) bool {
		if !courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
			return courses[i].CreatedAt.After(courses[j].CreatedAt)
		}
		return courses[i].ID > courses[j].ID
	})
	return courses, err
}

// ListByIDs returns the courses in the order of ids, skipping missing ones.
func (r courseRepository) ListByIDs(ctx context.Context, ids []int) ([]types.Course, error) {
	courses := make([]types.Course, 0, len(ids))
	err := r.h.do(func(t *tables) error {
		for _, id := range ids {
			if c, ok := t.courses[id]; ok {
				courses = append(courses, copyCourse(c))
			}
		}
		return nil
	})
	return courses, err
}

func (r courseRepository) Create(ctx context.Context, course types.Course) (types.Course, error) {
	err := r.h.do(func(t *tables) error {
		now := time.Now()
		course.ID = t.id()
		course.CreatedAt = now
		course.UpdatedAt = now
		course.SectionIDs = []int{}
		course.StudentsEnrolled = []int{}
		course.RatingIDs = []int{}
		if course.Tags == nil {
			course.Tags = []string{}
		}
		if course.Instructions == nil {
			course.Instructions = []string{}
		}
		t.courses[course.ID] = copyCourse(course)
		return nil
	})
	if err != nil {
		return types.Course{}, err
	}
	return course, nil
}

// Update writes the scalar fields and keeps the stored reference lists.
func (r courseRepository) Update(ctx context.Context, course types.Course) (types.Course, error) {
	err := r.h.do(func(t *tables) error {
		existing, ok := t.courses[course.ID]
		if !ok {
			return store.ErrNotFound
		}
		existing.Name = course.Name
		existing.Description = course.Description
		existing.WhatYouWillLearn = course.WhatYouWillLearn
		existing.Price = course.Price
		existing.CategoryID = course.CategoryID
		existing.Tags = cloneStrings(course.Tags)
		existing.Instructions = cloneStrings(course.Instructions)
		existing.Thumbnail = course.Thumbnail
		existing.Status = course.Status
		existing.UpdatedAt = time.Now()
		t.courses[course.ID] = existing
		course = copyCourse(existing)
		return nil
	})
	if err != nil {
		return types.Course{}, err
	}
	return course, nil
}

func (r courseRepository) Delete(ctx context.Context, id int) error {
	return r.h.do(func(t *tables) error {
		if _, ok := t.courses[id]; !ok {
			return store.ErrNotFound
		}
		delete(t.courses, id)
		return nil
	})
}

func (r courseRepository) AddStudent(ctx context.Context, courseID, userID int) error {
	return r.h.do(func(t *tables) error {
		c, ok := t.courses[courseID]
		if !ok {
			return store.ErrNotFound
		}
		c.StudentsEnrolled = appendID(c.StudentsEnrolled, userID)
		t.courses[courseID] = c
		return nil
	})
}

type categoryRepository struct{ h handle }

func (r categoryRepository) Get(ctx context.Context, id int) (types.Category, error) {
	var category types.Category
	err := r.h.do(func(t *tables) error {
		c, ok := t.categories[id]
		if !ok {
			return store.ErrNotFound
		}
		category = c
		category.Courses = cloneIDs(c.Courses)
		return nil
	})
	return category, err
}

func (r categoryRepository) List(ctx context.Context) ([]types.Category, error) {
	var categories []types.Category
	err := r.h.do(func(t *tables) error {
		categories = make([]types.Category, 0, len(t.categories))
		for _, c := range t.categories {
			c.Courses = cloneIDs(c.Courses)
			categories = append(categories, c)
		}
		return nil
	})
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, err
}

func (r categoryRepository) Create(ctx context.Context, category types.Category) (types.Category, error) {
	err := r.h.do(func(t *tables) error {
		for _, c := range t.categories {
			if c.Name == category.Name {
				return store.ErrDuplicate
			}
		}
		category.ID = t.id()
		category.Courses = []int{}
		t.categories[category.ID] = category
		return nil
	})
	if err != nil {
		return types.Category{}, err
	}
	category.Courses = []int{}
	return category, nil
}

func (r categoryRepository) AddCourse(ctx context.Context, categoryID, courseID int) error {
	return r.h.do(func(t *tables) error {
		c, ok := t.categories[categoryID]
		if !ok {
			return store.ErrNotFound
		}
		c.Courses = appendID(c.Courses, courseID)
		t.categories[categoryID] = c
		return nil
	})
}

func (r categoryRepository) RemoveCourse(ctx context.Context, categoryID, courseID int) error {
	return r.h.do(func(t *tables) error {
		c, ok := t.categories[categoryID]
		if !ok {
			return nil
		}
		c.Courses = removeID(c.Courses, courseID)
		t.categories[categoryID] = c
		return nil
	})
}
