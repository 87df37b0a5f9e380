package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/types"
)

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := New()

	category, err := db.Repos().Categories.Create(ctx, types.Category{Name: "Go"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.InTx(ctx, func(tx services.Repos) error {
		if err := tx.Categories.AddCourse(ctx, category.ID, 42); err != nil {
			return err
		}
		if _, err := tx.Categories.Create(ctx, types.Category{Name: "Rust"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := db.Repos().Categories.Get(ctx, category.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Courses)

	all, err := db.Repos().Categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestInTxCommits(t *testing.T) {
	ctx := context.Background()
	db := New()

	err := db.InTx(ctx, func(tx services.Repos) error {
		_, err := tx.Categories.Create(ctx, types.Category{Name: "Go"})
		return err
	})
	require.NoError(t, err)

	all, err := db.Repos().Categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	db := New()
	repos := db.Repos()

	course, err := repos.Courses.Create(ctx, types.Course{Name: "Go", Tags: []string{"go"}})
	require.NoError(t, err)
	course.Tags[0] = "mutated"

	stored, err := repos.Courses.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, stored.Tags)
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	repos := New().Repos()

	_, err := repos.Users.Create(ctx, types.User{Email: "a@x.com"})
	require.NoError(t, err)
	_, err = repos.Users.Create(ctx, types.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = repos.Ratings.Create(ctx, types.RatingAndReview{UserID: 1, CourseID: 2, Rating: 5})
	require.NoError(t, err)
	_, err = repos.Ratings.Create(ctx, types.RatingAndReview{UserID: 1, CourseID: 2, Rating: 3})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestSectionOrderFollowsCreation(t *testing.T) {
	ctx := context.Background()
	repos := New().Repos()

	course, err := repos.Courses.Create(ctx, types.Course{Name: "Go"})
	require.NoError(t, err)
	a, err := repos.Sections.Create(ctx, types.Section{CourseID: course.ID, Name: "A"})
	require.NoError(t, err)
	b, err := repos.Sections.Create(ctx, types.Section{CourseID: course.ID, Name: "B"})
	require.NoError(t, err)

	sections, err := repos.Sections.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, a.ID, sections[0].ID)
	assert.Equal(t, b.ID, sections[1].ID)

	require.NoError(t, repos.Sections.Delete(ctx, a.ID))
	stored, err := repos.Courses.Get(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{b.ID}, stored.SectionIDs)
}
