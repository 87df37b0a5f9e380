package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/types"
)

func TestSectionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newCourseFixture(t)
	course := f.createCourse(t)

	view, err := f.content.CreateSection(ctx, f.instructor.ID, course.ID, "Basics")
	require.NoError(t, err)
	require.Len(t, view.CourseContent, 1)
	sectionID := view.CourseContent[0].ID

	view, err = f.content.UpdateSection(ctx, f.instructor.ID, sectionID, "Fundamentals")
	require.NoError(t, err)
	assert.Equal(t, "Fundamentals", view.CourseContent[0].Name)

	section, err := f.content.CreateSubSection(ctx, f.instructor.ID, sectionID, services.NewSubSection{
		Title:        "Hello",
		Description:  "First program",
		TimeDuration: 300,
	}, upload("hello.mp4", "video"))
	require.NoError(t, err)
	require.Len(t, section.SubSections, 1)
	video := section.SubSections[0].VideoURL
	assert.True(t, f.media.has(video))

	view, err = f.content.DeleteSection(ctx, f.instructor.ID, course.ID, sectionID)
	require.NoError(t, err)
	assert.Empty(t, view.CourseContent)
	assert.False(t, f.media.has(video))

	_, err = f.db.Repos().SubSections.Get(ctx, section.SubSections[0].ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubSectionUpdateReplacesVideo(t *testing.T) {
	ctx := context.Background()
	f := newCourseFixture(t)
	course := f.createCourse(t)
	section := f.addLecture(t, course.ID, 60)
	sub := section.SubSections[0]

	title := "Renamed"
	duration := 75
	updated, err := f.content.UpdateSubSection(ctx, f.instructor.ID, sub.ID, services.SubSectionUpdate{
		Title:        &title,
		TimeDuration: &duration,
	}, upload("v2.mp4", "video2"))
	require.NoError(t, err)
	require.Len(t, updated.SubSections, 1)
	assert.Equal(t, "Renamed", updated.SubSections[0].Title)
	assert.Equal(t, 75, updated.SubSections[0].TimeDuration)
	assert.False(t, f.media.has(sub.VideoURL))
	assert.True(t, f.media.has(updated.SubSections[0].VideoURL))

	updated, err = f.content.DeleteSubSection(ctx, f.instructor.ID, section.ID, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.SubSections)
	assert.Equal(t, 1, f.media.count(), "only the thumbnail remains")
}

func TestContentRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	f := newCourseFixture(t)
	course := f.createCourse(t)
	section := f.addLecture(t, course.ID, 60)
	intruder := seedUser(t, f.db, "other@x.com", types.AccountInstructor)

	_, err := f.content.CreateSection(ctx, intruder.ID, course.ID, "Mine now")
	assert.ErrorIs(t, err, services.ErrNotCourseOwner)

	_, err = f.content.UpdateSection(ctx, intruder.ID, section.ID, "Mine now")
	assert.ErrorIs(t, err, services.ErrNotCourseOwner)

	_, err = f.content.DeleteSubSection(ctx, intruder.ID, section.ID, section.SubSections[0].ID)
	assert.ErrorIs(t, err, services.ErrNotCourseOwner)

	_, err = f.content.CreateSubSection(ctx, f.instructor.ID, section.ID, services.NewSubSection{Title: "x", Description: "y"}, nil)
	assert.ErrorIs(t, err, services.ErrMissingFields)
}

func TestDeletedLecturesLeaveProgress(t *testing.T) {
	ctx := context.Background()
	f := newCourseFixture(t)
	course := f.createCourse(t)
	first := f.addLecture(t, course.ID, 60)
	second := f.addLecture(t, course.ID, 90)
	student := f.enrolledStudent(t, "s@x.com", course.ID)

	progress := services.NewProgressService(f.db)
	for _, section := range []types.SectionView{first, second} {
		_, err := progress.MarkCompleted(ctx, student.ID, course.ID, section.SubSections[0].ID)
		require.NoError(t, err)
	}

	_, err := f.content.DeleteSubSection(ctx, f.instructor.ID, first.ID, first.SubSections[0].ID)
	require.NoError(t, err)
	got, err := f.db.Repos().Progress.Get(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{second.SubSections[0].ID}, got.CompletedVideos)

	_, err = f.content.DeleteSection(ctx, f.instructor.ID, course.ID, second.ID)
	require.NoError(t, err)
	got, err = f.db.Repos().Progress.Get(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CompletedVideos)
}
