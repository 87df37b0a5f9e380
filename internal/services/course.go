package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/studynotion/apiserver/internal/apperr"
	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/types"
)

const otherCategoriesLimit = 5

// NewCourse carries the fields of a course creation request. Tags and
// Instructions hold JSON-encoded string arrays as submitted by the client.
type NewCourse struct {
	Name             string
	Description      string
	WhatYouWillLearn string
	Price            *float64
	CategoryID       int
	Tags             string
	Instructions     string
	Status           string
}

// CourseUpdate carries the fields of an edit request. Nil fields are left
// unchanged.
type CourseUpdate struct {
	Name             *string
	Description      *string
	WhatYouWillLearn *string
	Price            *float64
	CategoryID       *int
	Tags             *string
	Instructions     *string
	Status           *string
}

// Projection selects which course fields a detail lookup exposes.
type Projection struct {
	full   bool
	userID int
}

// PublicView hides lecture video URLs.
func PublicView() Projection {
	return Projection{}
}

// FullView exposes video URLs and attaches the user's completed videos.
func FullView(userID int) Projection {
	return Projection{full: true, userID: userID}
}

// CourseService manages the course aggregate and the membership lists that
// reference it.
type CourseService struct {
	store   Store
	janitor mediaJanitor
	log     *logger.Logger
}

func NewCourseService(st Store, media MediaHost, log *logger.Logger) *CourseService {
	return &CourseService{
		store:   st,
		janitor: mediaJanitor{store: st, media: media, log: log},
		log:     log,
	}
}

// Create uploads the thumbnail and creates the course, registering it with
// its instructor and category.
func (s *CourseService) Create(ctx context.Context, instructorID int, in NewCourse, thumbnail *Upload) (types.Course, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.WhatYouWillLearn = strings.TrimSpace(in.WhatYouWillLearn)
	if in.Name == "" || in.Description == "" || in.WhatYouWillLearn == "" || in.Price == nil ||
		in.CategoryID == 0 || in.Tags == "" || in.Instructions == "" || thumbnail == nil {
		return types.Course{}, ErrMissingFields
	}
	if *in.Price < 0 {
		return types.Course{}, apperr.Validationf("price must not be negative")
	}

	tags, err := ParseStringList("tag", in.Tags)
	if err != nil {
		return types.Course{}, err
	}
	instructions, err := ParseStringList("instructions", in.Instructions)
	if err != nil {
		return types.Course{}, err
	}
	if len(tags) == 0 || len(instructions) == 0 {
		return types.Course{}, ErrMissingFields
	}

	status := types.CourseDraft
	if in.Status != "" {
		status = types.CourseStatus(in.Status)
		if !status.Valid() {
			return types.Course{}, ErrInvalidStatus
		}
	}

	repos := s.store.Repos()
	instructor, err := repos.Users.GetByID(ctx, instructorID)
	if err != nil {
		return types.Course{}, notFound(err, ErrUserNotFound)
	}
	if _, err := repos.Categories.Get(ctx, in.CategoryID); err != nil {
		return types.Course{}, notFound(err, ErrCategoryNotFound)
	}

	thumbnailURL, err := s.janitor.upload(ctx, thumbnail, "thumbnail")
	if err != nil {
		return types.Course{}, err
	}

	var created types.Course
	err = s.store.InTx(ctx, func(tx Repos) error {
		var err error
		created, err = tx.Courses.Create(ctx, types.Course{
			Name:             in.Name,
			Description:      in.Description,
			WhatYouWillLearn: in.WhatYouWillLearn,
			Price:            *in.Price,
			CategoryID:       in.CategoryID,
			InstructorID:     instructor.ID,
			Tags:             tags,
			Instructions:     instructions,
			Thumbnail:        thumbnailURL,
			Status:           status,
		})
		if err != nil {
			return err
		}
		if err := tx.Users.AddCourse(ctx, instructor.ID, created.ID); err != nil {
			return err
		}
		return tx.Categories.AddCourse(ctx, in.CategoryID, created.ID)
	})
	if err != nil {
		s.janitor.discard(ctx, thumbnailURL)
		return types.Course{}, err
	}

	s.log.Info("course created", "course_id", created.ID, "instructor_id", instructor.ID)
	return created, nil
}

// Edit applies the supplied fields to a course owned by the instructor and
// returns the repopulated course.
func (s *CourseService) Edit(ctx context.Context, instructorID, courseID int, upd CourseUpdate, thumbnail *Upload) (types.CourseView, error) {
	repos := s.store.Repos()
	course, err := s.ownedCourse(ctx, repos, instructorID, courseID)
	if err != nil {
		return types.CourseView{}, err
	}
	oldCategoryID := course.CategoryID

	if err := s.applyUpdate(ctx, repos, &course, upd); err != nil {
		return types.CourseView{}, err
	}

	oldThumbnail := ""
	if thumbnail != nil {
		url, err := s.janitor.upload(ctx, thumbnail, "thumbnail")
		if err != nil {
			return types.CourseView{}, err
		}
		oldThumbnail = course.Thumbnail
		course.Thumbnail = url
	}

	err = s.store.InTx(ctx, func(tx Repos) error {
		if _, err := tx.Courses.Update(ctx, course); err != nil {
			return notFound(err, ErrCourseNotFound)
		}
		if course.CategoryID == oldCategoryID {
			return nil
		}
		if err := tx.Categories.RemoveCourse(ctx, oldCategoryID, course.ID); err != nil {
			return err
		}
		return tx.Categories.AddCourse(ctx, course.CategoryID, course.ID)
	})
	if err != nil {
		if thumbnail != nil {
			s.janitor.discard(ctx, course.Thumbnail)
		}
		return types.CourseView{}, err
	}
	s.janitor.discard(ctx, oldThumbnail)

	view, _, err := s.populate(ctx, repos, courseID, true)
	return view, err
}

func (s *CourseService) applyUpdate(ctx context.Context, repos Repos, course *types.Course, upd CourseUpdate) error {
	if upd.Name != nil {
		course.Name = *upd.Name
	}
	if upd.Description != nil {
		course.Description = *upd.Description
	}
	if upd.WhatYouWillLearn != nil {
		course.WhatYouWillLearn = *upd.WhatYouWillLearn
	}
	if upd.Price != nil {
		if *upd.Price < 0 {
			return apperr.Validationf("price must not be negative")
		}
		course.Price = *upd.Price
	}
	if upd.Tags != nil {
		tags, err := ParseStringList("tag", *upd.Tags)
		if err != nil {
			return err
		}
		course.Tags = tags
	}
	if upd.Instructions != nil {
		instructions, err := ParseStringList("instructions", *upd.Instructions)
		if err != nil {
			return err
		}
		course.Instructions = instructions
	}
	if upd.Status != nil {
		status := types.CourseStatus(*upd.Status)
		if !status.Valid() {
			return ErrInvalidStatus
		}
		course.Status = status
	}
	if upd.CategoryID != nil && *upd.CategoryID != course.CategoryID {
		if _, err := repos.Categories.Get(ctx, *upd.CategoryID); err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		course.CategoryID = *upd.CategoryID
	}
	return nil
}

// Delete removes the course aggregate and every reference to it, then
// deletes its hosted media.
func (s *CourseService) Delete(ctx context.Context, instructorID, courseID int) error {
	repos := s.store.Repos()
	course, err := s.ownedCourse(ctx, repos, instructorID, courseID)
	if err != nil {
		return err
	}

	media := []string{course.Thumbnail}
	err = s.store.InTx(ctx, func(tx Repos) error {
		for _, studentID := range course.StudentsEnrolled {
			if err := tx.Users.RemoveCourse(ctx, studentID, course.ID); err != nil {
				return err
			}
		}
		if err := tx.Users.RemoveCourse(ctx, course.InstructorID, course.ID); err != nil {
			return err
		}

		sections, err := tx.Sections.ListByCourse(ctx, course.ID)
		if err != nil {
			return err
		}
		for _, section := range sections {
			videos, err := deleteSectionContent(ctx, tx, section)
			if err != nil {
				return err
			}
			media = append(media, videos...)
		}

		if err := tx.Categories.RemoveCourse(ctx, course.CategoryID, course.ID); err != nil {
			return err
		}
		if err := tx.Progress.DeleteByCourse(ctx, course.ID); err != nil {
			return err
		}
		if err := tx.Ratings.DeleteByCourse(ctx, course.ID); err != nil {
			return err
		}
		return notFound(tx.Courses.Delete(ctx, course.ID), ErrCourseNotFound)
	})
	if err != nil {
		return err
	}

	s.janitor.discard(ctx, media...)
	s.log.Info("course deleted", "course_id", course.ID, "instructor_id", instructorID, "media", len(media))
	return nil
}

// deleteSectionContent deletes a section and its subsections and returns
// the video URLs they referenced.
func deleteSectionContent(ctx context.Context, tx Repos, section types.Section) ([]string, error) {
	subs, err := tx.SubSections.ListBySection(ctx, section.ID)
	if err != nil {
		return nil, err
	}
	videos := make([]string, 0, len(subs))
	for _, sub := range subs {
		if err := tx.Progress.RemoveCompleted(ctx, sub.ID); err != nil {
			return nil, err
		}
		if err := tx.SubSections.Delete(ctx, sub.ID); err != nil {
			return nil, err
		}
		videos = append(videos, sub.VideoURL)
	}
	if err := tx.Sections.Delete(ctx, section.ID); err != nil {
		return nil, notFound(err, ErrSectionNotFound)
	}
	return videos, nil
}

// Details returns the populated course with its total duration. The
// projection decides whether video URLs and progress are included.
func (s *CourseService) Details(ctx context.Context, courseID int, view Projection) (types.CourseDetails, error) {
	repos := s.store.Repos()
	course, total, err := s.populate(ctx, repos, courseID, view.full)
	if err != nil {
		return types.CourseDetails{}, err
	}

	details := types.CourseDetails{
		CourseDetails:        course,
		TotalDuration:        FormatDuration(total),
		TotalDurationSeconds: total,
	}
	if !view.full {
		return details, nil
	}

	progress, err := repos.Progress.Get(ctx, view.userID, courseID)
	switch {
	case err == nil:
		details.CompletedVideos = progress.CompletedVideos
	case errors.Is(err, store.ErrNotFound):
		details.CompletedVideos = []int{}
	default:
		return types.CourseDetails{}, err
	}
	return details, nil
}

// populate resolves every reference of the course and sums the durations of
// its subsections.
func (s *CourseService) populate(ctx context.Context, repos Repos, courseID int, withVideos bool) (types.CourseView, int, error) {
	course, err := repos.Courses.Get(ctx, courseID)
	if err != nil {
		return types.CourseView{}, 0, notFound(err, ErrCourseNotFound)
	}

	view := types.CourseView{Course: course}

	instructor, err := repos.Users.GetByID(ctx, course.InstructorID)
	switch {
	case err == nil:
		iv, err := userView(ctx, repos, instructor)
		if err != nil {
			return types.CourseView{}, 0, err
		}
		view.Instructor = &iv
	case !errors.Is(err, store.ErrNotFound):
		return types.CourseView{}, 0, err
	}

	category, err := repos.Categories.Get(ctx, course.CategoryID)
	switch {
	case err == nil:
		view.Category = &category
	case !errors.Is(err, store.ErrNotFound):
		return types.CourseView{}, 0, err
	}

	view.RatingAndReviews, err = repos.Ratings.ListByCourse(ctx, course.ID)
	if err != nil {
		return types.CourseView{}, 0, err
	}

	sections, err := repos.Sections.ListByCourse(ctx, course.ID)
	if err != nil {
		return types.CourseView{}, 0, err
	}

	total := 0
	view.CourseContent = make([]types.SectionView, 0, len(sections))
	for _, section := range sections {
		subs, err := repos.SubSections.ListBySection(ctx, section.ID)
		if err != nil {
			return types.CourseView{}, 0, err
		}
		for i := range subs {
			total += subs[i].TimeDuration
			if !withVideos {
				subs[i].VideoURL = ""
			}
		}
		view.CourseContent = append(view.CourseContent, types.SectionView{Section: section, SubSections: subs})
	}
	return view, total, nil
}

// List returns every course as a catalog card.
func (s *CourseService) List(ctx context.Context) ([]types.CourseCard, error) {
	repos := s.store.Repos()
	courses, err := repos.Courses.List(ctx)
	if err != nil {
		return nil, err
	}
	return courseCards(ctx, repos, courses)
}

// ListByInstructor returns the instructor's courses, newest first.
func (s *CourseService) ListByInstructor(ctx context.Context, instructorID int) ([]types.Course, error) {
	return s.store.Repos().Courses.ListByInstructor(ctx, instructorID)
}

// CategoryPage returns the category with its courses and up to five other
// categories in creation order.
func (s *CourseService) CategoryPage(ctx context.Context, categoryID int) (types.CategoryPage, error) {
	repos := s.store.Repos()
	selected, err := repos.Categories.Get(ctx, categoryID)
	if err != nil {
		return types.CategoryPage{}, notFound(err, ErrCategoryNotFound)
	}

	selectedView, err := categoryView(ctx, repos, selected)
	if err != nil {
		return types.CategoryPage{}, err
	}

	all, err := repos.Categories.List(ctx)
	if err != nil {
		return types.CategoryPage{}, err
	}

	others := make([]types.CategoryView, 0, otherCategoriesLimit)
	for _, category := range all {
		if len(others) == otherCategoriesLimit {
			break
		}
		if category.ID == categoryID {
			continue
		}
		view, err := categoryView(ctx, repos, category)
		if err != nil {
			return types.CategoryPage{}, err
		}
		others = append(others, view)
	}

	return types.CategoryPage{SelectedCategory: selectedView, OtherCategories: others}, nil
}

// Enroll adds the student to the course and starts their progress record.
func (s *CourseService) Enroll(ctx context.Context, studentID, courseID int) (types.CourseProgress, error) {
	repos := s.store.Repos()
	course, err := repos.Courses.Get(ctx, courseID)
	if err != nil {
		return types.CourseProgress{}, notFound(err, ErrCourseNotFound)
	}
	for _, id := range course.StudentsEnrolled {
		if id == studentID {
			return types.CourseProgress{}, ErrAlreadyEnrolled
		}
	}
	if _, err := repos.Users.GetByID(ctx, studentID); err != nil {
		return types.CourseProgress{}, notFound(err, ErrUserNotFound)
	}

	var progress types.CourseProgress
	err = s.store.InTx(ctx, func(tx Repos) error {
		if err := tx.Courses.AddStudent(ctx, courseID, studentID); err != nil {
			return err
		}
		if err := tx.Users.AddCourse(ctx, studentID, courseID); err != nil {
			return err
		}
		var err error
		progress, err = tx.Progress.Create(ctx, types.CourseProgress{UserID: studentID, CourseID: courseID})
		return err
	})
	if err != nil {
		return types.CourseProgress{}, err
	}

	s.log.Info("student enrolled", "course_id", courseID, "user_id", studentID)
	return progress, nil
}

func (s *CourseService) ownedCourse(ctx context.Context, repos Repos, instructorID, courseID int) (types.Course, error) {
	course, err := repos.Courses.Get(ctx, courseID)
	if err != nil {
		return types.Course{}, notFound(err, ErrCourseNotFound)
	}
	if course.InstructorID != instructorID {
		return types.Course{}, ErrNotCourseOwner
	}
	return course, nil
}

func categoryView(ctx context.Context, repos Repos, category types.Category) (types.CategoryView, error) {
	courses, err := repos.Courses.ListByIDs(ctx, category.Courses)
	if err != nil {
		return types.CategoryView{}, err
	}
	cards, err := courseCards(ctx, repos, courses)
	if err != nil {
		return types.CategoryView{}, err
	}
	return types.CategoryView{Category: category, Courses: cards}, nil
}

func courseCards(ctx context.Context, repos Repos, courses []types.Course) ([]types.CourseCard, error) {
	instructors := make(map[int]*types.UserSummary)
	cards := make([]types.CourseCard, 0, len(courses))
	for _, course := range courses {
		summary, ok := instructors[course.InstructorID]
		if !ok {
			user, err := repos.Users.GetByID(ctx, course.InstructorID)
			switch {
			case err == nil:
				s := user.Summary()
				summary = &s
			case !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
			instructors[course.InstructorID] = summary
		}
		cards = append(cards, courseCard(course, summary))
	}
	return cards, nil
}

func courseCard(course types.Course, instructor *types.UserSummary) types.CourseCard {
	return types.CourseCard{
		ID:               course.ID,
		Name:             course.Name,
		Description:      course.Description,
		Price:            course.Price,
		Thumbnail:        course.Thumbnail,
		Instructor:       instructor,
		RatingAndReviews: course.RatingIDs,
		StudentsEnrolled: course.StudentsEnrolled,
	}
}

// ParseStringList decodes a JSON array of strings. Scalars, objects, null
// and null elements are rejected rather than coerced.
func ParseStringList(field, raw string) ([]string, error) {
	invalid := apperr.Validationf("%s must be a JSON array of strings", field)
	if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return nil, invalid
	}
	var items []*string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, invalid
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			return nil, invalid
		}
		values = append(values, *item)
	}
	return values, nil
}

// FormatDuration renders seconds as "1h 5m", "2m 0s" or "45s".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := seconds % 3600 / 60
	sec := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}
