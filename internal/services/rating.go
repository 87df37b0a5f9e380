package services

import (
	"context"
	"errors"
	"strings"

	"github.com/studynotion/apiserver/internal/apperr"
	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/types"
)

// RatingService manages course ratings and reviews.
type RatingService struct {
	store Store
}

func NewRatingService(st Store) *RatingService {
	return &RatingService{store: st}
}

// Create records an enrolled student's single rating of a course.
func (s *RatingService) Create(ctx context.Context, userID, courseID, rating int, review string) (types.RatingAndReview, error) {
	review = strings.TrimSpace(review)
	if courseID == 0 || review == "" {
		return types.RatingAndReview{}, ErrMissingFields
	}
	if rating < 1 || rating > 5 {
		return types.RatingAndReview{}, ErrInvalidRating
	}

	repos := s.store.Repos()
	course, err := repos.Courses.Get(ctx, courseID)
	if err != nil {
		return types.RatingAndReview{}, notFound(err, ErrCourseNotFound)
	}
	if !containsID(course.StudentsEnrolled, userID) {
		return types.RatingAndReview{}, ErrNotEnrolled
	}

	_, err = repos.Ratings.GetByUserAndCourse(ctx, userID, courseID)
	switch {
	case err == nil:
		return types.RatingAndReview{}, ErrAlreadyReviewed
	case !errors.Is(err, store.ErrNotFound):
		return types.RatingAndReview{}, err
	}

	created, err := repos.Ratings.Create(ctx, types.RatingAndReview{
		UserID:   userID,
		CourseID: courseID,
		Rating:   rating,
		Review:   review,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.RatingAndReview{}, apperr.Wrap(ErrAlreadyReviewed, err)
		}
		return types.RatingAndReview{}, err
	}
	return created, nil
}

// Average returns the mean rating of a course, or 0 when it has none.
func (s *RatingService) Average(ctx context.Context, courseID int) (float64, error) {
	if courseID == 0 {
		return 0, ErrMissingFields
	}
	repos := s.store.Repos()
	if _, err := repos.Courses.Get(ctx, courseID); err != nil {
		return 0, notFound(err, ErrCourseNotFound)
	}

	ratings, err := repos.Ratings.ListByCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if len(ratings) == 0 {
		return 0, nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	return float64(sum) / float64(len(ratings)), nil
}

// List returns every review with its author and course summarized.
func (s *RatingService) List(ctx context.Context) ([]types.ReviewView, error) {
	repos := s.store.Repos()
	ratings, err := repos.Ratings.List(ctx)
	if err != nil {
		return nil, err
	}

	users := make(map[int]*types.UserSummary)
	courses := make(map[int]*types.CourseCard)
	reviews := make([]types.ReviewView, 0, len(ratings))
	for _, rating := range ratings {
		view := types.ReviewView{RatingAndReview: rating}

		user, ok := users[rating.UserID]
		if !ok {
			u, err := repos.Users.GetByID(ctx, rating.UserID)
			switch {
			case err == nil:
				summary := u.Summary()
				user = &summary
			case !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
			users[rating.UserID] = user
		}
		view.User = user

		course, ok := courses[rating.CourseID]
		if !ok {
			c, err := repos.Courses.Get(ctx, rating.CourseID)
			switch {
			case err == nil:
				card := courseCard(c, nil)
				course = &card
			case !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
			courses[rating.CourseID] = course
		}
		view.Course = course

		reviews = append(reviews, view)
	}
	return reviews, nil
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
