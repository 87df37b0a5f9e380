package services

import (
	"errors"

	"github.com/studynotion/apiserver/internal/apperr"
	"github.com/studynotion/apiserver/internal/store"
)

var (
	ErrMissingFields     = apperr.New(apperr.Validation, "MISSING_FIELDS", "All fields are required")
	ErrPasswordMismatch  = apperr.New(apperr.Validation, "PASSWORD_MISMATCH", "Password and confirm password do not match")
	ErrInvalidCode       = apperr.New(apperr.Validation, "INVALID_OTP", "Invalid OTP")
	ErrInvalidRole       = apperr.New(apperr.Validation, "INVALID_ACCOUNT_TYPE", "Account type must be Student, Instructor or Admin")
	ErrInvalidStatus     = apperr.New(apperr.Validation, "INVALID_STATUS", "Status must be Draft or Published")
	ErrInvalidRating     = apperr.New(apperr.Validation, "INVALID_RATING", "Rating must be between 1 and 5")
	ErrAlreadyRegistered = apperr.New(apperr.Conflict, "ALREADY_REGISTERED", "User is already registered")
	ErrAlreadyEnrolled   = apperr.New(apperr.Conflict, "ALREADY_ENROLLED", "Student is already enrolled in this course")
	ErrAlreadyReviewed   = apperr.New(apperr.Conflict, "ALREADY_REVIEWED", "Course is already reviewed by the user")
	ErrAlreadyCompleted  = apperr.New(apperr.Conflict, "ALREADY_COMPLETED", "Subsection already completed")
	ErrCategoryExists    = apperr.New(apperr.Conflict, "CATEGORY_EXISTS", "Category already exists")
	ErrNotRegistered     = apperr.New(apperr.Unauthorized, "NOT_REGISTERED", "You are not registered with us")
	ErrBadCredentials    = apperr.New(apperr.Unauthorized, "BAD_CREDENTIALS", "Password is incorrect")
	ErrNotCourseOwner    = apperr.New(apperr.Forbidden, "NOT_COURSE_OWNER", "Course belongs to another instructor")
	ErrNotEnrolled       = apperr.New(apperr.Forbidden, "NOT_ENROLLED", "Student is not enrolled in this course")
	ErrUserNotFound      = apperr.New(apperr.NotFound, "USER_NOT_FOUND", "User not found")
	ErrCourseNotFound    = apperr.New(apperr.NotFound, "COURSE_NOT_FOUND", "Course not found")
	ErrCategoryNotFound  = apperr.New(apperr.NotFound, "CATEGORY_NOT_FOUND", "Category not found")
	ErrSectionNotFound   = apperr.New(apperr.NotFound, "SECTION_NOT_FOUND", "Section not found")
	ErrSubSectionMissing = apperr.New(apperr.NotFound, "SUBSECTION_NOT_FOUND", "Subsection not found")
	ErrProgressNotFound  = apperr.New(apperr.NotFound, "PROGRESS_NOT_FOUND", "Course progress not found")
)

// notFound translates store.ErrNotFound into the given sentinel and passes
// every other error through.
func notFound(err error, sentinel *apperr.Error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(sentinel, err)
	}
	return err
}
