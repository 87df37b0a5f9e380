package services

import (
	"context"
	"errors"
	"io"

	"github.com/studynotion/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	AddCourse(ctx context.Context, userID, courseID int) error
	RemoveCourse(ctx context.Context, userID, courseID int) error
}

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	Get(ctx context.Context, id int) (types.Profile, error)
	Create(ctx context.Context, profile types.Profile) (types.Profile, error)
}

// CodeRepository defines the per-email verification code slot.
type CodeRepository interface {
	Upsert(ctx context.Context, code types.OneTimeCode) error
	Get(ctx context.Context, email string) (types.OneTimeCode, error)
	Delete(ctx context.Context, email string) error
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	Get(ctx context.Context, id int) (types.Course, error)
	List(ctx context.Context) ([]types.Course, error)
	ListByInstructor(ctx context.Context, instructorID int) ([]types.Course, error)
	ListByIDs(ctx context.Context, ids []int) ([]types.Course, error)
	Create(ctx context.Context, course types.Course) (types.Course, error)
	Update(ctx context.Context, course types.Course) (types.Course, error)
	Delete(ctx context.Context, id int) error
	AddStudent(ctx context.Context, courseID, userID int) error
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Get(ctx context.Context, id int) (types.Category, error)
	List(ctx context.Context) ([]types.Category, error)
	Create(ctx context.Context, category types.Category) (types.Category, error)
	AddCourse(ctx context.Context, categoryID, courseID int) error
	RemoveCourse(ctx context.Context, categoryID, courseID int) error
}

// SectionRepository defines persistence operations for sections.
type SectionRepository interface {
	Get(ctx context.Context, id int) (types.Section, error)
	ListByCourse(ctx context.Context, courseID int) ([]types.Section, error)
	Create(ctx context.Context, section types.Section) (types.Section, error)
	Update(ctx context.Context, section types.Section) (types.Section, error)
	Delete(ctx context.Context, id int) error
}

// SubSectionRepository defines persistence operations for subsections.
type SubSectionRepository interface {
	Get(ctx context.Context, id int) (types.SubSection, error)
	ListBySection(ctx context.Context, sectionID int) ([]types.SubSection, error)
	Create(ctx context.Context, sub types.SubSection) (types.SubSection, error)
	Update(ctx context.Context, sub types.SubSection) (types.SubSection, error)
	Delete(ctx context.Context, id int) error
}

// RatingRepository defines persistence operations for ratings.
type RatingRepository interface {
	Create(ctx context.Context, rating types.RatingAndReview) (types.RatingAndReview, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID int) (types.RatingAndReview, error)
	ListByCourse(ctx context.Context, courseID int) ([]types.RatingAndReview, error)
	List(ctx context.Context) ([]types.RatingAndReview, error)
	DeleteByCourse(ctx context.Context, courseID int) error
}

// ProgressRepository defines persistence operations for course progress.
type ProgressRepository interface {
	Get(ctx context.Context, userID, courseID int) (types.CourseProgress, error)
	Create(ctx context.Context, progress types.CourseProgress) (types.CourseProgress, error)
	AddCompleted(ctx context.Context, progressID, subSectionID int) error
	RemoveCompleted(ctx context.Context, subSectionID int) error
	DeleteByCourse(ctx context.Context, courseID int) error
}

// AssetRepository tracks media whose deletion failed.
type AssetRepository interface {
	Record(ctx context.Context, url, lastError string) error
	List(ctx context.Context, limit int) ([]types.OrphanedAsset, error)
	Delete(ctx context.Context, id int) error
}

// Repos is the set of repositories bound to one connection or transaction.
type Repos struct {
	Users       UserRepository
	Profiles    ProfileRepository
	Codes       CodeRepository
	Courses     CourseRepository
	Categories  CategoryRepository
	Sections    SectionRepository
	SubSections SubSectionRepository
	Ratings     RatingRepository
	Progress    ProgressRepository
	Assets      AssetRepository
}

// Store gives services non-transactional repositories for reads and a
// transaction boundary for multi-entity writes.
type Store interface {
	Repos() Repos
	InTx(ctx context.Context, fn func(tx Repos) error) error
}

// ErrForeignMedia is returned by MediaHost.Delete for URLs it does not host.
// Such URLs can never be deleted, so they are not retried.
var ErrForeignMedia = errors.New("url is not hosted by this media store")

// MediaHost stores uploaded images and videos and serves them by URL.
type MediaHost interface {
	Upload(ctx context.Context, file Upload) (string, error)
	Delete(ctx context.Context, url string) error
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Notifier delivers transactional mail.
type Notifier interface {
	Send(ctx context.Context, msg Notification) error
}

// Notification is a rendered mail message.
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
