package types

import "time"

// CourseStatus is the publication state of a course.
type CourseStatus string

const (
	CourseDraft     CourseStatus = "Draft"
	CoursePublished CourseStatus = "Published"
)

// Valid reports whether the status is a known publication state.
func (s CourseStatus) Valid() bool {
	return s == CourseDraft || s == CoursePublished
}

// Course is the root of the course aggregate. It owns its sections and,
// transitively, their subsections.
type Course struct {
	// ID is the unique identifier of the course.
	ID int `json:"id" db:"id"`

	// Name is the course title.
	Name string `json:"courseName" db:"name"`

	// Description is the long-form course description.
	Description string `json:"courseDescription" db:"description"`

	// WhatYouWillLearn describes the learning outcomes.
	WhatYouWillLearn string `json:"whatYouWillLearn" db:"what_you_will_learn"`

	// Price is the enrollment price in the smallest display unit.
	Price float64 `json:"price" db:"price"`

	// CategoryID references the single category the course belongs to.
	CategoryID int `json:"category" db:"category_id"`

	// InstructorID references the single user who owns the course.
	InstructorID int `json:"instructor" db:"instructor_id"`

	// SectionIDs is the ordered list of the course's sections.
	SectionIDs []int `json:"courseContent" db:"-"`

	// Tags are free-form labels used for search.
	Tags []string `json:"tag" db:"tags"`

	// Instructions are prerequisites and guidance shown before enrolling.
	Instructions []string `json:"instructions" db:"instructions"`

	// Thumbnail is the URL of the externally hosted thumbnail image.
	Thumbnail string `json:"thumbnail" db:"thumbnail"`

	// Status is either Draft or Published.
	Status CourseStatus `json:"status" db:"status"`

	// StudentsEnrolled lists the ids of enrolled students.
	StudentsEnrolled []int `json:"studentsEnrolled" db:"-"`

	// RatingIDs lists the ids of ratings and reviews left for the course.
	RatingIDs []int `json:"ratingAndReviews" db:"-"`

	// CreatedAt is the timestamp at which the course was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the course.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Section is an ordered group of subsections inside a course.
type Section struct {
	ID            int    `json:"id" db:"id"`
	CourseID      int    `json:"courseId" db:"course_id"`
	Name          string `json:"sectionName" db:"name"`
	SubSectionIDs []int  `json:"subSection" db:"-"`
}

// SubSection is a single lecture video.
type SubSection struct {
	ID          int    `json:"id" db:"id"`
	SectionID   int    `json:"sectionId" db:"section_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// TimeDuration is the video length in seconds.
	TimeDuration int `json:"timeDuration" db:"time_duration"`

	// VideoURL is the externally hosted video. It is omitted from public
	// course views.
	VideoURL string `json:"videoUrl,omitempty" db:"video_url"`
}

// Category groups courses for the catalog.
type Category struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	Courses     []int  `json:"courses" db:"-"`
}

// RatingAndReview is a student's rating of a course.
type RatingAndReview struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user" db:"user_id"`
	CourseID  int       `json:"course" db:"course_id"`
	Rating    int       `json:"rating" db:"rating"`
	Review    string    `json:"review" db:"review"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CourseProgress records which subsections a student has completed.
type CourseProgress struct {
	ID              int   `json:"id" db:"id"`
	UserID          int   `json:"userId" db:"user_id"`
	CourseID        int   `json:"courseID" db:"course_id"`
	CompletedVideos []int `json:"completedVideos" db:"-"`
}

// OrphanedAsset is a hosted media URL whose deletion failed and is waiting
// to be retried.
type OrphanedAsset struct {
	ID        int       `json:"id" db:"id"`
	URL       string    `json:"url" db:"url"`
	LastError string    `json:"lastError" db:"last_error"`
	Attempts  int       `json:"attempts" db:"attempts"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
