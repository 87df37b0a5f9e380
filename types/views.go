package types

// The view types below carry resolved references. Each embeds the stored
// entity and shadows the id-list field with the same JSON name, so a view
// serializes like the entity with its references populated.

// SectionView is a section with its subsections resolved in order.
type SectionView struct {
	Section
	SubSections []SubSection `json:"subSection"`
}

// CourseView is a course with instructor, category, ratings and content
// resolved.
type CourseView struct {
	Course
	Instructor       *UserView         `json:"instructor"`
	Category         *Category         `json:"category"`
	RatingAndReviews []RatingAndReview `json:"ratingAndReviews"`
	CourseContent    []SectionView     `json:"courseContent"`
}

// CourseCard is the catalog listing shape of a course.
type CourseCard struct {
	ID               int          `json:"id"`
	Name             string       `json:"courseName"`
	Description      string       `json:"courseDescription"`
	Price            float64      `json:"price"`
	Thumbnail        string       `json:"thumbnail"`
	Instructor       *UserSummary `json:"instructor"`
	RatingAndReviews []int        `json:"ratingAndReviews"`
	StudentsEnrolled []int        `json:"studentsEnrolled"`
}

// CategoryView is a category with its course cards resolved.
type CategoryView struct {
	Category
	Courses []CourseCard `json:"courses"`
}

// CourseDetails is the result of a course detail lookup.
type CourseDetails struct {
	CourseDetails        CourseView `json:"courseDetails"`
	TotalDuration        string     `json:"totalDuration"`
	TotalDurationSeconds int        `json:"totalDurationSeconds"`
	CompletedVideos      []int      `json:"completedVideos,omitempty"`
}

// CategoryPage is the catalog page for one category.
type CategoryPage struct {
	SelectedCategory CategoryView   `json:"selectedCategory"`
	OtherCategories  []CategoryView `json:"otherCategories"`
}

// ReviewView is a rating with its author and course summarized.
type ReviewView struct {
	RatingAndReview
	User   *UserSummary `json:"user"`
	Course *CourseCard  `json:"course"`
}
