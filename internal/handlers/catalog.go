package handlers

import (
	"net/http"
	"strconv"
	"strings"
)

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description" validate:"required,notblank"`
}

type CreateRatingRequest struct {
	CourseID int    `json:"courseId" validate:"required,gt=0"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Review   string `json:"review" validate:"max=2000"`
}

type UpdateProgressRequest struct {
	CourseID     int `json:"courseId" validate:"required,gt=0"`
	SubSectionID int `json:"subsectionId" validate:"required,gt=0"`
}

// AverageRating is the getAverageRating payload.
type AverageRating struct {
	CourseID      int     `json:"courseId"`
	AverageRating float64 `json:"averageRating"`
}

func (h *CourseHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	category, err := h.categories.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Category created successfully", category)
}

func (h *CourseHandler) ShowAllCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Categories fetched successfully", categories)
}

func (h *CourseHandler) CreateRating(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	var req CreateRatingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	rating, err := h.ratings.Create(r.Context(), p.ID, req.CourseID, req.Rating, req.Review)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Rating and review created successfully", rating)
}

func (h *CourseHandler) GetAverageRating(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("courseId")))
	if err != nil || courseID < 1 {
		writeFailure(w, http.StatusBadRequest, "courseId is required", nil)
		return
	}

	avg, err := h.ratings.Average(r.Context(), courseID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Average rating fetched successfully", AverageRating{CourseID: courseID, AverageRating: avg})
}

func (h *CourseHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.ratings.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "All reviews fetched successfully", reviews)
}

func (h *CourseHandler) UpdateCourseProgress(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	var req UpdateProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	progress, err := h.progress.MarkCompleted(r.Context(), p.ID, req.CourseID, req.SubSectionID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Course progress updated", progress)
}
