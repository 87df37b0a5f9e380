package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/types"
)

const (
	formFieldCourseID     = "courseId"
	formFieldName         = "courseName"
	formFieldDescription  = "courseDescription"
	formFieldLearn        = "whatYouWillLearn"
	formFieldPrice        = "price"
	formFieldCategory     = "category"
	formFieldTag          = "tag"
	formFieldInstructions = "instructions"
	formFieldStatus       = "status"
)

// CourseHandler provides the course, content and catalog endpoints.
type CourseHandler struct {
	courses    *services.CourseService
	content    *services.ContentService
	categories *services.CategoryService
	ratings    *services.RatingService
	progress   *services.ProgressService
	log        *logger.Logger
}

// CourseServices groups the services behind the course routes.
type CourseServices struct {
	Courses    *services.CourseService
	Content    *services.ContentService
	Categories *services.CategoryService
	Ratings    *services.RatingService
	Progress   *services.ProgressService
}

func NewCourseHandler(svc CourseServices, log *logger.Logger) *CourseHandler {
	return &CourseHandler{
		courses:    svc.Courses,
		content:    svc.Content,
		categories: svc.Categories,
		ratings:    svc.Ratings,
		progress:   svc.Progress,
		log:        log,
	}
}

// CourseRouter registers course routes on the given router.
func CourseRouter(r chi.Router, handler *CourseHandler, authMiddleware func(http.Handler) http.Handler) {
	instructor := RequireRole(types.AccountInstructor)
	student := RequireRole(types.AccountStudent)
	admin := RequireRole(types.AccountAdmin)

	// Public catalog.
	r.Post("/getCourseDetails", handler.GetCourseDetails)
	r.Get("/getAllCourses", handler.GetAllCourses)
	r.Post("/getCategoryPageDetails", handler.GetCategoryPageDetails)
	r.Get("/showAllCategories", handler.ShowAllCategories)
	r.Get("/getAverageRating", handler.GetAverageRating)
	r.Get("/getReviews", handler.GetReviews)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/getFullCourseDetails", handler.GetFullCourseDetails)

		r.With(instructor).Post("/createCourse", handler.CreateCourse)
		r.With(instructor).Post("/editCourse", handler.EditCourse)
		r.With(instructor).Delete("/deleteCourse", handler.DeleteCourse)
		r.With(instructor).Get("/getInstructorCourses", handler.GetInstructorCourses)

		r.With(instructor).Post("/addSection", handler.AddSection)
		r.With(instructor).Post("/updateSection", handler.UpdateSection)
		r.With(instructor).Post("/deleteSection", handler.DeleteSection)
		r.With(instructor).Post("/addSubSection", handler.AddSubSection)
		r.With(instructor).Post("/updateSubSection", handler.UpdateSubSection)
		r.With(instructor).Post("/deleteSubSection", handler.DeleteSubSection)

		r.With(student).Post("/enrollCourse", handler.EnrollCourse)
		r.With(student).Post("/updateCourseProgress", handler.UpdateCourseProgress)
		r.With(student).Post("/createRating", handler.CreateRating)

		r.With(admin).Post("/createCategory", handler.CreateCategory)
	})
}

type CourseIDRequest struct {
	CourseID int `json:"courseId" validate:"required,gt=0"`
}

type CategoryIDRequest struct {
	CategoryID int `json:"categoryId" validate:"required,gt=0"`
}

// CreateCourse uploads the thumbnail and creates a course owned by the
// caller.
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	if err := parseForm(w, r); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	thumbnail, closeFile, err := formFile(r, formFieldThumbnail)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	defer closeFile()

	price, err := parseOptionalFloat(r.FormValue(formFieldPrice))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "price must be a number", nil)
		return
	}
	categoryID, err := parseOptionalInt(r.FormValue(formFieldCategory))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "category must be a numeric id", nil)
		return
	}

	in := services.NewCourse{
		Name:             r.FormValue(formFieldName),
		Description:      r.FormValue(formFieldDescription),
		WhatYouWillLearn: r.FormValue(formFieldLearn),
		Price:            price,
		Tags:             strings.TrimSpace(r.FormValue(formFieldTag)),
		Instructions:     strings.TrimSpace(r.FormValue(formFieldInstructions)),
		Status:           strings.TrimSpace(r.FormValue(formFieldStatus)),
	}
	if categoryID != nil {
		in.CategoryID = *categoryID
	}

	course, err := h.courses.Create(r.Context(), p.ID, in, thumbnail)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Course created successfully", course)
}

// EditCourse applies the submitted fields to a course the caller owns.
func (h *CourseHandler) EditCourse(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	if err := parseForm(w, r); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	courseID, err := parseOptionalInt(r.FormValue(formFieldCourseID))
	if err != nil || courseID == nil || *courseID < 1 {
		writeFailure(w, http.StatusBadRequest, "courseId is required", nil)
		return
	}
	thumbnail, closeFile, err := formFile(r, formFieldThumbnail)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	defer closeFile()

	upd := services.CourseUpdate{
		Name:             optionalValue(r, formFieldName),
		Description:      optionalValue(r, formFieldDescription),
		WhatYouWillLearn: optionalValue(r, formFieldLearn),
		Tags:             optionalValue(r, formFieldTag),
		Instructions:     optionalValue(r, formFieldInstructions),
		Status:           optionalValue(r, formFieldStatus),
	}
	if raw := optionalValue(r, formFieldPrice); raw != nil {
		upd.Price, err = parseOptionalFloat(*raw)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "price must be a number", nil)
			return
		}
	}
	if raw := optionalValue(r, formFieldCategory); raw != nil {
		upd.CategoryID, err = parseOptionalInt(*raw)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "category must be a numeric id", nil)
			return
		}
	}

	course, err := h.courses.Edit(r.Context(), p.ID, *courseID, upd, thumbnail)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Course updated successfully", course)
}

// DeleteCourse removes a course the caller owns with all of its content.
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	var req CourseIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.courses.Delete(r.Context(), p.ID, req.CourseID); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Course deleted successfully", nil)
}

func (h *CourseHandler) GetCourseDetails(w http.ResponseWriter, r *http.Request) {
	var req CourseIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	details, err := h.courses.Details(r.Context(), req.CourseID, services.PublicView())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Course details fetched successfully", details)
}

func (h *CourseHandler) GetFullCourseDetails(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	var req CourseIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	details, err := h.courses.Details(r.Context(), req.CourseID, services.FullView(p.ID))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Course details fetched successfully", details)
}

func (h *CourseHandler) GetAllCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Courses fetched successfully", courses)
}

func (h *CourseHandler) GetInstructorCourses(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	courses, err := h.courses.ListByInstructor(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Instructor courses fetched successfully", courses)
}

func (h *CourseHandler) GetCategoryPageDetails(w http.ResponseWriter, r *http.Request) {
	var req CategoryIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	page, err := h.courses.CategoryPage(r.Context(), req.CategoryID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Category page fetched successfully", page)
}

func (h *CourseHandler) EnrollCourse(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	var req CourseIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	progress, err := h.courses.Enroll(r.Context(), p.ID, req.CourseID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Enrolled successfully", progress)
}
