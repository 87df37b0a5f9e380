package handlers

import (
	"net/http"

	"github.com/studynotion/apiserver/internal/services"
)

const (
	formFieldSectionID    = "sectionId"
	formFieldSubSectionID = "subSectionId"
	formFieldTitle        = "title"
	formFieldDesc         = "description"
	formFieldDuration     = "timeDuration"
)

type AddSectionRequest struct {
	SectionName string `json:"sectionName" validate:"required,notblank"`
	CourseID    int    `json:"courseId" validate:"required,gt=0"`
}

type UpdateSectionRequest struct {
	SectionName string `json:"sectionName" validate:"required,notblank"`
	SectionID   int    `json:"sectionId" validate:"required,gt=0"`
}

type DeleteSectionRequest struct {
	SectionID int `json:"sectionId" validate:"required,gt=0"`
	CourseID  int `json:"courseId" validate:"required,gt=0"`
}

type DeleteSubSectionRequest struct {
	SubSectionID int `json:"subSectionId" validate:"required,gt=0"`
	SectionID    int `json:"sectionId" validate:"required,gt=0"`
}

func (h *CourseHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	var req AddSectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	course, err := h.content.CreateSection(r.Context(), p.ID, req.CourseID, req.SectionName)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Section created successfully", course)
}

func (h *CourseHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	var req UpdateSectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	course, err := h.content.UpdateSection(r.Context(), p.ID, req.SectionID, req.SectionName)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Section updated successfully", course)
}

func (h *CourseHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	var req DeleteSectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	course, err := h.content.DeleteSection(r.Context(), p.ID, req.CourseID, req.SectionID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Section deleted successfully", course)
}

// AddSubSection uploads a lecture video into a section.
func (h *CourseHandler) AddSubSection(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	if err := parseForm(w, r); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	sectionID, err := parseOptionalInt(r.FormValue(formFieldSectionID))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "sectionId must be a numeric id", nil)
		return
	}
	duration, err := parseOptionalInt(r.FormValue(formFieldDuration))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "timeDuration must be a number of seconds", nil)
		return
	}
	video, closeFile, err := formFile(r, formFieldVideo)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	defer closeFile()

	in := services.NewSubSection{
		Title:       r.FormValue(formFieldTitle),
		Description: r.FormValue(formFieldDesc),
	}
	if duration != nil {
		in.TimeDuration = *duration
	}
	id := 0
	if sectionID != nil {
		id = *sectionID
	}

	section, err := h.content.CreateSubSection(r.Context(), p.ID, id, in, video)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Subsection created successfully", section)
}

// UpdateSubSection edits a lecture, replacing its video when one is sent.
func (h *CourseHandler) UpdateSubSection(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	if err := parseForm(w, r); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	subSectionID, err := parseOptionalInt(r.FormValue(formFieldSubSectionID))
	if err != nil || subSectionID == nil || *subSectionID < 1 {
		writeFailure(w, http.StatusBadRequest, "subSectionId is required", nil)
		return
	}
	video, closeFile, err := formFile(r, formFieldVideo)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	defer closeFile()

	upd := services.SubSectionUpdate{
		Title:       optionalValue(r, formFieldTitle),
		Description: optionalValue(r, formFieldDesc),
	}
	if raw := optionalValue(r, formFieldDuration); raw != nil {
		upd.TimeDuration, err = parseOptionalInt(*raw)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "timeDuration must be a number of seconds", nil)
			return
		}
	}

	section, err := h.content.UpdateSubSection(r.Context(), p.ID, *subSectionID, upd, video)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Subsection updated successfully", section)
}

func (h *CourseHandler) DeleteSubSection(w http.ResponseWriter, r *http.Request) {
	p, err := principalFromContext(r.Context())
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, "Token is missing", nil)
		return
	}

	var req DeleteSubSectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	section, err := h.content.DeleteSubSection(r.Context(), p.ID, req.SectionID, req.SubSectionID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Subsection deleted successfully", section)
}
