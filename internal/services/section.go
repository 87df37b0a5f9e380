package services

import (
	"context"
	"strings"

	"github.com/studynotion/apiserver/internal/apperr"
	"github.com/studynotion/apiserver/internal/logger"
	"github.com/studynotion/apiserver/types"
)

// NewSubSection carries the fields of a lecture upload.
type NewSubSection struct {
	Title        string
	Description  string
	TimeDuration int
}

// SubSectionUpdate carries the fields of a lecture edit. Nil fields are left
// unchanged.
type SubSectionUpdate struct {
	Title        *string
	Description  *string
	TimeDuration *int
}

// ContentService manages the sections and lectures of a course. Every
// operation requires the caller to own the course.
type ContentService struct {
	store   Store
	courses *CourseService
	janitor mediaJanitor
	log     *logger.Logger
}

func NewContentService(st Store, courses *CourseService, media MediaHost, log *logger.Logger) *ContentService {
	return &ContentService{
		store:   st,
		courses: courses,
		janitor: mediaJanitor{store: st, media: media, log: log},
		log:     log,
	}
}

// CreateSection appends a section to the course and returns the course.
func (s *ContentService) CreateSection(ctx context.Context, instructorID, courseID int, name string) (types.CourseView, error) {
	name = strings.TrimSpace(name)
	if name == "" || courseID == 0 {
		return types.CourseView{}, ErrMissingFields
	}

	repos := s.store.Repos()
	if _, err := s.courses.ownedCourse(ctx, repos, instructorID, courseID); err != nil {
		return types.CourseView{}, err
	}
	if _, err := repos.Sections.Create(ctx, types.Section{CourseID: courseID, Name: name}); err != nil {
		return types.CourseView{}, err
	}

	view, _, err := s.courses.populate(ctx, repos, courseID, true)
	return view, err
}

// UpdateSection renames a section and returns its course.
func (s *ContentService) UpdateSection(ctx context.Context, instructorID, sectionID int, name string) (types.CourseView, error) {
	name = strings.TrimSpace(name)
	if name == "" || sectionID == 0 {
		return types.CourseView{}, ErrMissingFields
	}

	repos := s.store.Repos()
	section, err := s.ownedSection(ctx, repos, instructorID, sectionID)
	if err != nil {
		return types.CourseView{}, err
	}
	section.Name = name
	if _, err := repos.Sections.Update(ctx, section); err != nil {
		return types.CourseView{}, notFound(err, ErrSectionNotFound)
	}

	view, _, err := s.courses.populate(ctx, repos, section.CourseID, true)
	return view, err
}

// DeleteSection removes a section with its lectures and returns the course.
func (s *ContentService) DeleteSection(ctx context.Context, instructorID, courseID, sectionID int) (types.CourseView, error) {
	if courseID == 0 || sectionID == 0 {
		return types.CourseView{}, ErrMissingFields
	}

	repos := s.store.Repos()
	section, err := s.ownedSection(ctx, repos, instructorID, sectionID)
	if err != nil {
		return types.CourseView{}, err
	}
	if section.CourseID != courseID {
		return types.CourseView{}, ErrSectionNotFound
	}

	var videos []string
	err = s.store.InTx(ctx, func(tx Repos) error {
		var err error
		videos, err = deleteSectionContent(ctx, tx, section)
		return err
	})
	if err != nil {
		return types.CourseView{}, err
	}
	s.janitor.discard(ctx, videos...)

	view, _, err := s.courses.populate(ctx, repos, courseID, true)
	return view, err
}

// CreateSubSection uploads the lecture video and appends the lecture to the
// section.
func (s *ContentService) CreateSubSection(ctx context.Context, instructorID, sectionID int, in NewSubSection, video *Upload) (types.SectionView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if sectionID == 0 || in.Title == "" || in.Description == "" || video == nil {
		return types.SectionView{}, ErrMissingFields
	}
	if in.TimeDuration < 0 {
		return types.SectionView{}, apperr.Validationf("timeDuration must not be negative")
	}

	repos := s.store.Repos()
	if _, err := s.ownedSection(ctx, repos, instructorID, sectionID); err != nil {
		return types.SectionView{}, err
	}

	videoURL, err := s.janitor.upload(ctx, video, "video")
	if err != nil {
		return types.SectionView{}, err
	}

	_, err = repos.SubSections.Create(ctx, types.SubSection{
		SectionID:    sectionID,
		Title:        in.Title,
		Description:  in.Description,
		TimeDuration: in.TimeDuration,
		VideoURL:     videoURL,
	})
	if err != nil {
		s.janitor.discard(ctx, videoURL)
		return types.SectionView{}, err
	}

	return sectionView(ctx, repos, sectionID)
}

// UpdateSubSection edits a lecture. A new video replaces the old one, which
// is deleted once the lecture is saved.
func (s *ContentService) UpdateSubSection(ctx context.Context, instructorID, subSectionID int, upd SubSectionUpdate, video *Upload) (types.SectionView, error) {
	if subSectionID == 0 {
		return types.SectionView{}, ErrMissingFields
	}

	repos := s.store.Repos()
	sub, err := repos.SubSections.Get(ctx, subSectionID)
	if err != nil {
		return types.SectionView{}, notFound(err, ErrSubSectionMissing)
	}
	if _, err := s.ownedSection(ctx, repos, instructorID, sub.SectionID); err != nil {
		return types.SectionView{}, err
	}

	if upd.Title != nil {
		sub.Title = *upd.Title
	}
	if upd.Description != nil {
		sub.Description = *upd.Description
	}
	if upd.TimeDuration != nil {
		if *upd.TimeDuration < 0 {
			return types.SectionView{}, apperr.Validationf("timeDuration must not be negative")
		}
		sub.TimeDuration = *upd.TimeDuration
	}

	oldVideo := ""
	if video != nil {
		url, err := s.janitor.upload(ctx, video, "video")
		if err != nil {
			return types.SectionView{}, err
		}
		oldVideo = sub.VideoURL
		sub.VideoURL = url
	}

	if _, err := repos.SubSections.Update(ctx, sub); err != nil {
		if video != nil {
			s.janitor.discard(ctx, sub.VideoURL)
		}
		return types.SectionView{}, notFound(err, ErrSubSectionMissing)
	}
	s.janitor.discard(ctx, oldVideo)

	return sectionView(ctx, repos, sub.SectionID)
}

// DeleteSubSection removes a lecture and its video.
func (s *ContentService) DeleteSubSection(ctx context.Context, instructorID, sectionID, subSectionID int) (types.SectionView, error) {
	if sectionID == 0 || subSectionID == 0 {
		return types.SectionView{}, ErrMissingFields
	}

	repos := s.store.Repos()
	if _, err := s.ownedSection(ctx, repos, instructorID, sectionID); err != nil {
		return types.SectionView{}, err
	}
	sub, err := repos.SubSections.Get(ctx, subSectionID)
	if err != nil {
		return types.SectionView{}, notFound(err, ErrSubSectionMissing)
	}
	if sub.SectionID != sectionID {
		return types.SectionView{}, ErrSubSectionMissing
	}

	err = s.store.InTx(ctx, func(tx Repos) error {
		if err := tx.Progress.RemoveCompleted(ctx, sub.ID); err != nil {
			return err
		}
		return notFound(tx.SubSections.Delete(ctx, sub.ID), ErrSubSectionMissing)
	})
	if err != nil {
		return types.SectionView{}, err
	}
	s.janitor.discard(ctx, sub.VideoURL)

	return sectionView(ctx, repos, sectionID)
}

func (s *ContentService) ownedSection(ctx context.Context, repos Repos, instructorID, sectionID int) (types.Section, error) {
	section, err := repos.Sections.Get(ctx, sectionID)
	if err != nil {
		return types.Section{}, notFound(err, ErrSectionNotFound)
	}
	if _, err := s.courses.ownedCourse(ctx, repos, instructorID, section.CourseID); err != nil {
		return types.Section{}, err
	}
	return section, nil
}

func sectionView(ctx context.Context, repos Repos, sectionID int) (types.SectionView, error) {
	section, err := repos.Sections.Get(ctx, sectionID)
	if err != nil {
		return types.SectionView{}, notFound(err, ErrSectionNotFound)
	}
	subs, err := repos.SubSections.ListBySection(ctx, sectionID)
	if err != nil {
		return types.SectionView{}, err
	}
	return types.SectionView{Section: section, SubSections: subs}, nil
}
