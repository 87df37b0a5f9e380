package services

import (
	"context"

	"github.com/studynotion/apiserver/types"
)

// ProgressService records lecture completion for enrolled students.
type ProgressService struct {
	store Store
}

func NewProgressService(st Store) *ProgressService {
	return &ProgressService{store: st}
}

// MarkCompleted adds the lecture to the student's completed videos.
func (s *ProgressService) MarkCompleted(ctx context.Context, userID, courseID, subSectionID int) (types.CourseProgress, error) {
	if courseID == 0 || subSectionID == 0 {
		return types.CourseProgress{}, ErrMissingFields
	}

	repos := s.store.Repos()
	sub, err := repos.SubSections.Get(ctx, subSectionID)
	if err != nil {
		return types.CourseProgress{}, notFound(err, ErrSubSectionMissing)
	}
	section, err := repos.Sections.Get(ctx, sub.SectionID)
	if err != nil {
		return types.CourseProgress{}, notFound(err, ErrSubSectionMissing)
	}
	if section.CourseID != courseID {
		return types.CourseProgress{}, ErrSubSectionMissing
	}

	progress, err := repos.Progress.Get(ctx, userID, courseID)
	if err != nil {
		return types.CourseProgress{}, notFound(err, ErrProgressNotFound)
	}
	if containsID(progress.CompletedVideos, subSectionID) {
		return types.CourseProgress{}, ErrAlreadyCompleted
	}

	if err := repos.Progress.AddCompleted(ctx, progress.ID, subSectionID); err != nil {
		return types.CourseProgress{}, err
	}
	progress.CompletedVideos = append(progress.CompletedVideos, subSectionID)
	return progress, nil
}
