package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/types"
)

type ratingRepository struct{ h handle }

func (r ratingRepository) Create(ctx context.Context, rating types.RatingAndReview) (types.RatingAndReview, error) {
	err := r.h.do(func(t *tables) error {
		for _, existing := range t.ratings {
			if existing.UserID == rating.UserID && existing.CourseID == rating.CourseID {
				return store.ErrDuplicate
			}
		}
		rating.ID = t.id()
		rating.CreatedAt = time.Now()
		t.ratings[rating.ID] = rating
		if c, ok := t.courses[rating.CourseID]; ok {
			c.RatingIDs = appendID(c.RatingIDs, rating.ID)
			t.courses[c.ID] = c
		}
		return nil
	})
	if err != nil {
		return types.RatingAndReview{}, err
	}
	return rating, nil
}

func (r ratingRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (types.RatingAndReview, error) {
	var rating types.RatingAndReview
	err := r.h.do(func(t *tables) error {
		for _, existing := range t.ratings {
			if existing.UserID == userID && existing.CourseID == courseID {
				rating = existing
				return nil
			}
		}
		return store.ErrNotFound
	})
	return rating, err
}

func (r ratingRepository) ListByCourse(ctx context.Context, courseID int) ([]types.RatingAndReview, error) {
	ratings := []types.RatingAndReview{}
	err := r.h.do(func(t *tables) error {
		for _, rating := range t.ratings {
			if rating.CourseID == courseID {
				ratings = append(ratings, rating)
			}
		}
		return nil
	})
	sort.Slice(ratings, func(i, j int) bool { return ratings[i].ID < ratings[j].ID })
	return ratings, err
}

// List returns every rating, highest rating first, newest first within a score.
func (r ratingRepository) List(ctx context.Context) ([]types.RatingAndReview, error) {
	ratings := []types.RatingAndReview{}
	err := r.h.do(func(t *tables) error {
		for _, rating := range t.ratings {
			ratings = append(ratings, rating)
		}
		return nil
	})
	sort.Slice(ratings, func(i, j int) bool {
		a, b := ratings[i], ratings[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return ratings, err
}

func (r ratingRepository) DeleteByCourse(ctx context.Context, courseID int) error {
	return r.h.do(func(t *tables) error {
		for id, rating := range t.ratings {
			if rating.CourseID == courseID {
				delete(t.ratings, id)
			}
		}
		if c, ok := t.courses[courseID]; ok {
			c.RatingIDs = []int{}
			t.courses[courseID] = c
		}
		return nil
	})
}

type progressRepository struct{ h handle }

func (r progressRepository) Get(ctx context.Context, userID, courseID int) (types.CourseProgress, error) {
	var progress types.CourseProgress
	err := r.h.do(func(t *tables) error {
		for _, p := range t.progress {
			if p.UserID == userID && p.CourseID == courseID {
				progress = p
				progress.CompletedVideos = cloneIDs(p.CompletedVideos)
				return nil
			}
		}
		return store.ErrNotFound
	})
	return progress, err
}

func (r progressRepository) Create(ctx context.Context, progress types.CourseProgress) (types.CourseProgress, error) {
	err := r.h.do(func(t *tables) error {
		progress.ID = t.id()
		progress.CompletedVideos = []int{}
		t.progress[progress.ID] = progress
		return nil
	})
	if err != nil {
		return types.CourseProgress{}, err
	}
	progress.CompletedVideos = []int{}
	return progress, nil
}

func (r progressRepository) AddCompleted(ctx context.Context, progressID, subSectionID int) error {
	return r.h.do(func(t *tables) error {
		p, ok := t.progress[progressID]
		if !ok {
			return store.ErrNotFound
		}
		p.CompletedVideos = appendID(p.CompletedVideos, subSectionID)
		t.progress[progressID] = p
		return nil
	})
}

func (r progressRepository) RemoveCompleted(ctx context.Context, subSectionID int) error {
	return r.h.do(func(t *tables) error {
		for id, p := range t.progress {
			p.CompletedVideos = removeID(p.CompletedVideos, subSectionID)
			t.progress[id] = p
		}
		return nil
	})
}

func (r progressRepository) DeleteByCourse(ctx context.Context, courseID int) error {
	return r.h.do(func(t *tables) error {
		for id, p := range t.progress {
			if p.CourseID == courseID {
				delete(t.progress, id)
			}
		}
		return nil
	})
}

type assetRepository struct{ h handle }

func (r assetRepository) Record(ctx context.Context, url, lastError string) error {
	return r.h.do(func(t *tables) error {
		for id, asset := range t.assets {
			if asset.URL == url {
				asset.LastError = lastError
				asset.Attempts++
				t.assets[id] = asset
				return nil
			}
		}
		id := t.id()
		t.assets[id] = types.OrphanedAsset{
			ID:        id,
			URL:       url,
			LastError: lastError,
			Attempts:  1,
			CreatedAt: time.Now(),
		}
		return nil
	})
}

// List returns up to limit tracked assets, fewest attempts first.
func (r assetRepository) List(ctx context.Context, limit int) ([]types.OrphanedAsset, error) {
	if limit < 1 {
		limit = 100
	}
	assets := []types.OrphanedAsset{}
	err := r.h.do(func(t *tables) error {
		for _, asset := range t.assets {
			assets = append(assets, asset)
		}
		return nil
	})
	sort.Slice(assets, func(i, j int) bool {
		if assets[i].Attempts != assets[j].Attempts {
			return assets[i].Attempts < assets[j].Attempts
		}
		return assets[i].ID < assets[j].ID
	})
	if len(assets) > limit {
		assets = assets[:limit]
	}
	return assets, err
}

func (r assetRepository) Delete(ctx context.Context, id int) error {
	return r.h.do(func(t *tables) error {
		if _, ok := t.assets[id]; !ok {
			return store.ErrNotFound
		}
		delete(t.assets, id)
		return nil
	})
}
