package services

import (
	"context"
	"errors"

	"github.com/studynotion/apiserver/internal/apperr"
	"github.com/studynotion/apiserver/internal/logger"
)

const defaultReapBatch = 100

// mediaJanitor deletes hosted media outside of transactions. Deletions that
// fail are recorded as orphaned assets so the reaper can retry them.
type mediaJanitor struct {
	store Store
	media MediaHost
	log   *logger.Logger
}

func (j mediaJanitor) upload(ctx context.Context, file *Upload, what string) (string, error) {
	url, err := j.media.Upload(ctx, *file)
	if err != nil {
		return "", apperr.UpstreamError("Could not upload "+what, err)
	}
	return url, nil
}

// discard deletes every non-empty URL, recording failures.
func (j mediaJanitor) discard(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		err := j.media.Delete(ctx, url)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrForeignMedia) {
			j.log.Info("skipping media not hosted here", "url", url)
			continue
		}
		j.log.Warn("media delete failed", "url", url, "error", err)
		if recErr := j.store.Repos().Assets.Record(ctx, url, err.Error()); recErr != nil {
			j.log.Error("record orphaned asset", "url", url, "error", recErr)
		}
	}
}

// ReapResult summarizes one reaper pass.
type ReapResult struct {
	Attempted int `json:"attempted"`
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
	Dropped   int `json:"dropped"`
}

// MediaReaper retries deletion of orphaned assets.
type MediaReaper struct {
	store Store
	media MediaHost
	log   *logger.Logger
}

func NewMediaReaper(st Store, media MediaHost, log *logger.Logger) *MediaReaper {
	return &MediaReaper{store: st, media: media, log: log}
}

// Reap makes one deletion attempt for up to limit recorded assets.
func (r *MediaReaper) Reap(ctx context.Context, limit int) (ReapResult, error) {
	if limit < 1 {
		limit = defaultReapBatch
	}

	repos := r.store.Repos()
	assets, err := repos.Assets.List(ctx, limit)
	if err != nil {
		return ReapResult{}, err
	}

	var result ReapResult
	for _, asset := range assets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempted++

		err := r.media.Delete(ctx, asset.URL)
		if errors.Is(err, ErrForeignMedia) {
			if err := repos.Assets.Delete(ctx, asset.ID); err != nil {
				return result, err
			}
			result.Dropped++
			continue
		}
		if err != nil {
			result.Failed++
			r.log.Warn("reap media failed", "url", asset.URL, "attempts", asset.Attempts+1, "error", err)
			if recErr := repos.Assets.Record(ctx, asset.URL, err.Error()); recErr != nil {
				return result, recErr
			}
			continue
		}

		if err := repos.Assets.Delete(ctx, asset.ID); err != nil {
			return result, err
		}
		result.Deleted++
	}

	r.log.Info("media reap finished", "attempted", result.Attempted, "deleted", result.Deleted, "failed", result.Failed, "dropped", result.Dropped)
	return result, nil
}
