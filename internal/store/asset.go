package store

import (
	"context"
	"time"

	"github.com/studynotion/apiserver/types"
)

// AssetRepository tracks hosted media whose deletion failed.
type AssetRepository struct {
	db DBTX
}

func NewAssetRepository(db DBTX) *AssetRepository {
	return &AssetRepository{db: db}
}

// Record stores a failed deletion, bumping the attempt count when the URL is
// already tracked.
func (r *AssetRepository) Record(ctx context.Context, url, lastError string) error {
	const query = `
		INSERT INTO orphaned_assets (url, last_error, attempts, created_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (url) DO UPDATE
		SET last_error = EXCLUDED.last_error,
			attempts = orphaned_assets.attempts + 1`
	_, err := r.db.ExecContext(ctx, query, url, lastError, time.Now())
	return err
}

// List returns up to limit tracked assets, fewest attempts first.
func (r *AssetRepository) List(ctx context.Context, limit int) ([]types.OrphanedAsset, error) {
	if limit < 1 {
		limit = 100
	}

	const query = `
		SELECT id, url, last_error, attempts, created_at
		FROM orphaned_assets
		ORDER BY attempts, id
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]types.OrphanedAsset, 0, limit)
	for rows.Next() {
		var asset types.OrphanedAsset
		if err := rows.Scan(&asset.ID, &asset.URL, &asset.LastError, &asset.Attempts, &asset.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *AssetRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orphaned_assets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
