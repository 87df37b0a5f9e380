package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/studynotion/apiserver/config"
	"github.com/studynotion/apiserver/internal/db"
	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/internal/store/memstore"
)

// pgStore exposes the Postgres repositories through services.Store.
type pgStore struct {
	st *store.Store
}

func (p pgStore) Repos() services.Repos {
	return reposOf(p.st)
}

func (p pgStore) InTx(ctx context.Context, fn func(tx services.Repos) error) error {
	return p.st.InTx(ctx, func(tx *store.Store) error {
		return fn(reposOf(tx))
	})
}

func reposOf(st *store.Store) services.Repos {
	return services.Repos{
		Users:       st.Users,
		Profiles:    st.Profiles,
		Codes:       st.Codes,
		Courses:     st.Courses,
		Categories:  st.Categories,
		Sections:    st.Sections,
		SubSections: st.SubSections,
		Ratings:     st.Ratings,
		Progress:    st.Progress,
		Assets:      st.Assets,
	}
}

// OpenStore connects the persistence backend selected by cfg. The returned
// closer releases it.
func OpenStore(ctx context.Context, cfg config.Config) (services.Store, func() error, error) {
	switch strings.ToLower(cfg.StoreBackend) {
	case "postgres", "":
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return pgStore{st: store.New(conn)}, conn.Close, nil
	case "memory":
		return memstore.New(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
