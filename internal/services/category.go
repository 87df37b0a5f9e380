package services

import (
	"context"
	"errors"
	"strings"

	"github.com/studynotion/apiserver/internal/apperr"
	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/types"
)

// CategoryService manages catalog categories.
type CategoryService struct {
	store Store
}

func NewCategoryService(st Store) *CategoryService {
	return &CategoryService{store: st}
}

func (s *CategoryService) Create(ctx context.Context, name, description string) (types.Category, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" || description == "" {
		return types.Category{}, ErrMissingFields
	}

	category, err := s.store.Repos().Categories.Create(ctx, types.Category{Name: name, Description: description})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.Category{}, apperr.Wrap(ErrCategoryExists, err)
		}
		return types.Category{}, err
	}
	return category, nil
}

// List returns every category in creation order.
func (s *CategoryService) List(ctx context.Context) ([]types.Category, error) {
	return s.store.Repos().Categories.List(ctx)
}
