package service

import (
	"context"

	"canteen/internal/domain"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*domain.MenuItem, error)
	List(ctx context.Context, category string, availableOnly bool) ([]domain.MenuItem, error)
}

// MenuService is the menu lookup collaborator. The order flow depends on
// it only through GetItem: authoritative current price and availability.
type MenuService struct {
	repo Repository
}

func NewMenuService(repo Repository) *MenuService {
	return &MenuService{repo: repo}
}

func (s *MenuService) GetItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *MenuService) ListItems(ctx context.Context, category string) ([]domain.MenuItem, error) {
	return s.repo.List(ctx, category, true)
}
