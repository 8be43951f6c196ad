package product

import (
	"context"

	"farmapos/internal/core/id"
	"farmapos/pkg/logger"
)

// Service provides catalog reads for the cart and POS screens.
// Stock mutation is deliberately absent here; see ledger.Service.
type Service struct {
	repo Repository
}

// NewService creates a new product catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List returns catalog items ordered by name.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Product, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, limit, offset)
}

// Create inserts a new catalog item.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	logger.Info(ctx, "product created", "id", p.ID, "name", p.Name)
	return nil
}
