package cart

import (
	"context"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/core/types"
	"farmapos/internal/domain/catalog/product"
)

// Service mutates session carts with advisory stock checks.
// The checks here read stock without a lock and exist only to catch
// obvious mistakes early; checkout performs the authoritative check
// under row locks.
type Service struct {
	store    *Store
	products product.Repository
}

// NewService creates a new cart service.
func NewService(store *Store, products product.Repository) *Service {
	return &Service{store: store, products: products}
}

// Add increases a line's quantity by qty (>= 1).
func (s *Service) Add(ctx context.Context, sessionKey string, productID id.ID, qty int64) error {
	if qty < 1 {
		return apperror.NewValidation("quantity must be at least 1")
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	return s.store.Update(sessionKey, func(c *Cart) error {
		requested := c.Quantity(productID) + qty
		if p.StockQuantity < requested {
			return apperror.NewInsufficientStock(p.Name, requested, p.StockQuantity)
		}
		c.Set(productID, requested)
		return nil
	})
}

// SetQuantity replaces a line's quantity; 0 removes the line.
func (s *Service) SetQuantity(ctx context.Context, sessionKey string, productID id.ID, qty int64) error {
	if qty < 0 {
		return apperror.NewValidation("quantity must not be negative")
	}
	if qty == 0 {
		return s.store.Update(sessionKey, func(c *Cart) error {
			c.Remove(productID)
			return nil
		})
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	return s.store.Update(sessionKey, func(c *Cart) error {
		if p.StockQuantity < qty {
			return apperror.NewInsufficientStock(p.Name, qty, p.StockQuantity)
		}
		c.Set(productID, qty)
		return nil
	})
}

// Remove deletes a line; no-op if absent.
func (s *Service) Remove(ctx context.Context, sessionKey string, productID id.ID) error {
	return s.store.Update(sessionKey, func(c *Cart) error {
		c.Remove(productID)
		return nil
	})
}

// Clear empties the session's cart.
func (s *Service) Clear(sessionKey string) {
	s.store.Clear(sessionKey)
}

// Snapshot returns a detached copy of the session's cart for checkout.
func (s *Service) Snapshot(sessionKey string) *Cart {
	return s.store.Snapshot(sessionKey)
}

// LineView is one cart line priced at current catalog prices.
type LineView struct {
	ProductID id.ID       `json:"productId"`
	Name      string      `json:"name"`
	UnitPrice types.Money `json:"unitPrice"`
	Quantity  int64       `json:"quantity"`
	LineTotal types.Money `json:"lineTotal"`
}

// View is the client-visible cart with its running total. The total uses
// current prices, so it can change if prices change before checkout;
// checkout recomputes the final total authoritatively.
type View struct {
	Lines []LineView  `json:"lines"`
	Total types.Money `json:"total"`
}

// View prices the session's cart against the current catalog.
func (s *Service) View(ctx context.Context, sessionKey string) (*View, error) {
	snapshot := s.store.Snapshot(sessionKey)

	view := &View{
		Lines: make([]LineView, 0, snapshot.Len()),
		Total: types.ZeroMoney(),
	}
	for _, pid := range snapshot.ProductIDs() {
		p, err := s.products.GetByID(ctx, pid)
		if err != nil {
			if apperror.IsNotFound(err) {
				// Product deleted since it was added; skip the stale line.
				continue
			}
			return nil, err
		}
		qty := snapshot.Quantity(pid)
		lineTotal := p.UnitPrice.Mul(types.MoneyFromInt(qty))
		view.Lines = append(view.Lines, LineView{
			ProductID: pid,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  qty,
			LineTotal: lineTotal,
		})
		view.Total = view.Total.Add(lineTotal)
	}
	return view, nil
}
