package ledger

import (
	"context"
	"fmt"
	"time"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/core/tx"
	"farmapos/internal/domain/audit"
	"farmapos/internal/domain/catalog/product"
	"farmapos/pkg/logger"
)

// Service owns the stock invariant: every stock change goes through Apply,
// which locks the product row, computes the new quantity, and persists the
// product update plus one movement in the same atomic unit.
type Service struct {
	products  product.Repository
	movements Repository
	txManager tx.Manager
	audit     audit.Recorder
}

// NewService creates a new stock ledger service.
func NewService(products product.Repository, movements Repository, txManager tx.Manager) *Service {
	return &Service{
		products:  products,
		movements: movements,
		txManager: txManager,
		audit:     audit.Nop{},
	}
}

// WithAudit sets the audit recorder for manual adjustments.
func (s *Service) WithAudit(rec audit.Recorder) *Service {
	s.audit = rec
	return s
}

// ApplyInput describes one stock movement request.
type ApplyInput struct {
	ProductID     id.ID
	Type          MovementType
	Quantity      int64
	ReferenceType ReferenceType
	ReferenceID   *id.ID
	Actor         string
	Notes         string
}

// ApplyResult carries the before/after quantities of a recorded movement.
type ApplyResult struct {
	PreviousStock int64
	NewStock      int64
}

// Apply records a single stock movement atomically.
//
// Quantity must be positive for IN/OUT and non-negative for ADJUSTMENT
// (ADJUSTMENT sets absolute stock, not a delta). An OUT that would drive
// stock negative fails with INSUFFICIENT_STOCK and leaves the row
// unchanged. When called inside an enclosing transaction (checkout), the
// movement joins that transaction; the repeated FOR UPDATE on an already
// held row lock is a no-op.
func (s *Service) Apply(ctx context.Context, in ApplyInput) (ApplyResult, error) {
	var result ApplyResult

	if !in.Type.Valid() {
		return result, apperror.NewValidation(fmt.Sprintf("unknown movement type %q", in.Type))
	}
	switch in.Type {
	case MovementIn, MovementOut:
		if in.Quantity <= 0 {
			return result, apperror.NewValidation("quantity must be positive")
		}
	case MovementAdjustment:
		if in.Quantity < 0 {
			return result, apperror.NewValidation("adjustment quantity must not be negative")
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.products.GetForUpdate(ctx, []id.ID{in.ProductID})
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}
		p, ok := locked[in.ProductID]
		if !ok {
			return apperror.NewNotFound("product", in.ProductID)
		}

		previous := p.StockQuantity
		var next int64
		switch in.Type {
		case MovementIn:
			next = previous + in.Quantity
		case MovementOut:
			next = previous - in.Quantity
		case MovementAdjustment:
			next = in.Quantity
		}

		if next < 0 {
			return apperror.NewInsufficientStock(p.Name, in.Quantity, previous)
		}

		if err := s.products.UpdateStock(ctx, in.ProductID, next); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}

		movement := &StockMovement{
			ID:            id.New(),
			ProductID:     in.ProductID,
			Type:          in.Type,
			Quantity:      in.Quantity,
			PreviousStock: previous,
			NewStock:      next,
			ReferenceType: in.ReferenceType,
			ReferenceID:   in.ReferenceID,
			Actor:         in.Actor,
			Notes:         in.Notes,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.movements.CreateMovement(ctx, movement); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}

		// Sale-driven movements are audited by the checkout itself.
		if in.Type == MovementAdjustment {
			if err := s.audit.Record(ctx, audit.Entry{
				EntityType: "product",
				EntityID:   in.ProductID,
				Action:     audit.ActionAdjustment,
				Actor:      in.Actor,
				Payload: map[string]any{
					"previous_stock": previous,
					"new_stock":      next,
					"notes":          in.Notes,
				},
			}); err != nil {
				return err
			}
		}

		result = ApplyResult{PreviousStock: previous, NewStock: next}
		return nil
	})
	if err != nil {
		return ApplyResult{}, err
	}

	logger.Info(ctx, "stock movement applied",
		"product_id", in.ProductID,
		"type", in.Type,
		"quantity", in.Quantity,
		"previous_stock", result.PreviousStock,
		"new_stock", result.NewStock,
	)

	return result, nil
}

// History returns a product's movement history, newest first.
func (s *Service) History(ctx context.Context, productID id.ID, limit, offset int) ([]StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.movements.ListByProduct(ctx, productID, limit, offset)
}
