package sales

import (
	"context"
	"fmt"
	"time"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/core/refcode"
	"farmapos/internal/core/tx"
	"farmapos/internal/core/types"
	"farmapos/internal/domain/audit"
	"farmapos/internal/domain/cart"
	"farmapos/internal/domain/catalog/product"
	"farmapos/internal/domain/ledger"
	"farmapos/pkg/logger"
)

// Service is the checkout engine. One Checkout call is one transaction:
// either the sale header, all line items, and all OUT movements commit
// together, or none of them exist afterwards.
type Service struct {
	products  product.Repository
	ledger    *ledger.Service
	repo      Repository
	txManager tx.Manager
	audit     audit.Recorder
}

// NewService creates a new checkout service.
func NewService(
	products product.Repository,
	ledgerSvc *ledger.Service,
	repo Repository,
	txManager tx.Manager,
	auditRec audit.Recorder,
) *Service {
	if auditRec == nil {
		auditRec = audit.Nop{}
	}
	return &Service{
		products:  products,
		ledger:    ledgerSvc,
		repo:      repo,
		txManager: txManager,
		audit:     auditRec,
	}
}

// CheckoutInput carries the payment details of a checkout attempt.
type CheckoutInput struct {
	PaymentMethod string
	PaidAmount    types.Money
	Cashier       string
}

// Checkout turns a cart into a recorded sale.
//
// All products referenced by the cart are locked in ascending id order,
// then price and stock are re-read under those locks: the cart's own
// totals and stock checks are advisory only and never trusted here.
// The cart itself is left untouched; the caller clears it only after
// Checkout returns successfully.
//
// Underpayment (paid < total) is accepted and yields zero change. That
// mirrors the long-standing POS behavior; reject it here only once
// product owners confirm it is unintended.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart, in CheckoutInput) (*Sale, error) {
	if c == nil || c.IsEmpty() {
		return nil, apperror.NewEmptyCart()
	}
	if in.PaymentMethod == "" {
		return nil, apperror.NewValidation("payment method is required")
	}
	if in.PaidAmount.IsNegative() {
		return nil, apperror.NewInvalidPayment("paid amount must not be negative")
	}
	if in.Cashier == "" {
		return nil, apperror.NewValidation("cashier is required")
	}

	var sale *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Canonical lock order: ascending product id across all callers.
		ids := c.ProductIDs()
		locked, err := s.products.GetForUpdate(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		// Authoritative stock check and total, under the locks.
		total := types.ZeroMoney()
		items := make([]SaleItem, 0, len(ids))
		for _, pid := range ids {
			p, ok := locked[pid]
			if !ok {
				return apperror.NewNotFound("product", pid)
			}
			qty := c.Quantity(pid)
			if p.StockQuantity < qty {
				return apperror.NewInsufficientStock(p.Name, qty, p.StockQuantity)
			}
			lineTotal := p.UnitPrice.Mul(types.MoneyFromInt(qty))
			items = append(items, SaleItem{
				ProductID: pid,
				Name:      p.Name,
				UnitPrice: p.UnitPrice,
				Quantity:  qty,
				LineTotal: lineTotal,
			})
			total = total.Add(lineTotal)
		}

		change := in.PaidAmount.Sub(total)
		if change.IsNegative() {
			change = types.ZeroMoney()
		}

		now := time.Now().UTC()
		sale = &Sale{
			ID:            id.New(),
			Reference:     refcode.NewSaleReference(now),
			Total:         total,
			PaymentMethod: in.PaymentMethod,
			PaidAmount:    in.PaidAmount,
			ChangeAmount:  change,
			Cashier:       in.Cashier,
			CreatedAt:     now,
		}

		if err := s.repo.Create(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		for i := range items {
			items[i].SaleID = sale.ID
		}
		if err := s.repo.SaveItems(ctx, sale.ID, items); err != nil {
			return fmt.Errorf("save sale items: %w", err)
		}

		// One OUT movement per line; joins this transaction.
		saleID := sale.ID
		for _, item := range items {
			if _, err := s.ledger.Apply(ctx, ledger.ApplyInput{
				ProductID:     item.ProductID,
				Type:          ledger.MovementOut,
				Quantity:      item.Quantity,
				ReferenceType: ledger.ReferenceSale,
				ReferenceID:   &saleID,
				Actor:         in.Cashier,
			}); err != nil {
				return err
			}
		}

		if err := s.audit.Record(ctx, audit.Entry{
			EntityType: "sale",
			EntityID:   sale.ID,
			Action:     audit.ActionCheckout,
			Actor:      in.Cashier,
			Payload: map[string]any{
				"reference":      sale.Reference,
				"total":          sale.Total,
				"payment_method": sale.PaymentMethod,
				"items":          len(items),
			},
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "checkout committed",
		"sale_id", sale.ID,
		"reference", sale.Reference,
		"total", sale.Total,
		"cashier", in.Cashier,
	)

	return sale, nil
}

// Get returns a sale header with its items.
func (s *Service) Get(ctx context.Context, saleID id.ID) (*Sale, []SaleItem, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.repo.GetItems(ctx, saleID)
	if err != nil {
		return nil, nil, fmt.Errorf("get sale items: %w", err)
	}
	return sale, items, nil
}
