package loyalty

import (
	"context"
	"fmt"
	"time"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/core/tx"
	"farmapos/pkg/logger"
)

// Service mutates loyalty balances. Every balance change appends a ledger
// entry and updates the cached balance in the same transaction.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new loyalty service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// CreditInput describes one points credit.
type CreditInput struct {
	// Exactly one of AccountID or CustomerRef identifies the account;
	// CustomerRef creates the account lazily if unknown.
	AccountID   *id.ID
	CustomerRef string

	Delta       int64
	Type        TransactionType
	Reference   string
	Description string
}

// CreditResult reports the credited account and its new balance.
type CreditResult struct {
	Account    *Account
	NewBalance int64
}

// Credit applies a points delta. For a previously-unknown CustomerRef the
// account is created lazily in the same transaction.
func (s *Service) Credit(ctx context.Context, in CreditInput) (*CreditResult, error) {
	if in.Delta == 0 {
		return nil, apperror.NewValidation("points delta must not be zero")
	}
	if !in.Type.Valid() {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown transaction type %q", in.Type))
	}
	if in.AccountID == nil && in.CustomerRef == "" {
		return nil, apperror.NewValidation("account id or customer reference is required")
	}

	var result *CreditResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		account, err := s.resolveAccount(ctx, in)
		if err != nil {
			return err
		}

		newBalance, err := s.repo.AddBalance(ctx, account.ID, in.Delta)
		if err != nil {
			return fmt.Errorf("add balance: %w", err)
		}

		entry := &LedgerEntry{
			ID:          id.New(),
			AccountID:   account.ID,
			Delta:       in.Delta,
			Type:        in.Type,
			Reference:   in.Reference,
			Description: in.Description,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.repo.CreateLedgerEntry(ctx, entry); err != nil {
			return fmt.Errorf("create ledger entry: %w", err)
		}

		account.Balance = newBalance
		result = &CreditResult{Account: account, NewBalance: newBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "loyalty points credited",
		"account_id", result.Account.ID,
		"delta", in.Delta,
		"type", in.Type,
		"new_balance", result.NewBalance,
	)

	return result, nil
}

func (s *Service) resolveAccount(ctx context.Context, in CreditInput) (*Account, error) {
	if in.AccountID != nil {
		return s.repo.GetByID(ctx, *in.AccountID)
	}

	account, err := s.repo.GetByCustomerRef(ctx, in.CustomerRef)
	if err == nil {
		return account, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	// Lazy creation on first redemption for an unknown customer.
	account = NewAccount(in.CustomerRef)
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	logger.Info(ctx, "loyalty account created", "account_id", account.ID, "customer_ref", in.CustomerRef)
	return account, nil
}

// GetAccount returns an account by id.
func (s *Service) GetAccount(ctx context.Context, accountID id.ID) (*Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

// History returns an account's points history, newest first.
func (s *Service) History(ctx context.Context, accountID id.ID, limit, offset int) ([]LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.ListLedger(ctx, accountID, limit, offset)
}
