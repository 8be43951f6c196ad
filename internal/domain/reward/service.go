package reward

import (
	"context"
	"fmt"
	"time"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/core/refcode"
	"farmapos/internal/core/tx"
	"farmapos/internal/domain/audit"
	"farmapos/internal/domain/loyalty"
	"farmapos/internal/domain/sales"
	"farmapos/pkg/logger"
)

// Service issues and redeems reward tokens.
//
// Issuance is idempotent per sale: retries after a timeout return the
// existing live token instead of minting a second one. Redemption is a
// single-use state transition enforced by a conditional update, so two
// concurrent attempts can never both succeed.
type Service struct {
	repo      Repository
	sales     sales.Repository
	loyalty   *loyalty.Service
	txManager tx.Manager
	audit     audit.Recorder

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewService creates a new reward service.
func NewService(
	repo Repository,
	salesRepo sales.Repository,
	loyaltySvc *loyalty.Service,
	txManager tx.Manager,
	auditRec audit.Recorder,
) *Service {
	if auditRec == nil {
		auditRec = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		sales:     salesRepo,
		loyalty:   loyaltySvc,
		txManager: txManager,
		audit:     auditRec,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// IssueForSale returns the live token for a sale, creating it on first
// call. The points value is computed from the sale's stored total, never
// from anything the client sent.
func (s *Service) IssueForSale(ctx context.Context, saleID id.ID) (*Token, error) {
	var token *Token
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		now := s.now()

		existing, err := s.repo.GetLiveBySale(ctx, saleID, now)
		if err == nil {
			token = existing
			return nil
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		sale, err := s.sales.GetByID(ctx, saleID)
		if err != nil {
			return err
		}

		points := PointsForTotal(sale.Total)
		if points <= 0 {
			return apperror.NewNoRewardEligible(
				fmt.Sprintf("No reward points for sales below ₱%d.", PointsStep))
		}

		token = &Token{
			ID:          id.New(),
			Code:        refcode.NewTokenCode(),
			SaleID:      sale.ID,
			PointsValue: points,
			ExpiresAt:   now.Add(TokenTTL),
			CreatedAt:   now,
		}
		if err := s.repo.Create(ctx, token); err != nil {
			// A concurrent issuance won the partial unique index race;
			// return its token to keep issuance idempotent.
			if apperror.IsCode(err, apperror.CodeDuplicate) {
				token, err = s.repo.GetLiveBySale(ctx, saleID, now)
				if apperror.IsNotFound(err) {
					// The slot is held by an expired, never-redeemed token.
					return apperror.NewTokenExpired()
				}
				return err
			}
			return fmt.Errorf("create token: %w", err)
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "reward_token",
			EntityID:   token.ID,
			Action:     audit.ActionIssue,
			Actor:      sale.Cashier,
			Payload: map[string]any{
				"sale_id": sale.ID,
				"points":  points,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "reward token issued",
		"token_id", token.ID,
		"sale_id", token.SaleID,
		"points", token.PointsValue,
	)

	return token, nil
}

// RedeemResult reports a successful redemption.
type RedeemResult struct {
	PointsEarned int64
	NewBalance   int64
	AccountID    id.ID
}

// Redeem redeems a token for the customer identified by customerRef,
// creating their loyalty account lazily if needed.
func (s *Service) Redeem(ctx context.Context, code, customerRef string) (*RedeemResult, error) {
	if customerRef == "" {
		return nil, apperror.NewValidation("customer reference is required")
	}
	return s.redeem(ctx, code, loyalty.CreditInput{CustomerRef: customerRef}, customerRef)
}

// RedeemForAccount is the staff-assisted variant: identical contract, but
// the credited account is chosen explicitly. Authorization for choosing an
// account is checked upstream.
func (s *Service) RedeemForAccount(ctx context.Context, code string, accountID id.ID) (*RedeemResult, error) {
	if id.IsNil(accountID) {
		return nil, apperror.NewValidation("account id is required")
	}
	return s.redeem(ctx, code, loyalty.CreditInput{AccountID: &accountID}, accountID.String())
}

func (s *Service) redeem(ctx context.Context, code string, credit loyalty.CreditInput, redeemer string) (*RedeemResult, error) {
	var result *RedeemResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		now := s.now()

		token, err := s.repo.GetByCode(ctx, code)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewTokenNotFound()
			}
			return err
		}
		if token.IsRedeemed {
			return apperror.NewAlreadyRedeemed()
		}
		if token.Expired(now) {
			return apperror.NewTokenExpired()
		}

		// The conditional update is the authority; the checks above only
		// produce friendlier errors on the common paths.
		won, err := s.repo.MarkRedeemed(ctx, code, redeemer, now)
		if err != nil {
			return fmt.Errorf("mark redeemed: %w", err)
		}
		if !won {
			return apperror.NewAlreadyRedeemed()
		}

		credit.Delta = token.PointsValue
		credit.Type = loyalty.TransactionQRScan
		credit.Reference = token.Code
		credit.Description = "Reward QR redemption"
		credited, err := s.loyalty.Credit(ctx, credit)
		if err != nil {
			return err
		}

		result = &RedeemResult{
			PointsEarned: token.PointsValue,
			NewBalance:   credited.NewBalance,
			AccountID:    credited.Account.ID,
		}

		return s.audit.Record(ctx, audit.Entry{
			EntityType: "reward_token",
			EntityID:   token.ID,
			Action:     audit.ActionRedeem,
			Actor:      redeemer,
			Payload: map[string]any{
				"code":        token.Code,
				"points":      token.PointsValue,
				"account_id":  credited.Account.ID,
				"new_balance": credited.NewBalance,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "reward token redeemed",
		"code", code,
		"points", result.PointsEarned,
		"account_id", result.AccountID,
	)

	return result, nil
}
