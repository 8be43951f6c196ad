// Package reward_repo provides PostgreSQL storage for reward tokens.
package reward_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/domain/reward"
	"farmapos/internal/infrastructure/storage/postgres"
)

const tokensTable = "reward_tokens"

var tokenColumns = []string{
	"id", "code", "source_sale_id", "points_value", "is_redeemed",
	"redeemed_by", "redeemed_at", "expires_at", "created_at",
}

// TokenRepo implements reward.Repository.
type TokenRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ reward.Repository = (*TokenRepo)(nil)

// NewTokenRepo creates a new reward token repository.
func NewTokenRepo(txManager *postgres.TxManager) *TokenRepo {
	return &TokenRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts an unredeemed token. The partial unique index on
// (source_sale_id) WHERE NOT is_redeemed turns a lost issuance race into
// a duplicate error; callers re-read the winning token.
func (r *TokenRepo) Create(ctx context.Context, token *reward.Token) error {
	q := r.builder.Insert(tokensTable).
		Columns(tokenColumns...).
		Values(token.ID, token.Code, token.SaleID, token.PointsValue,
			token.IsRedeemed, token.RedeemedBy, token.RedeemedAt,
			token.ExpiresAt, token.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("reward token", "source_sale_id", token.SaleID.String())
		}
		return fmt.Errorf("insert reward token: %w", err)
	}
	return nil
}

// GetLiveBySale returns the unredeemed, unexpired token for a sale.
func (r *TokenRepo) GetLiveBySale(ctx context.Context, saleID id.ID, now time.Time) (*reward.Token, error) {
	q := r.builder.Select(tokenColumns...).
		From(tokensTable).
		Where(squirrel.Eq{"source_sale_id": saleID, "is_redeemed": false}).
		Where(squirrel.GtOrEq{"expires_at": now}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t reward.Token
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("reward token", saleID)
		}
		return nil, fmt.Errorf("select reward token: %w", err)
	}
	return &t, nil
}

// GetByCode returns a token by its code.
func (r *TokenRepo) GetByCode(ctx context.Context, code string) (*reward.Token, error) {
	q := r.builder.Select(tokenColumns...).
		From(tokensTable).
		Where(squirrel.Eq{"code": code}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t reward.Token
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("reward token", code)
		}
		return nil, fmt.Errorf("select reward token: %w", err)
	}
	return &t, nil
}

// MarkRedeemed flips the token to redeemed only if it is still live.
// Exactly one concurrent caller observes a row change; everyone else
// gets false and must treat the token as already redeemed.
func (r *TokenRepo) MarkRedeemed(ctx context.Context, code string, redeemedBy string, redeemedAt time.Time) (bool, error) {
	q := r.builder.Update(tokensTable).
		Set("is_redeemed", true).
		Set("redeemed_by", redeemedBy).
		Set("redeemed_at", redeemedAt).
		Where(squirrel.Eq{"code": code, "is_redeemed": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update reward token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
