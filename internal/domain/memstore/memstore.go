// Package memstore provides in-memory implementations of the repository
// interfaces with the same conditional-update semantics as the SQL
// versions. Service tests run against it with real transaction rollback:
// a failed transaction restores the pre-transaction state.
package memstore

import (
	"context"
	"sync"
	"time"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/domain/catalog/product"
	"farmapos/internal/domain/ledger"
	"farmapos/internal/domain/loyalty"
	"farmapos/internal/domain/reward"
	"farmapos/internal/domain/sales"
)

// DB holds all tables. Zero value is not usable; call New.
type DB struct {
	mu sync.Mutex

	products     map[id.ID]product.Product
	movements    []ledger.StockMovement
	sales        map[id.ID]sales.Sale
	saleItems    map[id.ID][]sales.SaleItem
	accounts     map[id.ID]loyalty.Account
	accountByRef map[string]id.ID
	pointsLedger []loyalty.LedgerEntry
	tokens       map[string]reward.Token
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		products:     make(map[id.ID]product.Product),
		sales:        make(map[id.ID]sales.Sale),
		saleItems:    make(map[id.ID][]sales.SaleItem),
		accounts:     make(map[id.ID]loyalty.Account),
		accountByRef: make(map[string]id.ID),
		tokens:       make(map[string]reward.Token),
	}
}

type snapshot struct {
	products     map[id.ID]product.Product
	movements    []ledger.StockMovement
	sales        map[id.ID]sales.Sale
	saleItems    map[id.ID][]sales.SaleItem
	accounts     map[id.ID]loyalty.Account
	accountByRef map[string]id.ID
	pointsLedger []loyalty.LedgerEntry
	tokens       map[string]reward.Token
}

func (db *DB) capture() snapshot {
	s := snapshot{
		products:     make(map[id.ID]product.Product, len(db.products)),
		movements:    append([]ledger.StockMovement(nil), db.movements...),
		sales:        make(map[id.ID]sales.Sale, len(db.sales)),
		saleItems:    make(map[id.ID][]sales.SaleItem, len(db.saleItems)),
		accounts:     make(map[id.ID]loyalty.Account, len(db.accounts)),
		accountByRef: make(map[string]id.ID, len(db.accountByRef)),
		pointsLedger: append([]loyalty.LedgerEntry(nil), db.pointsLedger...),
		tokens:       make(map[string]reward.Token, len(db.tokens)),
	}
	for k, v := range db.products {
		s.products[k] = v
	}
	for k, v := range db.sales {
		s.sales[k] = v
	}
	for k, v := range db.saleItems {
		s.saleItems[k] = append([]sales.SaleItem(nil), v...)
	}
	for k, v := range db.accounts {
		s.accounts[k] = v
	}
	for k, v := range db.accountByRef {
		s.accountByRef[k] = v
	}
	for k, v := range db.tokens {
		s.tokens[k] = v
	}
	return s
}

func (db *DB) restore(s snapshot) {
	db.products = s.products
	db.movements = s.movements
	db.sales = s.sales
	db.saleItems = s.saleItems
	db.accounts = s.accounts
	db.accountByRef = s.accountByRef
	db.pointsLedger = s.pointsLedger
	db.tokens = s.tokens
}

// --- Transaction manager ---

type txKey struct{}

// TxManager serializes transactions over the shared DB and rolls back
// all writes when the transaction function fails, like the real one.
// Serializing whole transactions is a coarser lock than row-level FOR
// UPDATE but admits the same set of outcomes.
type TxManager struct {
	db   *DB
	txMu sync.Mutex
}

// NewTxManager creates a transaction manager for db.
func NewTxManager(db *DB) *TxManager {
	return &TxManager{db: db}
}

// RunInTransaction implements tx.Manager. Nested calls join the
// enclosing transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.db.mu.Lock()
	before := m.db.capture()
	m.db.mu.Unlock()

	err := fn(context.WithValue(ctx, txKey{}, struct{}{}))
	if err != nil {
		m.db.mu.Lock()
		m.db.restore(before)
		m.db.mu.Unlock()
	}
	return err
}

// --- product.Repository ---

// ProductRepo implements product.Repository over the shared DB.
type ProductRepo struct{ db *DB }

// NewProductRepo creates the in-memory product repository.
func NewProductRepo(db *DB) *ProductRepo { return &ProductRepo{db: db} }

var _ product.Repository = (*ProductRepo)(nil)

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*product.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*product.Product, 0, len(r.db.products))
	for _, p := range r.db.products {
		cp := p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ProductRepo) GetForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[id.ID]*product.Product, len(ids))
	for _, pid := range ids {
		if p, ok := r.db.products[pid]; ok {
			cp := p
			out[pid] = &cp
		}
	}
	return out, nil
}

func (r *ProductRepo) UpdateStock(ctx context.Context, productID id.ID, newQuantity int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID)
	}
	p.StockQuantity = newQuantity
	p.UpdatedAt = time.Now().UTC()
	r.db.products[productID] = p
	return nil
}

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, exists := r.db.products[p.ID]; exists {
		return apperror.NewDuplicate("product", "id", p.ID.String())
	}
	r.db.products[p.ID] = *p
	return nil
}

// --- ledger.Repository ---

// MovementRepo implements ledger.Repository over the shared DB.
type MovementRepo struct{ db *DB }

// NewMovementRepo creates the in-memory movement repository.
func NewMovementRepo(db *DB) *MovementRepo { return &MovementRepo{db: db} }

var _ ledger.Repository = (*MovementRepo)(nil)

func (r *MovementRepo) CreateMovement(ctx context.Context, m *ledger.StockMovement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.movements = append(r.db.movements, *m)
	return nil
}

func (r *MovementRepo) ListByProduct(ctx context.Context, productID id.ID, limit, offset int) ([]ledger.StockMovement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []ledger.StockMovement
	for i := len(r.db.movements) - 1; i >= 0; i-- {
		if r.db.movements[i].ProductID == productID {
			out = append(out, r.db.movements[i])
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// --- sales.Repository ---

// SaleRepo implements sales.Repository over the shared DB.
type SaleRepo struct {
	db *DB

	// FailSaveItems injects a storage failure for atomicity tests.
	FailSaveItems error
}

// NewSaleRepo creates the in-memory sale repository.
func NewSaleRepo(db *DB) *SaleRepo { return &SaleRepo{db: db} }

var _ sales.Repository = (*SaleRepo)(nil)

func (r *SaleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.sales {
		if existing.Reference == sale.Reference {
			return apperror.NewDuplicate("sale", "reference", sale.Reference)
		}
	}
	r.db.sales[sale.ID] = *sale
	return nil
}

func (r *SaleRepo) SaveItems(ctx context.Context, saleID id.ID, items []sales.SaleItem) error {
	if r.FailSaveItems != nil {
		return r.FailSaveItems
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.saleItems[saleID] = append([]sales.SaleItem(nil), items...)
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	return &s, nil
}

func (r *SaleRepo) GetItems(ctx context.Context, saleID id.ID) ([]sales.SaleItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]sales.SaleItem(nil), r.db.saleItems[saleID]...), nil
}

// --- loyalty.Repository ---

// AccountRepo implements loyalty.Repository over the shared DB.
type AccountRepo struct{ db *DB }

// NewAccountRepo creates the in-memory loyalty repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

var _ loyalty.Repository = (*AccountRepo)(nil)

func (r *AccountRepo) GetByID(ctx context.Context, accountID id.ID) (*loyalty.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.accounts[accountID]
	if !ok {
		return nil, apperror.NewNotFound("loyalty account", accountID)
	}
	return &a, nil
}

func (r *AccountRepo) GetByCustomerRef(ctx context.Context, customerRef string) (*loyalty.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	accountID, ok := r.db.accountByRef[customerRef]
	if !ok {
		return nil, apperror.NewNotFound("loyalty account", customerRef)
	}
	a := r.db.accounts[accountID]
	return &a, nil
}

func (r *AccountRepo) Create(ctx context.Context, account *loyalty.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, exists := r.db.accountByRef[account.CustomerRef]; exists {
		return apperror.NewDuplicate("loyalty account", "customer_ref", account.CustomerRef)
	}
	r.db.accounts[account.ID] = *account
	r.db.accountByRef[account.CustomerRef] = account.ID
	return nil
}

func (r *AccountRepo) AddBalance(ctx context.Context, accountID id.ID, delta int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.accounts[accountID]
	if !ok || a.Balance+delta < 0 {
		return 0, apperror.NewConflict("insufficient points balance or unknown account")
	}
	a.Balance += delta
	r.db.accounts[accountID] = a
	return a.Balance, nil
}

func (r *AccountRepo) CreateLedgerEntry(ctx context.Context, entry *loyalty.LedgerEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.pointsLedger = append(r.db.pointsLedger, *entry)
	return nil
}

func (r *AccountRepo) ListLedger(ctx context.Context, accountID id.ID, limit, offset int) ([]loyalty.LedgerEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []loyalty.LedgerEntry
	for i := len(r.db.pointsLedger) - 1; i >= 0; i-- {
		if r.db.pointsLedger[i].AccountID == accountID {
			out = append(out, r.db.pointsLedger[i])
		}
	}
	return out, nil
}

// --- reward.Repository ---

// TokenRepo implements reward.Repository over the shared DB.
type TokenRepo struct{ db *DB }

// NewTokenRepo creates the in-memory token repository.
func NewTokenRepo(db *DB) *TokenRepo { return &TokenRepo{db: db} }

var _ reward.Repository = (*TokenRepo)(nil)

func (r *TokenRepo) Create(ctx context.Context, token *reward.Token) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	// Mirrors the partial unique index: one live token per sale.
	for _, existing := range r.db.tokens {
		if existing.SaleID == token.SaleID && !existing.IsRedeemed {
			return apperror.NewDuplicate("reward token", "source_sale_id", token.SaleID.String())
		}
	}
	if _, exists := r.db.tokens[token.Code]; exists {
		return apperror.NewDuplicate("reward token", "code", token.Code)
	}
	r.db.tokens[token.Code] = *token
	return nil
}

func (r *TokenRepo) GetLiveBySale(ctx context.Context, saleID id.ID, now time.Time) (*reward.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.tokens {
		if t.SaleID == saleID && !t.IsRedeemed && !now.After(t.ExpiresAt) {
			cp := t
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("reward token", saleID)
}

func (r *TokenRepo) GetByCode(ctx context.Context, code string) (*reward.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tokens[code]
	if !ok {
		return nil, apperror.NewNotFound("reward token", code)
	}
	return &t, nil
}

func (r *TokenRepo) MarkRedeemed(ctx context.Context, code string, redeemedBy string, redeemedAt time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tokens[code]
	if !ok || t.IsRedeemed {
		return false, nil
	}
	t.IsRedeemed = true
	t.RedeemedBy = &redeemedBy
	t.RedeemedAt = &redeemedAt
	r.db.tokens[code] = t
	return true, nil
}
