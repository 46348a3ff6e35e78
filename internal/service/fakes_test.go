package service

import (
	"context"
	"sync"
	"time"

	"coinvest/internal/models"
	"coinvest/internal/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errNotFound = errors.Wrap(gorm.ErrRecordNotFound, "fake")

// memDB backs the in-memory ledger. WithinTx holds mu for the whole callback, standing in for row
// locks, and restores a snapshot when the callback fails.
type memDB struct {
	mu          sync.Mutex
	nextID      uint
	users       map[uint]models.User
	txs         map[uint]models.Transaction
	plans       map[uint]models.InvestmentPlan
	investments map[uint]models.Investment
}

func newMemDB() *memDB {
	return &memDB{
		users:       map[uint]models.User{},
		txs:         map[uint]models.Transaction{},
		plans:       map[uint]models.InvestmentPlan{},
		investments: map[uint]models.Investment{},
	}
}

func (m *memDB) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memDB) addUser(balance string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := models.User{ID: m.id(), Email: "user@example.com", FirstName: "Test", Role: "USER", IsActive: true, Balance: decimal.RequireFromString(balance)}
	m.users[u.ID] = u
	return &u
}

func (m *memDB) addTx(t models.Transaction) *models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	m.txs[t.ID] = t
	return &t
}

func (m *memDB) addPlan(p models.InvestmentPlan) *models.InvestmentPlan {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.plans[p.ID] = p
	return &p
}

func (m *memDB) user(id uint) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memDB) tx(id uint) models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txs[id]
}

type memSnapshot struct {
	nextID      uint
	users       map[uint]models.User
	txs         map[uint]models.Transaction
	investments map[uint]models.Investment
}

func (m *memDB) snapshot() memSnapshot {
	s := memSnapshot{nextID: m.nextID, users: map[uint]models.User{}, txs: map[uint]models.Transaction{}, investments: map[uint]models.Investment{}}
	for k, v := range m.users {
		s.users[k] = v
	}
	for k, v := range m.txs {
		s.txs[k] = v
	}
	for k, v := range m.investments {
		s.investments[k] = v
	}
	return s
}

func (m *memDB) restore(s memSnapshot) {
	m.nextID, m.users, m.txs, m.investments = s.nextID, s.users, s.txs, s.investments
}

// memLedger implements repository.Ledger; inTx is true for the ledger handed to WithinTx callbacks.
type memLedger struct {
	db   *memDB
	inTx bool
}

func newMemLedger(db *memDB) *memLedger { return &memLedger{db: db} }

func (l *memLedger) lock() func() {
	if l.inTx {
		return func() {}
	}
	l.db.mu.Lock()
	return l.db.mu.Unlock
}

func (l *memLedger) WithinTx(ctx context.Context, fn func(repository.Ledger) error) error {
	if l.inTx {
		return fn(l)
	}
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	snap := l.db.snapshot()
	if err := fn(&memLedger{db: l.db, inTx: true}); err != nil {
		l.db.restore(snap)
		return err
	}
	return nil
}

func (l *memLedger) LockUser(ctx context.Context, id uint) (*models.User, error) {
	defer l.lock()()
	u, ok := l.db.users[id]
	if !ok {
		return nil, errNotFound
	}
	return &u, nil
}

func (l *memLedger) AdjustBalance(ctx context.Context, userID uint, adj models.BalanceAdjustment) error {
	defer l.lock()()
	u, ok := l.db.users[userID]
	if !ok {
		return errNotFound
	}
	adj.Apply(&u)
	l.db.users[userID] = u
	return nil
}

func (l *memLedger) SetBalance(ctx context.Context, userID uint, balance decimal.Decimal) error {
	defer l.lock()()
	u, ok := l.db.users[userID]
	if !ok {
		return errNotFound
	}
	u.Balance = balance
	l.db.users[userID] = u
	return nil
}

func (l *memLedger) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	defer l.lock()()
	t.ID = l.db.id()
	t.CreatedAt = time.Now()
	l.db.txs[t.ID] = *t
	return nil
}

func (l *memLedger) LockTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	defer l.lock()()
	t, ok := l.db.txs[id]
	if !ok {
		return nil, errNotFound
	}
	return &t, nil
}

func (l *memLedger) SaveTransaction(ctx context.Context, t *models.Transaction) error {
	defer l.lock()()
	l.db.txs[t.ID] = *t
	return nil
}

func (l *memLedger) GetPlan(ctx context.Context, id uint) (*models.InvestmentPlan, error) {
	defer l.lock()()
	p, ok := l.db.plans[id]
	if !ok {
		return nil, errNotFound
	}
	return &p, nil
}

func (l *memLedger) CreateInvestment(ctx context.Context, inv *models.Investment) error {
	defer l.lock()()
	inv.ID = l.db.id()
	l.db.investments[inv.ID] = *inv
	return nil
}

// memTxStore reads the same memDB as the ledger.
type memTxStore struct {
	db *memDB
}

func (s *memTxStore) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.txs[id]
	if !ok {
		return nil, errNotFound
	}
	return &t, nil
}

func (s *memTxStore) GetByReference(ctx context.Context, ref string) (*models.Transaction, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, t := range s.db.txs {
		if t.Reference == ref {
			return &t, nil
		}
	}
	return nil, errNotFound
}

func (s *memTxStore) UpdateProvider(ctx context.Context, id uint, providerRef, paymentURL string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.txs[id]
	if !ok {
		return errNotFound
	}
	t.ProviderRef, t.PaymentURL = providerRef, paymentURL
	s.db.txs[id] = t
	return nil
}

func (s *memTxStore) List(ctx context.Context, f repository.TransactionFilter) ([]models.Transaction, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Transaction
	for _, t := range s.db.txs {
		if (f.UserID == 0 || t.UserID == f.UserID) && (f.Status == "" || t.Status == f.Status) && (f.Type == "" || t.Type == f.Type) {
			out = append(out, t)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memTxStore) Recent(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	list, _, err := s.List(ctx, repository.TransactionFilter{UserID: userID})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, err
}

type fakeSettings map[string]string

func (f fakeSettings) Get(ctx context.Context, key string) (string, error) {
	v, ok := f[key]
	if !ok {
		return "", errNotFound
	}
	return v, nil
}

func (f fakeSettings) Set(ctx context.Context, key, value string) error {
	f[key] = value
	return nil
}

func (f fakeSettings) GetAll(ctx context.Context) ([]models.SystemSetting, error) {
	var out []models.SystemSetting
	for k, v := range f {
		out = append(out, models.SystemSetting{Key: k, Value: v})
	}
	return out, nil
}

type fakeMethods map[uint]*models.PaymentMethod

func (f fakeMethods) GetByID(ctx context.Context, id uint) (*models.PaymentMethod, error) {
	m, ok := f[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *m
	return &cp, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (f *fakeAudit) Create(ctx context.Context, e *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeAudit) List(ctx context.Context, action string, page, limit int) ([]models.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, int64(len(f.entries)), nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Action
	}
	return out
}

type sentNotification struct {
	UserID uint
	Type   string
	Title  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeNotifier) Notify(ctx context.Context, userID uint, notifType, title, body string, data map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{UserID: userID, Type: notifType, Title: title})
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
