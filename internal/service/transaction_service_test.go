package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"coinvest/config"
	"coinvest/internal/apperr"
	"coinvest/internal/domain"
	"coinvest/internal/models"
	"coinvest/internal/repository"
	"coinvest/pkg/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type txFixture struct {
	db       *memDB
	svc      *TransactionService
	audit    *fakeAudit
	notifier *fakeNotifier
	methods  fakeMethods
}

func newTxFixture(cfg config.SettlementConfig) *txFixture {
	db := newMemDB()
	f := &txFixture{
		db:       db,
		audit:    &fakeAudit{},
		notifier: &fakeNotifier{},
		methods:  fakeMethods{},
	}
	settings := fakeSettings{
		domain.SettingDepositMinAmount:    "10",
		domain.SettingWithdrawalMinAmount: "20",
	}
	f.svc = NewTransactionService(newMemLedger(db), &memTxStore{db: db}, f.methods, settings, f.audit, f.notifier, cfg)
	return f
}

func strict() config.SettlementConfig {
	return config.SettlementConfig{StrictTransitions: true, RecheckWithdrawalBalance: true}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pendingTx(userID uint, typ, amount string) models.Transaction {
	return models.Transaction{Reference: "REF-" + typ + amount, UserID: userID, Type: typ, Amount: dec(amount), Status: domain.TxStatusPending}
}

var admin = Actor{ID: 99, IP: "127.0.0.1"}

func TestCompleteDepositTwiceCreditsOnce(t *testing.T) {
	f := newTxFixture(strict())
	ctx := context.Background()
	u := f.db.addUser("1000")
	tx := f.db.addTx(pendingTx(u.ID, domain.TxTypeDeposit, "500"))

	got, err := f.svc.UpdateStatus(ctx, admin, tx.ID, domain.TxStatusCompleted, "ok")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusCompleted, got.Status)
	require.NotNil(t, got.ProcessedBy)
	assert.Equal(t, admin.ID, *got.ProcessedBy)
	assert.NotNil(t, got.ProcessedAt)

	got, err = f.svc.UpdateStatus(ctx, admin, tx.ID, domain.TxStatusCompleted, "again")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusCompleted, got.Status)

	after := f.db.user(u.ID)
	assert.True(t, after.Balance.Equal(dec("1500")), after.Balance.String())
	assert.True(t, after.TotalDeposits.Equal(dec("500")))
	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, []string{"transaction.status_update"}, f.audit.actions())
	assert.Equal(t, "ok", f.db.tx(tx.ID).Notes)
}

func TestConcurrentCompletionCreditsOnce(t *testing.T) {
	f := newTxFixture(strict())
	ctx := context.Background()
	u := f.db.addUser("0")
	tx := f.db.addTx(pendingTx(u.ID, domain.TxTypeDeposit, "250"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.UpdateStatus(ctx, admin, tx.ID, domain.TxStatusCompleted, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, f.db.user(u.ID).Balance.Equal(dec("250")))
}

func TestCompleteWithdrawalDebits(t *testing.T) {
	f := newTxFixture(strict())
	u := f.db.addUser("1000")
	tx := f.db.addTx(pendingTx(u.ID, domain.TxTypeWithdrawal, "300"))

	_, err := f.svc.UpdateStatus(context.Background(), admin, tx.ID, domain.TxStatusCompleted, "")
	require.NoError(t, err)

	after := f.db.user(u.ID)
	assert.True(t, after.Balance.Equal(dec("700")))
	assert.True(t, after.TotalWithdrawals.Equal(dec("300")))
}

func TestCompleteWithdrawalRechecksBalance(t *testing.T) {
	f := newTxFixture(strict())
	u := f.db.addUser("100")
	tx := f.db.addTx(pendingTx(u.ID, domain.TxTypeWithdrawal, "300"))

	_, err := f.svc.UpdateStatus(context.Background(), admin, tx.ID, domain.TxStatusCompleted, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "Insufficient balance", apperr.Message(err))

	assert.Equal(t, domain.TxStatusPending, f.db.tx(tx.ID).Status)
	assert.True(t, f.db.user(u.ID).Balance.Equal(dec("100")))
	assert.Zero(t, f.notifier.count())
}

func TestFailedCannotBeCompletedWhenStrict(t *testing.T) {
	f := newTxFixture(strict())
	ctx := context.Background()
	u := f.db.addUser("0")
	tx := f.db.addTx(pendingTx(u.ID, domain.TxTypeDeposit, "50"))

	_, err := f.svc.UpdateStatus(ctx, admin, tx.ID, domain.TxStatusFailed, "bad proof")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, admin, tx.ID, domain.TxStatusCompleted, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "Transaction already failed", apperr.Message(err))
	assert.True(t, f.db.user(u.ID).Balance.IsZero())
}

func TestLenientTransitionsOverwriteStatus(t *testing.T) {
	f := newTxFixture(config.SettlementConfig{})
	ctx := context.Background()
	u := f.db.addUser("0")
	tx := f.db.addTx(pendingTx(u.ID, domain.TxTypeDeposit, "50"))

	_, err := f.svc.UpdateStatus(ctx, admin, tx.ID, domain.TxStatusFailed, "")
	require.NoError(t, err)
	got, err := f.svc.UpdateStatus(ctx, admin, tx.ID, domain.TxStatusCompleted, "")
	require.NoError(t, err)

	assert.Equal(t, domain.TxStatusCompleted, got.Status)
	assert.True(t, f.db.user(u.ID).Balance.Equal(dec("50")))
}

func TestUpdateStatusValidation(t *testing.T) {
	f := newTxFixture(strict())
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, admin, 1, domain.TxStatusPending, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.UpdateStatus(ctx, admin, 12345, domain.TxStatusCompleted, "")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestCreateWithdrawalInsufficientBalance(t *testing.T) {
	f := newTxFixture(strict())
	u := f.db.addUser("1000")

	_, err := f.svc.CreateWithdrawal(context.Background(), u.ID, WithdrawalInput{Amount: dec("1500"), WalletAddress: "TXabc"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Insufficient balance", apperr.Message(err))

	list, _, _ := (&memTxStore{db: f.db}).List(context.Background(), repository.TransactionFilter{})
	assert.Empty(t, list)
}

func TestCreateWithdrawalLeavesBalance(t *testing.T) {
	f := newTxFixture(strict())
	u := f.db.addUser("1000")

	tx, err := f.svc.CreateWithdrawal(context.Background(), u.ID, WithdrawalInput{Amount: dec("400"), WalletAddress: " TXabc "})
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
	assert.Equal(t, "TXabc", tx.WalletAddress)
	assert.Contains(t, tx.Reference, "WDR-")
	assert.True(t, f.db.user(u.ID).Balance.Equal(dec("1000")))
}

func TestCreateDepositRules(t *testing.T) {
	f := newTxFixture(strict())
	ctx := context.Background()
	u := f.db.addUser("0")
	methodID, inactiveID := uint(1), uint(2)
	f.methods[methodID] = &models.PaymentMethod{ID: methodID, IsActive: true, MinAmount: dec("50"), MaxAmount: dec("1000")}
	f.methods[inactiveID] = &models.PaymentMethod{ID: inactiveID, IsActive: false}

	_, err := f.svc.CreateDeposit(ctx, u.ID, DepositInput{Amount: dec("0")})
	assert.ErrorIs(t, err, ErrAmountNotPositive)

	_, err = f.svc.CreateDeposit(ctx, u.ID, DepositInput{Amount: dec("5")})
	assert.Equal(t, "Minimum deposit amount is 10", apperr.Message(err))

	_, err = f.svc.CreateDeposit(ctx, u.ID, DepositInput{Amount: dec("20"), PaymentMethodID: &methodID})
	assert.Equal(t, "Amount is outside the payment method limits", apperr.Message(err))

	_, err = f.svc.CreateDeposit(ctx, u.ID, DepositInput{Amount: dec("100"), PaymentMethodID: &inactiveID})
	assert.Equal(t, "Payment method is not active", apperr.Message(err))

	missing := uint(77)
	_, err = f.svc.CreateDeposit(ctx, u.ID, DepositInput{Amount: dec("100"), PaymentMethodID: &missing})
	assert.ErrorIs(t, err, ErrPaymentMethodNotFound)

	tx, err := f.svc.CreateDeposit(ctx, u.ID, DepositInput{Amount: dec("100"), PaymentMethodID: &methodID, TxHash: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
	assert.Equal(t, domain.TxProviderManual, tx.Provider)
	assert.True(t, f.db.user(u.ID).Balance.IsZero())
}

func TestCancelOwnPendingOnly(t *testing.T) {
	f := newTxFixture(strict())
	ctx := context.Background()
	owner := f.db.addUser("0")
	other := f.db.addUser("0")
	tx := f.db.addTx(pendingTx(owner.ID, domain.TxTypeDeposit, "30"))

	_, err := f.svc.Cancel(ctx, Actor{ID: other.ID}, tx.ID)
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	got, err := f.svc.Cancel(ctx, Actor{ID: owner.ID}, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusCancelled, got.Status)

	_, err = f.svc.Cancel(ctx, Actor{ID: owner.ID}, tx.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestGetIsOwnerScoped(t *testing.T) {
	f := newTxFixture(strict())
	ctx := context.Background()
	owner := f.db.addUser("0")
	tx := f.db.addTx(pendingTx(owner.ID, domain.TxTypeDeposit, "30"))

	_, err := f.svc.Get(ctx, owner.ID+100, tx.ID)
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	got, err := f.svc.Get(ctx, owner.ID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
}

func TestGatewayDepositLifecycle(t *testing.T) {
	f := newTxFixture(strict())
	ctx := context.Background()
	f.svc.WithGateway(&payment.StubProvider{}, "http://localhost/api/webhooks/swapuzi")
	u := f.db.addUser("0")

	tx, err := f.svc.InitiateGatewayDeposit(ctx, u.ID, dec("100"))
	require.NoError(t, err)
	assert.Equal(t, "STUB", tx.Provider)
	assert.True(t, payment.IsStubRef(tx.ProviderRef))

	cb := &payment.Callback{Reference: tx.Reference, Status: payment.CallbackCompleted, ReceivedAmount: dec("100")}
	require.NoError(t, f.svc.HandleGatewayCallback(ctx, cb))
	require.NoError(t, f.svc.HandleGatewayCallback(ctx, cb))

	stored := f.db.tx(tx.ID)
	assert.Equal(t, domain.TxStatusCompleted, stored.Status)
	assert.Nil(t, stored.ProcessedBy)
	assert.True(t, f.db.user(u.ID).Balance.Equal(dec("100")))
}

func TestGatewayCallbackOutcomes(t *testing.T) {
	f := newTxFixture(strict())
	ctx := context.Background()
	u := f.db.addUser("0")

	underpaid := f.db.addTx(pendingTx(u.ID, domain.TxTypeDeposit, "100"))
	require.NoError(t, f.svc.HandleGatewayCallback(ctx, &payment.Callback{Reference: underpaid.Reference, Status: payment.CallbackCompleted, ReceivedAmount: dec("60")}))
	assert.Equal(t, domain.TxStatusFailed, f.db.tx(underpaid.ID).Status)
	assert.Contains(t, f.db.tx(underpaid.ID).Notes, "Underpaid")

	expired := f.db.addTx(models.Transaction{Reference: "EXP-1", UserID: u.ID, Type: domain.TxTypeDeposit, Amount: dec("10"), Status: domain.TxStatusPending})
	require.NoError(t, f.svc.HandleGatewayCallback(ctx, &payment.Callback{Reference: expired.Reference, Status: payment.CallbackExpired}))
	assert.Equal(t, domain.TxStatusFailed, f.db.tx(expired.ID).Status)

	pending := f.db.addTx(models.Transaction{Reference: "PEND-1", UserID: u.ID, Type: domain.TxTypeDeposit, Amount: dec("10"), Status: domain.TxStatusPending})
	require.NoError(t, f.svc.HandleGatewayCallback(ctx, &payment.Callback{Reference: pending.Reference, Status: "pending"}))
	assert.Equal(t, domain.TxStatusPending, f.db.tx(pending.ID).Status)

	assert.NoError(t, f.svc.HandleGatewayCallback(ctx, &payment.Callback{Reference: "nope", Status: payment.CallbackCompleted}))
	assert.True(t, f.db.user(u.ID).Balance.IsZero())
}

// providerWriteFails loses the provider reference write after the gateway has accepted the deposit.
type providerWriteFails struct {
	*memTxStore
}

func (providerWriteFails) UpdateProvider(ctx context.Context, id uint, providerRef, paymentURL string) error {
	return errors.New("connection reset")
}

func TestGatewayDepositSurvivesProviderWriteFailure(t *testing.T) {
	f := newTxFixture(strict())
	ctx := context.Background()
	settings := fakeSettings{domain.SettingDepositMinAmount: "10"}
	svc := NewTransactionService(newMemLedger(f.db), providerWriteFails{&memTxStore{db: f.db}}, f.methods, settings, f.audit, f.notifier, strict()).
		WithGateway(&payment.StubProvider{}, "http://localhost/api/webhooks/swapuzi")
	u := f.db.addUser("0")

	tx, err := svc.InitiateGatewayDeposit(ctx, u.ID, dec("100"))
	require.NoError(t, err)
	assert.True(t, payment.IsStubRef(tx.ProviderRef))
	assert.Equal(t, domain.TxStatusPending, f.db.tx(tx.ID).Status)

	cb := &payment.Callback{Reference: tx.Reference, Status: payment.CallbackCompleted, ReceivedAmount: dec("100")}
	require.NoError(t, svc.HandleGatewayCallback(ctx, cb))
	assert.Equal(t, domain.TxStatusCompleted, f.db.tx(tx.ID).Status)
	assert.True(t, f.db.user(u.ID).Balance.Equal(dec("100")))
}

func TestGatewayDepositUnavailable(t *testing.T) {
	f := newTxFixture(strict())
	_, err := f.svc.InitiateGatewayDeposit(context.Background(), 1, dec("100"))
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}
