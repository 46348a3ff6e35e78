package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"coinvest/config"
	"coinvest/internal/apperr"
	"coinvest/internal/domain"
	"coinvest/internal/logging"
	"coinvest/internal/metrics"
	"coinvest/internal/models"
	"coinvest/internal/repository"
	"coinvest/pkg/media"
	"coinvest/pkg/payment"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransactionService owns deposits and withdrawals and their settlement.
type TransactionService struct {
	ledger   repository.Ledger
	txs      transactionStore
	methods  paymentMethodReader
	settings settingReader
	audit    auditStore
	notifier Notifier
	cfg      config.SettlementConfig

	gateway    payment.Gateway
	webhookURL string
	uploader   media.Uploader

	log *zap.Logger
	now func() time.Time
}

func NewTransactionService(ledger repository.Ledger, txs transactionStore, methods paymentMethodReader, settings settingReader, audit auditStore, notifier Notifier, cfg config.SettlementConfig) *TransactionService {
	return &TransactionService{
		ledger:   ledger,
		txs:      txs,
		methods:  methods,
		settings: settings,
		audit:    audit,
		notifier: notifier,
		cfg:      cfg,
		uploader: media.Disabled{},
		log:      logging.Named("transactions"),
		now:      time.Now,
	}
}

// WithGateway enables automatic deposits. webhookURL is sent to the provider as the callback target.
func (s *TransactionService) WithGateway(gw payment.Gateway, webhookURL string) *TransactionService {
	s.gateway = gw
	s.webhookURL = webhookURL
	return s
}

// WithUploader enables deposit proof uploads.
func (s *TransactionService) WithUploader(u media.Uploader) *TransactionService {
	if u != nil {
		s.uploader = u
	}
	return s
}

// UploadProof stores a payment screenshot and returns its URL for use as a deposit's proof_url.
func (s *TransactionService) UploadProof(ctx context.Context, userID uint, file io.Reader) (string, error) {
	url, err := s.uploader.UploadImage(ctx, file, "deposit-proofs", fmt.Sprintf("%d-%s", userID, uuid.NewString()))
	if err != nil {
		if errors.Is(err, media.ErrNotConfigured) {
			return "", apperr.Validation("Image uploads are not configured")
		}
		return "", apperr.Wrap(apperr.KindInternal, "Upload failed", err)
	}
	return url, nil
}

func newReference(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:16])
}

type DepositInput struct {
	Amount          decimal.Decimal
	PaymentMethodID *uint
	TxHash          string
	ProofURL        string
	Notes           string
}

// CreateDeposit records a PENDING deposit; the balance moves only when it is settled.
func (s *TransactionService) CreateDeposit(ctx context.Context, userID uint, in DepositInput) (*models.Transaction, error) {
	if err := s.checkAmount(ctx, in.Amount, domain.SettingDepositMinAmount, "deposit"); err != nil {
		return nil, err
	}
	if err := s.checkMethod(ctx, in.PaymentMethodID, in.Amount); err != nil {
		return nil, err
	}
	t := &models.Transaction{
		Reference:       newReference("DEP"),
		UserID:          userID,
		Type:            domain.TxTypeDeposit,
		Amount:          in.Amount,
		Status:          domain.TxStatusPending,
		PaymentMethodID: in.PaymentMethodID,
		TxHash:          in.TxHash,
		ProofURL:        in.ProofURL,
		Notes:           in.Notes,
		Provider:        domain.TxProviderManual,
	}
	if err := s.ledger.CreateTransaction(ctx, t); err != nil {
		return nil, internal(err)
	}
	metrics.TransactionsCreated.WithLabelValues(t.Type, t.Provider).Inc()
	s.log.Info("deposit requested", zap.Uint("user_id", userID), zap.String("reference", t.Reference), zap.String("amount", t.Amount.String()))
	return t, nil
}

type WithdrawalInput struct {
	Amount          decimal.Decimal
	WalletAddress   string
	PaymentMethodID *uint
	Notes           string
}

// CreateWithdrawal records a PENDING withdrawal. The balance is checked but not debited until
// the withdrawal is completed.
func (s *TransactionService) CreateWithdrawal(ctx context.Context, userID uint, in WithdrawalInput) (*models.Transaction, error) {
	if err := s.checkAmount(ctx, in.Amount, domain.SettingWithdrawalMinAmount, "withdrawal"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.WalletAddress) == "" && in.PaymentMethodID == nil {
		return nil, apperr.Validation("Wallet address is required")
	}
	if err := s.checkMethod(ctx, in.PaymentMethodID, in.Amount); err != nil {
		return nil, err
	}
	t := &models.Transaction{
		Reference:       newReference("WDR"),
		UserID:          userID,
		Type:            domain.TxTypeWithdrawal,
		Amount:          in.Amount,
		Status:          domain.TxStatusPending,
		PaymentMethodID: in.PaymentMethodID,
		WalletAddress:   strings.TrimSpace(in.WalletAddress),
		Notes:           in.Notes,
		Provider:        domain.TxProviderManual,
	}
	err := s.ledger.WithinTx(ctx, func(l repository.Ledger) error {
		u, err := l.LockUser(ctx, userID)
		if err != nil {
			return notFoundOr(err, ErrUserNotFound)
		}
		if u.Balance.LessThan(in.Amount) {
			return ErrInsufficientBalance
		}
		return l.CreateTransaction(ctx, t)
	})
	if err != nil {
		return nil, internal(err)
	}
	metrics.TransactionsCreated.WithLabelValues(t.Type, t.Provider).Inc()
	s.log.Info("withdrawal requested", zap.Uint("user_id", userID), zap.String("reference", t.Reference), zap.String("amount", t.Amount.String()))
	return t, nil
}

func (s *TransactionService) checkAmount(ctx context.Context, amount decimal.Decimal, minKey, kind string) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	minimum := settingDecimal(ctx, s.settings, minKey, decimal.Zero)
	if amount.LessThan(minimum) {
		return apperr.Validationf("Minimum %s amount is %s", kind, minimum.String())
	}
	return nil
}

func (s *TransactionService) checkMethod(ctx context.Context, id *uint, amount decimal.Decimal) error {
	if id == nil {
		return nil
	}
	m, err := s.methods.GetByID(ctx, *id)
	if err != nil {
		return notFoundOr(err, ErrPaymentMethodNotFound)
	}
	if !m.IsActive {
		return apperr.Validation("Payment method is not active")
	}
	if !m.Accepts(amount) {
		return apperr.Validation("Amount is outside the payment method limits")
	}
	return nil
}

// UpdateStatus settles a transaction. The transaction and its owner are locked, the balance effect
// and the status are written in one database transaction, and completing an already COMPLETED
// transaction never moves the balance twice.
func (s *TransactionService) UpdateStatus(ctx context.Context, actor Actor, txID uint, target, notes string) (*models.Transaction, error) {
	if !models.IsTerminalStatus(target) {
		return nil, apperr.Validation("Status must be one of COMPLETED, FAILED, CANCELLED")
	}
	var (
		result   *models.Transaction
		previous string
		changed  bool
		applied  bool
	)
	err := s.ledger.WithinTx(ctx, func(l repository.Ledger) error {
		t, err := l.LockTransaction(ctx, txID)
		if err != nil {
			return notFoundOr(err, ErrTransactionNotFound)
		}
		result = t
		previous = t.Status
		if t.Status == domain.TxStatusCompleted && target == domain.TxStatusCompleted {
			return nil
		}
		if !t.IsPending() && s.cfg.StrictTransitions {
			return apperr.Conflictf("Transaction already %s", strings.ToLower(t.Status))
		}
		u, err := l.LockUser(ctx, t.UserID)
		if err != nil {
			return notFoundOr(err, ErrUserNotFound)
		}
		if target == domain.TxStatusCompleted {
			if t.Type == domain.TxTypeWithdrawal && s.cfg.RecheckWithdrawalBalance && u.Balance.LessThan(t.Amount) {
				return apperr.Conflict("Insufficient balance")
			}
			if err := l.AdjustBalance(ctx, t.UserID, t.CompletionEffect()); err != nil {
				return err
			}
			applied = true
		}
		now := s.now()
		t.Status = target
		if notes != "" {
			t.Notes = notes
		}
		t.ProcessedBy = actor.idPtr()
		t.ProcessedAt = &now
		if err := l.SaveTransaction(ctx, t); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	if !changed {
		return result, nil
	}

	metrics.SettlementsTotal.WithLabelValues(result.Type, result.Status, strconv.FormatBool(applied)).Inc()
	s.log.Info("transaction settled",
		zap.Uint("transaction_id", result.ID),
		zap.String("type", result.Type),
		zap.String("from", previous),
		zap.String("to", result.Status),
		zap.Bool("balance_applied", applied),
		zap.Uint("actor_id", actor.ID),
	)
	recordAudit(ctx, s.audit, actor, "transaction.status_update", "transaction", result.ID, map[string]interface{}{
		"from":            previous,
		"to":              result.Status,
		"amount":          result.Amount.String(),
		"balance_applied": applied,
	})
	notifyQuietly(ctx, s.notifier, result.UserID, domain.NotifyTransactionSettled,
		settlementTitle(result), settlementBody(result),
		map[string]interface{}{"transaction_id": result.ID, "reference": result.Reference, "status": result.Status})
	return result, nil
}

func settlementTitle(t *models.Transaction) string {
	kind := "Deposit"
	if t.Type == domain.TxTypeWithdrawal {
		kind = "Withdrawal"
	}
	return kind + " " + strings.ToLower(t.Status)
}

func settlementBody(t *models.Transaction) string {
	return "Your " + strings.ToLower(t.Type) + " of " + t.Amount.String() + " (" + t.Reference + ") is now " + strings.ToLower(t.Status) + "."
}

// Cancel lets the owner withdraw their own PENDING request.
func (s *TransactionService) Cancel(ctx context.Context, actor Actor, txID uint) (*models.Transaction, error) {
	t, err := s.txs.GetByID(ctx, txID)
	if err != nil {
		return nil, notFoundOr(err, ErrTransactionNotFound)
	}
	if t.UserID != actor.ID {
		return nil, ErrTransactionNotFound
	}
	if !t.IsPending() {
		return nil, apperr.Conflict("Only pending transactions can be cancelled")
	}
	return s.UpdateStatus(ctx, actor, txID, domain.TxStatusCancelled, "Cancelled by user")
}

// Get returns a transaction owned by userID. Other users' transactions read as not found.
func (s *TransactionService) Get(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	t, err := s.AdminGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

func (s *TransactionService) AdminGet(ctx context.Context, id uint) (*models.Transaction, error) {
	t, err := s.txs.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrTransactionNotFound)
	}
	return t, nil
}

func (s *TransactionService) List(ctx context.Context, f repository.TransactionFilter) (*Page[models.Transaction], error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	if f.Type != "" && f.Type != domain.TxTypeDeposit && f.Type != domain.TxTypeWithdrawal {
		return nil, apperr.Validation("Invalid transaction type")
	}
	items, total, err := s.txs.List(ctx, f)
	if err != nil {
		return nil, internal(err)
	}
	return &Page[models.Transaction]{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

var ErrGatewayUnavailable = apperr.Validation("Gateway deposits are not available")

// InitiateGatewayDeposit creates a PENDING deposit and opens a payment page with the gateway.
// The deposit settles through HandleGatewayCallback.
func (s *TransactionService) InitiateGatewayDeposit(ctx context.Context, userID uint, amount decimal.Decimal) (*models.Transaction, error) {
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}
	if err := s.checkAmount(ctx, amount, domain.SettingDepositMinAmount, "deposit"); err != nil {
		return nil, err
	}
	t := &models.Transaction{
		Reference: newReference("DEP"),
		UserID:    userID,
		Type:      domain.TxTypeDeposit,
		Amount:    amount,
		Status:    domain.TxStatusPending,
		Provider:  s.gateway.Name(),
	}
	if err := s.ledger.CreateTransaction(ctx, t); err != nil {
		return nil, internal(err)
	}
	metrics.TransactionsCreated.WithLabelValues(t.Type, t.Provider).Inc()

	resp, err := s.gateway.InitiateDeposit(ctx, payment.DepositRequest{
		Reference:  t.Reference,
		Amount:     amount,
		Currency:   "USDT",
		WebhookURL: s.webhookURL,
		Notes:      "Deposit " + t.Reference,
	})
	if err != nil {
		s.log.Error("gateway deposit failed", zap.String("reference", t.Reference), zap.Error(err))
		if _, ferr := s.UpdateStatus(ctx, Actor{}, t.ID, domain.TxStatusFailed, "Gateway error"); ferr != nil {
			s.log.Error("failed to mark deposit failed", zap.String("reference", t.Reference), zap.Error(ferr))
		}
		return nil, apperr.Wrap(apperr.KindInternal, "Payment gateway unavailable", err)
	}
	// The payment page is live at this point; callbacks settle by reference even if this write fails.
	if err := s.txs.UpdateProvider(ctx, t.ID, resp.ProviderRef, resp.PageURL); err != nil {
		s.log.Error("failed to store provider reference", zap.String("reference", t.Reference), zap.Error(err))
	}
	t.ProviderRef = resp.ProviderRef
	t.PaymentURL = resp.PageURL
	return t, nil
}

// HandleGatewayCallback settles a gateway deposit. Unknown references and transactions that are
// no longer PENDING are acknowledged without changes so the provider stops retrying.
func (s *TransactionService) HandleGatewayCallback(ctx context.Context, cb *payment.Callback) error {
	log := s.log.With(zap.String("reference", cb.Reference), zap.String("status", cb.Status))
	t, err := s.txs.GetByReference(ctx, cb.Reference)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Warn("callback for unknown transaction")
			return nil
		}
		return internal(err)
	}
	if !t.IsPending() {
		log.Info("callback for settled transaction ignored", zap.String("current", t.Status))
		return nil
	}

	var target, notes string
	switch {
	case cb.Status == payment.CallbackCompleted:
		if cb.ReceivedAmount.IsPositive() && cb.ReceivedAmount.LessThan(t.Amount) {
			target = domain.TxStatusFailed
			notes = "Underpaid: received " + cb.ReceivedAmount.String() + " of " + t.Amount.String()
		} else {
			target = domain.TxStatusCompleted
			notes = "Confirmed by " + t.Provider
		}
	case cb.IsFailure():
		target = domain.TxStatusFailed
		notes = "Gateway status: " + cb.Status
	default:
		log.Debug("non-terminal callback ignored")
		return nil
	}

	_, err = s.UpdateStatus(ctx, Actor{}, t.ID, target, notes)
	if err != nil && apperr.KindOf(err) == apperr.KindConflict {
		log.Info("callback raced with another settlement", zap.Error(err))
		return nil
	}
	return err
}
