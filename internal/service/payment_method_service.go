package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"coinvest/internal/apperr"
	"coinvest/internal/domain"
	"coinvest/internal/models"
	"coinvest/pkg/media"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

type PaymentMethodService struct {
	repo     paymentMethodStore
	uploader media.Uploader
	audit    auditStore
}

func NewPaymentMethodService(repo paymentMethodStore, uploader media.Uploader, audit auditStore) *PaymentMethodService {
	if uploader == nil {
		uploader = media.Disabled{}
	}
	return &PaymentMethodService{repo: repo, uploader: uploader, audit: audit}
}

func (s *PaymentMethodService) List(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error) {
	list, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

func (s *PaymentMethodService) Get(ctx context.Context, id uint) (*models.PaymentMethod, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrPaymentMethodNotFound)
	}
	return m, nil
}

// QRCode renders the method's address as a PNG.
func (s *PaymentMethodService) QRCode(ctx context.Context, id uint) ([]byte, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Address == "" {
		return nil, apperr.Validation("Payment method has no address")
	}
	png, err := qrcode.Encode(m.Address, qrcode.Medium, qrSize)
	if err != nil {
		return nil, internal(err)
	}
	return png, nil
}

// UploadQRImage stores an admin-supplied QR image and saves its URL on the method.
func (s *PaymentMethodService) UploadQRImage(ctx context.Context, actor Actor, id uint, file io.Reader) (*models.PaymentMethod, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.uploader.UploadImage(ctx, file, "payment-methods", fmt.Sprintf("qr-%d", m.ID))
	if err != nil {
		if errors.Is(err, media.ErrNotConfigured) {
			return nil, apperr.Validation("Image uploads are not configured")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "Upload failed", err)
	}
	m.QRCodeURL = url
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, internal(err)
	}
	recordAudit(ctx, s.audit, actor, "payment_method.qr_upload", "payment_method", m.ID, nil)
	return m, nil
}

type PaymentMethodInput struct {
	Name      string
	Type      string
	Currency  string
	Network   string
	Address   string
	Details   string
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	IsActive  *bool
}

func (in PaymentMethodInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Currency) == "" {
		return apperr.Validation("Name and currency are required")
	}
	switch strings.ToUpper(in.Type) {
	case domain.PaymentMethodCrypto, domain.PaymentMethodBank, domain.PaymentMethodGateway:
	default:
		return apperr.Validation("Type must be CRYPTO, BANK or GATEWAY")
	}
	if in.MinAmount.IsNegative() || in.MaxAmount.IsNegative() {
		return apperr.Validation("Amounts cannot be negative")
	}
	if in.MaxAmount.IsPositive() && in.MaxAmount.LessThan(in.MinAmount) {
		return apperr.Validation("Maximum amount must not be less than minimum amount")
	}
	return nil
}

func (in PaymentMethodInput) apply(m *models.PaymentMethod) {
	m.Name = strings.TrimSpace(in.Name)
	m.Type = strings.ToUpper(in.Type)
	m.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	m.Network = in.Network
	m.Address = strings.TrimSpace(in.Address)
	m.Details = in.Details
	m.MinAmount = in.MinAmount
	m.MaxAmount = in.MaxAmount
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
}

func (s *PaymentMethodService) Create(ctx context.Context, actor Actor, in PaymentMethodInput) (*models.PaymentMethod, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m := &models.PaymentMethod{IsActive: true}
	in.apply(m)
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, internal(err)
	}
	recordAudit(ctx, s.audit, actor, "payment_method.create", "payment_method", m.ID, map[string]interface{}{"name": m.Name})
	return m, nil
}

func (s *PaymentMethodService) Update(ctx context.Context, actor Actor, id uint, in PaymentMethodInput) (*models.PaymentMethod, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(m)
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, internal(err)
	}
	recordAudit(ctx, s.audit, actor, "payment_method.update", "payment_method", m.ID, nil)
	return m, nil
}

func (s *PaymentMethodService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrPaymentMethodNotFound)
	}
	recordAudit(ctx, s.audit, actor, "payment_method.delete", "payment_method", id, nil)
	return nil
}
