package service

import (
	"context"
	"strings"
	"time"

	"coinvest/config"
	"coinvest/internal/apperr"
	"coinvest/internal/auth"
	"coinvest/internal/domain"
	"coinvest/internal/logging"
	"coinvest/internal/models"
	"coinvest/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists      = apperr.Conflict("Email already registered")
	ErrInvalidCreds     = apperr.Unauthorized("Invalid email or password")
	ErrAccountDisabled  = apperr.Forbidden("Account is disabled")
	ErrOTPRequired      = apperr.Unauthorized("Two-factor code required")
	ErrOTPInvalid       = apperr.Unauthorized("Invalid two-factor code")
	ErrInvalidRefresh   = apperr.Unauthorized("Invalid refresh token")
	ErrInvalidReset     = apperr.Validation("Invalid or expired reset token")
	ErrPasswordTooShort = apperr.Validation("Password must be at least 8 characters")
)

const (
	minPasswordLength = 8
	resetTokenTTL     = time.Hour
	codeAttempts      = 5
)

type AuthService struct {
	cfg      *config.Config
	users    userStore
	resets   passwordResetStore
	mailer   Mailer
	audit    auditStore
	log      *zap.Logger
	newCode  func() (string, error)
	hashCost int
	now      func() time.Time
}

func NewAuthService(cfg *config.Config, users userStore, resets passwordResetStore, mailer Mailer, audit auditStore) *AuthService {
	return &AuthService{
		cfg:      cfg,
		users:    users,
		resets:   resets,
		mailer:   mailer,
		audit:    audit,
		log:      logging.Named("auth"),
		newCode:  repository.GenerateReferralCode,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// AuthResult is returned by every sign-in flow.
type AuthResult struct {
	User   *models.User    `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

type RegisterInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Phone        string
	Country      string
	ReferralCode string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with a fresh referral code. A referral code that resolves to an
// existing user links the new account to them; unknown codes are ignored.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperr.Validation("Email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !repository.IsNotFound(err) {
		return nil, internal(err)
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	code, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return nil, err
	}
	referrerID := s.resolveReferrer(ctx, in.ReferralCode)

	u := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Country:      strings.TrimSpace(in.Country),
		Role:         domain.RoleUser,
		IsActive:     true,
		ReferralCode: code,
	}
	if err := s.users.CreateWithReferral(ctx, u, referrerID); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, internal(err)
	}
	s.log.Info("user registered", zap.Uint("user_id", u.ID), zap.Bool("referred", referrerID != nil))
	return s.issue(u)
}

func (s *AuthService) resolveReferrer(ctx context.Context, code string) *uint {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	ref, err := s.users.GetByReferralCode(ctx, code)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.log.Warn("referral lookup failed", zap.String("code", code), zap.Error(err))
		}
		return nil
	}
	id := ref.ID
	return &id
}

func (s *AuthService) uniqueReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", internal(err)
		}
		exists, err := s.users.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", internal(err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperr.Internal(errors.New("could not allocate a unique referral code"))
}

func (s *AuthService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", internal(err)
	}
	return string(b), nil
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	pair, err := auth.GeneratePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, internal(err)
	}
	return &AuthResult{User: u, Tokens: pair}, nil
}

// Login checks the password and, when two-factor is enabled, the TOTP code.
func (s *AuthService) Login(ctx context.Context, email, password, otp string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, notFoundOr(err, ErrInvalidCreds)
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCreds
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	if u.TwoFactorEnabled {
		if otp == "" {
			return nil, ErrOTPRequired
		}
		if !auth.ValidateTOTP(otp, u.TwoFactorSecret) {
			return nil, ErrOTPInvalid
		}
	}
	s.touchLogin(ctx, u)
	return s.issue(u)
}

func (s *AuthService) touchLogin(ctx context.Context, u *models.User) {
	now := s.now()
	u.LastLoginAt = &now
	if err := s.users.UpdateFields(ctx, u.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		s.log.Warn("failed to record login", zap.Uint("user_id", u.ID), zap.Error(err))
	}
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	id, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrInvalidRefresh)
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return s.issue(u)
}

// ForgotPassword never reveals whether the email exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return internal(err)
	}
	reset := &models.PasswordReset{
		UserID:    u.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(resetTokenTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return internal(err)
	}
	link := strings.TrimRight(s.cfg.Server.FrontendURL, "/") + "/reset-password?token=" + reset.Token
	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, u.Email, u.FullName(), link); err != nil {
			s.log.Error("failed to send reset email", zap.Uint("user_id", u.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}
	reset, err := s.resets.GetByToken(ctx, token)
	if err != nil {
		return notFoundOr(err, ErrInvalidReset)
	}
	if !reset.Usable(s.now()) {
		return ErrInvalidReset
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.resets.Consume(ctx, reset, hash); err != nil {
		return notFoundOr(err, ErrInvalidReset)
	}
	recordAudit(ctx, s.audit, Actor{ID: reset.UserID}, "auth.password_reset", "user", reset.UserID, nil)
	return nil
}

// LoginWithGoogle signs in by Google ID, links an existing account with the same email, or
// creates a new one. isNew reports the last case.
func (s *AuthService) LoginWithGoogle(ctx context.Context, p *GoogleProfile, referralCode string) (*AuthResult, bool, error) {
	u, err := s.users.GetByGoogleID(ctx, p.ID)
	if err == nil {
		return s.finishGoogle(ctx, u, false)
	}
	if !repository.IsNotFound(err) {
		return nil, false, internal(err)
	}
	gid := p.ID
	email := normalizeEmail(p.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		existing.GoogleID = &gid
		if err := s.users.UpdateFields(ctx, existing.ID, map[string]interface{}{"google_id": gid}); err != nil {
			return nil, false, internal(err)
		}
		return s.finishGoogle(ctx, existing, false)
	}
	if !repository.IsNotFound(err) {
		return nil, false, internal(err)
	}

	code, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return nil, false, err
	}
	u = &models.User{
		Email:        email,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		GoogleID:     &gid,
		Role:         domain.RoleUser,
		IsActive:     true,
		ReferralCode: code,
	}
	if err := s.users.CreateWithReferral(ctx, u, s.resolveReferrer(ctx, referralCode)); err != nil {
		if repository.IsDuplicate(err) {
			return nil, false, ErrEmailExists
		}
		return nil, false, internal(err)
	}
	s.log.Info("user registered with google", zap.Uint("user_id", u.ID))
	return s.finishGoogle(ctx, u, true)
}

func (s *AuthService) finishGoogle(ctx context.Context, u *models.User, isNew bool) (*AuthResult, bool, error) {
	if !u.IsActive {
		return nil, false, ErrAccountDisabled
	}
	s.touchLogin(ctx, u)
	res, err := s.issue(u)
	return res, isNew, err
}

// Setup2FA generates and stores a new secret. Two-factor stays off until Enable2FA verifies a code.
func (s *AuthService) Setup2FA(ctx context.Context, userID uint) (*auth.TOTPEnrollment, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	if u.TwoFactorEnabled {
		return nil, apperr.Conflict("Two-factor authentication is already enabled")
	}
	enrollment, err := auth.GenerateTOTP(s.cfg.JWT.Issuer, u.Email)
	if err != nil {
		return nil, internal(err)
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"two_factor_secret": enrollment.Secret}); err != nil {
		return nil, internal(err)
	}
	return enrollment, nil
}

func (s *AuthService) Enable2FA(ctx context.Context, userID uint, code string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, ErrUserNotFound)
	}
	if u.TwoFactorSecret == "" {
		return apperr.Validation("Two-factor setup has not been started")
	}
	if !auth.ValidateTOTP(code, u.TwoFactorSecret) {
		return apperr.Validation("Invalid two-factor code")
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"two_factor_enabled": true}); err != nil {
		return internal(err)
	}
	recordAudit(ctx, s.audit, Actor{ID: userID}, "auth.2fa_enable", "user", userID, nil)
	return nil
}

func (s *AuthService) Disable2FA(ctx context.Context, userID uint, code string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, ErrUserNotFound)
	}
	if !u.TwoFactorEnabled {
		return apperr.Validation("Two-factor authentication is not enabled")
	}
	if !auth.ValidateTOTP(code, u.TwoFactorSecret) {
		return apperr.Validation("Invalid two-factor code")
	}
	err = s.users.UpdateFields(ctx, userID, map[string]interface{}{"two_factor_enabled": false, "two_factor_secret": ""})
	if err != nil {
		return internal(err)
	}
	recordAudit(ctx, s.audit, Actor{ID: userID}, "auth.2fa_disable", "user", userID, nil)
	return nil
}
