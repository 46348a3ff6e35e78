package service

import (
	"context"
	"fmt"
	"net/smtp"

	"coinvest/config"
	"coinvest/internal/logging"

	"go.uber.org/zap"
)

// Mailer sends transactional email.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

// EmailService sends mail over SMTP. Without an SMTP host it only logs what it would send.
type EmailService struct {
	cfg config.SMTPConfig
	log *zap.Logger
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg, log: logging.Named("email")}
}

func (s *EmailService) configured() bool {
	return s.cfg.Host != ""
}

func (s *EmailService) Send(ctx context.Context, to, subject, body string) error {
	if !s.configured() {
		s.log.Info("smtp not configured, email not sent", zap.String("to", to), zap.String("subject", subject))
		return nil
	}
	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=utf-8\r\n"+
		"\r\n"+
		"%s\r\n", s.cfg.From, to, subject, body))

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg) }()
	select {
	case err := <-done:
		if err != nil {
			s.log.Error("send failed", zap.String("to", to), zap.Error(err))
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *EmailService) SendPasswordReset(ctx context.Context, to, name, link string) error {
	if !s.configured() {
		s.log.Info("password reset link", zap.String("to", to), zap.String("link", link))
		return nil
	}
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password. The link below is valid for one hour.</p>
<p><a href="%s">Reset password</a></p>
<p>If you did not ask for this you can ignore this email.</p>`, name, link)
	return s.Send(ctx, to, "Reset your password", body)
}
