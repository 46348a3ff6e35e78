package service

import (
	"context"
	"strings"
	"time"

	"coinvest/internal/apperr"
	"coinvest/internal/domain"
	"coinvest/internal/logging"
	"coinvest/internal/models"
	"coinvest/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrClassNotFound        = apperr.NotFound("Class not found")
	ErrClassUnavailable     = apperr.Validation("Class is not available for registration")
	ErrClassFull            = apperr.Conflict("Class is fully booked")
	ErrAlreadyRegistered    = apperr.Conflict("Already registered for this class")
	ErrRegistrationNotFound = apperr.NotFound("Registration not found")
	ErrPaymentRequired      = apperr.Forbidden("Payment required to access meeting link")
)

type MentorshipService struct {
	repo     mentorshipStore
	audit    auditStore
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewMentorshipService(repo mentorshipStore, audit auditStore, notifier Notifier) *MentorshipService {
	return &MentorshipService{repo: repo, audit: audit, notifier: notifier, log: logging.Named("mentorship"), now: time.Now}
}

func (s *MentorshipService) ListClasses(ctx context.Context, activeOnly bool) ([]models.MentorshipClass, error) {
	list, err := s.repo.ListClasses(ctx, activeOnly)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

func (s *MentorshipService) GetClass(ctx context.Context, id uint) (*models.MentorshipClass, error) {
	c, err := s.repo.GetClass(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrClassNotFound)
	}
	return c, nil
}

// Register books a seat. The class row stays locked from the capacity check to the insert, so two
// users can never take the last seat.
func (s *MentorshipService) Register(ctx context.Context, userID, classID uint) (*models.ClassRegistration, error) {
	var reg *models.ClassRegistration
	err := s.repo.WithinTx(ctx, func(b repository.Bookings) error {
		class, err := b.LockClass(ctx, classID)
		if err != nil {
			return notFoundOr(err, ErrClassNotFound)
		}
		if !class.IsActive || class.Status != domain.ClassStatusScheduled {
			return ErrClassUnavailable
		}
		count, err := b.CountRegistrations(ctx, classID)
		if err != nil {
			return err
		}
		if count >= int64(class.MaxParticipants) {
			return ErrClassFull
		}
		if _, err := b.FindRegistration(ctx, classID, userID); err == nil {
			return ErrAlreadyRegistered
		} else if !repository.IsNotFound(err) {
			return err
		}
		status := domain.PaymentStatusPending
		if class.IsFree() {
			status = domain.PaymentStatusPaid
		}
		reg = &models.ClassRegistration{
			ClassID:       classID,
			UserID:        userID,
			PaymentStatus: status,
			RegisteredAt:  s.now(),
		}
		if err := b.CreateRegistration(ctx, reg); err != nil {
			return err
		}
		class.SetCounts(count + 1)
		reg.Class = class
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	s.log.Info("class registration", zap.Uint("class_id", classID), zap.Uint("user_id", userID), zap.String("payment_status", reg.PaymentStatus))
	return reg, nil
}

type MeetingAccess struct {
	ClassID     uint      `json:"class_id"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduled_at"`
	MeetingLink string    `json:"meeting_link"`
}

// MeetingLink is only revealed to registrants whose payment is PAID.
func (s *MentorshipService) MeetingLink(ctx context.Context, userID, classID uint) (*MeetingAccess, error) {
	reg, err := s.repo.FindRegistration(ctx, classID, userID)
	if err != nil {
		return nil, notFoundOr(err, ErrRegistrationNotFound)
	}
	if reg.PaymentStatus != domain.PaymentStatusPaid {
		return nil, ErrPaymentRequired
	}
	class, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return nil, notFoundOr(err, ErrClassNotFound)
	}
	return &MeetingAccess{ClassID: class.ID, Title: class.Title, ScheduledAt: class.ScheduledAt, MeetingLink: class.MeetingLink}, nil
}

func (s *MentorshipService) MyRegistrations(ctx context.Context, userID uint) ([]models.ClassRegistration, error) {
	list, err := s.repo.ListRegistrationsByUser(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

func (s *MentorshipService) Registrations(ctx context.Context, classID uint) ([]models.ClassRegistration, error) {
	if _, err := s.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListRegistrationsByClass(ctx, classID)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

func (s *MentorshipService) ApprovePayment(ctx context.Context, actor Actor, registrationID uint) (*models.ClassRegistration, error) {
	reg, err := s.repo.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, notFoundOr(err, ErrRegistrationNotFound)
	}
	if reg.PaymentStatus == domain.PaymentStatusPaid {
		return reg, nil
	}
	if err := s.repo.UpdateRegistration(ctx, registrationID, map[string]interface{}{"payment_status": domain.PaymentStatusPaid}); err != nil {
		return nil, internal(err)
	}
	reg.PaymentStatus = domain.PaymentStatusPaid
	recordAudit(ctx, s.audit, actor, "mentorship.approve_payment", "class_registration", reg.ID, map[string]interface{}{"class_id": reg.ClassID, "user_id": reg.UserID})

	title := "your class"
	if reg.Class != nil {
		title = reg.Class.Title
	}
	notifyQuietly(ctx, s.notifier, reg.UserID, domain.NotifyRegistrationPaid, "Registration confirmed",
		"Your payment for "+title+" was approved. The meeting link is now available.",
		map[string]interface{}{"class_id": reg.ClassID, "registration_id": reg.ID})
	return reg, nil
}

func (s *MentorshipService) MarkAttendance(ctx context.Context, actor Actor, registrationID uint, attended bool) (*models.ClassRegistration, error) {
	reg, err := s.repo.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, notFoundOr(err, ErrRegistrationNotFound)
	}
	if err := s.repo.UpdateRegistration(ctx, registrationID, map[string]interface{}{"attended": attended}); err != nil {
		return nil, internal(err)
	}
	reg.Attended = attended
	recordAudit(ctx, s.audit, actor, "mentorship.attendance", "class_registration", reg.ID, map[string]interface{}{"attended": attended})
	return reg, nil
}

type ClassInput struct {
	Title           string
	Description     string
	MentorName      string
	ScheduledAt     time.Time
	DurationMinutes int
	MaxParticipants int
	Price           decimal.Decimal
	MeetingLink     string
	Status          string
	IsActive        *bool
}

func (in ClassInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation("Title is required")
	}
	if in.ScheduledAt.IsZero() {
		return apperr.Validation("Scheduled time is required")
	}
	if in.MaxParticipants <= 0 {
		return apperr.Validation("Max participants must be greater than zero")
	}
	if in.Price.IsNegative() {
		return apperr.Validation("Price cannot be negative")
	}
	switch in.Status {
	case "", domain.ClassStatusScheduled, domain.ClassStatusCompleted, domain.ClassStatusCancelled:
	default:
		return apperr.Validation("Invalid class status")
	}
	return nil
}

func (in ClassInput) apply(c *models.MentorshipClass) {
	c.Title = strings.TrimSpace(in.Title)
	c.Description = in.Description
	c.MentorName = in.MentorName
	c.ScheduledAt = in.ScheduledAt
	if in.DurationMinutes > 0 {
		c.DurationMinutes = in.DurationMinutes
	}
	c.MaxParticipants = in.MaxParticipants
	c.Price = in.Price
	c.MeetingLink = in.MeetingLink
	if in.Status != "" {
		c.Status = in.Status
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

func (s *MentorshipService) CreateClass(ctx context.Context, actor Actor, in ClassInput) (*models.MentorshipClass, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &models.MentorshipClass{Status: domain.ClassStatusScheduled, DurationMinutes: 60, IsActive: true}
	in.apply(c)
	if err := s.repo.CreateClass(ctx, c); err != nil {
		return nil, internal(err)
	}
	c.SetCounts(0)
	recordAudit(ctx, s.audit, actor, "mentorship.class_create", "mentorship_class", c.ID, map[string]interface{}{"title": c.Title})
	return c, nil
}

func (s *MentorshipService) UpdateClass(ctx context.Context, actor Actor, id uint, in ClassInput) (*models.MentorshipClass, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c, err := s.repo.GetClass(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrClassNotFound)
	}
	in.apply(c)
	if err := s.repo.UpdateClass(ctx, c); err != nil {
		return nil, internal(err)
	}
	c.SetCounts(c.RegisteredCount)
	recordAudit(ctx, s.audit, actor, "mentorship.class_update", "mentorship_class", c.ID, nil)
	return c, nil
}

func (s *MentorshipService) DeleteClass(ctx context.Context, actor Actor, id uint) error {
	if err := s.repo.DeleteClass(ctx, id); err != nil {
		return notFoundOr(err, ErrClassNotFound)
	}
	recordAudit(ctx, s.audit, actor, "mentorship.class_delete", "mentorship_class", id, nil)
	return nil
}
