package handler

import (
	"net/http"
	"time"

	"coinvest/internal/middleware"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type MentorshipHandler struct {
	svc *service.MentorshipService
}

func NewMentorshipHandler(svc *service.MentorshipService) *MentorshipHandler {
	return &MentorshipHandler{svc: svc}
}

type ClassRequest struct {
	Title           string          `json:"title" binding:"required,max=200"`
	Description     string          `json:"description" binding:"max=5000"`
	MentorName      string          `json:"mentor_name" binding:"max=100"`
	ScheduledAt     time.Time       `json:"scheduled_at" binding:"required"`
	DurationMinutes int             `json:"duration_minutes" binding:"min=0"`
	MaxParticipants int             `json:"max_participants" binding:"min=0"`
	Price           decimal.Decimal `json:"price"`
	MeetingLink     string          `json:"meeting_link" binding:"omitempty,url"`
	Status          string          `json:"status"`
	IsActive        *bool           `json:"is_active"`
}

func (r ClassRequest) input() service.ClassInput {
	return service.ClassInput{
		Title:           r.Title,
		Description:     r.Description,
		MentorName:      r.MentorName,
		ScheduledAt:     r.ScheduledAt,
		DurationMinutes: r.DurationMinutes,
		MaxParticipants: r.MaxParticipants,
		Price:           r.Price,
		MeetingLink:     r.MeetingLink,
		Status:          r.Status,
		IsActive:        r.IsActive,
	}
}

type AttendanceRequest struct {
	Attended *bool `json:"attended" binding:"required"`
}

func (h *MentorshipHandler) ListClasses(c *gin.Context) {
	list, err := h.svc.ListClasses(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *MentorshipHandler) GetClass(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	class, err := h.svc.GetClass(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, class)
}

func (h *MentorshipHandler) Register(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	reg, err := h.svc.Register(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, reg, "Registered for class")
}

// MeetingLink returns the join link once the registration is paid.
func (h *MentorshipHandler) MeetingLink(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	access, err := h.svc.MeetingLink(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, access)
}

func (h *MentorshipHandler) MyRegistrations(c *gin.Context) {
	list, err := h.svc.MyRegistrations(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *MentorshipHandler) AdminListClasses(c *gin.Context) {
	list, err := h.svc.ListClasses(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *MentorshipHandler) CreateClass(c *gin.Context) {
	var req ClassRequest
	if !bindJSON(c, &req) {
		return
	}
	class, err := h.svc.CreateClass(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, class)
}

func (h *MentorshipHandler) UpdateClass(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ClassRequest
	if !bindJSON(c, &req) {
		return
	}
	class, err := h.svc.UpdateClass(c.Request.Context(), actorFrom(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, class)
}

func (h *MentorshipHandler) DeleteClass(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteClass(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Class deleted")
}

func (h *MentorshipHandler) Registrations(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Registrations(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *MentorshipHandler) ApprovePayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	reg, err := h.svc.ApprovePayment(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, reg, "Payment approved")
}

func (h *MentorshipHandler) MarkAttendance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req AttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	reg, err := h.svc.MarkAttendance(c.Request.Context(), actorFrom(c), id, *req.Attended)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, reg)
}
