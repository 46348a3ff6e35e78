package handler

import (
	"net/http"
	"strconv"

	"coinvest/internal/repository"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminHandler serves the /api/admin routes that are not owned by a feature handler.
type AdminHandler struct {
	admin       *service.AdminService
	investments *service.InvestmentService
}

func NewAdminHandler(admin *service.AdminService, investments *service.InvestmentService) *AdminHandler {
	return &AdminHandler{admin: admin, investments: investments}
}

type AdminUpdateUserRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	Country   *string `json:"country" binding:"omitempty,max=100"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"is_active"`
}

type SetBalanceRequest struct {
	Balance *decimal.Decimal `json:"balance" binding:"required"`
}

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

type PlanRequest struct {
	Name            string          `json:"name" binding:"required,max=100"`
	Description     string          `json:"description" binding:"max=2000"`
	MinAmount       decimal.Decimal `json:"min_amount"`
	MaxAmount       decimal.Decimal `json:"max_amount"`
	DailyReturnRate decimal.Decimal `json:"daily_return_rate"`
	DurationDays    int             `json:"duration_days" binding:"required,min=1"`
	IsActive        *bool           `json:"is_active"`
}

func (r PlanRequest) input() service.PlanInput {
	return service.PlanInput{
		Name:            r.Name,
		Description:     r.Description,
		MinAmount:       r.MinAmount,
		MaxAmount:       r.MaxAmount,
		DailyReturnRate: r.DailyReturnRate,
		DurationDays:    r.DurationDays,
		IsActive:        r.IsActive,
	}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

// Signups returns daily registrations for ?days=30.
func (h *AdminHandler) Signups(c *gin.Context) {
	points, err := h.admin.Signups(c.Request.Context(), queryInt(c, "days", 30))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, points)
}

// ListUsers supports ?search=, ?role= and ?is_active=.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := pagination(c)
	f := repository.UserFilter{Search: c.Query("search"), Role: c.Query("role"), Page: page, Limit: limit}
	if v, err := strconv.ParseBool(c.Query("is_active")); err == nil {
		f.IsActive = &v
	}
	out, err := h.admin.ListUsers(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, out)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	u, err := h.admin.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, u)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req AdminUpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.admin.UpdateUser(c.Request.Context(), actorFrom(c), id, service.AdminUserInput{
		ProfileInput: service.ProfileInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
			Country:   req.Country,
		},
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, u)
}

func (h *AdminHandler) SetBalance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req SetBalanceRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.admin.SetBalance(c.Request.Context(), actorFrom(c), id, *req.Balance)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, u, "Balance updated")
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "User deleted")
}

func (h *AdminHandler) ListInvestments(c *gin.Context) {
	page, limit := pagination(c)
	out, err := h.investments.List(c.Request.Context(), repository.InvestmentFilter{
		UserID: queryUint(c, "user_id"),
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, out)
}

func (h *AdminHandler) ListPlans(c *gin.Context) {
	plans, err := h.investments.ListPlans(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, plans)
}

func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.investments.CreatePlan(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, plan)
}

func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req PlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.investments.UpdatePlan(c.Request.Context(), actorFrom(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, plan)
}

func (h *AdminHandler) DeletePlan(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.investments.DeletePlan(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Plan deleted")
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.admin.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, settings)
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	settings, err := h.admin.UpdateSettings(c.Request.Context(), actorFrom(c), req.Settings)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, settings, "Settings updated")
}

// AuditLogs supports ?action= filtering.
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	page, limit := pagination(c)
	out, err := h.admin.AuditLogs(c.Request.Context(), c.Query("action"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, out)
}
