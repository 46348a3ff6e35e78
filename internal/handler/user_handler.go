package handler

import (
	"net/http"

	"coinvest/internal/middleware"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=32"`
	Country   *string `json:"country" binding:"omitempty,max=64"`
}

func (r UpdateProfileRequest) input() service.ProfileInput {
	return service.ProfileInput{FirstName: r.FirstName, LastName: r.LastName, Phone: r.Phone, Country: r.Country}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.svc.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, u)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, u, "Profile updated")
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), middleware.GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Password changed")
}

func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

// SetFCMToken stores the device token used for push notifications; an empty token disables push.
func (h *UserHandler) SetFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"max=512"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.SetFCMToken(c.Request.Context(), middleware.GetUserID(c), req.Token); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Token saved")
}
