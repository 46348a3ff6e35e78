package handler

import (
	"net/http"

	"coinvest/internal/middleware"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	list, err := h.svc.List(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Notification marked as read")
}
