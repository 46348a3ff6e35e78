package service

import (
	"context"
	"encoding/json"
	"time"

	"coinvest/internal/apperr"
	"coinvest/internal/logging"
	"coinvest/internal/models"

	"go.uber.org/zap"
)

// Notifier delivers a user-facing notification. Services depend on this rather than on
// NotificationService so they can be tested without a database.
type Notifier interface {
	Notify(ctx context.Context, userID uint, notifType, title, body string, data map[string]interface{}) error
}

// Pusher is a realtime channel to connected clients (the websocket hub).
type Pusher interface {
	SendToUser(userID uint, payload interface{})
	Broadcast(payload interface{})
}

type pushSender interface {
	SendToUser(ctx context.Context, fcmToken string, notifType, title, body string, data map[string]interface{}) error
}

type NotificationService struct {
	repo  notificationStore
	users userReader
	fcm   pushSender
	hub   Pusher
	log   *zap.Logger
}

// NewNotificationService wires persistence with the optional FCM and websocket channels; fcm and
// hub may be nil.
func NewNotificationService(repo notificationStore, users userReader, fcm *FCMService, hub Pusher) *NotificationService {
	s := &NotificationService{repo: repo, users: users, hub: hub, log: logging.Named("notify")}
	if fcm != nil {
		s.fcm = fcm
	}
	return s
}

// NotificationEvent is the websocket payload for a stored notification.
type NotificationEvent struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification"`
}

// Notify persists the notification, then pushes it over FCM and the websocket hub. Push failures
// are logged only.
func (s *NotificationService) Notify(ctx context.Context, userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	n := &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return internal(err)
	}
	if s.hub != nil {
		s.hub.SendToUser(userID, NotificationEvent{Type: "notification", Notification: n})
	}
	s.sendPush(ctx, userID, notifType, title, body, data)
	return nil
}

func (s *NotificationService) sendPush(ctx context.Context, userID uint, notifType, title, body string, data map[string]interface{}) {
	if s.fcm == nil || s.users == nil {
		return
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u.FCMToken == "" {
		return
	}
	if err := s.fcm.SendToUser(ctx, u.FCMToken, notifType, title, body, data); err != nil {
		s.log.Warn("push failed", zap.Uint("user_id", userID), zap.String("type", notifType), zap.Error(err))
	}
}

type NotificationList struct {
	Items  []models.Notification `json:"items"`
	Unread int64                 `json:"unread"`
	Page   int                   `json:"page"`
	Limit  int                   `json:"limit"`
}

func (s *NotificationService) List(ctx context.Context, userID uint, page, limit int) (*NotificationList, error) {
	page, limit = normalizePage(page, limit)
	items, err := s.repo.ListByUserID(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, internal(err)
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	return &NotificationList{Items: items, Unread: unread, Page: page, Limit: limit}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return notFoundOr(err, apperr.NotFound("Notification not found"))
	}
	return nil
}

// notifyQuietly sends after a commit. The request context's cancellation is dropped so a client
// disconnect does not lose the notification; failures are logged.
func notifyQuietly(ctx context.Context, n Notifier, userID uint, notifType, title, body string, data map[string]interface{}) {
	if n == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := n.Notify(ctx, userID, notifType, title, body, data); err != nil {
		logging.Named("notify").Warn("notify failed", zap.Uint("user_id", userID), zap.String("type", notifType), zap.Error(err))
	}
}
