package service

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

const defaultNotificationLimit = 50

// NotifierService is the side channel for human readable error and success
// messages. It logs each message and keeps the most recent ones.
type NotifierService struct {
	logger *zap.Logger
	limit  int
	now    func() time.Time

	mu    sync.Mutex
	items []models.Notification
}

// NewNotifierService keeps up to limit notifications.
func NewNotifierService(logger *zap.Logger, limit int) *NotifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return &NotifierService{logger: logger, limit: limit, now: time.Now}
}

// Error records a failure from source.
func (n *NotifierService) Error(source string, err error) {
	if n == nil || err == nil {
		return
	}
	message := err.Error()
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	n.logger.Warn("notification", zap.String("source", source), zap.String("level", string(models.NotificationError)), zap.Error(err))
	n.push(models.Notification{Level: models.NotificationError, Source: source, Message: message})
}

// Success records a completed action.
func (n *NotifierService) Success(source, message string) {
	if n == nil {
		return
	}
	n.logger.Info("notification", zap.String("source", source), zap.String("level", string(models.NotificationSuccess)), zap.String("message", message))
	n.push(models.Notification{Level: models.NotificationSuccess, Source: source, Message: message})
}

func (n *NotifierService) push(item models.Notification) {
	item.CreatedAt = n.now().UTC()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
	if len(n.items) > n.limit {
		n.items = append([]models.Notification(nil), n.items[len(n.items)-n.limit:]...)
	}
}

// Recent returns notifications newest first.
func (n *NotifierService) Recent() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.Notification, len(n.items))
	for i, item := range n.items {
		out[len(n.items)-1-i] = item
	}
	return out
}

// Clear drops every notification.
func (n *NotifierService) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = nil
}
