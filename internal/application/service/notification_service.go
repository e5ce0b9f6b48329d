package service

import (
	"context"
	"time"

	"github.com/qasimops/intellimaintain/internal/application/port"
	"github.com/qasimops/intellimaintain/internal/domain/entity"
	"github.com/qasimops/intellimaintain/internal/domain/workflow"
)

// Emitter enqueues a notification for asynchronous persistence. Enqueue
// must never block; it returns false when the notification was dropped.
type Emitter interface {
	Enqueue(n *entity.Notification) bool
}

// RoleDirectory resolves a workflow role to the user acting in it.
type RoleDirectory map[workflow.Role]int64

// NotificationService emits role-addressed notifications and serves the
// per-user feed. Emission is best effort: a full queue or unknown role is
// logged and otherwise ignored.
type NotificationService interface {
	port.Notifier
	Feed(ctx context.Context, userID int64) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

type notificationServiceImpl struct {
	repo      port.NotificationRepository
	emitter   Emitter
	directory RoleDirectory
	logger    Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	repo port.NotificationRepository,
	emitter Emitter,
	directory RoleDirectory,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		repo:      repo,
		emitter:   emitter,
		directory: directory,
		logger:    logger,
	}
}

// NotifyRole emits an in-app notification to the user acting in the role
func (s *notificationServiceImpl) NotifyRole(ctx context.Context, role workflow.Role, title, body string) {
	userID, ok := s.directory[role]
	if !ok {
		s.logger.Error("No recipient configured for role", "role", role.String(), "title", title)
		return
	}

	n := &entity.Notification{
		UserID:    userID,
		Type:      entity.NotificationTypeInfo,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if !s.emitter.Enqueue(n) {
		s.logger.Error("Notification queue full, dropping",
			"user_id", userID, "title", title)
	}
}

// Feed returns the notifications for a user, newest first
func (s *notificationServiceImpl) Feed(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

// MarkRead marks a notification as read
func (s *notificationServiceImpl) MarkRead(ctx context.Context, id int64) error {
	return s.repo.MarkRead(ctx, id)
}
