package port

import (
	"context"
	"errors"

	"github.com/qasimops/intellimaintain/internal/domain/entity"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// RequestRepository defines persistence operations for MaintenanceRequest.
// Update replaces the aggregate by id and appends the given history entry
// in the same transaction; there is no way to edit or delete history.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.MaintenanceRequest) error
	GetByID(ctx context.Context, id int64) (*entity.MaintenanceRequest, error)
	Update(ctx context.Context, req *entity.MaintenanceRequest, history *entity.HistoryEntry) error
	List(ctx context.Context, limit, offset int) ([]*entity.MaintenanceRequest, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.MaintenanceRequest, error)
	History(ctx context.Context, requestID int64) ([]entity.HistoryEntry, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}
