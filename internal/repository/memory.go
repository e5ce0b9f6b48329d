package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/qasimops/intellimaintain/internal/application/port"
	"github.com/qasimops/intellimaintain/internal/domain/entity"
)

// MemoryRequestRepository is an in-memory port.RequestRepository. It backs
// tests and keeps the same ordering contract as the SQLite implementation:
// history comes back newest first.
type MemoryRequestRepository struct {
	mu         sync.RWMutex
	seq        int64
	historySeq int64
	requests   map[int64]*entity.MaintenanceRequest
	history    map[int64][]entity.HistoryEntry
}

// NewMemoryRequestRepository creates an empty in-memory request store
func NewMemoryRequestRepository() *MemoryRequestRepository {
	return &MemoryRequestRepository{
		requests: make(map[int64]*entity.MaintenanceRequest),
		history:  make(map[int64][]entity.HistoryEntry),
	}
}

// Create stores a new request, assigning its id and request number
func (r *MemoryRequestRepository) Create(ctx context.Context, req *entity.MaintenanceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	req.ID = r.seq
	req.RequestNo = fmt.Sprintf("REQ-%04d", req.ID)

	for i := range req.History {
		r.historySeq++
		req.History[i].ID = r.historySeq
	}

	stored := cloneRequest(req)
	r.history[req.ID] = append([]entity.HistoryEntry(nil), stored.History...)
	stored.History = nil
	r.requests[req.ID] = stored
	return nil
}

// GetByID returns a copy of the request with history newest first
func (r *MemoryRequestRepository) GetByID(ctx context.Context, id int64) (*entity.MaintenanceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: request %d", port.ErrNotFound, id)
	}

	req := cloneRequest(stored)
	req.History = newestFirst(r.history[id])
	return req, nil
}

// Update replaces the aggregate and appends the history entry together
func (r *MemoryRequestRepository) Update(ctx context.Context, req *entity.MaintenanceRequest, history *entity.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.requests[req.ID]; !ok {
		return fmt.Errorf("%w: request %d", port.ErrNotFound, req.ID)
	}

	stored := cloneRequest(req)
	stored.History = nil
	r.requests[req.ID] = stored

	if history != nil {
		r.historySeq++
		history.ID = r.historySeq
		r.history[req.ID] = append(r.history[req.ID], *history)
	}
	return nil
}

// List returns requests ordered by id descending
func (r *MemoryRequestRepository) List(ctx context.Context, limit, offset int) ([]*entity.MaintenanceRequest, error) {
	return r.listFiltered(func(*entity.MaintenanceRequest) bool { return true }, limit, offset)
}

// ListByStatus returns requests in the given status, id descending
func (r *MemoryRequestRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.MaintenanceRequest, error) {
	return r.listFiltered(func(req *entity.MaintenanceRequest) bool { return req.Status == status }, limit, offset)
}

// History returns the audit trail of a request, newest first
func (r *MemoryRequestRepository) History(ctx context.Context, requestID int64) ([]entity.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.requests[requestID]; !ok {
		return nil, fmt.Errorf("%w: request %d", port.ErrNotFound, requestID)
	}
	return newestFirst(r.history[requestID]), nil
}

func (r *MemoryRequestRepository) listFiltered(keep func(*entity.MaintenanceRequest) bool, limit, offset int) ([]*entity.MaintenanceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.MaintenanceRequest
	for id := r.seq; id >= 1; id-- {
		stored, ok := r.requests[id]
		if !ok || !keep(stored) {
			continue
		}
		req := cloneRequest(stored)
		req.History = newestFirst(r.history[id])
		out = append(out, req)
	}

	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func cloneRequest(req *entity.MaintenanceRequest) *entity.MaintenanceRequest {
	clone := *req
	clone.MaterialsRequested = append([]entity.RequestMaterial(nil), req.MaterialsRequested...)
	clone.History = append([]entity.HistoryEntry(nil), req.History...)
	clone.AssessmentPhotos = append([]string(nil), req.AssessmentPhotos...)
	clone.CompletionPhotos = append([]string(nil), req.CompletionPhotos...)
	return &clone
}

func newestFirst(entries []entity.HistoryEntry) []entity.HistoryEntry {
	out := make([]entity.HistoryEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

// MemoryNotificationRepository is an in-memory port.NotificationRepository.
type MemoryNotificationRepository struct {
	mu            sync.RWMutex
	seq           int64
	notifications []*entity.Notification
}

// NewMemoryNotificationRepository creates an empty in-memory notification store
func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{}
}

// Create stores a notification, assigning its id
func (r *MemoryNotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	n.ID = r.seq
	clone := *n
	r.notifications = append(r.notifications, &clone)
	return nil
}

// ListByUser returns a user's notifications, newest first
func (r *MemoryNotificationRepository) ListByUser(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].UserID == userID {
			clone := *r.notifications[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

// MarkRead marks a notification as read
func (r *MemoryNotificationRepository) MarkRead(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return fmt.Errorf("%w: notification %d", port.ErrNotFound, id)
}
