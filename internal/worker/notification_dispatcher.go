package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/qasimops/intellimaintain/internal/application/port"
	"github.com/qasimops/intellimaintain/internal/domain/entity"
)

// NotificationDispatcher drains a queue of notifications into the
// repository. Emission is decoupled from the transition that produced it:
// persistence failures are logged and never reach the caller.
type NotificationDispatcher struct {
	repo   port.NotificationRepository
	logger *zap.Logger
	queue  chan *entity.Notification

	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewNotificationDispatcher creates a dispatcher with the given queue depth
func NewNotificationDispatcher(repo port.NotificationRepository, queueSize int, logger *zap.Logger) *NotificationDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &NotificationDispatcher{
		repo:   repo,
		logger: logger,
		queue:  make(chan *entity.Notification, queueSize),
	}
}

// Name returns the worker name
func (d *NotificationDispatcher) Name() string {
	return "notification-dispatcher"
}

// Enqueue offers a notification to the queue without blocking. It returns
// false when the queue is full or the dispatcher has stopped.
func (d *NotificationDispatcher) Enqueue(n *entity.Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.isRunning {
		return false
	}

	select {
	case d.queue <- n:
		return true
	default:
		return false
	}
}

// Start begins draining the queue
func (d *NotificationDispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isRunning {
		return fmt.Errorf("notification dispatcher is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.isRunning = true

	go d.drainLoop()
	return nil
}

// Stop drains remaining notifications and shuts down
func (d *NotificationDispatcher) Stop() {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return
	}
	d.isRunning = false
	d.mu.Unlock()

	d.cancel()
	<-d.done
}

func (d *NotificationDispatcher) drainLoop() {
	defer close(d.done)

	for {
		select {
		case n := <-d.queue:
			d.persist(n)
		case <-d.ctx.Done():
			// flush whatever is still queued before exiting
			for {
				select {
				case n := <-d.queue:
					d.persist(n)
				default:
					return
				}
			}
		}
	}
}

func (d *NotificationDispatcher) persist(n *entity.Notification) {
	if err := d.repo.Create(context.Background(), n); err != nil {
		d.logger.Error("Failed to persist notification",
			zap.Int64("user_id", n.UserID),
			zap.String("title", n.Title),
			zap.Error(err))
		return
	}
	d.logger.Debug("Notification delivered",
		zap.Int64("id", n.ID),
		zap.Int64("user_id", n.UserID),
		zap.String("title", n.Title))
}
