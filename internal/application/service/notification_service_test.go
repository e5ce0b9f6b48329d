package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qasimops/intellimaintain/internal/domain/entity"
	"github.com/qasimops/intellimaintain/internal/domain/workflow"
	"github.com/qasimops/intellimaintain/internal/repository"
)

// syncEmitter persists directly, standing in for the async dispatcher
type syncEmitter struct {
	repo *repository.MemoryNotificationRepository
	full bool
}

func (e *syncEmitter) Enqueue(n *entity.Notification) bool {
	if e.full {
		return false
	}
	_ = e.repo.Create(context.Background(), n)
	return true
}

func testDirectory() RoleDirectory {
	return RoleDirectory{
		workflow.RoleReceiver: 1,
		workflow.RoleTech:     2,
		workflow.RoleManager:  3,
		workflow.RoleStore:    4,
		workflow.RoleQA:       5,
	}
}

func TestNotifyRole(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	svc := NewNotificationService(repo, &syncEmitter{repo: repo}, testDirectory(), nopLogger{})

	svc.NotifyRole(context.Background(), workflow.RoleTech, "Job Assigned", "Unit 101 needs a survey")

	feed, err := svc.Feed(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Job Assigned", feed[0].Title)
	assert.Equal(t, entity.NotificationTypeInfo, feed[0].Type)
	assert.False(t, feed[0].Read)
}

func TestNotifyRole_UnknownRoleIsDropped(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	svc := NewNotificationService(repo, &syncEmitter{repo: repo}, RoleDirectory{}, nopLogger{})

	// must not panic or error: emission is best effort
	svc.NotifyRole(context.Background(), workflow.RoleTech, "Job Assigned", "body")

	feed, err := svc.Feed(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestNotifyRole_FullQueueIsDropped(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	svc := NewNotificationService(repo, &syncEmitter{repo: repo, full: true}, testDirectory(), nopLogger{})

	svc.NotifyRole(context.Background(), workflow.RoleManager, "Approval Required", "body")

	feed, err := svc.Feed(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestMarkRead(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	svc := NewNotificationService(repo, &syncEmitter{repo: repo}, testDirectory(), nopLogger{})

	svc.NotifyRole(context.Background(), workflow.RoleQA, "Audit Requested", "body")

	feed, err := svc.Feed(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, feed, 1)

	require.NoError(t, svc.MarkRead(context.Background(), feed[0].ID))

	feed, err = svc.Feed(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, feed[0].Read)
}

func TestFeed_IsPerUserNewestFirst(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	svc := NewNotificationService(repo, &syncEmitter{repo: repo}, testDirectory(), nopLogger{})
	ctx := context.Background()

	svc.NotifyRole(ctx, workflow.RoleTech, "First", "a")
	svc.NotifyRole(ctx, workflow.RoleTech, "Second", "b")
	svc.NotifyRole(ctx, workflow.RoleManager, "Other user", "c")

	feed, err := svc.Feed(ctx, 2)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "Second", feed[0].Title)
	assert.Equal(t, "First", feed[1].Title)
}
