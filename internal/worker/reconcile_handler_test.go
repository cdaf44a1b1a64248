package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CodeWizard-AB/realtime-chat/internal/repository"
	"github.com/CodeWizard-AB/realtime-chat/internal/repository/mocks"
	"github.com/CodeWizard-AB/realtime-chat/internal/tasks"
	"github.com/CodeWizard-AB/realtime-chat/internal/worker"
)

func reconcileTask(t *testing.T) *asynq.Task {
	t.Helper()
	payload, err := tasks.NewMembershipReconcileTask()
	require.NoError(t, err)
	return asynq.NewTask(tasks.TypeMembershipReconcile, payload)
}

func TestMembershipReconcile_Sweep(t *testing.T) {
	// Three membership sets: one orphaned (parent room evicted), one whose
	// TTL drifted past the room's, one healthy.
	rooms := new(mocks.RoomRepository)
	handler := worker.NewMembershipReconcileHandler(rooms, logrus.New())
	ctx := context.Background()

	rooms.On("MemberSetTokens", ctx).Return([]string{"orphan-room", "drifted-room", "healthy-room"}, nil).Once()

	rooms.On("RoomTTL", ctx, "orphan-room").Return(time.Duration(0), repository.ErrNotFound).Once()
	rooms.On("DeleteMembers", ctx, "orphan-room").Return(nil).Once()

	rooms.On("RoomTTL", ctx, "drifted-room").Return(300*time.Second, nil).Once()
	rooms.On("MembersTTL", ctx, "drifted-room").Return(600*time.Second, nil).Once()
	rooms.On("SyncMembersTTL", ctx, "drifted-room", 300*time.Second).Return(nil).Once()

	rooms.On("RoomTTL", ctx, "healthy-room").Return(300*time.Second, nil).Once()
	rooms.On("MembersTTL", ctx, "healthy-room").Return(200*time.Second, nil).Once()

	err := handler.ProcessTask(ctx, reconcileTask(t))

	require.NoError(t, err)
	rooms.AssertNotCalled(t, "SyncMembersTTL", mock.Anything, "healthy-room", mock.Anything)
	rooms.AssertExpectations(t)
}

func TestMembershipReconcile_ScanFailure(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	handler := worker.NewMembershipReconcileHandler(rooms, logrus.New())
	ctx := context.Background()

	rooms.On("MemberSetTokens", ctx).Return(nil, errors.New("connection refused")).Once()

	err := handler.ProcessTask(ctx, reconcileTask(t))

	assert.Error(t, err)
	rooms.AssertExpectations(t)
}

func TestMembershipReconcile_SkipsFailedSet(t *testing.T) {
	// One bad key must not stall the rest of the sweep, and the task itself
	// still succeeds.
	rooms := new(mocks.RoomRepository)
	handler := worker.NewMembershipReconcileHandler(rooms, logrus.New())
	ctx := context.Background()

	rooms.On("MemberSetTokens", ctx).Return([]string{"broken-room", "orphan-room"}, nil).Once()
	rooms.On("RoomTTL", ctx, "broken-room").Return(time.Duration(0), errors.New("i/o timeout")).Once()
	rooms.On("RoomTTL", ctx, "orphan-room").Return(time.Duration(0), repository.ErrNotFound).Once()
	rooms.On("DeleteMembers", ctx, "orphan-room").Return(nil).Once()

	err := handler.ProcessTask(ctx, reconcileTask(t))

	require.NoError(t, err)
	rooms.AssertExpectations(t)
}
