package repository

import (
	"context"
	"time"

	"github.com/CodeWizard-AB/realtime-chat/internal/domain"
)

// RoomRepository defines storage for room records, the per-username room
// pointer and the room membership set. All keys are TTL-bound; nothing here is
// ever deleted explicitly in normal operation, the store evicts expired keys
// on its own.
type RoomRepository interface {
	// SaveRoom writes the room record under the given token with the given
	// TTL. A token that is already in use is silently overwritten; callers
	// own token uniqueness.
	SaveRoom(ctx context.Context, token string, room *domain.Room, ttl time.Duration) error

	// FindRoom reads the room record for the token.
	// Returns ErrNotFound when the record is absent.
	FindRoom(ctx context.Context, token string) (*domain.Room, error)

	// RoomTTL reads the remaining time-to-live of the room record.
	// Returns ErrNotFound when the record is absent.
	RoomTTL(ctx context.Context, token string) (time.Duration, error)

	// AddMember adds an opaque member id to the room's membership set.
	AddMember(ctx context.Context, token, memberID string) error

	// SyncMembersTTL sets the membership set's TTL to the given value, taken
	// from the live room record so the set's expiry tracks the room's actual
	// remaining lifetime.
	SyncMembersTTL(ctx context.Context, token string, ttl time.Duration) error

	// MembersTTL reads the remaining time-to-live of the membership set.
	// Returns ErrNotFound when the set is absent.
	MembersTTL(ctx context.Context, token string) (time.Duration, error)

	// DeleteMembers removes a membership set. Only the reconciliation worker
	// uses this, for sets whose parent room record is already gone.
	DeleteMembers(ctx context.Context, token string) error

	// MemberSetTokens lists the room tokens that currently have a membership
	// set, for the reconciliation sweep.
	MemberSetTokens(ctx context.Context) ([]string, error)

	// SetUserRoom writes the username -> room token pointer with the given
	// TTL. Its presence means the user owns a live room.
	SetUserRoom(ctx context.Context, username, token string, ttl time.Duration) error

	// FindUserRoom reads the room token owned by the username.
	// Returns ErrNotFound when the user owns no live room.
	FindUserRoom(ctx context.Context, username string) (string, error)
}
