package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/CodeWizard-AB/realtime-chat/internal/domain"
	"github.com/CodeWizard-AB/realtime-chat/internal/metrics"
	"github.com/CodeWizard-AB/realtime-chat/internal/repository"
)

// usernameLockTTL bounds how long a stalled create attempt can block the
// username. It is the only timeout in the protocol.
const usernameLockTTL = 5 * time.Second

// AvatarUploader is the avatar upload gateway: raw image bytes in, stable URL
// out. Treated as a black box; a failure aborts the create.
type AvatarUploader interface {
	Upload(ctx context.Context, data []byte, fileName string) (string, error)
}

// RoomService owns the room lifecycle. It is the only component that writes
// room records and membership sets; the lock and quota repositories gate
// access to it on create.
type RoomService struct {
	rooms    repository.RoomRepository
	locks    repository.LockRepository
	quota    repository.QuotaRepository
	uploader AvatarUploader
}

// NewRoomService creates a RoomService.
func NewRoomService(rooms repository.RoomRepository, locks repository.LockRepository, quota repository.QuotaRepository, uploader AvatarUploader) *RoomService {
	if rooms == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if locks == nil {
		panic("LockRepository cannot be nil for RoomService")
	}
	if quota == nil {
		panic("QuotaRepository cannot be nil for RoomService")
	}
	if uploader == nil {
		panic("AvatarUploader cannot be nil for RoomService")
	}
	return &RoomService{
		rooms:    rooms,
		locks:    locks,
		quota:    quota,
		uploader: uploader,
	}
}

// CreateRoomInput carries a validated create request. DurationSeconds is the
// requested room lifetime; Address identifies the origin for rate limiting.
type CreateRoomInput struct {
	Username        string
	RoomToken       string
	DurationSeconds int
	Type            domain.RoomType
	Avatar          []byte
	Address         string
}

// CreateRoomResult is returned on a successful create.
type CreateRoomResult struct {
	RoomToken string
	OwnerID   string
	ExpiresAt int64
}

// CreateRoom runs the create protocol: reserved-name check, username lock,
// one-room-per-username check, per-address quota, avatar upload, then the room
// record and the username pointer, both TTL-bound to the requested duration.
// The lock is released on every exit path once acquired; the room record is
// written only after the upload succeeds, so a failed create leaves no
// partial room behind.
//
// The caller supplies the room token and owns its uniqueness; a colliding
// token silently overwrites the existing room record.
func (s *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (*CreateRoomResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"username":   in.Username,
		"room_token": in.RoomToken,
	})

	if err := validateCreateInput(in); err != nil {
		metrics.CreateRejections.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	if domain.IsReservedUsername(in.Username) {
		logCtx.Warn("Create rejected: reserved username")
		metrics.CreateRejections.WithLabelValues("reserved_username").Inc()
		return nil, ErrReservedUsername
	}

	// Mutual exclusion around the check-then-act window below. Failing to
	// reach the store here fails the whole create; never proceed unlocked.
	granted, err := s.locks.AcquireUsernameLock(ctx, in.Username, usernameLockTTL)
	if err != nil {
		logCtx.WithError(err).Error("Failed to acquire username lock")
		metrics.CreateRejections.WithLabelValues("store_unavailable").Inc()
		return nil, ErrStoreUnavailable
	}
	if !granted {
		logCtx.Warn("Create rejected: username lock held by another attempt")
		metrics.CreateRejections.WithLabelValues("username_busy").Inc()
		return nil, ErrUsernameBusy
	}
	defer func() {
		// The 5s TTL reclaims the lock if this release is lost to a crash.
		if err := s.locks.ReleaseUsernameLock(ctx, in.Username); err != nil {
			logCtx.WithError(err).Warn("Failed to release username lock; TTL will reclaim it")
		}
	}()

	// The pointer's presence proves the user owns a live room. Its absence is
	// necessary but not sufficient, hence the lock above.
	_, err = s.rooms.FindUserRoom(ctx, in.Username)
	if err == nil {
		logCtx.Warn("Create rejected: user already owns an active room")
		metrics.CreateRejections.WithLabelValues("active_room_exists").Inc()
		return nil, ErrActiveRoomExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logCtx.WithError(err).Error("Failed to check user room pointer")
		metrics.CreateRejections.WithLabelValues("store_unavailable").Inc()
		return nil, ErrStoreUnavailable
	}

	duration := time.Duration(in.DurationSeconds) * time.Second
	count, err := s.quota.BumpCreateCount(ctx, in.Address, duration)
	if err != nil {
		logCtx.WithError(err).Error("Failed to bump create count")
		metrics.CreateRejections.WithLabelValues("store_unavailable").Inc()
		return nil, ErrStoreUnavailable
	}
	if count > 1 {
		logCtx.WithField("count", count).Warn("Create rejected: rate limited")
		metrics.CreateRejections.WithLabelValues("rate_limited").Inc()
		return nil, ErrRateLimited
	}

	// Hard dependency: no room is written unless the avatar is hosted.
	fileName := fmt.Sprintf("%s-%d.png", in.Username, time.Now().UnixMilli())
	avatarURL, err := s.uploader.Upload(ctx, in.Avatar, fileName)
	if err != nil {
		logCtx.WithError(err).Error("Avatar upload failed, aborting create")
		metrics.CreateRejections.WithLabelValues("upload_failed").Inc()
		return nil, ErrUploadFailed
	}

	ownerID, err := domain.NewID(domain.OwnerIDLength)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate owner id")
		return nil, ErrInternalServer
	}

	now := time.Now().Unix()
	room := &domain.Room{
		OwnerID:   ownerID,
		Username:  in.Username,
		Type:      in.Type,
		AvatarURL: avatarURL,
		CreatedAt: now,
		ExpiresAt: now + int64(in.DurationSeconds),
	}
	if err := s.rooms.SaveRoom(ctx, in.RoomToken, room, duration); err != nil {
		logCtx.WithError(err).Error("Failed to save room record")
		metrics.CreateRejections.WithLabelValues("store_unavailable").Inc()
		return nil, ErrStoreUnavailable
	}
	if err := s.rooms.SetUserRoom(ctx, in.Username, in.RoomToken, duration); err != nil {
		logCtx.WithError(err).Error("Failed to set user room pointer")
		metrics.CreateRejections.WithLabelValues("store_unavailable").Inc()
		return nil, ErrStoreUnavailable
	}

	logCtx.WithFields(logrus.Fields{
		"owner_id":   ownerID,
		"expires_at": room.ExpiresAt,
	}).Info("Room created successfully")
	metrics.RoomsCreated.Inc()

	return &CreateRoomResult{
		RoomToken: in.RoomToken,
		OwnerID:   ownerID,
		ExpiresAt: room.ExpiresAt,
	}, nil
}

// JoinRoomInput carries a validated join request.
type JoinRoomInput struct {
	RoomToken string
	Username  string
}

// JoinRoomResult is returned on a successful join.
type JoinRoomResult struct {
	RoomToken string
	MemberID  string
	Username  string
	ExpiresAt int64
}

// JoinRoom adds a member to a live room. Display names are not unique among
// members and no lock is taken; only creation has uniqueness semantics. The
// membership set's TTL is resynchronized from the room record's remaining TTL
// so it tracks the room's actual lifetime rather than being recomputed.
func (s *RoomService) JoinRoom(ctx context.Context, in JoinRoomInput) (*JoinRoomResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"username":   in.Username,
		"room_token": in.RoomToken,
	})

	room, err := s.findLiveRoom(ctx, in.RoomToken, logCtx, metrics.JoinRejections)
	if err != nil {
		return nil, err
	}

	memberID, err := domain.NewID(domain.MemberIDLength)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate member id")
		return nil, ErrInternalServer
	}
	if err := s.rooms.AddMember(ctx, in.RoomToken, memberID); err != nil {
		logCtx.WithError(err).Error("Failed to add member to room")
		metrics.JoinRejections.WithLabelValues("store_unavailable").Inc()
		return nil, ErrStoreUnavailable
	}

	// Pin the membership set to the room's remaining lifetime. The room can
	// vanish between the read above and here; treat that as expiry and let
	// the reconciliation sweep collect the orphaned set.
	ttl, err := s.rooms.RoomTTL(ctx, in.RoomToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logCtx.Warn("Room evicted mid-join")
			metrics.JoinRejections.WithLabelValues("room_expired").Inc()
			return nil, ErrRoomExpired
		}
		logCtx.WithError(err).Error("Failed to read room TTL")
		metrics.JoinRejections.WithLabelValues("store_unavailable").Inc()
		return nil, ErrStoreUnavailable
	}
	if err := s.rooms.SyncMembersTTL(ctx, in.RoomToken, ttl); err != nil {
		logCtx.WithError(err).Error("Failed to sync membership set TTL")
		metrics.JoinRejections.WithLabelValues("store_unavailable").Inc()
		return nil, ErrStoreUnavailable
	}

	logCtx.WithField("member_id", memberID).Info("User joined room")
	metrics.RoomsJoined.Inc()

	return &JoinRoomResult{
		RoomToken: in.RoomToken,
		MemberID:  memberID,
		Username:  in.Username,
		ExpiresAt: room.ExpiresAt,
	}, nil
}

// GetRoom returns the live room record for the token, with the same
// not-found/expired distinction as join.
func (s *RoomService) GetRoom(ctx context.Context, token string) (*domain.Room, error) {
	logCtx := logrus.WithField("room_token", token)
	return s.findLiveRoom(ctx, token, logCtx, metrics.JoinRejections)
}

// findLiveRoom reads the room record and applies the defensive expiry check:
// a record whose expiresAt has passed is reported expired even when the store
// has not evicted the key yet.
func (s *RoomService) findLiveRoom(ctx context.Context, token string, logCtx *logrus.Entry, rejections *prometheus.CounterVec) (*domain.Room, error) {
	room, err := s.rooms.FindRoom(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logCtx.Warn("Room not found")
			rejections.WithLabelValues("room_not_found").Inc()
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Failed to read room record")
		rejections.WithLabelValues("store_unavailable").Inc()
		return nil, ErrStoreUnavailable
	}
	if room.Expired(time.Now()) {
		logCtx.WithField("expires_at", room.ExpiresAt).Warn("Room expired but not yet evicted")
		rejections.WithLabelValues("room_expired").Inc()
		return nil, ErrRoomExpired
	}
	return room, nil
}

func validateCreateInput(in CreateRoomInput) error {
	if in.DurationSeconds < domain.RoomDurationMin || in.DurationSeconds > domain.RoomDurationMax {
		return ErrInvalidInput
	}
	if !in.Type.Valid() {
		return ErrInvalidInput
	}
	if len(in.Username) < domain.UsernameMinLen || len(in.Username) > domain.UsernameMaxLen {
		return ErrInvalidInput
	}
	if len(in.RoomToken) < domain.RoomTokenMinLen || len(in.RoomToken) > domain.RoomTokenMaxLen {
		return ErrInvalidInput
	}
	if len(in.Avatar) == 0 {
		return ErrInvalidInput
	}
	return nil
}
