package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/CodeWizard-AB/realtime-chat/internal/metrics"
	"github.com/CodeWizard-AB/realtime-chat/internal/repository"
)

// MembershipReconcileHandler enforces the invariant that a membership set
// never outlives its room record. Store-driven expiry already handles the
// normal case; this sweep covers the races the single-key primitives leave
// open: a join that crashed between SADD and EXPIRE, or a set whose TTL
// drifted ahead of the room's.
type MembershipReconcileHandler struct {
	rooms repository.RoomRepository
	log   *logrus.Entry
}

// NewMembershipReconcileHandler creates the handler.
func NewMembershipReconcileHandler(rooms repository.RoomRepository, logger *logrus.Logger) *MembershipReconcileHandler {
	if rooms == nil {
		panic("RoomRepository cannot be nil for MembershipReconcileHandler")
	}
	return &MembershipReconcileHandler{
		rooms: rooms,
		log:   logger.WithField("component", "membership_reconcile"),
	}
}

// ProcessTask walks every membership set and deletes orphans or re-pins
// drifted TTLs to the parent room's remaining lifetime. Per-set failures are
// logged and skipped so one bad key cannot stall the sweep.
func (h *MembershipReconcileHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	tokens, err := h.rooms.MemberSetTokens(ctx)
	if err != nil {
		h.log.WithError(err).Error("Failed to list membership sets")
		return err
	}

	var deleted, resynced int
	for _, token := range tokens {
		logCtx := h.log.WithField("room_token", token)

		roomTTL, err := h.rooms.RoomTTL(ctx, token)
		if errors.Is(err, repository.ErrNotFound) {
			// Parent room already evicted; the set must not outlive it.
			if err := h.rooms.DeleteMembers(ctx, token); err != nil {
				logCtx.WithError(err).Warn("Failed to delete orphaned membership set")
				continue
			}
			metrics.MemberSetsReconciled.WithLabelValues("deleted").Inc()
			deleted++
			continue
		}
		if err != nil {
			logCtx.WithError(err).Warn("Failed to read room TTL")
			continue
		}

		membersTTL, err := h.rooms.MembersTTL(ctx, token)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				logCtx.WithError(err).Warn("Failed to read membership set TTL")
			}
			continue
		}
		if membersTTL > roomTTL {
			if err := h.rooms.SyncMembersTTL(ctx, token, roomTTL); err != nil {
				logCtx.WithError(err).Warn("Failed to resync membership set TTL")
				continue
			}
			metrics.MemberSetsReconciled.WithLabelValues("resynced").Inc()
			resynced++
		}
	}

	if deleted > 0 || resynced > 0 {
		h.log.WithFields(logrus.Fields{
			"scanned":  len(tokens),
			"deleted":  deleted,
			"resynced": resynced,
		}).Info("Membership reconciliation sweep complete")
	}
	return nil
}
