package domain

import (
	"strings"
	"time"
)

// RoomType distinguishes one-on-one rooms from group rooms.
type RoomType string

const (
	RoomTypePrivate RoomType = "private"
	RoomTypeGroup   RoomType = "group"
)

// Valid reports whether t is one of the known room types.
func (t RoomType) Valid() bool {
	return t == RoomTypePrivate || t == RoomTypeGroup
}

// Input limits enforced at the edge. Durations are in seconds.
const (
	UsernameMinLen = 5
	UsernameMaxLen = 30

	RoomTokenMinLen = 10
	RoomTokenMaxLen = 30

	RoomDurationMin = 10 * 60
	RoomDurationMax = 60 * 60

	AvatarMaxBytes = 2 * 1024 * 1024
)

// Room is the record stored under room:<token>. Timestamps are unix seconds.
// ExpiresAt always equals CreatedAt + duration; the store evicts the record at
// that instant, but ExpiresAt is still checked on every read because a key can
// survive slightly past its TTL at the store boundary.
type Room struct {
	OwnerID   string
	Username  string
	Type      RoomType
	AvatarURL string
	CreatedAt int64
	ExpiresAt int64
}

// Expired reports whether the room's lifetime has passed at the given instant.
func (r *Room) Expired(now time.Time) bool {
	return r.ExpiresAt <= now.Unix()
}

// reservedUsernames are names the service keeps for itself. Matched
// case-insensitively on create; join has no such restriction.
var reservedUsernames = []string{
	"admin",
	"administrator",
	"mod",
	"moderator",
	"system",
	"root",
	"support",
	"staff",
	"owner",
	"host",
}

// IsReservedUsername reports whether name collides with a reserved name,
// ignoring case.
func IsReservedUsername(name string) bool {
	lower := strings.ToLower(name)
	for _, reserved := range reservedUsernames {
		if lower == reserved {
			return true
		}
	}
	return false
}
