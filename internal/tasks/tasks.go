package tasks

import "encoding/json"

// Task type constants.
const (
	// TypeMembershipReconcile sweeps membership sets whose parent room record
	// is gone or whose TTL has drifted past the room's.
	TypeMembershipReconcile = "membership:reconcile"
)

// MembershipReconcilePayload is currently empty; the sweep always covers the
// whole keyspace. Kept as a struct so the payload can grow without changing
// the task type.
type MembershipReconcilePayload struct{}

// NewMembershipReconcileTask builds the payload for a reconciliation task.
func NewMembershipReconcileTask() ([]byte, error) {
	return json.Marshal(MembershipReconcilePayload{})
}
