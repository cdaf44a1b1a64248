package service

import "errors"

var (
	// ErrInvalidInput covers malformed or out-of-range input. Always the
	// client's fault.
	ErrInvalidInput = errors.New("invalid input")

	// ErrReservedUsername rejects usernames the service keeps for itself.
	ErrReservedUsername = errors.New("this username is reserved, please choose another one")

	// ErrUsernameBusy means another create attempt for the same username
	// holds the lock. Transient; safe to retry after the lock's TTL.
	ErrUsernameBusy = errors.New("username is busy right now, try later")

	// ErrActiveRoomExists means the username already owns a live room. Not
	// retriable until that room expires.
	ErrActiveRoomExists = errors.New("you already have an active room, you can only create one room at a time")

	// ErrRateLimited means the origin address exhausted its creation quota
	// for the current window.
	ErrRateLimited = errors.New("too many rooms created from this address, please wait and try again")

	// ErrUploadFailed means the avatar upload gateway failed; the create is
	// aborted with no room written.
	ErrUploadFailed = errors.New("avatar upload failed")

	// ErrRoomNotFound is terminal: the token never existed or the room was
	// evicted by the store.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomExpired is terminal and distinct from not-found so clients can
	// explain why a previously valid token stopped working.
	ErrRoomExpired = errors.New("room expired")

	// ErrStoreUnavailable means a store operation failed. The whole request
	// fails closed; the service never guesses at store state.
	ErrStoreUnavailable = errors.New("state store unavailable")

	// ErrInternalServer covers everything else.
	ErrInternalServer = errors.New("internal server error")
)
