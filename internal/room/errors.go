package room

import "errors"

var (
	// ErrRoomNotFound is returned by operations that cannot treat an absent
	// room as a soft outcome, e.g. Start.
	ErrRoomNotFound = errors.New("room: room not found")
	// ErrNotHost is returned when a non-host caller attempts Start.
	ErrNotHost = errors.New("room: caller is not the host")
	// ErrRoomState is returned when the room is not in the status the
	// operation requires.
	ErrRoomState = errors.New("room: operation not valid in current room status")
	// ErrMemberNotFound is returned when the caller holds no membership in
	// the room.
	ErrMemberNotFound = errors.New("room: caller is not a member of the room")
)
