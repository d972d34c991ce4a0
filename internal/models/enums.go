package models

// Integer values for these enums are part of the wire contract with the
// game client and must not be renumbered.

// LiveDifficulty is the chart difficulty a member selects when joining.
type LiveDifficulty int

const (
	DifficultyNormal LiveDifficulty = 1
	DifficultyHard   LiveDifficulty = 2
)

// Valid reports whether d is a difficulty a client may submit.
func (d LiveDifficulty) Valid() bool {
	return d == DifficultyNormal || d == DifficultyHard
}

// JoinRoomResult is the outcome of a join attempt. RoomFull and Disbanded
// are expected branches for the client, not errors.
type JoinRoomResult int

const (
	JoinOk        JoinRoomResult = 1
	JoinRoomFull  JoinRoomResult = 2
	JoinDisbanded JoinRoomResult = 3
	// JoinOtherError covers constraint violations, e.g. the caller already
	// holds a membership in the room.
	JoinOtherError JoinRoomResult = 4
)

// RoomStatus is the lifecycle state of a room.
// Waiting -> LiveStart -> Dissolution, Dissolution terminal.
type RoomStatus int

const (
	StatusWaiting     RoomStatus = 1
	StatusLiveStart   RoomStatus = 2
	StatusDissolution RoomStatus = 3
)

func (s RoomStatus) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusLiveStart:
		return "live_start"
	case StatusDissolution:
		return "dissolution"
	default:
		return "unknown"
	}
}
