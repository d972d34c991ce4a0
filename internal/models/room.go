package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxRoomMembers is the fixed per-room capacity. System-wide, not
// configurable per room.
const MaxRoomMembers = 4

// Room is a row in the rooms table. JoinedUserCount must always equal the
// number of live member rows for the room; HostUserID must always be one of
// those members while the room exists.
type Room struct {
	ID              uuid.UUID  `json:"room_id"`
	LiveID          int64      `json:"live_id"`
	JoinedUserCount int        `json:"joined_user_count"`
	Status          RoomStatus `json:"status"`
	HostUserID      uuid.UUID  `json:"host_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
}
