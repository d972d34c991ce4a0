package models

import (
	"time"

	"github.com/google/uuid"
)

// JudgeCounts are the five note judgement tallies for one play, in the
// fixed wire order: perfect, great, good, bad, miss.
type JudgeCounts [5]int

// RoomMember is a row in the room_members table, keyed by (room_id, user_id).
// SessionToken is the caller token presented at join time; it correlates
// result submissions and the "is_me" roster flag back to the member.
// Score and Judges are zero until Finished is set.
type RoomMember struct {
	RoomID       uuid.UUID      `json:"room_id"`
	UserID       uuid.UUID      `json:"user_id"`
	Difficulty   LiveDifficulty `json:"select_difficulty"`
	SessionToken string         `json:"-"`
	Finished     bool           `json:"finished"`
	Score        int            `json:"score"`
	Judges       JudgeCounts    `json:"judge_count_list"`
	JoinedAt     time.Time      `json:"joined_at"`
}
