package models

import "github.com/google/uuid"

// Wire-facing views of rooms and members, shaped for the polling client.

// RoomInfo is one entry in the room list.
type RoomInfo struct {
	RoomID          uuid.UUID `json:"room_id"`
	LiveID          int64     `json:"live_id"`
	JoinedUserCount int       `json:"joined_user_count"`
	MaxUserCount    int       `json:"max_user_count"`
}

// RoomUser is one roster entry in the wait-room response.
type RoomUser struct {
	UserID       uuid.UUID      `json:"user_id"`
	Name         string         `json:"name"`
	LeaderCardID int            `json:"leader_card_id"`
	Difficulty   LiveDifficulty `json:"select_difficulty"`
	IsMe         bool           `json:"is_me"`
	IsHost       bool           `json:"is_host"`
}

// ResultUser is one member's released result.
type ResultUser struct {
	UserID uuid.UUID   `json:"user_id"`
	Judges JudgeCounts `json:"judge_count_list"`
	Score  int         `json:"score"`
}
