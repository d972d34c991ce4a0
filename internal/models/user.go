package models

import "github.com/google/uuid"

// User is a row in the users table. LeaderCardID is the card the user shows
// on their profile; it carries no meaning for the coordinator.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	LeaderCardID int       `json:"leader_card_id"`
}
