// Package store defines the transactional persistence boundary for rooms,
// memberships, and users. Every coordinator operation re-reads and writes
// inside one RunTx call; correctness of the capacity gate and host transfer
// depends on the transaction serializing against concurrent writers of the
// same room row, so implementations must lock the row returned by GetRoom
// until the transaction ends.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/harmonic-games/stagepass/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint, e.g. a second membership for the same (room, user).
	ErrDuplicate = errors.New("store: duplicate row")
)

// Tx is the set of row operations available inside one transaction.
type Tx interface {
	InsertUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	InsertRoom(ctx context.Context, r *models.Room) error
	// GetRoom returns the room row and holds a write lock on it until the
	// transaction commits or rolls back.
	GetRoom(ctx context.Context, roomID uuid.UUID) (*models.Room, error)
	UpdateRoom(ctx context.Context, r *models.Room) error
	// DeleteRoom removes the room and all of its member rows.
	DeleteRoom(ctx context.Context, roomID uuid.UUID) error
	// ListRooms returns rooms filtered by liveID; liveID 0 means all rooms.
	ListRooms(ctx context.Context, liveID int64) ([]models.Room, error)

	InsertMember(ctx context.Context, m *models.RoomMember) error
	GetMember(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomMember, error)
	// ListMembers returns the room's members ordered by join time, ties
	// broken by user id, so host election is deterministic.
	ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error)
	UpdateMember(ctx context.Context, m *models.RoomMember) error
	DeleteMember(ctx context.Context, roomID, userID uuid.UUID) error
}

// Store opens transactions against the backing engine.
type Store interface {
	// RunTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back every mutation otherwise.
	RunTx(ctx context.Context, fn func(tx Tx) error) error
	Close()
}
