// Package memory implements the store interfaces in process memory. A
// single mutex serializes transactions, which trivially gives the isolation
// the coordinator needs; mutations are rolled back from a snapshot when the
// transaction function fails. Used by the test suite and as a dev mode.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/harmonic-games/stagepass/internal/models"
	"github.com/harmonic-games/stagepass/internal/store"
)

// Store is an in-memory store.Store.
type Store struct {
	mu      sync.Mutex
	users   map[uuid.UUID]models.User
	rooms   map[uuid.UUID]models.Room
	members map[uuid.UUID][]models.RoomMember // room id -> members in join order
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:   make(map[uuid.UUID]models.User),
		rooms:   make(map[uuid.UUID]models.Room),
		members: make(map[uuid.UUID][]models.RoomMember),
	}
}

// RunTx implements store.Store. The store mutex is held for the whole
// transaction, so transactions never interleave.
func (s *Store) RunTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) Close() {}

type state struct {
	users   map[uuid.UUID]models.User
	rooms   map[uuid.UUID]models.Room
	members map[uuid.UUID][]models.RoomMember
}

func (s *Store) snapshot() state {
	snap := state{
		users:   make(map[uuid.UUID]models.User, len(s.users)),
		rooms:   make(map[uuid.UUID]models.Room, len(s.rooms)),
		members: make(map[uuid.UUID][]models.RoomMember, len(s.members)),
	}
	for id, u := range s.users {
		snap.users[id] = u
	}
	for id, r := range s.rooms {
		snap.rooms[id] = r
	}
	for id, ms := range s.members {
		snap.members[id] = append([]models.RoomMember(nil), ms...)
	}
	return snap
}

func (s *Store) restore(snap state) {
	s.users = snap.users
	s.rooms = snap.rooms
	s.members = snap.members
}

type memTx struct {
	s *Store
}

func (t *memTx) InsertUser(ctx context.Context, u *models.User) error {
	if _, ok := t.s.users[u.ID]; ok {
		return store.ErrDuplicate
	}
	t.s.users[u.ID] = *u
	return nil
}

func (t *memTx) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := t.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (t *memTx) UpdateUser(ctx context.Context, u *models.User) error {
	if _, ok := t.s.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	t.s.users[u.ID] = *u
	return nil
}

func (t *memTx) InsertRoom(ctx context.Context, r *models.Room) error {
	if _, ok := t.s.rooms[r.ID]; ok {
		return store.ErrDuplicate
	}
	t.s.rooms[r.ID] = *r
	return nil
}

func (t *memTx) GetRoom(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	r, ok := t.s.rooms[roomID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (t *memTx) UpdateRoom(ctx context.Context, r *models.Room) error {
	if _, ok := t.s.rooms[r.ID]; !ok {
		return store.ErrNotFound
	}
	t.s.rooms[r.ID] = *r
	return nil
}

func (t *memTx) DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	delete(t.s.rooms, roomID)
	delete(t.s.members, roomID)
	return nil
}

func (t *memTx) ListRooms(ctx context.Context, liveID int64) ([]models.Room, error) {
	var out []models.Room
	for _, r := range t.s.rooms {
		if liveID == 0 || r.LiveID == liveID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return lessUUID(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (t *memTx) InsertMember(ctx context.Context, m *models.RoomMember) error {
	for _, existing := range t.s.members[m.RoomID] {
		if existing.UserID == m.UserID {
			return store.ErrDuplicate
		}
	}
	t.s.members[m.RoomID] = append(t.s.members[m.RoomID], *m)
	return nil
}

func (t *memTx) GetMember(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomMember, error) {
	for _, m := range t.s.members[roomID] {
		if m.UserID == userID {
			out := m
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *memTx) ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error) {
	out := append([]models.RoomMember(nil), t.s.members[roomID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return lessUUID(out[i].UserID, out[j].UserID)
	})
	return out, nil
}

func (t *memTx) UpdateMember(ctx context.Context, m *models.RoomMember) error {
	ms := t.s.members[m.RoomID]
	for i := range ms {
		if ms[i].UserID == m.UserID {
			ms[i] = *m
			return nil
		}
	}
	return store.ErrNotFound
}

func (t *memTx) DeleteMember(ctx context.Context, roomID, userID uuid.UUID) error {
	ms := t.s.members[roomID]
	for i := range ms {
		if ms[i].UserID == userID {
			t.s.members[roomID] = append(ms[:i:i], ms[i+1:]...)
			return nil
		}
	}
	return nil
}

func lessUUID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
