// Package room is the room lifecycle and membership coordinator: capacity
// bounded joins, host transfer on leave, the Waiting -> LiveStart ->
// Dissolution state machine, and all-finished gated result release.
//
// Every operation re-reads room state and writes it inside a single store
// transaction. Nothing is cached across calls: the capacity gate holds only
// because the room row read at the top of Join and Leave stays locked until
// the transaction commits.
package room

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmonic-games/stagepass/internal/cache"
	"github.com/harmonic-games/stagepass/internal/identity"
	"github.com/harmonic-games/stagepass/internal/models"
	"github.com/harmonic-games/stagepass/internal/store"
)

// ResultsArchiver receives released aggregates. Satisfied by
// *cache.Archiver.
type ResultsArchiver interface {
	PublishResults(ctx context.Context, record cache.ResultRecord) error
}

// Service coordinates rooms over an injected store and identity resolver.
type Service struct {
	store    store.Store
	resolver identity.Resolver
	archive  ResultsArchiver
	log      *logrus.Logger
}

// NewService wires a coordinator. archive may be nil; released results are
// then not published anywhere.
func NewService(st store.Store, r identity.Resolver, archive ResultsArchiver, log *logrus.Logger) *Service {
	return &Service{store: st, resolver: r, archive: archive, log: log}
}

// Create inserts a room in Waiting status with the caller as host and sole
// member, atomically, and returns the new room id.
func (s *Service) Create(ctx context.Context, liveID int64, difficulty models.LiveDifficulty, token string) (uuid.UUID, error) {
	caller, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}

	now := time.Now().UTC()
	r := models.Room{
		ID:              uuid.New(),
		LiveID:          liveID,
		JoinedUserCount: 1,
		Status:          models.StatusWaiting,
		HostUserID:      caller.ID,
		CreatedAt:       now,
	}
	m := models.RoomMember{
		RoomID:       r.ID,
		UserID:       caller.ID,
		Difficulty:   difficulty,
		SessionToken: token,
		JoinedAt:     now,
	}
	err = s.store.RunTx(ctx, func(tx store.Tx) error {
		if err := tx.InsertRoom(ctx, &r); err != nil {
			return err
		}
		return tx.InsertMember(ctx, &m)
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.log.WithFields(logrus.Fields{
		"room_id": r.ID,
		"live_id": liveID,
		"host":    caller.ID,
	}).Info("room created")
	return r.ID, nil
}

// List returns the rooms for a live id; liveID 0 lists every room. An empty
// slice is a valid "no rooms" answer.
func (s *Service) List(ctx context.Context, liveID int64) ([]models.RoomInfo, error) {
	var rooms []models.Room
	err := s.store.RunTx(ctx, func(tx store.Tx) error {
		var err error
		rooms, err = tx.ListRooms(ctx, liveID)
		return err
	})
	if err != nil {
		return nil, err
	}

	infos := make([]models.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, models.RoomInfo{
			RoomID:          r.ID,
			LiveID:          r.LiveID,
			JoinedUserCount: r.JoinedUserCount,
			MaxUserCount:    models.MaxRoomMembers,
		})
	}
	return infos, nil
}

// Join admits the caller into the room unless it is gone or full. The
// locked read of the room row and the member insert happen in one
// transaction, so concurrent joins can never overshoot capacity. A caller
// who already holds a membership gets JoinOtherError.
func (s *Service) Join(ctx context.Context, roomID uuid.UUID, difficulty models.LiveDifficulty, token string) (models.JoinRoomResult, error) {
	caller, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return 0, err
	}

	result := models.JoinOk
	err = s.store.RunTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRoom(ctx, roomID)
		if errors.Is(err, store.ErrNotFound) {
			result = models.JoinDisbanded
			return nil
		}
		if err != nil {
			return err
		}
		// An existing membership answers before the capacity check: a
		// member probing a full room is a duplicate join, not a full room.
		if _, err := tx.GetMember(ctx, roomID, caller.ID); err == nil {
			result = models.JoinOtherError
			return nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if r.JoinedUserCount >= models.MaxRoomMembers {
			result = models.JoinRoomFull
			return nil
		}

		r.JoinedUserCount++
		if err := tx.UpdateRoom(ctx, r); err != nil {
			return err
		}
		return tx.InsertMember(ctx, &models.RoomMember{
			RoomID:       roomID,
			UserID:       caller.ID,
			Difficulty:   difficulty,
			SessionToken: token,
			JoinedAt:     time.Now().UTC(),
		})
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Constraint backstop; the in-transaction membership check already
		// rolled everything back.
		return models.JoinOtherError, nil
	}
	if err != nil {
		return 0, err
	}

	if result == models.JoinOk {
		s.log.WithFields(logrus.Fields{"room_id": roomID, "user_id": caller.ID}).Info("user joined room")
	}
	return result, nil
}

// Wait returns the room status and the resolved roster for the polling
// client. An absent room reads as Dissolution with an empty roster, so
// pollers see "gone" and "ended" uniformly.
func (s *Service) Wait(ctx context.Context, roomID uuid.UUID, token string) (models.RoomStatus, []models.RoomUser, error) {
	if _, err := s.resolver.Resolve(ctx, token); err != nil {
		return 0, nil, err
	}

	status := models.StatusDissolution
	roster := []models.RoomUser{}
	err := s.store.RunTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRoom(ctx, roomID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		status = r.Status

		members, err := tx.ListMembers(ctx, roomID)
		if err != nil {
			return err
		}
		for _, m := range members {
			profile, err := tx.GetUserByID(ctx, m.UserID)
			if err != nil {
				return err
			}
			roster = append(roster, models.RoomUser{
				UserID:       m.UserID,
				Name:         profile.Name,
				LeaderCardID: profile.LeaderCardID,
				Difficulty:   m.Difficulty,
				IsMe:         m.SessionToken == token,
				IsHost:       m.UserID == r.HostUserID,
			})
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return status, roster, nil
}

// Start transitions the room from Waiting to LiveStart. Only the host may
// start, and only from Waiting.
func (s *Service) Start(ctx context.Context, roomID uuid.UUID, token string) error {
	caller, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return err
	}

	err = s.store.RunTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRoom(ctx, roomID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		if r.HostUserID != caller.ID {
			return ErrNotHost
		}
		if r.Status != models.StatusWaiting {
			return ErrRoomState
		}
		r.Status = models.StatusLiveStart
		return tx.UpdateRoom(ctx, r)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"room_id": roomID, "host": caller.ID}).Info("room started")
	return nil
}

// Finish records the caller's score and judgement counts and marks them
// finished. It does not touch room status; release happens in Results.
func (s *Service) Finish(ctx context.Context, roomID uuid.UUID, token string, score int, judges models.JudgeCounts) error {
	caller, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return err
	}

	return s.store.RunTx(ctx, func(tx store.Tx) error {
		m, err := tx.GetMember(ctx, roomID, caller.ID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		if err != nil {
			return err
		}
		m.Finished = true
		m.Score = score
		m.Judges = judges
		return tx.UpdateMember(ctx, m)
	})
}

// Results releases the aggregate once every member has finished; until then
// it returns an empty list meaning "not ready". The first complete read
// flips the room to Dissolution in the same transaction; later reads are
// idempotent re-reads of the same data.
func (s *Service) Results(ctx context.Context, roomID uuid.UUID) ([]models.ResultUser, error) {
	results := []models.ResultUser{}
	released := false
	var liveID int64

	err := s.store.RunTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRoom(ctx, roomID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		members, err := tx.ListMembers(ctx, roomID)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		for _, m := range members {
			if !m.Finished {
				results = results[:0]
				return nil
			}
			results = append(results, models.ResultUser{
				UserID: m.UserID,
				Judges: m.Judges,
				Score:  m.Score,
			})
		}

		if r.Status != models.StatusDissolution {
			released = true
			liveID = r.LiveID
			r.Status = models.StatusDissolution
			return tx.UpdateRoom(ctx, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if released {
		s.log.WithFields(logrus.Fields{"room_id": roomID, "members": len(results)}).Info("results released")
		s.publishResults(ctx, roomID, liveID, results)
	}
	return results, nil
}

// publishResults hands the released aggregate to the archive queue. Best
// effort only.
func (s *Service) publishResults(ctx context.Context, roomID uuid.UUID, liveID int64, results []models.ResultUser) {
	if s.archive == nil {
		return
	}
	record := cache.ResultRecord{
		RoomID:    roomID,
		LiveID:    liveID,
		Results:   results,
		Timestamp: time.Now().Unix(),
	}
	if err := s.archive.PublishResults(ctx, record); err != nil {
		s.log.WithError(err).WithField("room_id", roomID).Warn("failed to archive results")
	}
}

// Leave removes the caller from the room. The last member leaving deletes
// the room; a departing host hands the role to the earliest-joined
// remaining member. A no-op when the room or membership is already gone.
func (s *Service) Leave(ctx context.Context, roomID uuid.UUID, token string) error {
	caller, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return err
	}

	disbanded := false
	var newHost uuid.UUID
	err = s.store.RunTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRoom(ctx, roomID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.GetMember(ctx, roomID, caller.ID); errors.Is(err, store.ErrNotFound) {
			return nil
		} else if err != nil {
			return err
		}

		if err := tx.DeleteMember(ctx, roomID, caller.ID); err != nil {
			return err
		}
		if r.JoinedUserCount <= 1 {
			disbanded = true
			return tx.DeleteRoom(ctx, roomID)
		}

		r.JoinedUserCount--
		if r.HostUserID == caller.ID {
			remaining, err := tx.ListMembers(ctx, roomID)
			if err != nil {
				return err
			}
			r.HostUserID = remaining[0].UserID
			newHost = r.HostUserID
		}
		return tx.UpdateRoom(ctx, r)
	})
	if err != nil {
		return err
	}

	entry := s.log.WithFields(logrus.Fields{"room_id": roomID, "user_id": caller.ID})
	switch {
	case disbanded:
		entry.Info("last member left, room disbanded")
	case newHost != uuid.Nil:
		entry.WithField("new_host", newHost).Info("user left room, host transferred")
	default:
		entry.Info("user left room")
	}
	return nil
}
