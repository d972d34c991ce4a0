// Package postgres implements the store interfaces on top of a pgx
// connection pool. Row locking for the join/leave serialization comes from
// SELECT ... FOR UPDATE inside the wrapping transaction.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harmonic-games/stagepass/internal/models"
	"github.com/harmonic-games/stagepass/internal/store"
)

//go:embed schema.sql
var schema string

// uniqueViolation is the Postgres error code for a uniqueness constraint.
const uniqueViolation = "23505"

// Store is a pgx-backed store.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects a pool to dsn and verifies the connection.
func New(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the embedded schema. Idempotent. Statements run one at a
// time because the extended query protocol rejects multi-statement strings.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// RunTx implements store.Store.
func (s *Store) RunTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (s *Store) Close() {
	s.pool.Close()
}

type pgTx struct {
	tx pgx.Tx
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrDuplicate
	}
	return err
}

func (t *pgTx) InsertUser(ctx context.Context, u *models.User) error {
	q := `INSERT INTO users (id, name, leader_card_id) VALUES ($1, $2, $3)`
	if _, err := t.tx.Exec(ctx, q, u.ID, u.Name, u.LeaderCardID); err != nil {
		return mapErr(err)
	}
	return nil
}

func (t *pgTx) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	q := `SELECT id, name, leader_card_id FROM users WHERE id = $1`
	err := t.tx.QueryRow(ctx, q, id).Scan(&u.ID, &u.Name, &u.LeaderCardID)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (t *pgTx) UpdateUser(ctx context.Context, u *models.User) error {
	q := `UPDATE users SET name = $1, leader_card_id = $2 WHERE id = $3`
	tag, err := t.tx.Exec(ctx, q, u.Name, u.LeaderCardID, u.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *pgTx) InsertRoom(ctx context.Context, r *models.Room) error {
	q := `
	INSERT INTO rooms (id, live_id, joined_user_count, status, host_user_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := t.tx.Exec(ctx, q,
		r.ID, r.LiveID, r.JoinedUserCount, r.Status, r.HostUserID, r.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

// GetRoom locks the room row for the remainder of the transaction so that
// concurrent joins and leaves against the same room serialize here.
func (t *pgTx) GetRoom(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	var r models.Room
	q := `
	SELECT id, live_id, joined_user_count, status, host_user_id, created_at
	FROM rooms
	WHERE id = $1
	FOR UPDATE
	`
	err := t.tx.QueryRow(ctx, q, roomID).Scan(
		&r.ID, &r.LiveID, &r.JoinedUserCount, &r.Status, &r.HostUserID, &r.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (t *pgTx) UpdateRoom(ctx context.Context, r *models.Room) error {
	q := `
	UPDATE rooms
	SET live_id = $1, joined_user_count = $2, status = $3, host_user_id = $4
	WHERE id = $5
	`
	tag, err := t.tx.Exec(ctx, q,
		r.LiveID, r.JoinedUserCount, r.Status, r.HostUserID, r.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	// room_members rows go with the room via ON DELETE CASCADE.
	if _, err := t.tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID); err != nil {
		return mapErr(err)
	}
	return nil
}

func (t *pgTx) ListRooms(ctx context.Context, liveID int64) ([]models.Room, error) {
	q := `
	SELECT id, live_id, joined_user_count, status, host_user_id, created_at
	FROM rooms
	`
	args := []any{}
	if liveID != 0 {
		q += ` WHERE live_id = $1`
		args = append(args, liveID)
	}
	q += ` ORDER BY created_at`

	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(
			&r.ID, &r.LiveID, &r.JoinedUserCount, &r.Status, &r.HostUserID, &r.CreatedAt,
		); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *pgTx) InsertMember(ctx context.Context, m *models.RoomMember) error {
	q := `
	INSERT INTO room_members (
		room_id, user_id, select_difficulty, session_token,
		finished, score, perfect, great, good, bad, miss, joined_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := t.tx.Exec(ctx, q,
		m.RoomID, m.UserID, m.Difficulty, m.SessionToken,
		m.Finished, m.Score,
		m.Judges[0], m.Judges[1], m.Judges[2], m.Judges[3], m.Judges[4],
		m.JoinedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (t *pgTx) GetMember(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomMember, error) {
	var m models.RoomMember
	q := `
	SELECT room_id, user_id, select_difficulty, session_token,
	       finished, score, perfect, great, good, bad, miss, joined_at
	FROM room_members
	WHERE room_id = $1 AND user_id = $2
	`
	err := t.tx.QueryRow(ctx, q, roomID, userID).Scan(
		&m.RoomID, &m.UserID, &m.Difficulty, &m.SessionToken,
		&m.Finished, &m.Score,
		&m.Judges[0], &m.Judges[1], &m.Judges[2], &m.Judges[3], &m.Judges[4],
		&m.JoinedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (t *pgTx) ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error) {
	q := `
	SELECT room_id, user_id, select_difficulty, session_token,
	       finished, score, perfect, great, good, bad, miss, joined_at
	FROM room_members
	WHERE room_id = $1
	ORDER BY joined_at, user_id
	`
	rows, err := t.tx.Query(ctx, q, roomID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []models.RoomMember
	for rows.Next() {
		var m models.RoomMember
		if err := rows.Scan(
			&m.RoomID, &m.UserID, &m.Difficulty, &m.SessionToken,
			&m.Finished, &m.Score,
			&m.Judges[0], &m.Judges[1], &m.Judges[2], &m.Judges[3], &m.Judges[4],
			&m.JoinedAt,
		); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *pgTx) UpdateMember(ctx context.Context, m *models.RoomMember) error {
	q := `
	UPDATE room_members
	SET select_difficulty = $1, session_token = $2, finished = $3, score = $4,
	    perfect = $5, great = $6, good = $7, bad = $8, miss = $9
	WHERE room_id = $10 AND user_id = $11
	`
	tag, err := t.tx.Exec(ctx, q,
		m.Difficulty, m.SessionToken, m.Finished, m.Score,
		m.Judges[0], m.Judges[1], m.Judges[2], m.Judges[3], m.Judges[4],
		m.RoomID, m.UserID,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteMember(ctx context.Context, roomID, userID uuid.UUID) error {
	q := `DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`
	if _, err := t.tx.Exec(ctx, q, roomID, userID); err != nil {
		return mapErr(err)
	}
	return nil
}
