// Package handlers binds the user and room services to the HTTP surface.
// All endpoints are POST with JSON bodies except /user/me; callers
// authenticate with an Authorization: Bearer token.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/harmonic-games/stagepass/internal/identity"
	"github.com/harmonic-games/stagepass/internal/room"
	"github.com/harmonic-games/stagepass/internal/users"
)

// Server holds the services the handlers dispatch into.
type Server struct {
	Users *users.Service
	Rooms *room.Service
	Log   *logrus.Logger
}

// NewServer wires a handler server.
func NewServer(u *users.Service, r *room.Service, log *logrus.Logger) *Server {
	return &Server{Users: u, Rooms: r, Log: log}
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/user/create", s.CreateUserHandler)
	mux.HandleFunc("/user/me", s.MeHandler)
	mux.HandleFunc("/user/update", s.UpdateUserHandler)

	mux.HandleFunc("/room/create", s.CreateRoomHandler)
	mux.HandleFunc("/room/list", s.ListRoomsHandler)
	mux.HandleFunc("/room/join", s.JoinRoomHandler)
	mux.HandleFunc("/room/wait", s.WaitRoomHandler)
	mux.HandleFunc("/room/start", s.StartRoomHandler)
	mux.HandleFunc("/room/end", s.EndRoomHandler)
	mux.HandleFunc("/room/result", s.RoomResultHandler)
	mux.HandleFunc("/room/leave", s.LeaveRoomHandler)

	return mux
}

// bearerToken pulls the caller token out of the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) || len(h) == len(prefix) {
		return "", false
	}
	return h[len(prefix):], true
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.WithError(err).Error("failed to write response")
	}
}

// writeError maps service errors onto HTTP statuses. RoomFull/Disbanded are
// result values, not errors, and never come through here.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrIdentity):
		http.Error(w, "invalid token", http.StatusUnauthorized)
	case errors.Is(err, room.ErrNotHost):
		http.Error(w, "caller is not the host", http.StatusForbidden)
	case errors.Is(err, room.ErrRoomState):
		http.Error(w, "room is not in a startable state", http.StatusConflict)
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrMemberNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		s.Log.WithError(err).Error("internal error")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return false
	}
	return true
}
