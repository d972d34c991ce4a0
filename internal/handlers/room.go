package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/harmonic-games/stagepass/internal/models"
)

type roomCreateRequest struct {
	LiveID     int64                 `json:"live_id"`
	Difficulty models.LiveDifficulty `json:"select_difficulty"`
}

type roomCreateResponse struct {
	RoomID uuid.UUID `json:"room_id"`
}

// CreateRoomHandler creates a room with the caller as host.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	var req roomCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Difficulty.Valid() {
		http.Error(w, "invalid select_difficulty", http.StatusBadRequest)
		return
	}

	roomID, err := s.Rooms.Create(r.Context(), req.LiveID, req.Difficulty, token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, roomCreateResponse{RoomID: roomID})
}

type roomListRequest struct {
	LiveID int64 `json:"live_id"`
}

type roomListResponse struct {
	RoomInfoList []models.RoomInfo `json:"room_info_list"`
}

// ListRoomsHandler lists rooms for a live id; live_id 0 means every room.
// No token required.
func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	var req roomListRequest
	if !decodeBody(w, r, &req) {
		return
	}
	infos, err := s.Rooms.List(r.Context(), req.LiveID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, roomListResponse{RoomInfoList: infos})
}

type roomJoinRequest struct {
	RoomID     uuid.UUID             `json:"room_id"`
	Difficulty models.LiveDifficulty `json:"select_difficulty"`
}

type roomJoinResponse struct {
	JoinRoomResult models.JoinRoomResult `json:"join_room_result"`
}

// JoinRoomHandler admits the caller into a room. RoomFull and Disbanded
// come back as join_room_result values with a 200, matching the client's
// branching contract.
func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	var req roomJoinRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Difficulty.Valid() {
		http.Error(w, "invalid select_difficulty", http.StatusBadRequest)
		return
	}

	result, err := s.Rooms.Join(r.Context(), req.RoomID, req.Difficulty, token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, roomJoinResponse{JoinRoomResult: result})
}

type roomWaitRequest struct {
	RoomID uuid.UUID `json:"room_id"`
}

type roomWaitResponse struct {
	Status       models.RoomStatus `json:"status"`
	RoomUserList []models.RoomUser `json:"room_user_list"`
}

// WaitRoomHandler is the poll endpoint for the waiting screen.
func (s *Server) WaitRoomHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	var req roomWaitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	status, roster, err := s.Rooms.Wait(r.Context(), req.RoomID, token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, roomWaitResponse{Status: status, RoomUserList: roster})
}

type roomStartRequest struct {
	RoomID uuid.UUID `json:"room_id"`
}

// StartRoomHandler transitions the room to LiveStart. Host only.
func (s *Server) StartRoomHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	var req roomStartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.Rooms.Start(r.Context(), req.RoomID, token); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, struct{}{})
}

type roomEndRequest struct {
	RoomID         uuid.UUID `json:"room_id"`
	Score          int       `json:"score"`
	JudgeCountList []int     `json:"judge_count_list"`
}

// EndRoomHandler records the caller's play result. judge_count_list must
// carry exactly five tallies: perfect, great, good, bad, miss.
func (s *Server) EndRoomHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	var req roomEndRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.JudgeCountList) != len(models.JudgeCounts{}) {
		http.Error(w, "judge_count_list must have exactly 5 entries", http.StatusBadRequest)
		return
	}
	var judges models.JudgeCounts
	copy(judges[:], req.JudgeCountList)

	if err := s.Rooms.Finish(r.Context(), req.RoomID, token, req.Score, judges); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, struct{}{})
}

type roomResultRequest struct {
	RoomID uuid.UUID `json:"room_id"`
}

type roomResultResponse struct {
	ResultUserList []models.ResultUser `json:"result_user_list"`
}

// RoomResultHandler returns the aggregate once every member has finished;
// an empty list means "not ready yet". No token required.
func (s *Server) RoomResultHandler(w http.ResponseWriter, r *http.Request) {
	var req roomResultRequest
	if !decodeBody(w, r, &req) {
		return
	}
	results, err := s.Rooms.Results(r.Context(), req.RoomID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, roomResultResponse{ResultUserList: results})
}

type roomLeaveRequest struct {
	RoomID uuid.UUID `json:"room_id"`
}

// LeaveRoomHandler removes the caller from the room. Idempotent.
func (s *Server) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	var req roomLeaveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.Rooms.Leave(r.Context(), req.RoomID, token); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, struct{}{})
}
