package handlers

import (
	"net/http"
)

type userCreateRequest struct {
	UserName     string `json:"user_name"`
	LeaderCardID int    `json:"leader_card_id"`
}

type userCreateResponse struct {
	UserToken string `json:"user_token"`
}

// CreateUserHandler registers a user and returns their caller token.
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserName == "" {
		http.Error(w, "user_name is required", http.StatusBadRequest)
		return
	}

	token, err := s.Users.Create(r.Context(), req.UserName, req.LeaderCardID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, userCreateResponse{UserToken: token})
}

// MeHandler returns the profile behind the caller's token.
func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	u, err := s.Users.Me(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, u)
}

// UpdateUserHandler changes the caller's name and leader card.
func (s *Server) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	var req userCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserName == "" {
		http.Error(w, "user_name is required", http.StatusBadRequest)
		return
	}
	if err := s.Users.Update(r.Context(), token, req.UserName, req.LeaderCardID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, struct{}{})
}
