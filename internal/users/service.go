// Package users covers the account surface: registration issues the caller
// token that every room operation authenticates with.
package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/harmonic-games/stagepass/internal/auth"
	"github.com/harmonic-games/stagepass/internal/identity"
	"github.com/harmonic-games/stagepass/internal/models"
	"github.com/harmonic-games/stagepass/internal/store"
)

// Service creates and updates users.
type Service struct {
	store    store.Store
	auth     *auth.Service
	resolver identity.Resolver
	log      *logrus.Logger
}

// NewService wires a user service.
func NewService(st store.Store, a *auth.Service, r identity.Resolver, log *logrus.Logger) *Service {
	return &Service{store: st, auth: a, resolver: r, log: log}
}

// Create registers a user and returns their caller token.
func (s *Service) Create(ctx context.Context, name string, leaderCardID int) (string, error) {
	u := models.User{
		ID:           uuid.New(),
		Name:         name,
		LeaderCardID: leaderCardID,
	}
	err := s.store.RunTx(ctx, func(tx store.Tx) error {
		return tx.InsertUser(ctx, &u)
	})
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}

	token, err := s.auth.CreateJWT(u.ID.String())
	if err != nil {
		return "", fmt.Errorf("create token: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "name": name}).Info("user created")
	return token, nil
}

// Me returns the profile behind a token.
func (s *Service) Me(ctx context.Context, token string) (*models.User, error) {
	return s.resolver.Resolve(ctx, token)
}

// Update changes the caller's display name and leader card.
func (s *Service) Update(ctx context.Context, token, name string, leaderCardID int) error {
	u, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return err
	}
	u.Name = name
	u.LeaderCardID = leaderCardID
	return s.store.RunTx(ctx, func(tx store.Tx) error {
		return tx.UpdateUser(ctx, u)
	})
}
