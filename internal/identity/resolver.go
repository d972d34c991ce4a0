// Package identity is the boundary between caller tokens and user profiles.
// The coordinator only ever sees the Resolver interface.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/harmonic-games/stagepass/internal/auth"
	"github.com/harmonic-games/stagepass/internal/models"
	"github.com/harmonic-games/stagepass/internal/store"
)

// ErrIdentity means the token does not resolve to a known user. Surfaced to
// the caller as an authentication failure, never retried.
var ErrIdentity = errors.New("identity: token does not resolve")

// Resolver maps an opaque caller token to the user behind it.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// TokenResolver verifies the token signature and loads the profile row.
type TokenResolver struct {
	Auth  *auth.Service
	Store store.Store
}

// NewTokenResolver builds a Resolver over the given auth service and store.
func NewTokenResolver(a *auth.Service, s store.Store) *TokenResolver {
	return &TokenResolver{Auth: a, Store: s}
}

// Resolve implements Resolver. Any verification or lookup failure collapses
// to ErrIdentity; store transport failures are passed through.
func (r *TokenResolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	sub, err := r.Auth.AuthenticateJWT(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentity, err)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrIdentity)
	}

	var u *models.User
	err = r.Store.RunTx(ctx, func(tx store.Tx) error {
		u, err = tx.GetUserByID(ctx, userID)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrIdentity
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
