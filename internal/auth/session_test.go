package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndAuthenticateJWT(t *testing.T) {
	svc, err := NewService()
	require.NoError(t, err)

	userID := uuid.NewString()
	token, err := svc.CreateJWT(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sub, err := svc.AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID, sub)
}

func TestAuthenticateGarbage(t *testing.T) {
	svc, err := NewService()
	require.NoError(t, err)

	_, err = svc.AuthenticateJWT("not-a-jwt")
	assert.Error(t, err)
}

func TestTokenFromOtherKeyPairRejected(t *testing.T) {
	a, err := NewService()
	require.NoError(t, err)
	b, err := NewService()
	require.NoError(t, err)

	token, err := a.CreateJWT(uuid.NewString())
	require.NoError(t, err)

	_, err = b.AuthenticateJWT(token)
	assert.Error(t, err)
}
