// Package auth mints and verifies the caller tokens handed out at user
// creation. Tokens are JWTs signed with an ed25519 key pair held by the
// Service; "sub" carries the user id.
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Service signs and verifies tokens. Construct once and inject; there is no
// package-level key state.
type Service struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// expire is how long tokens stay valid; zero means no exp claim.
	expire time.Duration
}

// NewService generates a fresh ed25519 key pair. Tokens signed by one
// process are not valid in another; use NewServiceFromFiles for that.
func NewService() (*Service, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	expire, err := parseTokenExpire()
	if err != nil {
		return nil, err
	}
	return &Service{privateKey: privateKey, publicKey: publicKey, expire: expire}, nil
}

// NewServiceFromFiles reads raw ed25519 keys from disk.
func NewServiceFromFiles(privatePath, publicPath string) (*Service, error) {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key file: %w", err)
	}
	expire, err := parseTokenExpire()
	if err != nil {
		return nil, err
	}
	return &Service{
		privateKey: ed25519.PrivateKey(privateKeyData),
		publicKey:  ed25519.PublicKey(publicKeyData),
		expire:     expire,
	}, nil
}

// parseTokenExpire reads TOKEN_EXPIRE_TIME; "never", "0" or unset means
// tokens never expire.
func parseTokenExpire() (time.Duration, error) {
	duration := os.Getenv("TOKEN_EXPIRE_TIME")
	if duration == "never" || duration == "0" || duration == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return 0, fmt.Errorf("parse TOKEN_EXPIRE_TIME: %w", err)
	}
	return d, nil
}

// CreateJWT creates a signed token with "sub" = userID.
func (s *Service) CreateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
	}
	if s.expire > 0 {
		claims["exp"] = time.Now().Add(s.expire).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.privateKey)
}

// AuthenticateJWT verifies a token string and returns its "sub" field.
func (s *Service) AuthenticateJWT(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	userID, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return userID, nil
}
