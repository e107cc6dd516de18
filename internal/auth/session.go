// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidSession is returned for tokens that fail verification or carry bad claims.
var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims binds a player to a single game.
type SessionClaims struct {
	GameID string `json:"gid"`
	jwt.RegisteredClaims
}

// Session is the verified content of a session token.
type Session struct {
	PlayerID uuid.UUID
	GameID   uuid.UUID
}

// Signer issues and verifies ed25519-signed session tokens.
type Signer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	expire     time.Duration
}

// NewSigner generates a fresh key pair. expire of zero issues tokens without an exp claim.
func NewSigner(expire time.Duration) (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Signer{privateKey: priv, publicKey: pub, expire: expire}, nil
}

// Issue signs a token with sub = playerID and gid = gameID.
// A nil gameID issues an account token not bound to a game.
func (s *Signer) Issue(playerID, gameID uuid.UUID) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  playerID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if gameID != uuid.Nil {
		claims.GameID = gameID.String()
	}
	if s.expire > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.expire))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.privateKey)
}

// Verify checks the signature and expiry and returns the session it encodes.
func (s *Signer) Verify(tokenString string) (Session, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	playerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Session{}, fmt.Errorf("%w: bad sub", ErrInvalidSession)
	}
	sess := Session{PlayerID: playerID}
	if claims.GameID != "" {
		if sess.GameID, err = uuid.Parse(claims.GameID); err != nil {
			return Session{}, fmt.Errorf("%w: bad gid", ErrInvalidSession)
		}
	}
	return sess, nil
}
