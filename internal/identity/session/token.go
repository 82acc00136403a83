package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken reports a cookie token that failed signature or claim
// validation.
var ErrInvalidToken = errors.New("session: invalid token")

// Signer signs and verifies the session cookie payload. The cookie is a
// compact HS256 JWT carrying the session id and user id; the server-side
// record in the Store stays authoritative, the signature just lets the
// middleware reject forged cookies without a Redis round trip.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) (*Signer, error) {
	if len(secret) < 32 {
		return nil, errors.New("session: signing secret must be at least 32 bytes")
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign produces the cookie value for a session.
func (s *Signer) Sign(sess Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   sess.UserID,
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("session: failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a cookie value and returns the embedded session id and user
// id. Expiry is validated against the clock; the caller still checks the
// Store for revocation.
func (s *Signer) Verify(raw string) (sessionID, userID string, err error) {
	var claims jwt.RegisteredClaims

	_, err = jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", "", ErrInvalidToken
	}

	if claims.ID == "" || claims.Subject == "" {
		return "", "", ErrInvalidToken
	}
	return claims.ID, claims.Subject, nil
}
