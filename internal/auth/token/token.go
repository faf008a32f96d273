// Package token signs and validates the bearer tokens that reference admin
// sessions.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "safenest/pkg/domain"
	dErrors "safenest/pkg/domain-errors"
)

const issuer = "safenest"

// Claims is the JWT payload. The session store is the source of truth; the
// token only says which session to load.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type Signer struct {
	signingKey []byte
}

func NewSigner(signingKey string) *Signer {
	return &Signer{signingKey: []byte(signingKey)}
}

// Issue signs an HS256 token for the session, expiring with it.
func (s *Signer) Issue(sessionID id.SessionID, email string, issuedAt, expiresAt time.Time) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})
	return t.SignedString(s.signingKey)
}

// Parse validates the signature and expiry and returns the session ID.
func (s *Signer) Parse(tokenString string) (id.SessionID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return id.SessionID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return sessionID, nil
}
