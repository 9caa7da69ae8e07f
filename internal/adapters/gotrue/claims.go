package gotrue

import (
	"errors"
	"fmt"
	"time"

	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/golang-jwt/jwt/v5"
)

// accessClaims is the claim shape GoTrue puts in its HS256 access tokens.
// session_id identifies the server-side session; it survives token refreshes,
// which is what lets the state machine tell a refresh from a new sign-in.
type accessClaims struct {
	SessionID    string `json:"session_id"`
	Email        string `json:"email"`
	UserMetadata struct {
		IsSuperAdmin bool `json:"is_super_admin"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// parseAccessToken verifies raw against secret and maps its claims onto a
// session. The refresh token is carried alongside so the refresh loop can
// rotate the pair as a unit.
func parseAccessToken(raw, refreshToken string, secret []byte) (*domainauth.Session, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("access token missing sub claim")
	}
	sessionID := claims.SessionID
	if sessionID == "" {
		sessionID = claims.ID
	}
	if sessionID == "" {
		return nil, errors.New("access token missing session_id claim")
	}

	expiresAt := time.Now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &domainauth.Session{
		ID:           sessionID,
		UserID:       claims.Subject,
		Email:        claims.Email,
		AccessToken:  raw,
		RefreshToken: refreshToken,
		SuperAdmin:   claims.UserMetadata.IsSuperAdmin,
		ExpiresAt:    expiresAt,
	}, nil
}
