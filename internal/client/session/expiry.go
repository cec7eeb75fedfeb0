package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can learn from a token without the signing
// key.
type TokenInfo struct {
	Username  string
	ExpiresAt time.Time
}

// DecodeToken reads the username and exp claims of a JWT without verifying
// its signature. ok is false for malformed tokens and tokens without exp.
func DecodeToken(token string) (TokenInfo, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return TokenInfo{}, false
	}

	info := TokenInfo{ExpiresAt: exp.Time}
	if u, ok := claims["username"].(string); ok {
		info.Username = u
	}
	return info, true
}

// ExpiryFromToken returns the exp claim of token as an absolute instant.
func ExpiryFromToken(token string) (time.Time, bool) {
	info, ok := DecodeToken(token)
	if !ok {
		return time.Time{}, false
	}
	return info.ExpiresAt, true
}
