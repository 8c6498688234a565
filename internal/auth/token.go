package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marviero/backoffice/internal/domain"
)

// Purpose restricts where a token may be presented.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
	PurposeSocket  Purpose = "socket"
)

// Token verification errors.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the anonymous token payload. It deliberately carries no user ID,
// email, or role: the subject is located by the updated_at snapshot alone,
// so a claim set says nothing useful on its own and any change to the row
// invalidates every outstanding token.
type Claims struct {
	UpdatedAt int64           `json:"uat"`
	Type      domain.UserType `json:"type"`
	Purpose   Purpose         `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the three token purposes with one HS256
// secret and per-purpose expiries.
type TokenIssuer struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	socketExpiry  time.Duration
}

// NewTokenIssuer creates an issuer with the given secret and expiries.
func NewTokenIssuer(secret string, accessExpiry, refreshExpiry, socketExpiry time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		socketExpiry:  socketExpiry,
	}
}

// SignAccessToken signs a short-lived access token for the given subject.
// updatedAt must be the subject row's updated_at exactly as stored.
func (iss *TokenIssuer) SignAccessToken(updatedAt time.Time, utype domain.UserType) (string, error) {
	return iss.sign(updatedAt, utype, PurposeAccess, iss.accessExpiry)
}

// SignRefreshToken signs a long-lived refresh token.
func (iss *TokenIssuer) SignRefreshToken(updatedAt time.Time, utype domain.UserType) (string, error) {
	return iss.sign(updatedAt, utype, PurposeRefresh, iss.refreshExpiry)
}

// SignSocketToken signs a token accepted only by the realtime gates.
func (iss *TokenIssuer) SignSocketToken(updatedAt time.Time, utype domain.UserType) (string, error) {
	return iss.sign(updatedAt, utype, PurposeSocket, iss.socketExpiry)
}

func (iss *TokenIssuer) sign(updatedAt time.Time, utype domain.UserType, purpose Purpose, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UpdatedAt: updatedAt.UnixMilli(),
		Type:      utype,
		Purpose:   purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(iss.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return signed, nil
}

// Verify parses and validates a token of any purpose. Expired tokens return
// ErrTokenExpired; everything else that fails returns ErrInvalidToken so
// callers cannot leak parse details to the client.
func (iss *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return iss.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !domain.IsValidUserType(string(claims.Type)) {
		return nil, ErrInvalidToken
	}
	switch claims.Purpose {
	case PurposeAccess, PurposeRefresh, PurposeSocket:
	default:
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SnapshotTime reconstructs the updated_at value the token was signed
// against.
func (c *Claims) SnapshotTime() time.Time {
	return time.UnixMilli(c.UpdatedAt).UTC()
}
