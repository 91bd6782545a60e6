// Package token signs and verifies the bearer tokens handed out at login.
// A token carries the session id in its jti claim; revocation happens by
// deleting the session row, so tokens have no expiry of their own.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned for tokens that are malformed, signed with another
// key or missing their claims.
var ErrInvalid = errors.New("invalid token")

const issuer = "tunecase"

// Claims is the JWT payload.
type Claims struct {
	jwt.RegisteredClaims
}

// Codec issues and parses HS256 tokens with a shared secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec returns a Codec using secret as the HMAC key.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for the session and user.
func (c *Codec) Issue(sessionID string, userID int64) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       sessionID,
			Subject:  strconv.FormatInt(userID, 10),
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(c.now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and returns the session id and user id it carries.
func (c *Codec) Parse(raw string) (sessionID string, userID int64, err error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil || !tok.Valid {
		return "", 0, ErrInvalid
	}
	if claims.ID == "" {
		return "", 0, ErrInvalid
	}

	userID, err = strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return "", 0, ErrInvalid
	}
	return claims.ID, userID, nil
}
