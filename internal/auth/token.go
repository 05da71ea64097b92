package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the user claim decoded from a validated token. It is fixed
// for the lifetime of whatever connection or request carries it.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

var (
	ErrMissingToken = errors.New("authentication error: no token")
	ErrInvalidToken = errors.New("authentication error: invalid token")
)

// Verifier issues and validates the HS256 bearer tokens handed out at
// login. It holds no per-request state; both operations are safe to retry.
type Verifier struct {
	secret []byte
	ttl    time.Duration
}

func NewVerifier(secret string, ttl time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token embedding the identity claim.
func (v *Verifier) Issue(id Identity) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id.ID,
		"username": id.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(v.ttl).Unix(),
	})
	return tok.SignedString(v.secret)
}

// Authenticate validates signature and expiry of a raw bearer token and
// decodes the embedded identity.
func (v *Verifier) Authenticate(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrMissingToken
	}

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}

	id, ok := claims["id"].(float64) // JSON numbers decode as float64
	username, _ := claims["username"].(string)
	if !ok || username == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: int64(id), Username: username}, nil
}
