package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid session token")

type claims struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone"`
	Role    Role   `json:"role"`
	IsGuest bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(actor Actor) (string, error) {
	now := i.now()
	c := claims{
		Name:    actor.Name,
		Email:   actor.Email,
		Phone:   actor.Phone,
		Role:    actor.Role,
		IsGuest: actor.IsGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (i *Issuer) Parse(raw string) (Actor, error) {
	var c claims
	parser := jwt.Parser{}
	token, err := parser.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return Actor{}, ErrInvalidToken
	}
	if c.Subject == "" || !c.Role.Valid() {
		return Actor{}, ErrInvalidToken
	}
	return Actor{
		ID:      c.Subject,
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Role:    c.Role,
		IsGuest: c.IsGuest,
	}, nil
}
