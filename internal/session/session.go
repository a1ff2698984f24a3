package session

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient  Role = "client"
	RoleStylist Role = "stylist"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleStylist, RoleAdmin:
		return true
	}
	return false
}

// Actor is whoever is driving the current request.
type Actor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone"`
	Role    Role   `json:"role"`
	IsGuest bool   `json:"is_guest,omitempty"`
}

var ErrInvalidCredentials = errors.New("invalid credentials")

// Login is the mock identity provider: the role is derived from the email address.
// The password is accepted as long as it is not empty.
func Login(email, password string) (Actor, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Actor{}, ErrInvalidCredentials
	}

	lower := strings.ToLower(email)
	actor := Actor{
		ID:    "client1",
		Name:  "Demo Client",
		Email: email,
		Phone: "+56912345678",
		Role:  RoleClient,
	}
	switch {
	case strings.Contains(lower, "admin"):
		actor.ID, actor.Name, actor.Role = "admin1", "Administrator", RoleAdmin
	case strings.Contains(lower, "stylist"), strings.Contains(lower, "peluquero"):
		actor.ID, actor.Name, actor.Role = "1", "Demo Stylist", RoleStylist
	}
	return actor, nil
}

func Register(name, email, phone, password string) (Actor, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if name == "" || email == "" || phone == "" || password == "" {
		return Actor{}, ErrInvalidCredentials
	}
	return Actor{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
		Phone: phone,
		Role:  RoleClient,
	}, nil
}

func Guest(name, phone string) (Actor, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return Actor{}, ErrInvalidCredentials
	}
	return Actor{
		ID:      "guest_" + uuid.NewString(),
		Name:    name,
		Phone:   phone,
		Role:    RoleClient,
		IsGuest: true,
	}, nil
}

type contextKey string

const actorKey contextKey = "session_actor"

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// FromContext returns the actor attached by the HTTP session middleware, if any.
func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}
