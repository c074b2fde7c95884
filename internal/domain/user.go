package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is an integer-backed privilege level. Higher values carry more
// privilege; comparisons always go through AtLeast rather than relying on
// declaration order.
type Role int

const (
	RoleGuest Role = 0
	RoleUser  Role = 1
	RoleAdmin Role = 2
)

// RoleFromInt validates and converts a raw integer into a Role.
func RoleFromInt(v int) (Role, error) {
	switch Role(v) {
	case RoleGuest, RoleUser, RoleAdmin:
		return Role(v), nil
	default:
		return 0, fmt.Errorf("unrecognized role %d", v)
	}
}

// AtLeast reports whether r carries at least the privilege of minimum.
func (r Role) AtLeast(minimum Role) bool {
	return r >= minimum
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, err := RoleFromInt(int(r))
	return err == nil
}

func (r Role) String() string {
	switch r {
	case RoleGuest:
		return "guest"
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// User is the domain model for managed accounts.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Timezone       string    `json:"timezone"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
