// internal/domain/identity/identity.go

package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("identity: user not found")

	// ErrDuplicateEmail is returned when registering an email that is
	// already taken.
	ErrDuplicateEmail = errors.New("identity: email already registered")
)

// User represents a registered account. Accounts only gate page
// navigation; the presence core never consults them — connection
// identities are ephemeral and unrelated to user IDs.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Store persists user accounts.
type Store interface {
	// CreateUser inserts a new account. Returns ErrDuplicateEmail if
	// the email is taken.
	CreateUser(ctx context.Context, user User) error

	// UserByEmail retrieves an account by email. Returns ErrNotFound
	// if absent.
	UserByEmail(ctx context.Context, email string) (User, error)
}
