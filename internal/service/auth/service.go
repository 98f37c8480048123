// internal/service/auth/service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hershield/internal/domain/identity"
)

// ErrInvalidCredentials is returned when login fails. Whether the email
// or the password was wrong is deliberately not distinguished.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Session is an opaque login token handed to the client. Sessions gate
// page navigation only; the presence core never consults them.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service implements registration and login over a user store, with an
// in-memory session table.
type Service struct {
	store identity.Store
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]Session
}

// NewService creates an auth service.
func NewService(store identity.Store, ttl time.Duration) *Service {
	return &Service{
		store:    store,
		ttl:      ttl,
		sessions: make(map[string]Session),
	}
}

// Register creates an account and returns a fresh session.
func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	if name == "" || email == "" || password == "" {
		return Session{}, fmt.Errorf("auth: name, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := identity.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return Session{}, err
	}

	return s.mintSession(user), nil
}

// Login verifies credentials and returns a fresh session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	return s.mintSession(user), nil
}

// Validate resolves a session token, pruning it when expired.
func (s *Service) Validate(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return Session{}, false
	}
	return session, true
}

func (s *Service) mintSession(user identity.User) Session {
	session := Session{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		Name:      user.Name,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()
	return session
}
