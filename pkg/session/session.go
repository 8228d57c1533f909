// Package session stores API credentials between CLI runs.
//
// A [Session] holds a personal access token and the verified account it
// belongs to, with an expiry after which the CLI re-prompts for login.
// Sessions are stored as JSON files under ~/.config/boxwood/sessions/ by
// the [FileStore]; [CLIStore] wraps it for the single-session CLI case.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/quellt/boxwood/pkg/figma"
)

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// Session stores an authenticated token and its verified account.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      *figma.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
	CreatedAt time.Time   `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// UserID returns a storage-compatible account identifier, namespaced by
// provider ("figma:{id}"). Cache key scoping uses this format.
func (s *Session) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return "figma:" + s.User.ID
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID. Returns nil, nil when the session does
	// not exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}

// GenerateID creates a cryptographically secure random session ID.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// New creates a session for a verified token.
func New(token string, user *figma.User, ttl time.Duration) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:        id,
		Token:     token,
		User:      user,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}
