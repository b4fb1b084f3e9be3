// Package session manages the single active login session. There is exactly
// one session slot: creating a session replaces whatever was there, and
// expiry is detected lazily on validation rather than by a background timer.
package session

import (
	"fmt"
	"time"

	"fined/internal/auth"
	"fined/internal/models"
	"fined/internal/storage"
)

// Lifetime is how long a session stays valid after creation.
const Lifetime = 24 * time.Hour

// Manager persists and validates the session record.
type Manager struct {
	gateway *storage.Gateway
	now     func() time.Time
}

// NewManager creates a session manager on top of the gateway.
func NewManager(gateway *storage.Gateway) *Manager {
	return &Manager{gateway: gateway, now: time.Now}
}

// Create issues a new session for userID and persists it as the sole active
// session, replacing any previous one.
func (m *Manager) Create(userID, authMethod string) (*models.Session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &models.Session{
		SessionID:  token,
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(Lifetime),
		AuthMethod: authMethod,
	}
	if err := m.gateway.SaveSession(s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Validate returns the active session, if any. A record that is absent,
// missing required fields or past its expiry yields (nil, false); an expired
// record is additionally cleared from the store.
func (m *Manager) Validate() (*models.Session, bool) {
	s, ok, err := m.gateway.LoadSession()
	if err != nil || !ok {
		return nil, false
	}
	if s.SessionID == "" || s.UserID == "" || s.ExpiresAt.IsZero() {
		return nil, false
	}
	if m.now().After(s.ExpiresAt) {
		_ = m.gateway.DeleteSession()
		return nil, false
	}
	return s, true
}

// Clear removes the persisted session record.
func (m *Manager) Clear() error {
	return m.gateway.DeleteSession()
}
