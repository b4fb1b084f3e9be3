package storage

import (
	"fmt"

	"github.com/goccy/go-json"

	"fined/internal/models"
)

// Key layout inside the store.
const (
	userKeyPrefix = "user:"
	sessionKey    = "session"
	languageKey   = "language"
)

// DefaultLanguage is returned when no language preference has been saved.
const DefaultLanguage = "en"

// Gateway maps user bundles, the session record and the language preference
// onto a Store. Writes are all-or-nothing per call: a bundle is serialized in
// full and written under a single key.
type Gateway struct {
	store Store
}

// NewGateway wraps store.
func NewGateway(store Store) *Gateway {
	return &Gateway{store: store}
}

// SaveBundle serializes the full bundle and stores it under the user's email.
func (g *Gateway) SaveBundle(email string, b *models.Bundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	return g.store.Set(userKeyPrefix+email, data)
}

// LoadBundle loads the bundle stored for email. A missing bundle returns
// ok=false with no error. A bundle that no longer decodes is treated the same
// as a missing one: corrupted data falls back to empty defaults instead of
// wedging the profile.
func (g *Gateway) LoadBundle(email string) (*models.Bundle, bool, error) {
	data, ok, err := g.store.Get(userKeyPrefix + email)
	if err != nil || !ok {
		return nil, false, err
	}

	// Pre-seed defaults so bundles written before a field existed still load
	// with the right values.
	b := models.Bundle{Settings: models.DefaultSettings()}
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, false, nil
	}
	return &b, true, nil
}

// HasUser reports whether a bundle exists for email, without decoding it.
func (g *Gateway) HasUser(email string) (bool, error) {
	_, ok, err := g.store.Get(userKeyPrefix + email)
	return ok, err
}

// DeleteBundle removes the bundle stored for email.
func (g *Gateway) DeleteBundle(email string) error {
	return g.store.Delete(userKeyPrefix + email)
}

// SaveSession stores s as the sole session record, replacing any previous one.
func (g *Gateway) SaveSession(s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return g.store.Set(sessionKey, data)
}

// LoadSession loads the persisted session record, if any. A record that does
// not decode is treated as absent.
func (g *Gateway) LoadSession() (*models.Session, bool, error) {
	data, ok, err := g.store.Get(sessionKey)
	if err != nil || !ok {
		return nil, false, err
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, nil
	}
	return &s, true, nil
}

// DeleteSession removes the session record.
func (g *Gateway) DeleteSession() error {
	return g.store.Delete(sessionKey)
}

// Language returns the saved language preference, or DefaultLanguage when
// none is stored or the store cannot be read.
func (g *Gateway) Language() string {
	data, ok, err := g.store.Get(languageKey)
	if err != nil || !ok || len(data) == 0 {
		return DefaultLanguage
	}
	return string(data)
}

// SetLanguage saves the language preference.
func (g *Gateway) SetLanguage(code string) error {
	return g.store.Set(languageKey, []byte(code))
}

// Close closes the underlying store.
func (g *Gateway) Close() error {
	return g.store.Close()
}
