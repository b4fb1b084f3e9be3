// Package storage persists user bundles, the session record and the language
// preference in an embedded key-value store. Three backends implement the
// same Store interface; the Gateway on top handles serialization and key
// layout.
package storage

// Store is a minimal key-value store. Get reports absence with the second
// return value rather than an error so callers can tell "no data" from a
// failing backend.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
