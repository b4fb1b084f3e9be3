package models

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Credential is the stored password verifier. Exactly one representation is
// populated:
//
//   - Bcrypt: a bcrypt hash, the only format written for new or updated
//     credentials.
//   - Hash/Salt: the salted rolling-hash format imported from earlier data.
//   - Plain: the base64-obfuscated format imported from the earliest data.
//
// The two imported formats are accepted for verification only; saving a
// credential always produces the bcrypt form.
type Credential struct {
	Bcrypt string
	Hash   string
	Salt   string
	Plain  string
}

// saltedCredential is the wire form of the imported hash+salt format.
type saltedCredential struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}

// IsZero reports whether no credential is stored.
func (c Credential) IsZero() bool {
	return c.Bcrypt == "" && c.Hash == "" && c.Plain == ""
}

// MarshalJSON writes the credential in the same shape it was loaded in:
// strings stay strings, the hash+salt pair stays an object.
func (c Credential) MarshalJSON() ([]byte, error) {
	switch {
	case c.Bcrypt != "":
		return json.Marshal(c.Bcrypt)
	case c.Hash != "":
		return json.Marshal(saltedCredential{Hash: c.Hash, Salt: c.Salt})
	case c.Plain != "":
		return json.Marshal(c.Plain)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts all three persisted credential shapes.
func (c *Credential) UnmarshalJSON(data []byte) error {
	*c = Credential{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode credential: %w", err)
		}
		if strings.HasPrefix(s, "$2") {
			c.Bcrypt = s
		} else {
			c.Plain = s
		}
		return nil
	}

	var sc saltedCredential
	if err := json.Unmarshal(data, &sc); err != nil {
		return fmt.Errorf("decode credential: %w", err)
	}
	c.Hash = sc.Hash
	c.Salt = sc.Salt
	return nil
}
