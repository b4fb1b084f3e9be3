// Package auth hashes and verifies passwords and generates session tokens.
//
// New credentials are always bcrypt. Two older formats are still accepted for
// verification so profiles written by earlier versions keep working: a plain
// base64 encoding of the password, and a salted rolling hash. Neither legacy
// format offers real protection (the rolling hash is trivially collidable and
// base64 is reversible); a successful legacy login should be followed by a
// rehash to bcrypt.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode/utf16"

	"golang.org/x/crypto/bcrypt"

	"fined/internal/models"
)

const saltLength = 26

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (models.Credential, error) {
	if password == "" {
		return models.Credential{}, fmt.Errorf("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Credential{}, fmt.Errorf("hash password: %w", err)
	}
	return models.Credential{Bcrypt: string(hash)}, nil
}

// CheckPassword reports whether password matches the stored credential.
func CheckPassword(password string, cred models.Credential) bool {
	switch {
	case cred.Bcrypt != "":
		return bcrypt.CompareHashAndPassword([]byte(cred.Bcrypt), []byte(password)) == nil
	case cred.Hash != "":
		return legacyHash(password+cred.Salt) == cred.Hash
	case cred.Plain != "":
		return base64.StdEncoding.EncodeToString([]byte(password)) == cred.Plain
	default:
		return false
	}
}

// NeedsRehash reports whether the credential is in a legacy format and should
// be replaced with a bcrypt hash after a successful verification.
func NeedsRehash(cred models.Credential) bool {
	return cred.Bcrypt == "" && !cred.IsZero()
}

// LegacyHashPassword produces the salted rolling-hash credential format. It
// exists only to mirror data written by earlier versions; never use it for
// new credentials.
func LegacyHashPassword(password string) (models.Credential, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return models.Credential{}, err
	}
	return models.Credential{Hash: legacyHash(password + salt), Salt: salt}, nil
}

// legacyHash folds each UTF-16 code unit of s into a signed 32-bit
// accumulator (h*31 + code, wrapping) and returns the decimal string. This
// reproduces the hash earlier versions stored.
func legacyHash(s string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(u)
	}
	return strconv.FormatInt(int64(h), 10)
}

// GenerateSalt returns a random alphanumeric salt.
func GenerateSalt() (string, error) {
	raw := make([]byte, saltLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	salt := make([]byte, saltLength)
	for i, b := range raw {
		salt[i] = base36[int(b)%len(base36)]
	}
	return string(salt), nil
}

// GenerateSessionToken returns an opaque random session token.
func GenerateSessionToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
