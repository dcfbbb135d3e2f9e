// Package credential assigns and hashes the initial credential of bulk-registered
// members.
//
// Every member created by a bulk upload receives the same configured placeholder.
// This is a known weakness pending a product decision on a per-member secret or
// a deferred activation flow.
package credential

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPlaceholder is used when no placeholder is configured.
const DefaultPlaceholder = "NADI@2024"

// Provider yields the credential assigned to a newly created member.
type Provider interface {
	Issue() (string, error)
}

// Static hands out the same placeholder to every member.
type Static string

func (s Static) Issue() (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", errors.New("initial credential is not configured")
	}
	return string(s), nil
}

// Hash returns the bcrypt digest stored as password_hash.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("credential must not be empty")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether secret matches a digest produced by Hash.
func Verify(secret, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(secret)) == nil
}
