// Package authn implements the single-pair HTTP Basic credential check
// described in spec §4.9: constant-time comparison, independent of which
// leading bytes of the submitted credentials happen to match.
package authn

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// Credentials is the single configured (username, password) pair — spec §3
// (non-goal: no user management beyond this one pair).
type Credentials struct {
	Username string
	Password string
}

// Authenticator verifies HTTP Basic credentials against a fixed pair.
type Authenticator struct {
	usernameHash [sha256.Size]byte
	passwordHash [sha256.Size]byte
}

// New builds an Authenticator for creds.
func New(creds Credentials) *Authenticator {
	return &Authenticator{
		usernameHash: sha256.Sum256([]byte(creds.Username)),
		passwordHash: sha256.Sum256([]byte(creds.Password)),
	}
}

// Verify reports whether username and password match the configured pair.
// Both are hashed to a fixed-length digest before comparison so the
// decision time does not depend on the length or prefix of the submitted
// values — only subtle.ConstantTimeCompare ever touches the digests.
func (a *Authenticator) Verify(username, password string) bool {
	uh := sha256.Sum256([]byte(username))
	ph := sha256.Sum256([]byte(password))
	userOK := subtle.ConstantTimeCompare(uh[:], a.usernameHash[:]) == 1
	passOK := subtle.ConstantTimeCompare(ph[:], a.passwordHash[:]) == 1
	// & (not &&) so both comparisons always run, regardless of the first
	// result — a short-circuiting && would let failure on username alone
	// finish faster than failure on password alone.
	return (boolToInt(userOK) & boolToInt(passOK)) == 1
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ParseBasicHeader decodes an "Authorization: Basic <base64>" header value
// into its username and password. ok is false for any malformed header.
func ParseBasicHeader(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return "", "", false
	}
	user, pass, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	return user, pass, true
}
