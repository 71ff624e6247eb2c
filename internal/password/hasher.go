// Package password turns plaintext passwords into opaque digests and checks
// them back. Callers only ever see the Hasher interface.
package password

import (
	"fmt"
	"strings"
)

// Hasher is the opaque hashing capability used by the flow controllers.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(digest, plain string) bool
}

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// New returns a Hasher that produces digests with the named algorithm and
// verifies digests from either supported algorithm, so switching
// PASSWORD_HASHER does not lock out existing accounts.
func New(algorithm string) (Hasher, error) {
	bc := NewBcrypt(0)
	a2 := NewArgon2id(DefaultArgon2Params())

	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmBcrypt:
		return &dispatcher{primary: bc, bcrypt: bc, argon2: a2}, nil
	case AlgorithmArgon2id:
		return &dispatcher{primary: a2, bcrypt: bc, argon2: a2}, nil
	default:
		return nil, fmt.Errorf("unsupported password hasher %q", algorithm)
	}
}

type dispatcher struct {
	primary Hasher
	bcrypt  *Bcrypt
	argon2  *Argon2id
}

func (d *dispatcher) Hash(plain string) (string, error) {
	return d.primary.Hash(plain)
}

func (d *dispatcher) Verify(digest, plain string) bool {
	if strings.HasPrefix(digest, "$"+argon2ID+"$") {
		return d.argon2.Verify(digest, plain)
	}
	return d.bcrypt.Verify(digest, plain)
}
