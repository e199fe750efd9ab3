package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPassphraseLength is the longest passphrase bcrypt accepts.
const MaxPassphraseLength = 72

// ErrPassphraseTooLong is returned when a principal passphrase exceeds
// MaxPassphraseLength bytes.
var ErrPassphraseTooLong = errors.New("passphrase too long")

// PasswordHasher hashes and verifies principal passphrases.
type PasswordHasher interface {
	Hash(passphrase string) (string, error)
	Compare(hash string, passphrase string) error
}

// BcryptHasher stores principal passphrases as bcrypt digests.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with cost, falling back to
// bcrypt.DefaultCost when cost is outside bcrypt's range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(passphrase string) (string, error) {
	if len(passphrase) > MaxPassphraseLength {
		return "", ErrPassphraseTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(passphrase), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash passphrase: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Compare(hash string, passphrase string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase))
}
