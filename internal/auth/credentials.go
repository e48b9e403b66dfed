// Package auth hashes and verifies passwords and issues session tokens.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a password does not match its hash.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialVerifier turns passwords into stored hashes and checks them.
type CredentialVerifier interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// BcryptVerifier stores passwords as bcrypt hashes.
type BcryptVerifier struct {
	Cost int
}

func NewBcryptVerifier() BcryptVerifier {
	return BcryptVerifier{Cost: bcrypt.DefaultCost}
}

func (v BcryptVerifier) Hash(password string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (v BcryptVerifier) Verify(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
