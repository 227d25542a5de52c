package users

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const legacyHashLen = sha256.Size * 2

// HashPassword returns the bcrypt hash stored for password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// verifyPassword checks password against stored. rehash is true when stored
// is an unsalted sha256 digest that should be replaced with bcrypt.
func verifyPassword(stored, password string) (ok, rehash bool, err error) {
	if isLegacyHash(stored) {
		sum := sha256.Sum256([]byte(password))
		ok = subtle.ConstantTimeCompare([]byte(stored), []byte(hex.EncodeToString(sum[:]))) == 1
		return ok, ok, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, false, nil
}

func isLegacyHash(s string) bool {
	if len(s) != legacyHashLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
