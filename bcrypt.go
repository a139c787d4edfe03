package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// CompareLegacyPasswordAndHash validates rows imported from the old site,
// which stored hex(sha256(salt + password)) with a separate salt column.
func CompareLegacyPasswordAndHash(password, salt, hash string) error {
	sum := sha256.Sum256([]byte(salt + password))
	if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(hash)) != 1 {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

// VerifyUserPassword checks password against the user's stored credentials.
// Rows with a salt are legacy imports; everything else is bcrypt.
func VerifyUserPassword(user *User, password string) error {
	if user == nil || user.PasswordHash == "" {
		return ErrMismatchedHashAndPassword
	}

	if user.PasswordSalt != "" {
		return CompareLegacyPasswordAndHash(password, user.PasswordSalt, user.PasswordHash)
	}

	return ComparePasswordAndHash(password, user.PasswordHash)
}

// RandomPasswordHash is a temporary password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
