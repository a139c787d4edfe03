//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

func passwordHashCost() int {
	// Race-enabled builds run slow enough to trip test timeouts at cost 14.
	return bcrypt.DefaultCost
}
