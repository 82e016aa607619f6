package domain

import (
	"fmt"
	"time"
)

// User represents an authenticated caller. The user id namespaces the
// result cache so results never leak across accounts.
type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// ValidateUser validates a User instance
func ValidateUser(u *User) error {
	if u == nil {
		return fmt.Errorf("user cannot be nil")
	}

	if u.ID == "" {
		return fmt.Errorf("user ID is required")
	}

	if u.Name == "" {
		return fmt.Errorf("user Name is required")
	}

	return nil
}
