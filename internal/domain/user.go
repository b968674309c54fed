package domain

import "time"

// User is the domain model for end-users who submit support queries.
// Records are immutable after registration; the plaintext password is
// never stored or recoverable.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
}
