// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents an account that can create, join, and guess in pools.
//
// There are two ways a User comes into existence:
//   - email/password signup (PasswordHash is set, GoogleID is empty)
//   - first Google login (GoogleID is set, PasswordHash is empty)
//
// The two identity fields are both nullable in the database, but a row is
// expected to have at least one of them set in steady state. GoogleID and
// Email each carry a UNIQUE constraint, so identity resolution can never
// produce two rows for the same credential.
//
// PasswordHash is the bcrypt output, never the plaintext, and it is never
// serialized to JSON.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"` // empty for Google-only accounts
	GoogleID     string    `json:"-"         db:"google_id"`     // Google's stable subject id, empty for local accounts
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
