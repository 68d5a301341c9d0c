// Package model defines the data structures shared by the storage, service
// and HTTP layers.
package model

import (
	"strings"
	"time"
)

// User is the identity anchor. Users are created by the first webhook that
// carries a resolvable email or by the first successful OAuth login, and the
// system never deletes them.
//
// Email and Name are pointers because both are genuinely optional: an OAuth
// identity may come without an email, and a webhook may come without a name.
// Email, when present, is unique and stored normalized (see NormalizeEmail).
type User struct {
	ID        string    `json:"id"`
	Email     *string   `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// DisplayEmail returns the email or "" when the user has none.
func (u *User) DisplayEmail() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// NormalizeEmail trims and lower-cases an email address. An empty result
// means "no email".
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuthProvider links an external identity (provider + subject) to one User.
// The pair is the primary key; deleting the user cascades to its links.
type AuthProvider struct {
	Provider    string    `json:"provider"`
	Subject     string    `json:"subject"`
	UserID      string    `json:"userId"`
	EmailAtLink *string   `json:"emailAtLink"`
	LastLoginAt time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ExternalIdentity is what a provider tells us about a person after its token
// has been verified.
type ExternalIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}
