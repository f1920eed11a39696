// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a member profile on the platform.
//
// The ID is the identity provider's stable identifier — the users table is
// keyed by it, so a confirmed identity maps to exactly one profile row and
// concurrent profile creation collapses into a single INSERT (the second one
// hits the primary-key constraint and is treated as "already exists").
//
// Username is unique and doubles as the routing key for profile pages.
// Avatar, Bio, Location, and Website are optional — absent columns come back
// as empty strings from the transform layer, never as nulls that callers
// have to guard against.
type User struct {
	ID          string    `json:"id"          db:"id"`
	Username    string    `json:"username"    db:"username"`
	Email       string    `json:"email"       db:"email"`
	FullName    string    `json:"fullName"    db:"full_name"`
	Avatar      string    `json:"avatar,omitempty"   db:"avatar_url"`
	Bio         string    `json:"bio,omitempty"      db:"bio"`
	Location    string    `json:"location,omitempty" db:"location"`
	Website     string    `json:"website,omitempty"  db:"website"`
	JoinedAt    time.Time `json:"joinedAt"    db:"joined_at"`
	Followers   int       `json:"followers"   db:"followers"`
	Following   int       `json:"following"   db:"following"`
	PublicRepos int       `json:"publicRepos" db:"public_repos"`
	IsVerified  bool      `json:"isVerified"  db:"is_verified"`
}
