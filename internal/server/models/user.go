// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a credential record. UserName is the primary key and never
// changes; PasswordHash is argon2id(password, Salt).
type User struct {
	UserName     string
	PasswordHash []byte
	Salt         []byte
	CreatedAt    time.Time
}
