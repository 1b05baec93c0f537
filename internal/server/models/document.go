package models

import "time"

// Document is one named SVG drawing in an owner's namespace.
// (Owner, Name) is unique.
type Document struct {
	Owner string
	Name  string
	// Content holds the bytes inline. It is nil when StorageKey is set.
	Content []byte
	// StorageKey is the object-storage key of the content when the S3
	// blob backend is in use.
	StorageKey string
	UpdatedAt  time.Time
}
