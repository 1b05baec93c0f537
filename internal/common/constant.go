package common

// Input limits shared by the router and the services.
const (
	MaxUserNameLength = 64
	MaxPasswordLength = 1024
	MaxFileNameLength = 255
)

// DefaultMaxMessageBytes caps a single inbound frame on every transport.
const DefaultMaxMessageBytes = 8 << 20
