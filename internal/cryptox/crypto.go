// Package cryptox implements salted password hashing for the credential
// store.
package cryptox

import (
	"crypto/subtle"
	"errors"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// MinSaltLength is the smallest salt HashPassword accepts.
const MinSaltLength = 16

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLength uint32
	SaltLen   int
}

// DefaultArgon2Params follows the RFC 9106 second recommended option with a
// smaller memory footprint suited to an interactive login path.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4, KeyLength: 32, SaltLen: MinSaltLength}
}

var (
	ErrSaltTooShort  = errors.New("salt too short")
	ErrInvalidParams = errors.New("invalid argon2 parameters")
)

// Validate rejects parameter sets that would produce weak or empty hashes.
func (p Argon2Params) Validate() error {
	if p.Time == 0 || p.MemoryKiB < 8*uint32(p.Threads) || p.Threads == 0 || p.KeyLength < 16 {
		return ErrInvalidParams
	}
	if p.SaltLen < MinSaltLength {
		return ErrSaltTooShort
	}
	return nil
}

// NewSalt returns p.SaltLen random bytes.
func (p Argon2Params) NewSalt() []byte {
	return common.GenerateRandByteArray(p.SaltLen)
}

// HashPassword derives the argon2id key for password and salt.
func HashPassword(password, salt []byte, p Argon2Params) ([]byte, error) {
	if len(salt) < MinSaltLength {
		return nil, ErrSaltTooShort
	}
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLength), nil
}

// CheckPassword recomputes the hash with the stored salt and compares it
// with the stored hash in constant time.
func CheckPassword(password, salt, hash []byte, p Argon2Params) bool {
	candidate, err := HashPassword(password, salt, p)
	if err != nil {
		return false
	}
	defer common.WipeByteArray(candidate)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}
