// Package sessions keeps the process-local mapping from opaque session
// tokens to usernames.
package sessions

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
)

// TokenBytes is the amount of randomness in a token (256 bits).
const TokenBytes = 32

const maxIssueAttempts = 8

var (
	ErrClosed         = errors.New("session registry closed")
	ErrTokenCollision = errors.New("could not generate unique session token")
)

// Option configures a Registry.
type Option func(*Registry)

// WithTokenGenerator replaces the crypto/rand token source.
func WithTokenGenerator(gen func() (string, error)) Option {
	return func(r *Registry) { r.newToken = gen }
}

// Registry maps tokens to usernames. All methods are safe for concurrent
// use. A username may hold any number of tokens.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]string
	closed   bool
	newToken func() (string, error)
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]string),
		newToken: func() (string, error) { return common.MakeRandHexString(TokenBytes) },
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Issue creates a new session for username. An existing mapping is never
// overwritten; on collision a new token is drawn.
func (r *Registry) Issue(username string) (string, error) {
	if username == "" {
		return "", common.ErrorValidation
	}

	for range maxIssueAttempts {
		token, err := r.newToken()
		if err != nil {
			return "", fmt.Errorf("token generation: %w", err)
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return "", ErrClosed
		}
		if _, taken := r.sessions[token]; !taken && token != "" {
			r.sessions[token] = username
			r.mu.Unlock()
			return token, nil
		}
		r.mu.Unlock()
	}
	return "", ErrTokenCollision
}

// Resolve returns the username bound to token.
func (r *Registry) Resolve(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.sessions[token]
	return u, ok
}

// Revoke removes token. Unknown tokens are ignored.
func (r *Registry) Revoke(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close drops all sessions. Subsequent Issue calls fail with ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	r.sessions = make(map[string]string)
	r.closed = true
	r.mu.Unlock()
}
