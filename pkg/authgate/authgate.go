// Package authgate is the optional secondary approval step in front of
// sensitive actions. The factor itself is pluggable; the gate only decides
// whether an action may proceed and fails closed on anything unexpected.
package authgate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"cryptrail/pkg/logger"
	"cryptrail/pkg/storage"
)

// ErrAuthDenied covers every way an approval can fail: declined, timed out,
// or the factor errored. Callers treat them all the same.
var ErrAuthDenied = errors.New("authorization denied")

// Actions that can be gated.
const (
	ActionUnlock = "unlock"
	ActionSend   = "send"
)

// Authenticator is the pluggable secondary factor.
type Authenticator interface {
	// Register enrolls the factor for the address and returns an opaque
	// credential id to persist.
	Register(ctx context.Context, address string) (string, error)
	// Verify prompts for the factor and reports whether it approved.
	Verify(ctx context.Context, credentialID, action string) (bool, error)
}

// binding is the persisted enrollment record. It is bound to one wallet
// address so a re-imported wallet never inherits a stale factor.
type binding struct {
	Address      string    `json:"address"`
	CredentialID string    `json:"credentialId"`
	EnrolledAt   time.Time `json:"enrolledAt"`
}

// Gate wraps an Authenticator with enrollment state and a timeout.
type Gate struct {
	mu      sync.Mutex
	store   storage.Store
	auth    Authenticator
	timeout time.Duration
	bound   *binding
}

// Open loads any persisted enrollment. The binding only counts when it
// belongs to the given address; a foreign one is dropped immediately.
func Open(store storage.Store, auth Authenticator, timeout time.Duration, address string) *Gate {
	g := &Gate{store: store, auth: auth, timeout: timeout}
	var b binding
	if storage.LoadJSON(store, storage.KeyAuthBinding, &b) {
		if strings.EqualFold(b.Address, address) {
			g.bound = &b
		} else {
			_ = store.Remove(storage.KeyAuthBinding)
			logger.Vault.Info().Msg("dropped auth binding for foreign address")
		}
	}
	return g
}

// Enabled reports whether a factor is enrolled.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bound != nil
}

// Enable enrolls the factor for the address and persists the binding.
func (g *Gate) Enable(ctx context.Context, address string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	credentialID, err := g.auth.Register(ctx, address)
	if err != nil {
		return ErrAuthDenied
	}
	b := &binding{Address: address, CredentialID: credentialID, EnrolledAt: time.Now().UTC()}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := storage.SaveJSON(g.store, storage.KeyAuthBinding, b); err != nil {
		return err
	}
	g.bound = b
	return nil
}

// Disable removes the enrollment.
func (g *Gate) Disable() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bound = nil
	return g.store.Remove(storage.KeyAuthBinding)
}

// Approve runs the factor for an action. With no enrollment it approves
// immediately; otherwise anything but a clean positive verify denies.
func (g *Gate) Approve(ctx context.Context, action string) error {
	g.mu.Lock()
	bound := g.bound
	g.mu.Unlock()
	if bound == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ok, err := g.auth.Verify(ctx, bound.CredentialID, action)
	if err != nil || !ok {
		logger.Vault.Warn().Str("action", action).Err(err).Msg("authorization denied")
		return ErrAuthDenied
	}
	return nil
}

// NoopAuthenticator approves everything. Used where no platform factor is
// available, keeping the gate wiring uniform.
type NoopAuthenticator struct{}

func (NoopAuthenticator) Register(ctx context.Context, address string) (string, error) {
	return "local", nil
}

func (NoopAuthenticator) Verify(ctx context.Context, credentialID, action string) (bool, error) {
	return true, nil
}
