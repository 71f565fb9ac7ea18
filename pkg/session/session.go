// Package session wires the wallet's persistent pieces together and owns the
// lifecycle actions that cut across them: completing setup, switching
// networks, and the full reset.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"cryptrail/pkg/authgate"
	"cryptrail/pkg/balance"
	"cryptrail/pkg/chains"
	"cryptrail/pkg/ledger"
	"cryptrail/pkg/logger"
	"cryptrail/pkg/storage"
	"cryptrail/pkg/vault"
)

// ErrLastTracked guards the tracked-token list from becoming empty.
var ErrLastTracked = errors.New("cannot untrack the last token")

// Session is the assembled wallet state for one device.
type Session struct {
	Store     storage.Store
	Vault     *vault.Vault
	Gate      *authgate.Gate
	Snapshots *balance.SnapshotStore
	Ledger    *ledger.Ledger
	Contacts  *ledger.Contacts

	mu      sync.Mutex
	tracked []string
}

// Open assembles a session from the store. The auth gate and snapshots bind
// to whatever address the vault currently holds, which may be none.
func Open(store storage.Store, auth authgate.Authenticator, authTimeout time.Duration) (*Session, error) {
	v, err := vault.Open(store)
	if err != nil {
		return nil, err
	}
	address := v.Address()

	s := &Session{
		Store:     store,
		Vault:     v,
		Gate:      authgate.Open(store, auth, authTimeout, address),
		Snapshots: balance.OpenSnapshots(store, address),
		Ledger:    ledger.Open(store),
		Contacts:  ledger.OpenContacts(store),
	}

	var saved []string
	storage.LoadJSON(store, storage.KeyTrackedTokens, &saved)
	s.tracked = chains.SanitizeTrackedIDs(saved)
	return s, nil
}

// Unlock runs the secondary factor before the passcode touches the vault;
// a denial aborts without attempting decryption.
func (s *Session) Unlock(ctx context.Context, passcode string) error {
	if err := s.Gate.Approve(ctx, authgate.ActionUnlock); err != nil {
		return err
	}
	return s.Vault.Unlock(passcode)
}

// Network resolves the active network, falling back to the default when the
// saved id is stale or the vault is empty.
func (s *Session) Network() *chains.Network {
	return chains.ResolveSaved(s.Vault.NetworkID())
}

// SwitchNetwork persists a new active network.
func (s *Session) SwitchNetwork(id string) error {
	network, ok := chains.ByID(id)
	if !ok {
		return errors.New("unknown network " + id)
	}
	return s.Vault.SetNetworkID(network.ID)
}

// CompleteSetup seals the prepared key into the vault and rebinds the
// per-address state. Any factor enrolled for a previous wallet is dropped,
// and stale balance snapshots never diff against the new address.
func (s *Session) CompleteSetup(setup *vault.Setup, networkID string) error {
	if err := setup.Seal(s.Vault, networkID); err != nil {
		return err
	}
	address := s.Vault.Address()
	if err := s.Gate.Disable(); err != nil {
		return err
	}
	if err := s.Snapshots.Rebind(address); err != nil {
		return err
	}
	logger.Vault.Info().Str("address", address).Msg("setup complete")
	return nil
}

// Reset erases the vault, the factor enrollment, and the balance snapshots.
// Activity history and contacts survive; they hold no key material.
func (s *Session) Reset() error {
	if err := s.Vault.Reset(); err != nil {
		return err
	}
	if err := s.Gate.Disable(); err != nil {
		return err
	}
	if err := s.Snapshots.Clear(); err != nil {
		return err
	}
	logger.Vault.Info().Msg("wallet reset")
	return nil
}

// TrackedTokenIDs returns the tracked coin ids.
func (s *Session) TrackedTokenIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tracked...)
}

// TrackedOn resolves the tracked set against a network.
func (s *Session) TrackedOn(networkID string) []chains.NetworkToken {
	return chains.TrackedOn(networkID, s.TrackedTokenIDs())
}

// ToggleTracked adds or removes a token from the tracked set. The last
// remaining token cannot be removed. Unknown ids are ignored by sanitize.
func (s *Session) ToggleTracked(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]string, 0, len(s.tracked)+1)
	removed := false
	for _, existing := range s.tracked {
		if existing == id {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if removed && len(kept) == 0 {
		return ErrLastTracked
	}
	if !removed {
		kept = chains.SanitizeTrackedIDs(append(kept, id))
	}
	s.tracked = kept
	return storage.SaveJSON(s.Store, storage.KeyTrackedTokens, s.tracked)
}
