// Package vault owns the encrypted wallet secret: its lifecycle state
// machine, passcode-gated decryption, and the in-memory signer that exists
// only between unlock and lock.
package vault

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"sync"
	"time"

	"cryptrail/pkg/logger"
	"cryptrail/pkg/storage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Provenance records how the vault's key entered the device.
type Provenance string

const (
	ProvenanceCreate        Provenance = "create"
	ProvenanceImportPhrase  Provenance = "import-phrase"
	ProvenanceImportPrivate Provenance = "import-private"
)

const recordVersion = 1

var passcodeRule = regexp.MustCompile(`^\d{6}$`)

// Record is the persisted vault schema. The secret inside EncryptedSecret is
// never decrypted at rest, only transiently after a successful unlock.
type Record struct {
	Version         int             `json:"version"`
	Address         string          `json:"address"`
	EncryptedSecret json.RawMessage `json:"encryptedSecret"`
	NetworkID       string          `json:"networkId"`
	Provenance      Provenance      `json:"provenance"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// secretPayload is the plaintext inside the sealed blob. The phrase is kept
// for phrase-based vaults so it can be re-derived on other devices.
type secretPayload struct {
	PrivateKey string `json:"privateKey"`
	Phrase     string `json:"phrase,omitempty"`
}

// Signer is the in-memory signing capability. It holds its own key reference,
// so a send that obtained it before a lock can still finish cleanly.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func (s *Signer) Address() common.Address { return s.address }

// SignTx signs for the given chain id.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// Vault is the explicitly-owned session handle: exactly one per device,
// passed by reference to every operation that needs signing.
type Vault struct {
	mu     sync.Mutex
	store  storage.Store
	record *Record
	signer *Signer
}

// Open loads the vault record if one exists. A missing or unreadable record
// leaves the vault in the no-vault state; an unsupported schema version is an
// error because silently ignoring it would orphan a real secret.
func Open(store storage.Store) (*Vault, error) {
	v := &Vault{store: store}
	var rec Record
	if !storage.LoadJSON(store, storage.KeyVault, &rec) {
		return v, nil
	}
	if rec.Version != recordVersion {
		return nil, fmt.Errorf("unsupported vault version %d", rec.Version)
	}
	v.record = &rec
	return v, nil
}

// Exists reports whether a vault record is present.
func (v *Vault) Exists() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record != nil
}

// Address returns the public address, or "" when no vault exists.
func (v *Vault) Address() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.record == nil {
		return ""
	}
	return v.record.Address
}

// NetworkID returns the persisted active network id.
func (v *Vault) NetworkID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.record == nil {
		return ""
	}
	return v.record.NetworkID
}

// Provenance returns how the key entered the device.
func (v *Vault) Provenance() Provenance {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.record == nil {
		return ""
	}
	return v.record.Provenance
}

// SetNetworkID persists a new active network on the record.
func (v *Vault) SetNetworkID(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.record == nil {
		return ErrNoVault
	}
	if v.record.NetworkID == id {
		return nil
	}
	v.record.NetworkID = id
	return storage.SaveJSON(v.store, storage.KeyVault, v.record)
}

// Unlock decrypts the secret under the supplied passcode and installs the
// in-memory signer. Wrong passcode and corrupt blob fail identically.
func (v *Vault) Unlock(passcode string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.record == nil {
		return ErrNoVault
	}
	if !passcodeRule.MatchString(passcode) {
		return ErrPasscodeFormat
	}

	plaintext, err := unseal(v.record.EncryptedSecret, []byte(passcode))
	if err != nil {
		return ErrUnlockFailed
	}
	defer clear(plaintext)

	var payload secretPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return ErrUnlockFailed
	}
	key, err := keyFromHex(payload.PrivateKey)
	if err != nil {
		return ErrUnlockFailed
	}
	address := addressOf(key)
	if address.Hex() != v.record.Address {
		return ErrUnlockFailed
	}

	v.signer = &Signer{key: key, address: address}
	logger.Vault.Info().Str("address", v.record.Address).Msg("unlocked")
	return nil
}

// Unlocked reports whether a signer is installed.
func (v *Vault) Unlocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.signer != nil
}

// Lock synchronously drops the signer. Operations already holding it may
// finish; anything started after this call must unlock again.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.signer = nil
	logger.Vault.Info().Msg("locked")
}

// Signer hands out the current session signer, or ErrLocked.
func (v *Vault) Signer() (*Signer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.signer == nil {
		return nil, ErrLocked
	}
	return v.signer, nil
}

// Reset irreversibly erases the vault record and drops any signer.
func (v *Vault) Reset() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.signer = nil
	v.record = nil
	return v.store.Remove(storage.KeyVault)
}

// install persists a freshly sealed record and leaves the vault unlocked with
// the setup key, matching the original flow where setup completion lands the
// user inside the wallet.
func (v *Vault) install(rec *Record, key *ecdsa.PrivateKey) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := storage.SaveJSON(v.store, storage.KeyVault, rec); err != nil {
		return fmt.Errorf("persist vault: %w", err)
	}
	v.record = rec
	v.signer = &Signer{key: key, address: addressOf(key)}
	logger.Vault.Info().Str("address", rec.Address).Str("provenance", string(rec.Provenance)).Msg("vault sealed")
	return nil
}
