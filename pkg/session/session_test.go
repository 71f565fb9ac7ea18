package session

import (
	"context"
	"testing"
	"time"

	"cryptrail/pkg/authgate"
	"cryptrail/pkg/chains"
	"cryptrail/pkg/ledger"
	"cryptrail/pkg/storage"
	"cryptrail/pkg/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSession(t *testing.T, store storage.Store) *Session {
	t.Helper()
	s, err := Open(store, authgate.NoopAuthenticator{}, time.Minute)
	require.NoError(t, err)
	return s
}

func completeSetup(t *testing.T, s *Session, networkID string) {
	t.Helper()
	setup := vault.NewSetup()
	const key = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	require.NoError(t, setup.ImportPrivateKey(key))
	require.NoError(t, setup.ChoosePasscode("123456", "123456"))
	require.NoError(t, setup.VerifyPrivateKeyChallenge("123456", key))
	require.NoError(t, s.CompleteSetup(setup, networkID))
}

func TestFreshSessionDefaults(t *testing.T) {
	s := openTestSession(t, storage.NewMemStore())
	assert.False(t, s.Vault.Exists())
	assert.Equal(t, chains.Default().ID, s.Network().ID)
	assert.Equal(t, chains.DefaultTrackedTokenIDs, s.TrackedTokenIDs())
}

func TestCompleteSetupRebindsState(t *testing.T) {
	store := storage.NewMemStore()

	// Leave a factor enrollment and a snapshot behind for the previous wallet.
	stale := authgate.Open(store, authgate.NoopAuthenticator{}, time.Minute, "0xdead")
	require.NoError(t, stale.Enable(context.Background(), "0xdead"))

	s := openTestSession(t, store)
	completeSetup(t, s, "polygon")

	assert.True(t, s.Vault.Exists())
	assert.True(t, s.Vault.Unlocked())
	assert.Equal(t, "polygon", s.Network().ID)
	assert.False(t, s.Gate.Enabled())

	// Snapshot diffs for the new address start from scratch.
	deposits, err := s.Snapshots.Apply("polygon", map[string]float64{"native": 5})
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, "Detected", deposits[0].Status)
}

// denyAuth enrolls fine but refuses every verification.
type denyAuth struct{}

func (denyAuth) Register(ctx context.Context, address string) (string, error) {
	return "cred-deny", nil
}

func (denyAuth) Verify(ctx context.Context, credentialID, action string) (bool, error) {
	return false, nil
}

func TestUnlockDeniedByFactor(t *testing.T) {
	store := storage.NewMemStore()
	s := openTestSession(t, store)
	completeSetup(t, s, "polygon")
	require.NoError(t, s.Gate.Enable(context.Background(), s.Vault.Address()))
	s.Vault.Lock()

	// Same store, but the factor now refuses. The passcode is correct and
	// must never reach the vault.
	denied, err := Open(store, denyAuth{}, time.Minute)
	require.NoError(t, err)
	assert.ErrorIs(t, denied.Unlock(context.Background(), "123456"), authgate.ErrAuthDenied)
	_, err = denied.Vault.Signer()
	assert.ErrorIs(t, err, vault.ErrLocked)
}

func TestUnlockDelegatesToVault(t *testing.T) {
	store := storage.NewMemStore()
	s := openTestSession(t, store)
	completeSetup(t, s, "polygon")
	s.Vault.Lock()

	assert.ErrorIs(t, s.Unlock(context.Background(), "654321"), vault.ErrUnlockFailed)
	require.NoError(t, s.Unlock(context.Background(), "123456"))
	_, err := s.Vault.Signer()
	require.NoError(t, err)
}

func TestSwitchNetwork(t *testing.T) {
	s := openTestSession(t, storage.NewMemStore())
	completeSetup(t, s, "polygon")

	require.NoError(t, s.SwitchNetwork("base"))
	assert.Equal(t, "base", s.Network().ID)
	assert.Error(t, s.SwitchNetwork("solana"))
	assert.Error(t, s.SwitchNetwork("nope"))
	assert.Equal(t, "base", s.Network().ID)
}

func TestResetClearsKeyedState(t *testing.T) {
	store := storage.NewMemStore()
	s := openTestSession(t, store)
	completeSetup(t, s, "polygon")
	require.NoError(t, s.Gate.Enable(context.Background(), s.Vault.Address()))
	_, err := s.Snapshots.Apply("polygon", map[string]float64{"native": 5})
	require.NoError(t, err)
	_, err = s.Ledger.Add(ledger.Entry{Kind: ledger.KindSend, Symbol: "POL", Amount: "1"})
	require.NoError(t, err)
	require.NoError(t, s.Contacts.Add("Alice", "0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5"))

	require.NoError(t, s.Reset())

	assert.False(t, s.Vault.Exists())
	assert.False(t, s.Gate.Enabled())
	assert.Nil(t, store.Get(storage.KeyVault))
	assert.Nil(t, store.Get(storage.KeySnapshots))
	// History and contacts survive a reset.
	assert.Len(t, s.Ledger.Entries(), 1)
	assert.Len(t, s.Contacts.All(), 1)
}

func TestToggleTracked(t *testing.T) {
	store := storage.NewMemStore()
	s := openTestSession(t, store)

	require.NoError(t, s.ToggleTracked("usd-coin"))
	assert.NotContains(t, s.TrackedTokenIDs(), "usd-coin")

	require.NoError(t, s.ToggleTracked("usd-coin"))
	assert.Contains(t, s.TrackedTokenIDs(), "usd-coin")

	// Persisted across reopen.
	s2 := openTestSession(t, store)
	assert.Equal(t, s.TrackedTokenIDs(), s2.TrackedTokenIDs())
}

func TestToggleTrackedRefusesEmptying(t *testing.T) {
	s := openTestSession(t, storage.NewMemStore())
	ids := s.TrackedTokenIDs()
	for _, id := range ids[:len(ids)-1] {
		require.NoError(t, s.ToggleTracked(id))
	}
	require.Len(t, s.TrackedTokenIDs(), 1)
	assert.ErrorIs(t, s.ToggleTracked(s.TrackedTokenIDs()[0]), ErrLastTracked)
}

func TestTrackedOnResolvesContracts(t *testing.T) {
	s := openTestSession(t, storage.NewMemStore())
	tokens := s.TrackedOn("polygon")
	require.NotEmpty(t, tokens)
	for _, token := range tokens {
		assert.NotEmpty(t, token.Contract)
	}
}
