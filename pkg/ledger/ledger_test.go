package ledger

import (
	"fmt"
	"strconv"
	"testing"

	"cryptrail/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPrependsAndPersists(t *testing.T) {
	store := storage.NewMemStore()
	l := Open(store)

	first, err := l.Add(Entry{Kind: KindSend, Direction: DirectionWithdrawal, Symbol: "ETH", Amount: "0.5000", Status: StatusBroadcasted, Hash: "0xaaa"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	_, err = l.Add(Entry{Kind: KindReceive, Direction: DirectionDeposit, Symbol: "USDC", Amount: "25.00"})
	require.NoError(t, err)

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "USDC", entries[0].Symbol)
	assert.Equal(t, "ETH", entries[1].Symbol)

	reopened := Open(store)
	assert.Len(t, reopened.Entries(), 2)
}

func TestCapDropsOldest(t *testing.T) {
	l := Open(storage.NewMemStore())
	for i := 0; i < maxEntries+5; i++ {
		_, err := l.Add(Entry{Kind: KindSend, Symbol: "ETH", Amount: strconv.Itoa(i)})
		require.NoError(t, err)
	}
	entries := l.Entries()
	require.Len(t, entries, maxEntries)
	// Newest first; entry 0..4 fell off.
	assert.Equal(t, strconv.Itoa(maxEntries+4), entries[0].Amount)
	assert.Equal(t, "5", entries[len(entries)-1].Amount)
}

func TestPatchStatusByHash(t *testing.T) {
	l := Open(storage.NewMemStore())
	_, err := l.Add(Entry{Kind: KindSend, Hash: "0xabc", Status: StatusBroadcasted})
	require.NoError(t, err)
	_, err = l.Add(Entry{Kind: KindReceive, Status: "Detected"})
	require.NoError(t, err)

	require.NoError(t, l.PatchStatus("0xabc", StatusConfirmed))
	entries := l.Entries()
	assert.Equal(t, StatusConfirmed, entries[1].Status)
	assert.Equal(t, "Detected", entries[0].Status)
	assert.True(t, entries[1].UpdatedAt.After(entries[1].CreatedAt) || entries[1].UpdatedAt.Equal(entries[1].CreatedAt))

	// Unknown and empty hashes are no-ops.
	require.NoError(t, l.PatchStatus("0xmissing", StatusConfirmed))
	require.NoError(t, l.PatchStatus("", StatusConfirmed))
	assert.Equal(t, "Detected", l.Entries()[0].Status)
}

func TestInferDirection(t *testing.T) {
	wallet := "0xAbC0000000000000000000000000000000000001"
	assert.Equal(t, DirectionDeposit, InferDirection(wallet, "0xabc0000000000000000000000000000000000001"))
	assert.Equal(t, DirectionWithdrawal, InferDirection(wallet, "0x0000000000000000000000000000000000000002"))
}

func TestContactsUniqueByAddress(t *testing.T) {
	store := storage.NewMemStore()
	c := OpenContacts(store)

	addr := "0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5"
	require.NoError(t, c.Add("Alice", addr))
	require.NoError(t, c.Add("Bob", "0x0000000000000000000000000000000000000002"))
	// Same address, different casing, is a duplicate and is refused.
	assert.ErrorIs(t, c.Add("Alice Updated", "0x95222290dd7278aa3ddd389cc1e1d165cc4bafe5"), ErrContactExists)

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Bob", all[0].Name)
	assert.Equal(t, "Alice", c.Lookup(addr))

	reopened := OpenContacts(store)
	assert.Len(t, reopened.All(), 2)
}

func TestContactsValidation(t *testing.T) {
	c := OpenContacts(storage.NewMemStore())
	assert.ErrorIs(t, c.Add("", "0x0000000000000000000000000000000000000002"), ErrContactName)
	assert.ErrorIs(t, c.Add("Eve", "not-an-address"), ErrContactAddress)
	assert.ErrorIs(t, c.Add("Eve", "0x12345"), ErrContactAddress)
}

func TestContactsCap(t *testing.T) {
	c := OpenContacts(storage.NewMemStore())
	for i := 0; i < maxContacts+3; i++ {
		addr := fmt.Sprintf("0x%040x", i+1)
		require.NoError(t, c.Add(fmt.Sprintf("c%d", i), addr))
	}
	all := c.All()
	require.Len(t, all, maxContacts)
	assert.Equal(t, fmt.Sprintf("c%d", maxContacts+2), all[0].Name)
}

func TestContactsRemove(t *testing.T) {
	c := OpenContacts(storage.NewMemStore())
	addr := "0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5"
	require.NoError(t, c.Add("Alice", addr))
	require.NoError(t, c.Remove("0x95222290dd7278aa3ddd389cc1e1d165cc4bafe5"))
	assert.Empty(t, c.All())
	// Removing a missing contact is fine.
	require.NoError(t, c.Remove(addr))
}
