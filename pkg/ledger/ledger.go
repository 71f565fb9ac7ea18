// Package ledger keeps the wallet's local activity history and address book.
// Both are bounded, newest-first lists persisted through the blob store; the
// ledger records what this device saw, it is not a chain indexer.
package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"cryptrail/pkg/storage"
)

// maxEntries bounds the activity list; the oldest entries fall off the end.
const maxEntries = 80

// Send entry statuses as shown in the activity feed. Deposit entries carry
// the status the snapshot diff assigned them.
const (
	StatusBroadcasted    = "Broadcasted"
	StatusConfirmed      = "Confirmed"
	StatusPendingConfirm = "Pending confirmation"
)

// Entry kinds.
const (
	KindSend    = "send"
	KindReceive = "receive"
)

// Directions, derived from which side of the transfer the wallet sits on.
const (
	DirectionDeposit    = "deposit"
	DirectionWithdrawal = "withdrawal"
)

// Entry is one activity record. Amount is kept as the decimal text it was
// entered or formatted with; entries are display data, never arithmetic input.
type Entry struct {
	ID                string    `json:"id"`
	Kind              string    `json:"kind"`
	Direction         string    `json:"direction"`
	Hash              string    `json:"hash,omitempty"`
	Status            string    `json:"status"`
	NetworkName       string    `json:"networkName"`
	ExplorerTxBaseURL string    `json:"explorerTxBaseUrl,omitempty"`
	Symbol            string    `json:"symbol"`
	Amount            string    `json:"amount"`
	FromAddress       string    `json:"fromAddress,omitempty"`
	ToAddress         string    `json:"toAddress,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Ledger is the bounded activity list.
type Ledger struct {
	mu      sync.Mutex
	store   storage.Store
	entries []Entry
}

// Open loads persisted activity; an empty or unreadable blob starts fresh.
func Open(store storage.Store) *Ledger {
	l := &Ledger{store: store}
	storage.LoadJSON(store, storage.KeyActivity, &l.entries)
	return l
}

// Add prepends the entry, fills in its id and timestamps, trims to the cap,
// and persists. The stored entry is returned.
func (l *Ledger) Add(e Entry) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	e.ID = fmt.Sprintf("act-%d-%d", now.UnixNano(), len(l.entries))
	e.CreatedAt = now
	e.UpdatedAt = now

	l.entries = append([]Entry{e}, l.entries...)
	if len(l.entries) > maxEntries {
		l.entries = l.entries[:maxEntries]
	}
	return e, storage.SaveJSON(l.store, storage.KeyActivity, l.entries)
}

// PatchStatus updates the status of the entry with the given tx hash. Entries
// without a hash are never patched. Missing hashes are a no-op; the entry may
// have been trimmed off the cap.
func (l *Ledger) PatchStatus(hash, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if hash == "" {
		return nil
	}
	for i := range l.entries {
		if l.entries[i].Hash == hash {
			l.entries[i].Status = status
			l.entries[i].UpdatedAt = time.Now().UTC()
			return storage.SaveJSON(l.store, storage.KeyActivity, l.entries)
		}
	}
	return nil
}

// Entries returns a copy of the list, newest first.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear erases the activity history.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	return l.store.Remove(storage.KeyActivity)
}

// InferDirection classifies a transfer relative to the wallet address.
func InferDirection(walletAddress, toAddress string) string {
	if strings.EqualFold(walletAddress, toAddress) {
		return DirectionDeposit
	}
	return DirectionWithdrawal
}
