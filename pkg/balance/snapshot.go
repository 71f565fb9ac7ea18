package balance

import (
	"sync"

	"cryptrail/pkg/storage"
)

// minimumDelta filters rounding noise; only increases strictly above it count
// as deposits.
const minimumDelta = 1e-8

const (
	// StatusDetected marks a deposit inferred without a prior snapshot for
	// the network, so only its presence is certain, not its recency.
	StatusDetected = "Detected"
	// StatusConfirmed marks an increase over a known previous balance.
	StatusConfirmed = "Confirmed"
)

// Deposit is one detected balance increase.
type Deposit struct {
	Key    string
	Amount float64
	Status string
}

type snapshotRecord struct {
	Address  string                        `json:"address"`
	Networks map[string]map[string]float64 `json:"networks"`
}

// SnapshotStore persists the last observed balances per network, bound to one
// wallet address. Snapshots from a different address are never diffed against.
type SnapshotStore struct {
	mu    sync.Mutex
	store storage.Store
	rec   snapshotRecord
}

// OpenSnapshots loads persisted snapshots and rebinds them to address,
// discarding anything recorded for a previous wallet.
func OpenSnapshots(store storage.Store, address string) *SnapshotStore {
	s := &SnapshotStore{store: store}
	if !storage.LoadJSON(store, storage.KeySnapshots, &s.rec) || s.rec.Address != address {
		s.rec = snapshotRecord{Address: address, Networks: map[string]map[string]float64{}}
	}
	if s.rec.Networks == nil {
		s.rec.Networks = map[string]map[string]float64{}
	}
	return s
}

// Rebind switches the store to a new wallet address, clearing all snapshots
// when the address actually changed.
func (s *SnapshotStore) Rebind(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.Address == address {
		return nil
	}
	s.rec = snapshotRecord{Address: address, Networks: map[string]map[string]float64{}}
	return storage.SaveJSON(s.store, storage.KeySnapshots, &s.rec)
}

// Apply diffs the fresh amounts against the stored snapshot for the network,
// persists the new snapshot, and returns the detected deposits. When no prior
// snapshot existed for the network every nonzero balance surfaces as
// "Detected"; otherwise only increases beyond the minimum delta surface, as
// "Confirmed".
func (s *SnapshotStore) Apply(networkID string, amounts map[string]float64) ([]Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrev := s.rec.Networks[networkID]
	var deposits []Deposit
	for key, value := range amounts {
		if !hadPrev {
			if value > minimumDelta {
				deposits = append(deposits, Deposit{Key: key, Amount: value, Status: StatusDetected})
			}
			continue
		}
		delta := value - prev[key]
		if delta > minimumDelta {
			deposits = append(deposits, Deposit{Key: key, Amount: delta, Status: StatusConfirmed})
		}
	}

	next := make(map[string]float64, len(amounts))
	for key, value := range amounts {
		next[key] = value
	}
	s.rec.Networks[networkID] = next
	if err := storage.SaveJSON(s.store, storage.KeySnapshots, &s.rec); err != nil {
		return nil, err
	}
	return deposits, nil
}

// Clear erases all snapshots but keeps the address binding.
func (s *SnapshotStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Networks = map[string]map[string]float64{}
	return s.store.Remove(storage.KeySnapshots)
}
