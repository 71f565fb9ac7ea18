package ledger

import (
	"errors"
	"strings"
	"sync"
	"time"

	"cryptrail/pkg/storage"

	"github.com/ethereum/go-ethereum/common"
)

// maxContacts bounds the address book.
const maxContacts = 40

var (
	ErrContactAddress = errors.New("invalid contact address")
	ErrContactName    = errors.New("contact name required")
	ErrContactExists  = errors.New("contact address already exists")
)

// Contact is one saved recipient.
type Contact struct {
	Name    string    `json:"name"`
	Address string    `json:"address"`
	AddedAt time.Time `json:"addedAt"`
}

// Contacts is the bounded, newest-first address book. Addresses are unique
// case-insensitively; re-adding one is rejected.
type Contacts struct {
	mu    sync.Mutex
	store storage.Store
	list  []Contact
}

func OpenContacts(store storage.Store) *Contacts {
	c := &Contacts{store: store}
	storage.LoadJSON(store, storage.KeyContacts, &c.list)
	return c
}

// Add saves a contact at the front of the list.
func (c *Contacts) Add(name, address string) error {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	if name == "" {
		return ErrContactName
	}
	if !common.IsHexAddress(address) {
		return ErrContactAddress
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.list {
		if strings.EqualFold(existing.Address, address) {
			return ErrContactExists
		}
	}
	kept := make([]Contact, 0, len(c.list)+1)
	kept = append(kept, Contact{Name: name, Address: address, AddedAt: time.Now().UTC()})
	kept = append(kept, c.list...)
	if len(kept) > maxContacts {
		kept = kept[:maxContacts]
	}
	c.list = kept
	return storage.SaveJSON(c.store, storage.KeyContacts, c.list)
}

// Remove deletes the contact with the given address, if present.
func (c *Contacts) Remove(address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.list[:0]
	for _, existing := range c.list {
		if strings.EqualFold(existing.Address, address) {
			continue
		}
		kept = append(kept, existing)
	}
	c.list = kept
	return storage.SaveJSON(c.store, storage.KeyContacts, c.list)
}

// All returns a copy of the address book, newest first.
func (c *Contacts) All() []Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Contact, len(c.list))
	copy(out, c.list)
	return out
}

// Lookup finds a contact name for an address, or "".
func (c *Contacts) Lookup(address string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.list {
		if strings.EqualFold(existing.Address, address) {
			return existing.Name
		}
	}
	return ""
}
