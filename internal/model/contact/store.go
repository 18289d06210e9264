package contact

import "sync"

// Store exposes the emergency contact list.
type Store interface {
	List() []EmergencyContact
	FindByID(id string) (EmergencyContact, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	mu    sync.RWMutex
	items []EmergencyContact
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied contacts.
func NewMemoryStore(items []EmergencyContact) *MemoryStore {
	return &MemoryStore{items: append([]EmergencyContact(nil), items...)}
}

// List returns a snapshot of the contacts in insertion order.
func (s *MemoryStore) List() []EmergencyContact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]EmergencyContact(nil), s.items...)
}

// FindByID looks up a contact by identifier.
func (s *MemoryStore) FindByID(id string) (EmergencyContact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return EmergencyContact{}, false
}

// Replace swaps the whole list, as the contacts screen does after an edit.
func (s *MemoryStore) Replace(items []EmergencyContact) {
	s.mu.Lock()
	s.items = append([]EmergencyContact(nil), items...)
	s.mu.Unlock()
}
