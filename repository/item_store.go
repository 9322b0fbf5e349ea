package repository

import (
	"sync"

	"github.com/WilliamGeraldoBueno/ml-inventory-sales/models"
)

// ItemStore holds the inventory items loaded from the most recent import.
// Writers are imports (startup and on-demand); readers are report handlers.
type ItemStore interface {
	ReplaceAll(items []models.InventoryItem)
	List() []models.InventoryItem
	Len() int
}

// MemoryItemStore is the in-process ItemStore implementation. Items are
// replaced wholesale on each import, never updated incrementally.
type MemoryItemStore struct {
	mu    sync.RWMutex
	items []models.InventoryItem
}

// NewMemoryItemStore creates an empty in-memory item store.
func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{}
}

func (s *MemoryItemStore) ReplaceAll(items []models.InventoryItem) {
	copied := make([]models.InventoryItem, len(items))
	copy(copied, items)

	s.mu.Lock()
	s.items = copied
	s.mu.Unlock()
}

// List returns a copy so callers can iterate without holding the lock.
func (s *MemoryItemStore) List() []models.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.InventoryItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *MemoryItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
