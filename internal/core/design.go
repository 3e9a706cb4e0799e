package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/alleybloom/live/internal/domain"
)

var (
	ErrAlleyLimit = errors.New("alley limit reached")
	ErrItemLimit  = errors.New("item limit reached")
	ErrNoItemID   = errors.New("item has no id")
)

// Design is one alley's ordered item list. Insertion order is meaningful:
// clients render items in this order.
type Design struct {
	alley    domain.AlleyID
	maxItems int

	mu    sync.RWMutex
	items []domain.DesignItem
}

func (d *Design) Alley() domain.AlleyID { return d.alley }

// Append adds an item to the end of the list. Uniqueness of ids is the
// client's invariant; a duplicate id is appended, not rejected.
func (d *Design) Append(item domain.DesignItem) error {
	if _, ok := item.Key(); !ok {
		return ErrNoItemID
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.maxItems > 0 && len(d.items) >= d.maxItems {
		return ErrItemLimit
	}
	d.items = append(d.items, item)
	return nil
}

// Replace swaps the first item whose id matches for the given one, in
// place. Reports false when no item matched; the list is unchanged then.
func (d *Design) Replace(item domain.DesignItem) bool {
	key, ok := item.Key()
	if !ok {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, existing := range d.items {
		if k, ok := existing.Key(); ok && k == key {
			d.items[i] = item
			return true
		}
	}
	return false
}

// Remove deletes every item whose id matches and returns how many went.
func (d *Design) Remove(itemID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.items[:0]
	removed := 0
	for _, item := range d.items {
		if k, ok := item.Key(); ok && k == itemID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	d.items = kept
	return removed
}

func (d *Design) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = d.items[:0]
}

// Snapshot returns the current items in order. The slice is a copy; the
// items themselves stay shared with the clients that sent them.
func (d *Design) Snapshot() []domain.DesignItem {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.DesignItem, len(d.items))
	copy(out, d.items)
	return out
}

func (d *Design) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.items)
}

// DesignStore owns all alley designs. Alleys are created on first access
// and never deleted while the process lives, even when empty.
type DesignStore struct {
	mu        sync.RWMutex
	designs   map[domain.AlleyID]*Design
	maxAlleys int
	maxItems  int
}

func NewDesignStore(maxAlleys, maxItemsPerAlley int) *DesignStore {
	return &DesignStore{
		designs:   make(map[domain.AlleyID]*Design),
		maxAlleys: maxAlleys,
		maxItems:  maxItemsPerAlley,
	}
}

func (s *DesignStore) GetOrCreate(alley domain.AlleyID) (*Design, error) {
	s.mu.RLock()
	d, ok := s.designs[alley]
	s.mu.RUnlock()
	if ok {
		return d, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok = s.designs[alley]; ok {
		return d, nil
	}
	if s.maxAlleys > 0 && len(s.designs) >= s.maxAlleys {
		return nil, ErrAlleyLimit
	}
	d = &Design{alley: alley, maxItems: s.maxItems}
	s.designs[alley] = d
	log.Debug().Str("module", "core.design").Str("alley", string(alley)).Msg("created design")
	return d, nil
}

func (s *DesignStore) Get(alley domain.AlleyID) (*Design, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.designs[alley]
	return d, ok
}

func (s *DesignStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.designs)
}
