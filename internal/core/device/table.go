package device

import (
	"errors"
	"slices"
	"sync"
)

var (
	ErrNotRegistered     = errors.New("device not registered")
	ErrAlreadyRegistered = errors.New("device already registered")
)

// Table is the dispatch table of registered handles keyed by device id.
type Table struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

func NewTable() *Table {
	return &Table{handles: make(map[string]*Handle)}
}

// Add registers h. A second registration of the same id with the same type
// returns the existing handle; a different type is an error.
func (t *Table) Add(h *Handle) (*Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.handles[h.ID()]; ok {
		if existing.DeviceType() != h.DeviceType() {
			return nil, ErrAlreadyRegistered
		}
		return existing, nil
	}
	t.handles[h.ID()] = h
	return h, nil
}

func (t *Table) Get(id string) (*Handle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handles[id]
	return h, ok
}

// Remove deregisters and forgets the handle for id.
func (t *Table) Remove(id string) (*Handle, bool) {
	t.mu.Lock()
	h, ok := t.handles[id]
	delete(t.handles, id)
	t.mu.Unlock()
	if ok {
		h.Deregister()
	}
	return h, ok
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handles)
}

// IDs returns the registered ids in sorted order.
func (t *Table) IDs() []string {
	t.mu.RLock()
	ids := make([]string, 0, len(t.handles))
	for id := range t.handles {
		ids = append(ids, id)
	}
	t.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (t *Table) Infos() []Info {
	ids := t.IDs()
	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		if h, ok := t.Get(id); ok {
			infos = append(infos, h.Info())
		}
	}
	return infos
}
