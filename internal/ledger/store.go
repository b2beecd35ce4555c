package ledger

import (
	"context"
	"errors"
	"sync"
)

// ErrKeyNotFound is returned by Store.Get when no value was ever written.
var ErrKeyNotFound = errors.New("key not found")

// Store is the persistence port for the ledger: a process-external
// key-value store whose writes are observable by other handles (the
// browser-tab analogue). One well-known key holds the serialized orders.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Watch delivers a signal whenever another handle writes the key.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context, key string) (<-chan struct{}, error)
}

// MemoryStore is a shared in-memory store. Each Handle behaves like one
// browser tab: it sees all data, and its writes notify every other
// handle's watchers but not its own (storage-event semantics).
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers map[string][]*memWatcher
}

type memWatcher struct {
	owner *MemoryHandle
	ch    chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		watchers: make(map[string][]*memWatcher),
	}
}

// Handle opens one view onto the shared store.
func (m *MemoryStore) Handle() *MemoryHandle {
	return &MemoryHandle{store: m}
}

type MemoryHandle struct {
	store *MemoryStore
}

func (h *MemoryHandle) Get(_ context.Context, key string) ([]byte, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	v, ok := h.store.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (h *MemoryHandle) Set(_ context.Context, key string, value []byte) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	h.store.data[key] = cp
	for _, w := range h.store.watchers[key] {
		if w.owner == h {
			continue
		}
		select {
		case w.ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (h *MemoryHandle) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	w := &memWatcher{owner: h, ch: make(chan struct{}, 1)}

	h.store.mu.Lock()
	h.store.watchers[key] = append(h.store.watchers[key], w)
	h.store.mu.Unlock()

	out := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				h.store.removeWatcher(key, w)
				return
			case <-w.ch:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					h.store.removeWatcher(key, w)
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *MemoryStore) removeWatcher(key string, target *memWatcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.watchers[key][:0]
	for _, w := range m.watchers[key] {
		if w != target {
			kept = append(kept, w)
		}
	}
	m.watchers[key] = kept
}
