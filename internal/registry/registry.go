// Package registry tracks which node holds the live transport handle for
// each attached charger.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Handle is a transport-agnostic attachment: whichever adapter (socket,
// pull, pubsub) currently owns the charger's connection implements it.
type Handle interface {
	SendMessage(ctx context.Context, payload []byte) error
	Transport() string
}

// Registry tracks attached chargers and routes outbound sends to them.
type Registry interface {
	Attach(chargerID string, h Handle) error
	Detach(chargerID string)
	Lookup(chargerID string) (Handle, bool)
	List() []string
	Count() int
}

// LocalRegistry is an in-memory Registry, used standalone (single node)
// or wrapped by DistributedRegistry.
type LocalRegistry struct {
	mu       sync.RWMutex
	handles  map[string]Handle
	attached map[string]time.Time
}

func NewLocalRegistry() *LocalRegistry {
	return &LocalRegistry{
		handles:  make(map[string]Handle),
		attached: make(map[string]time.Time),
	}
}

func (r *LocalRegistry) Attach(chargerID string, h Handle) error {
	if chargerID == "" {
		return fmt.Errorf("registry: empty charger id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[chargerID] = h
	r.attached[chargerID] = time.Now()
	return nil
}

func (r *LocalRegistry) Detach(chargerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, chargerID)
	delete(r.attached, chargerID)
}

func (r *LocalRegistry) Lookup(chargerID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[chargerID]
	return h, ok
}

func (r *LocalRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	return ids
}

func (r *LocalRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
