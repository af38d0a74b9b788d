package sync

import (
	"context"
	"fmt"
	"sync"

	"github.com/open-feature/flagtmpl/pkg/store"
)

// Payload carries the serialized flag document after a reload.
type Payload struct {
	Flags string
}

// Multiplexer fans out store reloads to subscribers.
// The serialized flags are recomputed once per Publish and shared by all subscribers.
type Multiplexer struct {
	store store.IStore
	subs  map[interface{}]chan Payload

	allFlags string // pre-calculated all flags in store as a string

	mu sync.RWMutex
}

// NewMux creates a new sync multiplexer
func NewMux(store store.IStore) (*Multiplexer, error) {
	m := &Multiplexer{
		store: store,
		subs:  map[interface{}]chan Payload{},
	}

	return m, m.reFill()
}

// Register a subscription. The returned channel receives at most one pending payload; a
// subscriber that falls behind only sees the latest document.
func (r *Multiplexer) Register(id interface{}) (<-chan Payload, Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Payload, 1)
	r.subs[id] = ch
	return ch, Payload{Flags: r.allFlags}
}

// Publish sync updates to subscriptions
func (r *Multiplexer) Publish() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// perform a refill prior to publishing
	if err := r.reFill(); err != nil {
		return err
	}

	for _, ch := range r.subs {
		select {
		case ch <- Payload{Flags: r.allFlags}:
		default:
			// drop the stale payload and queue the fresh one
			select {
			case <-ch:
			default:
			}
			ch <- Payload{Flags: r.allFlags}
		}
	}

	return nil
}

// Unregister a subscription and close its channel
func (r *Multiplexer) Unregister(id interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.subs[id]; ok {
		close(ch)
		delete(r.subs, id)
	}
}

// GetAllFlags returns the last published flag document
func (r *Multiplexer) GetAllFlags() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.allFlags
}

// reFill local configuration values
func (r *Multiplexer) reFill() error {
	all, err := r.store.String()
	if err != nil {
		return fmt.Errorf("error retrieving flags from the store: %w", err)
	}
	r.allFlags = all
	return nil
}

// Watch calls fn for every published payload until ctx is done.
func (r *Multiplexer) Watch(ctx context.Context, id interface{}, fn func(Payload)) {
	ch, _ := r.Register(id)
	defer r.Unregister(id)

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			fn(payload)
		}
	}
}
