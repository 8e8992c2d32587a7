// Package optimistic implements the one legal way remote-backed list
// screens mutate their collections: apply a change locally right away,
// confirm it when the remote operation lands, roll it back when it fails.
// The same controller serves every admin screen; the screens only differ
// in their mutators.
package optimistic

import (
	"context"
	"sync"

	"github.com/parishhub/parish-client/gateway"
)

// Mutator produces the pending value from the current one.
type Mutator[V any] func(V) V

// Operation is the remote call a mutation is waiting on.
type Operation func(ctx context.Context) error

// Collection is a keyed set of items. The view owns its contents; the
// controller is the only writer while mutations are in flight.
type Collection[K comparable, V any] struct {
	lock  sync.RWMutex
	items map[K]V
}

// NewCollection wraps an existing item map. The map is taken over, not
// copied.
func NewCollection[K comparable, V any](items map[K]V) *Collection[K, V] {
	if items == nil {
		items = make(map[K]V)
	}
	return &Collection[K, V]{items: items}
}

// Get returns the item for id and whether it exists.
func (c *Collection[K, V]) Get(id K) (V, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	item, ok := c.items[id]
	return item, ok
}

// Set writes the item for id directly. Intended for initial population and
// non-remote-backed changes; remote-backed changes go through a Controller.
func (c *Collection[K, V]) Set(id K, item V) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.items[id] = item
}

// Len returns the number of items.
func (c *Collection[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.items)
}

func (c *Collection[K, V]) replace(id K, item V) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.items[id] = item
}

func (c *Collection[K, V]) remove(id K) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.items, id)
}

// snapshot is the rollback state for one in-flight mutation.
type snapshot[V any] struct {
	prior   V
	existed bool
}

// Controller applies optimistic mutations to a Collection. Mutations are
// keyed by entity id and fully independent across ids; there is no
// cross-id locking and no per-id queue. A second Apply on an id whose
// mutation is still pending overwrites the pending snapshot: last apply
// wins.
type Controller[K comparable, V any] struct {
	collection *Collection[K, V]

	lock      sync.Mutex
	snapshots map[K]snapshot[V]
	onError   func(id K, message string)
}

// ControllerOption defines a function type to modify the Controller
// instance.
type ControllerOption[K comparable, V any] func(*Controller[K, V])

// WithErrorHandler registers a callback invoked with the normalised error
// message whenever a mutation rolls back.
func WithErrorHandler[K comparable, V any](handler func(id K, message string)) ControllerOption[K, V] {
	return func(c *Controller[K, V]) {
		c.onError = handler
	}
}

// NewController creates a Controller over the given collection.
func NewController[K comparable, V any](collection *Collection[K, V], options ...ControllerOption[K, V]) *Controller[K, V] {
	controller := &Controller[K, V]{
		collection: collection,
		snapshots:  make(map[K]snapshot[V]),
	}
	for _, opt := range options {
		opt(controller)
	}
	return controller
}

// Apply replaces collection[id] with mutate(collection[id]) synchronously
// and records the pre-mutation value as the rollback snapshot for id. The
// prior value is captured before the mutated one becomes visible; no
// intermediate state is ever observable.
func (c *Controller[K, V]) Apply(id K, mutate Mutator[V]) {
	c.lock.Lock()
	defer c.lock.Unlock()
	prior, existed := c.collection.Get(id)
	c.snapshots[id] = snapshot[V]{prior: prior, existed: existed}
	c.collection.replace(id, mutate(prior))
}

// Confirm discards the snapshot for id; the optimistic value is now
// canonical. Confirming an id with no pending snapshot is a no-op.
func (c *Controller[K, V]) Confirm(id K) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.snapshots, id)
}

// Rollback restores the snapshot for id into the collection, discards it,
// and surfaces the message through the error handler. When no snapshot is
// pending (already confirmed or rolled back) nothing happens.
func (c *Controller[K, V]) Rollback(id K, message string) {
	c.lock.Lock()
	snap, ok := c.snapshots[id]
	if !ok {
		c.lock.Unlock()
		return
	}
	delete(c.snapshots, id)
	if snap.existed {
		c.collection.replace(id, snap.prior)
	} else {
		c.collection.remove(id)
	}
	handler := c.onError
	c.lock.Unlock()

	if handler != nil {
		handler(id, message)
	}
}

// Pending reports whether id has an unresolved mutation.
func (c *Controller[K, V]) Pending(id K) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, ok := c.snapshots[id]
	return ok
}

// Commit composes the three primitives: apply the mutation, run the remote
// operation, then confirm on success or roll back with the normalised error
// on failure. The returned error carries that same message. Commits on
// different ids are fully independent and may run concurrently.
func (c *Controller[K, V]) Commit(ctx context.Context, id K, mutate Mutator[V], op Operation) error {
	c.Apply(id, mutate)
	if err := op(ctx); err != nil {
		normalized := gateway.Normalized(err, "operation failed")
		c.Rollback(id, normalized.Error())
		return normalized
	}
	c.Confirm(id)
	return nil
}
