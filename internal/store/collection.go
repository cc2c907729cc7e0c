package store

import (
	"fmt"
	"sync"
	"time"

	"safework/internal/safework"
)

// record is the pointer-method constraint every stored entity satisfies by
// embedding model.Meta.
type record[T any] interface {
	*T
	Key() int64
	Created() time.Time
	Stamp(id int64, createdAt time.Time)
}

// Collection is the in-memory implementation of safework.Collection.
// A mutex guards the items; listeners run after the lock is released so they
// may read the collection.
type Collection[T any, P record[T]] struct {
	name   string
	clock  safework.Clock
	logger safework.Logger

	mu           sync.RWMutex
	items        []T
	listeners    []listener
	nextListener int
}

type listener struct {
	id int
	fn func(safework.Change)
}

// NewCollection creates an empty collection named name.
func NewCollection[T any, P record[T]](name string, clock safework.Clock, logger safework.Logger) *Collection[T, P] {
	return &Collection[T, P]{
		name:   name,
		clock:  clock,
		logger: logger,
	}
}

func (c *Collection[T, P]) Name() string { return c.name }

func (c *Collection[T, P]) Create(item T) (T, error) {
	c.mu.Lock()
	id := c.maxID() + 1
	P(&item).Stamp(id, c.clock.Now().UTC())
	c.items = append(c.items, clone(item))
	c.mu.Unlock()

	c.logger.Debug("record created", "collection", c.name, "id", id)
	c.notify(safework.OpCreate, id)
	return clone(item), nil
}

func (c *Collection[T, P]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	for i, item := range c.items {
		out[i] = clone(item)
	}
	return out
}

func (c *Collection[T, P]) Get(id int64) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, err := c.indexOf(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return clone(c.items[idx]), nil
}

func (c *Collection[T, P]) Update(id int64, patch safework.Patch) (T, error) {
	var zero T

	c.mu.Lock()
	idx, err := c.indexOf(id)
	if err != nil {
		c.mu.Unlock()
		return zero, err
	}
	current := c.items[idx]
	merged, err := safework.ApplyPatch(current, patch)
	if err != nil {
		c.mu.Unlock()
		return zero, fmt.Errorf("updating %s %d: %w", c.name, id, err)
	}
	P(&merged).Stamp(id, P(&current).Created())
	c.items[idx] = clone(merged)
	c.mu.Unlock()

	c.logger.Debug("record updated", "collection", c.name, "id", id, "fields", patch.Keys())
	c.notify(safework.OpUpdate, id)
	return merged, nil
}

func (c *Collection[T, P]) Modify(id int64, fn func(*T) error) (T, error) {
	var zero T

	c.mu.Lock()
	idx, err := c.indexOf(id)
	if err != nil {
		c.mu.Unlock()
		return zero, err
	}
	current := c.items[idx]
	next := clone(current)
	if err := fn(&next); err != nil {
		c.mu.Unlock()
		return zero, err
	}
	P(&next).Stamp(id, P(&current).Created())
	c.items[idx] = clone(next)
	c.mu.Unlock()

	c.logger.Debug("record modified", "collection", c.name, "id", id)
	c.notify(safework.OpUpdate, id)
	return next, nil
}

func (c *Collection[T, P]) Delete(id int64) error {
	c.mu.Lock()
	idx, err := c.indexOf(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.items = append(c.items[:idx:idx], c.items[idx+1:]...)
	c.mu.Unlock()

	c.logger.Debug("record deleted", "collection", c.name, "id", id)
	c.notify(safework.OpDelete, id)
	return nil
}

func (c *Collection[T, P]) Subscribe(fn func(safework.Change)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextListener++
	id := c.nextListener
	c.listeners = append(c.listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, l := range c.listeners {
				if l.id == id {
					c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Len returns the number of stored records.
func (c *Collection[T, P]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Load replaces the contents of the collection with items, keeping their
// ids and creation times. Listeners are not notified. Ids must be positive
// and unique.
func (c *Collection[T, P]) Load(items []T) error {
	seen := make(map[int64]bool, len(items))
	loaded := make([]T, 0, len(items))
	for _, item := range items {
		id := P(&item).Key()
		if id <= 0 {
			return fmt.Errorf("%w: %s record has invalid id %d", safework.ErrInvalidInput, c.name, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s has duplicate id %d", safework.ErrInvalidInput, c.name, id)
		}
		seen[id] = true
		loaded = append(loaded, clone(item))
	}

	c.mu.Lock()
	c.items = loaded
	c.mu.Unlock()
	return nil
}

func (c *Collection[T, P]) notify(op safework.Op, id int64) {
	c.mu.RLock()
	listeners := make([]listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.RUnlock()

	change := safework.Change{Collection: c.name, Op: op, ID: id}
	for _, l := range listeners {
		l.fn(change)
	}
}

// maxID must be called with c.mu held.
func (c *Collection[T, P]) maxID() int64 {
	var highest int64
	for i := range c.items {
		if id := P(&c.items[i]).Key(); id > highest {
			highest = id
		}
	}
	return highest
}

// indexOf must be called with c.mu held.
func (c *Collection[T, P]) indexOf(id int64) (int, error) {
	for i := range c.items {
		if P(&c.items[i]).Key() == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s %d: %w", c.name, id, safework.ErrNotFound)
}

// clone copies item, deep-copying slices for types that know how.
func clone[T any](item T) T {
	if c, ok := any(item).(interface{ Clone() T }); ok {
		return c.Clone()
	}
	return item
}
