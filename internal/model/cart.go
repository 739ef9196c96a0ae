package model

import (
	"sync"

	"larek/internal/events"
)

// Cart owns the list of products picked for the order, in add order. The
// model itself permits duplicate ids; the coordinator enforces uniqueness at
// the call site. Accessors return snapshots.
type Cart struct {
	bus *events.Bus

	mu    sync.Mutex
	items []Product
}

// NewCart constructs an empty cart publishing to bus.
func NewCart(bus *events.Bus) *Cart {
	return &Cart{bus: bus}
}

// AddItem appends a copy of product and emits EventCartUpdated followed by
// EventCartItemAdded.
func (c *Cart) AddItem(product Product) {
	added := product.Clone()
	c.mu.Lock()
	c.items = append(c.items, added.Clone())
	snapshot := cloneProducts(c.items)
	c.mu.Unlock()

	c.bus.Emit(EventCartUpdated, CartUpdated{Items: snapshot, Added: &added})
	c.bus.Emit(EventCartItemAdded, CartItemChange{Product: added.Clone(), Items: cloneProducts(snapshot)})
}

// RemoveItem drops the first item matching id. A miss is a silent no-op: no
// mutation, no event.
func (c *Cart) RemoveItem(productID string) {
	c.mu.Lock()
	idx := -1
	for i := range c.items {
		if c.items[i].ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	removed := c.items[idx].Clone()
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	snapshot := cloneProducts(c.items)
	c.mu.Unlock()

	c.bus.Emit(EventCartUpdated, CartUpdated{Items: snapshot, Removed: &removed})
	c.bus.Emit(EventCartItemRemoved, CartItemChange{Product: removed.Clone(), Items: cloneProducts(snapshot)})
}

// Clear empties the cart unconditionally. It notifies even when the cart is
// already empty, since consumers may need to re-render an empty state.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()

	c.bus.Emit(EventCartUpdated, CartUpdated{Items: []Product{}})
	c.bus.Emit(EventCartCleared, nil)
}

// GetItems returns a snapshot copy of the cart contents.
func (c *Cart) GetItems() []Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneProducts(c.items)
}

// GetTotalPrice sums item prices, counting a missing price as zero.
func (c *Cart) GetTotalPrice() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for i := range c.items {
		total += c.items[i].PriceValue()
	}
	return total
}

// GetCount returns the number of items in the cart.
func (c *Cart) GetCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// HasItem reports whether any item with the given id is in the cart.
func (c *Cart) HasItem(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == productID {
			return true
		}
	}
	return false
}
