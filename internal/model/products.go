package model

import (
	"sync"

	"larek/internal/events"
)

// Products owns the catalog and the current selection. The catalog is
// replaced wholesale on load; individual products are never patched in place.
// Every accessor returns copies, never internal references.
type Products struct {
	bus *events.Bus

	mu       sync.Mutex
	items    []Product
	selected *Product
}

// NewProducts constructs an empty catalog publishing to bus.
func NewProducts(bus *events.Bus) *Products {
	return &Products{bus: bus}
}

// SetProducts replaces the entire catalog and emits EventProductsUpdated.
// A selection whose id is no longer in the catalog is dropped, and the
// cleared selection is announced as well.
func (m *Products) SetProducts(items []Product) {
	m.mu.Lock()
	m.items = cloneProducts(items)
	selectionDropped := false
	if m.selected != nil && m.findLocked(m.selected.ID) == nil {
		m.selected = nil
		selectionDropped = true
	}
	snapshot := cloneProducts(m.items)
	m.mu.Unlock()

	m.bus.Emit(EventProductsUpdated, ProductsUpdated{Products: snapshot})
	if selectionDropped {
		m.bus.Emit(EventProductSelected, ProductSelected{Product: nil})
	}
}

// GetProducts returns a snapshot copy of the catalog.
func (m *Products) GetProducts() []Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneProducts(m.items)
}

// GetProductByID returns a copy of the matching product, or nil when the id
// is unknown.
func (m *Products) GetProductByID(id string) *Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.findLocked(id); p != nil {
		c := p.Clone()
		return &c
	}
	return nil
}

// SetSelectedProduct looks up id and makes it the selection, emitting
// EventProductSelected with a copy. An unknown id clears the selection and
// announces nil rather than erroring.
func (m *Products) SetSelectedProduct(id string) {
	m.mu.Lock()
	var announced *Product
	if p := m.findLocked(id); p != nil {
		c := p.Clone()
		m.selected = &c
		announcedCopy := c.Clone()
		announced = &announcedCopy
	} else {
		m.selected = nil
	}
	m.mu.Unlock()

	m.bus.Emit(EventProductSelected, ProductSelected{Product: announced})
}

// ClearSelectedProduct drops the selection and announces nil.
func (m *Products) ClearSelectedProduct() {
	m.mu.Lock()
	m.selected = nil
	m.mu.Unlock()

	m.bus.Emit(EventProductSelected, ProductSelected{Product: nil})
}

// GetSelectedProduct returns a copy of the selection, or nil when none.
func (m *Products) GetSelectedProduct() *Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		return nil
	}
	c := m.selected.Clone()
	return &c
}

func (m *Products) findLocked(id string) *Product {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i]
		}
	}
	return nil
}
