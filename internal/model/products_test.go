package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"larek/internal/events"
)

func sampleCatalog() []Product {
	return []Product{
		{ID: "1", Category: "софт-скил", Title: "Бэкенд-антистресс", Price: intPtr(1000)},
		{ID: "2", Category: "другое", Title: "Фреймворк куки судьбы", Price: intPtr(2500)},
		{ID: "3", Category: "дополнительное", Title: "Мамка-таймер", Price: nil},
	}
}

func TestProducts_Selection(t *testing.T) {
	m := NewProducts(events.NewBus())
	m.SetProducts(sampleCatalog())

	m.SetSelectedProduct("2")
	if sel := m.GetSelectedProduct(); assert.NotNil(t, sel) {
		assert.Equal(t, "2", sel.ID)
	}

	m.SetSelectedProduct("missing")
	assert.Nil(t, m.GetSelectedProduct(), "unknown id clears the selection")
}

func TestProducts_SelectionEvents(t *testing.T) {
	bus := events.NewBus()
	m := NewProducts(bus)
	m.SetProducts(sampleCatalog())

	var seen []*Product
	bus.On(EventProductSelected, func(payload any) {
		seen = append(seen, payload.(ProductSelected).Product)
	})

	m.SetSelectedProduct("1")
	m.ClearSelectedProduct()
	m.SetSelectedProduct("missing")

	if assert.Len(t, seen, 3) {
		assert.Equal(t, "1", seen[0].ID)
		assert.Nil(t, seen[1])
		assert.Nil(t, seen[2])
	}
}

func TestProducts_GetProductByID(t *testing.T) {
	m := NewProducts(events.NewBus())
	m.SetProducts(sampleCatalog())

	if p := m.GetProductByID("3"); assert.NotNil(t, p) {
		assert.Equal(t, "Мамка-таймер", p.Title)
		assert.Nil(t, p.Price)
	}
	assert.Nil(t, m.GetProductByID("missing"))
}

func TestProducts_SnapshotIsolation(t *testing.T) {
	m := NewProducts(events.NewBus())
	m.SetProducts(sampleCatalog())

	snapshot := m.GetProducts()
	snapshot[0].Title = "mutated"

	assert.Equal(t, "Бэкенд-антистресс", m.GetProducts()[0].Title)

	if p := m.GetProductByID("1"); assert.NotNil(t, p) {
		p.Title = "mutated"
	}
	assert.Equal(t, "Бэкенд-антистресс", m.GetProducts()[0].Title)
}

func TestProducts_WholesaleReplace(t *testing.T) {
	bus := events.NewBus()
	m := NewProducts(bus)

	var updates []ProductsUpdated
	var selections []ProductSelected
	bus.On(EventProductsUpdated, func(payload any) { updates = append(updates, payload.(ProductsUpdated)) })
	bus.On(EventProductSelected, func(payload any) { selections = append(selections, payload.(ProductSelected)) })

	m.SetProducts(sampleCatalog())
	m.SetSelectedProduct("2")

	// Replacing the catalog with one that no longer contains the selected id
	// drops the selection and announces it.
	m.SetProducts([]Product{{ID: "9", Title: "Новый товар", Price: intPtr(50)}})

	assert.Len(t, updates, 2)
	if assert.Len(t, selections, 2) {
		assert.Equal(t, "2", selections[0].Product.ID)
		assert.Nil(t, selections[1].Product)
	}
	assert.Nil(t, m.GetSelectedProduct())

	// Replacing with a catalog that keeps the id keeps the selection.
	m.SetSelectedProduct("9")
	m.SetProducts([]Product{{ID: "9", Title: "Новый товар", Price: intPtr(50)}})
	if sel := m.GetSelectedProduct(); assert.NotNil(t, sel) {
		assert.Equal(t, "9", sel.ID)
	}
}
