package model

// Product is a catalog item. Price is nil for priceless goods that cannot be
// ordered on their own.
type Product struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Image       string `json:"image"`
	Price       *int   `json:"price"`
	Description string `json:"description"`
}

// Clone returns an independent copy of the product.
func (p Product) Clone() Product {
	c := p
	if p.Price != nil {
		v := *p.Price
		c.Price = &v
	}
	return c
}

// PriceValue returns the price, treating a missing price as zero.
func (p Product) PriceValue() int {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

func cloneProducts(items []Product) []Product {
	out := make([]Product, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
