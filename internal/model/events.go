package model

// Event names published by the models. These names are a stable contract:
// any consumer may subscribe to them on the session bus.
const (
	EventProductsUpdated = "products:updated"
	EventProductSelected = "product:selected"

	EventCartUpdated     = "cart:updated"
	EventCartItemAdded   = "cart:item:added"
	EventCartItemRemoved = "cart:item:removed"
	EventCartCleared     = "cart:cleared"

	EventBuyerUpdated   = "buyer:updated"
	EventBuyerValidated = "buyer:validated"
)

// Intent events: published by UI surfaces, consumed by the coordinator which
// translates them into model mutations.
const (
	EventIntentProductSelect = "product:select"
	EventIntentCartAdd       = "cart:add"
	EventIntentCartRemove    = "cart:remove"
	EventIntentCartClear     = "cart:clear"
	EventIntentOrderSubmit   = "order:submit"
)

// Outcome events published by the coordinator after an order attempt.
const (
	EventOrderSuccess = "order:success"
	EventOrderError   = "order:error"
)

// ProductsUpdated carries the replaced catalog.
type ProductsUpdated struct {
	Products []Product
}

// ProductSelected carries the new selection, nil when cleared.
type ProductSelected struct {
	Product *Product
}

// CartUpdated carries the full cart after any change, plus the single item
// added or removed when the change was an add/remove.
type CartUpdated struct {
	Items   []Product
	Added   *Product
	Removed *Product
}

// CartItemChange carries a single addition or removal with the new full list.
type CartItemChange struct {
	Product Product
	Items   []Product
}

// BuyerUpdated carries a full snapshot of all buyer fields.
type BuyerUpdated struct {
	Buyer Buyer
}

// BuyerValidated carries a validation result with the snapshot it was
// computed over.
type BuyerValidated struct {
	Errors ValidationErrors
	Buyer  Buyer
}

// ProductSelectIntent asks the coordinator to select a product.
type ProductSelectIntent struct {
	ProductID string
}

// CartAddIntent asks the coordinator to put a product into the cart.
type CartAddIntent struct {
	ProductID string
}

// CartRemoveIntent asks the coordinator to drop a product from the cart.
type CartRemoveIntent struct {
	ProductID string
}

// OrderSuccess reports a confirmed order.
type OrderSuccess struct {
	OrderID string
	Total   int
}

// OrderError reports a failed order attempt.
type OrderError struct {
	Err error
}
