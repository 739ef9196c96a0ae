// Package coordinator wires the session bus to the storefront models: intent
// events become model mutations, and order submission combines all three
// models into one upstream request.
package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"larek/internal/api"
	"larek/internal/events"
	"larek/internal/metrics"
	"larek/internal/model"
)

var (
	// ErrValidationFailed reports that the buyer fields did not pass the
	// full validation run before submission.
	ErrValidationFailed = errors.New("coordinator: buyer validation failed")
	// ErrEmptyCart reports a submit attempt with nothing in the cart.
	ErrEmptyCart = errors.New("coordinator: cart is empty")
)

// Upstream is the slice of the API client the coordinator needs.
type Upstream interface {
	FetchProducts(ctx context.Context) ([]model.Product, error)
	SendOrder(ctx context.Context, order api.OrderRequest) (*api.OrderResponse, error)
}

// Coordinator owns one storefront session.
type Coordinator struct {
	bus       *events.Bus
	products  *model.Products
	cart      *model.Cart
	buyer     *model.BuyerModel
	upstream  Upstream
	logger    *zerolog.Logger
	sessionID string

	// handlers are stored so Stop can unsubscribe the exact values that
	// Start registered.
	intentHandlers map[string]events.Handler
	debugHandler   events.WildcardHandler
}

// New constructs a coordinator over an already-built bus and models.
func New(bus *events.Bus, products *model.Products, cart *model.Cart, buyer *model.BuyerModel, upstream Upstream, logger *zerolog.Logger) *Coordinator {
	c := &Coordinator{
		bus:       bus,
		products:  products,
		cart:      cart,
		buyer:     buyer,
		upstream:  upstream,
		logger:    logger,
		sessionID: uuid.NewString(),
	}
	c.intentHandlers = map[string]events.Handler{
		model.EventIntentProductSelect: c.onProductSelect,
		model.EventIntentCartAdd:       c.onCartAdd,
		model.EventIntentCartRemove:    c.onCartRemove,
		model.EventIntentCartClear:     c.onCartClear,
		model.EventIntentOrderSubmit:   c.onOrderSubmit,
	}
	c.debugHandler = c.logEvent
	return c
}

// SessionID identifies this session in logs and the audit journal.
func (c *Coordinator) SessionID() string {
	return c.sessionID
}

// Start subscribes the intent handlers and the universal debug listener.
func (c *Coordinator) Start() {
	for name, h := range c.intentHandlers {
		c.bus.On(name, h)
	}
	c.bus.OnAll(c.debugHandler)
}

// Stop unsubscribes everything Start registered.
func (c *Coordinator) Stop() {
	for name, h := range c.intentHandlers {
		c.bus.Off(name, h)
	}
	c.bus.OffWildcard(c.debugHandler)
}

// LoadCatalog fetches the catalog and replaces the products model wholesale.
// Model state is untouched when the fetch fails.
func (c *Coordinator) LoadCatalog(ctx context.Context) error {
	items, err := c.upstream.FetchProducts(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	c.products.SetProducts(items)
	metrics.SetCatalogSize(len(items))
	c.logger.Info().Int("products", len(items)).Msg("catalog loaded")
	return nil
}

// AddToCart puts the identified product into the cart. Duplicate ids are
// rejected here, at the call site: the cart model itself stays policy-free.
func (c *Coordinator) AddToCart(productID string) {
	product := c.products.GetProductByID(productID)
	if product == nil {
		c.logger.Warn().Str("product_id", productID).Msg("cart add: unknown product")
		return
	}
	if c.cart.HasItem(productID) {
		c.logger.Debug().Str("product_id", productID).Msg("cart add: already in cart")
		return
	}
	c.cart.AddItem(*product)
	metrics.IncCartItemAdded()
}

// RemoveFromCart drops the identified product from the cart.
func (c *Coordinator) RemoveFromCart(productID string) {
	had := c.cart.HasItem(productID)
	c.cart.RemoveItem(productID)
	if had {
		metrics.IncCartItemRemoved()
	}
}

// SubmitOrder validates everything, sends the order upstream and, only on a
// confirmed success, clears the cart and buyer. On any failure both models
// keep their state so the buyer can correct and retry.
func (c *Coordinator) SubmitOrder(ctx context.Context) (*api.OrderResponse, error) {
	errs := c.buyer.Validate(model.ScopeAll)
	if len(errs) > 0 {
		for field := range errs {
			metrics.IncValidationFailure(field)
		}
		metrics.IncOrderSubmitted("validation_failed")
		return nil, fmt.Errorf("%w: %d field(s)", ErrValidationFailed, len(errs))
	}
	if c.cart.GetCount() == 0 {
		metrics.IncOrderSubmitted("empty_cart")
		return nil, ErrEmptyCart
	}

	buyer := c.buyer.GetBuyer()
	items := c.cart.GetItems()
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	resp, err := c.upstream.SendOrder(ctx, api.OrderRequest{
		Payment: buyer.Payment,
		Email:   buyer.Email,
		Phone:   buyer.Phone,
		Address: buyer.Address,
		Items:   ids,
		Total:   c.cart.GetTotalPrice(),
	})
	if err != nil {
		metrics.IncOrderSubmitted("error")
		c.bus.Emit(model.EventOrderError, model.OrderError{Err: err})
		return nil, err
	}

	c.cart.Clear()
	c.buyer.Clear()
	metrics.IncOrderSubmitted("success")
	c.bus.Emit(model.EventOrderSuccess, model.OrderSuccess{OrderID: resp.ID, Total: resp.Total})
	c.logger.Info().Str("order_id", resp.ID).Int("total", resp.Total).Msg("order confirmed")
	return resp, nil
}

func (c *Coordinator) onProductSelect(payload any) {
	intent, ok := payload.(model.ProductSelectIntent)
	if !ok {
		return
	}
	c.products.SetSelectedProduct(intent.ProductID)
}

func (c *Coordinator) onCartAdd(payload any) {
	intent, ok := payload.(model.CartAddIntent)
	if !ok {
		return
	}
	c.AddToCart(intent.ProductID)
}

func (c *Coordinator) onCartRemove(payload any) {
	intent, ok := payload.(model.CartRemoveIntent)
	if !ok {
		return
	}
	c.RemoveFromCart(intent.ProductID)
}

func (c *Coordinator) onCartClear(payload any) {
	c.cart.Clear()
}

func (c *Coordinator) onOrderSubmit(payload any) {
	if _, err := c.SubmitOrder(context.Background()); err != nil {
		c.logger.Warn().Err(err).Msg("order submit failed")
	}
}

// logEvent is the universal listener: every publish lands in the debug log,
// coexisting with the specific handlers above.
func (c *Coordinator) logEvent(ev events.EmitterEvent) {
	c.logger.Debug().Str("session", c.sessionID).Str("event", ev.Name).Msg("bus event")
}
