// Package gateway exposes the storefront session over HTTP. Mutating
// endpoints publish intent events on the bus; read endpoints return model
// snapshots.
package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"larek/internal/checkout"
	"larek/internal/coordinator"
	"larek/internal/events"
	"larek/internal/model"
)

// Gateway translates HTTP requests into bus intents and model reads.
type Gateway struct {
	bus      *events.Bus
	products *model.Products
	cart     *model.Cart
	buyer    *model.BuyerModel
	coord    *coordinator.Coordinator
	session  *checkout.Session
	logger   *zerolog.Logger
}

// New constructs a gateway over an already-wired session.
func New(bus *events.Bus, products *model.Products, cart *model.Cart, buyer *model.BuyerModel, coord *coordinator.Coordinator, session *checkout.Session, logger *zerolog.Logger) *Gateway {
	return &Gateway{
		bus:      bus,
		products: products,
		cart:     cart,
		buyer:    buyer,
		coord:    coord,
		session:  session,
		logger:   logger,
	}
}

// Routes builds the HTTP surface.
func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(g.requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", g.handleListProducts)
		r.Get("/products/{id}", g.handleGetProduct)
		r.Post("/products/{id}/select", g.handleSelectProduct)
		r.Get("/products/selected", g.handleSelectedProduct)

		r.Get("/cart", g.handleGetCart)
		r.Post("/cart/items", g.handleAddCartItem)
		r.Delete("/cart/items/{id}", g.handleRemoveCartItem)
		r.Delete("/cart", g.handleClearCart)

		r.Get("/buyer", g.handleGetBuyer)
		r.Put("/buyer", g.handleUpdateBuyer)
		r.Post("/buyer/validate", g.handleValidateBuyer)

		r.Post("/checkout/{step}", g.handleCheckoutStep)
		r.Post("/order", g.handleSubmitOrder)
	})

	return r
}

func (g *Gateway) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		g.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type cartResponse struct {
	Items []model.Product `json:"items"`
	Total int             `json:"total"`
	Count int             `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors model.ValidationErrors `json:"errors"`
	Valid  bool                   `json:"valid"`
}

func (g *Gateway) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": g.products.GetProducts()})
}

func (g *Gateway) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product := g.products.GetProductByID(chi.URLParam(r, "id"))
	if product == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "product not found"})
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (g *Gateway) handleSelectProduct(w http.ResponseWriter, r *http.Request) {
	g.bus.Emit(model.EventIntentProductSelect, model.ProductSelectIntent{ProductID: chi.URLParam(r, "id")})
	writeJSON(w, http.StatusOK, map[string]any{"selected": g.products.GetSelectedProduct()})
}

func (g *Gateway) handleSelectedProduct(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"selected": g.products.GetSelectedProduct()})
}

func (g *Gateway) handleGetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cartResponse{
		Items: g.cart.GetItems(),
		Total: g.cart.GetTotalPrice(),
		Count: g.cart.GetCount(),
	})
}

func (g *Gateway) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "product id required"})
		return
	}
	g.bus.Emit(model.EventIntentCartAdd, model.CartAddIntent{ProductID: req.ID})
	writeJSON(w, http.StatusOK, cartResponse{
		Items: g.cart.GetItems(),
		Total: g.cart.GetTotalPrice(),
		Count: g.cart.GetCount(),
	})
}

func (g *Gateway) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	g.bus.Emit(model.EventIntentCartRemove, model.CartRemoveIntent{ProductID: chi.URLParam(r, "id")})
	writeJSON(w, http.StatusOK, cartResponse{
		Items: g.cart.GetItems(),
		Total: g.cart.GetTotalPrice(),
		Count: g.cart.GetCount(),
	})
}

func (g *Gateway) handleClearCart(w http.ResponseWriter, r *http.Request) {
	g.bus.Emit(model.EventIntentCartClear, nil)
	writeJSON(w, http.StatusOK, cartResponse{Items: []model.Product{}})
}

func (g *Gateway) handleGetBuyer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.buyer.GetBuyer())
}

func (g *Gateway) handleUpdateBuyer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payment *string `json:"payment"`
		Email   *string `json:"email"`
		Phone   *string `json:"phone"`
		Address *string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	patch := model.BuyerPatch{Email: req.Email, Phone: req.Phone, Address: req.Address}
	if req.Payment != nil {
		payment := model.Payment(*req.Payment)
		patch.Payment = &payment
	}
	g.buyer.SetBuyerData(patch)
	writeJSON(w, http.StatusOK, g.buyer.GetBuyer())
}

func (g *Gateway) handleValidateBuyer(w http.ResponseWriter, r *http.Request) {
	scope := model.Scope(r.URL.Query().Get("scope"))
	switch scope {
	case model.ScopeOrder, model.ScopeContacts, model.ScopeAll:
	case "":
		scope = model.ScopeAll
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown scope"})
		return
	}

	errs := g.buyer.Validate(scope)
	writeJSON(w, http.StatusOK, validationResponse{Errors: errs, Valid: len(errs) == 0})
}

// checkout step names accepted by the API, mapped to FSM states.
var checkoutSteps = map[string]checkout.State{
	"idle":     checkout.StateIdle,
	"preview":  checkout.StatePreview,
	"basket":   checkout.StateBasket,
	"order":    checkout.StateOrderForm,
	"contacts": checkout.StateContactsForm,
}

func (g *Gateway) handleCheckoutStep(w http.ResponseWriter, r *http.Request) {
	step, ok := checkoutSteps[chi.URLParam(r, "step")]
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown checkout step"})
		return
	}

	errs, err := g.session.Advance(step)
	if errors.Is(err, checkout.ErrInvalidTransition) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":  g.session.GetState(),
		"errors": errs,
	})
}

func (g *Gateway) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	resp, err := g.coord.SubmitOrder(r.Context())
	switch {
	case errors.Is(err, coordinator.ErrValidationFailed):
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: g.buyer.Validate(model.ScopeAll)})
		return
	case errors.Is(err, coordinator.ErrEmptyCart):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "cart is empty"})
		return
	case err != nil:
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	g.session.Reset()
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
