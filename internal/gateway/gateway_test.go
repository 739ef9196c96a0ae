package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larek/internal/api"
	"larek/internal/checkout"
	"larek/internal/coordinator"
	"larek/internal/events"
	"larek/internal/model"
)

type stubUpstream struct {
	products []model.Product
	orderErr error
	orders   []api.OrderRequest
}

func (s *stubUpstream) FetchProducts(ctx context.Context) ([]model.Product, error) {
	return s.products, nil
}

func (s *stubUpstream) SendOrder(ctx context.Context, order api.OrderRequest) (*api.OrderResponse, error) {
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	s.orders = append(s.orders, order)
	return &api.OrderResponse{ID: "order-1", Total: order.Total}, nil
}

func intPtr(v int) *int { return &v }

func newTestGateway(t *testing.T, upstream *stubUpstream) (*Gateway, *model.Cart, *model.BuyerModel) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	bus := events.NewBus()
	products := model.NewProducts(bus)
	cart := model.NewCart(bus)
	buyer := model.NewBuyer(bus)
	coord := coordinator.New(bus, products, cart, buyer, upstream, &logger)
	coord.Start()
	t.Cleanup(coord.Stop)
	require.NoError(t, coord.LoadCatalog(context.Background()))
	session := checkout.NewSession(buyer)
	return New(bus, products, cart, buyer, coord, session, &logger), cart, buyer
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func defaultCatalog() *stubUpstream {
	return &stubUpstream{products: []model.Product{
		{ID: "p1", Title: "Бэкенд-антистресс", Price: intPtr(100)},
		{ID: "p2", Title: "Фреймворк куки судьбы", Price: intPtr(200)},
	}}
}

func TestListProducts(t *testing.T) {
	g, _, _ := newTestGateway(t, defaultCatalog())
	h := g.Routes()

	rec := doRequest(t, h, http.MethodGet, "/api/v1/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []model.Product `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Items, 2)
}

func TestGetProduct_NotFound(t *testing.T) {
	g, _, _ := newTestGateway(t, defaultCatalog())
	h := g.Routes()

	rec := doRequest(t, h, http.MethodGet, "/api/v1/products/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartRoundTrip(t *testing.T) {
	g, cart, _ := newTestGateway(t, defaultCatalog())
	h := g.Routes()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []model.Product `json:"items"`
		Total int             `json:"total"`
		Count int             `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 100, resp.Total)
	assert.True(t, cart.HasItem("p1"))

	// Duplicate add is rejected by the coordinator's call-site policy.
	rec = doRequest(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"p1"}`)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)

	rec = doRequest(t, h, http.MethodDelete, "/api/v1/cart/items/p1", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Zero(t, resp.Count)
}

func TestBuyerValidate(t *testing.T) {
	g, _, _ := newTestGateway(t, defaultCatalog())
	h := g.Routes()

	rec := doRequest(t, h, http.MethodPut, "/api/v1/buyer", `{"payment":"card","address":"Street 1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/buyer/validate?scope=order-fields", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
		Valid  bool              `json:"valid"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Valid)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/buyer/validate?scope=contacts-fields", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Errors, "email")
	assert.Contains(t, resp.Errors, "phone")

	rec = doRequest(t, h, http.MethodPost, "/api/v1/buyer/validate?scope=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutSteps(t *testing.T) {
	g, _, _ := newTestGateway(t, defaultCatalog())
	h := g.Routes()

	rec := doRequest(t, h, http.MethodPost, "/api/v1/checkout/basket", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/checkout/order", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		State  string            `json:"state"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "order_form", resp.State)
	assert.Contains(t, resp.Errors, "payment", "form opens with current error state")

	rec = doRequest(t, h, http.MethodPost, "/api/v1/checkout/idle", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Jumping straight into a form from idle is rejected.
	rec = doRequest(t, h, http.MethodPost, "/api/v1/checkout/contacts", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitOrder(t *testing.T) {
	upstream := defaultCatalog()
	g, cart, buyer := newTestGateway(t, upstream)
	h := g.Routes()

	doRequest(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"p1"}`)
	doRequest(t, h, http.MethodPut, "/api/v1/buyer",
		`{"payment":"card","email":"x@y.com","phone":"9991234567","address":"Street 1"}`)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/order", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.OrderResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "order-1", resp.ID)
	assert.Zero(t, cart.GetCount())
	assert.Equal(t, model.Buyer{}, buyer.GetBuyer())
	require.Len(t, upstream.orders, 1)
	assert.Equal(t, []string{"p1"}, upstream.orders[0].Items)
}

func TestSubmitOrder_ValidationFailure(t *testing.T) {
	g, cart, _ := newTestGateway(t, defaultCatalog())
	h := g.Routes()

	doRequest(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"p1"}`)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/order", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1, cart.GetCount(), "cart untouched on validation failure")
}

func TestSubmitOrder_UpstreamFailure(t *testing.T) {
	upstream := defaultCatalog()
	upstream.orderErr = errors.New("http 503")
	g, cart, _ := newTestGateway(t, upstream)
	h := g.Routes()

	doRequest(t, h, http.MethodPost, "/api/v1/cart/items", `{"id":"p1"}`)
	doRequest(t, h, http.MethodPut, "/api/v1/buyer",
		`{"payment":"cash","email":"x@y.com","phone":"9991234567","address":"Street 1"}`)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/order", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1, cart.GetCount(), "cart untouched on upstream failure")
}
