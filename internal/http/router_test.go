package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apper-canvas/market-mosaic-media/internal/catalog"
	"github.com/apper-canvas/market-mosaic-media/internal/checkout"
	"github.com/apper-canvas/market-mosaic-media/internal/domain"
	"github.com/apper-canvas/market-mosaic-media/internal/notify"
	"github.com/apper-canvas/market-mosaic-media/internal/repository"
	"github.com/apper-canvas/market-mosaic-media/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	sessions *session.Manager
	orders   *repository.MemoryOrderStore
	health   error
}

type failingLoad struct{ session.LocalPersistence }

func (failingLoad) Load(context.Context, string) ([]domain.CartItem, error) {
	return nil, domain.RemoteCall("load cart", errors.New("connection refused"))
}

func setupServer(t *testing.T, persist session.Persistence) *testServer {
	t.Helper()
	store, err := repository.NewProductStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations())
	t.Cleanup(func() { store.Close() })

	orders := repository.NewMemoryOrderStore()
	sessions := session.NewManager(session.Options{
		Persistence:            persist,
		Validator:              checkout.NewStaticValidator(0),
		Orders:                 orders,
		FreeshipWaivesDelivery: true,
	}, nil)
	t.Cleanup(sessions.Stop)

	ts := &testServer{sessions: sessions, orders: orders}
	h := NewHandler(catalog.NewService(store, nil, nil), sessions, orders, 5*time.Second, nil)
	ts.handler = NewRouter(h, RouterConfig{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 10,
		Health:             func(context.Context) error { return ts.health },
	}, nil)
	return ts
}

// do sends a request as session "sess-1" unless the header is overridden.
func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSessionID, "sess-1")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ts := setupServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	ts.health = errors.New("sqlite closed")
	rec = ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProducts(t *testing.T) {
	ts := setupServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/products?category=electronics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[ProductsResponse](t, rec)
	assert.Len(t, list.Products, 3)

	rec = ts.do(t, http.MethodGet, "/api/v1/products/5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decodeBody[domain.Product](t, rec)
	assert.Equal(t, "Facial Serum", p.Name)

	rec = ts.do(t, http.MethodGet, "/api/v1/products/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody[ErrorResponse](t, rec).Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeliveryOptions(t *testing.T) {
	ts := setupServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/delivery-options", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[DeliveryOptionsResponse](t, rec)
	require.Len(t, resp.Options, 3)
	assert.Equal(t, "standard", resp.Options[0].ID)
}

func TestSessionHeaderGeneratedAndEchoed(t *testing.T) {
	ts := setupServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	generated := rec.Header().Get(HeaderSessionID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, 1, ts.sessions.Len())

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", nil, HeaderSessionID, generated)
	assert.Equal(t, generated, rec.Header().Get(HeaderSessionID))
	assert.Equal(t, 1, ts.sessions.Len())
}

func TestCartEndpoints(t *testing.T) {
	ts := setupServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 3})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 3})
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decodeBody[session.CartView](t, rec)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, "29.90", view.Total.StringFixed(2))
	assert.Equal(t, domain.CheckoutStatusBrowsing, view.Status)

	rec = ts.do(t, http.MethodPatch, "/api/v1/cart/items/3", UpdateQuantityRequestDTO{Delta: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decodeBody[session.CartView](t, rec).ItemCount)

	rec = ts.do(t, http.MethodDelete, "/api/v1/cart/items/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[session.CartView](t, rec).ItemCount)

	rec = ts.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[session.CartView](t, rec).Items)

	rec = ts.do(t, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decodeBody[NotificationsResponse](t, rec).Notifications
	require.Len(t, notes, 4)
	assert.Equal(t, notify.KindAddedToCart, notes[0].Kind)
	assert.Equal(t, "Added Science Fiction Novel to your cart!", notes[0].Message)
	assert.Equal(t, notify.KindRemovedFromCart, notes[2].Kind)
}

func TestAddItem_BadRequests(t *testing.T) {
	ts := setupServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_product_id", decodeBody[ErrorResponse](t, rec).Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 77})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeBody[ErrorResponse](t, rec).Code)

	big := bytes.Repeat([]byte("a"), 2<<10)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(`{"product_id":1,"pad":"`+string(big)+`"}`))
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutFlow(t *testing.T) {
	ts := setupServer(t, nil)
	owner := []string{HeaderUserID, "alice"}

	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", nil, owner...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Your cart is empty", decodeBody[ErrorResponse](t, rec).Error)

	ts.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 3}, owner...)
	ts.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 3}, owner...)

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout", nil, owner...)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[checkout.View](t, rec)
	assert.Equal(t, domain.CheckoutStatusCheckingOut, view.Status)
	assert.Equal(t, "34.89", view.Pricing.Total.StringFixed(2))

	rec = ts.do(t, http.MethodPut, "/api/v1/checkout/delivery", SelectDeliveryRequestDTO{ID: "drone"}, owner...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(t, http.MethodPut, "/api/v1/checkout/delivery", SelectDeliveryRequestDTO{ID: "pickup"}, owner...)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPut, "/api/v1/checkout/delivery", SelectDeliveryRequestDTO{ID: "standard"}, owner...)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout/promo", ApplyPromoRequestDTO{Code: "BOGUS"}, owner...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid promo code", decodeBody[ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout/promo", ApplyPromoRequestDTO{Code: "summer10"}, owner...)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[checkout.View](t, rec)
	require.NotNil(t, view.Promo)
	assert.Equal(t, "SUMMER10", view.Promo.Code)
	assert.Equal(t, "26.91", view.Pricing.Subtotal.StringFixed(2))
	assert.Equal(t, "31.90", view.Pricing.Total.StringFixed(2))

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout/submit", nil, owner...)
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decodeBody[domain.Order](t, rec)
	assert.Equal(t, "alice", order.Owner)
	assert.Equal(t, "31.90", order.Total.StringFixed(2))
	assert.Equal(t, "SUMMER10", order.PromoCode)

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", nil, owner...)
	cv := decodeBody[session.CartView](t, rec)
	assert.Equal(t, 0, cv.ItemCount)
	assert.Equal(t, domain.CheckoutStatusBrowsing, cv.Status)

	rec = ts.do(t, http.MethodGet, "/api/v1/orders", nil, owner...)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decodeBody[OrdersResponse](t, rec).Orders
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestCheckout_SubmitWithNameAndGuards(t *testing.T) {
	ts := setupServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/checkout/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeBody[ErrorResponse](t, rec).Code)

	ts.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 2})
	ts.do(t, http.MethodPost, "/api/v1/checkout", nil)

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout/back", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CheckoutStatusBrowsing, decodeBody[checkout.View](t, rec).Status)

	ts.do(t, http.MethodPost, "/api/v1/checkout", nil)
	rec = ts.do(t, http.MethodDelete, "/api/v1/checkout/promo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/checkout/submit", SubmitRequestDTO{Name: "birthday"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "birthday", decodeBody[domain.Order](t, rec).Name)

	ts.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 2})
	ts.do(t, http.MethodPost, "/api/v1/checkout", nil)
	rec = ts.do(t, http.MethodPost, "/api/v1/checkout/submit", SubmitRequestDTO{Name: "birthday"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "An order with this name already exists", decodeBody[ErrorResponse](t, rec).Error)
}

func TestRemoteLoadFailureIsBadGateway(t *testing.T) {
	ts := setupServer(t, failingLoad{})

	rec := ts.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "remote_call_failed", resp.Code)
	assert.Equal(t, "failed to load cart", resp.Error)
	assert.True(t, resp.Retryable)
}

func TestResetSession(t *testing.T) {
	ts := setupServer(t, nil)

	ts.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: 1})
	require.Equal(t, 1, ts.sessions.Len())

	rec := ts.do(t, http.MethodDelete, "/api/v1/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, ts.sessions.Len())

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, 0, decodeBody[session.CartView](t, rec).ItemCount)
}
