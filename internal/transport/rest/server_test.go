package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/cart/internal/domain"
	cartservice "github.com/vladislavdragonenkov/cart/internal/service/cart"
	"github.com/vladislavdragonenkov/cart/internal/service/catalog"
	"github.com/vladislavdragonenkov/cart/internal/storage/memory"
)

func stockOf(v int32) *int32 { return &v }

type testClient struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newTestServer(t *testing.T, products ...domain.Product) (*testClient, *catalog.MockCatalog) {
	t.Helper()

	mock := catalog.NewMockCatalog(products...)
	service := cartservice.NewService(memory.NewCartRepository(), mock, nil)
	server := NewServer(":0", service, NewSessionManager([]byte("test-secret"), 86400),
		WithIdempotency(memory.NewIdempotencyRepository(), time.Hour))

	return &testClient{t: t, handler: server.Handler()}, mock
}

func (c *testClient) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echoHeaderContentType, "application/json")
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return rec
}

const echoHeaderContentType = "Content-Type"

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAddItem(t *testing.T) {
	client, _ := newTestServer(t, domain.Product{ID: "p1", Name: "Abbey Road", PriceMinor: 2499, Stock: stockOf(10)})

	rec := client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":2}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[mutationResponse](t, rec)
	require.Equal(t, "success", resp.Status)
	require.Len(t, resp.View.Items, 1)
	require.Equal(t, int32(2), resp.View.Items[0].Quantity)
	require.Equal(t, "49.98", resp.View.SubtotalFormatted)
}

func TestAddItem_DefaultQuantity(t *testing.T) {
	client, _ := newTestServer(t, domain.Product{ID: "p1", Name: "one", PriceMinor: 100})

	rec := client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[mutationResponse](t, rec)
	require.Equal(t, int32(1), resp.View.Items[0].Quantity)
}

func TestAddItem_StockExceeded(t *testing.T) {
	client, _ := newTestServer(t, domain.Product{ID: "p1", Name: "one", PriceMinor: 100, Stock: stockOf(3)})

	rec := client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":9}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[mutationResponse](t, rec)
	require.Equal(t, "stock_exceeded", resp.Status)
	require.Equal(t, int32(3), resp.View.Items[0].Quantity)
}

func TestAddItem_Validation(t *testing.T) {
	client, _ := newTestServer(t, domain.Product{ID: "p1", PriceMinor: 100})

	rec := client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":0}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = client.do(http.MethodPost, "/api/cart/items", `{"quantity":1}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	client, _ := newTestServer(t)

	rec := client.do(http.MethodPost, "/api/cart/items", `{"product_id":"ghost"}`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddItem_CatalogDown(t *testing.T) {
	client, mock := newTestServer(t, domain.Product{ID: "p1", PriceMinor: 100})
	mock.GetErr = domain.ErrCatalogUnavailable

	rec := client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1"}`, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUpdateItem(t *testing.T) {
	client, _ := newTestServer(t, domain.Product{ID: "p1", Name: "one", PriceMinor: 100})

	rec := client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":2}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = client.do(http.MethodPatch, "/api/cart/items/p1", `{"quantity":7,"mode":"set"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[mutationResponse](t, rec)
	require.Equal(t, int32(7), resp.View.Items[0].Quantity)

	rec = client.do(http.MethodPatch, "/api/cart/items/p1", `{"quantity":3,"mode":"decrement"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[mutationResponse](t, rec)
	require.Equal(t, int32(4), resp.View.Items[0].Quantity)
}

func TestUpdateItem_Errors(t *testing.T) {
	client, _ := newTestServer(t, domain.Product{ID: "p1", Name: "one", PriceMinor: 100})

	rec := client.do(http.MethodPatch, "/api/cart/items/p1", `{"quantity":2,"mode":"toggle"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = client.do(http.MethodPatch, "/api/cart/items/p1", `{"quantity":2}`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveItem(t *testing.T) {
	client, _ := newTestServer(t, domain.Product{ID: "p1", Name: "Abbey Road", PriceMinor: 2499})

	rec := client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = client.do(http.MethodDelete, "/api/cart/items/p1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[removeResponse](t, rec)
	require.Equal(t, "Abbey Road", resp.RemovedName)
	require.True(t, resp.View.IsEmpty)

	rec = client.do(http.MethodDelete, "/api/cart/items/p1", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearCart(t *testing.T) {
	client, _ := newTestServer(t,
		domain.Product{ID: "p1", Name: "one", PriceMinor: 100},
		domain.Product{ID: "p2", Name: "two", PriceMinor: 200},
	)

	client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":2}`, nil)
	client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p2","quantity":3}`, nil)

	rec := client.do(http.MethodDelete, "/api/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[clearResponse](t, rec)
	require.Equal(t, int32(5), resp.ItemsRemoved)

	rec = client.do(http.MethodDelete, "/api/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetCartCountTotals(t *testing.T) {
	client, _ := newTestServer(t,
		domain.Product{ID: "p1", Name: "Abbey Road", PriceMinor: 2499},
		domain.Product{ID: "p2", Name: "Rumours", PriceMinor: 2299},
	)

	client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":2}`, nil)
	client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p2","quantity":1}`, nil)

	rec := client.do(http.MethodGet, "/api/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[domain.CartView](t, rec)
	require.Len(t, view.Items, 2)

	rec = client.do(http.MethodGet, "/api/cart/count", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	count := decode[countResponse](t, rec)
	require.Equal(t, int32(3), count.TotalItems)
	require.Equal(t, 2, count.UniqueProductCount)

	rec = client.do(http.MethodGet, "/api/cart/totals", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := decode[domain.Totals](t, rec)
	require.Equal(t, int64(7297), totals.SubtotalMinor)
	require.Equal(t, int64(1168), totals.TaxMinor)
	require.Equal(t, int64(8465), totals.TotalMinor)
}

func TestVerifyCart(t *testing.T) {
	client, mock := newTestServer(t, domain.Product{ID: "p1", Name: "one", PriceMinor: 100})

	client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":2}`, nil)
	mock.SetPrice("p1", 150)

	rec := client.do(http.MethodPost, "/api/cart/verify", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[verifyResponse](t, rec)
	require.True(t, resp.RequiresReview)
	require.Len(t, resp.PriceChanged, 1)
	require.Equal(t, int64(300), resp.View.Totals.SubtotalMinor)
}

func TestSessionCookie_IsolatesClients(t *testing.T) {
	mock := catalog.NewMockCatalog(domain.Product{ID: "p1", Name: "one", PriceMinor: 100})
	service := cartservice.NewService(memory.NewCartRepository(), mock, nil)
	server := NewServer(":0", service, NewSessionManager([]byte("test-secret"), 86400))

	alice := &testClient{t: t, handler: server.Handler()}
	bob := &testClient{t: t, handler: server.Handler()}

	rec := alice.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":2}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, alice.cookies)

	rec = bob.do(http.MethodGet, "/api/cart/count", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	count := decode[countResponse](t, rec)
	require.True(t, count.IsEmpty)

	rec = alice.do(http.MethodGet, "/api/cart/count", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	count = decode[countResponse](t, rec)
	require.Equal(t, int32(2), count.TotalItems)
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	client, _ := newTestServer(t, domain.Product{ID: "p1", Name: "one", PriceMinor: 100})
	headers := map[string]string{"Idempotency-Key": "key-1"}

	first := client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":2}`, headers)
	require.Equal(t, http.StatusOK, first.Code)

	// Повтор с тем же ключом не добавляет товар второй раз.
	second := client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":2}`, headers)
	require.Equal(t, http.StatusOK, second.Code)
	require.JSONEq(t, first.Body.String(), second.Body.String())

	rec := client.do(http.MethodGet, "/api/cart/count", "", nil)
	count := decode[countResponse](t, rec)
	require.Equal(t, int32(2), count.TotalItems)
}

func TestIdempotency_HashMismatch(t *testing.T) {
	client, _ := newTestServer(t, domain.Product{ID: "p1", Name: "one", PriceMinor: 100})
	headers := map[string]string{"Idempotency-Key": "key-2"}

	rec := client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":2}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":5}`, headers)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestIdempotency_WithoutKeyIsPassthrough(t *testing.T) {
	client, _ := newTestServer(t, domain.Product{ID: "p1", Name: "one", PriceMinor: 100})

	client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":1}`, nil)
	client.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":1}`, nil)

	rec := client.do(http.MethodGet, "/api/cart/count", "", nil)
	count := decode[countResponse](t, rec)
	require.Equal(t, int32(2), count.TotalItems)
}
