package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkblot-storefront/internal/domain"
	"inkblot-storefront/internal/repository/cartref"
	cartsvc "inkblot-storefront/internal/service/cart"
	"inkblot-storefront/internal/service/profile"

	"github.com/gin-gonic/gin"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubCatalogService struct {
	products  []domain.Product
	product   *domain.Product
	err       error
	lastLimit int
}

func (s *stubCatalogService) ListProducts(_ context.Context, limit int) ([]domain.Product, error) {
	s.lastLimit = limit
	return s.products, s.err
}

func (s *stubCatalogService) GetProductByHandle(_ context.Context, _ string) (*domain.Product, error) {
	return s.product, s.err
}

type stubCartService struct {
	cart        *domain.Cart
	err         error
	addCalls    int
	lastProfile string
	lastVariant string
	lastQty     int
}

func (s *stubCartService) AddVariant(_ context.Context, profileID, variantID string, quantity int) (*domain.Cart, error) {
	s.addCalls++
	s.lastProfile = profileID
	s.lastVariant = variantID
	s.lastQty = quantity
	return s.cart, s.err
}

func (s *stubCartService) FetchCurrentCart(_ context.Context, profileID string) (*domain.Cart, error) {
	s.lastProfile = profileID
	return s.cart, s.err
}

type stubStore struct{ err error }

func (s stubStore) Ping(context.Context) error { return s.err }

func testRouter(t *testing.T, catalog *stubCatalogService, carts *stubCartService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), Deps{
		CatalogSvc: catalog,
		CartSvc:    carts,
		ProfileSvc: profile.New(0),
		CartStore:  stubStore{},
	}, nil)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func do(router *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sampleCart() *domain.Cart {
	return &domain.Cart{
		ID:            "gid://shopify/Cart/c1",
		CheckoutURL:   "https://inkblot.example/cart/c/c1",
		TotalQuantity: 2,
		TotalAmount:   domain.Money{Amount: "39.98", CurrencyCode: "GBP"},
		Lines: []domain.CartLine{{
			ID:       "line-1",
			Quantity: 2,
			Merchandise: domain.CartMerchandise{
				ProductVariant: domain.ProductVariant{ID: "v1", Title: "Monthly", Price: domain.Money{Amount: "19.99", CurrencyCode: "GBP"}},
				ProductTitle:   "Monthly Ink Box",
			},
		}},
	}
}

func TestListProductsFormatsPrices(t *testing.T) {
	catalog := &stubCatalogService{products: []domain.Product{{
		ID: "p1", Handle: "box", Title: "Box",
		MinVariantPrice: domain.Money{Amount: "19.99", CurrencyCode: "GBP"},
	}}}
	router := testRouter(t, catalog, &stubCartService{})

	rec := do(router, http.MethodGet, "/api/products?limit=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if catalog.lastLimit != 3 {
		t.Fatalf("expected limit 3, got %d", catalog.lastLimit)
	}
	var body struct {
		Products []productResponse `json:"products"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Products) != 1 || !strings.Contains(body.Products[0].Price.Formatted, "19.99") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestListProductsRejectsBadLimit(t *testing.T) {
	router := testRouter(t, &stubCatalogService{}, &stubCartService{})
	if rec := do(router, http.MethodGet, "/api/products?limit=abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetProductNotFound(t *testing.T) {
	router := testRouter(t, &stubCatalogService{err: domain.ErrNotFound}, &stubCartService{})
	if rec := do(router, http.MethodGet, "/api/products/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		want string
	}{
		{"configuration", domain.ErrConfiguration, http.StatusInternalServerError, "not configured"},
		{"transport", &domain.TransportError{Op: "Products", StatusCode: 503}, http.StatusBadGateway, `"retryable":true`},
		{"transport client", &domain.TransportError{Op: "Products", StatusCode: 401}, http.StatusBadGateway, `"retryable":false`},
		{"remote", &domain.RemoteError{Op: "Products", Messages: []string{"a", "b"}}, http.StatusUnprocessableEntity, `"messages":["a","b"]`},
		{"busy", domain.ErrBusy, http.StatusConflict, "in progress"},
		{"validation", cartsvc.ErrInvalidQuantity, http.StatusBadRequest, "quantity must be positive"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := testRouter(t, &stubCatalogService{err: tc.err}, &stubCartService{})
			rec := do(router, http.MethodGet, "/api/products", "")
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.want) {
				t.Fatalf("expected body to contain %s, got %s", tc.want, rec.Body.String())
			}
		})
	}
}

func TestAddToCartIssuesProfileAndDefaultsQuantity(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	router := testRouter(t, &stubCatalogService{}, carts)

	rec := do(router, http.MethodPost, "/api/cart/add", `{"variantId":"v1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if carts.lastQty != 1 || carts.lastVariant != "v1" {
		t.Fatalf("unexpected call qty=%d variant=%s", carts.lastQty, carts.lastVariant)
	}
	if carts.lastProfile == "" {
		t.Fatalf("expected a profile id")
	}
	var issued *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == profile.CookieName {
			issued = c
		}
	}
	if issued == nil || issued.Value != carts.lastProfile || !issued.HttpOnly {
		t.Fatalf("expected profile cookie, got %+v", rec.Result().Cookies())
	}
	if !strings.Contains(rec.Body.String(), `"checkoutUrl":"https://inkblot.example/cart/c/c1"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAddToCartReusesProfileCookie(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	router := testRouter(t, &stubCatalogService{}, carts)
	id := profile.New(0).Issue()

	rec := do(router, http.MethodPost, "/api/cart/add", `{"variantId":"v1","quantity":3}`, &http.Cookie{Name: profile.CookieName, Value: id})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if carts.lastProfile != id || carts.lastQty != 3 {
		t.Fatalf("unexpected call profile=%s qty=%d", carts.lastProfile, carts.lastQty)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("expected no new cookie")
	}
}

func TestAddToCartHoneypot(t *testing.T) {
	carts := &stubCartService{cart: sampleCart()}
	router := testRouter(t, &stubCatalogService{}, carts)

	rec := do(router, http.MethodPost, "/api/cart/add", `{"variantId":"v1","website":"http://spam"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if carts.addCalls != 0 {
		t.Fatalf("expected cart untouched")
	}
}

func TestAddToCartBadBody(t *testing.T) {
	router := testRouter(t, &stubCatalogService{}, &stubCartService{})
	if rec := do(router, http.MethodPost, "/api/cart/add", `{"variantId":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCurrentCartWithoutCart(t *testing.T) {
	router := testRouter(t, &stubCatalogService{}, &stubCartService{err: domain.ErrNotFound})
	if rec := do(router, http.MethodGet, "/api/cart", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReadyHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), Deps{
		CatalogSvc: &stubCatalogService{},
		CartSvc:    &stubCartService{},
		ProfileSvc: profile.New(0),
		CartStore:  stubStore{err: errors.New("down")},
	}, nil)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	if rec := do(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	router = testRouter(t, &stubCatalogService{}, &stubCartService{})
	if rec := do(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBuildRouterRequiresProfiles(t *testing.T) {
	if _, err := buildRouter(logDiscard(), Deps{CartStore: cartref.NewMemory()}, nil); err == nil {
		t.Fatalf("expected error without profile service")
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), Deps{
		CatalogSvc: &stubCatalogService{},
		CartSvc:    &stubCartService{},
		ProfileSvc: profile.New(0),
		CartStore:  stubStore{},
	}, []string{"https://inkblot.example"})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://inkblot.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://inkblot.example" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
