// Package storefronttest provides an in-memory Storefront GraphQL backend
// for tests.
package storefronttest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"inkblot-storefront/internal/domain"
	"inkblot-storefront/internal/storefront"

	"github.com/shopspring/decimal"
)

const Token = "test-storefront-token"

// Failure is injected into the next matching request.
type Failure struct {
	// Status answers with this HTTP status and an empty body.
	Status int
	// Drop closes the connection without a response.
	Drop bool
	// Errors answers 200 with a GraphQL errors array.
	Errors []string
}

// Request is a recorded GraphQL call.
type Request struct {
	Operation string
	Variables map[string]interface{}
}

// Server fakes the subset of the Storefront API the client uses.
type Server struct {
	*httptest.Server

	// Delay is applied to every request before it is handled.
	Delay time.Duration

	mu       sync.Mutex
	products []domain.Product
	carts    map[string]*domain.Cart
	failures []Failure
	requests []Request
	nextCart int
	nextLine int
}

var operationPattern = regexp.MustCompile(`^\s*(?:query|mutation)\s*(\w*)`)

// NewServer starts a TLS server seeded with products. It is closed when t ends.
func NewServer(t testing.TB, products ...domain.Product) *Server {
	t.Helper()
	s := &Server{
		products: products,
		carts:    make(map[string]*domain.Cart),
	}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Domain is the host:port the client should be configured with.
func (s *Server) Domain() string {
	return strings.TrimPrefix(s.URL, "https://")
}

// Options returns client options pointing at s.
func (s *Server) Options() storefront.Options {
	return storefront.Options{
		Domain:     s.Domain(),
		Token:      Token,
		HTTPClient: s.Client(),
		Timeout:    5 * time.Second,
		Retry:      storefront.RetryPolicy{InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond},
	}
}

// NewClient builds a storefront client against s.
func (s *Server) NewClient(t testing.TB) *storefront.Client {
	t.Helper()
	c, err := storefront.New(s.Options())
	if err != nil {
		t.Fatalf("new storefront client: %v", err)
	}
	return c
}

// Fail queues failures for subsequent requests, one per request.
func (s *Server) Fail(f ...Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, f...)
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountOperation reports how many calls named op were received.
func (s *Server) CountOperation(op string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Operation == op {
			n++
		}
	}
	return n
}

// CartCount reports how many remote carts exist.
func (s *Server) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// Cart returns a copy of the remote cart with id.
func (s *Server) Cart(id string) (domain.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[id]
	if !ok {
		return domain.Cart{}, false
	}
	return cloneCart(*c), true
}

// Expire removes a remote cart, as the platform does when carts age out.
func (s *Server) Expire(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
}

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/graphql.json") {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("X-Shopify-Storefront-Access-Token") != Token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	op := ""
	if m := operationPattern.FindStringSubmatch(req.Query); m != nil {
		op = m[1]
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{Operation: op, Variables: req.Variables})
	var failure *Failure
	if len(s.failures) > 0 {
		f := s.failures[0]
		s.failures = s.failures[1:]
		failure = &f
	}
	s.mu.Unlock()

	if failure != nil {
		switch {
		case failure.Drop:
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
					return
				}
			}
			w.WriteHeader(http.StatusBadGateway)
			return
		case failure.Status != 0:
			w.WriteHeader(failure.Status)
			return
		case len(failure.Errors) > 0:
			errs := make([]map[string]string, 0, len(failure.Errors))
			for _, m := range failure.Errors {
				errs = append(errs, map[string]string{"message": m})
			}
			writeJSON(w, map[string]interface{}{"data": nil, "errors": errs})
			return
		}
	}

	var data interface{}
	switch op {
	case "Products":
		data = s.listProducts(intVar(req.Variables, "first"))
	case "ProductByHandle":
		data = s.findProduct(stringVar(req.Variables, "handle"))
	case "CreateCart":
		data = map[string]interface{}{"cartCreate": s.createCart(stringVar(req.Variables, "variantId"), intVar(req.Variables, "quantity"))}
	case "AddToCart":
		data = map[string]interface{}{"cartLinesAdd": s.addLines(stringVar(req.Variables, "cartId"), stringVar(req.Variables, "variantId"), intVar(req.Variables, "quantity"))}
	case "GetCart":
		data = s.getCart(stringVar(req.Variables, "cartId"))
	default:
		writeJSON(w, map[string]interface{}{"errors": []map[string]string{{"message": fmt.Sprintf("unknown operation %q", op)}}})
		return
	}
	writeJSON(w, map[string]interface{}{"data": data})
}

func (s *Server) listProducts(first int) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	edges := []interface{}{}
	for i, p := range s.products {
		if i >= first {
			break
		}
		edges = append(edges, map[string]interface{}{"node": productJSON(p)})
	}
	return map[string]interface{}{"products": map[string]interface{}{"edges": edges}}
}

func (s *Server) findProduct(handle string) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Handle == handle {
			return map[string]interface{}{"product": productJSON(p)}
		}
	}
	return map[string]interface{}{"product": nil}
}

func (s *Server) createCart(variantID string, quantity int) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	variant, product, ok := s.findVariant(variantID)
	if msg := lineProblem(variantID, variant, ok, quantity); msg != "" {
		return userErrorPayload(msg)
	}
	s.nextCart++
	id := fmt.Sprintf("gid://shopify/Cart/c%d", s.nextCart)
	cart := &domain.Cart{
		ID:          id,
		CheckoutURL: fmt.Sprintf("%s/cart/c/c%d", s.URL, s.nextCart),
	}
	s.carts[id] = cart
	s.addLine(cart, variant, product, quantity)
	return map[string]interface{}{"cart": cartJSON(*cart), "userErrors": []interface{}{}}
}

func (s *Server) addLines(cartID, variantID string, quantity int) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, exists := s.carts[cartID]
	if !exists {
		return map[string]interface{}{
			"cart":       nil,
			"userErrors": []interface{}{map[string]interface{}{"field": []string{"cartId"}, "message": "The specified cart does not exist."}},
		}
	}
	variant, product, ok := s.findVariant(variantID)
	if msg := lineProblem(variantID, variant, ok, quantity); msg != "" {
		return userErrorPayload(msg)
	}
	s.addLine(cart, variant, product, quantity)
	return map[string]interface{}{"cart": cartJSON(*cart), "userErrors": []interface{}{}}
}

func (s *Server) getCart(cartID string) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[cartID]
	if !ok {
		return map[string]interface{}{"cart": nil}
	}
	return map[string]interface{}{"cart": cartJSON(*cart)}
}

func (s *Server) findVariant(id string) (domain.ProductVariant, domain.Product, bool) {
	for _, p := range s.products {
		for _, v := range p.Variants {
			if v.ID == id {
				return v, p, true
			}
		}
	}
	return domain.ProductVariant{}, domain.Product{}, false
}

func (s *Server) addLine(cart *domain.Cart, v domain.ProductVariant, p domain.Product, quantity int) {
	merged := false
	for i := range cart.Lines {
		if cart.Lines[i].Merchandise.ID == v.ID {
			cart.Lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.nextLine++
		cart.Lines = append(cart.Lines, domain.CartLine{
			ID:          fmt.Sprintf("gid://shopify/CartLine/l%d", s.nextLine),
			Quantity:    quantity,
			Merchandise: domain.CartMerchandise{ProductVariant: v, ProductTitle: p.Title},
		})
	}

	total := decimal.Zero
	qty := 0
	code := v.Price.CurrencyCode
	for _, l := range cart.Lines {
		qty += l.Quantity
		total = total.Add(decimal.RequireFromString(l.Merchandise.Price.Amount).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	cart.TotalQuantity = qty
	cart.TotalAmount = domain.Money{Amount: total.StringFixed(2), CurrencyCode: code}
}

func lineProblem(variantID string, v domain.ProductVariant, found bool, quantity int) string {
	switch {
	case !found:
		return fmt.Sprintf("The merchandise with id %s does not exist.", variantID)
	case !v.AvailableForSale:
		return fmt.Sprintf("The merchandise with id %s is not available for sale.", variantID)
	case quantity < 1:
		return "Quantity must be at least 1."
	}
	return ""
}

func userErrorPayload(msg string) map[string]interface{} {
	return map[string]interface{}{
		"cart":       nil,
		"userErrors": []interface{}{map[string]interface{}{"field": []string{"lines"}, "message": msg}},
	}
}

func productJSON(p domain.Product) map[string]interface{} {
	variants := []interface{}{}
	for _, v := range p.Variants {
		variants = append(variants, map[string]interface{}{"node": variantJSON(v)})
	}
	images := []interface{}{}
	for _, img := range p.Images {
		images = append(images, map[string]interface{}{"node": map[string]interface{}{"url": img.URL, "altText": img.AltText}})
	}
	return map[string]interface{}{
		"id":          p.ID,
		"title":       p.Title,
		"handle":      p.Handle,
		"description": p.Description,
		"priceRange":  map[string]interface{}{"minVariantPrice": moneyJSON(p.MinVariantPrice)},
		"variants":    map[string]interface{}{"edges": variants},
		"images":      map[string]interface{}{"edges": images},
	}
}

func variantJSON(v domain.ProductVariant) map[string]interface{} {
	return map[string]interface{}{
		"id":               v.ID,
		"title":            v.Title,
		"price":            moneyJSON(v.Price),
		"availableForSale": v.AvailableForSale,
	}
}

func cartJSON(c domain.Cart) map[string]interface{} {
	lines := []interface{}{}
	for _, l := range c.Lines {
		merch := variantJSON(l.Merchandise.ProductVariant)
		merch["product"] = map[string]interface{}{"title": l.Merchandise.ProductTitle}
		lines = append(lines, map[string]interface{}{"node": map[string]interface{}{
			"id":          l.ID,
			"quantity":    l.Quantity,
			"merchandise": merch,
		}})
	}
	return map[string]interface{}{
		"id":            c.ID,
		"checkoutUrl":   c.CheckoutURL,
		"totalQuantity": c.TotalQuantity,
		"cost":          map[string]interface{}{"totalAmount": moneyJSON(c.TotalAmount)},
		"lines":         map[string]interface{}{"edges": lines},
	}
}

func moneyJSON(m domain.Money) map[string]interface{} {
	return map[string]interface{}{"amount": m.Amount, "currencyCode": m.CurrencyCode}
}

func cloneCart(c domain.Cart) domain.Cart {
	c.Lines = append([]domain.CartLine(nil), c.Lines...)
	return c
}

func intVar(vars map[string]interface{}, key string) int {
	if f, ok := vars[key].(float64); ok {
		return int(f)
	}
	return 0
}

func stringVar(vars map[string]interface{}, key string) string {
	s, _ := vars[key].(string)
	return s
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
