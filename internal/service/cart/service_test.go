package cart

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"inkblot-storefront/internal/domain"
	"inkblot-storefront/internal/repository/cartref"
)

type stubRemote struct {
	createCart   *domain.Cart
	createErr    error
	addCart      *domain.Cart
	addErr       error
	getCart      *domain.Cart
	getErr       error
	createCalls  int
	addCalls     int
	getCalls     int
	lastCartID   string
	lastVariant  string
	lastQuantity int
	block        chan struct{}
}

func (s *stubRemote) CreateCart(_ context.Context, variantID string, quantity int) (*domain.Cart, error) {
	if s.block != nil {
		<-s.block
	}
	s.createCalls++
	s.lastVariant = variantID
	s.lastQuantity = quantity
	return s.createCart, s.createErr
}

func (s *stubRemote) AddLines(_ context.Context, cartID, variantID string, quantity int) (*domain.Cart, error) {
	s.addCalls++
	s.lastCartID = cartID
	s.lastVariant = variantID
	s.lastQuantity = quantity
	return s.addCart, s.addErr
}

func (s *stubRemote) Cart(_ context.Context, cartID string) (*domain.Cart, error) {
	s.getCalls++
	s.lastCartID = cartID
	return s.getCart, s.getErr
}

type failingRefs struct {
	cartref.Repository
	getErr error
	putErr error
}

func (f *failingRefs) Get(ctx context.Context, profileID string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.Repository.Get(ctx, profileID)
}

func (f *failingRefs) Put(ctx context.Context, profileID, cartID string) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Repository.Put(ctx, profileID, cartID)
}

func storedRef(t *testing.T, refs cartref.Repository, profileID string) string {
	t.Helper()
	id, err := refs.Get(context.Background(), profileID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get ref: %v", err)
	}
	return id
}

func TestAddVariantValidation(t *testing.T) {
	svc := New(&stubRemote{}, cartref.NewMemory())
	ctx := context.Background()

	if _, err := svc.AddVariant(ctx, "p1", "  ", 1); err == nil || err.Error() != "variantId required" {
		t.Fatalf("expected variant validation error, got %v", err)
	}
	if _, err := svc.AddVariant(ctx, "p1", "v1", 0); err == nil || err.Error() != "quantity must be positive" {
		t.Fatalf("expected quantity validation error, got %v", err)
	}
	if _, err := svc.AddVariant(ctx, "", "v1", 1); err == nil || err.Error() != "profile required" {
		t.Fatalf("expected profile validation error, got %v", err)
	}
}

func TestAddVariantCreatesCartWhenNoReference(t *testing.T) {
	remote := &stubRemote{createCart: &domain.Cart{ID: "cart-1", CheckoutURL: "https://shop/checkout/1"}}
	refs := cartref.NewMemory()
	svc := New(remote, refs)

	got, err := svc.AddVariant(context.Background(), "p1", "v1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != remote.createCart {
		t.Fatalf("unexpected cart: %+v", got)
	}
	if remote.createCalls != 1 || remote.addCalls != 0 {
		t.Fatalf("expected one create and no add, got create=%d add=%d", remote.createCalls, remote.addCalls)
	}
	if remote.lastVariant != "v1" || remote.lastQuantity != 2 {
		t.Fatalf("create not called as expected")
	}
	if ref := storedRef(t, refs, "p1"); ref != "cart-1" {
		t.Fatalf("expected stored ref cart-1, got %q", ref)
	}
}

func TestAddVariantAddsToExistingCart(t *testing.T) {
	remote := &stubRemote{addCart: &domain.Cart{ID: "cart-2"}}
	refs := cartref.NewMemory()
	_ = refs.Put(context.Background(), "p1", "cart-1")
	svc := New(remote, refs)

	if _, err := svc.AddVariant(context.Background(), "p1", "v1", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remote.createCalls != 0 || remote.addCalls != 1 || remote.lastCartID != "cart-1" {
		t.Fatalf("add lines not called as expected")
	}
	if ref := storedRef(t, refs, "p1"); ref != "cart-2" {
		t.Fatalf("expected ref overwritten with returned id, got %q", ref)
	}
}

func TestAddVariantRemoteFailureKeepsReference(t *testing.T) {
	remote := &stubRemote{addErr: &domain.RemoteError{Op: "AddToCart", Messages: []string{"The specified cart does not exist."}}}
	refs := cartref.NewMemory()
	_ = refs.Put(context.Background(), "p1", "cart-dead")
	svc := New(remote, refs)

	_, err := svc.AddVariant(context.Background(), "p1", "v1", 1)
	if !domain.IsRemote(err) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if remote.createCalls != 0 {
		t.Fatalf("must not fall back to creating a cart")
	}
	if ref := storedRef(t, refs, "p1"); ref != "cart-dead" {
		t.Fatalf("expected ref unchanged, got %q", ref)
	}
}

func TestAddVariantTransportFailureKeepsReference(t *testing.T) {
	remote := &stubRemote{addErr: &domain.TransportError{Op: "AddToCart", StatusCode: 503}}
	refs := cartref.NewMemory()
	_ = refs.Put(context.Background(), "p1", "cart-1")
	svc := New(remote, refs)

	_, err := svc.AddVariant(context.Background(), "p1", "v1", 1)
	if !domain.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if remote.createCalls != 0 {
		t.Fatalf("must not fall back to creating a cart")
	}
	if ref := storedRef(t, refs, "p1"); ref != "cart-1" {
		t.Fatalf("expected ref unchanged, got %q", ref)
	}
}

func TestAddVariantTransportFailureFromNoCart(t *testing.T) {
	remote := &stubRemote{createErr: &domain.TransportError{Op: "CreateCart", Err: errors.New("connection reset")}}
	refs := cartref.NewMemory()
	svc := New(remote, refs)

	_, err := svc.AddVariant(context.Background(), "p1", "v1", 1)
	if !domain.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if ref := storedRef(t, refs, "p1"); ref != "" {
		t.Fatalf("expected no ref, got %q", ref)
	}
}

func TestAddVariantStoreErrors(t *testing.T) {
	remote := &stubRemote{createCart: &domain.Cart{ID: "cart-1"}}
	svc := New(remote, &failingRefs{Repository: cartref.NewMemory(), getErr: errors.New("store down")})
	if _, err := svc.AddVariant(context.Background(), "p1", "v1", 1); err == nil || err.Error() != "store down" {
		t.Fatalf("expected store error, got %v", err)
	}
	if remote.createCalls != 0 {
		t.Fatalf("must not reach remote when the reference cannot be read")
	}

	var logs bytes.Buffer
	svc = New(remote, &failingRefs{Repository: cartref.NewMemory(), putErr: errors.New("write failed")},
		WithLogger(log.New(&logs, "", 0)))
	if _, err := svc.AddVariant(context.Background(), "p1", "v1", 1); err == nil || err.Error() != "write failed" {
		t.Fatalf("expected put error, got %v", err)
	}
	if !strings.Contains(logs.String(), "cart=cart-1") || !strings.Contains(logs.String(), "write failed") {
		t.Fatalf("expected orphaned cart id in logs, got %q", logs.String())
	}
}

func TestFetchCurrentCartWithoutReferenceSkipsRemote(t *testing.T) {
	remote := &stubRemote{}
	svc := New(remote, cartref.NewMemory())

	_, err := svc.FetchCurrentCart(context.Background(), "p1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if remote.getCalls != 0 {
		t.Fatalf("expected no remote call, got %d", remote.getCalls)
	}
}

func TestFetchCurrentCartKeepsStaleReferenceByDefault(t *testing.T) {
	remote := &stubRemote{getErr: domain.ErrNotFound}
	refs := cartref.NewMemory()
	_ = refs.Put(context.Background(), "p1", "cart-old")
	svc := New(remote, refs)

	_, err := svc.FetchCurrentCart(context.Background(), "p1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if ref := storedRef(t, refs, "p1"); ref != "cart-old" {
		t.Fatalf("expected stale ref kept, got %q", ref)
	}
}

func TestFetchCurrentCartClearsStaleReferenceWhenEnabled(t *testing.T) {
	remote := &stubRemote{getErr: domain.ErrNotFound}
	refs := cartref.NewMemory()
	_ = refs.Put(context.Background(), "p1", "cart-old")
	svc := New(remote, refs, WithClearStale(true))

	if _, err := svc.FetchCurrentCart(context.Background(), "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if ref := storedRef(t, refs, "p1"); ref != "" {
		t.Fatalf("expected stale ref cleared, got %q", ref)
	}
}

func TestFetchCurrentCartTransportErrorKeepsReference(t *testing.T) {
	remote := &stubRemote{getErr: &domain.TransportError{Op: "GetCart", StatusCode: 503}}
	refs := cartref.NewMemory()
	_ = refs.Put(context.Background(), "p1", "cart-1")
	svc := New(remote, refs, WithClearStale(true))

	if _, err := svc.FetchCurrentCart(context.Background(), "p1"); !domain.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if ref := storedRef(t, refs, "p1"); ref != "cart-1" {
		t.Fatalf("expected ref kept, got %q", ref)
	}
}

func TestAddVariantRejectsWhileBusy(t *testing.T) {
	remote := &stubRemote{createCart: &domain.Cart{ID: "cart-1"}, block: make(chan struct{})}
	svc := New(remote, cartref.NewMemory(), WithBusyPolicy(BusyReject))

	done := make(chan error, 1)
	go func() {
		_, err := svc.AddVariant(context.Background(), "p1", "v1", 1)
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for svc.locks.size() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first call never took the lock")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := svc.AddVariant(context.Background(), "p1", "v2", 1); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("expected busy, got %v", err)
	}

	close(remote.block)
	if err := <-done; err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if svc.locks.size() != 0 {
		t.Fatalf("expected lock table to be empty, got %d", svc.locks.size())
	}
}

func TestAddVariantWaitHonoursContext(t *testing.T) {
	remote := &stubRemote{createCart: &domain.Cart{ID: "cart-1"}, block: make(chan struct{})}
	svc := New(remote, cartref.NewMemory())

	done := make(chan error, 1)
	go func() {
		_, err := svc.AddVariant(context.Background(), "p1", "v1", 1)
		done <- err
	}()
	for svc.locks.size() == 0 {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := svc.AddVariant(ctx, "p1", "v2", 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(remote.block)
	if err := <-done; err != nil {
		t.Fatalf("first call failed: %v", err)
	}
}
