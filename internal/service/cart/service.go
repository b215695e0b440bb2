package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"inkblot-storefront/internal/domain"
	"inkblot-storefront/internal/repository/cartref"
)

// BusyPolicy decides what happens to a cart mutation issued while another
// one for the same profile is still in flight.
type BusyPolicy string

const (
	// BusyWait queues the call behind the in-flight one.
	BusyWait BusyPolicy = "wait"
	// BusyReject fails the call with domain.ErrBusy.
	BusyReject BusyPolicy = "reject"
)

var (
	ErrProfileRequired = errors.New("profile required")
	ErrVariantRequired = errors.New("variantId required")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

type remoteCarts interface {
	CreateCart(ctx context.Context, variantID string, quantity int) (*domain.Cart, error)
	AddLines(ctx context.Context, cartID, variantID string, quantity int) (*domain.Cart, error)
	Cart(ctx context.Context, cartID string) (*domain.Cart, error)
}

// Service owns the current cart of each browser profile. The profile's
// reference is only rewritten after the storefront confirmed a mutation.
type Service struct {
	remote     remoteCarts
	refs       cartref.Repository
	locks      *profileLocks
	busy       BusyPolicy
	clearStale bool
	logger     *log.Logger
}

type Option func(*Service)

func WithBusyPolicy(p BusyPolicy) Option {
	return func(s *Service) {
		if p == BusyReject {
			s.busy = BusyReject
			return
		}
		s.busy = BusyWait
	}
}

// WithClearStale makes FetchCurrentCart drop a reference whose remote cart
// no longer exists.
func WithClearStale(enabled bool) Option {
	return func(s *Service) { s.clearStale = enabled }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(remote remoteCarts, refs cartref.Repository, opts ...Option) *Service {
	s := &Service{
		remote: remote,
		refs:   refs,
		locks:  newProfileLocks(),
		busy:   BusyWait,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddVariant adds quantity of variantID to the profile's cart, creating the
// cart when the profile has none. Failures leave the stored reference as it
// was. A dead remote cart is reported, not replaced.
func (s *Service) AddVariant(ctx context.Context, profileID, variantID string, quantity int) (*domain.Cart, error) {
	profileID = strings.TrimSpace(profileID)
	variantID = strings.TrimSpace(variantID)
	if profileID == "" {
		return nil, ErrProfileRequired
	}
	if variantID == "" {
		return nil, ErrVariantRequired
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	release, err := s.locks.acquire(ctx, profileID, s.busy == BusyWait)
	if err != nil {
		if errors.Is(err, domain.ErrBusy) {
			s.logger.Printf("cart: add profile=%s rejected, mutation in flight", profileID)
		}
		return nil, err
	}
	defer release()

	cartID, err := s.refs.Get(ctx, profileID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var cart *domain.Cart
	if cartID == "" {
		cart, err = s.remote.CreateCart(ctx, variantID, quantity)
		if err != nil {
			s.logger.Printf("cart: create profile=%s variant=%s error=%v", profileID, variantID, err)
			return nil, err
		}
		s.logger.Printf("cart: created profile=%s cart=%s", profileID, cart.ID)
	} else {
		cart, err = s.remote.AddLines(ctx, cartID, variantID, quantity)
		if err != nil {
			s.logger.Printf("cart: add profile=%s cart=%s variant=%s error=%v", profileID, cartID, variantID, err)
			return nil, err
		}
	}

	if err := s.refs.Put(ctx, profileID, cart.ID); err != nil {
		s.logger.Printf("cart: store ref profile=%s cart=%s error=%v", profileID, cart.ID, err)
		return nil, err
	}
	return cart, nil
}

// FetchCurrentCart returns the profile's cart, or domain.ErrNotFound when it
// has none or the remote cart is gone. No request is made without a reference.
func (s *Service) FetchCurrentCart(ctx context.Context, profileID string) (*domain.Cart, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, domain.ErrNotFound
	}
	cartID, err := s.refs.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	cart, err := s.remote.Cart(ctx, cartID)
	if err == nil {
		return cart, nil
	}
	if errors.Is(err, domain.ErrNotFound) && s.clearStale {
		s.dropStale(ctx, profileID, cartID)
	}
	return nil, err
}

func (s *Service) dropStale(ctx context.Context, profileID, staleID string) {
	release, err := s.locks.acquire(ctx, profileID, true)
	if err != nil {
		return
	}
	defer release()

	// A concurrent AddVariant may already have replaced the reference.
	current, err := s.refs.Get(ctx, profileID)
	if err != nil || current != staleID {
		return
	}
	if err := s.refs.Delete(ctx, profileID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.logger.Printf("cart: clear stale profile=%s cart=%s error=%v", profileID, staleID, err)
		return
	}
	s.logger.Printf("cart: cleared stale profile=%s cart=%s", profileID, staleID)
}
