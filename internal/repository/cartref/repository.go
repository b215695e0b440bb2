package cartref

import (
	"context"
)

// Key is the well-known name the cart reference is stored under.
const Key = "inkblot_cart_id"

// Repository stores at most one cart id per browser profile. Put always
// overwrites. Get returns domain.ErrNotFound when the profile has no cart.
type Repository interface {
	Get(ctx context.Context, profileID string) (string, error)
	Put(ctx context.Context, profileID, cartID string) error
	Delete(ctx context.Context, profileID string) error
	Ping(ctx context.Context) error
}
