package catalog

import (
	"context"
	"io"
	"log"
	"strings"

	"inkblot-storefront/internal/domain"
	"inkblot-storefront/internal/storefront"

	"golang.org/x/sync/singleflight"
)

// DefaultLimit is used when callers ask for zero or fewer products.
const DefaultLimit = 10

type remoteCatalog interface {
	Products(ctx context.Context, first int) ([]domain.Product, error)
	ProductByHandle(ctx context.Context, handle string) (*domain.Product, error)
}

type Service struct {
	remote  remoteCatalog
	logger  *log.Logger
	lookups singleflight.Group
}

func New(remote remoteCatalog, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{remote: remote, logger: logger}
}

// ListProducts returns up to limit products in storefront order. Entries
// without an id or handle cannot be linked to and are skipped.
func (s *Service) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > storefront.MaxProducts {
		limit = storefront.MaxProducts
	}

	products, err := s.remote.Products(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.ID == "" || p.Handle == "" {
			s.logger.Printf("catalog: skip product id=%q handle=%q", p.ID, p.Handle)
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// GetProductByHandle returns domain.ErrNotFound for unknown or blank handles.
// Concurrent lookups of one handle share a single remote call; that call is
// detached from any one caller's cancellation and each caller stops waiting
// when its own ctx is done.
func (s *Service) GetProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, domain.ErrNotFound
	}

	shared := context.WithoutCancel(ctx)
	ch := s.lookups.DoChan(handle, func() (interface{}, error) {
		return s.remote.ProductByHandle(shared, handle)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		p := *res.Val.(*domain.Product)
		return &p, nil
	}
}
