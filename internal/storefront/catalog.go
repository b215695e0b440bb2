package storefront

import (
	"context"

	"inkblot-storefront/internal/domain"
)

// Products fetches up to first products in the order the storefront returns them.
func (c *Client) Products(ctx context.Context, first int) ([]domain.Product, error) {
	data, err := execute[struct {
		Products connection[productNode] `json:"products"`
	}](ctx, c, productsQuery, map[string]interface{}{
		"first":        first,
		"variantCount": listVariants,
		"imageCount":   listImages,
	})
	if err != nil {
		return nil, err
	}
	nodes := data.Products.nodes()
	out := make([]domain.Product, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.toDomain())
	}
	return out, nil
}

// ProductByHandle returns domain.ErrNotFound when no product has handle.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	data, err := execute[struct {
		Product *productNode `json:"product"`
	}](ctx, c, productByHandleQuery, map[string]interface{}{
		"handle":       handle,
		"variantCount": detailVariants,
		"imageCount":   detailImages,
	})
	if err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, domain.ErrNotFound
	}
	p := data.Product.toDomain()
	return &p, nil
}
