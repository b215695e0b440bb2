package storefront

import (
	"context"
	"errors"

	"inkblot-storefront/internal/domain"
)

// CreateCart creates a remote cart holding one line.
func (c *Client) CreateCart(ctx context.Context, variantID string, quantity int) (*domain.Cart, error) {
	data, err := execute[struct {
		CartCreate cartPayload `json:"cartCreate"`
	}](ctx, c, cartCreateMutation, map[string]interface{}{
		"variantId": variantID,
		"quantity":  quantity,
		"lineCount": cartLines,
	})
	if err != nil {
		return nil, err
	}
	return cartFromPayload("CreateCart", data.CartCreate)
}

// AddLines adds quantity of variantID to the remote cart cartID.
func (c *Client) AddLines(ctx context.Context, cartID, variantID string, quantity int) (*domain.Cart, error) {
	data, err := execute[struct {
		CartLinesAdd cartPayload `json:"cartLinesAdd"`
	}](ctx, c, cartLinesAddMutation, map[string]interface{}{
		"cartId":    cartID,
		"variantId": variantID,
		"quantity":  quantity,
		"lineCount": cartLines,
	})
	if err != nil {
		return nil, err
	}
	return cartFromPayload("AddToCart", data.CartLinesAdd)
}

// Cart fetches a remote cart. Expired or unknown carts yield domain.ErrNotFound.
func (c *Client) Cart(ctx context.Context, cartID string) (*domain.Cart, error) {
	data, err := execute[struct {
		Cart *cartNode `json:"cart"`
	}](ctx, c, cartQuery, map[string]interface{}{
		"cartId":    cartID,
		"lineCount": cartLines,
	})
	if err != nil {
		return nil, err
	}
	if data.Cart == nil {
		return nil, domain.ErrNotFound
	}
	cart := data.Cart.toDomain()
	return &cart, nil
}

func cartFromPayload(op string, p cartPayload) (*domain.Cart, error) {
	if len(p.UserErrors) > 0 {
		return nil, &domain.RemoteError{Op: op, Messages: userErrorMessages(p.UserErrors)}
	}
	if p.Cart == nil || p.Cart.ID == "" {
		return nil, &domain.RemoteError{Op: op, Messages: []string{errNoCart.Error()}}
	}
	cart := p.Cart.toDomain()
	return &cart, nil
}

var errNoCart = errors.New("storefront returned no cart")
