package storefront

import (
	"strings"

	"inkblot-storefront/internal/domain"
)

// Wire shapes of the storefront responses. Connections arrive as
// edges/node lists and are flattened into domain types.

type moneyNode struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type variantNode struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Price            moneyNode `json:"price"`
	AvailableForSale bool      `json:"availableForSale"`
}

type imageNode struct {
	URL     string  `json:"url"`
	AltText *string `json:"altText"`
}

type productNode struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	Description string `json:"description"`
	PriceRange  struct {
		MinVariantPrice moneyNode `json:"minVariantPrice"`
	} `json:"priceRange"`
	Variants connection[variantNode] `json:"variants"`
	Images   connection[imageNode]   `json:"images"`
}

type cartLineNode struct {
	ID          string `json:"id"`
	Quantity    int    `json:"quantity"`
	Merchandise struct {
		variantNode
		Product struct {
			Title string `json:"title"`
		} `json:"product"`
	} `json:"merchandise"`
}

type cartNode struct {
	ID            string `json:"id"`
	CheckoutURL   string `json:"checkoutUrl"`
	TotalQuantity int    `json:"totalQuantity"`
	Cost          struct {
		TotalAmount moneyNode `json:"totalAmount"`
	} `json:"cost"`
	Lines connection[cartLineNode] `json:"lines"`
}

type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

func (c connection[T]) nodes() []T {
	out := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type cartPayload struct {
	Cart       *cartNode   `json:"cart"`
	UserErrors []userError `json:"userErrors"`
}

func userErrorMessages(errs []userError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		if len(e.Field) > 0 {
			out = append(out, strings.Join(e.Field, ".")+": "+e.Message)
			continue
		}
		out = append(out, e.Message)
	}
	return out
}

func (m moneyNode) toDomain() domain.Money {
	return domain.Money{Amount: m.Amount, CurrencyCode: m.CurrencyCode}
}

func (v variantNode) toDomain() domain.ProductVariant {
	return domain.ProductVariant{
		ID:               v.ID,
		Title:            v.Title,
		Price:            v.Price.toDomain(),
		AvailableForSale: v.AvailableForSale,
	}
}

func (p productNode) toDomain() domain.Product {
	variants := p.Variants.nodes()
	images := p.Images.nodes()
	out := domain.Product{
		ID:              p.ID,
		Title:           p.Title,
		Handle:          p.Handle,
		Description:     p.Description,
		MinVariantPrice: p.PriceRange.MinVariantPrice.toDomain(),
		Variants:        make([]domain.ProductVariant, 0, len(variants)),
		Images:          make([]domain.Image, 0, len(images)),
	}
	for _, v := range variants {
		out.Variants = append(out.Variants, v.toDomain())
	}
	for _, img := range images {
		out.Images = append(out.Images, domain.Image{URL: img.URL, AltText: img.AltText})
	}
	return out
}

func (c cartNode) toDomain() domain.Cart {
	lines := c.Lines.nodes()
	out := domain.Cart{
		ID:            c.ID,
		CheckoutURL:   c.CheckoutURL,
		TotalQuantity: c.TotalQuantity,
		TotalAmount:   c.Cost.TotalAmount.toDomain(),
		Lines:         make([]domain.CartLine, 0, len(lines)),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, domain.CartLine{
			ID:       l.ID,
			Quantity: l.Quantity,
			Merchandise: domain.CartMerchandise{
				ProductVariant: l.Merchandise.variantNode.toDomain(),
				ProductTitle:   l.Merchandise.Product.Title,
			},
		})
	}
	return out
}
