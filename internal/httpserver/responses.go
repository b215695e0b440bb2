package httpserver

import (
	"inkblot-storefront/internal/domain"
	"inkblot-storefront/internal/price"
)

type moneyResponse struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
	Formatted    string `json:"formatted"`
}

type imageResponse struct {
	URL     string  `json:"url"`
	AltText *string `json:"altText"`
}

type variantResponse struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Price            moneyResponse `json:"price"`
	AvailableForSale bool          `json:"availableForSale"`
}

type productResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Handle      string            `json:"handle"`
	Description string            `json:"description,omitempty"`
	Price       moneyResponse     `json:"price"`
	Variants    []variantResponse `json:"variants"`
	Images      []imageResponse   `json:"images"`
}

type cartLineResponse struct {
	ID           string        `json:"id"`
	Quantity     int           `json:"quantity"`
	VariantID    string        `json:"variantId"`
	VariantTitle string        `json:"variantTitle"`
	ProductTitle string        `json:"productTitle"`
	Price        moneyResponse `json:"price"`
}

type cartResponse struct {
	ID            string             `json:"id"`
	CheckoutURL   string             `json:"checkoutUrl"`
	TotalQuantity int                `json:"totalQuantity"`
	Total         moneyResponse      `json:"total"`
	Lines         []cartLineResponse `json:"lines"`
}

func toMoney(m domain.Money) moneyResponse {
	return moneyResponse{Amount: m.Amount, CurrencyCode: m.CurrencyCode, Formatted: price.Format(m)}
}

func toProduct(p domain.Product) productResponse {
	variants := make([]variantResponse, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, variantResponse{
			ID:               v.ID,
			Title:            v.Title,
			Price:            toMoney(v.Price),
			AvailableForSale: v.AvailableForSale,
		})
	}
	images := make([]imageResponse, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, imageResponse{URL: img.URL, AltText: img.AltText})
	}
	return productResponse{
		ID:          p.ID,
		Title:       p.Title,
		Handle:      p.Handle,
		Description: p.Description,
		Price:       toMoney(p.MinVariantPrice),
		Variants:    variants,
		Images:      images,
	}
}

func toCart(c domain.Cart) cartResponse {
	lines := make([]cartLineResponse, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, cartLineResponse{
			ID:           l.ID,
			Quantity:     l.Quantity,
			VariantID:    l.Merchandise.ID,
			VariantTitle: l.Merchandise.Title,
			ProductTitle: l.Merchandise.ProductTitle,
			Price:        toMoney(l.Merchandise.Price),
		})
	}
	return cartResponse{
		ID:            c.ID,
		CheckoutURL:   c.CheckoutURL,
		TotalQuantity: c.TotalQuantity,
		Total:         toMoney(c.TotalAmount),
		Lines:         lines,
	}
}
