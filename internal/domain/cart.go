package domain

// Cart mirrors the remote cart. Totals are whatever the storefront reports;
// nothing here is computed locally.
type Cart struct {
	ID            string     `json:"id"`
	CheckoutURL   string     `json:"checkoutUrl"`
	TotalQuantity int        `json:"totalQuantity"`
	TotalAmount   Money      `json:"totalAmount"`
	Lines         []CartLine `json:"lines"`
}

type CartLine struct {
	ID          string          `json:"id"`
	Quantity    int             `json:"quantity"`
	Merchandise CartMerchandise `json:"merchandise"`
}

type CartMerchandise struct {
	ProductVariant
	ProductTitle string `json:"productTitle"`
}
