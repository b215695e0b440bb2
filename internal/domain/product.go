package domain

type ProductVariant struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Price            Money  `json:"price"`
	AvailableForSale bool   `json:"availableForSale"`
}

type Image struct {
	URL     string  `json:"url"`
	AltText *string `json:"altText,omitempty"`
}

// Product is a catalog entry. Handle is the external lookup key, ID is opaque.
type Product struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Handle          string           `json:"handle"`
	Description     string           `json:"description"`
	MinVariantPrice Money            `json:"minVariantPrice"`
	Variants        []ProductVariant `json:"variants"`
	Images          []Image          `json:"images"`
}
