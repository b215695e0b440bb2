package domain

// Money is an amount in a currency. Amount is kept as the base-10 decimal
// string the storefront returns; it is only turned into a number for display.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}
