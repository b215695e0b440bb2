package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"inkblot-storefront/internal/domain"
	"inkblot-storefront/internal/price"
)

type ProductSource interface {
	ListProducts(ctx context.Context, limit int) ([]domain.Product, error)
}

// Headers are the CSV columns, in order. A product's first row carries its
// own fields; further rows for the same product leave them blank and only
// list another variant or image.
var Headers = []string{
	"id", "handle", "title", "description",
	"variant.id", "variant.title", "variant.price.amount", "variant.price.currencyCode",
	"variant.price.formatted", "variant.availableForSale",
	"image.url",
}

// CSVExporter writes a snapshot of the storefront catalog as CSV.
type CSVExporter struct {
	writer *csv.Writer
	source ProductSource
	limit  int
}

func NewCSVExporter(w io.Writer, source ProductSource, limit int) *CSVExporter {
	return &CSVExporter{
		writer: csv.NewWriter(w),
		source: source,
		limit:  limit,
	}
}

// Run writes the header and one block of rows per product. It returns the
// number of products written.
func (e *CSVExporter) Run(ctx context.Context) (int, error) {
	products, err := e.source.ListProducts(ctx, e.limit)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}

	if err := e.writer.Write(Headers); err != nil {
		return 0, fmt.Errorf("write headers: %w", err)
	}
	for i, p := range products {
		for _, record := range rows(p) {
			if err := e.writer.Write(record); err != nil {
				return i, fmt.Errorf("write product %q: %w", p.Handle, err)
			}
		}
	}

	e.writer.Flush()
	if err := e.writer.Error(); err != nil {
		return len(products), fmt.Errorf("flush: %w", err)
	}
	return len(products), nil
}

func rows(p domain.Product) [][]string {
	n := len(p.Variants)
	if len(p.Images) > n {
		n = len(p.Images)
	}
	if n == 0 {
		n = 1
	}

	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		record := make([]string, len(Headers))
		if i == 0 {
			record[0], record[1], record[2], record[3] = p.ID, p.Handle, p.Title, p.Description
		}
		if i < len(p.Variants) {
			v := p.Variants[i]
			record[4] = v.ID
			record[5] = v.Title
			record[6] = v.Price.Amount
			record[7] = v.Price.CurrencyCode
			record[8] = price.Format(v.Price)
			record[9] = strconv.FormatBool(v.AvailableForSale)
		}
		if i < len(p.Images) {
			record[10] = p.Images[i].URL
		}
		out = append(out, record)
	}
	return out
}
