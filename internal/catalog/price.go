package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice reads a display price such as "$1,199.99" or "199".
func ParsePrice(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: empty price", ErrInvalidProduct)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q", ErrInvalidProduct, s)
	}
	return d, nil
}

// FormatPrice renders d the way the storefront displays prices.
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
