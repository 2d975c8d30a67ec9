package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"BuildStore/internal/cart"
	"BuildStore/internal/catalog"
)

const linkBase = "https://wa.me/"

type Summary struct {
	Items int    `json:"items"`
	Lines int    `json:"lines"`
	Total string `json:"total"`
}

// Summarize totals the cart. Prices that do not parse count as zero.
func Summarize(c cart.Cart) Summary {
	_, total := subtotals(c)
	return Summary{
		Items: c.Count(),
		Lines: len(c),
		Total: total.StringFixed(2),
	}
}

// Message renders the order text sent to the shop, one line per entry.
func Message(shop string, c cart.Cart) string {
	subs, total := subtotals(c)

	var b strings.Builder
	fmt.Fprintf(&b, "Order from %s:\n", shop)
	for i, it := range c {
		fmt.Fprintf(&b, "%d x %s - %s - Subtotal: $%s\n", it.Quantity, it.Name, it.Price, subs[i].StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: $%s", total.StringFixed(2))
	return b.String()
}

// Link builds a click-to-chat URL carrying text for the given phone number.
// Non-digits are dropped from phone.
func Link(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	// QueryEscape turns spaces into '+', chat clients expect %20.
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return linkBase + digits + "?text=" + escaped
}

func subtotals(c cart.Cart) ([]decimal.Decimal, decimal.Decimal) {
	subs := make([]decimal.Decimal, len(c))
	total := decimal.Zero

	for i, it := range c {
		price, err := catalog.ParsePrice(it.Price)
		if err != nil {
			price = decimal.Zero
		}
		subs[i] = price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(subs[i])
	}
	return subs, total
}
