// Package cart implements the basket kept in the client's "cart" cookie.
//
// The server never holds cart state. Each operation takes the decoded cart
// carried by the request and returns a new one; the caller writes it back.
package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const DefaultQuantity = 1

var (
	ErrMissingIdentifier = errors.New("missing identifier")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrMalformedState    = errors.New("malformed cart state")
)

// ID identifies a product inside a cart. Older cookies and numeric product
// ids carry it as a JSON number; it is always written back as a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("cart id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Item is one line of the cart: a snapshot of the product taken when it was
// added, plus the quantity.
type Item struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
}

// Cart is ordered by insertion and keyed by Item.ID.
type Cart []Item

func (c Cart) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Item(c))
}

func (c Cart) index(id ID) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Cart) clone(extra int) Cart {
	out := make(Cart, len(c), len(c)+extra)
	copy(out, c)
	return out
}

// Add puts qty units of it into the cart. An existing line with the same id
// has its quantity incremented; otherwise the item is appended. A qty of zero
// means DefaultQuantity. An increment that would overflow is rejected.
func (c Cart) Add(it Item, qty int) (Cart, error) {
	if it.ID == "" {
		return c, ErrMissingIdentifier
	}
	if qty < 0 {
		return c, ErrInvalidQuantity
	}
	if qty == 0 {
		qty = DefaultQuantity
	}

	if i := c.index(it.ID); i >= 0 {
		if qty > math.MaxInt-c[i].Quantity {
			return c, ErrInvalidQuantity
		}
		out := c.clone(0)
		out[i].Quantity += qty
		return out, nil
	}

	it.Quantity = qty
	return append(c.clone(1), it), nil
}

// UpdateQuantity sets the quantity of the line with the given id. A qty below
// one removes the line. An id that is not in the cart is left absent.
func (c Cart) UpdateQuantity(id ID, qty int) (Cart, error) {
	if id == "" {
		return c, ErrMissingIdentifier
	}

	if qty < 1 {
		out := make(Cart, 0, len(c))
		for _, it := range c {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out, nil
	}

	out := c.clone(0)
	if i := out.index(id); i >= 0 {
		out[i].Quantity = qty
	}
	return out, nil
}

// Clear returns an empty cart regardless of the receiver.
func (c Cart) Clear() Cart {
	return Cart{}
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, it := range c {
		n += it.Quantity
	}
	return n
}
