package cart

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Decode turns a stored cookie value into a cart. An absent or undecodable
// value yields an empty cart; it is never reported as an error.
func Decode(blob string) Cart {
	c, _ := decode(blob)
	return c
}

func decode(blob string) (Cart, error) {
	if blob == "" {
		return Cart{}, nil
	}

	// Values written by Encode are percent-encoded. Values set by other
	// writers may be raw JSON, possibly containing a literal '%'.
	raw := blob
	if s, err := url.PathUnescape(blob); err == nil {
		raw = s
	}

	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return sanitize(c), nil
}

// sanitize drops lines a cart never holds: no id, or quantity below one.
func sanitize(c Cart) Cart {
	out := make(Cart, 0, len(c))
	for _, it := range c {
		if it.ID == "" || it.Quantity < 1 {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Encode serializes the cart as a JSON array, escaped so it is a valid cookie
// value.
func Encode(c Cart) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return url.PathEscape(string(b)), nil
}
