package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// flexString accepts a JSON string or number. Exported product files often
// carry numeric ids and prices.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type productFile struct {
	ID           flexString `json:"id"`
	Name         string     `json:"name"`
	Price        flexString `json:"price"`
	Category     string     `json:"category"`
	Image        string     `json:"image"`
	DateAdded    time.Time  `json:"dateAdded"`
	LastModified time.Time  `json:"lastModified"`
}

// LoadProducts reads a JSON array of products. Entries without an id are
// skipped.
func LoadProducts(r io.Reader) ([]Product, error) {
	var raw []productFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	out := make([]Product, 0, len(raw))
	for _, p := range raw {
		if p.ID == "" {
			continue
		}
		out = append(out, Product{
			ID:           string(p.ID),
			Name:         p.Name,
			Price:        string(p.Price),
			Category:     p.Category,
			Image:        p.Image,
			DateAdded:    p.DateAdded,
			LastModified: p.LastModified,
		})
	}
	return out, nil
}

func LoadProductsFile(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadProducts(f)
}

// DefaultProducts is the demo catalog used when no product file is set.
func DefaultProducts() []Product {
	return []Product{
		{ID: "p1", Name: "RTX Gaming PC", Price: "$1200", Category: "computers", Image: "/images/gaming-pc.png"},
		{ID: "p2", Name: "Office Desktop", Price: "$499.99", Category: "computers", Image: "/images/office-pc.png"},
		{ID: "p3", Name: "Ultrabook 14", Price: "$899.00", Category: "laptops", Image: "/images/ultrabook.png"},
		{ID: "p4", Name: "Mechanical Keyboard", Price: "$49.90", Category: "supplies", Image: "/images/keyboard.png"},
		{ID: "p5", Name: "Wireless Mouse", Price: "$19.90", Category: "supplies", Image: "/images/mouse.png"},
	}
}
