package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("product not found")
	ErrDuplicateID    = errors.New("product id already exists")
	ErrInvalidProduct = errors.New("invalid product")
)

// Product is a catalog entry. Price keeps the display form entered by the
// admin ("$199.99" or "199.99").
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        string    `json:"price"`
	Category     string    `json:"category"`
	Image        string    `json:"image"`
	DateAdded    time.Time `json:"dateAdded,omitzero"`
	LastModified time.Time `json:"lastModified,omitzero"`
}

// Store lists products in insertion order.
type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, bool, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id string) error
}

// SeedIfEmpty loads products into an empty store. A store that already has
// products is left untouched.
func SeedIfEmpty(ctx context.Context, s Store, products []Product) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	n := 0
	for _, p := range products {
		if err := s.Create(ctx, p); err != nil {
			if errors.Is(err, ErrDuplicateID) {
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}
