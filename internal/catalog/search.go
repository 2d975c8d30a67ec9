package catalog

import "strings"

// Filter returns the products matching any whitespace-separated term of
// query, case-insensitively, as a substring of name, category or price.
// Order is preserved. A blank query returns products as is.
func Filter(products []Product, query string) []Product {
	if strings.TrimSpace(query) == "" {
		return products
	}

	terms := strings.Fields(strings.ToLower(query))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if matchesAny(p, terms) {
			out = append(out, p)
		}
	}
	return out
}

func matchesAny(p Product, terms []string) bool {
	name := strings.ToLower(p.Name)
	category := strings.ToLower(p.Category)
	price := strings.ToLower(p.Price)

	for _, t := range terms {
		if strings.Contains(name, t) || strings.Contains(category, t) || strings.Contains(price, t) {
			return true
		}
	}
	return false
}

// InCategory keeps products whose category equals category, ignoring case.
// An empty category keeps everything.
func InCategory(products []Product, category string) []Product {
	category = strings.TrimSpace(category)
	if category == "" {
		return products
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Categories counts products per lower-cased category, in first-seen order.
func Categories(products []Product) []CategoryCount {
	idx := make(map[string]int)
	out := make([]CategoryCount, 0, 4)

	for _, p := range products {
		name := strings.ToLower(strings.TrimSpace(p.Category))
		if name == "" {
			continue
		}
		if i, ok := idx[name]; ok {
			out[i].Count++
			continue
		}
		idx[name] = len(out)
		out = append(out, CategoryCount{Name: name, Count: 1})
	}
	return out
}
