package catalog

import (
	"clickstream/pkg/errors"
)

// Product is an immutable catalog entry
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Brand string  `json:"brand"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// Category groups products under a display name
type Category struct {
	Name     string
	Products []Product
}

// Catalog is read-only reference data: categories in a fixed order,
// each holding its products in a fixed order.
type Catalog struct {
	categories []Category
}

// New builds a catalog and rejects empty categories or duplicate product ids
func New(categories []Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, errors.ErrEmptyCatalog
	}

	seen := make(map[string]string)
	for _, c := range categories {
		if c.Name == "" {
			return nil, errors.NewValidationError("catalog.category", "name must not be empty", c.Name)
		}
		if len(c.Products) == 0 {
			return nil, errors.Wrapf(errors.ErrEmptyCatalog, "category %q has no products", c.Name)
		}
		for _, p := range c.Products {
			if p.ID == "" {
				return nil, errors.NewValidationError("catalog.product.id", "must not be empty", p.Name)
			}
			if owner, dup := seen[p.ID]; dup {
				return nil, errors.NewValidationError("catalog.product.id", "duplicate in category "+owner, p.ID)
			}
			if p.Price < 0 {
				return nil, errors.NewValidationError("catalog.product.price", "must not be negative", p.Price)
			}
			seen[p.ID] = c.Name
		}
	}

	cats := make([]Category, len(categories))
	for i, c := range categories {
		cats[i] = Category{Name: c.Name, Products: append([]Product(nil), c.Products...)}
	}
	return &Catalog{categories: cats}, nil
}

// Categories returns the category names in catalog order
func (c *Catalog) Categories() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// Products returns the products of a category, or nil if it does not exist
func (c *Catalog) Products(category string) []Product {
	for _, cat := range c.categories {
		if cat.Name == category {
			return cat.Products
		}
	}
	return nil
}

// CategoryOf scans the catalog for the category owning the product
func (c *Catalog) CategoryOf(p Product) (string, bool) {
	for _, cat := range c.categories {
		for _, candidate := range cat.Products {
			if candidate == p {
				return cat.Name, true
			}
		}
	}
	return "", false
}

// ProductIDs lists every product id in catalog order
func (c *Catalog) ProductIDs() []string {
	var ids []string
	for _, cat := range c.categories {
		for _, p := range cat.Products {
			ids = append(ids, p.ID)
		}
	}
	return ids
}
