package domain

import "math"

// ProductTypeMaster marks catalog parents that group variants; they are never searchable.
const ProductTypeMaster = "master"

// DefaultTagWeight is applied when a tag carries no usable weight
const DefaultTagWeight = 1.0

// WeightedTag is a merchandising label attached to a product.
// Typical weights: platform=5, title=4, brand=3, genre=2, condition=1.
type WeightedTag struct {
	Name     string  `json:"name" yaml:"name"`
	Weight   float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Category string  `json:"category,omitempty" yaml:"category,omitempty"`
}

// EffectiveWeight returns the tag weight, falling back to DefaultTagWeight for
// absent or malformed values.
func (t WeightedTag) EffectiveWeight() float64 {
	if t.Weight <= 0 || math.IsNaN(t.Weight) || math.IsInf(t.Weight, 0) {
		return DefaultTagWeight
	}
	return t.Weight
}

// Product is a read-only catalog entry supplied by the storefront backend
type Product struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Category    string        `json:"category,omitempty" yaml:"category,omitempty"`
	ProductType string        `json:"product_type,omitempty" yaml:"product_type,omitempty"`
	Price       float64       `json:"price,omitempty" yaml:"price,omitempty"`
	Active      *bool         `json:"is_active,omitempty" yaml:"is_active,omitempty"`
	Tags        []WeightedTag `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// IsMaster reports whether the product is a master (grouping) entry
func (p Product) IsMaster() bool {
	return p.ProductType == ProductTypeMaster
}

// IsActive reports whether the product is active. Products without an explicit
// flag are treated as active.
func (p Product) IsActive() bool {
	return p.Active == nil || *p.Active
}
