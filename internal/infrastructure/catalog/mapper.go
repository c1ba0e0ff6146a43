package catalog

import (
	"strconv"
	"strings"

	"github.com/storefront/backend/internal/domain"
)

// productRecord is the wire shape of a catalog entry. Fields are loosely typed
// so one malformed value does not reject the whole snapshot.
type productRecord struct {
	ID          any         `json:"id" yaml:"id"`
	Name        *string     `json:"name" yaml:"name"`
	Category    *string     `json:"category" yaml:"category"`
	ProductType *string     `json:"product_type" yaml:"product_type"`
	Price       any         `json:"price" yaml:"price"`
	IsActive    *bool       `json:"is_active" yaml:"is_active"`
	Tags        []tagRecord `json:"tags" yaml:"tags"`
}

type tagRecord struct {
	Name     *string `json:"name" yaml:"name"`
	Weight   any     `json:"weight" yaml:"weight"`
	Category *string `json:"category" yaml:"category"`
}

// catalogEnvelope accepts snapshots wrapped as {"products": [...]}
type catalogEnvelope struct {
	Products []productRecord `json:"products" yaml:"products"`
}

// mapToProducts converts wire records to domain products, applying defaults:
// missing weight -> 1, missing strings -> "", missing tags -> none.
func mapToProducts(records []productRecord) []domain.Product {
	products := make([]domain.Product, 0, len(records))
	for _, r := range records {
		product := domain.Product{
			ID:          stringValue(r.ID),
			Name:        deref(r.Name),
			Category:    deref(r.Category),
			ProductType: deref(r.ProductType),
			Price:       floatValue(r.Price),
			Active:      r.IsActive,
			Tags:        make([]domain.WeightedTag, 0, len(r.Tags)),
		}

		for _, t := range r.Tags {
			name := strings.TrimSpace(deref(t.Name))
			if name == "" {
				continue
			}
			weight := floatValue(t.Weight)
			if weight <= 0 {
				weight = domain.DefaultTagWeight
			}
			product.Tags = append(product.Tags, domain.WeightedTag{
				Name:     name,
				Weight:   weight,
				Category: deref(t.Category),
			})
		}

		products = append(products, product)
	}
	return products
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// stringValue renders string or numeric ids
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return ""
}

// floatValue accepts numbers and numeric strings; anything else is 0
func floatValue(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err == nil {
			return f
		}
	}
	return 0
}
