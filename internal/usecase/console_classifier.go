package usecase

import (
	"strings"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/textnorm"
	"github.com/storefront/backend/internal/vocabulary"
)

// ConsoleClassifier decides whether a product is a physical console.
// The console-priority rule depends entirely on it.
type ConsoleClassifier struct {
	vocab *vocabulary.Vocabulary
}

// NewConsoleClassifier creates a console classifier
func NewConsoleClassifier(vocab *vocabulary.Vocabulary) *ConsoleClassifier {
	return &ConsoleClassifier{vocab: vocab}
}

// IsConsole reports whether the product is a console. Anything categorized as a
// game, software or accessory is never a console, whatever its name says.
func (c *ConsoleClassifier) IsConsole(product domain.Product) bool {
	category := textnorm.Normalize(product.Category)
	for _, token := range strings.Fields(category) {
		if c.vocab.IsExcludedCategoryToken(token) {
			return false
		}
	}

	if c.vocab.IsConsoleType(textnorm.Normalize(product.ProductType)) {
		return true
	}
	if c.vocab.IsConsoleCategory(category) {
		return true
	}
	return c.vocab.MatchesConsoleName(textnorm.Normalize(product.Name))
}
