package usecase

import (
	"strings"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/textnorm"
)

// Product-level scoring bonuses
const (
	nameTokenScore     = 15.0  // Per query token found in the product name
	categoryTokenScore = 5.0   // Per query token found in the category
	phraseMatchBonus   = 25.0  // Whole query appears in name or category
	consolePriority    = 500.0 // Console hit on a purely descriptive query
)

// ProductScorer aggregates tag compatibility and name/category signals into a
// single relevance score per product
type ProductScorer struct {
	matcher *TagMatcher
	console *ConsoleClassifier
}

// NewProductScorer creates a product scorer
func NewProductScorer(matcher *TagMatcher, console *ConsoleClassifier) *ProductScorer {
	return &ProductScorer{
		matcher: matcher,
		console: console,
	}
}

// score computes the relevance of one product. The product is never modified.
func (s *ProductScorer) score(q *queryAnalysis, product *domain.Product) domain.ScoredProduct {
	scored := domain.ScoredProduct{
		Product:     *product,
		MatchedTags: []string{},
	}
	breakdown := &scored.Breakdown

	matchedTokens := make(map[string]bool)
	for _, tag := range product.Tags {
		result := s.matcher.calculate(q.compatTokens, tag)
		if len(result.Matches) == 0 {
			continue
		}

		breakdown.Tags = append(breakdown.Tags, domain.TagScore{
			Tag:                tag.Name,
			Weight:             tag.EffectiveWeight(),
			CompatibilityRatio: result.CompatibilityRatio,
			RawScore:           result.RawScore,
			FinalScore:         result.FinalScore,
			Rejected:           result.RejectedByNumericRule,
		})

		if result.FinalScore <= 0 {
			continue
		}
		breakdown.TagScore += result.FinalScore
		scored.MatchedTags = append(scored.MatchedTags, tag.Name)
		for _, match := range result.Matches {
			if match.QueryToken.Type != domain.TokenConnector {
				matchedTokens[match.QueryToken.Normalized] = true
			}
		}
	}

	for _, token := range q.identityTokens {
		if matchedTokens[token] {
			scored.MatchedTokens = append(scored.MatchedTokens, token)
		}
	}

	if q.hasIdentity() {
		name := textnorm.Normalize(product.Name)
		category := textnorm.Normalize(product.Category)

		for _, token := range q.tokens {
			if token.Type == domain.TokenConnector {
				continue
			}
			if strings.Contains(name, token.Normalized) {
				breakdown.NameScore += nameTokenScore
			}
			if strings.Contains(category, token.Normalized) {
				breakdown.CategoryScore += categoryTokenScore
			}
		}

		if q.compact != "" && (strings.Contains(textnorm.Compact(name), q.compact) ||
			strings.Contains(textnorm.Compact(category), q.compact)) {
			breakdown.PhraseBonus = phraseMatchBonus
		}
	}

	// Pin consoles above games that merely carry the platform tag ("ps5")
	if q.descriptiveOnly && breakdown.TagScore > 0 && s.console.IsConsole(*product) {
		breakdown.ConsoleBonus = consolePriority
	}

	scored.RelevanceScore = breakdown.TagScore + breakdown.NameScore + breakdown.CategoryScore +
		breakdown.PhraseBonus + breakdown.ConsoleBonus
	return scored
}
