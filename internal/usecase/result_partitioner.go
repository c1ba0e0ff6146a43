package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/textnorm"
)

// Suggestion similarity band: close enough to be a likely misspelling,
// too far to have been accepted as a match
const (
	suggestionMinSimilarity = 0.5
	suggestionMaxSimilarity = 0.9
)

// ResultPartitioner splits scored products into exact and related buckets and
// derives tag spelling suggestions
type ResultPartitioner struct {
	exactMatchRatio     float64
	suggestionsPerToken int
}

// NewResultPartitioner creates a partitioner. exactMatchRatio is the fraction of
// identity tokens (rounded up) a product must match through its tags to count as
// exact; <= 0 uses 0.5. suggestionsPerToken <= 0 uses 3.
func NewResultPartitioner(exactMatchRatio float64, suggestionsPerToken int) *ResultPartitioner {
	if exactMatchRatio <= 0 || exactMatchRatio > 1 {
		exactMatchRatio = 0.5
	}
	if suggestionsPerToken <= 0 {
		suggestionsPerToken = 3
	}
	return &ResultPartitioner{
		exactMatchRatio:     exactMatchRatio,
		suggestionsPerToken: suggestionsPerToken,
	}
}

// partition drops zero-scored products, sorts the rest by descending relevance
// (stable, so ties keep catalog order) and splits them into buckets
func (p *ResultPartitioner) partition(q *queryAnalysis, scored []domain.ScoredProduct) (exact, related []domain.ScoredProduct) {
	ranked := make([]domain.ScoredProduct, 0, len(scored))
	for _, sp := range scored {
		if sp.RelevanceScore > 0 {
			ranked = append(ranked, sp)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	required := int(math.Ceil(float64(len(q.identityTokens)) * p.exactMatchRatio))

	exact = []domain.ScoredProduct{}
	related = []domain.ScoredProduct{}
	for _, sp := range ranked {
		if len(sp.MatchedTokens) > 0 && len(sp.MatchedTokens) >= required {
			exact = append(exact, sp)
		} else {
			related = append(related, sp)
		}
	}
	return exact, related
}

// suggestions proposes up to suggestionsPerToken tag names for every query token
// that no candidate tag accepted
func (p *ResultPartitioner) suggestions(q *queryAnalysis, candidates []domain.Product, scored []domain.ScoredProduct) []string {
	matched := make(map[string]bool)
	for _, sp := range scored {
		for _, token := range sp.MatchedTokens {
			matched[token] = true
		}
	}

	var unmatched []string
	for _, token := range q.tokens {
		if token.Type == domain.TokenConnector || token.IsNumeric() || matched[token.Normalized] {
			continue
		}
		unmatched = append(unmatched, token.Normalized)
	}
	if len(unmatched) == 0 {
		return []string{}
	}

	tags := distinctTagNames(candidates)

	type candidate struct {
		name       string
		similarity float64
	}

	out := []string{}
	seen := make(map[string]bool)
	for _, token := range unmatched {
		var nearby []candidate
		for _, tag := range tags {
			similarity := suggestionSimilarity(token, textnorm.Normalize(tag))
			if similarity >= suggestionMinSimilarity && similarity <= suggestionMaxSimilarity {
				nearby = append(nearby, candidate{name: tag, similarity: similarity})
			}
		}

		sort.SliceStable(nearby, func(i, j int) bool {
			if nearby[i].similarity != nearby[j].similarity {
				return nearby[i].similarity > nearby[j].similarity
			}
			return nearby[i].name < nearby[j].name
		})

		taken := 0
		for _, c := range nearby {
			if taken == p.suggestionsPerToken {
				break
			}
			key := strings.ToLower(c.name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c.name)
			taken++
		}
	}

	return out
}

// suggestionSimilarity compares a token against a whole tag name and each of its
// words, keeping the closest
func suggestionSimilarity(token, normalizedTag string) float64 {
	best := levenshteinSimilarity(token, normalizedTag)
	for _, word := range strings.Fields(normalizedTag) {
		best = max(best, levenshteinSimilarity(token, word))
	}
	return best
}

// distinctTagNames lists tag names across products in first-seen order,
// deduplicated by normalized form
func distinctTagNames(products []domain.Product) []string {
	seen := make(map[string]bool)
	var names []string
	for _, product := range products {
		for _, tag := range product.Tags {
			key := textnorm.Normalize(tag.Name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, tag.Name)
		}
	}
	return names
}
