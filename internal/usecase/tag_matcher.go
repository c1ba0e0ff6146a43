package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/storefront/backend/internal/domain"
)

// Tag scoring constants
const (
	tagScoreMultiplier  = 10.0 // rawScore = 10 * weight * ratio
	descriptiveTagBonus = 20.0 // Flat boost for descriptive-only tags that matched
	sequelMatchBonus    = 5.0  // Number/roman match alongside an identity match
	identityMissPenalty = 0.5  // Fraction of rawScore lost when no MAIN token matched
)

const (
	synonymSimilarity        = 0.9
	editRatioFloor           = 0.7 // Positional edit ratios at or below this are ignored
	defaultTokenSimilarity   = 0.8
	compatibilityMinTokenLen = 1
)

// TagMatcher computes query/tag compatibility, the core scoring primitive
type TagMatcher struct {
	classifier          *TokenClassifier
	similarityThreshold float64
}

// NewTagMatcher creates a tag matcher. A threshold <= 0 uses the default of 0.8.
func NewTagMatcher(classifier *TokenClassifier, similarityThreshold float64) *TagMatcher {
	if similarityThreshold <= 0 {
		similarityThreshold = defaultTokenSimilarity
	}
	return &TagMatcher{
		classifier:          classifier,
		similarityThreshold: similarityThreshold,
	}
}

// Calculate scores a free-text query against one weighted tag
func (m *TagMatcher) Calculate(query string, tag domain.WeightedTag) domain.CompatibilityResult {
	return m.calculate(m.classifier.Analyze(query, compatibilityMinTokenLen), tag)
}

// calculate scores pre-analyzed query tokens against one weighted tag.
// Query tokens are analyzed once per search and reused for every tag.
func (m *TagMatcher) calculate(queryTokens []domain.Token, tag domain.WeightedTag) domain.CompatibilityResult {
	tagTokens := m.classifier.Analyze(tag.Name, compatibilityMinTokenLen)

	result := domain.CompatibilityResult{
		QueryTokens: queryTokens,
		TagTokens:   tagTokens,
		Matches:     []domain.TokenMatch{},
	}
	if len(queryTokens) == 0 || len(tagTokens) == 0 {
		return result
	}

	result.Matches = m.matchTokens(queryTokens, tagTokens)
	matched := len(result.Matches)

	ratio := float64(matched) / float64(max(len(queryTokens), len(tagTokens)))

	// Descriptive-only tags ("Deluxe Edition") are modifiers: any hit fully satisfies them
	result.DescriptiveOnly = AllOfType(tagTokens, domain.TokenDescriptive)
	if result.DescriptiveOnly && matched > 0 {
		ratio = 1.0
	}

	result.CompatibilityRatio = ratio
	result.RawScore = tagScoreMultiplier * tag.EffectiveWeight() * ratio
	result.Bonus = m.adjustments(queryTokens, tagTokens, result.Matches, result.RawScore)
	if result.DescriptiveOnly && matched > 0 {
		result.Bonus += descriptiveTagBonus
	}

	if rejectedByNumericRule(queryTokens, result.Matches) {
		result.RejectedByNumericRule = true
		result.FinalScore = 0
		return result
	}

	result.FinalScore = max(0, result.RawScore+result.Bonus)
	return result
}

// matchTokens pairs each query token with its best unclaimed tag token.
// Each tag token can satisfy at most one query token.
func (m *TagMatcher) matchTokens(queryTokens, tagTokens []domain.Token) []domain.TokenMatch {
	claimed := make([]bool, len(tagTokens))
	var matches []domain.TokenMatch

	for _, qt := range queryTokens {
		best := -1
		bestSimilarity := 0.0
		var bestType domain.MatchType

		for j, tt := range tagTokens {
			if claimed[j] {
				continue
			}
			similarity, matchType := m.compareTokens(qt, tt)
			if similarity >= m.similarityThreshold && similarity > bestSimilarity {
				best, bestSimilarity, bestType = j, similarity, matchType
			}
		}

		if best < 0 {
			continue
		}
		claimed[best] = true
		matches = append(matches, domain.TokenMatch{
			QueryToken: qt,
			TagToken:   tagTokens[best],
			MatchType:  bestType,
			Similarity: bestSimilarity,
		})
	}

	if matches == nil {
		return []domain.TokenMatch{}
	}
	return matches
}

// compareTokens returns the similarity of two classified tokens and how they matched
func (m *TagMatcher) compareTokens(q, t domain.Token) (float64, domain.MatchType) {
	if q.Normalized == t.Normalized {
		switch q.Type {
		case domain.TokenNumeric:
			return 1.0, domain.MatchNumeric
		case domain.TokenRoman:
			return 1.0, domain.MatchRomanNumeral
		}
		return 1.0, domain.MatchExact
	}

	// Numbers only ever match by value ("iii" == "3", "03" == "3")
	if q.IsNumeric() || t.IsNumeric() {
		qv, qok := m.classifier.NumericValue(q)
		tv, tok := m.classifier.NumericValue(t)
		if qok && tok && qv == tv {
			if q.Type == domain.TokenNumeric && t.Type == domain.TokenNumeric {
				return 1.0, domain.MatchNumeric
			}
			return 1.0, domain.MatchRomanNumeral
		}
		return 0, ""
	}

	similarity := tokenSimilarity(q.Normalized, t.Normalized)
	if m.classifier.vocab.AreSynonyms(q.Normalized, t.Normalized) {
		similarity = max(similarity, synonymSimilarity)
	}
	return similarity, domain.MatchPartial
}

// adjustments applies the shared business-rule bonuses and penalties for one tag
func (m *TagMatcher) adjustments(queryTokens, tagTokens []domain.Token, matches []domain.TokenMatch, rawScore float64) float64 {
	if len(matches) == 0 {
		return 0
	}

	// Matches made only of connectors ("of", "de") carry no identity at all
	connectorsOnly := true
	mainMatched := false
	numberMatched := false
	for _, match := range matches {
		if match.QueryToken.Type != domain.TokenConnector {
			connectorsOnly = false
		}
		if match.TagToken.Type == domain.TokenMain {
			mainMatched = true
		}
		if match.TagToken.IsNumeric() {
			numberMatched = true
		}
	}
	if connectorsOnly {
		return -rawScore
	}

	bonus := 0.0
	if !mainMatched && hasType(queryTokens, domain.TokenMain) && hasType(tagTokens, domain.TokenMain) {
		bonus -= identityMissPenalty * rawScore
	}
	if mainMatched && numberMatched {
		bonus += sequelMatchBonus
	}
	return bonus
}

// rejectedByNumericRule reports whether a tag only matched on numbers while some
// identity-bearing query token went unmatched ("fifa 23" must not match "2023").
func rejectedByNumericRule(queryTokens []domain.Token, matches []domain.TokenMatch) bool {
	if len(matches) == 0 {
		return false
	}
	matchedPositions := make(map[int]bool, len(matches))
	for _, match := range matches {
		if !match.QueryToken.IsNumeric() {
			return false
		}
		matchedPositions[match.QueryToken.Position] = true
	}

	for _, token := range queryTokens {
		if token.IsNumeric() || token.Type == domain.TokenConnector {
			continue
		}
		if !matchedPositions[token.Position] {
			return true
		}
	}
	return false
}

func hasType(tokens []domain.Token, t domain.TokenType) bool {
	for _, token := range tokens {
		if token.Type == t {
			return true
		}
	}
	return false
}

// tokenSimilarity compares two non-numeric tokens. Substring containment scores by
// length ratio; otherwise a positional edit ratio is used when it clears the floor.
func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}

	lenA := utf8.RuneCountInString(a)
	lenB := utf8.RuneCountInString(b)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return float64(min(lenA, lenB)) / float64(max(lenA, lenB))
	}

	if ratio := positionalEditRatio(a, b); ratio > editRatioFloor {
		return ratio
	}
	return 0
}

// positionalEditRatio counts characters equal at the same position, over the longer length
func positionalEditRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 0
	}

	same := 0
	for i := 0; i < min(len(ra), len(rb)); i++ {
		if ra[i] == rb[i] {
			same++
		}
	}
	return float64(same) / float64(longest)
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len([]rune(s2))
	}
	if len(s2) == 0 {
		return len([]rune(s1))
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// levenshteinSimilarity normalizes edit distance into [0,1]
func levenshteinSimilarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshteinDistance(a, b))/float64(longest)
}
