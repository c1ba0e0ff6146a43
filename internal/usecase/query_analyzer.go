package usecase

import (
	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/textnorm"
)

// queryAnalysis is the per-search view of a query, computed once and shared by
// every product and tag scored in that search
type queryAnalysis struct {
	raw        string
	normalized string
	compact    string

	// compatTokens feed tag compatibility (min length 1)
	compatTokens []domain.Token
	// tokens feed name/category signals, business rules and suggestions
	tokens []domain.Token

	// identityTokens are the distinct non-connector compatibility tokens,
	// the denominator of the exact-match rule
	identityTokens  []string
	descriptiveOnly bool
}

// QueryAnalyzer turns raw query text into classified tokens
type QueryAnalyzer struct {
	classifier     *TokenClassifier
	minTokenLength int
}

// NewQueryAnalyzer creates an analyzer; minTokenLength <= 0 uses the default of 2
func NewQueryAnalyzer(classifier *TokenClassifier, minTokenLength int) *QueryAnalyzer {
	if minTokenLength <= 0 {
		minTokenLength = textnorm.DefaultMinTokenLength
	}
	return &QueryAnalyzer{
		classifier:     classifier,
		minTokenLength: minTokenLength,
	}
}

// Tokens returns the classified analysis tokens of text
func (a *QueryAnalyzer) Tokens(text string) []domain.Token {
	return a.classifier.Analyze(text, a.minTokenLength)
}

func (a *QueryAnalyzer) analyze(query string) *queryAnalysis {
	normalized := textnorm.Normalize(query)
	q := &queryAnalysis{
		raw:          query,
		normalized:   normalized,
		compact:      textnorm.Compact(normalized),
		compatTokens: a.classifier.Analyze(normalized, compatibilityMinTokenLen),
		tokens:       a.classifier.Analyze(normalized, a.minTokenLength),
	}

	seen := make(map[string]bool)
	for _, token := range q.compatTokens {
		if token.Type == domain.TokenConnector || seen[token.Normalized] {
			continue
		}
		seen[token.Normalized] = true
		q.identityTokens = append(q.identityTokens, token.Normalized)
	}

	q.descriptiveOnly = AllOfType(withoutConnectors(q.tokens), domain.TokenDescriptive)
	return q
}

// isEmpty reports whether the query normalized to nothing
func (q *queryAnalysis) isEmpty() bool {
	return q.normalized == ""
}

// hasIdentity reports whether the query carries any non-connector token
func (q *queryAnalysis) hasIdentity() bool {
	return len(q.identityTokens) > 0
}

func withoutConnectors(tokens []domain.Token) []domain.Token {
	out := make([]domain.Token, 0, len(tokens))
	for _, token := range tokens {
		if token.Type != domain.TokenConnector {
			out = append(out, token)
		}
	}
	return out
}
