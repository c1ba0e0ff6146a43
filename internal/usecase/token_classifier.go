package usecase

import (
	"strings"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/textnorm"
	"github.com/storefront/backend/internal/vocabulary"
)

// TokenClassifier assigns a type and importance weight to tokens.
// Tag compatibility scoring and query analysis share one classifier so the two
// paths can never disagree about a token.
type TokenClassifier struct {
	vocab *vocabulary.Vocabulary
}

// NewTokenClassifier creates a classifier backed by the given vocabulary
func NewTokenClassifier(vocab *vocabulary.Vocabulary) *TokenClassifier {
	return &TokenClassifier{vocab: vocab}
}

// Classify determines the type of a single normalized token.
// Precedence: numeric, roman numeral, connector, descriptive, main.
func (c *TokenClassifier) Classify(normalized string) (domain.TokenType, float64) {
	switch {
	case isNumeric(normalized):
		return domain.TokenNumeric, domain.WeightNumeric
	case c.isRoman(normalized):
		return domain.TokenRoman, domain.WeightRoman
	case c.vocab.IsConnector(normalized):
		return domain.TokenConnector, domain.WeightConnector
	case c.vocab.IsDescriptive(normalized):
		return domain.TokenDescriptive, domain.WeightDescriptive
	default:
		return domain.TokenMain, domain.WeightMain
	}
}

// Analyze tokenizes text and classifies every token, keeping positions in order
func (c *TokenClassifier) Analyze(text string, minLength int) []domain.Token {
	words := textnorm.Tokenize(text, minLength)
	tokens := make([]domain.Token, 0, len(words))

	for i, word := range words {
		tokenType, weight := c.Classify(word)
		tokens = append(tokens, domain.Token{
			Text:       word,
			Normalized: word,
			Type:       tokenType,
			Position:   i,
			Weight:     weight,
		})
	}

	return tokens
}

// NumericValue resolves a numeric or roman token to its integer value
func (c *TokenClassifier) NumericValue(token domain.Token) (int, bool) {
	switch token.Type {
	case domain.TokenNumeric:
		return parseDigits(token.Normalized)
	case domain.TokenRoman:
		return c.vocab.RomanValue(token.Normalized)
	}
	return 0, false
}

func (c *TokenClassifier) isRoman(token string) bool {
	_, ok := c.vocab.RomanValue(token)
	return ok
}

// AllOfType reports whether tokens is non-empty and every token has type t
func AllOfType(tokens []domain.Token, t domain.TokenType) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, token := range tokens {
		if token.Type != t {
			return false
		}
	}
	return true
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// parseDigits converts an all-digit token, ignoring leading zeros.
// Tokens too long to be a meaningful number are rejected.
func parseDigits(s string) (int, bool) {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return 0, true
	}
	if len(s) > 9 {
		return 0, false
	}
	value := 0
	for _, c := range s {
		value = value*10 + int(c-'0')
	}
	return value, true
}
