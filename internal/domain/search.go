package domain

// TokenType classifies a token by how much product identity it carries
type TokenType string

const (
	TokenMain        TokenType = "MAIN"
	TokenNumeric     TokenType = "NUMERIC"
	TokenRoman       TokenType = "ROMAN"
	TokenDescriptive TokenType = "DESCRIPTIVE"
	TokenConnector   TokenType = "CONNECTOR"
)

// Default importance weight per token type
const (
	WeightMain        = 1.0
	WeightNumeric     = 1.5
	WeightRoman       = 1.5
	WeightDescriptive = 0.3
	WeightConnector   = 0.1
)

// Token is a classified word-unit extracted from a query or tag name
type Token struct {
	Text       string    `json:"text"`
	Normalized string    `json:"normalized"`
	Type       TokenType `json:"type"`
	Position   int       `json:"position"`
	Weight     float64   `json:"weight"`
}

// IsNumeric reports whether the token is a number, Arabic or Roman
func (t Token) IsNumeric() bool {
	return t.Type == TokenNumeric || t.Type == TokenRoman
}

// MatchType describes how a query token was judged equivalent to a tag token
type MatchType string

const (
	MatchExact        MatchType = "exact"
	MatchPartial      MatchType = "partial"
	MatchNumeric      MatchType = "numeric"
	MatchRomanNumeral MatchType = "roman_numeral"
)

// TokenMatch pairs a query token with the tag token it matched
type TokenMatch struct {
	QueryToken Token     `json:"queryToken"`
	TagToken   Token     `json:"tagToken"`
	MatchType  MatchType `json:"matchType"`
	Similarity float64   `json:"similarity"`
}

// CompatibilityResult is the outcome of scoring one query against one weighted tag
type CompatibilityResult struct {
	QueryTokens           []Token      `json:"queryTokens"`
	TagTokens             []Token      `json:"tagTokens"`
	Matches               []TokenMatch `json:"matches"`
	CompatibilityRatio    float64      `json:"compatibilityRatio"`
	RawScore              float64      `json:"rawScore"`
	Bonus                 float64      `json:"bonus"`
	FinalScore            float64      `json:"finalScore"`
	RejectedByNumericRule bool         `json:"rejectedByNumericRule"`
	DescriptiveOnly       bool         `json:"descriptiveOnly"`
}

// TagScore is the per-tag entry of a score breakdown
type TagScore struct {
	Tag                string  `json:"tag"`
	Weight             float64 `json:"weight"`
	CompatibilityRatio float64 `json:"compatibilityRatio"`
	RawScore           float64 `json:"rawScore"`
	FinalScore         float64 `json:"finalScore"`
	Rejected           bool    `json:"rejected,omitempty"`
}

// ScoreBreakdown explains how a relevance score was assembled
type ScoreBreakdown struct {
	TagScore      float64    `json:"tagScore"`
	NameScore     float64    `json:"nameScore"`
	CategoryScore float64    `json:"categoryScore"`
	PhraseBonus   float64    `json:"phraseBonus"`
	ConsoleBonus  float64    `json:"consoleBonus"`
	Tags          []TagScore `json:"tags,omitempty"`
}

// ScoredProduct is a product ranked against one query
type ScoredProduct struct {
	Product        Product        `json:"product"`
	RelevanceScore float64        `json:"relevanceScore"`
	MatchedTags    []string       `json:"matchedTags"`
	MatchedTokens  []string       `json:"matchedTokens,omitempty"`
	Breakdown      ScoreBreakdown `json:"debugBreakdown"`
}

// SearchResult is the ranked output of a catalog search
type SearchResult struct {
	Query           string          `json:"query"`
	ExactMatches    []ScoredProduct `json:"exactMatches"`
	RelatedProducts []ScoredProduct `json:"relatedProducts"`
	TagSuggestions  []string        `json:"tagSuggestions"`
}

// Total returns the number of products across both buckets
func (r *SearchResult) Total() int {
	return len(r.ExactMatches) + len(r.RelatedProducts)
}

// Related-products algorithms
const (
	AlgorithmSearchBased = "search_based"
	AlgorithmFallback    = "fallback"
)

// RelatedDebugInfo describes how a related-products list was produced
type RelatedDebugInfo struct {
	Query         string `json:"query"`
	Candidates    int    `json:"candidates"`
	ExactCount    int    `json:"exactCount"`
	RelatedCount  int    `json:"relatedCount"`
	SearchMatches int    `json:"searchMatches"`
	FallbackCount int    `json:"fallbackCount"`
}

// RelatedResult is the output of the related-products adapter
type RelatedResult struct {
	Products  []Product        `json:"products"`
	Algorithm string           `json:"algorithm"`
	DebugInfo RelatedDebugInfo `json:"debugInfo"`
}
