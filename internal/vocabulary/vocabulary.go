// Package vocabulary holds the reference tables that drive token classification
// and console detection. Tables ship as embedded YAML and may be overridden by a
// file at startup.
package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/textnorm"
)

//go:embed default.yaml
var defaultTables []byte

// tables mirrors the YAML layout
type tables struct {
	Connectors    []string            `yaml:"connectors"`
	Descriptive   []string            `yaml:"descriptive"`
	RomanNumerals map[string]int      `yaml:"roman_numerals"`
	Synonyms      map[string][]string `yaml:"synonyms"`
	Console       consoleTables       `yaml:"console"`
}

type consoleTables struct {
	Categories         []string `yaml:"categories"`
	ProductTypes       []string `yaml:"product_types"`
	ExcludedCategories []string `yaml:"excluded_categories"`
	NamePatterns       []string `yaml:"name_patterns"`
}

// Vocabulary is an immutable, normalized view of the reference tables.
// It is safe for concurrent use.
type Vocabulary struct {
	connectors         map[string]bool
	descriptive        map[string]bool
	romanToArabic      map[string]int
	synonyms           map[string]map[string]bool
	consoleCategories  map[string]bool
	consoleTypes       map[string]bool
	excludedCategories map[string]bool
	consolePatterns    []*regexp.Regexp
}

// Default returns the embedded vocabulary
func Default() (*Vocabulary, error) {
	return Parse(defaultTables)
}

// MustDefault returns the embedded vocabulary and panics if it is invalid
func MustDefault() *Vocabulary {
	v, err := Default()
	if err != nil {
		panic(err)
	}
	return v
}

// Load reads vocabulary tables from path. An empty path loads the embedded defaults.
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates YAML vocabulary tables
func Parse(data []byte) (*Vocabulary, error) {
	var t tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidVocabulary, err)
	}

	if len(t.RomanNumerals) == 0 {
		return nil, fmt.Errorf("%w: roman numeral table is empty", domain.ErrInvalidVocabulary)
	}

	v := &Vocabulary{
		connectors:         normalizedSet(t.Connectors),
		descriptive:        normalizedSet(t.Descriptive),
		romanToArabic:      make(map[string]int, len(t.RomanNumerals)),
		synonyms:           make(map[string]map[string]bool, len(t.Synonyms)),
		consoleCategories:  normalizedSet(t.Console.Categories),
		consoleTypes:       normalizedSet(t.Console.ProductTypes),
		excludedCategories: normalizedSet(t.Console.ExcludedCategories),
	}

	for numeral, value := range t.RomanNumerals {
		key := textnorm.Normalize(numeral)
		if key == "" || value <= 0 {
			return nil, fmt.Errorf("%w: bad roman numeral %q=%d", domain.ErrInvalidVocabulary, numeral, value)
		}
		v.romanToArabic[key] = value
	}

	for key, expansions := range t.Synonyms {
		normalizedKey := textnorm.Normalize(key)
		set := normalizedSet(expansions)
		if normalizedKey == "" || len(set) == 0 {
			return nil, fmt.Errorf("%w: synonym %q has no expansions", domain.ErrInvalidVocabulary, key)
		}
		v.synonyms[normalizedKey] = set
	}

	for _, pattern := range t.Console.NamePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: console pattern %q: %v", domain.ErrInvalidVocabulary, pattern, err)
		}
		v.consolePatterns = append(v.consolePatterns, re)
	}

	return v, nil
}

// normalizedSet builds a lookup set from raw entries, dropping blanks
func normalizedSet(entries []string) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if n := textnorm.Normalize(entry); n != "" {
			set[n] = true
		}
	}
	return set
}

// IsConnector reports whether token is a stopword/connector
func (v *Vocabulary) IsConnector(token string) bool {
	return v.connectors[token]
}

// IsDescriptive reports whether token is an edition/platform/genre/condition qualifier
func (v *Vocabulary) IsDescriptive(token string) bool {
	return v.descriptive[token]
}

// RomanValue returns the Arabic value of a Roman numeral token
func (v *Vocabulary) RomanValue(token string) (int, bool) {
	value, ok := v.romanToArabic[token]
	return value, ok
}

// AreSynonyms reports whether one token is an abbreviation whose expansion contains the other
func (v *Vocabulary) AreSynonyms(a, b string) bool {
	if expansions, ok := v.synonyms[a]; ok && expansions[b] {
		return true
	}
	if expansions, ok := v.synonyms[b]; ok && expansions[a] {
		return true
	}
	return false
}

// IsConsoleCategory reports whether a normalized category names a console category
func (v *Vocabulary) IsConsoleCategory(category string) bool {
	return v.consoleCategories[category]
}

// IsConsoleType reports whether a normalized product type is a console type
func (v *Vocabulary) IsConsoleType(productType string) bool {
	return v.consoleTypes[productType]
}

// IsExcludedCategoryToken reports whether a category token marks games/software/accessories
func (v *Vocabulary) IsExcludedCategoryToken(token string) bool {
	return v.excludedCategories[token]
}

// MatchesConsoleName reports whether a normalized product name matches the console whitelist
func (v *Vocabulary) MatchesConsoleName(name string) bool {
	for _, re := range v.consolePatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Stats returns table sizes, for logging
func (v *Vocabulary) Stats() map[string]int {
	return map[string]int{
		"connectors":       len(v.connectors),
		"descriptive":      len(v.descriptive),
		"roman_numerals":   len(v.romanToArabic),
		"synonyms":         len(v.synonyms),
		"console_patterns": len(v.consolePatterns),
	}
}
