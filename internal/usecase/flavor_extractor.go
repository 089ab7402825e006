package usecase

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FlavorExtractor finds flavor and variant terms in normalized names
type FlavorExtractor struct {
	flavors []string
	aliases map[string]string
}

// NewFlavorExtractor creates an extractor over the flavor vocabulary.
// aliases maps a matched token onto a canonical token and may be nil.
func NewFlavorExtractor(flavors []string, aliases map[string]string) *FlavorExtractor {
	return &FlavorExtractor{
		flavors: flavors,
		aliases: aliases,
	}
}

// Extract returns the sorted, deduplicated flavor tokens found in name.
// Multi-word entries match as substrings, single words only as whole words.
func (e *FlavorExtractor) Extract(name string) []string {
	seen := make(map[string]bool)
	tokens := []string{}

	for _, flavor := range e.flavors {
		var found bool
		if strings.Contains(flavor, " ") {
			found = strings.Contains(name, flavor)
		} else {
			found = containsWord(name, flavor)
		}
		if !found {
			continue
		}

		token := strings.ReplaceAll(flavor, " ", "_")
		if alias, ok := e.aliases[token]; ok {
			token = alias
		}
		if !seen[token] {
			seen[token] = true
			tokens = append(tokens, token)
		}
	}

	sort.Strings(tokens)
	return tokens
}

// containsWord reports whether word occurs in s delimited by non-word runes or the string edges.
// Letters of any script, digits and underscore count as word runes.
func containsWord(s, word string) bool {
	if word == "" {
		return false
	}
	for offset := 0; offset <= len(s)-len(word); {
		idx := strings.Index(s[offset:], word)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}

		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
