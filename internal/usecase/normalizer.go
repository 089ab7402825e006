package usecase

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pricelens/backend/internal/vocabulary"
)

// maxNormalizePasses bounds the re-application of the step sequence.
// Real names settle after one or two passes.
const maxNormalizePasses = 5

// Package-level compiled regex patterns for performance
var (
	markupRegex        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRunRegex = regexp.MustCompile(`[\s\p{Z}]+`)
	countTimesRegex    = regexp.MustCompile(`(\d)\s*X\s*(\d)`)
	symbolRegex        = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s,.()\-]`)
	dotSpacingRegex    = regexp.MustCompile(`\s*\.\s*`)
	openParenRegex     = regexp.MustCompile(`\s*\(\s*`)
	closeParenRegex    = regexp.MustCompile(`\s*\)\s*`)
	hyphenSpacingRegex = regexp.MustCompile(`\s*-\s*`)
	edgePunctRegex     = regexp.MustCompile(`^[,\s.]+|[,\s.]+$`)
)

// normalizeStep is one named transformation of the normalization pipeline
type normalizeStep struct {
	name  string
	apply func(string) string
}

// TextNormalizer canonicalizes raw product names into upper-case comparable text.
//
// The steps run in a fixed order and later steps rely on earlier ones:
//  1. uppercase: NFC composition, then upper case
//  2. strip_markup: embedded HTML-like tags become spaces
//  3. collapse_whitespace: line breaks and runs of whitespace become one space
//  4. decimal_comma: "1 ,5 L" becomes "1.5 L" (only next to a volume unit, before symbols are stripped)
//  5. glue_units: "1.5 L" becomes "1.5L" and "4 X 0.5L" becomes "4X0.5L"
//  6. boilerplate: ordered vocabulary patterns (banners, per-unit prices, item numbering) are removed
//  7. strip_symbols: everything except letters, digits, _, whitespace and , . ( ) - becomes a space
//  8. punctuation_spacing: canonical spacing around . ( ) -
//  9. trim: leading and trailing commas, dots and spaces are dropped
//
// The whole sequence is repeated until the output no longer changes, which
// makes Normalize idempotent.
type TextNormalizer struct {
	steps []normalizeStep
}

// NewTextNormalizer builds the pipeline for the given vocabulary
func NewTextNormalizer(vocab *vocabulary.Vocabulary) *TextNormalizer {
	units := unitAlternation(vocab.Units)

	// The trailing group stands in for a word boundary; RE2's \b is ASCII-only.
	decimalCommaRegex := regexp.MustCompile(`(\d)\s*,\s*(\d+\s*(?:` + units + `))([^\p{L}\p{N}_]|$)`)
	numberUnitRegex := regexp.MustCompile(`(\d[\d.]*)\s+(` + units + `)([^\p{L}\p{N}_]|$)`)

	boilerplate := make([]*regexp.Regexp, 0, len(vocab.Boilerplate))
	for _, pattern := range vocab.Boilerplate {
		boilerplate = append(boilerplate, regexp.MustCompile(pattern))
	}

	return &TextNormalizer{
		steps: []normalizeStep{
			{"uppercase", func(s string) string {
				return strings.ToUpper(norm.NFC.String(s))
			}},
			{"strip_markup", func(s string) string {
				return markupRegex.ReplaceAllString(s, " ")
			}},
			{"collapse_whitespace", collapseWhitespace},
			{"decimal_comma", func(s string) string {
				return decimalCommaRegex.ReplaceAllString(s, "$1.$2$3")
			}},
			{"glue_units", func(s string) string {
				s = numberUnitRegex.ReplaceAllString(s, "$1$2$3")
				return countTimesRegex.ReplaceAllString(s, "${1}X$2")
			}},
			{"boilerplate", func(s string) string {
				for _, re := range boilerplate {
					s = re.ReplaceAllString(s, "")
				}
				return s
			}},
			{"strip_symbols", func(s string) string {
				return symbolRegex.ReplaceAllString(s, " ")
			}},
			{"punctuation_spacing", func(s string) string {
				s = whitespaceRunRegex.ReplaceAllString(s, " ")
				s = dotSpacingRegex.ReplaceAllString(s, ".")
				s = openParenRegex.ReplaceAllString(s, " (")
				s = closeParenRegex.ReplaceAllString(s, ") ")
				return hyphenSpacingRegex.ReplaceAllString(s, "-")
			}},
			{"trim", func(s string) string {
				return strings.TrimSpace(edgePunctRegex.ReplaceAllString(s, ""))
			}},
		},
	}
}

// Normalize returns the canonical form of a raw product name.
// An empty result means the name carried no usable text.
func (n *TextNormalizer) Normalize(raw string) string {
	out := raw
	for pass := 0; pass < maxNormalizePasses; pass++ {
		next := n.runOnce(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

// StepNames lists the pipeline steps in execution order
func (n *TextNormalizer) StepNames() []string {
	names := make([]string, len(n.steps))
	for i, step := range n.steps {
		names[i] = step.name
	}
	return names
}

func (n *TextNormalizer) runOnce(s string) string {
	for _, step := range n.steps {
		s = step.apply(s)
	}
	return s
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRunRegex.ReplaceAllString(s, " "))
}

// unitAlternation builds "ML|CL|DL|L" from the unit table; longer units come
// first so that "ML" is never read as "M" followed by "L".
func unitAlternation(units map[string]float64) string {
	names := make([]string, 0, len(units))
	for unit := range units {
		names = append(names, regexp.QuoteMeta(unit))
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return strings.Join(names, "|")
}
