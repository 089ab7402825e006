package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

var nonPriceCharsRegex = regexp.MustCompile(`[^\d,.]`)

// ParsePrice converts a raw price token into a number.
//
// Everything but digits, commas and dots is dropped. When both separators occur
// the dot groups thousands and the comma is the decimal mark ("1.234,56");
// a lone comma is a decimal mark ("3,50"); a lone dot is parsed as is ("7.99").
// Numeric inputs are formatted without exponent before the same rules apply.
func ParsePrice(raw any) (float64, error) {
	token, ok := priceToken(raw)
	if !ok {
		return 0, domain.ErrInvalidPrice
	}

	cleaned := nonPriceCharsRegex.ReplaceAllString(token, "")
	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	if cleaned == "" {
		return 0, domain.ErrInvalidPrice
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidPrice, token)
	}
	return price, nil
}

// priceToken renders the supported input kinds as text
func priceToken(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []byte:
		return string(v), true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
