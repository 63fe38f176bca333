package repositorycache

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// pluralSnake turns a Go type name into a key namespace: "Item" becomes
// "items", "PriceList" becomes "price_lists".
func pluralSnake(typeName string) string {
	snake := toSnake(typeName)
	if snake == "" {
		return "records"
	}

	// pluralize only the last word so "price_list" reads "price_lists"
	idx := strings.LastIndexByte(snake, '_')
	return snake[:idx+1] + inflection.Plural(snake[idx+1:])
}

// toSnake lower-cases s and inserts underscores at word boundaries.
// Runes that are not letters or digits (generic brackets, dots, stars from
// reflected names) become a single separator so they never leak into keys.
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + 4)

	pendingSep := false
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingSep = b.Len() > 0
			continue
		}

		if unicode.IsUpper(r) && i > 0 && b.Len() > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				pendingSep = true
			}
		}

		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
