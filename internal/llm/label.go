package llm

import (
	"regexp"
	"strings"
)

var (
	dateNoiseRe   = regexp.MustCompile(`\d{2}/\d{2}(/\d{2,4})?`)
	bankPrefixRe  = regexp.MustCompile(`(?i)\b(CARTE|CB|PRLV|SEPA|VIR)\b\*?\d*`)
	longNumberRe  = regexp.MustCompile(`\b\d{4,}\b`)
	edgeSymbolsRe = regexp.MustCompile(`^[^a-zA-Z0-9]+|[^a-zA-Z0-9]+$`)
	multiSpaceRe  = regexp.MustCompile(`\s+`)
)

// CleanLabel removes common bank noise (dates, card references, technical
// prefixes) so the AI prompt centers on the merchant name.
func CleanLabel(label string) string {
	label = dateNoiseRe.ReplaceAllString(label, "")
	label = bankPrefixRe.ReplaceAllString(label, "")
	label = longNumberRe.ReplaceAllString(label, "")
	label = edgeSymbolsRe.ReplaceAllString(label, "")
	label = multiSpaceRe.ReplaceAllString(label, " ")

	return titleCase(strings.TrimSpace(label))
}

// titleCase uppercases the first letter of each space-separated word and
// lowercases the rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
