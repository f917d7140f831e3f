package kanban

import "strings"

// ParseItemCodes splits free text on commas and newlines into item codes.
// Surrounding whitespace is trimmed and blank entries are dropped.
func ParseItemCodes(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\n", ",")
	return NormalizeItemCodes(strings.Split(raw, ","))
}

// NormalizeItemCodes trims every code and drops blank ones. Order and
// duplicates are kept: a code listed twice yields two cards.
func NormalizeItemCodes(codes []string) []string {
	result := make([]string, 0, len(codes))
	for _, code := range codes {
		if code = strings.TrimSpace(code); code != "" {
			result = append(result, code)
		}
	}
	return result
}
