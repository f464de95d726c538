package feed

import "regexp"

var (
	priceRegex  = regexp.MustCompile(`Price.*\$(\d+\.\d+)`)
	markupRegex = regexp.MustCompile(`<.*?>`)
)

// recoverPrice digs a dollar amount out of free-form description text for
// sources that omit a structured price field. Markup is stripped first so
// tags between "Price" and the amount do not break the match. Best-effort:
// no match yields an empty string, never an error.
func recoverPrice(description string) string {
	if description == "" {
		return ""
	}

	clean := markupRegex.ReplaceAllString(description, "")
	m := priceRegex.FindStringSubmatch(clean)
	if m == nil {
		return ""
	}
	return m[1]
}
