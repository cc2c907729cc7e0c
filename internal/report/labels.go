package report

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var title = cases.Title(language.English)

// Label turns an identifier such as "ppe_deliveries" or "non_compliant"
// into a display label ("Ppe Deliveries", "Non Compliant").
func Label(id string) string {
	return title.String(strings.NewReplacer("_", " ", "-", " ").Replace(id))
}

