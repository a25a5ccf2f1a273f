package render

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryLabel turns a category key such as "release-notes" into the label
// shown in navigation ("Release Notes").
func CategoryLabel(category string) string {
	words := strings.FieldsFunc(category, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}
