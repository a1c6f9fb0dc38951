package source

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleFromName derives a display title from a file stem or folder name:
// "getting-started" becomes "Getting Started".
func titleFromName(name string) string {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "("), ")")
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
