package scan

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeTitle rewrites s in English title case, so shouting tags like
// "ABBEY ROAD" come out as "Abbey Road". A fresh caser is built per call
// because cases.Caser is not safe for concurrent use.
func NormalizeTitle(s string) string {
	return cases.Title(language.English).String(s)
}
