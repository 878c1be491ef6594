package posts

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// monthAbbrevs holds pt-BR month abbreviations, capitalized ("Jan", "Fev", ...).
var monthAbbrevs = func() [12]string {
	raw := [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}
	caser := cases.Title(language.BrazilianPortuguese)
	var out [12]string
	for i, m := range raw {
		out[i] = caser.String(m)
	}
	return out
}()

// FormatDate renders t as "dd Mmm yyyy" with a Brazilian Portuguese month,
// e.g. "25 Mar 2021". A nil time renders as the empty string.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%02d %s %04d", t.Day(), monthAbbrevs[t.Month()-1], t.Year())
}

// ISODate renders t for a <time datetime> attribute.
func ISODate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
