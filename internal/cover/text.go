package cover

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// Plaintext returns s with markup removed and whitespace collapsed. Course
// descriptions written in the rich-text editor are stored as HTML fragments.
func Plaintext(s string) string {
	if strings.ContainsRune(s, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			var parts []string
			var walk func(sel *goquery.Selection)
			walk = func(sel *goquery.Selection) {
				sel.Contents().Each(func(_ int, child *goquery.Selection) {
					if goquery.NodeName(child) == "#text" {
						parts = append(parts, child.Text())
						return
					}
					walk(child)
				})
			}
			walk(doc.Find("body"))
			s = strings.Join(parts, " ")
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// foldText prepares text for matching: plain, lower-cased, without diacritics.
func foldText(s string) string {
	s = Plaintext(s)
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = folded
	}
	return lower.String(s)
}
