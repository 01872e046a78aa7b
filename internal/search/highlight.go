package search

import "regexp"

// HighlightTerms wraps every case-insensitive occurrence of each term in
// <mark> tags, applying terms sequentially. Terms are regex-escaped so query
// input is always matched literally.
func HighlightTerms(s string, terms []string) string {
	for _, term := range terms {
		if term == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(term))
		if err != nil {
			continue
		}
		s = re.ReplaceAllString(s, "<mark>$0</mark>")
	}
	return s
}
