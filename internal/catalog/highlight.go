package catalog

import "strings"

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// Highlight wraps every case-insensitive occurrence of query inside name
// with <mark> tags, keeping the original casing of the matched text. An
// empty query returns name unchanged.
func Highlight(name, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return name
	}

	lowerName := strings.ToLower(name)
	lowerQuery := strings.ToLower(query)

	// Byte offsets into the lowered strings only map back onto the
	// originals when folding did not change lengths.
	if len(lowerName) != len(name) || len(lowerQuery) != len(query) {
		return name
	}

	var b strings.Builder
	i := 0
	for {
		j := strings.Index(lowerName[i:], lowerQuery)
		if j < 0 {
			b.WriteString(name[i:])
			return b.String()
		}
		j += i
		b.WriteString(name[i:j])
		b.WriteString(markOpen)
		b.WriteString(name[j : j+len(query)])
		b.WriteString(markClose)
		i = j + len(query)
	}
}
