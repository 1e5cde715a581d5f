// Package rowclean implements the table-row cleaner (§4.G): a
// post-expansion pass over emitted XML that drops table rows whose
// rendered text content is empty or whitespace only — the rows authors
// use to hold a lone `${#each ...}` opener/closer so the table structure
// survives editing.
package rowclean

import (
	"regexp"
	"strings"
)

// rowRe matches one table-row element, non-greedily: it stops at the first
// `</w:tr>` after the opener. For a row whose cells hold a nested table,
// that closer belongs to the nested table's first row; Clean detects such a
// match with nestedRowRe and leaves it untouched.
var rowRe = regexp.MustCompile(`(?s)<w:tr(?:\s[^>]*)?>.*?</w:tr>`)

// nestedRowRe finds a second row opener (not `<w:trPr>`) inside a match.
var nestedRowRe = regexp.MustCompile(`<w:tr[\s>]`)

// textLeafRe extracts the text content of every <w:t> leaf within a row,
// used only to decide whether the row is blank.
var textLeafRe = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)

// Clean scans emitted document XML for table rows and removes any row
// whose aggregate text is empty or whitespace only, including a row holding
// nothing but a space the author typed. Rows with any other text are
// preserved, and a row containing a nested table is never removed.
func Clean(xmlText string) string {
	return rowRe.ReplaceAllStringFunc(xmlText, func(row string) string {
		if nestedRowRe.MatchString(row[len("<w:tr"):]) {
			return row
		}
		if isBlankRow(row) {
			return ""
		}
		return row
	})
}

func isBlankRow(row string) bool {
	matches := textLeafRe.FindAllStringSubmatch(row, -1)
	for _, m := range matches {
		if strings.TrimSpace(unescapeMinimal(m[1])) != "" {
			return false
		}
	}
	return true
}

// unescapeMinimal reverses the handful of XML entities the executor emits
// (§4.F), enough to tell whitespace-only content from real text without
// pulling in a full XML decoder for this one check.
func unescapeMinimal(s string) string {
	r := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
	return r.Replace(s)
}
