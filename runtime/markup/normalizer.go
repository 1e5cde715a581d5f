// Package markup implements the markup normalizer (§4.B): it repairs XML
// text mangled by the authoring tool's run-splitting before any text
// reaches the directive parser, so `${foo}` surviving as
// `<r><t>${fo</t></r><r><t>o}</t></r>` becomes one contiguous run.
//
// Modeled on the one DOCX-templating reference in the retrieved corpus,
// which solves the identical seam-merging problem with targeted regexps
// over encoding/xml-escaped text rather than a full DOM rewrite.
package markup

import (
	"regexp"
	"strings"
)

// Config tunes the normalizer's iteration ceiling (§5: "hard ceiling
// (<=20 passes) to prevent runaway on adversarial inputs").
type Config struct {
	MaxMergeIterations int
}

// DefaultConfig is used by Normalize when no Config is supplied.
var DefaultConfig = Config{MaxMergeIterations: 20}

// attrStripPatterns remove vendor revision-tracking and proofing
// attributes from run and paragraph start tags (§4.B policy 1).
var attrStripPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s+w:rsid\w*="[^"]*"`),
	regexp.MustCompile(`\s+w:paraId="[^"]*"`),
	regexp.MustCompile(`\s+w:textId="[^"]*"`),
}

// proofingErrorRe matches each self-closing proofing-error marker element
// (the spellStart/spellEnd pair are separate empty elements). The markers
// carry no text; the runs between a start and end marker are kept.
var proofingErrorRe = regexp.MustCompile(`(?s)<w:proofErr[^/>]*/>`)

// runSeamRe matches the seam described in §4.B policy 2: the end of one
// text node immediately followed by the end of its run, the start of the
// next run (with or without attributes), that run's optional <w:rPr>
// run-properties block (language tags, font refs — authoring tools
// duplicate these onto every fragment of a split run), and the start of
// its text node (with or without xml:space="preserve"). The two text
// bodies are captured so they can be concatenated into a single run.
var runSeamRe = regexp.MustCompile(
	`(?s)<w:t([^>]*)>([^<]*)</w:t></w:r><w:r(\s[^>]*)?>(?:<w:rPr>.*?</w:rPr>|<w:rPr\s*/>)?<w:t([^>]*)>([^<]*)</w:t>`,
)

// emptyRunRe matches a run left with no text content after merging.
var emptyRunRe = regexp.MustCompile(`(?s)<w:r(\s[^>]*)?><w:t([^>]*)></w:t></w:r>`)

// Normalize applies the full §4.B pipeline to raw main-document XML and
// returns the repaired text, ready for the directive parser.
func Normalize(xmlText string, cfg Config) string {
	if cfg.MaxMergeIterations <= 0 {
		cfg = DefaultConfig
	}
	out := stripTrackingAttrs(xmlText)
	out = proofingErrorRe.ReplaceAllString(out, "")
	out = mergeRunsToFixedPoint(out, cfg.MaxMergeIterations)
	out = emptyRunRe.ReplaceAllString(out, "")
	return out
}

func stripTrackingAttrs(s string) string {
	for _, re := range attrStripPatterns {
		s = re.ReplaceAllString(s, "")
	}
	return s
}

// mergeRunsToFixedPoint repeatedly merges adjacent run seams until no
// seam remains or the iteration cap is hit, whichever comes first — this
// is what repairs a word split across three or more runs, since each pass
// only joins one seam but exposes the next.
func mergeRunsToFixedPoint(s string, maxIterations int) string {
	for i := 0; i < maxIterations; i++ {
		merged := runSeamRe.ReplaceAllStringFunc(s, mergeSeam)
		if merged == s {
			return merged
		}
		s = merged
	}
	return s
}

// mergeSeam combines the two text bodies of a matched seam into a single
// text node, preferring the first run's space-preservation attribute (the
// author's original run). The match spans from the first run's "<w:t>"
// through the second run's "</w:t>" only — the opening "<w:r>" before it
// and the closing "</w:r>" after it are left untouched in the surrounding
// text, so the replacement must supply neither: it reduces the two
// original runs to the one that remains standing.
func mergeSeam(match string) string {
	groups := runSeamRe.FindStringSubmatch(match)
	if groups == nil {
		return match
	}
	tAttrs, firstText, secondTAttrs, secondText := groups[1], groups[2], groups[4], groups[5]
	attrs := tAttrs
	if attrs == "" {
		attrs = secondTAttrs
	}
	return "<w:t" + attrs + ">" + firstText + secondText + "</w:t>"
}

// DirectiveSpansParagraphBreak reports whether a directive's "${" and "}"
// fall either side of a paragraph break, which normalization cannot repair
// (§4.B guarantee clause). runtime/template reports a true result as a
// DirectiveSpansBlock parse error.
func DirectiveSpansParagraphBreak(xmlText string) bool {
	return strings.Contains(xmlText, "${") && paragraphSplitDirectiveRe.MatchString(xmlText)
}

// paragraphSplitDirectiveRe matches a "${" whose nearest following "}" is
// preceded by a paragraph-end tag, i.e. the directive's open and close
// markers fall in different paragraphs.
var paragraphSplitDirectiveRe = regexp.MustCompile(`(?s)\$\{[^}]*</w:p>[^}]*\}`)
