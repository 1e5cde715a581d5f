// Package validate implements the validator (§4.H): a static inspection
// of a template that enumerates directives and flags syntactic problems
// without executing anything.
package validate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/mod/semver"

	"github.com/tmplforge/doctpl/core/ast"
	"github.com/tmplforge/doctpl/core/format"
	"github.com/tmplforge/doctpl/core/parser"
)

// DirectiveKind mirrors the directive tree node kinds, for reporting.
type DirectiveKind string

const (
	KindInterp DirectiveKind = "interp"
	KindIf     DirectiveKind = "if"
	KindEach   DirectiveKind = "each"
)

// DirectiveLocation is one reported directive: its kind and source range.
type DirectiveLocation struct {
	Kind DirectiveKind
	Pos  ast.Pos
	Raw  string
}

// Statistics tallies the directive shapes the complexity score is built
// from (§4.H).
type Statistics struct {
	Vars        int
	Ifs         int
	Loops       int
	NestedLoops int
	Aggregates  int
	Stylings    int
}

// ComplexityScore implements §4.H's weighted formula.
func (s Statistics) ComplexityScore() int {
	return 1*s.Vars + 3*s.Ifs + 5*s.Loops + 10*s.NestedLoops + 4*s.Aggregates + 2*s.Stylings
}

// Warning is a non-fatal report item (unknown formatter, engine-version
// mismatch, suspicious character).
type Warning struct {
	Kind       string
	Message    string
	Pos        ast.Pos
	Suggestion string
}

// Report is the output of Validate (§6: "validate(template_bytes) → report").
type Report struct {
	Valid      bool
	Errors     []string
	Warnings   []Warning
	Statistics Statistics
	Locations  []DirectiveLocation
}

var aggregateFormatters = map[string]bool{"sum": true, "count": true, "avg": true, "max": true, "min": true}

// suspiciousCharRe flags smart quotes and zero-width characters that
// authoring tools sometimes insert inside what looks like plain ASCII
// directive text (§4.H).
var suspiciousCharRe = regexp.MustCompile("[‘’“”​‌‍﻿]")

// engineCommentRe recovers the optional compatibility comment
// `<!--doctpl:engine ">=1.0.0"-->` (a supplemented feature, §9).
var engineCommentRe = regexp.MustCompile(`<!--\s*doctpl:engine\s+"([^"]+)"\s*-->`)

// EngineVersion is this build's semantic version, checked against a
// template's optional compatibility comment.
const EngineVersion = "v1.0.0"

// Validate statically inspects normalized template text, never executing
// directives.
func Validate(normalizedXML string) Report {
	var rep Report

	if m := engineCommentRe.FindStringSubmatch(normalizedXML); m != nil {
		checkEngineCompat(m[1], &rep)
	}

	nodes, err := parser.Parse(normalizedXML)
	if err != nil {
		rep.Valid = false
		rep.Errors = append(rep.Errors, err.Error())
		return rep
	}

	walk(nodes, 0, &rep)

	if idx := suspiciousCharRe.FindStringIndex(normalizedXML); idx != nil {
		rep.Warnings = append(rep.Warnings, Warning{
			Kind:    "suspicious_character",
			Message: "template contains a smart-quote or zero-width character that may split a directive",
		})
	}

	rep.Valid = true
	return rep
}

func checkEngineCompat(constraint string, rep *Report) {
	constraint = strings.TrimSpace(constraint)
	op, ver := splitConstraint(constraint)
	if !semver.IsValid(ver) {
		rep.Warnings = append(rep.Warnings, Warning{Kind: "engine_compat", Message: "unparseable engine compatibility comment: " + constraint})
		return
	}
	cmp := semver.Compare(EngineVersion, ver)
	ok := false
	switch op {
	case ">=":
		ok = cmp >= 0
	case ">":
		ok = cmp > 0
	case "<=":
		ok = cmp <= 0
	case "<":
		ok = cmp < 0
	case "==", "":
		ok = cmp == 0
	default:
		ok = true
	}
	if !ok {
		rep.Warnings = append(rep.Warnings, Warning{
			Kind:    "engine_compat",
			Message: "template declares engine requirement " + constraint + ", running " + EngineVersion,
		})
	}
}

func splitConstraint(c string) (op, ver string) {
	for _, o := range []string{">=", "<=", "==", ">", "<"} {
		if strings.HasPrefix(c, o) {
			return o, "v" + strings.TrimSpace(strings.TrimPrefix(c, o))
		}
	}
	return "==", "v" + c
}

// walk recurses the directive tree, tallying statistics and locations.
// depth tracks loop nesting for the NestedLoops weight.
func walk(nodes []ast.Node, loopDepth int, rep *Report) {
	for _, n := range nodes {
		switch node := n.(type) {
		case ast.Literal:
			// inert, nothing to report
		case ast.Interp:
			rep.Locations = append(rep.Locations, DirectiveLocation{Kind: KindInterp, Pos: node.Pos, Raw: node.Raw})
			rep.Statistics.Vars++
			for _, f := range node.Formatters {
				if format.IsStyling(f.Name) {
					rep.Statistics.Stylings++
				}
				if aggregateFormatters[f.Name] {
					rep.Statistics.Aggregates++
				}
				if _, ok := format.Default.Get(f.Name); !ok {
					rep.Warnings = append(rep.Warnings, Warning{
						Kind:       "unknown_formatter",
						Message:    "unknown formatter " + f.Name,
						Pos:        node.Pos,
						Suggestion: format.Default.Suggest(f.Name),
					})
				}
			}
		case ast.If:
			rep.Locations = append(rep.Locations, DirectiveLocation{Kind: KindIf, Pos: node.Pos, Raw: node.Raw})
			rep.Statistics.Ifs++
			// A BadExpr header is never evaluated by the executor (it emits
			// the error placeholder and returns without visiting either
			// branch), so the validator must not walk into Then/Else either
			// — otherwise it would report directive locations the executor
			// never actually visits.
			if node.BadExpr {
				continue
			}
			walk(node.Then, loopDepth, rep)
			walk(node.Else, loopDepth, rep)
		case ast.Each:
			rep.Locations = append(rep.Locations, DirectiveLocation{Kind: KindEach, Pos: node.Pos, Raw: node.Raw})
			rep.Statistics.Loops++
			if loopDepth > 0 {
				rep.Statistics.NestedLoops++
			}
			if node.BadExpr {
				continue
			}
			walk(node.Body, loopDepth+1, rep)
		}
	}
}

// Suggest exposes fuzzy name matching for unknown directive keywords
// found outside the grammar (e.g. a typo'd `${#eash ...}`). Validate itself
// does not call it.
func Suggest(unknown string, known []string) string {
	ranked := fuzzy.RankFindFold(unknown, known)
	if len(ranked) == 0 {
		return ""
	}
	sort.Sort(ranked)
	return ranked[0].Target
}
