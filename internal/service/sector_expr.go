package service

import (
	"fmt"
	"strings"
)

// WildcardSector is the sector cell that applies a question to every sector.
const WildcardSector = "All sectors"

const exceptKeyword = "except"

// SectorExprKind is the grammar a sector cell was parsed under.
type SectorExprKind int

const (
	// SectorList is "A, B, C".
	SectorList SectorExprKind = iota
	// SectorWildcard is "All sectors".
	SectorWildcard
	// SectorExclusion is "All sectors except (A, B, and C)".
	SectorExclusion
)

func (k SectorExprKind) String() string {
	switch k {
	case SectorWildcard:
		return "wildcard"
	case SectorExclusion:
		return "exclusion"
	default:
		return "list"
	}
}

// SectorExpr is a parsed sector cell. Codes are raw (not canonicalized):
// the listed codes for SectorList, the excluded codes for SectorExclusion.
type SectorExpr struct {
	Kind  SectorExprKind
	Codes []string
}

// ParseSectorExpr parses a sector cell. Grammar:
//
//	expr      = wildcard | exclusion | list
//	wildcard  = "All sectors"                      (case-insensitive)
//	exclusion = anything "except" ws* "(" excluded ")" anything
//	list      = item { "," item }
//	excluded  = ws* ["and" ws+] item { "," ws* ["and" ws+] item }
//	item      = ws* code ws*
//
// An exclusion without a parenthesized clause is returned as a list over
// the whole cell together with a MalformedSectorExpr error; the list form
// treats "except" as part of an ordinary token, so such a row only matches
// a selected code that appears verbatim between its commas.
func ParseSectorExpr(raw string) (SectorExpr, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, WildcardSector) {
		return SectorExpr{Kind: SectorWildcard}, nil
	}
	if idx := strings.Index(trimmed, exceptKeyword); idx >= 0 {
		clause, ok := exclusionClause(trimmed[idx+len(exceptKeyword):])
		if ok {
			return SectorExpr{Kind: SectorExclusion, Codes: splitCodes(clause, true)}, nil
		}
		err := NewError(MalformedSectorExpr,
			fmt.Sprintf("%q has no parenthesized exclusion clause", raw), nil)
		return SectorExpr{Kind: SectorList, Codes: splitCodes(trimmed, false)}, err
	}
	return SectorExpr{Kind: SectorList, Codes: splitCodes(trimmed, false)}, nil
}

// exclusionClause returns the text between the first "(" after the keyword
// and its closing ")". Only whitespace may precede the "(".
func exclusionClause(rest string) (string, bool) {
	rest = strings.TrimLeft(rest, " \t")
	if !strings.HasPrefix(rest, "(") {
		return "", false
	}
	end := strings.Index(rest, ")")
	if end < 0 {
		return "", false
	}
	return rest[1:end], true
}

// splitCodes splits a comma list. Only an exclusion clause may end with
// "and X".
func splitCodes(s string, stripAnd bool) []string {
	var codes []string
	for _, piece := range strings.Split(s, ",") {
		piece = strings.TrimSpace(piece)
		if stripAnd {
			piece = strings.TrimSpace(strings.TrimPrefix(piece, "and "))
		}
		if piece == "" {
			continue
		}
		codes = append(codes, piece)
	}
	return codes
}

// Matches reports whether the expression applies to the selected canonical
// codes. Codes compare case-sensitively after canonicalization.
func (e SectorExpr) Matches(selected CodeSet, canonical func(string) string) bool {
	switch e.Kind {
	case SectorWildcard:
		return true
	case SectorExclusion:
		if len(selected) == 0 {
			return false
		}
		return !e.canonicalCodes(canonical).Intersects(selected)
	default:
		return e.canonicalCodes(canonical).Intersects(selected)
	}
}

func (e SectorExpr) canonicalCodes(canonical func(string) string) CodeSet {
	codes := make(CodeSet, len(e.Codes))
	for _, c := range e.Codes {
		codes[canonical(c)] = struct{}{}
	}
	return codes
}

// RowMatcher decides whether a dataset row is in scope for a selection.
type RowMatcher struct {
	aliases *AliasTable
}

// NewRowMatcher creates a matcher that canonicalizes through aliases.
func NewRowMatcher(aliases *AliasTable) *RowMatcher {
	return &RowMatcher{aliases: aliases}
}

// Matches evaluates a raw sector cell against selected canonical codes.
// It never fails: malformed cells fall back to list parsing.
func (m *RowMatcher) Matches(sectorExpr string, selected CodeSet) bool {
	expr, _ := ParseSectorExpr(sectorExpr)
	return expr.Matches(selected, m.aliases.Canonical)
}
