package service

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultAliases collapses fine-grained sector codes onto their family code.
var DefaultAliases = map[string]string{
	"FB":  "FB",
	"FBT": "FB",
	"AC":  "AC",
	"CE":  "CE",
}

// AliasTable maps sector codes to canonical codes. It is built once and
// only read afterwards; Canonical is idempotent.
type AliasTable struct {
	canonical map[string]string
}

// NewAliasTable collapses alias chains (A->B->C becomes A->C, B->C) so a
// single lookup always lands on a fixed point. A chain that revisits a code
// other than as a self-mapping is rejected.
func NewAliasTable(aliases map[string]string) (*AliasTable, error) {
	canonical := make(map[string]string, len(aliases))
	for code := range aliases {
		seen := map[string]bool{code: true}
		cur := code
		for {
			next, ok := aliases[cur]
			if !ok || next == cur {
				break
			}
			if seen[next] {
				return nil, NewError(AliasCycle, fmt.Sprintf("alias chain starting at %q loops back to %q", code, next), nil)
			}
			seen[next] = true
			cur = next
		}
		canonical[code] = cur
	}
	return &AliasTable{canonical: canonical}, nil
}

// Canonical returns the canonical code for code; unknown codes map to
// themselves.
func (t *AliasTable) Canonical(code string) string {
	if t == nil {
		return code
	}
	if c, ok := t.canonical[code]; ok {
		return c
	}
	return code
}

// Len reports the number of aliased codes.
func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.canonical)
}

type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadAliases reads a YAML document of the form
//
//	aliases:
//	  FBT: FB
//
// and merges it over DefaultAliases.
func LoadAliases(r io.Reader) (*AliasTable, error) {
	var f aliasFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode alias file: %w", err)
	}
	merged := make(map[string]string, len(DefaultAliases)+len(f.Aliases))
	for k, v := range DefaultAliases {
		merged[k] = v
	}
	for k, v := range f.Aliases {
		merged[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return NewAliasTable(merged)
}

// LoadAliasFile is LoadAliases over a file. An empty path yields the
// default table.
func LoadAliasFile(path string) (*AliasTable, error) {
	if path == "" {
		return NewAliasTable(DefaultAliases)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open alias file: %w", err)
	}
	defer f.Close()
	return LoadAliases(f)
}

// CodeSet is a set of canonical sector codes.
type CodeSet map[string]struct{}

// NewCodeSet builds a set from codes.
func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s CodeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Intersects reports whether s and other share a code.
func (s CodeSet) Intersects(other CodeSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for c := range small {
		if large.Has(c) {
			return true
		}
	}
	return false
}

// Sorted returns the codes in lexical order.
func (s CodeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SectorTable maps human-readable sector names to codes. A name may carry
// several codes; names keep the order of the source table.
type SectorTable struct {
	names []string
	codes map[string][]string
}

// NewSectorTableFromPairs builds a table from (name, code) pairs.
func NewSectorTableFromPairs(pairs [][2]string) *SectorTable {
	t := &SectorTable{codes: make(map[string][]string)}
	for _, p := range pairs {
		t.add(p[0], p[1])
	}
	return t
}

func (t *SectorTable) add(name, code string) {
	if _, ok := t.codes[name]; !ok {
		t.names = append(t.names, name)
	}
	t.codes[name] = append(t.codes[name], code)
}

// Names lists distinct sector names in table order.
func (t *SectorTable) Names() []string {
	if t == nil {
		return []string{}
	}
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Codes returns the codes registered for name.
func (t *SectorTable) Codes(name string) ([]string, bool) {
	if t == nil {
		return nil, false
	}
	c, ok := t.codes[name]
	return c, ok
}

// Resolver turns selected sector names into canonical codes.
type Resolver struct {
	sectors *SectorTable
	aliases *AliasTable
}

// NewResolver creates a resolver over a sector table and alias table.
func NewResolver(sectors *SectorTable, aliases *AliasTable) *Resolver {
	return &Resolver{sectors: sectors, aliases: aliases}
}

// Resolve returns the canonical code set for names. Names missing from the
// table are used verbatim as codes.
func (r *Resolver) Resolve(names []string) CodeSet {
	codes, _ := r.ResolveDetailed(names)
	return codes
}

// ResolveDetailed is Resolve that also reports the names that were not in
// the sector table, in input order without duplicates.
func (r *Resolver) ResolveDetailed(names []string) (CodeSet, []string) {
	codes := make(CodeSet)
	var unresolved []string
	missed := make(map[string]bool)
	for _, name := range names {
		found, ok := r.sectors.Codes(name)
		if !ok {
			if !missed[name] {
				missed[name] = true
				unresolved = append(unresolved, name)
			}
			found = []string{name}
		}
		for _, c := range found {
			codes[r.aliases.Canonical(strings.TrimSpace(c))] = struct{}{}
		}
	}
	return codes, unresolved
}
