// Package family resolves table header text to canonical column roles
// ("families" such as QTY or AMOUNT) using a configured alias table.
package family

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

var foldCaser = cases.Fold()

// Canonicalize normalizes text for alias comparison: full-width characters
// are folded to their narrow forms, case is folded, and everything except
// letters and digits is removed.
func Canonicalize(s string) string {
	folded := foldCaser.String(width.Fold.String(s))
	var sb strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Fingerprint joins a table's column labels into the canonical cache key.
// Two tables with identical fingerprints are assumed to share a vendor
// layout.
func Fingerprint(labels []string) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = Canonicalize(l)
	}
	return strings.Join(parts, "|")
}

type alias struct {
	family    string
	canonical string
}

// Matcher resolves arbitrary header or cell text to a family name. It is a
// pure lookup: construction compiles the alias table once and Resolve has
// no state or failure mode other than "no match".
type Matcher struct {
	aliases []alias
}

// NewMatcher builds a matcher from a family -> alias-list table. Aliases
// that canonicalize to the empty string are ignored.
func NewMatcher(table map[string][]string) *Matcher {
	m := &Matcher{}
	families := make([]string, 0, len(table))
	for fam := range table {
		families = append(families, fam)
	}
	// Deterministic order so equal-length ties resolve the same way
	sort.Strings(families)
	for _, fam := range families {
		for _, a := range table[fam] {
			c := Canonicalize(a)
			if c == "" {
				continue
			}
			m.aliases = append(m.aliases, alias{family: fam, canonical: c})
		}
	}
	// Longest alias first: when multiple families match, the most specific
	// alias wins.
	sort.SliceStable(m.aliases, func(i, j int) bool {
		return len(m.aliases[i].canonical) > len(m.aliases[j].canonical)
	})
	return m
}

// Resolve returns the family whose alias is a substring of the canonicalized
// text, preferring the longest alias. The second return is false when no
// alias matches.
func (m *Matcher) Resolve(text string) (string, bool) {
	c := Canonicalize(text)
	if c == "" {
		return "", false
	}
	for _, a := range m.aliases {
		if strings.Contains(c, a.canonical) {
			return a.family, true
		}
	}
	return "", false
}

// Families returns the distinct family names known to the matcher
func (m *Matcher) Families() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range m.aliases {
		if !seen[a.family] {
			seen[a.family] = true
			out = append(out, a.family)
		}
	}
	sort.Strings(out)
	return out
}

// AliasesFor returns the canonical aliases configured for a family
func (m *Matcher) AliasesFor(fam string) []string {
	var out []string
	for _, a := range m.aliases {
		if a.family == fam {
			out = append(out, a.canonical)
		}
	}
	return out
}
