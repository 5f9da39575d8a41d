// Package matcher decides whether a piece of text mentions any configured keyword.
package matcher

import (
	"regexp"
	"strings"
)

// Kind tells how a Pattern is evaluated.
type Kind int

const (
	KindRegex Kind = iota
	KindLiteral
)

func (k Kind) String() string {
	if k == KindLiteral {
		return "literal"
	}
	return "regex"
}

// Pattern is one compiled keyword: a case-insensitive regular expression, or
// a lower-cased literal when the source did not compile.
type Pattern struct {
	Source  string
	Kind    Kind
	re      *regexp.Regexp
	literal string
}

func (p Pattern) match(text, lowered string) bool {
	if p.Kind == KindLiteral {
		return p.literal != "" && strings.Contains(lowered, p.literal)
	}
	return p.re.MatchString(text)
}

// Matcher holds patterns compiled once at startup.
type Matcher struct {
	patterns []Pattern
}

// Compile turns raw patterns into a Matcher. It never fails: a pattern that is
// not a valid regular expression is kept as a literal substring.
func Compile(patterns []string) *Matcher {
	m := &Matcher{patterns: make([]Pattern, 0, len(patterns))}
	for _, src := range patterns {
		if strings.TrimSpace(src) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + src)
		if err != nil {
			m.patterns = append(m.patterns, Pattern{Source: src, Kind: KindLiteral, literal: strings.ToLower(src)})
			continue
		}
		m.patterns = append(m.patterns, Pattern{Source: src, Kind: KindRegex, re: re})
	}
	return m
}

// Matches reports whether any pattern matches text. Empty text never matches.
func (m *Matcher) Matches(text string) bool {
	_, ok := m.First(text)
	return ok
}

// First returns the first pattern, in configured order, that matches text.
func (m *Matcher) First(text string) (Pattern, bool) {
	if m == nil || text == "" {
		return Pattern{}, false
	}
	lowered := strings.ToLower(text)
	for _, p := range m.patterns {
		if p.match(text, lowered) {
			return p, true
		}
	}
	return Pattern{}, false
}

// Patterns returns the compiled patterns in configured order.
func (m *Matcher) Patterns() []Pattern {
	return append([]Pattern(nil), m.patterns...)
}

// Literals returns the sources that fell back to substring matching.
func (m *Matcher) Literals() []string {
	var out []string
	for _, p := range m.patterns {
		if p.Kind == KindLiteral {
			out = append(out, p.Source)
		}
	}
	return out
}
