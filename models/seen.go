package models

import (
	"net/url"
	"sort"
)

// SeenSet holds the links already evaluated in earlier runs.
// Entries are only ever added.
type SeenSet map[string]struct{}

func NewSeenSet(links ...string) SeenSet {
	s := make(SeenSet, len(links))
	for _, l := range links {
		s.Add(l)
	}
	return s
}

func (s SeenSet) Has(link string) bool {
	_, ok := s[link]
	return ok
}

func (s SeenSet) Add(link string) {
	s[link] = struct{}{}
}

func (s SeenSet) Len() int {
	return len(s)
}

func (s SeenSet) Clone() SeenSet {
	c := make(SeenSet, len(s))
	for l := range s {
		c[l] = struct{}{}
	}
	return c
}

// Sorted returns the links in lexical order. Never nil, so an empty set
// serializes as [] rather than null.
func (s SeenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same links.
func (s SeenSet) Equal(o SeenSet) bool {
	if len(s) != len(o) {
		return false
	}
	for l := range s {
		if !o.Has(l) {
			return false
		}
	}
	return true
}

// LinkKey reduces link to the form used to compare it against seen entries.
// Escaping is normalised and the fragment dropped, so "Bases CAS.pdf",
// "Bases%20CAS.pdf" and "Bases%20CAS.pdf#page=2" share a key. Input that
// does not parse is its own key.
func LinkKey(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// Index returns the LinkKey of every stored link. Entries written by older
// versions keep their original text in the set and are matched through it.
func (s SeenSet) Index() SeenSet {
	idx := make(SeenSet, len(s))
	for l := range s {
		idx.Add(LinkKey(l))
	}
	return idx
}
