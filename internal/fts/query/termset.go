package query

import "slices"

// termSet collects unique terms; sorted yields them in byte-wise order.
type termSet map[string]struct{}

func newTermSet() termSet {
	return make(termSet)
}

func (s termSet) add(term string) {
	if term == "" {
		return
	}
	s[term] = struct{}{}
}

func (s termSet) sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
