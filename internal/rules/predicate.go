package rules

import "strings"

// Predicate decides whether a rule applies to a raw query.
type Predicate interface {
	Match(query string) bool
}

// PredicateFunc adapts a plain function to Predicate.
type PredicateFunc func(query string) bool

// Match implements Predicate.
func (f PredicateFunc) Match(query string) bool { return f(query) }

// Contains matches when the query contains s verbatim (case-sensitive).
// Used for symbol tokens such as "=>" or "!!".
func Contains(s string) Predicate {
	return PredicateFunc(func(q string) bool { return strings.Contains(q, s) })
}

// ContainsFold matches when the query contains s, ignoring case.
func ContainsFold(s string) Predicate {
	needle := strings.ToLower(s)
	return PredicateFunc(func(q string) bool { return strings.Contains(strings.ToLower(q), needle) })
}

// Keywords matches when any of the words occurs in the query, ignoring case.
func Keywords(words ...string) Predicate {
	ps := make([]Predicate, len(words))
	for i, w := range words {
		ps[i] = ContainsFold(w)
	}
	return AnyOf(ps...)
}

// AnyOf is the boolean OR of ps. AnyOf() never matches.
func AnyOf(ps ...Predicate) Predicate {
	return PredicateFunc(func(q string) bool {
		for _, p := range ps {
			if p.Match(q) {
				return true
			}
		}
		return false
	})
}

// AllOf is the boolean AND of ps. AllOf() always matches.
func AllOf(ps ...Predicate) Predicate {
	return PredicateFunc(func(q string) bool {
		for _, p := range ps {
			if !p.Match(q) {
				return false
			}
		}
		return true
	})
}
