// Package rules implements deterministic shortcut matching over raw query text.
// Rules are pure string functions: they never see the corpus or the embedder.
package rules

import (
	"fmt"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/document"
	"github.com/kailas-cloud/hybridrag/internal/domain/resolution"
)

// Rule binds a predicate to a resolution.
type Rule struct {
	name    string
	resolve func(query string) (resolution.Resolution, bool)
}

// Name returns the rule identifier used in logs and metrics.
func (r Rule) Name() string { return r.name }

// AnswerRule resolves to a literal document when p matches.
func AnswerRule(name string, p Predicate, doc document.Document) Rule {
	return Rule{
		name: name,
		resolve: func(q string) (resolution.Resolution, bool) {
			if !p.Match(q) {
				return resolution.Resolution{}, false
			}
			return resolution.NewAnswer(name, doc), true
		},
	}
}

// TemplateRule resolves to a function call when the query conforms to t.
func TemplateRule(t *Template) Rule {
	return Rule{
		name: t.Function(),
		resolve: func(q string) (resolution.Resolution, bool) {
			call, ok := t.Extract(q)
			if !ok {
				return resolution.Resolution{}, false
			}
			return resolution.NewFunctionCall(t.Function(), call), true
		},
	}
}

// Matcher evaluates rules in fixed priority order; the first match wins.
type Matcher struct {
	rules []Rule
}

// New creates a matcher. Rule order is the evaluation order. Names must be unique.
func New(rules ...Rule) (*Matcher, error) {
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if r.name == "" || r.resolve == nil {
			return nil, fmt.Errorf("rule must have a name and a resolver")
		}
		if _, dup := seen[r.name]; dup {
			return nil, fmt.Errorf("duplicate rule %q", r.name)
		}
		seen[r.name] = struct{}{}
	}
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Matcher{rules: cp}, nil
}

// MustNew is New for static rule tables.
func MustNew(rules ...Rule) *Matcher {
	m, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return m
}

// Empty returns a matcher with no rules; every query misses.
func Empty() *Matcher { return &Matcher{} }

// Match returns the resolution of the first matching rule, or resolution.None().
func (m *Matcher) Match(query string) resolution.Resolution {
	if m == nil {
		return resolution.None()
	}
	for _, r := range m.rules {
		if res, ok := r.resolve(query); ok {
			return res
		}
	}
	return resolution.None()
}

// Dispatch resolves query to a function call.
// A query that matches no rule, or only a literal-answer rule, fails with domain.ErrNoRuleMatch.
func (m *Matcher) Dispatch(query string) (resolution.Call, error) {
	res := m.Match(query)
	if res.Kind() != resolution.FunctionCall {
		return resolution.Call{}, domain.ErrNoRuleMatch
	}
	return res.Call(), nil
}

// Names returns rule names in evaluation order.
func (m *Matcher) Names() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.rules))
	for i, r := range m.rules {
		out[i] = r.name
	}
	return out
}

// Combine concatenates rule lists in argument order into one matcher.
func Combine(ms ...*Matcher) (*Matcher, error) {
	var all []Rule
	for _, m := range ms {
		if m != nil {
			all = append(all, m.rules...)
		}
	}
	return New(all...)
}
