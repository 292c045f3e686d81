package resolution

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/hybridrag/internal/domain/document"
)

// Kind discriminates the outcome of rule matching.
type Kind string

// Resolution kinds.
const (
	NoMatch      Kind = "no_match"
	Answer       Kind = "answer"
	FunctionCall Kind = "function_call"
)

// Argument is one extracted template slot. Value is int64 or string.
type Argument struct {
	Name  string
	Value any
}

// Call is a function-call descriptor extracted from a query.
type Call struct {
	name string
	args []Argument
}

// NewCall creates a function-call descriptor. Argument order is preserved.
func NewCall(name string, args ...Argument) Call {
	cp := make([]Argument, len(args))
	copy(cp, args)
	return Call{name: name, args: cp}
}

// Name returns the target function name.
func (c Call) Name() string { return c.name }

// Arguments returns the extracted arguments in template order.
func (c Call) Arguments() []Argument {
	cp := make([]Argument, len(c.args))
	copy(cp, c.args)
	return cp
}

// Argument returns the value of the named argument.
func (c Call) Argument(name string) (any, bool) {
	for _, a := range c.args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// ArgumentsJSON encodes the arguments as a JSON object, keys in template order.
func (c Call) ArgumentsJSON() (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range c.args {
		if i > 0 {
			buf.WriteString(", ")
		}
		k, err := json.Marshal(a.Name)
		if err != nil {
			return "", fmt.Errorf("encode argument name %q: %w", a.Name, err)
		}
		v, err := json.Marshal(a.Value)
		if err != nil {
			return "", fmt.Errorf("encode argument %q: %w", a.Name, err)
		}
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// Resolution is the tagged result of rule matching.
type Resolution struct {
	kind   Kind
	rule   string
	answer document.Document
	call   Call
}

// None is the "no rule matched" resolution.
func None() Resolution { return Resolution{kind: NoMatch} }

// NewAnswer resolves to a literal document.
func NewAnswer(rule string, doc document.Document) Resolution {
	return Resolution{kind: Answer, rule: rule, answer: doc}
}

// NewFunctionCall resolves to a structured function call.
func NewFunctionCall(rule string, call Call) Resolution {
	return Resolution{kind: FunctionCall, rule: rule, call: call}
}

// Kind returns the resolution discriminator.
func (r Resolution) Kind() Kind { return r.kind }

// Matched reports whether any rule matched.
func (r Resolution) Matched() bool { return r.kind != NoMatch && r.kind != "" }

// Rule returns the name of the rule that produced the resolution.
func (r Resolution) Rule() string { return r.rule }

// Answer returns the literal document. Only meaningful for Kind() == Answer.
func (r Resolution) Answer() document.Document { return r.answer }

// Call returns the function call. Only meaningful for Kind() == FunctionCall.
func (r Resolution) Call() Call { return r.call }
