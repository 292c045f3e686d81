package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/hybridrag/internal/domain/resolution"
)

// SlotKind is the type of a template variable.
type SlotKind int

// Slot kinds.
const (
	SlotInt SlotKind = iota
	SlotText
	SlotEnum
)

func (k SlotKind) String() string {
	switch k {
	case SlotInt:
		return "int"
	case SlotText:
		return "text"
	case SlotEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Slot is a named variable inside a template.
type Slot struct {
	Name    string
	Kind    SlotKind
	Pattern string   // regexp fragment without capture groups
	Values  []string // allowed tokens for SlotEnum
}

// Int declares a decimal integer slot.
func Int(name string) Slot {
	return Slot{Name: name, Kind: SlotInt, Pattern: `\d+`}
}

// Text declares a free-text slot constrained by pattern.
func Text(name, pattern string) Slot {
	return Slot{Name: name, Kind: SlotText, Pattern: pattern}
}

// Enum declares a slot that accepts exactly one of values.
func Enum(name string, values ...string) Slot {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = regexp.QuoteMeta(v)
	}
	return Slot{Name: name, Kind: SlotEnum, Pattern: strings.Join(quoted, "|"), Values: values}
}

// Template is a rigid natural-language sentence with {slot} placeholders,
// e.g. "What is the status of ticket {ticket_id}?". The whole query must conform.
type Template struct {
	function string
	text     string
	re       *regexp.Regexp
	slots    []Slot // in placeholder order
}

var placeholderRegex = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// NewTemplate compiles text for the given function. Every placeholder must be
// declared in slots and every slot must be used exactly once.
func NewTemplate(function, text string, slots ...Slot) (*Template, error) {
	if function == "" {
		return nil, fmt.Errorf("template function name is required")
	}
	byName := make(map[string]Slot, len(slots))
	for _, s := range slots {
		if s.Pattern == "" {
			return nil, fmt.Errorf("template %s: slot %q has empty pattern", function, s.Name)
		}
		if _, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("template %s: duplicate slot %q", function, s.Name)
		}
		byName[s.Name] = s
	}

	var (
		sb      strings.Builder
		ordered []Slot
		used    = make(map[string]bool, len(slots))
		last    int
	)
	sb.WriteString("^")
	for _, loc := range placeholderRegex.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[2]:loc[3]]
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("template %s: undeclared slot %q", function, name)
		}
		if used[name] {
			return nil, fmt.Errorf("template %s: slot %q used twice", function, name)
		}
		used[name] = true
		sb.WriteString(regexp.QuoteMeta(text[last:loc[0]]))
		sb.WriteString("(" + s.Pattern + ")")
		ordered = append(ordered, s)
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(text[last:]))
	sb.WriteString("$")

	if len(used) != len(byName) {
		return nil, fmt.Errorf("template %s: declared slots not used in %q", function, text)
	}

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", function, err)
	}
	return &Template{function: function, text: text, re: re, slots: ordered}, nil
}

// MustTemplate is NewTemplate for static rule tables.
func MustTemplate(function, text string, slots ...Slot) *Template {
	t, err := NewTemplate(function, text, slots...)
	if err != nil {
		panic(err)
	}
	return t
}

// Function returns the function name the template resolves to.
func (t *Template) Function() string { return t.function }

// Text returns the human-readable template.
func (t *Template) Text() string { return t.text }

// Extract matches query against the template and returns typed arguments.
// Surrounding whitespace is ignored; everything else must match exactly.
func (t *Template) Extract(query string) (resolution.Call, bool) {
	m := t.re.FindStringSubmatch(strings.TrimSpace(query))
	if m == nil {
		return resolution.Call{}, false
	}
	args := make([]resolution.Argument, len(t.slots))
	for i, s := range t.slots {
		raw := m[i+1]
		switch s.Kind {
		case SlotInt:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return resolution.Call{}, false
			}
			args[i] = resolution.Argument{Name: s.Name, Value: n}
		default:
			args[i] = resolution.Argument{Name: s.Name, Value: raw}
		}
	}
	return resolution.NewCall(t.function, args...), true
}
