package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/document"
	"github.com/kailas-cloud/hybridrag/internal/domain/resolution"
)

func TestMatcher_FirstMatchWins(t *testing.T) {
	first := document.Reconstruct("first", "A")
	second := document.Reconstruct("second", "B")
	m := MustNew(
		AnswerRule("a", ContainsFold("apple"), first),
		AnswerRule("b", ContainsFold("apple"), second),
	)

	res := m.Match("an apple a day")
	require.Equal(t, resolution.Answer, res.Kind())
	assert.Equal(t, "a", res.Rule())
	assert.Equal(t, "A", res.Answer().SourceLabel())
}

func TestMatcher_NoMatch(t *testing.T) {
	m := MustNew(AnswerRule("a", ContainsFold("apple"), document.Reconstruct("x", "y")))
	assert.Equal(t, resolution.NoMatch, m.Match("banana").Kind())
}

func TestMatcher_NilAndEmpty(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("anything").Matched())
	assert.Nil(t, m.Names())
	assert.False(t, Empty().Match("anything").Matched())
}

func TestMatcher_Dispatch(t *testing.T) {
	m := MustNew(
		AnswerRule("literal", ContainsFold("hello"), document.Reconstruct("hi", "")),
		TemplateRule(MustTemplate("greet", "greet {name}", Text("name", `\w+`))),
	)

	call, err := m.Dispatch("greet bob")
	require.NoError(t, err)
	assert.Equal(t, "greet", call.Name())

	_, err = m.Dispatch("unknown")
	assert.True(t, errors.Is(err, domain.ErrNoRuleMatch))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = m.Dispatch("hello there")
	assert.ErrorIs(t, err, domain.ErrNoRuleMatch, "literal answers are not function calls")
}

func TestNew_Validation(t *testing.T) {
	doc := document.Reconstruct("x", "")
	_, err := New(AnswerRule("dup", Contains("a"), doc), AnswerRule("dup", Contains("b"), doc))
	assert.Error(t, err)

	_, err = New(Rule{})
	assert.Error(t, err)

	assert.Panics(t, func() { MustNew(Rule{}) })
}

func TestMatcher_Names(t *testing.T) {
	assert.Equal(t,
		[]string{RuleFatArrowSyntax, RuleDoubleBang, RuleArrowAny},
		KnowledgeBase().Names())
	assert.Equal(t,
		[]string{FuncGetTicketStatus, FuncScheduleMeeting, FuncGetExpenseBalance,
			FuncCalculatePerformanceBonus, FuncReportOfficeIssue},
		Functions().Names())
}

func TestCombine(t *testing.T) {
	m, err := Combine(KnowledgeBase(), nil, Functions())
	require.NoError(t, err)
	assert.Len(t, m.Names(), 8)

	assert.Equal(t, resolution.Answer, m.Match("What does !! do?").Kind())
	assert.Equal(t, resolution.FunctionCall, m.Match("What is the status of ticket 9?").Kind())

	_, err = Combine(KnowledgeBase(), KnowledgeBase())
	assert.Error(t, err, "duplicate rule names across matchers")
}
