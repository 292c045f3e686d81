package result

import "github.com/kailas-cloud/hybridrag/internal/domain/document"

// RuleScore is the sentinel score of a literal rule answer.
const RuleScore = 1.0

// Result is a single ranked hit with source attribution.
type Result struct {
	document document.Document
	index    int
	score    float64
}

// New creates a ranked result. index is the document position in its corpus
// (-1 for literal rule answers, which are not corpus members).
func New(doc document.Document, index int, score float64) Result {
	return Result{document: doc, index: index, score: score}
}

// Document returns the matched document.
func (r Result) Document() document.Document { return r.document }

// Index returns the corpus position of the document.
func (r Result) Index() int { return r.index }

// Score returns the cosine similarity (or RuleScore).
func (r Result) Score() float64 { return r.score }

// Content returns the document text.
func (r Result) Content() string { return r.document.Content() }

// Source returns the document source label.
func (r Result) Source() string { return r.document.SourceLabel() }
