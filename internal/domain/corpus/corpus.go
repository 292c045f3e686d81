package corpus

import (
	"fmt"

	"github.com/kailas-cloud/hybridrag/internal/domain/document"
)

// MaxDocuments bounds a single corpus. The query and every document go to the
// provider in one batch, and OpenAI-compatible APIs cap a batch at 2048 inputs.
const MaxDocuments = 2047

// Corpus is an ordered, immutable snapshot of documents.
// Index order is the tie-break order for ranking and never changes after New.
type Corpus struct {
	docs []document.Document
}

// New copies docs into a new Corpus. An empty corpus is valid; ranking against it fails.
func New(docs []document.Document) (Corpus, error) {
	if len(docs) > MaxDocuments {
		return Corpus{}, fmt.Errorf("too many documents (max %d, got %d)", MaxDocuments, len(docs))
	}
	cp := make([]document.Document, len(docs))
	copy(cp, docs)
	return Corpus{docs: cp}, nil
}

// MustNew is New for static tables; panics on error.
func MustNew(docs []document.Document) Corpus {
	c, err := New(docs)
	if err != nil {
		panic(err)
	}
	return c
}

// FromContents builds a corpus of unlabeled documents from raw texts (ad-hoc deployment).
func FromContents(texts []string) (Corpus, error) {
	docs := make([]document.Document, len(texts))
	for i, t := range texts {
		d, err := document.New(t, "")
		if err != nil {
			return Corpus{}, fmt.Errorf("document [%d]: %w", i, err)
		}
		docs[i] = d
	}
	return New(docs)
}

// Len returns the number of documents.
func (c Corpus) Len() int { return len(c.docs) }

// IsEmpty reports whether the corpus has no documents.
func (c Corpus) IsEmpty() bool { return len(c.docs) == 0 }

// At returns the document at index i.
func (c Corpus) At(i int) document.Document { return c.docs[i] }

// Contents returns the document texts in corpus order.
func (c Corpus) Contents() []string {
	out := make([]string, len(c.docs))
	for i, d := range c.docs {
		out[i] = d.Content()
	}
	return out
}
