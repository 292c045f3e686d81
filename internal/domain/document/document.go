package document

import "fmt"

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 163840 // 160KB

// Document is a corpus entry (immutable value object).
// It has no ID: identity is the position inside the corpus it belongs to.
type Document struct {
	content     string
	sourceLabel string
}

// New validates and creates a Document.
// Content: non-empty, max 160KB. The source label is free-form and may be empty.
func New(content, sourceLabel string) (Document, error) {
	if content == "" {
		return Document{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	return Document{content: content, sourceLabel: sourceLabel}, nil
}

// Reconstruct creates a Document without validation (static tables, tests).
func Reconstruct(content, sourceLabel string) Document {
	return Document{content: content, sourceLabel: sourceLabel}
}

// Content returns the document text.
func (d Document) Content() string { return d.content }

// SourceLabel returns the attribution shown to clients.
func (d Document) SourceLabel() string { return d.sourceLabel }
