// Package knowledgebase holds the curated corpora the service can be started with.
package knowledgebase

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/hybridrag/internal/domain/corpus"
	"github.com/kailas-cloud/hybridrag/internal/domain/document"
)

// Source labels of the TypeScript Book excerpts. Rules answer with these documents directly.
const (
	SourceArrowFunctions = "TypeScript Book - Arrow Functions"
	SourceOperators      = "TypeScript Book - Operators"
	SourceTypeInference  = "TypeScript Book - Type Inference"
	SourceInterfaces     = "TypeScript Book - Interfaces"
	SourceTypes          = "TypeScript Book - Types"
)

// ArrowFunctions is the excerpt about the => syntax.
var ArrowFunctions = document.Reconstruct(
	"The fat arrow syntax is affectionately called the fat arrow (because -> is a thin arrow and => is a fat arrow). "+
		"The fat arrow is also called a lambda function.",
	SourceArrowFunctions,
)

// Operators is the excerpt about the !! operator.
var Operators = document.Reconstruct(
	"The !! operator converts any value into an explicit boolean. "+
		"The first ! converts to boolean and inverts the logic, the second ! inverts it back.",
	SourceOperators,
)

// TypeScriptBook returns the default knowledge base: five TypeScript Book excerpts.
func TypeScriptBook() corpus.Corpus {
	return corpus.MustNew([]document.Document{
		ArrowFunctions,
		Operators,
		document.Reconstruct(
			"TypeScript has type inference which means you don't always need to annotate types. "+
				"The compiler can infer types from usage.",
			SourceTypeInference,
		),
		document.Reconstruct(
			"Interfaces in TypeScript are used to define the structure of objects. "+
				"They are a powerful way of defining contracts within your code.",
			SourceInterfaces,
		),
		document.Reconstruct(
			"The any type is the super type of all types in TypeScript. "+
				"Using any effectively opts out of type checking.",
			SourceTypes,
		),
	})
}

// fileEntry is one document in a knowledge base YAML file.
type fileEntry struct {
	Content string `yaml:"content"`
	Source  string `yaml:"source"`
}

// fileFormat is the top-level structure of a knowledge base YAML file.
type fileFormat struct {
	Documents []fileEntry `yaml:"documents"`
}

// LoadFile reads a knowledge base from YAML:
//
//	documents:
//	  - content: "..."
//	    source: "..."
//
// Document order in the file is the corpus order.
func LoadFile(path string) (corpus.Corpus, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return corpus.Corpus{}, fmt.Errorf("read knowledge base %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a knowledge base YAML document.
func Parse(data []byte) (corpus.Corpus, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return corpus.Corpus{}, fmt.Errorf("parse knowledge base: %w", err)
	}
	if len(f.Documents) == 0 {
		return corpus.Corpus{}, fmt.Errorf("knowledge base has no documents")
	}

	docs := make([]document.Document, len(f.Documents))
	for i, e := range f.Documents {
		d, err := document.New(e.Content, e.Source)
		if err != nil {
			return corpus.Corpus{}, fmt.Errorf("knowledge base document [%d]: %w", i, err)
		}
		docs[i] = d
	}

	c, err := corpus.New(docs)
	if err != nil {
		return corpus.Corpus{}, fmt.Errorf("knowledge base: %w", err)
	}
	return c, nil
}
