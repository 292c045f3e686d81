package knowledgebase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeScriptBook(t *testing.T) {
	kb := TypeScriptBook()
	require.Equal(t, 5, kb.Len())

	assert.Equal(t, SourceArrowFunctions, kb.At(0).SourceLabel())
	assert.Contains(t, kb.At(0).Content(), "fat arrow")
	assert.Equal(t, SourceOperators, kb.At(1).SourceLabel())
	assert.Contains(t, kb.At(1).Content(), "!!")
	assert.Equal(t, SourceTypes, kb.At(4).SourceLabel())
}

func TestTypeScriptBook_IndependentValues(t *testing.T) {
	a := TypeScriptBook()
	b := TypeScriptBook()
	assert.Equal(t, a.Contents(), b.Contents())
}

func TestParse(t *testing.T) {
	data := []byte(`
documents:
  - content: "Goroutines are lightweight threads."
    source: "Go Tour - Concurrency"
  - content: "Channels connect goroutines."
    source: "Go Tour - Channels"
`)
	kb, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, 2, kb.Len())
	assert.Equal(t, "Go Tour - Channels", kb.At(1).SourceLabel())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "documents: [unclosed"},
		{"no documents", "documents: []"},
		{"empty content", "documents:\n  - content: \"\"\n    source: x\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("documents:\n  - content: hello\n    source: greet\n"), 0o600))

	kb, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", kb.At(0).Content())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
