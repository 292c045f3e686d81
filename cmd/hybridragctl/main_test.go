package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/hybridrag/internal/knowledgebase"
	"github.com/kailas-cloud/hybridrag/internal/rules"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`embedding:
  provider: mock
  dimensions: 64
logging:
  level: error
`), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = &out
	full := append([]string{"hybridragctl", "--config", writeConfig(t), "--log-level", "error"}, args...)
	err := a.Run(full)
	return out.String(), err
}

func TestSearchCommand_RuleAnswer(t *testing.T) {
	out, err := run(t, "search", "What does the author affectionately call the => syntax?")
	require.NoError(t, err)

	var got struct {
		Strategy string `json:"strategy"`
		Rule     string `json:"rule"`
		Matches  []struct {
			Source string `json:"source"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "rule", got.Strategy)
	assert.Equal(t, rules.RuleFatArrowSyntax, got.Rule)
	require.Len(t, got.Matches, 1)
	assert.Equal(t, knowledgebase.SourceArrowFunctions, got.Matches[0].Source)
}

func TestSearchCommand_KFlag(t *testing.T) {
	out, err := run(t, "search", "--k", "2", "How do interfaces describe object shapes?")
	require.NoError(t, err)

	var got struct {
		Strategy string           `json:"strategy"`
		Matches  []map[string]any `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "embedding", got.Strategy)
	assert.Len(t, got.Matches, 2)
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	_, err := run(t, "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query argument is required")
}

func TestSimilarCommand(t *testing.T) {
	docsFile := filepath.Join(t.TempDir(), "docs.txt")
	require.NoError(t, os.WriteFile(docsFile, []byte("gamma\n\ndelta\n"), 0o600))

	out, err := run(t, "similar", "--doc", "alpha", "--doc", "beta", "--docs-file", docsFile, "beta")
	require.NoError(t, err)

	var got struct {
		Matches []struct {
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Matches, 3)
	assert.Equal(t, "beta", got.Matches[0].Content)
	assert.InDelta(t, 1.0, got.Matches[0].Score, 1e-9)
}

func TestSimilarCommand_NoDocs(t *testing.T) {
	_, err := run(t, "similar", "query")
	require.Error(t, err)
}

func TestExecuteCommand(t *testing.T) {
	out, err := run(t, "execute", "What is the status of ticket 83742?")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, rules.FuncGetTicketStatus, got["name"])
	assert.Equal(t, `{"ticket_id": 83742}`, got["arguments"])
}

func TestExecuteCommand_NoMatch(t *testing.T) {
	_, err := run(t, "execute", "Book me a flight")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not match")
}

func TestEvalCommand_DefaultCases(t *testing.T) {
	out, err := run(t, "eval", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "8 passed, 0 failed")
}

func TestEvalCommand_FailingCase(t *testing.T) {
	cases := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(cases, []byte(`cases:
  - name: wrong
    query: "What is the status of ticket 1?"
    expect_function: schedule_meeting
`), 0o600))

	out, err := run(t, "eval", "--cases", cases)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, err.Error(), "1 case(s) failed")
}
