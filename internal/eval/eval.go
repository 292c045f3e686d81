// Package eval replays a set of labelled queries through the retrieval engine
// concurrently and reports which expectations held.
package eval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/hybridrag/internal/domain"
	"github.com/kailas-cloud/hybridrag/internal/domain/corpus"
	logpkg "github.com/kailas-cloud/hybridrag/internal/logger"
	retrievaluc "github.com/kailas-cloud/hybridrag/internal/usecase/retrieval"
)

// Retriever is the part of the retrieval service the runner needs.
type Retriever interface {
	Retrieve(ctx context.Context, query string, c corpus.Corpus, k int) (retrievaluc.Outcome, error)
	Corpus() corpus.Corpus
	DefaultK() int
}

// Case is one labelled query. Empty expectations are not checked.
type Case struct {
	Name  string   `yaml:"name"`
	Query string   `yaml:"query"`
	Docs  []string `yaml:"docs,omitempty"` // absent: rank the knowledge base; [] is an empty corpus
	K     int      `yaml:"k,omitempty"`

	ExpectStrategy  string `yaml:"expect_strategy,omitempty"`
	ExpectSource    string `yaml:"expect_source,omitempty"`
	ExpectContent   string `yaml:"expect_content,omitempty"`
	ExpectMatches   int    `yaml:"expect_matches,omitempty"`
	ExpectFunction  string `yaml:"expect_function,omitempty"`
	ExpectArguments string `yaml:"expect_arguments,omitempty"`
}

// Result is the outcome of one case.
type Result struct {
	Case     Case
	Outcome  retrievaluc.Outcome
	Err      error
	Failures []string
	Duration time.Duration
}

// Passed reports whether the case met every expectation.
func (r Result) Passed() bool { return r.Err == nil && len(r.Failures) == 0 }

// Report aggregates results in case order.
type Report struct {
	Results  []Result
	Duration time.Duration
}

// Passed returns the number of passing cases.
func (r Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed() {
			n++
		}
	}
	return n
}

// Failed returns the number of failing cases.
func (r Report) Failed() int { return len(r.Results) - r.Passed() }

// Runner executes cases on an ants worker pool.
type Runner struct {
	svc     Retriever
	workers int
	logger  *zap.Logger
}

// NewRunner creates a Runner. workers <= 0 selects runtime.NumCPU().
func NewRunner(svc Retriever, workers int, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{svc: svc, workers: workers, logger: logger}
}

// Run executes every case and waits for all of them.
func (r *Runner) Run(ctx context.Context, cases []Case) (Report, error) {
	pool, err := ants.NewPool(r.workers)
	if err != nil {
		return Report{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	start := time.Now()
	results := make([]Result, len(cases))
	var wg sync.WaitGroup
	for i, c := range cases {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i] = r.runCase(ctx, c)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return Report{}, fmt.Errorf("submit case %q: %w", c.Name, err)
		}
	}
	wg.Wait()

	return Report{Results: results, Duration: time.Since(start)}, nil
}

func (r *Runner) runCase(ctx context.Context, c Case) Result {
	start := time.Now()
	res := Result{Case: c}
	ctx = logpkg.With(logpkg.ContextWithLogger(ctx, r.logger), zap.String("case", c.Name))

	target := r.svc.Corpus()
	k := r.svc.DefaultK()
	if c.Docs != nil {
		var err error
		if target, err = corpus.FromContents(c.Docs); err != nil {
			res.Err = fmt.Errorf("build corpus: %w", err)
			return res
		}
		k = domain.DefaultAdHocK
	}
	if c.K > 0 {
		k = c.K
	}

	res.Outcome, res.Err = r.svc.Retrieve(ctx, c.Query, target, k)
	res.Duration = time.Since(start)
	if res.Err == nil {
		res.Failures = check(c, res.Outcome)
	}

	logpkg.FromContext(ctx).Debug("eval case finished",
		zap.Bool("passed", res.Passed()),
		zap.Strings("failures", res.Failures),
		zap.Duration("duration", res.Duration),
		zap.Error(res.Err),
	)
	return res
}

func check(c Case, o retrievaluc.Outcome) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	if c.ExpectStrategy != "" && string(o.Strategy()) != c.ExpectStrategy {
		fail("strategy: got %s, want %s", o.Strategy(), c.ExpectStrategy)
	}

	if c.ExpectFunction != "" || c.ExpectArguments != "" {
		if o.Kind() != retrievaluc.KindFunctionCall {
			fail("expected a function call, got %s", o.Kind())
			return failures
		}
		call := o.Call()
		if c.ExpectFunction != "" && call.Name() != c.ExpectFunction {
			fail("function: got %s, want %s", call.Name(), c.ExpectFunction)
		}
		if c.ExpectArguments != "" {
			args, err := call.ArgumentsJSON()
			if err != nil || args != c.ExpectArguments {
				fail("arguments: got %s, want %s", args, c.ExpectArguments)
			}
		}
		return failures
	}

	if c.ExpectSource == "" && c.ExpectContent == "" && c.ExpectMatches == 0 {
		return failures
	}
	matches := o.Matches()
	if o.Kind() != retrievaluc.KindDocuments || len(matches) == 0 {
		fail("expected documents, got %s", o.Kind())
		return failures
	}
	if c.ExpectSource != "" && matches[0].Source() != c.ExpectSource {
		fail("top source: got %q, want %q", matches[0].Source(), c.ExpectSource)
	}
	if c.ExpectContent != "" && matches[0].Content() != c.ExpectContent {
		fail("top content: got %q, want %q", matches[0].Content(), c.ExpectContent)
	}
	if c.ExpectMatches > 0 && len(matches) != c.ExpectMatches {
		fail("matches: got %d, want %d", len(matches), c.ExpectMatches)
	}
	return failures
}

// caseFile is the top-level structure of an eval YAML file.
type caseFile struct {
	Cases []Case `yaml:"cases"`
}

// LoadCases reads cases from a YAML file with a top-level "cases" list.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read cases %s: %w", path, err)
	}
	return ParseCases(data)
}

// ParseCases decodes cases from YAML bytes.
func ParseCases(data []byte) ([]Case, error) {
	var f caseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse cases: %w", err)
	}
	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("no cases defined")
	}
	for i := range f.Cases {
		if f.Cases[i].Query == "" {
			return nil, fmt.Errorf("case [%d] %q: query is required", i, f.Cases[i].Name)
		}
		if f.Cases[i].Name == "" {
			f.Cases[i].Name = fmt.Sprintf("case-%d", i+1)
		}
	}
	return f.Cases, nil
}
