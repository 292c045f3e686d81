// Command hybridragctl queries the retrieval engine offline, without the HTTP server.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridrag/internal/app"
	"github.com/kailas-cloud/hybridrag/internal/config"
	"github.com/kailas-cloud/hybridrag/internal/domain/corpus"
	"github.com/kailas-cloud/hybridrag/internal/domain/result"
	"github.com/kailas-cloud/hybridrag/internal/eval"
	logpkg "github.com/kailas-cloud/hybridrag/internal/logger"
	retrievaluc "github.com/kailas-cloud/hybridrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/hybridrag/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "hybridragctl",
		Usage:   "Query the hybrid retrieval engine from the command line",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Configuration environment (local, prod)",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config file (overrides --env lookup)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Answer a question from the knowledge base (rules first, then embeddings)",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of documents to return (default: retrieval.knowledge_base_k)",
					},
				},
			},
			{
				Name:      "similar",
				Usage:     "Rank ad-hoc documents by embedding similarity (no rules)",
				ArgsUsage: "<query>",
				Action:    similarCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "doc",
						Aliases: []string{"d"},
						Usage:   "Document text (repeatable)",
					},
					&cli.StringFlag{
						Name:  "docs-file",
						Usage: "File with one document per line",
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of documents to return (default: retrieval.ad_hoc_k)",
					},
				},
			},
			{
				Name:      "execute",
				Usage:     "Resolve a request to a function call",
				ArgsUsage: "<query>",
				Action:    executeCommand,
			},
			{
				Name:   "eval",
				Usage:  "Replay labelled queries concurrently and report failures",
				Action: evalCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "cases",
						Usage: "YAML file with a top-level cases list (default: built-in cases)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Worker pool size (default: number of CPUs)",
					},
				},
			},
		},
	}
}

// env bundles what every command needs.
type env struct {
	cfg    config.Config
	app    *app.App
	logger *zap.Logger
}

func setup(c *cli.Context) (*env, error) {
	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(c.String("env"))
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewCLILogger(c.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a, err := app.New(c.Context, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}
	return &env{cfg: cfg, app: a, logger: logger}, nil
}

func (e *env) close() {
	e.app.Close()
	_ = e.logger.Sync()
}

func queryArg(c *cli.Context) (string, error) {
	q := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(q) == "" {
		return "", fmt.Errorf("query argument is required")
	}
	return q, nil
}

func searchCommand(c *cli.Context) error {
	q, err := queryArg(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	k := e.cfg.Retrieval.KnowledgeBaseK
	if c.IsSet("k") {
		k = c.Int("k")
	}

	svc := e.app.Retrieval
	outcome, err := svc.Retrieve(logpkg.ContextWithLogger(c.Context, e.logger), q, svc.Corpus(), k)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return printOutcome(c.App.Writer, outcome)
}

func similarCommand(c *cli.Context) error {
	q, err := queryArg(c)
	if err != nil {
		return err
	}

	docs := c.StringSlice("doc")
	if path := c.String("docs-file"); path != "" {
		lines, err := readLines(path)
		if err != nil {
			return err
		}
		docs = append(docs, lines...)
	}
	target, err := corpus.FromContents(docs)
	if err != nil {
		return fmt.Errorf("build corpus: %w", err)
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	k := e.cfg.Retrieval.AdHocK
	if c.IsSet("k") {
		k = c.Int("k")
	}

	matches, err := e.app.Retrieval.Rank(logpkg.ContextWithLogger(c.Context, e.logger), q, target, k)
	if err != nil {
		return fmt.Errorf("similar: %w", err)
	}
	return writeJSON(c.App.Writer, map[string]any{"matches": matchesJSON(matches)})
}

func executeCommand(c *cli.Context) error {
	q, err := queryArg(c)
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	call, err := e.app.Retrieval.Dispatch(c.Context, q)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	args, err := call.ArgumentsJSON()
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	return writeJSON(c.App.Writer, map[string]string{"name": call.Name(), "arguments": args})
}

func evalCommand(c *cli.Context) error {
	cases := eval.DefaultCases()
	if path := c.String("cases"); path != "" {
		var err error
		if cases, err = eval.LoadCases(path); err != nil {
			return err
		}
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	report, err := eval.NewRunner(e.app.Retrieval, c.Int("workers"), e.logger).Run(c.Context, cases)
	if err != nil {
		return fmt.Errorf("eval: %w", err)
	}

	w := c.App.Writer
	for _, res := range report.Results {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %-24s %8s  %s\n", status, res.Case.Name, res.Duration.Round(time.Microsecond), res.Outcome.Strategy())
		if res.Err != nil {
			fmt.Fprintf(w, "      error: %v\n", res.Err)
		}
		for _, f := range res.Failures {
			fmt.Fprintf(w, "      %s\n", f)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed in %s\n", report.Passed(), report.Failed(), report.Duration)

	if report.Failed() > 0 {
		return fmt.Errorf("%d case(s) failed", report.Failed())
	}
	return nil
}

func printOutcome(w io.Writer, o retrievaluc.Outcome) error {
	out := map[string]any{
		"strategy": o.Strategy(),
		"rule":     o.Rule(),
	}
	if o.Kind() == retrievaluc.KindFunctionCall {
		args, err := o.Call().ArgumentsJSON()
		if err != nil {
			return fmt.Errorf("encode arguments: %w", err)
		}
		out["function_call"] = map[string]string{"name": o.Call().Name(), "arguments": args}
	} else {
		out["matches"] = matchesJSON(o.Matches())
	}
	return writeJSON(w, out)
}

func matchesJSON(matches []result.Result) []map[string]any {
	out := make([]map[string]any, len(matches))
	for i, m := range matches {
		out[i] = map[string]any{"content": m.Content(), "source": m.Source(), "score": m.Score()}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path is an operator-supplied flag
	if err != nil {
		return nil, fmt.Errorf("open docs file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read docs file: %w", err)
	}
	return lines, nil
}

// Compile-time check: the CLI drives evaluation through the same service as the server.
var _ eval.Retriever = (*retrievaluc.Service)(nil)
