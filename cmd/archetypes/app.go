package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/morrowland-code/morrowland77777/internal/config"
	"github.com/morrowland-code/morrowland77777/internal/corpus"
	"github.com/morrowland-code/morrowland77777/internal/document"
	"github.com/morrowland-code/morrowland77777/internal/logger"
	"github.com/morrowland-code/morrowland77777/internal/metrics"
	"github.com/morrowland-code/morrowland77777/internal/override"
)

const stdinDocument = "-"

// app carries the resolved configuration and shared collaborators of one
// CLI invocation.
type app struct {
	configPath  string
	logLevel    string
	document    string
	overrides   []string
	policy      string
	metricsFile string

	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
	in      io.Reader
	out     io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Compile and query the archetype corpus",
		Long: `archetypes turns the extracted archetype corpus text into a validated
index keyed by five-dimension trait codes (Openness, Conscientiousness,
Extraversion, Agreeableness, Neuroticism; Low/Medium/High each).

Override files (flat code->name JSON/YAML, or name-keyed entries carrying a
trait descriptor) are layered over the parsed names.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVarP(&a.document, "document", "d", "", "Corpus text document (- reads stdin)")
	flags.StringSliceVarP(&a.overrides, "override", "o", nil, "Override source paths or globs, highest priority first")
	flags.StringVar(&a.policy, "policy", "", "Override policy (first_usable, layered)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")

	cmd.AddCommand(
		newCompileCmd(a),
		newLookupCmd(a),
		newAuditCmd(a),
		newNormalizeCmd(a),
		newExportCmd(a),
		newBuildsCmd(a),
		newServeCmd(a),
		newQueryCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(a.out, "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// setup resolves config layers, then applies CLI flags on top.
func (a *app) setup(cmd *cobra.Command) error {
	if a.out == nil {
		a.out = cmd.OutOrStdout()
	}
	if a.in == nil {
		a.in = cmd.InOrStdin()
	}

	bootstrap := logger.New(logger.DefaultConfig())
	cfg, err := config.NewLoader(bootstrap).Load(a.configPath)
	if err != nil {
		return err
	}

	flagLayer := &config.Config{
		Corpus:    config.CorpusConfig{Document: a.document},
		Overrides: config.OverridesConfig{Paths: a.overrides, Policy: a.policy},
		Log:       config.LogConfig{Level: a.logLevel},
		Metrics:   config.MetricsConfig{Textfile: a.metricsFile},
	}
	cfg.Merge(flagLayer)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	logCfg := logger.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Log.Format
	logger.Init(logCfg)

	a.cfg = cfg
	a.log = logger.ForComponent("cli")
	a.metrics = metrics.New()
	return nil
}

// compile builds a corpus from the configured document and overrides. A
// missing or unreadable document is logged and compilation continues with
// overrides alone.
func (a *app) compile() (*corpus.Corpus, error) {
	var lines []string
	doc, err := a.readDocument()
	if err != nil {
		a.log.Error("corpus document unavailable, continuing with overrides only",
			"document", a.cfg.Corpus.Document, "error", err)
	} else {
		lines = doc.Lines
		a.log.Debug("document read", "path", doc.Path, "encoding", doc.Encoding.Encoding, "lines", len(lines))
	}

	paths, err := override.Discover(a.cfg.Overrides.Paths, a.cfg.Overrides.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discover overrides: %w", err)
	}

	opts := a.cfg.CompilerOptions()
	opts.Logger = logger.ForComponent("corpus")

	start := time.Now()
	c := corpus.NewCompiler(opts).Compile(lines, override.FileSources(paths))
	a.metrics.ObserveCompile(c.Stats(), c.AuditReport(), time.Since(start).Seconds())
	return c, nil
}

// readDocument reads corpus.document, or stdin when it is "-".
func (a *app) readDocument() (*document.Document, error) {
	if a.cfg.Corpus.Document != stdinDocument {
		return document.Read(a.cfg.Corpus.Document)
	}
	doc, err := document.ReadFrom(a.in)
	if err != nil {
		return nil, fmt.Errorf("stdin: %w", err)
	}
	doc.Path = stdinDocument
	return doc, nil
}

// flushMetrics writes the textfile when one is configured. Failing to write
// metrics never fails the command.
func (a *app) flushMetrics() {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.log.Warn("metrics textfile not written", "path", a.cfg.Metrics.Textfile, "error", err)
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	a.printf("%s:\n  %s\n", title, strings.Join(items, "\n  "))
}
