package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/morrowland-code/morrowland77777/internal/corpus"
	"github.com/morrowland-code/morrowland77777/internal/override"
	"github.com/morrowland-code/morrowland77777/internal/store"
	"github.com/morrowland-code/morrowland77777/internal/trait"
)

func newCompileCmd(a *app) *cobra.Command {
	var (
		exportPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the corpus and print a consistency summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.compile()
			if err != nil {
				return err
			}
			defer a.flushMetrics()

			report := c.AuditReport()
			stats := c.Stats()
			a.printf("Build:       %s\n", c.BuildID())
			a.printf("Discovered:  %d\n", c.Len())
			a.printf("Missing:     %d\n", report.MissingCount())
			a.printf("Extra:       %d\n", report.ExtraCount())
			a.printf("Suspicious:  %d\n", stats.Suspicious)
			a.printf("Duplicates:  %d codes, %d names\n", stats.DuplicateCodes, stats.DuplicateNames)
			if len(stats.OverrideSources) > 0 {
				a.printf("Overrides:   %s\n", strings.Join(stats.OverrideSources, ", "))
			}
			if stats.UsedFallback {
				a.printf("Fallback entry installed\n")
			}

			if verbose {
				a.printList("Missing codes", report.Missing)
				a.printList("Extra codes", report.Extra)
				for _, s := range c.Suspicious() {
					a.printf("suspicious line %d: %s\n", s.Line, s.Text)
				}
			}

			if exportPath != "" {
				return a.export(cmd.Context(), c, exportPath, a.cfg.Store.Keep)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Also write a sqlite snapshot to this path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List missing, extra and suspicious entries")
	return cmd
}

func newLookupCmd(a *app) *cobra.Command {
	var fromSnapshot bool

	cmd := &cobra.Command{
		Use:   "lookup [CODE]",
		Short: "Print the name and detailed text for a trait code",
		Long: `Print the name and detailed text for a trait code such as
High-Low-Medium-High-Low. Without a code, ` + trait.DefaultCode + ` is used.
Unknown codes print placeholders rather than failing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := trait.DefaultCode
			if len(args) == 1 {
				code = args[0]
			}

			c, err := a.loadCorpus(cmd.Context(), fromSnapshot)
			if err != nil {
				return err
			}
			defer a.flushMetrics()

			entry := c.Lookup(code)
			a.metrics.ObserveLookup(entry.Resolution)
			a.printf("%s\n%s\n\n%s\n", entry.Code, entry.Name, entry.DetailedText)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromSnapshot, "from-snapshot", false, "Read the latest sqlite snapshot instead of compiling")
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "List trait codes missing from or foreign to the corpus",
		Long: `Compile the corpus and compare its codes against the 243-code domain.
An incomplete corpus is reported, not treated as a failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.compile()
			if err != nil {
				return err
			}
			defer a.flushMetrics()

			report := c.AuditReport()
			a.printf("Missing: %d\n", report.MissingCount())
			a.printList("Missing codes", report.Missing)
			a.printf("Extra: %d\n", report.ExtraCount())
			a.printList("Extra codes", report.Extra)
			if report.Complete() {
				a.printf("All %d codes present\n", trait.DomainSize)
			}
			return nil
		},
	}
}

func newNormalizeCmd(a *app) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Rewrite trait headers into the clean canonical form",
		Long: `Rewrite every recognized header as
"Openness: X | Conscientiousness: X | Extraversion: X | Agreeableness: X | Neuroticism: X"
followed by an "Archetype: <name>" line. Names come from the override
sources, then the document itself, then UNKNOWN_<code>.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return errors.New("--out is required")
			}

			doc, err := a.readDocument()
			if err != nil {
				return err
			}

			names, err := a.overrideNames()
			if err != nil {
				return err
			}

			lines, report := corpus.Normalize(doc.Lines, names)
			if err := writeLines(outPath, lines); err != nil {
				return err
			}

			a.printf("Normalized %d headers (%d distinct codes) into %s\n", report.Normalized, len(report.Codes), outPath)
			if len(report.Suspicious) > 0 {
				a.printf("%d suspicious lines left untouched\n", len(report.Suspicious))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Output path for the normalized text")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		dbPath string
		keep   int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Compile the corpus and save it as a sqlite snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must not be negative, got %d", keep)
			}
			c, err := a.compile()
			if err != nil {
				return err
			}
			defer a.flushMetrics()

			if dbPath == "" {
				dbPath = a.cfg.Store.Path
			}
			if keep == 0 {
				keep = a.cfg.Store.Keep
			}
			return a.export(cmd.Context(), c, dbPath, keep)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Snapshot database path (defaults to store.path)")
	cmd.Flags().IntVar(&keep, "keep", 0, "Prune all but the newest N builds after saving (defaults to store.keep, 0 keeps all)")
	return cmd
}

func newBuildsCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "builds",
		Short: "List the builds saved in the snapshot database, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = a.cfg.Store.Path
			}
			s, err := store.New(dbPath)
			if err != nil {
				return fmt.Errorf("open snapshot store: %w", err)
			}
			defer s.Close()

			builds, err := s.Builds(cmd.Context())
			if err != nil {
				return err
			}
			if len(builds) == 0 {
				a.printf("No builds in %s\n", dbPath)
				return nil
			}
			for _, b := range builds {
				a.printf("%s  %s  %d entries  %s\n", b.ID, b.CompiledAt.UTC().Format(time.RFC3339), b.Entries, b.Document)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Snapshot database path (defaults to store.path)")
	return cmd
}

func (a *app) export(ctx context.Context, c *corpus.Corpus, dbPath string, keep int) error {
	s, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer s.Close()

	meta := store.BuildMeta{
		Document:       a.cfg.Corpus.Document,
		OverrideSource: strings.Join(c.Stats().OverrideSources, ","),
	}
	if err := s.Save(ctx, c, meta); err != nil {
		return err
	}
	a.printf("Saved build %s (%d entries) to %s\n", c.BuildID(), c.Len(), dbPath)

	if keep > 0 {
		removed, err := s.Prune(ctx, keep)
		if err != nil {
			return err
		}
		if removed > 0 {
			a.printf("Pruned %d older builds\n", removed)
		}
	}
	return nil
}

// loadCorpus compiles, or reads the newest snapshot from store.path.
func (a *app) loadCorpus(ctx context.Context, fromSnapshot bool) (*corpus.Corpus, error) {
	if !fromSnapshot {
		return a.compile()
	}

	s, err := store.New(a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	defer s.Close()

	c, err := s.LoadLatest(ctx)
	if err != nil {
		return nil, err
	}
	a.log.Info("snapshot loaded", "build", c.BuildID(), "compiled_at", c.CompiledAt(), "entries", c.Len())
	return c, nil
}

// overrideNames merges the override sources onto an empty table. The
// document's own names are resolved by Normalize per header, so the
// fallback entry is left out.
func (a *app) overrideNames() (map[string]string, error) {
	paths, err := override.Discover(a.cfg.Overrides.Paths, a.cfg.Overrides.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discover overrides: %w", err)
	}
	policy, _ := override.ParsePolicy(a.cfg.Overrides.Policy)

	table := corpus.NewTable()
	result := override.Merge(table, override.FileSources(paths), policy)
	names := make(map[string]string, table.Len())
	if result.UsedFallback {
		return names, nil
	}
	table.Each(func(code, name string) {
		names[code] = name
	})
	return names, nil
}

func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
