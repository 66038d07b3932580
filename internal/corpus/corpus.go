// Package corpus compiles the archetype text corpus into an immutable,
// queryable index and audits it against the canonical trait domain.
package corpus

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/morrowland-code/morrowland77777/internal/logger"
	"github.com/morrowland-code/morrowland77777/internal/override"
	"github.com/morrowland-code/morrowland77777/internal/trait"
)

const (
	DefaultPlaceholderName = "Unknown Archetype"
	DefaultPlaceholderText = "Detailed report not found."
)

type Placeholders struct {
	Name string
	Text string
}

func DefaultPlaceholders() Placeholders {
	return Placeholders{Name: DefaultPlaceholderName, Text: DefaultPlaceholderText}
}

type Resolution string

const (
	// ResolvedFull means both a name and detailed text were found.
	ResolvedFull    Resolution = "full"
	ResolvedPartial Resolution = "partial"
	ResolvedMiss    Resolution = "miss"
)

type Entry struct {
	Code         string
	Name         string
	DetailedText string
	Resolution   Resolution
}

type Stats struct {
	Lines            int      `json:"lines"`
	Headers          int      `json:"headers"`
	Records          int      `json:"records"`
	SynthesizedNames int      `json:"synthesized_names"`
	TextEntries      int      `json:"text_entries"`
	Suspicious       int      `json:"suspicious"`
	DuplicateCodes   int      `json:"duplicate_codes"`
	DuplicateNames   int      `json:"duplicate_names"`
	OverrideSources  []string `json:"override_sources,omitempty"`
	OverrideEntries  int      `json:"override_entries"`
	UsedFallback     bool     `json:"used_fallback"`
}

// Corpus is the compiled index. Nothing mutates it after construction, so
// any number of goroutines may call its methods concurrently.
type Corpus struct {
	buildID    string
	compiledAt time.Time

	codeToText *Table
	nameToText *Table
	codeToName *Table

	rejected     []string
	suspicious   []Suspicious
	stats        Stats
	placeholders Placeholders
}

// Lookup never fails: missing names and texts degrade to placeholders.
func (c *Corpus) Lookup(code string) Entry {
	placeholders := DefaultPlaceholders()
	var codeToName, codeToText, nameToText *Table
	if c != nil {
		placeholders = c.placeholders
		codeToName, codeToText, nameToText = c.codeToName, c.codeToText, c.nameToText
	}

	key := code
	if parsed, err := trait.ParseLenient(code); err == nil {
		key = parsed.String()
	}

	entry := Entry{Code: key}
	name, hasName := codeToName.Get(key)
	text, hasText := codeToText.Get(key)
	if !hasText && hasName {
		text, hasText = nameToText.Get(name)
	}

	switch {
	case hasName && hasText:
		entry.Resolution = ResolvedFull
	case hasName || hasText:
		entry.Resolution = ResolvedPartial
	default:
		entry.Resolution = ResolvedMiss
	}

	if !hasName {
		name = placeholders.Name
	}
	if !hasText {
		text = placeholders.Text
	}
	entry.Name = name
	entry.DetailedText = text
	return entry
}

// AuditReport compares every stored code, plus codes rejected for failing
// the canonical grammar, against the 243-code domain.
func (c *Corpus) AuditReport() AuditReport {
	if c == nil {
		return Audit(nil)
	}
	discovered := append(c.codeToName.Keys(), c.rejected...)
	return Audit(discovered)
}

func (c *Corpus) BuildID() string       { return c.buildID }
func (c *Corpus) CompiledAt() time.Time { return c.compiledAt }
func (c *Corpus) Stats() Stats          { return c.stats }
func (c *Corpus) Len() int              { return c.codeToName.Len() }

func (c *Corpus) Suspicious() []Suspicious {
	out := make([]Suspicious, len(c.suspicious))
	copy(out, c.suspicious)
	return out
}

func (c *Corpus) Rejected() []string {
	out := make([]string, len(c.rejected))
	copy(out, c.rejected)
	return out
}

// Names returns the code-to-name pairs in insertion order.
func (c *Corpus) Names() []override.Entry {
	out := make([]override.Entry, 0, c.codeToName.Len())
	c.codeToName.Each(func(code, name string) {
		out = append(out, override.Entry{Code: code, Name: name})
	})
	return out
}

type Options struct {
	Lookahead    int
	Policy       override.Policy
	Placeholders Placeholders
	Logger       *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Lookahead:    DefaultLookahead,
		Policy:       override.PolicyFirstUsable,
		Placeholders: DefaultPlaceholders(),
	}
}

type Compiler struct {
	opts Options
	log  *slog.Logger
}

func NewCompiler(opts Options) *Compiler {
	if opts.Lookahead < 1 {
		opts.Lookahead = DefaultLookahead
	}
	if opts.Policy == "" {
		opts.Policy = override.PolicyFirstUsable
	}
	if opts.Placeholders.Name == "" {
		opts.Placeholders.Name = DefaultPlaceholderName
	}
	if opts.Placeholders.Text == "" {
		opts.Placeholders.Text = DefaultPlaceholderText
	}
	log := opts.Logger
	if log == nil {
		log = logger.ForComponent("corpus")
	}
	return &Compiler{opts: opts, log: log}
}

// Compile runs segmentation, indexing and the override merge once. A nil
// or empty line slice yields a corpus built from overrides alone.
func (c *Compiler) Compile(raw []string, sources []override.Source) *Corpus {
	seg := NewSegmenter(c.opts.Lookahead).Segment(SplitLines(raw))
	idx := BuildIndex(seg.Records)

	merged := override.Merge(idx.CodeToName, sources, c.opts.Policy)
	for _, s := range merged.Skipped {
		c.log.Debug("override source skipped", "source", s.Source, "error", s.Err)
	}
	for _, s := range seg.Suspicious {
		c.log.Debug("suspicious header", "line", s.Line, "text", s.Text)
	}

	synthesized := 0
	for _, r := range seg.Records {
		if r.NameSynthesized {
			synthesized++
		}
	}

	corpus := &Corpus{
		buildID:      uuid.NewString(),
		compiledAt:   time.Now().UTC(),
		codeToText:   idx.CodeToText,
		nameToText:   idx.NameToText,
		codeToName:   idx.CodeToName,
		rejected:     merged.Rejected,
		suspicious:   seg.Suspicious,
		placeholders: c.opts.Placeholders,
		stats: Stats{
			Lines:            seg.Lines,
			Headers:          seg.Headers,
			Records:          len(seg.Records),
			SynthesizedNames: synthesized,
			TextEntries:      idx.CodeToText.Len(),
			Suspicious:       len(seg.Suspicious),
			DuplicateCodes:   idx.DuplicateCodes,
			DuplicateNames:   idx.DuplicateNames,
			OverrideSources:  merged.Applied,
			OverrideEntries:  merged.Added + merged.Overwritten,
			UsedFallback:     merged.UsedFallback,
		},
	}

	c.log.Info("corpus compiled",
		"build", corpus.buildID,
		"records", corpus.stats.Records,
		"codes", corpus.Len(),
		"suspicious", corpus.stats.Suspicious,
		"overrides", merged.Applied,
		"fallback", merged.UsedFallback)

	return corpus
}
