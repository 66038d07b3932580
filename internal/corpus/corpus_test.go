package corpus

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morrowland-code/morrowland77777/internal/logger"
	"github.com/morrowland-code/morrowland77777/internal/override"
	"github.com/morrowland-code/morrowland77777/internal/trait"
)

func newTestCompiler(mutate ...func(*Options)) *Compiler {
	opts := DefaultOptions()
	opts.Logger = logger.Discard()
	for _, m := range mutate {
		m(&opts)
	}
	return NewCompiler(opts)
}

// fullCorpus renders one named, described block per canonical code,
// skipping the codes in omit.
func fullCorpus(omit ...string) []string {
	skip := make(map[string]bool)
	for _, c := range omit {
		skip[c] = true
	}
	var lines []string
	for i, code := range trait.EnumerateDomain() {
		if skip[code.String()] {
			continue
		}
		lines = append(lines,
			CanonicalHeader(code),
			fmt.Sprintf("Archetype: Name%03d", i),
			fmt.Sprintf("Description of archetype %d.", i),
			"",
		)
	}
	return lines
}

func TestCompileTestname(t *testing.T) {
	c := newTestCompiler().Compile([]string{headerHLMHL, "Archetype: Testname", "Body."}, nil)

	entry := c.Lookup("High-Low-Medium-High-Low")
	assert.Equal(t, Entry{
		Code:         "High-Low-Medium-High-Low",
		Name:         "Testname",
		DetailedText: "Body.",
		Resolution:   ResolvedFull,
	}, entry)

	lenient := c.Lookup("  high - low - medium - high - low ")
	assert.Equal(t, "Testname", lenient.Name)
	assert.NotEmpty(t, c.BuildID())
	assert.False(t, c.Stats().UsedFallback)
}

func TestCompileHeaderFollowedByHeader(t *testing.T) {
	c := newTestCompiler().Compile([]string{headerHLMHL, headerMMMMM, "Archetype: Balance", "Text."}, nil)

	entry := c.Lookup("High-Low-Medium-High-Low")
	assert.Equal(t, "Unknown_0", entry.Name)
	assert.Equal(t, DefaultPlaceholderText, entry.DetailedText)
	assert.Equal(t, ResolvedPartial, entry.Resolution)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.Stats().SynthesizedNames)
}

func TestCompileDuplicateWithoutBody(t *testing.T) {
	c := newTestCompiler().Compile([]string{
		headerHLMHL, "Archetype: First", "First body.",
		headerHLMHL, "Archetype: Second",
	}, nil)

	entry := c.Lookup("High-Low-Medium-High-Low")
	assert.Equal(t, "Second", entry.Name)
	assert.Equal(t, DefaultPlaceholderText, entry.DetailedText)
	assert.Equal(t, ResolvedPartial, entry.Resolution)
	assert.Equal(t, 1, c.Stats().DuplicateCodes)
}

func TestCompileFallbackEntry(t *testing.T) {
	c := newTestCompiler().Compile(nil, nil)

	assert.True(t, c.Stats().UsedFallback)
	assert.Equal(t, 1, c.Len())

	entry := c.Lookup(override.FallbackCode)
	assert.Equal(t, override.FallbackName, entry.Name)
	assert.Equal(t, DefaultPlaceholderText, entry.DetailedText)

	other := c.Lookup("High-High-High-High-High")
	assert.Equal(t, DefaultPlaceholderName, other.Name)
	assert.Equal(t, DefaultPlaceholderText, other.DetailedText)
	assert.Equal(t, ResolvedMiss, other.Resolution)
}

func TestCompileFallbackAfterRejectedOverrides(t *testing.T) {
	src := &override.MapSource{Label: "bad", Entries: map[string]string{"Foo-Bar-Baz-Qux-Quux": "X"}}
	c := newTestCompiler().Compile(nil, []override.Source{src})

	assert.True(t, c.Stats().UsedFallback)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, override.FallbackName, c.Lookup(override.FallbackCode).Name)
	assert.Equal(t, []string{"Foo-Bar-Baz-Qux-Quux"}, c.AuditReport().Extra)
}

func TestLookupNeverFails(t *testing.T) {
	c := newTestCompiler().Compile([]string{headerHLMHL, "Archetype: Testname"}, nil)
	inputs := []string{
		"",
		" ",
		"Foo-Bar-Baz-Qux-Quux",
		"Low-Low-Low-Low",
		"Low-Low-Low-Low-Low-Low",
		"\x00\xff",
		strings.Repeat("High-", 10000),
		"Testname",
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			entry := c.Lookup(in)
			assert.NotEmpty(t, entry.Name)
			assert.NotEmpty(t, entry.DetailedText)
		})
	}

	var nilCorpus *Corpus
	assert.NotPanics(t, func() {
		entry := nilCorpus.Lookup("High-Low-Medium-High-Low")
		assert.Equal(t, DefaultPlaceholderName, entry.Name)
		assert.True(t, nilCorpus.AuditReport().MissingCount() == trait.DomainSize)
	})
}

func TestLookupFallsBackToNameText(t *testing.T) {
	c := newTestCompiler().Compile([]string{
		headerHLMHL, "Archetype: Shared",
		headerMMMMM, "Archetype: Shared", "Shared body.",
	}, nil)

	entry := c.Lookup("High-Low-Medium-High-Low")
	assert.Equal(t, "Shared", entry.Name)
	assert.Equal(t, "Shared body.", entry.DetailedText)
	assert.Equal(t, ResolvedFull, entry.Resolution)
}

func TestCustomPlaceholders(t *testing.T) {
	c := newTestCompiler(func(o *Options) {
		o.Placeholders = Placeholders{Name: "?", Text: "n/a"}
	}).Compile([]string{headerHLMHL, "Archetype: Testname"}, nil)

	assert.Equal(t, "n/a", c.Lookup("High-Low-Medium-High-Low").DetailedText)
	assert.Equal(t, "?", c.Lookup("Low-Low-Low-Low-Low").Name)
}

func TestAuditReport(t *testing.T) {
	const dropped = "Medium-High-Low-Medium-High"

	t.Run("complete", func(t *testing.T) {
		c := newTestCompiler().Compile(fullCorpus(), nil)
		report := c.AuditReport()
		assert.True(t, report.Complete())
		assert.Empty(t, report.Missing)
		assert.Empty(t, report.Extra)
		assert.Equal(t, trait.DomainSize, c.Stats().TextEntries)
	})

	t.Run("one missing", func(t *testing.T) {
		c := newTestCompiler().Compile(fullCorpus(dropped), nil)
		report := c.AuditReport()
		assert.Equal(t, []string{dropped}, report.Missing)
		assert.Empty(t, report.Extra)
	})

	t.Run("malformed code is extra", func(t *testing.T) {
		src := &override.MapSource{Label: "bad", Entries: map[string]string{"Foo-Bar-Baz-Qux-Quux": "Nobody"}}
		c := newTestCompiler().Compile(fullCorpus(), []override.Source{src})

		report := c.AuditReport()
		assert.Empty(t, report.Missing)
		assert.Equal(t, []string{"Foo-Bar-Baz-Qux-Quux"}, report.Extra)
		assert.Equal(t, trait.DomainSize, c.Len(), "rejected codes are never stored")
		assert.Equal(t, DefaultPlaceholderName, c.Lookup("Foo-Bar-Baz-Qux-Quux").Name)
	})
}

func TestOverridesLayerOverParsedNames(t *testing.T) {
	lines := []string{
		headerHLMHL, "Archetype: Testname", "Body one.",
		headerMMMMM, "Archetype: Balance", "Body two.",
	}
	primary := &override.MapSource{Label: "primary", Entries: map[string]string{
		"High-Low-Medium-High-Low": "Renamed",
		"Low-Low-Low-Low-High":     "Stormglass",
	}}
	secondary := &override.MapSource{Label: "secondary", Entries: map[string]string{
		"Medium-Medium-Medium-Medium-Medium": "Ignored Unless Layered",
		"Low-Low-Low-Low-High":               "Loses To Primary",
	}}
	sources := []override.Source{
		&override.MapSource{Label: "empty"},
		primary,
		secondary,
	}

	c := newTestCompiler().Compile(lines, sources)
	assert.Equal(t, "Renamed", c.Lookup("High-Low-Medium-High-Low").Name)
	assert.Equal(t, "Body one.", c.Lookup("High-Low-Medium-High-Low").DetailedText)
	assert.Equal(t, "Balance", c.Lookup("Medium-Medium-Medium-Medium-Medium").Name)
	assert.Equal(t, "Stormglass", c.Lookup("Low-Low-Low-Low-High").Name)
	assert.Equal(t, []string{"primary"}, c.Stats().OverrideSources)

	layered := newTestCompiler(func(o *Options) { o.Policy = override.PolicyLayered }).Compile(lines, sources)
	assert.Equal(t, "Ignored Unless Layered", layered.Lookup("Medium-Medium-Medium-Medium-Medium").Name)
	assert.Equal(t, "Stormglass", layered.Lookup("Low-Low-Low-Low-High").Name)
	assert.Equal(t, []string{"primary", "secondary"}, layered.Stats().OverrideSources)
}

func TestSnapshotRestore(t *testing.T) {
	src := &override.MapSource{Label: "inline", Entries: map[string]string{"Foo-Bar-Baz-Qux-Quux": "Nobody"}}
	original := newTestCompiler().Compile([]string{
		"Openness: Low, Conscientiousness: Low",
		headerHLMHL, "Archetype: Testname", "Body.",
		headerMMMMM,
	}, []override.Source{src})

	restored := Restore(original.Snapshot())

	assert.Equal(t, original.BuildID(), restored.BuildID())
	assert.Equal(t, original.Stats(), restored.Stats())
	assert.Equal(t, original.Suspicious(), restored.Suspicious())
	assert.Equal(t, original.Rejected(), restored.Rejected())
	if diff := cmp.Diff(original.Names(), restored.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	for _, code := range []string{"High-Low-Medium-High-Low", "Medium-Medium-Medium-Medium-Medium", "Low-Low-Low-Low-Low"} {
		assert.Equal(t, original.Lookup(code), restored.Lookup(code))
	}
	if diff := cmp.Diff(original.AuditReport(), restored.AuditReport()); diff != "" {
		t.Errorf("audit mismatch (-want +got):\n%s", diff)
	}
}

func TestRestoreFillsPlaceholders(t *testing.T) {
	c := Restore(Snapshot{CodeToName: []Pair{{Key: "Low-Low-Low-Low-Low", Value: "Aquashine"}}})
	entry := c.Lookup("Low-Low-Low-Low-Low")
	assert.Equal(t, "Aquashine", entry.Name)
	assert.Equal(t, DefaultPlaceholderText, entry.DetailedText)
	require.Equal(t, 1, c.Len())
}
