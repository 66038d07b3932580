package corpus

import (
	"regexp"
	"strings"

	"github.com/morrowland-code/morrowland77777/internal/trait"
)

const (
	separatorClass = `[:\-–—]`
	levelGroup     = `(low|medium|high)\b`
)

var (
	headerPattern = compileHeaderPattern()

	// A single "Dimension: Level" mention, used to flag partial headers.
	markerPattern = regexp.MustCompile(`(?i)\b(openness|conscientiousness|extraversion|agreeableness|neuroticism)\s*` +
		separatorClass + `?\s*` + levelGroup)

	opennessPattern = regexp.MustCompile(`(?i)openness`)

	dimensionPattern = regexp.MustCompile(`(?i)\b(openness|conscientiousness|extraversion|agreeableness|neuroticism)\b`)

	archetypeLinePattern   = regexp.MustCompile(`(?i)^archetype\b\s*` + separatorClass + `?\s*(.+?)\s*$`)
	archetypeInlinePattern = regexp.MustCompile(`(?i)\barchetype\s*` + separatorClass + `\s*(.+?)\s*$`)
)

func compileHeaderPattern() *regexp.Regexp {
	parts := make([]string, len(trait.Dimensions))
	for i, d := range trait.Dimensions {
		parts[i] = strings.ToLower(string(d)) + `\s*` + separatorClass + `?\s*` + levelGroup
	}
	return regexp.MustCompile(`(?i)` + strings.Join(parts, `.*?`))
}

type LineKind int

const (
	PlainLine LineKind = iota
	HeaderLine
	SuspiciousLine
)

type Header struct {
	Code trait.Code
	// InlineName is set when the header line carries its own
	// "Archetype: <name>" suffix.
	InlineName string
}

// RecognizeHeader classifies one trimmed line. A header needs all five
// dimension mentions in O, C, E, A, N order. A line that falls short is
// suspicious when it names openness, carries one "Dimension: Level"
// mention or names two distinct dimensions.
func RecognizeHeader(line string) (Header, LineKind) {
	loc := headerPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		if opennessPattern.MatchString(line) || markerPattern.MatchString(line) || namesDimensions(line, 2) {
			return Header{}, SuspiciousLine
		}
		return Header{}, PlainLine
	}

	var h Header
	for i := range h.Code {
		word := line[loc[2+2*i]:loc[3+2*i]]
		level, err := trait.CanonicalizeLevel(word)
		if err != nil {
			return Header{}, SuspiciousLine
		}
		h.Code[i] = level
	}

	if m := archetypeInlinePattern.FindStringSubmatch(line[loc[1]:]); m != nil {
		h.InlineName = cleanLabel(m[1])
	}
	return h, HeaderLine
}

// namesDimensions reports whether line names at least n distinct
// dimensions, with or without levels.
func namesDimensions(line string, n int) bool {
	seen := make(map[string]struct{}, len(trait.Dimensions))
	for _, m := range dimensionPattern.FindAllString(line, -1) {
		seen[strings.ToLower(m)] = struct{}{}
		if len(seen) >= n {
			return true
		}
	}
	return false
}

// MatchArchetypeLine reports the label of an "Archetype: <label>" line.
func MatchArchetypeLine(line string) (string, bool) {
	m := archetypeLinePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	label := cleanLabel(m[1])
	return label, label != ""
}

func cleanLabel(s string) string {
	return strings.TrimSpace(strings.TrimLeft(s, ":-–— \t"))
}

// CanonicalHeader renders a code in the clean header form.
func CanonicalHeader(code trait.Code) string {
	parts := make([]string, len(code))
	for i, l := range code {
		parts[i] = string(trait.Dimensions[i]) + ": " + string(l)
	}
	return strings.Join(parts, " | ")
}
