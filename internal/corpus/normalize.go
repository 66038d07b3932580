package corpus

import (
	"slices"
	"strings"
)

type NormalizeReport struct {
	Normalized int
	Codes      []string
	Suspicious []Suspicious
}

// Normalize rewrites every recognized header into the clean
// "Openness: X | ... | Neuroticism: X" form and makes sure the next line is
// "Archetype: <name>". Names come from names when present, then from the
// document itself, then UNKNOWN_<code>. An existing archetype line right
// after the header is replaced; otherwise one is inserted.
func Normalize(raw []string, names map[string]string) ([]string, NormalizeReport) {
	var report NormalizeReport
	out := make([]string, 0, len(raw)+len(raw)/8)
	codes := make(map[string]struct{})

	for i := 0; i < len(raw); i++ {
		trimmed := strings.TrimSpace(raw[i])
		header, kind := RecognizeHeader(trimmed)
		switch kind {
		case SuspiciousLine:
			report.Suspicious = append(report.Suspicious, Suspicious{Line: i, Text: trimmed})
			out = append(out, raw[i])
			continue
		case PlainLine:
			out = append(out, raw[i])
			continue
		}

		code := header.Code.String()
		codes[code] = struct{}{}
		report.Normalized++

		existing, hasNext := "", false
		if i+1 < len(raw) {
			existing, hasNext = MatchArchetypeLine(raw[i+1])
		}

		name := names[code]
		if name == "" {
			name = header.InlineName
		}
		if name == "" {
			name = existing
		}
		if name == "" {
			name = "UNKNOWN_" + code
		}

		out = append(out, CanonicalHeader(header.Code), "Archetype: "+name)
		if hasNext {
			i++
		}
	}

	for c := range codes {
		report.Codes = append(report.Codes, c)
	}
	slices.Sort(report.Codes)
	return out, report
}
