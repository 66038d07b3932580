package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecognizeHeader(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		kind   LineKind
		code   string
		inline string
	}{
		{
			name: "pipe separated",
			line: "Openness: High | Conscientiousness: Low | Extraversion: Medium | Agreeableness: High | Neuroticism: Low",
			kind: HeaderLine,
			code: "High-Low-Medium-High-Low",
		},
		{
			name: "mixed case and dashes",
			line: "OPENNESS - low, conscientiousness — MEDIUM; Extraversion–High Agreeableness:low Neuroticism medium",
			kind: HeaderLine,
			code: "Low-Medium-High-Low-Medium",
		},
		{
			name: "trailing commentary",
			line: "Openness: Low | Conscientiousness: Low | Extraversion: Low | Agreeableness: Low | Neuroticism: High (draft)",
			kind: HeaderLine,
			code: "Low-Low-Low-Low-High",
		},
		{
			name:   "inline archetype",
			line:   "Openness: Low | Conscientiousness: Low | Extraversion: Low | Agreeableness: Low | Neuroticism: Low — Archetype: Aquashine",
			kind:   HeaderLine,
			code:   "Low-Low-Low-Low-Low",
			inline: "Aquashine",
		},
		{
			name: "four dimensions",
			line: "Openness: Low | Conscientiousness: Low | Extraversion: Low | Agreeableness: Low",
			kind: SuspiciousLine,
		},
		{
			name: "out of order",
			line: "Neuroticism: Low | Openness: Low | Conscientiousness: Low | Extraversion: Low | Agreeableness: Low",
			kind: SuspiciousLine,
		},
		{
			name: "level word prefix is not a level",
			line: "Openness: Lowish | Conscientiousness: Low | Extraversion: Low | Agreeableness: Low | Neuroticism: Low",
			kind: SuspiciousLine,
		},
		{
			name: "prose mentioning openness",
			line: "Their openness shows in every conversation.",
			kind: SuspiciousLine,
		},
		{
			name: "bare dimension names",
			line: "Conscientiousness / Extraversion / Agreeableness",
			kind: SuspiciousLine,
		},
		{
			name: "one bare dimension name",
			line: "Her agreeableness is legendary.",
			kind: PlainLine,
		},
		{
			name: "same dimension twice",
			line: "Neuroticism, and more neuroticism.",
			kind: PlainLine,
		},
		{
			name: "plain prose",
			line: "A steady presence in any room.",
			kind: PlainLine,
		},
		{
			name: "empty",
			line: "",
			kind: PlainLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, kind := RecognizeHeader(tt.line)
			assert.Equal(t, tt.kind, kind)
			if tt.kind == HeaderLine {
				assert.Equal(t, tt.code, h.Code.String())
				assert.Equal(t, tt.inline, h.InlineName)
			}
		})
	}
}

func TestMatchArchetypeLine(t *testing.T) {
	tests := []struct {
		line  string
		label string
		ok    bool
	}{
		{"Archetype: Testname", "Testname", true},
		{"  archetype - The Quiet Ember  ", "The Quiet Ember", true},
		{"ARCHETYPE — Stormglass", "Stormglass", true},
		{"Archetype Testname", "Testname", true},
		{"Archetype:", "", false},
		{"Archetypes are described below.", "", false},
		{"The archetype: not at line start", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			label, ok := MatchArchetypeLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.label, label)
		})
	}
}
