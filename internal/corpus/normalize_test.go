package corpus

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	in := []string{
		"Intro.",
		"openness - high, conscientiousness low; extraversion: medium agreeableness HIGH neuroticism: low",
		"archetype - testname",
		"Body.",
		"Openness: Medium Conscientiousness: Medium Extraversion: Medium Agreeableness: Medium Neuroticism: Medium",
		"Body without a name line.",
		"Openness: Low, nothing else",
		"Openness: Low | Conscientiousness: Low | Extraversion: Low | Agreeableness: Low | Neuroticism: High — Archetype: Stormglass",
		"Openness: Low | Conscientiousness: Low | Extraversion: Low | Agreeableness: Low | Neuroticism: Low",
	}
	names := map[string]string{"Low-Low-Low-Low-Low": "Aquashine"}

	got, report := Normalize(in, names)

	want := []string{
		"Intro.",
		"Openness: High | Conscientiousness: Low | Extraversion: Medium | Agreeableness: High | Neuroticism: Low",
		"Archetype: testname",
		"Body.",
		"Openness: Medium | Conscientiousness: Medium | Extraversion: Medium | Agreeableness: Medium | Neuroticism: Medium",
		"Archetype: UNKNOWN_Medium-Medium-Medium-Medium-Medium",
		"Body without a name line.",
		"Openness: Low, nothing else",
		"Openness: Low | Conscientiousness: Low | Extraversion: Low | Agreeableness: Low | Neuroticism: High",
		"Archetype: Stormglass",
		"Openness: Low | Conscientiousness: Low | Extraversion: Low | Agreeableness: Low | Neuroticism: Low",
		"Archetype: Aquashine",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 4, report.Normalized)
	assert.Equal(t, []string{
		"High-Low-Medium-High-Low",
		"Low-Low-Low-Low-High",
		"Low-Low-Low-Low-Low",
		"Medium-Medium-Medium-Medium-Medium",
	}, report.Codes)
	assert.Equal(t, []Suspicious{{Line: 6, Text: "Openness: Low, nothing else"}}, report.Suspicious)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	in := []string{headerHLMHL, "Archetype: Testname", "Body."}
	once, _ := Normalize(in, nil)
	twice, _ := Normalize(once, nil)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed output (-first +second):\n%s", diff)
	}
}
