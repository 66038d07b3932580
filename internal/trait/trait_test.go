package trait

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeLevel(t *testing.T) {
	tests := []struct {
		word    string
		want    Level
		wantErr bool
	}{
		{"low", Low, false},
		{"LOW", Low, false},
		{" Medium ", Medium, false},
		{"hIgH", High, false},
		{"lower", "", true},
		{"", "", true},
		{"mid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got, err := CanonicalizeLevel(tt.word)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidLevel))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnumerateDomain(t *testing.T) {
	codes := EnumerateDomain()
	require.Len(t, codes, DomainSize)

	assert.Equal(t, "Low-Low-Low-Low-Low", codes[0].String())
	assert.Equal(t, "Low-Low-Low-Low-Medium", codes[1].String())
	assert.Equal(t, "High-High-High-High-High", codes[len(codes)-1].String())

	seen := make(map[Code]bool, len(codes))
	for _, c := range codes {
		assert.False(t, seen[c], "duplicate code %s", c)
		seen[c] = true
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, code := range EnumerateDomain() {
		s := FormatCode(code)
		parsed, err := ParseCode(s)
		require.NoError(t, err, s)
		assert.Equal(t, code, parsed)
		assert.True(t, IsCanonical(s))
	}
}

func TestParseCodeRejectsNonCanonical(t *testing.T) {
	bad := []string{
		"Foo-Bar-Baz-Qux-Quux",
		"low-Low-Low-Low-Low",
		"Low-Low-Low-Low",
		"Low-Low-Low-Low-Low-Low",
		"Low--Low-Low-Low-Low",
		"Low Low Low Low Low",
		"",
	}
	for _, s := range bad {
		_, err := ParseCode(s)
		assert.ErrorIs(t, err, ErrInvalidCode, s)
		assert.False(t, IsCanonical(s), s)
	}
}

func TestParseLenient(t *testing.T) {
	code, err := ParseLenient(" high-LOW-medium-High -low")
	require.NoError(t, err)
	assert.Equal(t, "High-Low-Medium-High-Low", code.String())

	_, err = ParseLenient("Foo-Bar-Baz-Qux-Quux")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestDomainStringsContainsDefault(t *testing.T) {
	assert.Contains(t, DomainStrings(), DefaultCode)
}
