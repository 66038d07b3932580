package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"unix", "a\nb\n", []string{"a", "b"}},
		{"windows", "a\r\nb\r\n", []string{"a", "b"}},
		{"old mac", "a\rb", []string{"a", "b"}},
		{"keeps blank lines", "a\n\n  b", []string{"a", "", "  b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SplitLines(tt.in)); diff != "" {
				t.Errorf("SplitLines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetectEncoding(t *testing.T) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte("Openness: High"))
	require.NoError(t, err)

	cp1252, err := charmap.Windows1252.NewEncoder().Bytes([]byte("The “Aquashine” — calm"))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want string
		bom  bool
	}{
		{"ascii", []byte("Openness: Low"), EncodingASCII, false},
		{"utf8", []byte("Neuroticism — Low"), EncodingUTF8, false},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "x"...), EncodingUTF8, true},
		{"utf16le bom", append([]byte{0xFF, 0xFE}, utf16...), EncodingUTF16LE, true},
		{"utf16le no bom", utf16, EncodingUTF16LE, false},
		{"windows-1252", cp1252, EncodingWindows1252, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectEncoding(tt.data)
			assert.Equal(t, tt.want, got.Encoding)
			assert.Equal(t, tt.bom, got.HasBOM)
		})
	}
}

func TestNormalizeToUTF8(t *testing.T) {
	cp1252, err := charmap.Windows1252.NewEncoder().Bytes([]byte("Archetype — “Ember”"))
	require.NoError(t, err)
	assert.Equal(t, "Archetype — “Ember”", NormalizeToUTF8(cp1252, DetectEncoding(cp1252)))

	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, "Openness: Low"...)
	assert.Equal(t, "Openness: Low", NormalizeToUTF8(withBOM, DetectEncoding(withBOM)))
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	content := "Openness: High | Conscientiousness: Low | Extraversion: Medium | Agreeableness: High | Neuroticism: Low\r\nArchetype: Testname\r\n  Body line\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	doc, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
	require.Len(t, doc.Lines, 3)
	assert.Equal(t, "  Body line", doc.Lines[2])
}

func TestReadErrors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = Read(empty)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}
