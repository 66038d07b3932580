package document

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encodings the detector can report. Word processors export corpus text
// in one of these in practice.
const (
	EncodingASCII       = "ascii"
	EncodingUTF8        = "utf-8"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
	EncodingWindows1252 = "windows-1252"
	EncodingISO88591    = "iso-8859-1"
	EncodingMacintosh   = "macintosh"
)

type EncodingResult struct {
	Encoding   string  `json:"encoding"`
	Confidence float64 `json:"confidence"`
	HasBOM     bool    `json:"has_bom"`
}

const maxSampleSize = 8192

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

func DetectEncoding(data []byte) EncodingResult {
	if len(data) == 0 {
		return EncodingResult{Encoding: EncodingUTF8, Confidence: 1.0}
	}

	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return EncodingResult{Encoding: EncodingUTF8, Confidence: 1.0, HasBOM: true}
	case bytes.HasPrefix(data, bomUTF16LE):
		return EncodingResult{Encoding: EncodingUTF16LE, Confidence: 1.0, HasBOM: true}
	case bytes.HasPrefix(data, bomUTF16BE):
		return EncodingResult{Encoding: EncodingUTF16BE, Confidence: 1.0, HasBOM: true}
	}

	sample := data
	if len(sample) > maxSampleSize {
		sample = data[:maxSampleSize]
		// Do not judge UTF-8 validity on a rune cut in half.
		for i := 0; i < utf8.UTFMax && len(sample) > 0 && !utf8.RuneStart(data[len(sample)]); i++ {
			sample = sample[:len(sample)-1]
		}
	}

	if score := scoreUTF16(sample, 1); score > 0 {
		return EncodingResult{Encoding: EncodingUTF16LE, Confidence: score}
	}
	if score := scoreUTF16(sample, 0); score > 0 {
		return EncodingResult{Encoding: EncodingUTF16BE, Confidence: score}
	}

	if isASCII(sample) {
		return EncodingResult{Encoding: EncodingASCII, Confidence: 1.0}
	}
	if utf8.Valid(sample) {
		return EncodingResult{Encoding: EncodingUTF8, Confidence: 0.95}
	}

	best := EncodingResult{Encoding: EncodingWindows1252, Confidence: 0.3}
	candidates := []EncodingResult{
		{Encoding: EncodingWindows1252, Confidence: scoreWindows1252(sample)},
		{Encoding: EncodingISO88591, Confidence: scoreISO88591(sample)},
		{Encoding: EncodingMacintosh, Confidence: scoreMacintosh(sample)},
	}
	for _, c := range candidates {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b > 127 {
			return false
		}
	}
	return true
}

// scoreUTF16 looks for the zero high bytes that Latin text leaves at every
// other position; nullIndex is 1 for little endian and 0 for big endian.
func scoreUTF16(data []byte, nullIndex int) float64 {
	if len(data) < 2 || len(data)%2 != 0 {
		return 0
	}

	nullCount := 0
	for i := nullIndex; i < len(data); i += 2 {
		if data[i] == 0 {
			nullCount++
		}
	}

	if float64(nullCount)/float64(len(data)/2) > 0.75 {
		return 0.8
	}
	return 0
}

// Smart quotes and dashes live in 0x80-0x9F under windows-1252, which is
// the usual tell of a Word export.
func scoreWindows1252(data []byte) float64 {
	score := 0.0
	for _, b := range data {
		switch {
		case b == 0x91 || b == 0x92 || b == 0x93 || b == 0x94 || b == 0x96 || b == 0x97:
			score += 1.0
		case b >= 0x80 && b <= 0x9F:
			score += 0.3
		case b >= 0xA0:
			score += 0.1
		}
	}
	return clamp(0.3 + score/float64(len(data))*10)
}

func scoreISO88591(data []byte) float64 {
	score := 0.0
	for _, b := range data {
		if b >= 0x80 && b <= 0x9F {
			return 0
		}
		if b >= 0xA0 {
			score += 0.1
		}
	}
	return clamp(0.2 + score/float64(len(data))*10)
}

// Mac Roman puts curly quotes at 0xD2-0xD5 and dashes at 0xD0-0xD1.
func scoreMacintosh(data []byte) float64 {
	hits := 0
	for _, b := range data {
		if b >= 0xD0 && b <= 0xD5 {
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	return clamp(0.25 + float64(hits)/float64(len(data))*10)
}

func clamp(v float64) float64 {
	if v > 0.9 {
		return 0.9
	}
	return v
}

// NormalizeToUTF8 decodes data with the detected encoding. Undecodable
// bytes become U+FFFD rather than failing the read.
func NormalizeToUTF8(data []byte, detected EncodingResult) string {
	data = stripBOM(data, detected)

	switch detected.Encoding {
	case EncodingASCII:
		return string(data)
	case EncodingUTF16LE:
		return decodeWithFallback(data, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder())
	case EncodingUTF16BE:
		return decodeWithFallback(data, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder())
	case EncodingWindows1252:
		return decodeWithFallback(data, charmap.Windows1252.NewDecoder())
	case EncodingISO88591:
		return decodeWithFallback(data, charmap.ISO8859_1.NewDecoder())
	case EncodingMacintosh:
		return decodeWithFallback(data, charmap.Macintosh.NewDecoder())
	default:
		return string(bytes.ToValidUTF8(data, []byte("\uFFFD")))
	}
}

func stripBOM(data []byte, detected EncodingResult) []byte {
	if !detected.HasBOM {
		return data
	}
	for _, bom := range [][]byte{bomUTF8, bomUTF16LE, bomUTF16BE} {
		if bytes.HasPrefix(data, bom) {
			return data[len(bom):]
		}
	}
	return data
}

func decodeWithFallback(data []byte, decoder *encoding.Decoder) string {
	if len(data) == 0 {
		return ""
	}

	reader := transform.NewReader(bytes.NewReader(data), decoder)
	result, err := io.ReadAll(reader)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("\uFFFD")))
	}
	return string(bytes.ToValidUTF8(result, []byte("\uFFFD")))
}
