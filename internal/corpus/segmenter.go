package corpus

import (
	"fmt"
	"strings"
)

// DefaultLookahead is how many lines after a header are searched for its
// "Archetype:" line.
const DefaultLookahead = 3

// Line carries the untouched text for buffering and the trimmed form used
// for matching.
type Line struct {
	Raw     string
	Trimmed string
}

func SplitLines(raw []string) []Line {
	lines := make([]Line, len(raw))
	for i, r := range raw {
		lines[i] = Line{Raw: r, Trimmed: strings.TrimSpace(r)}
	}
	return lines
}

// Record is one flushed archetype block.
type Record struct {
	Code            string
	Name            string
	Text            string
	HeaderLine      int
	NameSynthesized bool
}

type Suspicious struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

type segmenterState int

const (
	noActiveRecord segmenterState = iota
	activeRecord
)

type Segmenter struct {
	lookahead int

	state   segmenterState
	current Record
	buffer  []string

	records    []Record
	suspicious []Suspicious
	headers    int
}

func NewSegmenter(lookahead int) *Segmenter {
	if lookahead < 1 {
		lookahead = DefaultLookahead
	}
	return &Segmenter{lookahead: lookahead}
}

type Segmentation struct {
	Records    []Record
	Suspicious []Suspicious
	Headers    int
	Lines      int
}

// Segment runs one linear pass over lines. The segmenter is single use.
func (s *Segmenter) Segment(lines []Line) Segmentation {
	for cursor := 0; cursor < len(lines); cursor++ {
		line := lines[cursor]
		header, kind := RecognizeHeader(line.Trimmed)

		switch kind {
		case HeaderLine:
			s.flush()
			s.headers++
			cursor = s.open(header, lines, cursor)
			continue
		case SuspiciousLine:
			s.suspicious = append(s.suspicious, Suspicious{Line: cursor, Text: line.Trimmed})
		}

		if s.state == activeRecord {
			s.buffer = append(s.buffer, line.Raw)
		}
	}
	s.flush()

	return Segmentation{
		Records:    s.records,
		Suspicious: s.suspicious,
		Headers:    s.headers,
		Lines:      len(lines),
	}
}

// open starts a record at the header on lines[at] and returns the cursor
// position of the last line it consumed.
func (s *Segmenter) open(h Header, lines []Line, at int) int {
	s.state = activeRecord
	s.current = Record{Code: h.Code.String(), HeaderLine: at}
	s.buffer = s.buffer[:0]

	if h.InlineName != "" {
		s.current.Name = h.InlineName
		return at
	}

	for j := 1; j <= s.lookahead && at+j < len(lines); j++ {
		next := lines[at+j].Trimmed
		if _, kind := RecognizeHeader(next); kind == HeaderLine {
			break
		}
		if name, ok := MatchArchetypeLine(next); ok {
			s.current.Name = name
			return at + j
		}
	}

	s.current.Name = fallbackName(at)
	s.current.NameSynthesized = true
	return at
}

func (s *Segmenter) flush() {
	if s.state != activeRecord {
		return
	}
	rec := s.current
	rec.Text = strings.TrimSpace(strings.Join(s.buffer, "\n"))
	s.records = append(s.records, rec)

	s.state = noActiveRecord
	s.current = Record{}
	s.buffer = s.buffer[:0]
}

// fallbackName encodes the header position so unnamed records stay
// distinct and are easy to find for curation.
func fallbackName(line int) string {
	return fmt.Sprintf("Unknown_%d", line)
}
