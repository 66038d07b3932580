// Package trait models the five-dimension, three-level personality space
// and the canonical dash-joined code format used to key archetypes.
package trait

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

type Level string

const (
	Low    Level = "Low"
	Medium Level = "Medium"
	High   Level = "High"
)

// Levels is the iteration order used when enumerating the domain.
var Levels = [3]Level{Low, Medium, High}

type Dimension string

const (
	Openness          Dimension = "Openness"
	Conscientiousness Dimension = "Conscientiousness"
	Extraversion      Dimension = "Extraversion"
	Agreeableness     Dimension = "Agreeableness"
	Neuroticism       Dimension = "Neuroticism"
)

// Dimensions holds the fixed O, C, E, A, N order of every code.
var Dimensions = [5]Dimension{Openness, Conscientiousness, Extraversion, Agreeableness, Neuroticism}

const (
	DomainSize  = 243
	Separator   = "-"
	DefaultCode = "Medium-Medium-Medium-Medium-Medium"
)

var (
	ErrInvalidLevel = errors.New("invalid trait level")
	ErrInvalidCode  = errors.New("invalid trait code")
)

// Code is one point of the domain, levels in Dimensions order.
type Code [5]Level

func (c Code) String() string {
	return FormatCode(c)
}

// CanonicalizeLevel accepts a level word in any case and returns its
// capitalized form.
func CanonicalizeLevel(word string) (Level, error) {
	switch cases.Fold().String(strings.TrimSpace(word)) {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLevel, word)
}

func FormatCode(levels Code) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = string(l)
	}
	return strings.Join(parts, Separator)
}

// ParseCode accepts only the canonical grammar: five capitalized level
// words joined by single dashes.
func ParseCode(s string) (Code, error) {
	var code Code
	parts := strings.Split(s, Separator)
	if len(parts) != len(code) {
		return code, fmt.Errorf("%w: %q has %d parts", ErrInvalidCode, s, len(parts))
	}
	for i, p := range parts {
		switch Level(p) {
		case Low, Medium, High:
			code[i] = Level(p)
		default:
			return code, fmt.Errorf("%w: %q", ErrInvalidCode, s)
		}
	}
	return code, nil
}

// ParseLenient tolerates case variation and surrounding whitespace around
// each part, for codes arriving from hand-edited sources.
func ParseLenient(s string) (Code, error) {
	var code Code
	parts := strings.Split(strings.TrimSpace(s), Separator)
	if len(parts) != len(code) {
		return code, fmt.Errorf("%w: %q has %d parts", ErrInvalidCode, s, len(parts))
	}
	for i, p := range parts {
		l, err := CanonicalizeLevel(p)
		if err != nil {
			return code, fmt.Errorf("%w: %q", ErrInvalidCode, s)
		}
		code[i] = l
	}
	return code, nil
}

func IsCanonical(s string) bool {
	_, err := ParseCode(s)
	return err == nil
}

// EnumerateDomain returns all 243 codes, iterating Low, Medium, High per
// dimension with Neuroticism varying fastest.
func EnumerateDomain() []Code {
	codes := make([]Code, 0, DomainSize)
	var walk func(dim int, cur Code)
	walk = func(dim int, cur Code) {
		if dim == len(cur) {
			codes = append(codes, cur)
			return
		}
		for _, l := range Levels {
			cur[dim] = l
			walk(dim+1, cur)
		}
	}
	walk(0, Code{})
	return codes
}

// DomainStrings is EnumerateDomain formatted.
func DomainStrings() []string {
	codes := EnumerateDomain()
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = c.String()
	}
	return out
}
