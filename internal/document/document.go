// Package document reads an extracted corpus text file into the ordered
// line sequence the compiler consumes.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrEmptyDocument = errors.New("document is empty")

type Document struct {
	Path     string
	Encoding EncodingResult
	Lines    []string
}

// Read loads path, decodes it to UTF-8 and splits it into raw lines.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

func ReadFrom(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	detected := DetectEncoding(data)
	return &Document{
		Encoding: detected,
		Lines:    SplitLines(NormalizeToUTF8(data, detected)),
	}, nil
}

// SplitLines splits on \n, \r\n and lone \r. A trailing newline does not
// produce a final empty line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
