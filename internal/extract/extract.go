// Package extract pulls plain text out of uploaded documents.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// ErrExtraction is returned when a document yields no usable text.
var ErrExtraction = errors.New("could not extract text from document")

// DefaultMinTextLength is the shortest cleaned text accepted for ingestion.
const DefaultMinTextLength = 100

// Extractor turns document bytes into cleaned text and rejects documents
// whose text is too short to synthesize questions from.
type Extractor struct {
	MinTextLength int
}

// New creates an extractor. A non-positive minimum uses DefaultMinTextLength.
func New(minTextLength int) *Extractor {
	if minTextLength <= 0 {
		minTextLength = DefaultMinTextLength
	}
	return &Extractor{MinTextLength: minTextLength}
}

// Extract returns the cleaned text of a document.
func (e *Extractor) Extract(data []byte) (string, error) {
	text, err := RawText(data)
	if err != nil {
		return "", err
	}
	if n := utf8.RuneCountInString(text); n < e.MinTextLength {
		return "", fmt.Errorf("%w: %d characters, need at least %d", ErrExtraction, n, e.MinTextLength)
	}
	return text, nil
}

// RawText extracts and cleans the text of a PDF or plain-text document.
func RawText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty document", ErrExtraction)
	}

	var (
		text string
		err  error
	)
	switch {
	case isPDF(data):
		text, err = pdfText(data)
	case isText(data):
		text = string(data)
	default:
		return "", fmt.Errorf("%w: unsupported file type", ErrExtraction)
	}
	if err != nil {
		return "", err
	}

	text = Clean(text)
	if text == "" {
		return "", fmt.Errorf("%w: no text found", ErrExtraction)
	}
	return text, nil
}

// Clean normalizes text to NFC, drops replacement characters and collapses
// all whitespace runs to a single space.
func Clean(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, string(utf8.RuneError), "")
	return strings.Join(strings.Fields(s), " ")
}

func pdfText(data []byte) (text string, err error) {
	// The reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: malformed pdf: %v", ErrExtraction, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf reader: %v", ErrExtraction, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: pdf plaintext: %v", ErrExtraction, err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("%w: pdf read: %v", ErrExtraction, err)
	}
	return string(b), nil
}

func isPDF(b []byte) bool {
	return bytes.HasPrefix(b, []byte("%PDF-"))
}

func isText(b []byte) bool {
	sample := b[:min(len(b), 4096)]
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}
	return utf8.Valid(b)
}
