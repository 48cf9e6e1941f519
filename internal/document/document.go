// Package document extracts text from transcript documents packaged as Office Open XML containers.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/graduation-audit/internal/types"
)

// Part names inside the container.
const (
	BodyPart   = "word/document.xml"
	HeaderPart = "word/header1.xml"
)

// Document is the text content of a transcript container.
type Document struct {
	// Tokens holds the trimmed, non-empty text runs of the body in document order.
	Tokens []string
	// HeaderText is every header text run trimmed and concatenated without separators.
	HeaderText string
}

// Text joins the body tokens with newlines.
func (d *Document) Text() string {
	return strings.Join(d.Tokens, "\n")
}

// Header parses the labeled fields of the header text.
func (d *Document) Header() types.StudentHeader {
	return ParseHeaderFields(d.HeaderText)
}

// Open reads a transcript container from disk.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return Read(bytes.NewReader(data), int64(len(data)))
}

// Read extracts a Document from an in-memory container.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	archive, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &types.StructuralError{
			Source:  "document",
			Message: "not a zip container",
			Cause:   err,
		}
	}

	tokens, err := readPart(archive, BodyPart)
	if err != nil {
		return nil, err
	}

	headerTokens, err := readPart(archive, HeaderPart)
	if err != nil {
		return nil, err
	}

	return &Document{
		Tokens:     tokens,
		HeaderText: strings.Join(headerTokens, ""),
	}, nil
}

func readPart(archive *zip.Reader, name string) ([]string, error) {
	f, err := archive.Open(name)
	if err != nil {
		return nil, &types.StructuralError{
			Source:  "document",
			Message: fmt.Sprintf("missing part %s", name),
			Cause:   err,
		}
	}
	defer func() { _ = f.Close() }()

	tokens, err := TextRuns(f)
	if err != nil {
		return nil, &types.StructuralError{
			Source:  name,
			Message: "malformed XML",
			Cause:   err,
		}
	}
	return tokens, nil
}

// TextRuns walks an element tree in document order and returns the trimmed
// text of every namespaced <t> element, skipping runs that are blank.
func TextRuns(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var runs []string
	var current strings.Builder
	depth := 0 // nesting inside a text element

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if depth > 0 {
				depth++
				continue
			}
			if isTextElement(el.Name) {
				depth = 1
				current.Reset()
			}
		case xml.CharData:
			if depth == 1 {
				current.Write(el)
			}
		case xml.EndElement:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				if text := strings.TrimSpace(current.String()); text != "" {
					runs = append(runs, text)
				}
			}
		}
	}

	return runs, nil
}

func isTextElement(name xml.Name) bool {
	return name.Local == "t" && name.Space != ""
}
