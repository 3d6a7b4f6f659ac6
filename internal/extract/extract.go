// Package extract turns uploaded file bytes into plain text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"baliance.com/gooxml/document"
	"github.com/ledongthuc/pdf"
)

// Extractor converts raw document bytes into text for a given file name.
type Extractor interface {
	Extract(name string, data []byte) (string, error)
}

// ByExtension dispatches on the file extension.
type ByExtension struct{}

// New returns the default extractor.
func New() *ByExtension {
	return &ByExtension{}
}

// Extract returns the document text. Unknown extensions are rejected.
func (e *ByExtension) Extract(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return PlainText(data), nil
	case ".pdf":
		return PDFText(data)
	case ".docx":
		return DocxText(data)
	default:
		return "", fmt.Errorf("no extractor for %q", name)
	}
}

// PlainText decodes data as UTF-8, dropping a leading byte order mark and
// replacing invalid sequences.
func PlainText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}

// PDFText extracts the plain text layer of a PDF.
func PDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer: %w", err)
	}
	return buf.String(), nil
}

// DocxText extracts the text of a Word document: header paragraphs, body
// paragraphs, table rows and footer paragraphs, one line each. Table cells
// are tab separated.
func DocxText(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}

	var out strings.Builder
	for _, h := range doc.Headers() {
		writeParagraphs(&out, h.Paragraphs())
	}
	writeParagraphs(&out, doc.Paragraphs())
	for _, t := range doc.Tables() {
		for _, row := range t.Rows() {
			cells := make([]string, 0, len(row.Cells()))
			for _, c := range row.Cells() {
				cells = append(cells, cellText(c))
			}
			out.WriteString(strings.Join(cells, "\t"))
			out.WriteByte('\n')
		}
	}
	for _, f := range doc.Footers() {
		writeParagraphs(&out, f.Paragraphs())
	}
	return out.String(), nil
}

func writeParagraphs(out *strings.Builder, paragraphs []document.Paragraph) {
	for _, p := range paragraphs {
		out.WriteString(paragraphText(p))
		out.WriteByte('\n')
	}
}

func cellText(c document.Cell) string {
	parts := make([]string, 0, len(c.Paragraphs()))
	for _, p := range c.Paragraphs() {
		if text := paragraphText(p); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func paragraphText(p document.Paragraph) string {
	var b strings.Builder
	for _, r := range p.Runs() {
		for _, ic := range r.X().EG_RunInnerContent {
			switch {
			case ic.T != nil:
				b.WriteString(ic.T.Content)
			case ic.Tab != nil:
				b.WriteByte('\t')
			case ic.Br != nil, ic.Cr != nil:
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}
