package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"baliance.com/gooxml/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveDocx(t *testing.T, doc *document.Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, doc.Save(&buf))
	return buf.Bytes()
}

func TestExtract_PlainText(t *testing.T) {
	e := New()
	text, err := e.Extract("notes.TXT", []byte("\xef\xbb\xbfline one\nline two"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestPlainText_InvalidUTF8(t *testing.T) {
	assert.Equal(t, "a�b", PlainText([]byte("a\xffb")))
}

func TestExtract_Docx(t *testing.T) {
	doc := document.New()
	doc.AddParagraph().AddRun().AddText("War is peace.")
	p := doc.AddParagraph()
	p.AddRun().AddText("Freedom")
	r := p.AddRun()
	r.AddTab()
	r.AddText("is slavery.")

	text, err := New().Extract("1984.docx", saveDocx(t, doc))
	require.NoError(t, err)
	assert.Equal(t, "War is peace.\nFreedom\tis slavery.\n", text)
}

func TestExtract_DocxTablesHeadersFooters(t *testing.T) {
	doc := document.New()
	doc.AddHeader().AddParagraph().AddRun().AddText("Quarterly report")
	doc.AddFooter().AddParagraph().AddRun().AddText("Confidential")
	doc.AddParagraph().AddRun().AddText("Revenue by region:")

	table := doc.AddTable()
	for _, cells := range [][]string{{"Region", "Revenue"}, {"North", "42"}} {
		row := table.AddRow()
		for _, c := range cells {
			row.AddCell().AddParagraph().AddRun().AddText(c)
		}
	}

	text, err := DocxText(saveDocx(t, doc))
	require.NoError(t, err)

	assert.Contains(t, text, "Revenue by region:\n")
	assert.Contains(t, text, "Region\tRevenue\n")
	assert.Contains(t, text, "North\t42\n")
	assert.Contains(t, text, "Quarterly report\n")
	assert.Contains(t, text, "Confidential\n")
	assert.Less(t, strings.Index(text, "Quarterly report"), strings.Index(text, "Revenue by region:"))
	assert.Greater(t, strings.Index(text, "Confidential"), strings.Index(text, "North"))
}

func TestExtract_DocxWithoutBodyHasNoText(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	// A package without a main document either fails to open or yields
	// nothing to index.
	text, err := DocxText(buf.Bytes())
	if err == nil {
		assert.Empty(t, strings.TrimSpace(text))
	}
}

func TestExtract_InvalidArchives(t *testing.T) {
	_, err := DocxText([]byte("not a zip"))
	assert.Error(t, err)

	_, err = PDFText([]byte("not a pdf"))
	assert.Error(t, err)
}

func TestExtract_UnknownExtension(t *testing.T) {
	_, err := New().Extract("slides.pptx", []byte("x"))
	assert.Error(t, err)
}
