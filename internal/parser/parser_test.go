package parser

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"testing"

	"study-assistant/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

func TestLoadTextPlain(t *testing.T) {
	text, err := LoadText("notes.txt", []byte("The capital of France is Paris."))
	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris.", text)
}

func TestLoadTextStripsBOM(t *testing.T) {
	text, err := LoadText("notes.TXT", []byte("\xef\xbb\xbfhello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestLoadTextUnsupportedFormat(t *testing.T) {
	for _, name := range []string{"table.csv", "archive.zip", "noext"} {
		text, err := LoadText(name, []byte("a,b,c"))
		assert.Empty(t, text)
		require.Error(t, err, name)
		assert.Equal(t, "Unsupported file format", err.Error())
		assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
	}
	assert.False(t, SupportedDocument("table.csv"))
	assert.True(t, SupportedDocument("report.PDF"))
}

func TestLoadTextMalformedPDF(t *testing.T) {
	_, err := LoadText("broken.pdf", []byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestLoadTextMarkdown(t *testing.T) {
	src := "# Title\n\nSome *emphasis* and `code`.\n\n- item one\n- item two\n"
	text, err := LoadText("readme.md", []byte(src))
	require.NoError(t, err)

	assert.Contains(t, text, "Title\n")
	assert.Contains(t, text, "Some emphasis and code.")
	assert.Contains(t, text, "item one")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "*")
}

func TestExtractDocxParagraphs(t *testing.T) {
	xmlDoc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>First </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>` +
		`<w:p></w:p>` +
		`<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>one.</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	text, err := extractDocxParagraphs(xmlDoc)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\n\nSecond\tone.", text)
}

func TestLoadTextPPTXOrdersSlides(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	slides := map[string]string{
		"ppt/slides/slide10.xml": `<p:sld><a:t>Tenth</a:t></p:sld>`,
		"ppt/slides/slide2.xml":  `<p:sld><a:t>Second</a:t><a:t>slide</a:t></p:sld>`,
		"ppt/slides/slide1.xml":  `<p:sld><a:t>First</a:t></p:sld>`,
	}
	for _, name := range []string{"ppt/slides/slide10.xml", "ppt/slides/slide2.xml", "ppt/slides/slide1.xml"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(slides[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	text, err := LoadText("deck.pptx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "First\nSecond slide\nTenth\n", text)
}

func TestLoadTextXLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Terms")
	require.NoError(t, err)
	row := sheet.AddRow()
	row.AddCell().SetString("Mitochondria")
	row.AddCell().SetString("Powerhouse of the cell")

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	text, err := LoadText("terms.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, text, "## Sheet: Terms")
	assert.Contains(t, text, "Mitochondria\tPowerhouse of the cell")
}

func TestLoadTextSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Osmosis"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Diffusion of water"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, err := LoadText("terms.xlsm", buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, text, "## Sheet: Sheet1")
	assert.Contains(t, text, "Osmosis\tDiffusion of water")
}

func TestLoadImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))))

	img, err := LoadImage("diagram.png", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIME)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)

	_, err = LoadImage("diagram.gif", buf.Bytes())
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)

	_, err = LoadImage("diagram.jpg", []byte("not an image"))
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
}
