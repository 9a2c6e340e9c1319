package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadText_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\nworld"), 0o644))

	text, err := LoadText(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", text)
}

func TestLoadText_UnknownExtensionReadsRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.log")
	require.NoError(t, os.WriteFile(path, []byte("raw log line"), 0o644))

	text, err := LoadText(path)
	require.NoError(t, err)
	assert.Equal(t, "raw log line", text)
}

func TestLoadText_Markdown(t *testing.T) {
	src := "# Semantic Search\n\nEndee stores **vectors** and `ids`.\n\n- first item\n- second item\n\n```\ncode line\n```\n"
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	text, err := LoadText(path)
	require.NoError(t, err)

	fields := strings.Fields(text)
	assert.Equal(t, []string{
		"Semantic", "Search",
		"Endee", "stores", "vectors", "and", "ids.",
		"first", "item", "second", "item",
		"code", "line",
	}, fields)
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "**")
}

func TestLoadText_PPTX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	slides := map[string]string{
		"ppt/slides/slide2.xml":             `<p:sld><a:t>second</a:t></p:sld>`,
		"ppt/slides/slide1.xml":             `<p:sld><a:t>first</a:t><a:t>R&amp;D</a:t></p:sld>`,
		"ppt/slides/_rels/slide1.xml.rels": `<a:t>ignored</a:t>`,
	}
	for name, body := range slides {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	text, err := LoadText(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "R&D", "second"}, strings.Fields(text))
}

func TestLoadText_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsm")
	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", "name"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B1", "endee"))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	text, err := LoadText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Sheet: Sheet1")
	assert.Contains(t, text, "name\tendee")
}

func TestExtractTextFromXML(t *testing.T) {
	assert.Equal(t, "a b ", extractTextFromXML("<x><a:t>a</a:t><a:t>b</a:t></x>"))
	assert.Equal(t, "", extractTextFromXML("<x/>"))
}
