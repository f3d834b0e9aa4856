package stockfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDecodeTxt(t *testing.T) {
	input := "a@gmail.com:pw1\n\n  b@gmail.com:pw2  \nc@gmail.com:pw3\n"

	got, err := Decode("stock.txt", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@gmail.com:pw1", "b@gmail.com:pw2", "c@gmail.com:pw3"}, got)
}

func TestDecodeCSVFirstColumn(t *testing.T) {
	input := "a@hotmail.com:pw1,extra,columns\nb@hotmail.com:pw2\n,skipped\n"

	got, err := Decode("stock.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@hotmail.com:pw1", "b@hotmail.com:pw2"}, got)
}

func TestDecodeXLSXFirstColumn(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetCellValue(sheet, "A1", "a@outlook.com:pw1"))
	require.NoError(t, book.SetCellValue(sheet, "B1", "ignored"))
	require.NoError(t, book.SetCellValue(sheet, "A2", "b@outlook.com:pw2"))

	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))
	require.NoError(t, book.Close())

	got, err := Decode("stock.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@outlook.com:pw1", "b@outlook.com:pw2"}, got)
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	_, err := Decode("stock.pdf", strings.NewReader("whatever"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeEmptyFile(t *testing.T) {
	_, err := Decode("stock.txt", strings.NewReader("\n \n\t\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDecodeExtensionIsCaseInsensitive(t *testing.T) {
	got, err := Decode("STOCK.TXT", strings.NewReader("a@gmail.com:pw1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@gmail.com:pw1"}, got)
}
