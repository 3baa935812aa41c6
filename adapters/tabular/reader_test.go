package tabular

import (
	"testing"

	"dataprobe/domain/dataset"
	"dataprobe/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const salesCSV = "region,price,units\nnorth,100,3\nsouth,250.5,\neast,80,7\nnorth,120,2\n"

func TestReadCSVTypesColumns(t *testing.T) {
	r := NewDataReader(nil)
	ds, err := r.Read("sales.csv", []byte(salesCSV))
	require.NoError(t, err)

	rows, cols := ds.Shape()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"region", "price", "units"}, ds.ColumnNames())
	assert.Equal(t, "csv", ds.Source)

	price, _ := ds.Column("price")
	assert.Equal(t, dataset.ColumnNumeric, price.Type)
	units, _ := ds.Column("units")
	assert.Equal(t, dataset.ColumnNumeric, units.Type)
	assert.True(t, units.IsMissing(1))
	region, _ := ds.Column("region")
	assert.False(t, region.Type.IsNumeric())
}

func TestReadIsIdempotent(t *testing.T) {
	r := NewDataReader(nil)
	first, err := r.Read("a.csv", []byte(salesCSV))
	require.NoError(t, err)
	second, err := r.Read("a.csv", []byte(salesCSV))
	require.NoError(t, err)

	r1, c1 := first.Shape()
	r2, c2 := second.Shape()
	assert.Equal(t, r1, r2)
	assert.Equal(t, c1, c2)
	assert.Equal(t, first.ColumnNames(), second.ColumnNames())
	assert.Equal(t, first.Info(), second.Info())
	assert.Equal(t, first.DisplayRows(), second.DisplayRows())
	assert.NotEqual(t, first.ID, second.ID, "each load is a new dataset")
	assert.True(t, first.Fingerprint.Equals(second.Fingerprint))
	assert.Empty(t, first.Head(2).Fingerprint)
}

func TestReadRejectsNonTabularInput(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

	tests := map[string][]byte{
		"empty":         {},
		"whitespace":    []byte("  \n\t\n"),
		"png image":     png,
		"bad quoting":   []byte("a,b\n\"unterminated,2\n"),
		"too many cols": []byte("a,b\n1,2,3\n"),
		"zip not xlsx":  {'P', 'K', 0x03, 0x04, 0x14, 0x00, 0x00, 0x00},
	}

	r := NewDataReader(nil)
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			ds, err := r.Read("upload", data)
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.True(t, errors.IsDataFormat(err), "expected DataFormatError, got %v", err)
		})
	}
}

func TestReadPadsShortRows(t *testing.T) {
	r := NewDataReader(nil)
	ds, err := r.Read("short.csv", []byte("a,b,c\n1,2\n3,4,5\n"))
	require.NoError(t, err)

	c, _ := ds.Column("c")
	assert.True(t, c.IsMissing(0))
	assert.Equal(t, 5.0, c.Value(1))
}

func TestReadHeaderOnly(t *testing.T) {
	r := NewDataReader(nil)
	ds, err := r.Read("empty.csv", []byte("x,y\n"))
	require.NoError(t, err)

	rows, cols := ds.Shape()
	assert.Equal(t, 0, rows)
	assert.Equal(t, 2, cols)
	assert.Empty(t, ds.NumericColumns())
}

func TestReadNormalizesHeaders(t *testing.T) {
	r := NewDataReader(nil)
	ds, err := r.Read("h.csv", []byte("\xEF\xBB\xBFid, ,id,id\n1,2,3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "Unnamed: 1", "id.1", "id.2"}, ds.ColumnNames())
}

func TestNormalizeHeadersAvoidsExistingSuffix(t *testing.T) {
	assert.Equal(t, []string{"a.1", "a", "a.2"}, normalizeHeaders([]string{"a.1", "a", "a"}))
}

func TestReadExcelWorkbook(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"x", "label"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{1, "a"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{5, "b"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{10, "a"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	r := NewDataReader(nil)
	ds, err := r.Read("book.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, "xlsx", ds.Source)
	assert.Equal(t, []string{"x", "label"}, ds.ColumnNames())
	x, _ := ds.Column("x")
	assert.Equal(t, dataset.ColumnNumeric, x.Type)
	assert.Equal(t, []float64{1, 5, 10}, x.NumericValues())
}
