package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeffMaterial,Texto - pt\n1001,Luva de vaqueta\n1002\n"
	tbl, err := Read(strings.NewReader(input), "itens.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Material", "Texto - pt"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Luva de vaqueta", Cell(tbl.Rows[0], 1))
	assert.Equal(t, "", Cell(tbl.Rows[1], 1), "short rows read as empty cells")
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"GrpMercads.", "Descrição GrpMercadoria"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"101", "Luvas"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Read(bytes.NewReader(buf.Bytes()), "grpms.xlsx")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, 0, tbl.Column("grpmercads."))
	assert.Equal(t, "Luvas", Cell(tbl.Rows[0], tbl.Column("Descrição GrpMercadoria")))
}

func TestColumnPrefersFirstAlias(t *testing.T) {
	tbl := &Table{Header: []string{"Texto", "Texto - pt"}}
	assert.Equal(t, 1, tbl.Column("Texto - pt", "Texto"))
	assert.Equal(t, -1, tbl.Column("Material"))
}

func TestReadUnsupported(t *testing.T) {
	_, err := Read(strings.NewReader(""), "data.ods")
	assert.Error(t, err)
	assert.False(t, IsSupported("data.ods"))
	assert.True(t, IsSupported("DATA.XLSX"))
}
