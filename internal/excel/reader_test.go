// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeFixture creates an xlsx file from a grid of cells.
func writeFixture(t *testing.T, sheets map[string][][]any) string {
	t.Helper()

	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range rows {
			for c, v := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(name, cell, v))
			}
		}
	}

	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestOpenAndReadSheet(t *testing.T) {
	path := writeFixture(t, map[string][][]any{
		"聊天记录": {
			{"姓名", "消息内容"},
			{"张三", "电话13812345678"},
			{"李四", "明天见"},
		},
	})

	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []string{"聊天记录"}, w.SheetNames())

	sd, err := w.ReadSheet("聊天记录")
	require.NoError(t, err)
	require.Len(t, sd.Rows, 3)
	assert.Equal(t, []string{"姓名", "消息内容"}, sd.ColumnNames())
	assert.Equal(t, 1, sd.ColumnIndex("消息内容"))
	assert.Equal(t, -1, sd.ColumnIndex("不存在"))
	assert.Equal(t, 2, sd.DataRowCount())
	assert.Equal(t, "电话13812345678", sd.Cell(1, 1))
}

func TestReadSheet_PadsRaggedRows(t *testing.T) {
	path := writeFixture(t, map[string][][]any{
		"Sheet": {
			{"a", "b", "c"},
			{"only"},
		},
	})

	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	sd, err := w.ReadSheet("Sheet")
	require.NoError(t, err)
	require.Len(t, sd.Rows, 2)
	assert.Len(t, sd.Rows[1], 3)
	assert.Equal(t, "", sd.Cell(1, 2))
}

func TestReadSheet_IntegerCellsRenderWithoutDecimal(t *testing.T) {
	path := writeFixture(t, map[string][][]any{
		"Sheet": {
			{"消息内容"},
			{13812345678},
		},
	})

	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	sd, err := w.ReadSheet("Sheet")
	require.NoError(t, err)
	assert.Equal(t, "13812345678", sd.Cell(1, 0))
}

func TestContext(t *testing.T) {
	sd := &SheetData{Rows: [][]string{
		{"h1", "h2"},
		{"r1a", "r1b"},
		{"r2a", "r2b"},
		{"r3a", "r3b"},
		{"r4a", "r4b"},
	}}

	before, after := sd.Context(3, 2)
	assert.Equal(t, []string{"r1a | r1b", "r2a | r2b"}, before)
	assert.Equal(t, []string{"r4a | r4b"}, after)

	// The header never appears as context.
	before, _ = sd.Context(1, 3)
	assert.Empty(t, before)

	// Clipped at the bottom boundary.
	_, after = sd.Context(4, 2)
	assert.Empty(t, after)
}

func TestInspect(t *testing.T) {
	path := writeFixture(t, map[string][][]any{
		"唯一表": {
			{"姓名", "消息内容"},
			{"张三", "hello"},
			{"李四", "world"},
		},
	})

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"唯一表"}, info.SheetNames)
	assert.Equal(t, []string{"姓名", "消息内容"}, info.Columns["唯一表"])
	assert.Equal(t, 2, info.RowCounts["唯一表"])
	assert.Equal(t, 2, info.TotalRows())
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
