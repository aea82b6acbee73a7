// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sheetscan/internal/config"
	"sheetscan/internal/excel"
)

type fakeSource struct {
	sheets map[string][][]string
	order  []string
	fail   map[string]error
}

func (f *fakeSource) SheetNames() []string { return f.order }

func (f *fakeSource) ReadSheet(name string) (*excel.SheetData, error) {
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	return &excel.SheetData{Rows: f.sheets[name]}, nil
}

func (f *fakeSource) Close() error { return nil }

func fakeOpener(sources map[string]*fakeSource, errs map[string]error) OpenFunc {
	return func(path string) (SheetSource, error) {
		if err := errs[path]; err != nil {
			return nil, err
		}
		src, ok := sources[path]
		if !ok {
			return nil, fmt.Errorf("unknown path %s", path)
		}
		return src, nil
	}
}

// progressRecorder collects callback values; the callback contract
// allows concurrent calls.
type progressRecorder struct {
	mu       sync.Mutex
	percents []int
}

func (r *progressRecorder) fn(label string, percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.percents = append(r.percents, percent)
}

func rowsWithHeader(header []string, data ...[]string) [][]string {
	return append([][]string{header}, data...)
}

func TestProcessFiles_EndToEndWorkbook(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "姓名"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "消息内容"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "张三"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "电话13812345678"))
	path := filepath.Join(t.TempDir(), "chat.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	task, err := NewFileTask(path)
	require.NoError(t, err)
	assert.Equal(t, 1, task.RowCount)

	p := NewProcessor(config.Default().Extraction)
	results, stats, err := p.ProcessFiles(context.Background(), []FileTask{task}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, StateCompleted, results[0].State)

	rows := results[0].Results
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "chat.xlsx", r.SourceFile)
	assert.Equal(t, 2, r.RowNumber)
	assert.Equal(t, "电话13812345678", r.SourceText)

	require.Len(t, r.Phones, 1)
	assert.True(t, r.Phones[0].Valid)
	assert.Equal(t, "13812345678", r.Phones[0].Value)
	assert.Equal(t, r.Phones[0].Value, r.SourceText[r.Phones[0].Start:r.Phones[0].End])
	assert.Empty(t, r.IDCards)
	assert.Empty(t, r.BankCards)

	assert.Equal(t, 1, stats.TotalResults)
	assert.Equal(t, 1, stats.TotalPhones)
	assert.Equal(t, 1, stats.ValidPhones)
}

func TestProcessFiles_ErrorIsolation(t *testing.T) {
	sources := map[string]*fakeSource{
		"good.xlsx": {
			order: []string{"s"},
			sheets: map[string][][]string{
				"s": rowsWithHeader(
					[]string{"消息内容"},
					[]string{"电话13812345678"},
				),
			},
		},
	}
	errs := map[string]error{"bad.xlsx": errors.New("corrupt file")}

	p := NewProcessor(config.Default().Extraction,
		WithOpener(fakeOpener(sources, errs)), WithWorkers(2))

	tasks := []FileTask{
		{Path: "bad.xlsx", Name: "bad.xlsx", RowCount: 10},
		{Path: "good.xlsx", Name: "good.xlsx", RowCount: 1},
	}
	results, stats, err := p.ProcessFiles(context.Background(), tasks, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Error(t, results[0].Err)
	assert.Equal(t, StateFailed, results[0].State)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, StateCompleted, results[1].State)

	// Statistics only include the successful file.
	assert.Equal(t, 1, stats.TotalResults)
}

func TestProcessFiles_SheetReadErrorFailsFile(t *testing.T) {
	sources := map[string]*fakeSource{
		"a.xlsx": {
			order:  []string{"s"},
			sheets: map[string][][]string{},
			fail:   map[string]error{"s": errors.New("bad sheet")},
		},
	}

	p := NewProcessor(config.Default().Extraction,
		WithOpener(fakeOpener(sources, nil)))
	results, _, err := p.ProcessFiles(context.Background(), []FileTask{{Path: "a.xlsx", Name: "a.xlsx", RowCount: 5}}, nil)
	require.NoError(t, err)
	assert.Error(t, results[0].Err)
}

func TestProcessFiles_ProgressMonotonicEndsAt100(t *testing.T) {
	var data [][]string
	for i := 0; i < 450; i++ {
		data = append(data, []string{"无关内容"})
	}
	sources := map[string]*fakeSource{
		"a.xlsx": {
			order:  []string{"s"},
			sheets: map[string][][]string{"s": rowsWithHeader([]string{"消息内容"}, data...)},
		},
		"b.xlsx": {
			order:  []string{"s"},
			sheets: map[string][][]string{"s": rowsWithHeader([]string{"消息内容"}, data[:50]...)},
		},
	}

	p := NewProcessor(config.Default().Extraction,
		WithOpener(fakeOpener(sources, nil)), WithWorkers(2))

	rec := &progressRecorder{}
	tasks := []FileTask{
		{Path: "a.xlsx", Name: "a.xlsx", RowCount: 450},
		{Path: "b.xlsx", Name: "b.xlsx", RowCount: 50},
	}
	_, _, err := p.ProcessFiles(context.Background(), tasks, rec.fn)
	require.NoError(t, err)

	require.NotEmpty(t, rec.percents)
	assert.Equal(t, 0, rec.percents[0])
	for i := 1; i < len(rec.percents); i++ {
		assert.GreaterOrEqual(t, rec.percents[i], rec.percents[i-1],
			"progress regressed at update %d: %v", i, rec.percents)
	}
	assert.Equal(t, 100, rec.percents[len(rec.percents)-1])
}

func TestProcessFiles_ZeroRowsReportsZeroThen100(t *testing.T) {
	sources := map[string]*fakeSource{
		"empty.xlsx": {
			order:  []string{"s"},
			sheets: map[string][][]string{"s": {{"消息内容"}}},
		},
	}

	p := NewProcessor(config.Default().Extraction,
		WithOpener(fakeOpener(sources, nil)))

	rec := &progressRecorder{}
	_, _, err := p.ProcessFiles(context.Background(), []FileTask{{Path: "empty.xlsx", Name: "empty.xlsx", RowCount: 0}}, rec.fn)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(rec.percents), 2)
	assert.Equal(t, 0, rec.percents[0])
	assert.Equal(t, 100, rec.percents[len(rec.percents)-1])
}

func TestProcessFiles_CallerInputErrors(t *testing.T) {
	p := NewProcessor(config.Default().Extraction)
	_, _, err := p.ProcessFiles(context.Background(), nil, nil)
	assert.Error(t, err, "empty file set must be rejected")

	cfg := config.Default().Extraction
	cfg.EnablePhone = false
	cfg.EnableIDCard = false
	cfg.EnableBankCard = false
	cfg.EnableName = false
	p = NewProcessor(cfg)
	_, _, err = p.ProcessFiles(context.Background(), []FileTask{{Path: "a", Name: "a"}}, nil)
	assert.Error(t, err, "all-disabled configuration must be rejected")
}

func TestProcessFiles_MissingConfiguredColumnSkipsSheet(t *testing.T) {
	sources := map[string]*fakeSource{
		"a.xlsx": {
			order: []string{"有列", "无列"},
			sheets: map[string][][]string{
				"有列": rowsWithHeader(
					[]string{"备注", "目标列"},
					[]string{"x", "电话13812345678"},
				),
				"无列": rowsWithHeader(
					[]string{"别的"},
					[]string{"电话15912345678"},
				),
			},
		},
	}

	cfg := config.Default().Extraction
	cfg.TargetColumn = "目标列"
	p := NewProcessor(cfg, WithOpener(fakeOpener(sources, nil)))

	results, _, err := p.ProcessFiles(context.Background(), []FileTask{{Path: "a.xlsx", Name: "a.xlsx", RowCount: 2}}, nil)
	require.NoError(t, err)
	require.NoError(t, results[0].Err)

	// Only the sheet holding the configured column contributes.
	require.Len(t, results[0].Results, 1)
	assert.Equal(t, "有列", results[0].Results[0].SheetName)
}

func TestProcessFiles_AutoDetectFallsBackToFirstColumn(t *testing.T) {
	sources := map[string]*fakeSource{
		"a.xlsx": {
			order: []string{"s"},
			sheets: map[string][][]string{
				"s": rowsWithHeader(
					[]string{"文本", "其他"},
					[]string{"电话13812345678", "x"},
				),
			},
		},
	}

	p := NewProcessor(config.Default().Extraction, WithOpener(fakeOpener(sources, nil)))
	results, _, err := p.ProcessFiles(context.Background(), []FileTask{{Path: "a.xlsx", Name: "a.xlsx", RowCount: 1}}, nil)
	require.NoError(t, err)
	require.Len(t, results[0].Results, 1)
}

func TestProcessFiles_ContextLinesClippedAtBoundaries(t *testing.T) {
	sources := map[string]*fakeSource{
		"a.xlsx": {
			order: []string{"s"},
			sheets: map[string][][]string{
				"s": rowsWithHeader(
					[]string{"姓名", "消息内容"},
					[]string{"上一行", "普通消息"},
					[]string{"张三", "电话13812345678"},
					[]string{"下一行", "再见"},
				),
			},
		},
	}

	cfg := config.Default().Extraction
	cfg.ContextLines = 2
	p := NewProcessor(cfg, WithOpener(fakeOpener(sources, nil)))

	results, _, err := p.ProcessFiles(context.Background(), []FileTask{{Path: "a.xlsx", Name: "a.xlsx", RowCount: 3}}, nil)
	require.NoError(t, err)
	require.Len(t, results[0].Results, 1)

	r := results[0].Results[0]
	assert.Equal(t, []string{"上一行 | 普通消息"}, r.ContextBefore)
	assert.Equal(t, []string{"下一行 | 再见"}, r.ContextAfter)
}

func TestProcessFiles_EmptyCellsSkipped(t *testing.T) {
	sources := map[string]*fakeSource{
		"a.xlsx": {
			order: []string{"s"},
			sheets: map[string][][]string{
				"s": rowsWithHeader(
					[]string{"消息内容"},
					[]string{""},
					[]string{"电话13812345678"},
					[]string{""},
				),
			},
		},
	}

	p := NewProcessor(config.Default().Extraction, WithOpener(fakeOpener(sources, nil)))
	results, stats, err := p.ProcessFiles(context.Background(), []FileTask{{Path: "a.xlsx", Name: "a.xlsx", RowCount: 3}}, nil)
	require.NoError(t, err)
	require.Len(t, results[0].Results, 1)
	assert.Equal(t, 3, results[0].Results[0].RowNumber)
	assert.Equal(t, 1, stats.TotalResults)
}

func TestProcessFiles_StatisticsAggregation(t *testing.T) {
	sources := map[string]*fakeSource{
		"a.xlsx": {
			order: []string{"s"},
			sheets: map[string][][]string{
				"s": rowsWithHeader(
					[]string{"消息内容"},
					[]string{"电话13812345678和+8613812345678"},
					[]string{"身份证110105199003072039"},
					[]string{"卡4111111111111111"},
				),
			},
		},
	}

	p := NewProcessor(config.Default().Extraction, WithOpener(fakeOpener(sources, nil)))
	_, stats, err := p.ProcessFiles(context.Background(), []FileTask{{Path: "a.xlsx", Name: "a.xlsx", RowCount: 3}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalResults)
	assert.Equal(t, 2, stats.TotalPhones)
	assert.Equal(t, 1, stats.ValidPhones)
	assert.Equal(t, 1, stats.TotalIDCards)
	assert.Equal(t, 1, stats.ValidIDCards)
	assert.Equal(t, 1, stats.TotalBankCards)
	assert.Equal(t, 1, stats.ValidBankCards)
	assert.Equal(t, 5, stats.TotalSensitive())
	assert.Greater(t, stats.ElapsedSeconds, 0.0)
}

func TestProcessFiles_CanceledContextFailsFiles(t *testing.T) {
	sources := map[string]*fakeSource{
		"a.xlsx": {
			order:  []string{"s"},
			sheets: map[string][][]string{"s": {{"消息内容"}, {"电话13812345678"}}},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(config.Default().Extraction,
		WithWorkers(1),
		WithOpener(fakeOpener(sources, nil)))
	results, _, err := p.ProcessFiles(ctx, []FileTask{{Path: "a.xlsx", Name: "a.xlsx", RowCount: 1}}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Equal(t, StateFailed, results[0].State)
}

func TestTaskStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "processing", StateProcessing.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "failed", StateFailed.String())
}
