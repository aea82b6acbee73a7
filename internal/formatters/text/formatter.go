// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"sheetscan/internal/detector"
	"sheetscan/internal/formatters"
)

// Formatter renders human-readable terminal output.
type Formatter struct {
	header  *color.Color
	valid   *color.Color
	invalid *color.Color
	dim     *color.Color
}

// NewFormatter creates a text formatter.
func NewFormatter() *Formatter {
	return &Formatter{
		header:  color.New(color.FgCyan, color.Bold),
		valid:   color.New(color.FgGreen),
		invalid: color.New(color.FgRed),
		dim:     color.New(color.Faint),
	}
}

func (f *Formatter) Name() string { return "text" }

func (f *Formatter) Description() string {
	return "Human-readable text output with colors"
}

func (f *Formatter) FileExtension() string { return ".txt" }

func (f *Formatter) Format(results []detector.ExtractionResult, stats *detector.Statistics, options formatters.Options) (string, error) {
	if options.NoColor {
		color.NoColor = true
	}

	var b strings.Builder

	if len(results) == 0 {
		b.WriteString("未发现敏感信息。\n")
	} else if options.Verbose {
		for i := range results {
			f.writeResult(&b, &results[i])
		}
	}

	if stats != nil {
		f.writeStats(&b, stats)
	}
	return b.String(), nil
}

func (f *Formatter) writeResult(b *strings.Builder, r *detector.ExtractionResult) {
	fmt.Fprintf(b, "%s [%s] 第%d行\n", f.header.Sprint(r.SourceFile), r.SheetName, r.RowNumber)
	fmt.Fprintf(b, "  %s\n", r.SourceText)

	f.writeCategory(b, "手机号", r.Phones)
	f.writeCategory(b, "身份证号", r.IDCards)
	f.writeCategory(b, "银行卡号", r.BankCards)
	f.writeCategory(b, "姓名", r.Names)

	for _, line := range r.ContextBefore {
		fmt.Fprintf(b, "  %s\n", f.dim.Sprintf("上文: %s", line))
	}
	for _, line := range r.ContextAfter {
		fmt.Fprintf(b, "  %s\n", f.dim.Sprintf("下文: %s", line))
	}
	b.WriteString("\n")
}

func (f *Formatter) writeCategory(b *strings.Builder, label string, matches []detector.Match) {
	for _, m := range matches {
		verdict := f.valid.Sprint(detector.ValidityToken(true))
		if !m.Valid {
			verdict = f.invalid.Sprint(detector.ValidityToken(false))
		}
		fmt.Fprintf(b, "  %s: %s (%s)\n", label, m.Value, verdict)
	}
}

func (f *Formatter) writeStats(b *strings.Builder, stats *detector.Statistics) {
	b.WriteString(f.header.Sprint("===== 统计 =====") + "\n")
	fmt.Fprintf(b, "结果行数: %d\n", stats.TotalResults)
	fmt.Fprintf(b, "手机号: %d (有效 %d)\n", stats.TotalPhones, stats.ValidPhones)
	fmt.Fprintf(b, "身份证号: %d (有效 %d)\n", stats.TotalIDCards, stats.ValidIDCards)
	fmt.Fprintf(b, "银行卡号: %d (有效 %d)\n", stats.TotalBankCards, stats.ValidBankCards)
	if stats.TotalNames > 0 || stats.NameServiceFailures > 0 {
		fmt.Fprintf(b, "姓名: %d (有效 %d)\n", stats.TotalNames, stats.ValidNames)
	}
	if stats.NameServiceFailures > 0 {
		fmt.Fprintf(b, "%s\n", f.invalid.Sprintf("姓名服务失败次数: %d", stats.NameServiceFailures))
	}
	fmt.Fprintf(b, "耗时: %.2f 秒\n", stats.ElapsedSeconds)
}

func init() {
	formatters.Register(NewFormatter())
}
