package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

var breakdownHeader = []string{
	"date", "month", "account", "dept", "subaccount", "memo", "inout",
	"activity", "remarks", "amount", "category",
	"source_file", "source_sheet", "source_row",
}

var exclusionHeader = []string{
	"reason", "date", "account", "amount", "dept",
	"source_file", "source_sheet", "source_row",
}

var normalizedHeader = []string{
	"date", "description", "inout", "amount", "activity", "note",
	"source_file", "source_sheet", "source_row",
}

func (r Row) breakdownValues() []string {
	return []string{
		r.Date, r.Month, r.Account, r.Dept, r.Subaccount, r.Memo, r.InOut,
		r.Activity, r.Remarks, r.Amount, r.Category,
		r.SourceFile, r.SourceSheet, r.SourceRow,
	}
}

func (e Exclusion) values() []string {
	return []string{
		e.Reason, e.Date, e.Account, e.Amount, e.Dept,
		e.SourceFile, e.SourceSheet, e.SourceRow,
	}
}

// normalizedValues renders a row in the unified ledger schema, where the memo
// becomes the description and the remarks become the note.
func (r Row) normalizedValues() []string {
	return []string{
		r.Date, r.Memo, r.InOut, r.Amount, r.Activity, r.Remarks,
		r.SourceFile, r.SourceSheet, r.SourceRow,
	}
}

// paddedMonths expands a monthly summary to all twelve months of the year,
// filling absent months with zeros. The CSV output keeps only the months
// that actually occur; the Excel, Markdown and JSON outputs use the padded
// form.
func paddedMonths(monthly []summaryRow, year int) []summaryRow {
	present := make(map[string]summaryRow, len(monthly))
	for _, m := range monthly {
		present[m.Month] = m
	}
	padded := make([]summaryRow, 0, 12)
	for m := 1; m <= 12; m++ {
		key := fmt.Sprintf("%04d-%02d", year, m)
		if row, ok := present[key]; ok {
			padded = append(padded, row)
			continue
		}
		padded = append(padded, summaryRow{Month: key, Revenue: "0.00", Expense: "0.00", Profit: "0.00"})
	}
	return padded
}

// Excel sheet names mirror the report vocabulary of the bookkeeping workflow
// this tool serves.
const (
	sheetYearly     = "年間サマリ（売上経費利益）"
	sheetMonthly    = "月次サマリ（〜12月）"
	sheetSales      = "売上内訳（全行、元ファイルシート行番号付き）"
	sheetExpense    = "経費内訳（全行、元ファイルシート行番号付き）"
	sheetExclusions = "除外一覧（理由付き）"
	sheetNormalized = "正規化（統一スキーマ）"
)

var excelBreakdownHeader = []string{
	"date", "account", "dept", "subaccount", "memo", "amount",
	"source_file", "source_sheet", "source_row",
}

func (r Row) excelBreakdownValues() []string {
	return []string{
		r.Date, r.Account, r.Dept, r.Subaccount, r.Memo, r.Amount,
		r.SourceFile, r.SourceSheet, r.SourceRow,
	}
}

// writeExcelSummary writes the whole report as one workbook: yearly and
// monthly summaries, revenue and expense breakdowns with their provenance,
// the exclusion list, and the unified-schema ledger.
func writeExcelSummary(path string, rows []Row, exclusions []Exclusion,
	monthly []summaryRow, yearly summaryRow, year int) error {

	f := excelize.NewFile()
	defer f.Close()

	writeSheet := func(name string, header []string, lines [][]string) error {
		if err := setSheetRow(f, name, 1, header); err != nil {
			return err
		}
		for i, line := range lines {
			if err := setSheetRow(f, name, i+2, line); err != nil {
				return err
			}
		}
		return nil
	}

	f.SetSheetName("Sheet1", sheetYearly)
	if err := writeSheet(sheetYearly, []string{"売上", "経費", "利益"},
		[][]string{{yearly.Revenue, yearly.Expense, yearly.Profit}}); err != nil {
		return err
	}

	padded := paddedMonths(monthly, year)
	monthLines := make([][]string, len(padded))
	for i, m := range padded {
		monthLines[i] = []string{m.Month, m.Revenue, m.Expense, m.Profit}
	}

	sheets := []struct {
		name   string
		header []string
		lines  [][]string
	}{
		{sheetMonthly, []string{"月", "売上", "経費", "利益"}, monthLines},
		{sheetSales, excelBreakdownHeader, nil},
		{sheetExpense, excelBreakdownHeader, nil},
		{sheetExclusions, exclusionHeader, nil},
		{sheetNormalized, normalizedHeader, nil},
	}
	for _, r := range rows {
		switch r.Category {
		case catRevenue:
			sheets[1].lines = append(sheets[1].lines, r.excelBreakdownValues())
		case catExpense:
			sheets[2].lines = append(sheets[2].lines, r.excelBreakdownValues())
		}
		sheets[4].lines = append(sheets[4].lines, r.normalizedValues())
	}
	for _, e := range exclusions {
		sheets[3].lines = append(sheets[3].lines, e.values())
	}

	for _, sh := range sheets {
		if _, err := f.NewSheet(sh.name); err != nil {
			return errors.Wrapf(err, "creating sheet %s", sh.name)
		}
		if err := writeSheet(sh.name, sh.header, sh.lines); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(path))
	}
	return errors.Wrapf(f.SaveAs(path), "writing %s", path)
}

func setSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return errors.Wrapf(f.SetSheetRow(sheet, cell, &cells), "writing row %d of %s", row, sheet)
}

var markdownSummaryTmpl = template.Must(template.New("summary").Parse(
	`# Summary {{.Year}}

## 年間サマリ（売上経費利益）

| 売上 | 経費 | 利益 |
| ---: | ---: | ---: |
| {{.Yearly.Revenue}} | {{.Yearly.Expense}} | {{.Yearly.Profit}} |

## 月次サマリ（〜12月）

| 月 | 売上 | 経費 | 利益 |
| --- | ---: | ---: | ---: |
{{range .Monthly -}}
| {{.Month}} | {{.Revenue}} | {{.Expense}} | {{.Profit}} |
{{end}}
## 除外件数（理由別）
{{if .Reasons}}
| 理由 | 件数 |
| --- | ---: |
{{range .Reasons -}}
| {{.Reason}} | {{.Count}} |
{{end -}}
{{else}}
除外はありません。
{{end}}`))

type reasonCount struct {
	Reason string
	Count  int
}

func sortedReasonCounts(exclusions []Exclusion) []reasonCount {
	counts := countReasons(exclusions)
	reasons := make([]string, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	out := make([]reasonCount, len(reasons))
	for i, r := range reasons {
		out[i] = reasonCount{Reason: r, Count: counts[r]}
	}
	return out
}

func writeMarkdownSummary(path string, exclusions []Exclusion,
	monthly []summaryRow, yearly summaryRow, year int) error {

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(path))
	}
	fp, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer fp.Close()

	data := struct {
		Year    int
		Yearly  summaryRow
		Monthly []summaryRow
		Reasons []reasonCount
	}{
		Year:    year,
		Yearly:  yearly,
		Monthly: paddedMonths(monthly, year),
		Reasons: sortedReasonCounts(exclusions),
	}
	return errors.Wrapf(markdownSummaryTmpl.Execute(fp, data), "writing %s", path)
}

type jsonTotals struct {
	Revenue string `json:"revenue"`
	Expense string `json:"expense"`
	Profit  string `json:"profit"`
}

type jsonMonth struct {
	Month string `json:"month"`
	jsonTotals
}

type jsonSummary struct {
	Year        int         `json:"year"`
	GeneratedAt string      `json:"generated_at"`
	Yearly      jsonTotals  `json:"yearly"`
	Monthly     []jsonMonth `json:"monthly"`
	Counts      jsonCounts  `json:"counts"`
}

type jsonCounts struct {
	IncludedRows       int            `json:"included_rows"`
	ExcludedRows       int            `json:"excluded_rows"`
	ExclusionsByReason map[string]int `json:"exclusions_by_reason,omitempty"`
}

func writeJSONSummary(path string, rows []Row, exclusions []Exclusion,
	monthly []summaryRow, yearly summaryRow, year int, now time.Time) error {

	padded := paddedMonths(monthly, year)
	months := make([]jsonMonth, len(padded))
	for i, m := range padded {
		months[i] = jsonMonth{
			Month:      m.Month,
			jsonTotals: jsonTotals{Revenue: m.Revenue, Expense: m.Expense, Profit: m.Profit},
		}
	}
	summary := jsonSummary{
		Year:        year,
		GeneratedAt: now.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z"),
		Yearly:      jsonTotals{Revenue: yearly.Revenue, Expense: yearly.Expense, Profit: yearly.Profit},
		Monthly:     months,
		Counts: jsonCounts{
			IncludedRows: len(rows),
			ExcludedRows: len(exclusions),
		},
	}
	if len(exclusions) > 0 {
		summary.Counts.ExclusionsByReason = countReasons(exclusions)
	}

	buf, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding JSON summary")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(path))
	}
	return errors.Wrapf(os.WriteFile(path, append(buf, '\n'), 0644), "writing %s", path)
}
