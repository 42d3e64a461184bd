package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// loadExcelFile reads every sheet of a workbook. The first row of each sheet
// is the header; data rows are numbered from 2 within their sheet.
func loadExcelFile(path string) (table, error) {
	var t table
	f, err := excelize.OpenFile(path)
	if err != nil {
		return t, errors.Wrapf(err, "open workbook %v", path)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return t, errors.Wrapf(err, "read sheet %v of %v", sheet, path)
		}
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		var st table
		st.columns = append(st.columns, header...)
		st.addColumn("source_file")
		st.addColumn("source_sheet")
		st.addColumn("source_row")
		for i, rec := range rows[1:] {
			row := make(map[string]string, len(header)+3)
			for j, col := range header {
				if col == "" {
					continue
				}
				if j < len(rec) {
					row[col] = rec[j]
				}
			}
			row["source_file"] = path
			row["source_sheet"] = sheet
			row["source_row"] = fmt.Sprintf("%d", i+2)
			st.rows = append(st.rows, row)
		}
		t.merge(st)
	}
	return t, nil
}
