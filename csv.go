package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// table is one rectangular batch of loaded rows, keyed by column name. Cells
// are kept as raw text until the pipeline parses them.
type table struct {
	columns []string
	rows    []map[string]string
}

func (t *table) hasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

func (t *table) addColumn(name string) {
	if !t.hasColumn(name) {
		t.columns = append(t.columns, name)
	}
}

// rename applies a source->canonical column mapping. Unmapped columns pass
// through unchanged.
func (t *table) rename(mapping map[string]string) {
	if len(mapping) == 0 {
		return
	}
	for i, c := range t.columns {
		if tgt, ok := mapping[c]; ok {
			t.columns[i] = tgt
		}
	}
	for _, row := range t.rows {
		for src, tgt := range mapping {
			if v, ok := row[src]; ok {
				delete(row, src)
				row[tgt] = v
			}
		}
	}
}

// merge appends another table, unioning the column sets.
func (t *table) merge(other table) {
	for _, c := range other.columns {
		t.addColumn(c)
	}
	t.rows = append(t.rows, other.rows...)
}

// expandInputs resolves a mix of files, directories and globs into a sorted,
// de-duplicated list of existing input paths.
func expandInputs(patterns []string) []string {
	var paths []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if strings.ContainsAny(pattern, "*?[") {
			matches, err := filepath.Glob(pattern)
			checkf(err, "Unable to expand glob: %v", pattern)
			sort.Strings(matches)
			paths = append(paths, matches...)
			continue
		}
		info, err := os.Stat(pattern)
		if err != nil {
			continue
		}
		if info.IsDir() {
			var found []string
			filepath.Walk(pattern, func(p string, fi os.FileInfo, err error) error {
				if err != nil || fi.IsDir() {
					return nil
				}
				switch strings.ToLower(filepath.Ext(p)) {
				case ".csv", ".xlsx", ".xls":
					found = append(found, p)
				}
				return nil
			})
			sort.Strings(found)
			paths = append(paths, found...)
			continue
		}
		paths = append(paths, pattern)
	}
	seen := make(map[string]bool)
	unique := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}
	return unique
}

// loadCSVFile reads one CSV file with a header row and attaches provenance
// columns. Data rows are numbered from 2, the header occupying row 1.
func loadCSVFile(path string) (table, error) {
	var t table
	f, err := os.Open(path)
	if err != nil {
		return t, errors.Wrapf(err, "open csv %v", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return t, errors.Wrapf(err, "read csv %v", path)
	}
	if len(records) == 0 {
		return t, nil
	}

	header := records[0]
	t.columns = append(t.columns, header...)
	t.addColumn("source_file")
	t.addColumn("source_sheet")
	t.addColumn("source_row")

	for i, rec := range records[1:] {
		row := make(map[string]string, len(header)+3)
		for j, col := range header {
			if j < len(rec) {
				row[col] = rec[j]
			}
		}
		row["source_file"] = path
		row["source_sheet"] = "CSV"
		row["source_row"] = fmt.Sprintf("%d", i+2)
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func writeCSVFile(path string, header []string, lines [][]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating %v", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %v", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return errors.Wrapf(err, "write %v", path)
	}
	for _, line := range lines {
		if err := w.Write(line); err != nil {
			return errors.Wrapf(err, "write %v", path)
		}
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "flush %v", path)
}
