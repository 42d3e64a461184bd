package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	conf   = flag.String("conf", "books.yaml", "YAML settings file.")
	in     = flag.String("in", "", "Comma-separated input files, directories or globs (CSV and Excel).")
	year   = flag.Int("year", time.Now().Year(), "Target calendar year.")
	by     = flag.String("by", "account", "Comma-separated dimensions for the aggregate command.")
	from   = flag.String("from", "", "Inclusive period start for the aggregate command (YYYY-MM-DD).")
	to     = flag.String("to", "", "Inclusive period end for the aggregate command (YYYY-MM-DD).")
	out    = flag.String("out", "", "Output CSV path. Defaults to stdout.")
	outdir = flag.String("outdir", "out", "Output directory for the report command.")
	strict = flag.Bool("strict", false, "Exit non-zero when validate finds any problem.")
	audit  = flag.String("audit", "", "Audit log path. report appends a run entry; the audit command prints the log.")
	debug  = flag.Bool("debug", false, "Print debug information while loading inputs.")
)

func debugf(format string, args ...interface{}) {
	if *debug {
		fmt.Printf("[debug] "+format+"\n", args...)
	}
}

// loadAll expands the -in argument, loads every resolved file, applies its
// template (or the global column mapping), synthesizes missing amounts and
// merges everything into one table.
func loadAll(s Settings) table {
	var patterns []string
	for _, p := range strings.Split(*in, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	paths := expandInputs(patterns)
	if len(paths) == 0 {
		oerr("No input files resolved from -in")
		os.Exit(2)
	}

	var merged table
	for _, path := range paths {
		var t table
		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx", ".xls":
			t, err = loadExcelFile(path)
		default:
			t, err = loadCSVFile(path)
		}
		checkf(err, "Unable to load: %v", path)
		debugf("loaded %s: %d rows, columns %v", path, len(t.rows), t.columns)

		renames := resolveRenames(s, t.columns, path)
		t.rename(renames)
		debugf("renamed %s: %v", path, renames)
		synthesizeAmounts(&t, s.StripCurrencySymbols)
		merged.merge(t)
	}
	debugf("merged: %d rows, columns %v", len(merged.rows), merged.columns)
	return merged
}

// runPipeline does the shared load, map and partition work behind the
// summary and report commands.
func runPipeline(s Settings) ([]Row, []Exclusion) {
	ru := s.compileRules(*year)
	t := loadAll(s)
	applyAccountMap(&t, s.AccountMap)
	return prepareTransactions(t, s, ru)
}

func emitCSV(header []string, lines [][]string) {
	if *out == "" {
		w := csv.NewWriter(os.Stdout)
		checkf(w.Write(header), "Unable to write to stdout")
		checkf(w.WriteAll(lines), "Unable to write to stdout")
		return
	}
	checkf(writeCSVFile(*out, header, lines), "Unable to write: %v", *out)
	fmt.Printf("Wrote: %s\n", *out)
}

func runAggregate(s Settings) {
	t := loadAll(s)
	dims := strings.Split(*by, ",")
	rows := aggregateTable(t, s, dims, *from, *to)

	var header []string
	for _, d := range dims {
		if d = strings.TrimSpace(d); d != "" && t.hasColumn(d) {
			header = append(header, d)
		}
	}
	header = append(header, "amount")
	lines := make([][]string, len(rows))
	for i, r := range rows {
		lines[i] = append(append([]string{}, r.keys...), r.total.StringFixed(2))
	}
	emitCSV(header, lines)
}

func runValidate(s Settings) {
	t := loadAll(s)
	metrics := validateTable(t, s)

	lines := make([][]string, 0, len(validationMetrics))
	for _, m := range validationMetrics {
		lines = append(lines, []string{m, fmt.Sprintf("%d", metrics[m])})
	}
	emitCSV([]string{"metric", "value"}, lines)

	if metrics["unmapped_accounts"] > 0 {
		printSuggestions(t, s)
	}

	if *strict {
		for _, m := range validationMetrics {
			if metrics[m] > 0 {
				os.Exit(1)
			}
		}
	}
}

// printSuggestions names each unmapped account and, when the category map
// holds enough training signal, a likely category for it.
func printSuggestions(t table, s Settings) {
	sg := newSuggester(s.CategoryMap)
	seen := make(map[string]bool)
	var accounts []string
	for _, row := range t.rows {
		acct := strings.TrimSpace(row["account"])
		if acct == "" || seen[acct] {
			continue
		}
		seen[acct] = true
		if _, ok := s.AccountMap[acct]; !ok {
			accounts = append(accounts, acct)
		}
	}
	sort.Strings(accounts)

	fmt.Println()
	color.New(color.FgYellow).Println("Unmapped accounts:")
	for _, acct := range accounts {
		if sg != nil {
			if hit := sg.suggest(acct); hit != "" {
				fmt.Printf("  %s (suggestion: %s)\n", acct, hit)
				continue
			}
		}
		fmt.Printf("  %s\n", acct)
	}
}

func runSummary(s Settings) {
	included, _ := runPipeline(s)
	monthly, yearly := monthlyAndYearlySummary(included)

	lines := make([][]string, 0, len(monthly)+1)
	for _, m := range monthly {
		lines = append(lines, []string{m.Month, m.Revenue, m.Expense, m.Profit})
	}
	lines = append(lines, []string{"total", yearly.Revenue, yearly.Expense, yearly.Profit})
	emitCSV([]string{"month", "revenue", "expense", "profit"}, lines)
}

func runReport(s Settings) {
	included, excluded := runPipeline(s)
	monthly, yearly := monthlyAndYearlySummary(included)

	breakdownLines := make([][]string, len(included))
	normalizedLines := make([][]string, len(included))
	for i, r := range included {
		breakdownLines[i] = r.breakdownValues()
		normalizedLines[i] = r.normalizedValues()
	}
	exclusionLines := make([][]string, len(excluded))
	for i, e := range excluded {
		exclusionLines[i] = e.values()
	}
	monthlyLines := make([][]string, len(monthly))
	for i, m := range monthly {
		monthlyLines[i] = []string{m.Month, m.Revenue, m.Expense, m.Profit}
	}

	base := *outdir
	outputs := []struct {
		name   string
		header []string
		lines  [][]string
	}{
		{"breakdown.csv", breakdownHeader, breakdownLines},
		{"exclusions.csv", exclusionHeader, exclusionLines},
		{"monthly.csv", []string{"month", "revenue", "expense", "profit"}, monthlyLines},
		{"yearly.csv", []string{"revenue", "expense", "profit"},
			[][]string{{yearly.Revenue, yearly.Expense, yearly.Profit}}},
		{fmt.Sprintf("normalized_%d.csv", *year), normalizedHeader, normalizedLines},
	}
	var written []string
	for _, o := range outputs {
		path := filepath.Join(base, o.name)
		checkf(writeCSVFile(path, o.header, o.lines), "Unable to write: %v", path)
		written = append(written, path)
	}
	fmt.Printf("Wrote: %s\n", strings.Join(written, ", "))

	xlsxPath := filepath.Join(base, fmt.Sprintf("summary_year_%d.xlsx", *year))
	checkf(writeExcelSummary(xlsxPath, included, excluded, monthly, yearly, *year),
		"Unable to write: %v", xlsxPath)
	fmt.Printf("Wrote Excel summary: %s\n", xlsxPath)

	mdPath := filepath.Join(base, fmt.Sprintf("summary_year_%d.md", *year))
	checkf(writeMarkdownSummary(mdPath, excluded, monthly, yearly, *year),
		"Unable to write: %v", mdPath)
	fmt.Printf("Wrote Markdown summary: %s\n", mdPath)

	jsonPath := filepath.Join(base, fmt.Sprintf("summary_year_%d.json", *year))
	checkf(writeJSONSummary(jsonPath, included, excluded, monthly, yearly, *year, time.Now()),
		"Unable to write: %v", jsonPath)
	fmt.Printf("Wrote JSON summary: %s\n", jsonPath)

	color.New(color.FgGreen).Printf("Year %d: revenue=%s expense=%s profit=%s included=%d excluded=%d\n",
		*year, yearly.Revenue, yearly.Expense, yearly.Profit, len(included), len(excluded))

	if *audit != "" {
		entry := auditEntry{
			RunAt:      time.Now(),
			Year:       *year,
			Included:   len(included),
			Excluded:   len(excluded),
			Reasons:    countReasons(excluded),
			Exclusions: excluded,
		}
		checkf(appendAudit(*audit, entry), "Unable to append audit entry: %v", *audit)
		fmt.Printf("Appended run to audit log: %s\n", *audit)
	}
}

func runAudit() {
	if *audit == "" {
		oerr("The audit command needs -audit pointing at the log file")
		os.Exit(2)
	}
	checkf(dumpAudit(*audit), "Unable to read audit log: %v", *audit)
}

func main() {
	flag.Parse()
	settings, err := loadSettings(*conf)
	checkf(err, "Unable to load settings: %v", *conf)

	switch flag.Arg(0) {
	case "aggregate":
		runAggregate(settings)
	case "validate":
		runValidate(settings)
	case "summary":
		runSummary(settings)
	case "report":
		runReport(settings)
	case "audit":
		runAudit()
	default:
		oerr("Expected a command: aggregate, validate, summary, report or audit")
		os.Exit(2)
	}
}
