package main

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// aggRow is one line of grouped output: the dimension values in request
// order, plus the summed amount.
type aggRow struct {
	keys  []string
	total decimal.Decimal
}

// aggregateTable groups rows by the requested dimensions and sums their
// amounts. Unlike the report pipeline this path is best effort: unparseable
// amounts count as zero and rows without a parseable date only drop when a
// period bound is set. Dimensions absent from the input are ignored; if none
// remain the result is empty rather than a single whole-table total.
func aggregateTable(t table, s Settings, by []string, start, end string) []aggRow {
	var startDay, endDay time.Time
	var hasStart, hasEnd bool
	if start != "" {
		startDay, hasStart = parseDay(start, "")
	}
	if end != "" {
		endDay, hasEnd = parseDay(end, "")
	}

	var dims []string
	for _, d := range by {
		d = strings.TrimSpace(d)
		if d != "" && t.hasColumn(d) {
			dims = append(dims, d)
		}
	}
	if len(dims) == 0 {
		return nil
	}

	applyAccountMap(&t, s.AccountMap)

	const keySep = "\x1f"
	totals := make(map[string]decimal.Decimal)
	seen := make(map[string]bool)
	for _, raw := range t.rows {
		day, ok := parseDay(raw["date"], s.DateFormat)
		if hasStart || hasEnd {
			if !ok {
				continue
			}
			if hasStart && day.Before(startDay) {
				continue
			}
			if hasEnd && day.After(endDay) {
				continue
			}
		}

		amt, ok := toDecimal(raw["amount"], s.StripCurrencySymbols)
		if !ok {
			amt = decimal.Zero
		}
		fp := raw["date"] + "|" + quantize(amt).StringFixed(2) + "|" + normKey(raw["memo"])
		if seen[fp] {
			continue
		}
		seen[fp] = true

		parts := make([]string, len(dims))
		for i, d := range dims {
			parts[i] = strings.TrimSpace(raw[d])
		}
		key := strings.Join(parts, keySep)
		totals[key] = totals[key].Add(amt)
	}

	rows := make([]aggRow, 0, len(totals))
	for key, total := range totals {
		rows = append(rows, aggRow{keys: strings.Split(key, keySep), total: quantize(total)})
	}
	sort.Slice(rows, func(i, j int) bool {
		for k := range rows[i].keys {
			if rows[i].keys[k] != rows[j].keys[k] {
				return rows[i].keys[k] < rows[j].keys[k]
			}
		}
		return rows[i].total.Cmp(rows[j].total) < 0
	})
	return rows
}

// summaryRow holds one month (or the whole year) of totals, already rounded
// to two decimal places.
type summaryRow struct {
	Month   string
	Revenue string
	Expense string
	Profit  string
}

// monthlyAndYearlySummary folds categorized rows into per-month and yearly
// revenue, expense and profit. Sums accumulate at full precision; revenue and
// expense round independently and profit is the rounded difference of the
// rounded pair, so the three published figures always reconcile.
func monthlyAndYearlySummary(rows []Row) ([]summaryRow, summaryRow) {
	type bucket struct{ revenue, expense decimal.Decimal }
	buckets := make(map[string]*bucket)
	var yearRev, yearExp decimal.Decimal

	for _, r := range rows {
		amt, err := decimal.NewFromString(r.Amount)
		if err != nil {
			continue
		}
		b := buckets[r.Month]
		if b == nil {
			b = &bucket{}
			buckets[r.Month] = b
		}
		switch r.Category {
		case catRevenue:
			b.revenue = b.revenue.Add(amt)
			yearRev = yearRev.Add(amt)
		case catExpense:
			b.expense = b.expense.Add(amt.Abs())
			yearExp = yearExp.Add(amt.Abs())
		}
	}

	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)

	roundOut := func(month string, rev, exp decimal.Decimal) summaryRow {
		rq := quantize(rev)
		eq := quantize(exp)
		return summaryRow{
			Month:   month,
			Revenue: rq.StringFixed(2),
			Expense: eq.StringFixed(2),
			Profit:  quantize(rq.Sub(eq)).StringFixed(2),
		}
	}

	monthly := make([]summaryRow, 0, len(months))
	for _, m := range months {
		b := buckets[m]
		monthly = append(monthly, roundOut(m, b.revenue, b.expense))
	}
	return monthly, roundOut("", yearRev, yearExp)
}

// validation metric names, in report order.
var validationMetrics = []string{
	"missing_columns",
	"invalid_dates",
	"non_numeric_amounts",
	"unmapped_accounts",
}

// validateTable checks a merged table for structural problems before any
// classification runs. A missing required column short-circuits the
// per-value checks since they would only repeat it row by row.
func validateTable(t table, s Settings) map[string]int {
	metrics := map[string]int{
		"missing_columns":     0,
		"invalid_dates":       0,
		"non_numeric_amounts": 0,
		"unmapped_accounts":   0,
	}

	required := []string{"date", "account", "amount"}
	for _, col := range required {
		if !t.hasColumn(col) {
			metrics["missing_columns"]++
		}
	}
	if metrics["missing_columns"] > 0 {
		return metrics
	}

	unmapped := make(map[string]bool)
	for _, raw := range t.rows {
		if _, ok := parseDay(raw["date"], s.DateFormat); !ok {
			metrics["invalid_dates"]++
		}
		if _, ok := toDecimal(raw["amount"], s.StripCurrencySymbols); !ok {
			metrics["non_numeric_amounts"]++
		}
		if len(s.AccountMap) > 0 {
			acct := strings.TrimSpace(raw["account"])
			if acct != "" {
				if _, ok := s.AccountMap[acct]; !ok {
					unmapped[acct] = true
				}
			}
		}
	}
	metrics["unmapped_accounts"] = len(unmapped)
	return metrics
}
