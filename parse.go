package main

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

const isoStamp = "2006-01-02"

// Formats tried in order when no explicit date_format is configured. Bank
// exports in the wild mix ISO, slashed and dotted dates, sometimes with a
// time-of-day column glued on.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006年1月2日",
}

// parseDay parses a date cell. With an explicit layout the parse is strict;
// otherwise the common formats are tried in order. The bool reports success,
// and failure later causes exclusion rather than aborting the run.
func parseDay(s, layout string) (time.Time, bool) {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return time.Time{}, false
	}
	if layout != "" {
		tm, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, false
		}
		return day(tm), true
	}
	for _, f := range dateFormats {
		if tm, err := time.Parse(f, s); err == nil {
			return day(tm), true
		}
	}
	return time.Time{}, false
}

func day(tm time.Time) time.Time {
	y, m, d := tm.Year(), tm.Month(), tm.Day()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// toDecimal coerces amount-like text into an exact decimal: NFKC folds
// full-width digits, currency symbols and thousands separators are stripped,
// and a parenthesized value is its negation. The bool reports parseability;
// callers on best-effort paths treat failure as zero.
func toDecimal(s string, symbols []string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(norm.NFKC.String(s))
	for _, sym := range symbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// quantize rounds to 2 decimal places, half away from zero.
func quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// synthesizeAmounts fills the amount column from paired in/out or
// credit/debit columns when no amount value is present anywhere. If any row
// already carries an amount, synthesis is skipped entirely.
func synthesizeAmounts(t *table, symbols []string) {
	if t.hasColumn("amount") {
		for _, row := range t.rows {
			if strings.TrimSpace(row["amount"]) != "" {
				return
			}
		}
	}

	var first, second string
	switch {
	case t.hasColumn("in_amount") && t.hasColumn("out_amount"):
		first, second = "in_amount", "out_amount"
	case t.hasColumn("credit") && t.hasColumn("debit"):
		first, second = "credit", "debit"
	default:
		return
	}

	t.addColumn("amount")
	for _, row := range t.rows {
		a, _ := toDecimal(row[first], symbols)
		b, _ := toDecimal(row[second], symbols)
		row["amount"] = quantize(a.Sub(b)).StringFixed(2)
	}
}

// applyAccountMap translates account names through the configured mapping.
// Unmapped accounts pass through unchanged.
func applyAccountMap(t *table, m map[string]string) {
	if len(m) == 0 || !t.hasColumn("account") {
		return
	}
	for _, row := range t.rows {
		if mapped, ok := m[row["account"]]; ok {
			row["account"] = mapped
		}
	}
}
