package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Exclusion reasons, in the order the per-record checks run. The first
// failing check wins; a record carries exactly one reason.
const (
	reasonMissingAccount   = "missing_account"
	reasonInvalidDate      = "invalid_date"
	reasonOutOfPeriod      = "out_of_period"
	reasonNonNumericAmount = "non_numeric_amount"
	reasonDuplicate        = "duplicate"
	reasonActivityExcluded = "activity_excluded"
	reasonNonBusiness      = "non_business"
	reasonRevenueExcluded  = "revenue_excluded"
)

var reasonOrder = []string{
	reasonMissingAccount,
	reasonInvalidDate,
	reasonOutOfPeriod,
	reasonNonNumericAmount,
	reasonDuplicate,
	reasonActivityExcluded,
	reasonNonBusiness,
	reasonRevenueExcluded,
}

type record struct {
	date        time.Time
	account     string
	dept        string
	subaccount  string
	memo        string
	inout       string
	activity    string
	remarks     string
	revenueFlag string
	amount      decimal.Decimal
	rawAmount   string

	sourceFile  string
	sourceSheet string
	sourceRow   string
}

// matchFields exposes the fields the classification rule groups may target.
func (r *record) matchFields() map[string]string {
	return map[string]string{
		"account":  r.account,
		"memo":     r.memo,
		"activity": r.activity,
		"inout":    r.inout,
	}
}

func (r *record) fingerprint() string {
	return r.date.Format(isoStamp) + "|" +
		quantize(r.amount).StringFixed(2) + "|" +
		normKey(r.memo)
}

// Row is a fully normalized, categorized transaction line.
type Row struct {
	Date        string
	Month       string
	Account     string
	Dept        string
	Subaccount  string
	Memo        string
	InOut       string
	Activity    string
	Remarks     string
	Amount      string
	Category    string
	SourceFile  string
	SourceSheet string
	SourceRow   string
}

// Exclusion records a line rejected by the pipeline along with why. The
// amount is kept as found in the input so a reviewer can see exactly what was
// rejected.
type Exclusion struct {
	Reason      string
	Date        string
	Account     string
	Amount      string
	Dept        string
	SourceFile  string
	SourceSheet string
	SourceRow   string
}

// prepareTransactions partitions a merged table into categorized rows and
// excluded lines. Every input row lands in exactly one of the two outputs.
func prepareTransactions(t table, s Settings, ru ruleset) ([]Row, []Exclusion) {
	var included []Row
	var excluded []Exclusion
	seen := make(map[string]bool)

	exclude := func(r *record, raw map[string]string, reason string) {
		excluded = append(excluded, Exclusion{
			Reason:      reason,
			Date:        strings.TrimSpace(raw["date"]),
			Account:     r.account,
			Amount:      r.rawAmount,
			Dept:        r.dept,
			SourceFile:  r.sourceFile,
			SourceSheet: r.sourceSheet,
			SourceRow:   r.sourceRow,
		})
	}

	for _, raw := range t.rows {
		r := &record{
			account:     strings.TrimSpace(raw["account"]),
			dept:        strings.TrimSpace(raw["dept"]),
			subaccount:  strings.TrimSpace(raw["subaccount"]),
			memo:        strings.TrimSpace(raw["memo"]),
			inout:       strings.TrimSpace(raw["inout"]),
			activity:    strings.TrimSpace(raw["activity"]),
			remarks:     strings.TrimSpace(raw["remarks"]),
			revenueFlag: strings.TrimSpace(raw["revenue_flag"]),
			rawAmount:   strings.TrimSpace(raw["amount"]),
			sourceFile:  raw["source_file"],
			sourceSheet: raw["source_sheet"],
			sourceRow:   raw["source_row"],
		}

		if r.account == "" {
			exclude(r, raw, reasonMissingAccount)
			continue
		}
		d, ok := parseDay(raw["date"], s.DateFormat)
		if !ok {
			exclude(r, raw, reasonInvalidDate)
			continue
		}
		r.date = d
		if d.Year() != ru.year {
			exclude(r, raw, reasonOutOfPeriod)
			continue
		}
		if r.rawAmount == "" {
			exclude(r, raw, reasonNonNumericAmount)
			continue
		}
		amt, ok := toDecimal(r.rawAmount, s.StripCurrencySymbols)
		if !ok {
			exclude(r, raw, reasonNonNumericAmount)
			continue
		}
		r.amount = amt

		fp := r.fingerprint()
		if seen[fp] {
			exclude(r, raw, reasonDuplicate)
			continue
		}
		seen[fp] = true

		if r.activity != "" {
			key := normKey(r.activity)
			if ru.activityInclude != nil && !ru.activityInclude[key] {
				exclude(r, raw, reasonActivityExcluded)
				continue
			}
			if ru.activityExclude[key] {
				exclude(r, raw, reasonActivityExcluded)
				continue
			}
		}

		if ru.expenseExclude.matches(r.matchFields()) {
			exclude(r, raw, reasonNonBusiness)
			continue
		}

		cat, reason := classify(r, ru)
		if reason != "" {
			exclude(r, raw, reason)
			continue
		}

		included = append(included, Row{
			Date:        r.date.Format(isoStamp),
			Month:       fmt.Sprintf("%04d-%02d", r.date.Year(), int(r.date.Month())),
			Account:     r.account,
			Dept:        r.dept,
			Subaccount:  r.subaccount,
			Memo:        r.memo,
			InOut:       r.inout,
			Activity:    r.activity,
			Remarks:     r.remarks,
			Amount:      quantize(r.amount).StringFixed(2),
			Category:    cat,
			SourceFile:  r.sourceFile,
			SourceSheet: r.sourceSheet,
			SourceRow:   r.sourceRow,
		})
	}
	return included, excluded
}

func countReasons(exclusions []Exclusion) map[string]int {
	counts := make(map[string]int)
	for _, e := range exclusions {
		counts[e.Reason]++
	}
	return counts
}
