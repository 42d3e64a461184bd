package main

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normKey folds text for comparison: NFKC (full-width digits and katakana
// variants collapse to their compatibility forms), trim, lowercase.
func normKey(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}

// normText is normKey without the trim, used for regex matching over field
// values.
func normText(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// canonical fields in resolution order. Aliases are tried for every field
// first; regex hints only for fields the aliases left unresolved.
var fieldOrder = []string{
	"date", "account", "amount", "debit", "credit", "in_amount", "out_amount",
	"dept", "subaccount", "memo", "inout", "activity", "remarks", "revenue_flag",
}

func (m ColumnMapping) aliases(field string) columnRef {
	switch field {
	case "date":
		return m.Date
	case "account":
		return m.Account
	case "amount":
		return m.Amount
	case "debit":
		return m.Debit
	case "credit":
		return m.Credit
	case "in_amount":
		return m.InAmount
	case "out_amount":
		return m.OutAmount
	case "dept":
		return m.Dept
	case "subaccount":
		return m.Subaccount
	case "memo":
		return m.Memo
	case "inout":
		return m.InOut
	case "activity":
		return m.Activity
	case "remarks":
		return m.Remarks
	case "revenue_flag":
		return m.RevenueFlag
	}
	return nil
}

func (m ColumnMapping) regexHints(field string) columnRef {
	switch field {
	case "date":
		return m.DateRegex
	case "account":
		return m.AccountRegex
	case "amount":
		return m.AmountRegex
	case "debit":
		return m.DebitRegex
	case "credit":
		return m.CreditRegex
	case "in_amount":
		return m.InAmountRegex
	case "out_amount":
		return m.OutAmountRegex
	case "dept":
		return m.DeptRegex
	case "subaccount":
		return m.SubaccountRegex
	case "memo":
		return m.MemoRegex
	case "inout":
		return m.InOutRegex
	case "activity":
		return m.ActivityRegex
	case "remarks":
		return m.RemarksRegex
	case "revenue_flag":
		return m.RevenueFlagRegex
	}
	return nil
}

// buildRenames resolves existing source headers to canonical field names.
// Resolution never fails; fields with no matching header are simply absent.
func (m ColumnMapping) buildRenames(existing []string) map[string]string {
	mapping := make(map[string]string)
	resolved := make(map[string]bool)

	for _, field := range fieldOrder {
		for _, cand := range m.aliases(field) {
			if containsString(existing, cand) {
				if _, taken := mapping[cand]; !taken {
					mapping[cand] = field
					resolved[field] = true
				}
				break
			}
		}
	}

	for _, field := range fieldOrder {
		if resolved[field] {
			continue
		}
		src := firstRegexMatch(m.regexHints(field), existing)
		if src == "" {
			continue
		}
		if _, taken := mapping[src]; !taken {
			mapping[src] = field
		}
	}
	return mapping
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// firstRegexMatch returns the first existing header whose normalized form
// matches any of the given patterns. Malformed patterns are skipped.
func firstRegexMatch(patterns columnRef, existing []string) string {
	for _, pat := range patterns {
		rx, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			continue
		}
		for _, col := range existing {
			if rx.MatchString(normKey(col)) {
				return col
			}
		}
	}
	return ""
}

// selectTemplate picks the first template whose filename patterns match the
// source path, or whose header patterns match any normalized column name.
func selectTemplate(templates []Template, columns []string, source string) *Template {
	for i := range templates {
		t := &templates[i]
		for _, pat := range t.FilenameRegex {
			rx, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				continue
			}
			if rx.MatchString(source) {
				return t
			}
		}
		for _, pat := range t.HeaderRegex {
			rx, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				continue
			}
			for _, col := range columns {
				if rx.MatchString(normKey(col)) {
					return t
				}
			}
		}
	}
	return nil
}

// resolveRenames builds the rename map for one source file: the matching
// template first, augmented by the global mapping for any canonical field the
// template left unmapped.
func resolveRenames(s Settings, columns []string, source string) map[string]string {
	tmpl := selectTemplate(s.Templates, columns, source)
	if tmpl == nil {
		return s.Columns.buildRenames(columns)
	}
	renames := tmpl.Columns.buildRenames(columns)
	mapped := make(map[string]bool, len(renames))
	for _, tgt := range renames {
		mapped[tgt] = true
	}
	for src, tgt := range s.Columns.buildRenames(columns) {
		if _, taken := renames[src]; taken || mapped[tgt] {
			continue
		}
		renames[src] = tgt
	}
	return renames
}
