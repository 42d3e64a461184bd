package main

import "regexp"

const (
	catRevenue = "revenue"
	catExpense = "expense"
	catOther   = "other"
)

// Directional tokens recognized in an inout column, already normKey'd.
var (
	inflowTokens = map[string]bool{
		"in": true, "income": true, "deposit": true,
		"入": true, "入金": true, "収入": true,
	}
	outflowTokens = map[string]bool{
		"out": true, "expense": true, "withdrawal": true,
		"出": true, "出金": true, "支出": true,
	}
)

// ruleGroup is a compiled set of (target field, pattern list) pairs. All the
// classification rule groups evaluate through the same predicate: does any
// pattern match the normalized text of its target field.
type ruleGroup struct {
	perField map[string][]*regexp.Regexp
}

// compileRuleGroup compiles a config mapping like
//
//	expense_exclude:
//	  memo_regex: ["プライベート", "私用"]
//	  inout_regex: ["振替"]
//
// into a ruleGroup. Malformed patterns are skipped; one bad pattern must
// never abort a classification pass.
func compileRuleGroup(cfg map[string][]string) ruleGroup {
	g := ruleGroup{}
	for key, patterns := range cfg {
		field := key
		if n := len(key) - len("_regex"); n > 0 && key[n:] == "_regex" {
			field = key[:n]
		}
		var compiled []*regexp.Regexp
		for _, pat := range patterns {
			rx, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				continue
			}
			compiled = append(compiled, rx)
		}
		if len(compiled) == 0 {
			continue
		}
		if g.perField == nil {
			g.perField = make(map[string][]*regexp.Regexp)
		}
		g.perField[field] = compiled
	}
	return g
}

func (g ruleGroup) empty() bool { return len(g.perField) == 0 }

func (g ruleGroup) matches(fields map[string]string) bool {
	for field, patterns := range g.perField {
		text := fields[field]
		if text == "" {
			continue
		}
		t := normText(text)
		for _, rx := range patterns {
			if rx.MatchString(t) {
				return true
			}
		}
	}
	return false
}

// classify assigns a category through the ordered rule chain:
//
//  1. account -> category map
//  2. directional inout override (with the revenue-flag gate on inflows)
//  3. expense inclusion patterns
//  4. revenue exclusion patterns (an exclusion, not a category)
//  5. revenue-flag fallback for non-negative amounts
//  6. sign of the amount
//
// Step 2 is the one rule allowed to override an earlier assignment, and it
// also flips the amount to its absolute value. A non-empty reason means the
// record is excluded instead of categorized. Classification depends only on
// the record fields and the ruleset, so re-running it on already categorized
// output is a no-op.
func classify(r *record, ru ruleset) (category, reason string) {
	var cat string
	if c, ok := ru.categoryMap[r.account]; ok {
		cat = c
	}

	if io := normKey(r.inout); io != "" {
		switch {
		case outflowTokens[io]:
			cat = catExpense
			r.amount = r.amount.Abs()
		case inflowTokens[io]:
			if ru.revenueFlags != nil && !ru.revenueFlags[normKey(r.revenueFlag)] {
				cat = catOther
			} else {
				cat = catRevenue
			}
			r.amount = r.amount.Abs()
		}
	}

	fields := r.matchFields()
	if cat == "" && ru.expenseInclude.matches(fields) {
		cat = catExpense
	}
	if cat == "" && ru.revenueExclude.matches(fields) {
		return "", reasonRevenueExcluded
	}
	if cat == "" && ru.revenueFlags != nil && !r.amount.IsNegative() && r.revenueFlag != "" {
		if ru.revenueFlags[normKey(r.revenueFlag)] {
			cat = catRevenue
		} else {
			cat = catOther
		}
	}
	if cat == "" {
		if r.amount.IsNegative() {
			cat = catExpense
		} else {
			cat = catRevenue
		}
	}
	return cat, ""
}
