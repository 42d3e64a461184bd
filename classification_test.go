package main

import (
	"testing"

	"github.com/shopspring/decimal"
)

func amt(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, ok := toDecimal(s, nil)
	if !ok {
		t.Fatalf("bad amount in test: %q", s)
	}
	return d
}

func TestClassify(t *testing.T) {
	s := Settings{
		CategoryMap: map[string]string{
			"Sales":    catRevenue,
			"Supplies": catExpense,
		},
		RevenueFlagValues: []string{"売上入金"},
		ExpenseInclude:    map[string][]string{"memo_regex": {"消耗品", "家賃"}},
		RevenueExclude:    map[string][]string{"memo_regex": {"借入", "loan"}},
	}
	ru := s.compileRules(2025)

	t.Run("categoryMap", func(t *testing.T) {
		r := &record{account: "Sales", amount: amt(t, "100")}
		cat, reason := classify(r, ru)
		if cat != catRevenue || reason != "" {
			t.Errorf("got (%q, %q), want (revenue, )", cat, reason)
		}
	})

	t.Run("outflowOverridesCategoryMap", func(t *testing.T) {
		r := &record{account: "Sales", inout: "出金", amount: amt(t, "-80")}
		cat, _ := classify(r, ru)
		if cat != catExpense {
			t.Errorf("got %q, want expense", cat)
		}
		if r.amount.String() != "80" {
			t.Errorf("amount = %s, want absolute 80", r.amount)
		}
	})

	t.Run("inflowWithRevenueFlag", func(t *testing.T) {
		r := &record{account: "Bank", inout: "入金", revenueFlag: "売上入金", amount: amt(t, "500")}
		cat, _ := classify(r, ru)
		if cat != catRevenue {
			t.Errorf("got %q, want revenue", cat)
		}
	})

	t.Run("inflowWithOtherFlag", func(t *testing.T) {
		r := &record{account: "Bank", inout: "入金", revenueFlag: "その他入金", amount: amt(t, "500")}
		cat, _ := classify(r, ru)
		if cat != catOther {
			t.Errorf("got %q, want other", cat)
		}
	})

	t.Run("inflowWithoutFlag", func(t *testing.T) {
		r := &record{account: "Bank", inout: "入金", amount: amt(t, "500")}
		cat, _ := classify(r, ru)
		if cat != catOther {
			t.Errorf("got %q, want other when an allow-list is configured", cat)
		}
	})

	t.Run("expenseIncludePattern", func(t *testing.T) {
		r := &record{account: "Bank", memo: "消耗品費 机", amount: amt(t, "-30")}
		cat, _ := classify(r, ru)
		if cat != catExpense {
			t.Errorf("got %q, want expense", cat)
		}
	})

	t.Run("loanIsRevenueExcluded", func(t *testing.T) {
		r := &record{account: "Bank", memo: "借入金の入金", amount: amt(t, "10000")}
		cat, reason := classify(r, ru)
		if cat != "" || reason != reasonRevenueExcluded {
			t.Errorf("got (%q, %q), want (, revenue_excluded)", cat, reason)
		}
	})

	t.Run("revenueFlagFallback", func(t *testing.T) {
		r := &record{account: "Bank", revenueFlag: "売上入金", amount: amt(t, "250")}
		cat, _ := classify(r, ru)
		if cat != catRevenue {
			t.Errorf("got %q, want revenue", cat)
		}
		r = &record{account: "Bank", revenueFlag: "利息", amount: amt(t, "3")}
		cat, _ = classify(r, ru)
		if cat != catOther {
			t.Errorf("got %q, want other", cat)
		}
	})

	t.Run("idempotentOnOwnOutput", func(t *testing.T) {
		r := &record{account: "Bank", inout: "入金", revenueFlag: "売上入金", amount: amt(t, "-500")}
		cat1, _ := classify(r, ru)
		cat2, _ := classify(r, ru)
		if cat1 != cat2 {
			t.Errorf("classification not stable: %q then %q", cat1, cat2)
		}
		if r.amount.String() != "500" {
			t.Errorf("amount = %s, want 500 after repeated classification", r.amount)
		}
	})
}

func TestClassifySignFallback(t *testing.T) {
	ru := Settings{}.compileRules(2025)

	r := &record{account: "Bank", amount: amt(t, "-42")}
	if cat, _ := classify(r, ru); cat != catExpense {
		t.Errorf("negative amount classified as %q, want expense", cat)
	}
	r = &record{account: "Bank", amount: amt(t, "42")}
	if cat, _ := classify(r, ru); cat != catRevenue {
		t.Errorf("positive amount classified as %q, want revenue", cat)
	}
	r = &record{account: "Bank", amount: decimal.Zero}
	if cat, _ := classify(r, ru); cat != catRevenue {
		t.Errorf("zero amount classified as %q, want revenue", cat)
	}
}

func TestCompileRuleGroup(t *testing.T) {
	g := compileRuleGroup(map[string][]string{
		"memo_regex":    {"プライベート", "["},
		"account_regex": {"私用"},
	})
	if g.empty() {
		t.Fatalf("rule group unexpectedly empty")
	}
	if !g.matches(map[string]string{"memo": "プライベート利用"}) {
		t.Errorf("memo pattern did not match")
	}
	if !g.matches(map[string]string{"account": "私用口座"}) {
		t.Errorf("account pattern did not match")
	}
	if g.matches(map[string]string{"memo": "会議費"}) {
		t.Errorf("unrelated memo matched")
	}
	if g.matches(map[string]string{"dept": "プライベート"}) {
		t.Errorf("pattern matched a field it does not target")
	}

	if !compileRuleGroup(nil).empty() {
		t.Errorf("nil config should compile to an empty group")
	}
	if !compileRuleGroup(map[string][]string{"memo_regex": {"["}}).empty() {
		t.Errorf("a group of only malformed patterns should be empty")
	}
}
