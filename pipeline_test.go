package main

import (
	"testing"
)

func mkTable(columns []string, rows ...map[string]string) table {
	return table{columns: columns, rows: rows}
}

func reasonsOf(exclusions []Exclusion) []string {
	out := make([]string, len(exclusions))
	for i, e := range exclusions {
		out[i] = e.Reason
	}
	return out
}

func TestPrepareTransactions(t *testing.T) {
	s := defaultSettings()
	s.ActivityInclude = nil

	t.Run("partition", func(t *testing.T) {
		ru := s.compileRules(2025)
		tbl := mkTable([]string{"date", "account", "amount", "memo"},
			map[string]string{"date": "2025-01-10", "account": "Sales", "amount": "100", "memo": "a"},
			map[string]string{"date": "2025-01-11", "account": "", "amount": "50", "memo": "b"},
			map[string]string{"date": "broken", "account": "Sales", "amount": "50", "memo": "c"},
			map[string]string{"date": "2025-01-12", "account": "Sales", "amount": "oops", "memo": "d"},
		)
		included, excluded := prepareTransactions(tbl, s, ru)
		if len(included)+len(excluded) != len(tbl.rows) {
			t.Fatalf("partition lost rows: %d included + %d excluded != %d input",
				len(included), len(excluded), len(tbl.rows))
		}
		if len(included) != 1 || included[0].Memo != "a" {
			t.Errorf("included = %+v, want only memo a", included)
		}
		want := []string{reasonMissingAccount, reasonInvalidDate, reasonNonNumericAmount}
		got := reasonsOf(excluded)
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("exclusion %d reason = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("outOfPeriod", func(t *testing.T) {
		ru := s.compileRules(2025)
		tbl := mkTable([]string{"date", "account", "amount"},
			map[string]string{"date": "2024-12-31", "account": "Sales", "amount": "100"},
			map[string]string{"date": "2025-01-01", "account": "Sales", "amount": "100"},
			map[string]string{"date": "2026-01-01", "account": "Sales", "amount": "100"},
		)
		included, excluded := prepareTransactions(tbl, s, ru)
		if len(included) != 1 || included[0].Date != "2025-01-01" {
			t.Errorf("included = %+v, want only 2025-01-01", included)
		}
		for _, e := range excluded {
			if e.Reason != reasonOutOfPeriod {
				t.Errorf("reason = %q, want out_of_period", e.Reason)
			}
		}
	})

	t.Run("duplicateFirstWins", func(t *testing.T) {
		ru := s.compileRules(2025)
		tbl := mkTable([]string{"date", "account", "amount", "memo", "dept"},
			map[string]string{"date": "2025-03-01", "account": "Sales", "amount": "100", "memo": "振込", "dept": "east"},
			map[string]string{"date": "2025-03-01", "account": "Sales", "amount": "100.00", "memo": " 振込 ", "dept": "west"},
			map[string]string{"date": "2025-03-01", "account": "Sales", "amount": "100", "memo": "別件"},
		)
		included, excluded := prepareTransactions(tbl, s, ru)
		if len(included) != 2 {
			t.Fatalf("included %d rows, want 2", len(included))
		}
		if included[0].Dept != "east" {
			t.Errorf("first occurrence did not win: dept = %q", included[0].Dept)
		}
		if len(excluded) != 1 || excluded[0].Reason != reasonDuplicate {
			t.Errorf("excluded = %+v, want one duplicate", excluded)
		}
	})

	t.Run("activityDenyList", func(t *testing.T) {
		ru := s.compileRules(2025)
		tbl := mkTable([]string{"date", "account", "amount", "activity"},
			map[string]string{"date": "2025-04-01", "account": "Sales", "amount": "100", "activity": "要設定"},
			map[string]string{"date": "2025-04-02", "account": "Sales", "amount": "100", "activity": "営業"},
			map[string]string{"date": "2025-04-03", "account": "Sales", "amount": "100", "activity": ""},
		)
		included, excluded := prepareTransactions(tbl, s, ru)
		if len(included) != 2 {
			t.Errorf("included %d rows, want 2 (deny-list only drops 要設定)", len(included))
		}
		if len(excluded) != 1 || excluded[0].Reason != reasonActivityExcluded {
			t.Errorf("excluded = %+v, want one activity_excluded", excluded)
		}
	})

	t.Run("activityAllowList", func(t *testing.T) {
		cfg := s
		cfg.ActivityInclude = []string{"営業"}
		ru := cfg.compileRules(2025)
		tbl := mkTable([]string{"date", "account", "amount", "activity"},
			map[string]string{"date": "2025-04-01", "account": "Sales", "amount": "100", "activity": "営業"},
			map[string]string{"date": "2025-04-02", "account": "Sales", "amount": "100", "activity": "雑務"},
			map[string]string{"date": "2025-04-03", "account": "Sales", "amount": "100", "activity": ""},
		)
		included, excluded := prepareTransactions(tbl, cfg, ru)
		if len(included) != 2 {
			t.Errorf("included %d rows, want 2 (blank activity passes)", len(included))
		}
		if len(excluded) != 1 || excluded[0].Reason != reasonActivityExcluded {
			t.Errorf("excluded = %+v, want one activity_excluded", excluded)
		}
	})

	t.Run("nonBusiness", func(t *testing.T) {
		cfg := s
		cfg.ExpenseExclude = map[string][]string{"memo_regex": {"プライベート"}}
		ru := cfg.compileRules(2025)
		tbl := mkTable([]string{"date", "account", "amount", "memo"},
			map[string]string{"date": "2025-05-01", "account": "Card", "amount": "-30", "memo": "プライベート利用"},
		)
		included, excluded := prepareTransactions(tbl, cfg, ru)
		if len(included) != 0 {
			t.Errorf("included = %+v, want none", included)
		}
		if len(excluded) != 1 || excluded[0].Reason != reasonNonBusiness {
			t.Errorf("excluded = %+v, want one non_business", excluded)
		}
	})

	t.Run("revenueExcluded", func(t *testing.T) {
		cfg := s
		cfg.RevenueExclude = map[string][]string{"memo_regex": {"借入"}}
		ru := cfg.compileRules(2025)
		tbl := mkTable([]string{"date", "account", "amount", "memo"},
			map[string]string{"date": "2025-06-01", "account": "Bank", "amount": "100000", "memo": "借入金入金"},
		)
		_, excluded := prepareTransactions(tbl, cfg, ru)
		if len(excluded) != 1 || excluded[0].Reason != reasonRevenueExcluded {
			t.Errorf("excluded = %+v, want one revenue_excluded", excluded)
		}
		if excluded[0].Amount != "100000" {
			t.Errorf("exclusion amount = %q, want the raw value", excluded[0].Amount)
		}
	})

	t.Run("provenanceCarried", func(t *testing.T) {
		ru := s.compileRules(2025)
		tbl := mkTable([]string{"date", "account", "amount"},
			map[string]string{
				"date": "2025-07-01", "account": "Sales", "amount": "1,234.50",
				"source_file": "input.xlsx", "source_sheet": "7月", "source_row": "12",
			},
		)
		included, _ := prepareTransactions(tbl, s, ru)
		if len(included) != 1 {
			t.Fatalf("included %d rows, want 1", len(included))
		}
		r := included[0]
		if r.SourceFile != "input.xlsx" || r.SourceSheet != "7月" || r.SourceRow != "12" {
			t.Errorf("provenance = %q/%q/%q", r.SourceFile, r.SourceSheet, r.SourceRow)
		}
		if r.Amount != "1234.50" {
			t.Errorf("amount = %q, want 1234.50", r.Amount)
		}
		if r.Month != "2025-07" {
			t.Errorf("month = %q, want 2025-07", r.Month)
		}
	})
}
