package main

import (
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// columnRef accepts either a single string or a list of strings in YAML, so a
// canonical field can name several acceptable source columns.
type columnRef []string

func (c *columnRef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var one string
	if err := unmarshal(&one); err == nil {
		*c = columnRef{one}
		return nil
	}
	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*c = columnRef(many)
	return nil
}

// ColumnMapping maps source column headers onto the canonical field set, by
// exact alias first and case-insensitive regex second.
type ColumnMapping struct {
	Date        columnRef `yaml:"date"`
	Account     columnRef `yaml:"account"`
	Amount      columnRef `yaml:"amount"`
	Debit       columnRef `yaml:"debit"`
	Credit      columnRef `yaml:"credit"`
	InAmount    columnRef `yaml:"in_amount"`
	OutAmount   columnRef `yaml:"out_amount"`
	Dept        columnRef `yaml:"dept"`
	Subaccount  columnRef `yaml:"subaccount"`
	Memo        columnRef `yaml:"memo"`
	InOut       columnRef `yaml:"inout"`
	Activity    columnRef `yaml:"activity"`
	Remarks     columnRef `yaml:"remarks"`
	RevenueFlag columnRef `yaml:"revenue_flag"`

	DateRegex        columnRef `yaml:"date_regex"`
	AccountRegex     columnRef `yaml:"account_regex"`
	AmountRegex      columnRef `yaml:"amount_regex"`
	DebitRegex       columnRef `yaml:"debit_regex"`
	CreditRegex      columnRef `yaml:"credit_regex"`
	InAmountRegex    columnRef `yaml:"in_amount_regex"`
	OutAmountRegex   columnRef `yaml:"out_amount_regex"`
	DeptRegex        columnRef `yaml:"dept_regex"`
	SubaccountRegex  columnRef `yaml:"subaccount_regex"`
	MemoRegex        columnRef `yaml:"memo_regex"`
	InOutRegex       columnRef `yaml:"inout_regex"`
	ActivityRegex    columnRef `yaml:"activity_regex"`
	RemarksRegex     columnRef `yaml:"remarks_regex"`
	RevenueFlagRegex columnRef `yaml:"revenue_flag_regex"`
}

// Template is a named column-mapping profile picked by matching the source
// file name or its headers. At most one template applies per file.
type Template struct {
	Name          string        `yaml:"name"`
	FilenameRegex []string      `yaml:"filename_regex"`
	HeaderRegex   []string      `yaml:"header_regex"`
	Columns       ColumnMapping `yaml:"columns"`
}

type Settings struct {
	Columns              ColumnMapping       `yaml:"columns"`
	DateFormat           string              `yaml:"date_format"`
	AccountMap           map[string]string   `yaml:"account_map"`
	CategoryMap          map[string]string   `yaml:"category_map"`
	StripCurrencySymbols []string            `yaml:"strip_currency_symbols"`
	Templates            []Template          `yaml:"templates"`
	RevenueFlagValues    []string            `yaml:"revenue_flag_values"`
	ExpenseInclude       map[string][]string `yaml:"expense_include"`
	ExpenseExclude       map[string][]string `yaml:"expense_exclude"`
	RevenueExclude       map[string][]string `yaml:"revenue_exclude"`
	ActivityInclude      []string            `yaml:"activity_include_values"`
	ActivityExclude      []string            `yaml:"activity_exclude_values"`
}

func defaultSettings() Settings {
	return Settings{
		Columns: ColumnMapping{
			Date:    columnRef{"date"},
			Account: columnRef{"account"},
			Amount:  columnRef{"amount"},
			Dept:    columnRef{"dept"},
		},
		StripCurrencySymbols: []string{"¥", "円", "JPY"},
		RevenueFlagValues:    []string{"売上入金"},
		ActivityExclude:      []string{"要設定"},
	}
}

// loadSettings reads the YAML config. A missing path yields defaults; a
// malformed file is a hard failure.
func loadSettings(path string) (Settings, error) {
	s := defaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, errors.Wrapf(err, "read config %v", path)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "parse config %v", path)
	}
	return s, nil
}

// ruleset is the compiled classification configuration passed explicitly into
// every pipeline stage that needs it.
type ruleset struct {
	categoryMap     map[string]string
	revenueFlags    map[string]bool // nil when no allow-list is configured
	expenseInclude  ruleGroup
	expenseExclude  ruleGroup
	revenueExclude  ruleGroup
	activityInclude map[string]bool // nil when unconfigured
	activityExclude map[string]bool
	year            int
}

func normSet(values []string) map[string]bool {
	if values == nil {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[normKey(v)] = true
	}
	return set
}

func (s Settings) compileRules(year int) ruleset {
	return ruleset{
		categoryMap:     s.CategoryMap,
		revenueFlags:    normSet(s.RevenueFlagValues),
		expenseInclude:  compileRuleGroup(s.ExpenseInclude),
		expenseExclude:  compileRuleGroup(s.ExpenseExclude),
		revenueExclude:  compileRuleGroup(s.RevenueExclude),
		activityInclude: normSet(s.ActivityInclude),
		activityExclude: normSet(s.ActivityExclude),
		year:            year,
	}
}
