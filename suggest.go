package main

import (
	"sort"
	"strings"

	"github.com/jbrukh/bayesian"
)

type suggester struct {
	cls     *bayesian.Classifier
	classes []bayesian.Class
}

// newSuggester trains a TF-IDF naive Bayes model on the account to category
// mapping. Each mapped account name becomes a training document for its
// category. Returns nil when the mapping covers fewer than two categories,
// which is too little signal to rank anything.
func newSuggester(categoryMap map[string]string) *suggester {
	byCat := make(map[string][][]string)
	for account, cat := range categoryMap {
		terms := tokenize(account)
		if len(terms) == 0 {
			continue
		}
		byCat[cat] = append(byCat[cat], terms)
	}
	if len(byCat) < 2 {
		return nil
	}

	cats := make([]string, 0, len(byCat))
	for cat := range byCat {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	classes := make([]bayesian.Class, len(cats))
	for i, cat := range cats {
		classes[i] = bayesian.Class(cat)
	}
	cls := bayesian.NewClassifierTfIdf(classes...)
	for i, cat := range cats {
		for _, terms := range byCat[cat] {
			cls.Learn(terms, classes[i])
		}
	}
	cls.ConvertTermsFreqToTfIdf()
	return &suggester{cls: cls, classes: classes}
}

// suggest returns the best-scoring category for an account name, or "" when
// the name yields no usable terms.
func (s *suggester) suggest(account string) string {
	terms := tokenize(account)
	if len(terms) == 0 {
		return ""
	}
	_, idx, _ := s.cls.LogScores(terms)
	if idx < 0 || idx >= len(s.classes) {
		return ""
	}
	return string(s.classes[idx])
}

// tokenize splits an account name into normalized terms. Whitespace and a
// few common punctuation separators delimit terms; single runs of CJK text
// stay whole, which works well enough for short ledger account names.
func tokenize(s string) []string {
	key := normKey(s)
	fields := strings.FieldsFunc(key, func(r rune) bool {
		switch r {
		case ' ', '\t', '/', '-', '_', ':', '・', '、', '（', '）', '(', ')':
			return true
		}
		return false
	})
	var terms []string
	for _, f := range fields {
		if f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}
