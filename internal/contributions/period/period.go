// Package period derives a chronological ordering key from the free-form
// period labels attached to contribution-base rows.
package period

import (
	"regexp"
	"strconv"
	"strings"
)

// Unordered is the key of labels that are not recognised. It sorts after
// every recognised label.
const Unordered = 999999

var months = map[string]int{
	"jan": 1, "january": 1, "ene": 1, "enero": 1,
	"feb": 2, "february": 2, "febrero": 2,
	"mar": 3, "march": 3, "marzo": 3,
	"apr": 4, "april": 4, "abr": 4, "abril": 4,
	"may": 5, "mayo": 5,
	"jun": 6, "june": 6, "junio": 6,
	"jul": 7, "july": 7, "julio": 7,
	"aug": 8, "august": 8, "ago": 8, "agosto": 8,
	"sep": 9, "sept": 9, "september": 9, "septiembre": 9, "setiembre": 9,
	"oct": 10, "october": 10, "octubre": 10,
	"nov": 11, "november": 11, "noviembre": 11,
	"dec": 12, "december": 12, "dic": 12, "diciembre": 12,
}

var (
	yearMonth = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})$`)
	monthYear = regexp.MustCompile(`^(\d{1,2})[-/.](\d{4})$`)
	compact   = regexp.MustCompile(`^(\d{4})(\d{2})$`)
	monthOnly = regexp.MustCompile(`^\d{1,2}$`)
)

// OrderKey returns the chronological key of label and whether the label was
// recognised. Month-only labels map to 1..12, labels carrying a year map to
// year*100+month.
func OrderKey(label string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return Unordered, false
	}
	if m, ok := months[strings.TrimSuffix(s, ".")]; ok {
		return m, true
	}
	if monthOnly.MatchString(s) {
		m, _ := strconv.Atoi(s)
		if validMonth(m) {
			return m, true
		}
		return Unordered, false
	}
	for _, re := range []*regexp.Regexp{yearMonth, compact} {
		if g := re.FindStringSubmatch(s); g != nil {
			return combine(g[1], g[2])
		}
	}
	if g := monthYear.FindStringSubmatch(s); g != nil {
		return combine(g[2], g[1])
	}
	return Unordered, false
}

// Compare orders two labels by key, then by the raw label.
func Compare(a, b string) int {
	ka, _ := OrderKey(a)
	kb, _ := OrderKey(b)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	return strings.Compare(a, b)
}

func combine(year, month string) (int, bool) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	if !validMonth(m) {
		return Unordered, false
	}
	return y*100 + m, true
}

func validMonth(m int) bool {
	return m >= 1 && m <= 12
}
