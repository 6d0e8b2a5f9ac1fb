package pricing

import (
	"strings"

	"github.com/xxxsen/superauth/internal/config"
)

const (
	FancyTypeRepeated    = "Repeated"
	FancyTypeSequential  = "Sequential"
	FancyTypePalindrome  = "Palindrome"
	FancyTypeAlternating = "Alternating"
	FancyTypePremium     = "Premium"
	FancyTypeSpecial     = "Special Pattern"
)

var premiumWords = []string{"VIP", "CEO", "GOD", "BOSS", "KING", "QUEEN"}

// Quote is the price breakdown for a username. Fancy is set when at least one
// pattern matched; a multi-pattern match is reported as Special Pattern.
type Quote struct {
	Fancy      bool
	FancyType  string
	BasePrice  int64
	FancyPrice int64
	TotalPrice int64
}

type Detector struct {
	cfg config.PricingConfig
}

func NewDetector(cfg config.PricingConfig) *Detector {
	return &Detector{cfg: cfg}
}

func (d *Detector) Quote(username string) Quote {
	quote := Quote{BasePrice: d.cfg.BasePrice}
	name := strings.ToUpper(username)

	type match struct {
		kind  string
		price int64
	}
	var matches []match
	if hasRepeated(name) {
		matches = append(matches, match{FancyTypeRepeated, d.cfg.RepeatedPrice})
	}
	if hasSequential(name) {
		matches = append(matches, match{FancyTypeSequential, d.cfg.SequentialPrice})
	}
	if hasPalindrome(name) {
		matches = append(matches, match{FancyTypePalindrome, d.cfg.PalindromePrice})
	}
	if hasAlternating(name) {
		matches = append(matches, match{FancyTypeAlternating, d.cfg.AlternatingPrice})
	}
	if hasPremium(name) {
		matches = append(matches, match{FancyTypePremium, d.cfg.PremiumPrice})
	}

	switch len(matches) {
	case 0:
	case 1:
		quote.Fancy = true
		quote.FancyType = matches[0].kind
		quote.FancyPrice = matches[0].price
	default:
		quote.Fancy = true
		quote.FancyType = FancyTypeSpecial
		quote.FancyPrice = d.cfg.SpecialPrice
	}
	quote.TotalPrice = quote.BasePrice + quote.FancyPrice
	return quote
}

// hasRepeated reports whether any character occurs three or more times in a
// row.
func hasRepeated(name string) bool {
	run := 1
	for i := 1; i < len(name); i++ {
		if name[i] == name[i-1] {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

var sequentialRuns = buildSequentialRuns()

// buildSequentialRuns lists every ascending three-character run of letters
// and digits. The digit alphabet ends in 0, so 890 counts while 012 does
// not.
func buildSequentialRuns() []string {
	var runs []string
	for _, alphabet := range []string{"ABCDEFGHIJKLMNOPQRSTUVWXYZ", "1234567890"} {
		for i := 0; i+3 <= len(alphabet); i++ {
			runs = append(runs, alphabet[i:i+3])
		}
	}
	return runs
}

func hasSequential(name string) bool {
	for _, run := range sequentialRuns {
		if strings.Contains(name, run) {
			return true
		}
	}
	return false
}

// hasPalindrome reports whether any six-character window mirrors itself
// (abccba).
func hasPalindrome(name string) bool {
	for i := 0; i+5 < len(name); i++ {
		if name[i] == name[i+5] && name[i+1] == name[i+4] && name[i+2] == name[i+3] {
			return true
		}
	}
	return false
}

// hasAlternating reports whether any six-character window repeats its first
// three characters (abcabc).
func hasAlternating(name string) bool {
	for i := 0; i+5 < len(name); i++ {
		if name[i] == name[i+3] && name[i+1] == name[i+4] && name[i+2] == name[i+5] {
			return true
		}
	}
	return false
}

func hasPremium(name string) bool {
	for _, word := range premiumWords {
		if strings.Contains(name, word) {
			return true
		}
	}
	return false
}
