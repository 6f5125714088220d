// Package trade infers a service trade from free-text category and
// business-unit identifiers.
//
// Classification is keyword-based and English-only: category strings from
// non-English locales fall through to Other rather than being guessed at.
// Callers that know the lead's locale can check it with EnglishLocale first.
package trade

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/sells-group/attribution-cli/internal/model"
)

// hvacKeywords and plumbingKeywords are checked as case-insensitive
// substrings. HVAC is checked first; the first matching trade wins.
var hvacKeywords = []string{
	"hvac",
	"heating",
	"heat_pump",
	"furnace",
	"cooling",
	"air_condition",
	"air condition",
	"a/c",
}

var plumbingKeywords = []string{
	"plumb",
	"drain",
	"sewer",
	"water_heater",
	"water heater",
	"repipe",
}

// Classify infers a trade from a free-text category identifier such as
// "xcat:service_area_business_hvac". Returns "" for empty input and
// model.TradeOther when no keyword matches.
func Classify(category string) model.Trade {
	if category == "" {
		return ""
	}
	return classifyText(category)
}

// ClassifyBusinessUnit infers a trade from a field-service business-unit name
// such as "HVAC Department". Same keyword sets as Classify; used as the
// secondary classifier by the lowest-confidence match rule.
func ClassifyBusinessUnit(name string) model.Trade {
	if name == "" {
		return ""
	}
	return classifyText(name)
}

func classifyText(s string) model.Trade {
	s = strings.ToLower(s)
	for _, kw := range hvacKeywords {
		if strings.Contains(s, kw) {
			return model.TradeHVAC
		}
	}
	for _, kw := range plumbingKeywords {
		if strings.Contains(s, kw) {
			return model.TradePlumbing
		}
	}
	return model.TradeOther
}

// EnglishLocale reports whether a BCP 47 locale tag (e.g. "en_US") is
// English. Empty or unparseable tags count as English, the platform default.
func EnglishLocale(locale string) bool {
	if locale == "" {
		return true
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return true
	}
	base, _ := tag.Base()
	return base.String() == "en"
}
