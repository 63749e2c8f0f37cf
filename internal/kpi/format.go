package kpi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RajKKapadia1996/RAJ-SUPPLYCHAIN/pkg/contracts/domain"
)

// MissingValue is the placeholder rendered for absent values, matching the
// en dash the simulation workbook exports use.
const MissingValue = "–"

// percentTokens are the KPI-name fragments that mark a percentage metric in
// the simulation's KPI naming scheme.
var percentTokens = []string{
	"%", "service", "availability", "reliab", "rejection", "obsolete",
	"utilization", "adherence", "cost", "shelf", "osa",
}

// Classify returns the display kind for a KPI name. Currency wins over
// percent when a name matches both, as with "Gross margin (%)".
func Classify(kpi string) domain.ValueKind {
	name := strings.ToLower(kpi)

	if strings.Contains(name, "margin") || strings.Contains(name, "€") {
		return domain.ValueKindCurrency
	}
	for _, tok := range percentTokens {
		if strings.Contains(name, tok) {
			return domain.ValueKindPercent
		}
	}
	return domain.ValueKindPlain
}

// FormatValue renders a value for display: whole euros with thousand
// separators, percentages with one decimal, plain values with two. Missing
// values render as MissingValue.
func FormatValue(kind domain.ValueKind, v *float64) string {
	if v == nil {
		return MissingValue
	}

	switch kind {
	case domain.ValueKindCurrency:
		return "€" + groupThousands(*v, 0)
	case domain.ValueKindPercent:
		return fmt.Sprintf("%.1f%%", *v)
	default:
		return groupThousands(*v, 2)
	}
}

// FormatDelta renders a round-over-round difference with an explicit sign.
// Missing deltas render as the empty string so card and table renderers can
// omit them.
func FormatDelta(kind domain.ValueKind, d *float64) string {
	if d == nil {
		return ""
	}

	switch kind {
	case domain.ValueKindCurrency:
		return signedThousands(*d, 0)
	case domain.ValueKindPercent:
		return fmt.Sprintf("%+.1f%%", *d)
	default:
		return fmt.Sprintf("%+.2f", *d)
	}
}

// groupThousands renders v with comma thousand separators and the given
// number of decimals.
func groupThousands(v float64, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	if len(intPart) > 3 {
		var b strings.Builder
		b.Grow(len(intPart) + len(intPart)/3)

		lead := len(intPart) % 3
		if lead == 0 {
			lead = 3
		}
		b.WriteString(intPart[:lead])
		for i := lead; i < len(intPart); i += 3 {
			b.WriteByte(',')
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	out := intPart + frac
	if neg {
		out = "-" + out
	}
	return out
}

// signedThousands is groupThousands with an always-present sign.
func signedThousands(v float64, decimals int) string {
	s := groupThousands(v, decimals)
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}
