package loader

import (
	"strconv"
	"strings"
)

// missingMarkers are the cell contents treated as an absent value. The
// workbook exports write en or em dashes, hand-edited files "n/a", and
// pandas round-trips the literal "nan".
var missingMarkers = map[string]struct{}{
	"":    {},
	"-":   {},
	"–":   {},
	"—":   {},
	"n/a": {},
	"na":  {},
	"nan": {},
}

// parseCell converts one raw cell into an optional numeric value. Percent
// signs, euro signs, thousands separators and inner whitespace are
// stripped before parsing, so "1,234.5", "€1,234" and "95.0 %" all parse.
// Missing markers yield (nil, true); anything else non-numeric yields
// ok=false so the caller can fail the load with the cell's position.
func parseCell(raw string) (*float64, bool) {
	s := strings.TrimSpace(raw)
	if _, missing := missingMarkers[strings.ToLower(s)]; missing {
		return nil, true
	}

	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}
