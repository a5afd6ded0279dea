package entities

import "strings"

const (
	HomeCurrency = "CAD"
	SeriesPrefix = "FX"
)

// DefaultCurrencies are used for metadata when no currencies are requested.
var DefaultCurrencies = []string{"USD"}

type SeriesCode string

type Pair struct {
	From string
	To   string
}

func (p Pair) SeriesCode() SeriesCode {
	return SeriesCode(SeriesPrefix + p.From + p.To)
}

// Column is the OData property name for the pair, e.g. USD_CAD.
func (p Pair) Column() string {
	return p.From + "_" + p.To
}

// ExpandPairs emits (code, CAD) then (CAD, code) for every code, in input order.
// Repeated codes produce repeated pairs.
func ExpandPairs(codes []string) []Pair {
	pairs := make([]Pair, 0, len(codes)*2)
	for _, code := range codes {
		code = strings.TrimSpace(code)
		pairs = append(pairs,
			Pair{From: code, To: HomeCurrency},
			Pair{From: HomeCurrency, To: code},
		)
	}
	return pairs
}

func SeriesCodes(pairs []Pair) []SeriesCode {
	codes := make([]SeriesCode, len(pairs))
	for i, p := range pairs {
		codes[i] = p.SeriesCode()
	}
	return codes
}

// SplitCodes splits a comma separated currency list and trims every entry.
func SplitCodes(raw string) []string {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
