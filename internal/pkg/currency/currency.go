package currency

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// Rates resolves an exchange rate between two ISO 4217 codes. The engine ships
// a static table; swapping in a live provider only touches this interface.
type Rates interface {
	Rate(from, to string) (decimal.Decimal, bool)
}

type pair struct {
	from string
	to   string
}

// StaticRates is a fixed bidirectional rate table. Pairs stored one way are
// resolved the other way through the reciprocal.
type StaticRates struct {
	table map[pair]decimal.Decimal
}

func NewStaticRates() *StaticRates {
	entries := map[pair]string{
		{"USD", "EUR"}: "0.92",
		{"USD", "GBP"}: "0.79",
		{"USD", "JPY"}: "147.6",
		{"USD", "AED"}: "3.6725",
		{"USD", "SAR"}: "3.75",
		{"USD", "EGP"}: "48.6",
		{"EUR", "GBP"}: "0.856",
		{"EUR", "EGP"}: "52.83",
		{"SAR", "EGP"}: "12.96",
	}

	table := make(map[pair]decimal.Decimal, len(entries))
	for p, rate := range entries {
		table[p] = decimal.RequireFromString(rate)
	}
	return &StaticRates{table: table}
}

func (r *StaticRates) Rate(from, to string) (decimal.Decimal, bool) {
	if rate, ok := r.table[pair{from, to}]; ok {
		return rate, true
	}
	if inverse, ok := r.table[pair{to, from}]; ok && !inverse.IsZero() {
		return decimal.NewFromInt(1).Div(inverse), true
	}
	return decimal.Decimal{}, false
}

// Pairs lists every (from,to) combination the table can resolve, including
// reciprocal directions.
func (r *StaticRates) Pairs() [][2]string {
	pairs := make([][2]string, 0, 2*len(r.table))
	for p := range r.table {
		pairs = append(pairs, [2]string{p.from, p.to}, [2]string{p.to, p.from})
	}
	return pairs
}

// Converter converts monetary amounts between currencies. It never fails: an
// unknown pair converts at rate 1 with a logged warning, so a gap in the rate
// table degrades a figure instead of aborting a payroll run.
type Converter struct {
	rates Rates
}

func NewConverter(rates Rates) *Converter {
	return &Converter{rates: rates}
}

func (c *Converter) Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	if from == to {
		return amount
	}

	rate, ok := c.rates.Rate(from, to)
	if !ok {
		slog.Warn("no exchange rate for pair, converting at 1:1", "from", from, "to", to)
		rate = decimal.NewFromInt(1)
	}

	return amount.Mul(rate).Round(2)
}
