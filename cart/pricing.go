package cart

import "github.com/shopspring/decimal"

// LineTotal is unitPrice * quantity rounded to cents, half up. Each line is
// rounded independently before summation so fractional cents never
// accumulate across lines.
func LineTotal(line Line) decimal.Decimal {
	return line.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity)).Round(2)
}

// CartTotal sums the rounded line totals and rounds the sum once more to
// cents. Pure and side-effect free, safe to recompute on every mutation.
func CartTotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineTotal(line))
	}
	return total.Round(2)
}
