package liquor

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// Distribute reparte total entre days días: cada día recibe floor(total/days), el resto se reparte
// de a una unidad (y la fracción sobrante en un solo día) y el resultado se baraja con rng.
// La suma del resultado siempre es igual a total.
func Distribute(total decimal.Decimal, days int, rng *rand.Rand) []decimal.Decimal {
	if days <= 0 {
		return []decimal.Decimal{}
	}
	out := make([]decimal.Decimal, days)
	for i := range out {
		out[i] = decimal.Zero
	}
	if !total.IsPositive() {
		return out
	}

	n := decimal.NewFromInt(int64(days))
	base := total.Div(n).Floor()
	remainder := total.Sub(base.Mul(n))
	whole := remainder.Floor()
	frac := remainder.Sub(whole)

	extra := int(whole.IntPart())
	for i := range out {
		out[i] = base
		if i < extra {
			out[i] = out[i].Add(decimal.NewFromInt(1))
		}
	}
	if frac.IsPositive() {
		// extra < days siempre, porque remainder < days
		out[extra] = out[extra].Add(frac)
	}

	if rng != nil {
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	} else {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}
