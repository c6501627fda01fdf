package usecases

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
)

// Correct derives corrected permeabilities from the entered intercepts.
//
// The Klinkenberg intercept already is the slip-corrected permeability and
// is shown exactly as typed. The Forchheimer intercept is an inverse
// permeability, so its reciprocal is taken. Unparseable input becomes NaN
// and a zero intercept becomes an infinity; neither is an error.
func Correct(in entities.CorrectionInputs) entities.CorrectionResults {
	forchheimer := 1 / parseIntercept(in.ForchheimerIntercept)
	return entities.CorrectionResults{
		ForchheimerPermeability: forchheimer,
		KlinkenbergPermeability: parseIntercept(in.KlinkenbergIntercept),
		ForchheimerDisplay:      FormatExponential(forchheimer, 4),
		KlinkenbergDisplay:      in.KlinkenbergIntercept,
	}
}

func parseIntercept(s string) float64 {
	v, err := parseNumber(s)
	if err != nil {
		return math.NaN()
	}
	return v
}

// exactDigits covers the full decimal expansion of any float64.
const exactDigits = 800

// FormatExponential renders v in scientific notation with the given number
// of fractional digits and an unpadded exponent: 1000 -> "1.0000e+3".
// Rounding is half away from zero on the exact binary value, so
// 1/256 = 3.90625 renders as "3.9063e-3". Negative zero renders unsigned.
// Non-finite values render as "NaN", "Infinity" and "-Infinity".
func FormatExponential(v float64, digits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if digits < 0 {
		digits = 0
	}

	exact := new(big.Float).SetFloat64(math.Abs(v)).Text('e', exactDigits)
	idx := strings.IndexByte(exact, 'e')
	exp, _ := strconv.Atoi(exact[idx+1:])
	all := strings.Replace(exact[:idx], ".", "", 1)
	for len(all) < digits+2 {
		all += "0"
	}

	kept := []byte(all[:digits+1])
	if all[digits+1] >= '5' {
		i := len(kept) - 1
		for ; i >= 0; i-- {
			if kept[i] != '9' {
				kept[i]++
				break
			}
			kept[i] = '0'
		}
		if i < 0 {
			// 9.9999|5 carries into a new leading digit
			kept = append([]byte{'1'}, kept[:digits]...)
			exp++
		}
	}

	var b strings.Builder
	if v < 0 {
		b.WriteByte('-')
	}
	b.WriteByte(kept[0])
	if digits > 0 {
		b.WriteByte('.')
		b.Write(kept[1:])
	}
	b.WriteByte('e')
	if exp < 0 {
		b.WriteByte('-')
		exp = -exp
	} else {
		b.WriteByte('+')
	}
	b.WriteString(strconv.Itoa(exp))
	return b.String()
}
