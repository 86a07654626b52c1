package zatca

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 redondea a 2 decimales, mitad alejándose de cero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Fmt formatea un monto con exactamente 2 decimales ("12.50", nunca "12.5").
// Todos los montos del XML pasan por aquí.
func Fmt(d decimal.Decimal) string {
	return Round2(d).StringFixed(2)
}

// Float2 devuelve el monto redondeado como número para el JSON.
func Float2(d decimal.Decimal) float64 {
	return Round2(d).InexactFloat64()
}

// Percent calcula base * rate / 100.
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}
