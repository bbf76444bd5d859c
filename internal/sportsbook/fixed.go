package sportsbook

import (
	"math"
	"math/bits"
)

// Escalas de ponto fixo. Odds e multiplicadores usam 1e9, taxas usam basis points.
const (
	OddsScale      uint64 = 1_000_000_000
	BPSDenominator uint64 = 10_000

	// TokenDecimals é a precisão do token de apostas (9 casas)
	TokenDecimals = 9
	TokenUnit     uint64 = 1_000_000_000
)

// Odds é um multiplicador em ponto fixo escalado por OddsScale (1.75x = 1_750_000_000)
type Odds uint64

// OneX é a odd neutra (1.0x)
const OneX Odds = Odds(OddsScale)

// Apply retorna amount × odds / OddsScale sem passar por float
func (o Odds) Apply(amount uint64) (uint64, error) {
	return mulDiv(amount, uint64(o), OddsScale)
}

// BPS representa basis points (1/100 de um por cento)
type BPS uint16

// Of retorna amount × bps / 10_000
func (b BPS) Of(amount uint64) (uint64, error) {
	return mulDiv(amount, uint64(b), BPSDenominator)
}

// mulDiv calcula a*b/d com intermediário de 128 bits; erro se d==0 ou se o quociente não cabe em 64 bits
func mulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrCalculationOverflow
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, ErrCalculationOverflow
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, nil
}

func addU64(a, b uint64) (uint64, error) {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrCalculationOverflow
	}
	return s, nil
}

// subU64 devolve errUnderflow (erro de domínio do chamador) quando b > a
func subU64(a, b uint64, errUnderflow error) (uint64, error) {
	d, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, errUnderflow
	}
	return d, nil
}

// saturatingMul é usado apenas onde o clamp no máximo é a semântica desejada (liquidez virtual)
func saturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// pariMutuelOdds calcula (total + virtual) * OddsScale / (outcome + virtual/3).
// O numerador é montado em 128 bits, então total + virtual pode passar de 64 bits.
// Quociente sem limite (denominador zero ou > 64 bits) satura em MaxUint64.
func pariMutuelOdds(total, outcome, virtual uint64) (uint64, error) {
	sum, carry := bits.Add64(total, virtual, 0)
	hi, lo := bits.Mul64(sum, OddsScale)
	hi += carry * OddsScale

	den, c := bits.Add64(outcome, virtual/3, 0)
	if c != 0 {
		return 0, ErrCalculationOverflow
	}
	if den == 0 || hi >= den {
		return math.MaxUint64, nil
	}
	q, _ := bits.Div64(hi, lo, den)
	return q, nil
}

// weightedPayout soma amount_i × odds_i em 128 bits e divide por OddsScale uma única vez
func weightedPayout(amounts []uint64, odds []Odds) (uint64, error) {
	var hi, lo uint64
	for i := range amounts {
		h, l := bits.Mul64(amounts[i], uint64(odds[i]))
		var c uint64
		lo, c = bits.Add64(lo, l, 0)
		hi, c = bits.Add64(hi, h, c)
		if c != 0 {
			return 0, ErrCalculationOverflow
		}
	}
	if hi >= OddsScale {
		return 0, ErrCalculationOverflow
	}
	q, _ := bits.Div64(hi, lo, OddsScale)
	return q, nil
}
