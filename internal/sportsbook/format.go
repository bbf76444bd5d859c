package sportsbook

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatTokens converte unidades base em texto decimal ("166.25"). Só para exibição.
func FormatTokens(amount uint64) string {
	return fromUnits(amount).Shift(-TokenDecimals).String()
}

// FormatOdds converte odds em ponto fixo para texto ("1.75x")
func FormatOdds(o Odds) string {
	return fromUnits(uint64(o)).Shift(-9).StringFixed(2) + "x"
}

// FormatBPS mostra basis points como percentual ("5%")
func FormatBPS(b BPS) string {
	return decimal.NewFromInt(int64(b)).Shift(-2).String() + "%"
}

// ParseTokens lê um valor decimal de tokens ("100.5") em unidades base, truncando além de 9 casas
func ParseTokens(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	units := d.Shift(TokenDecimals).Truncate(0)
	if units.BigInt().BitLen() > 64 {
		return 0, ErrCalculationOverflow
	}
	return units.BigInt().Uint64(), nil
}

func fromUnits(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
