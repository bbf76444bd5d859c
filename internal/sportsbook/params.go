package sportsbook

import "time"

// Valores padrão do protocolo (token com 9 casas decimais)
const (
	DefaultProtocolFeeBPS     BPS = 500
	DefaultWinnerShareBPS     BPS = 2500
	DefaultSeasonPoolShareBPS BPS = 200

	DefaultClaimWindow                = 24 * time.Hour
	DefaultSeedPerMatch        uint64 = 3_000 * TokenUnit
	DefaultVirtualLiquidityMul uint64 = 12_000_000
	DefaultMaxLockedOdds       Odds   = 100 * OneX
	DefaultMaxBetAmount        uint64 = 10_000 * TokenUnit
	DefaultMaxBetsPerRound     uint64 = 2_000
	DefaultBountyBPS           BPS    = 1_000
)

// FeeConfig é fixado no initialize e guardado no registro do pool
type FeeConfig struct {
	ProtocolFeeBPS     BPS `json:"protocol_fee_bps" yaml:"protocol_fee_bps"`
	WinnerShareBPS     BPS `json:"winner_share_bps" yaml:"winner_share_bps"`
	SeasonPoolShareBPS BPS `json:"season_pool_share_bps" yaml:"season_pool_share_bps"`
}

func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		ProtocolFeeBPS:     DefaultProtocolFeeBPS,
		WinnerShareBPS:     DefaultWinnerShareBPS,
		SeasonPoolShareBPS: DefaultSeasonPoolShareBPS,
	}
}

// Validate exige que a soma dos basis points não passe de 100%
func (f FeeConfig) Validate() error {
	sum := uint64(f.ProtocolFeeBPS) + uint64(f.WinnerShareBPS) + uint64(f.SeasonPoolShareBPS)
	if sum > BPSDenominator {
		return ErrInvalidConfig
	}
	return nil
}

// Params é a política do motor: janela de claim, seed, liquidez virtual e limites.
// É gravada no registro no Initialize; dali em diante vale a cópia do registro.
type Params struct {
	ClaimWindow                time.Duration `json:"claim_window"`
	SeedPerMatch               uint64        `json:"seed_per_match"`
	SeedWeights                [3]uint64     `json:"seed_weights"` // casa, fora, empate
	VirtualLiquidityMultiplier uint64        `json:"virtual_liquidity_multiplier"`
	MaxLockedOdds              Odds          `json:"max_locked_odds"`
	MaxBetAmount               uint64        `json:"max_bet_amount"`
	// MaxBetsPerRound limita o settle, que relê todas as apostas da rodada numa transação
	MaxBetsPerRound uint64 `json:"max_bets_per_round"`
	BountyBPS       BPS    `json:"bounty_bps"`
}

func DefaultParams() Params {
	return Params{
		ClaimWindow:                DefaultClaimWindow,
		SeedPerMatch:               DefaultSeedPerMatch,
		SeedWeights:                EqualThirds(),
		VirtualLiquidityMultiplier: DefaultVirtualLiquidityMul,
		MaxLockedOdds:              DefaultMaxLockedOdds,
		MaxBetAmount:               DefaultMaxBetAmount,
		MaxBetsPerRound:            DefaultMaxBetsPerRound,
		BountyBPS:                  DefaultBountyBPS,
	}
}

// EqualThirds divide o seed em terços; o resto da divisão fica com a casa
func EqualThirds() [3]uint64 { return [3]uint64{1, 1, 1} }

func (p Params) Validate() error {
	switch {
	case p.ClaimWindow <= 0,
		p.SeedPerMatch == 0,
		p.SeedWeights[0] == 0, p.SeedWeights[1] == 0, p.SeedWeights[2] == 0,
		p.SeedWeights[0] > 1_000_000, p.SeedWeights[1] > 1_000_000, p.SeedWeights[2] > 1_000_000,
		p.VirtualLiquidityMultiplier == 0,
		p.MaxLockedOdds < OneX,
		p.MaxBetAmount == 0,
		p.MaxBetsPerRound == 0,
		uint64(p.BountyBPS) > BPSDenominator:
		return ErrInvalidConfig
	}
	return nil
}

// VirtualLiquidity é seed × multiplicador, com clamp em MaxUint64 em vez de wraparound
func (p Params) VirtualLiquidity() uint64 {
	return saturatingMul(p.SeedPerMatch, p.VirtualLiquidityMultiplier)
}

// seedSplit reparte SeedPerMatch pelos pesos; o resto do arredondamento vai para a casa
func (p Params) seedSplit() (home, away, draw uint64, err error) {
	total := p.SeedWeights[0] + p.SeedWeights[1] + p.SeedWeights[2]
	if away, err = mulDiv(p.SeedPerMatch, p.SeedWeights[1], total); err != nil {
		return 0, 0, 0, err
	}
	if draw, err = mulDiv(p.SeedPerMatch, p.SeedWeights[2], total); err != nil {
		return 0, 0, 0, err
	}
	home = p.SeedPerMatch - away - draw
	return home, away, draw, nil
}

// SeedPerRound é o total retirado do LP ao semear as dez partidas
func (p Params) SeedPerRound() (uint64, error) {
	return mulDiv(p.SeedPerMatch, MatchesPerRound, 1)
}
