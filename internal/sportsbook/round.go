package sportsbook

import (
	"time"

	"github.com/google/uuid"
)

// Match é um dos dez slots da rodada
type Match struct {
	Pool   MatchPool   `json:"pool"`
	Odds   LockedOdds  `json:"odds"`
	Result MatchResult `json:"result"`
}

// Round guarda os pools, odds travadas, resultados e contadores agregados de uma rodada.
// PotBalance é a parte do vault de apostas que pertence à rodada (seed + stakes + aportes do LP - pagamentos).
type Round struct {
	ID      uint64                 `json:"round_id"`
	Matches [MatchesPerRound]Match `json:"matches"`

	TotalBetVolume          uint64 `json:"total_bet_volume"`
	TotalUserDeposits       uint64 `json:"total_user_deposits"`
	TotalWinningPool        uint64 `json:"total_winning_pool"`
	TotalLosingPool         uint64 `json:"total_losing_pool"`
	TotalReservedForWinners uint64 `json:"total_reserved_for_winners"`
	TotalClaimed            uint64 `json:"total_claimed"`
	TotalPaidOut            uint64 `json:"total_paid_out"`
	ProtocolFeeCollected    uint64 `json:"protocol_fee_collected"`
	ProtocolRevenueShare    uint64 `json:"protocol_revenue_share"`
	SeasonRevenueShare      uint64 `json:"season_revenue_share"`
	SeasonFeeHeld           uint64 `json:"season_fee_held"` // parte da taxa que fica no vault até o finalize
	SeedAmount              uint64 `json:"seed_amount"`

	LockedReserve uint64 `json:"locked_reserve"`
	PotBalance    uint64 `json:"pot_balance"`
	LPShortfall   uint64 `json:"lp_shortfall"`
	NetResult     int64  `json:"net_result"`

	BetCount    uint64   `json:"bet_count"`
	ParlayCount uint64   `json:"parlay_count"`
	BetIDs      []uint64 `json:"bet_ids"`

	Seeded             bool      `json:"seeded"`
	Settled            bool      `json:"settled"`
	RevenueDistributed bool      `json:"revenue_distributed"`
	StartTime          time.Time `json:"round_start_time"`
	EndTime            time.Time `json:"round_end_time"`
}

func (r *Round) Key() uuid.UUID { return RoundKey(r.ID) }
func (r *Round) Kind() string   { return TagRound }

func newRound(id uint64, now time.Time) *Round {
	return &Round{ID: id, StartTime: now}
}

// seed pré-financia os dez pools e trava as odds de cada partida
func (r *Round) seed(p Params) (uint64, error) {
	if r.Seeded {
		return 0, ErrRoundAlreadySeeded
	}
	if r.Settled {
		return 0, ErrRoundAlreadySettled
	}
	home, away, draw, err := p.seedSplit()
	if err != nil {
		return 0, err
	}
	total, err := p.SeedPerRound()
	if err != nil {
		return 0, err
	}
	virtual := p.VirtualLiquidity()
	for i := range r.Matches {
		m := &r.Matches[i]
		m.Pool = MatchPool{Home: home, Away: away, Draw: draw, Total: p.SeedPerMatch}
		odds, err := ComputeOdds(m.Pool, virtual, p.MaxLockedOdds)
		if err != nil {
			return 0, err
		}
		odds.Locked = true
		m.Odds = odds
	}
	r.SeedAmount = total
	r.Seeded = true
	return total, nil
}

// recordBet soma o valor de uma perna no sub-pool; as odds travadas não mudam
func (r *Round) recordBet(matchIndex uint8, o Outcome, amountInPool uint64) error {
	if !r.Seeded {
		return ErrRoundNotSeeded
	}
	if r.Settled {
		return ErrRoundAlreadySettled
	}
	if int(matchIndex) >= MatchesPerRound {
		return ErrInvalidMatchIndex
	}
	m := &r.Matches[matchIndex]
	if !m.Odds.Locked {
		return ErrOddsNotLocked
	}
	if err := m.Pool.add(o, amountInPool); err != nil {
		return err
	}
	volume, err := addU64(r.TotalBetVolume, amountInPool)
	if err != nil {
		return err
	}
	r.TotalBetVolume = volume
	return nil
}

// settle grava os resultados finais e agrega os pools vencedores e perdedores.
// Não movimenta fundos.
func (r *Round) settle(results []uint8, now time.Time) error {
	if r.Settled {
		return ErrRoundAlreadySettled
	}
	if !r.Seeded {
		return ErrRoundNotSeeded
	}
	if len(results) != MatchesPerRound {
		return ErrMatchResultsIncomplete
	}
	for _, code := range results {
		if code == 0 {
			return ErrMatchResultsIncomplete
		}
		if code > uint8(ResultDraw) {
			return ErrInvalidOutcome
		}
	}
	var winning, losing uint64
	for i, code := range results {
		m := &r.Matches[i]
		if !m.Odds.Locked {
			return ErrOddsNotLocked
		}
		m.Result = MatchResultFromCode(code)
		won, _ := m.Result.Outcome()
		w := m.Pool.Amount(won)
		var err error
		if winning, err = addU64(winning, w); err != nil {
			return err
		}
		if losing, err = addU64(losing, m.Pool.Total-w); err != nil {
			return err
		}
	}
	r.TotalWinningPool = winning
	r.TotalLosingPool = losing
	r.Settled = true
	r.EndTime = now
	return nil
}

// Results devolve os códigos 1/2/3 (0 = pendente) das dez partidas
func (r *Round) Results() []uint8 {
	out := make([]uint8, MatchesPerRound)
	for i, m := range r.Matches {
		out[i] = m.Result.Code()
	}
	return out
}

// quote calcula Σ(valor × odd travada) / escala e aplica o multiplicador da parlay
func (r *Round) quote(preds []Prediction, multiplier Odds) (uint64, error) {
	amounts := make([]uint64, len(preds))
	odds := make([]Odds, len(preds))
	for i, p := range preds {
		if int(p.MatchIndex) >= MatchesPerRound {
			return 0, ErrInvalidMatchIndex
		}
		amounts[i] = p.AmountInPool
		odds[i] = r.Matches[p.MatchIndex].Odds.For(p.Outcome)
	}
	base, err := weightedPayout(amounts, odds)
	if err != nil {
		return 0, err
	}
	return multiplier.Apply(base)
}

// wins indica se todas as pernas acertaram o resultado (semântica de parlay)
func (r *Round) wins(preds []Prediction) bool {
	if !r.Settled || len(preds) == 0 {
		return false
	}
	for _, p := range preds {
		if int(p.MatchIndex) >= MatchesPerRound {
			return false
		}
		won, ok := r.Matches[p.MatchIndex].Result.Outcome()
		if !ok || won != p.Outcome {
			return false
		}
	}
	return true
}
