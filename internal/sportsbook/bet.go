package sportsbook

import (
	"time"

	"github.com/google/uuid"
)

// parlayMultipliers é o bônus por número de pernas (índice = pernas); 10 ou mais usam o teto
var parlayMultipliers = [...]Odds{
	1:  1_000_000_000,
	2:  1_050_000_000,
	3:  1_100_000_000,
	4:  1_130_000_000,
	5:  1_160_000_000,
	6:  1_190_000_000,
	7:  1_210_000_000,
	8:  1_230_000_000,
	9:  1_240_000_000,
	10: 1_250_000_000,
}

// ParlayMultiplier devolve o multiplicador travado para uma aposta com legs pernas
func ParlayMultiplier(legs int) (Odds, error) {
	if legs < 1 || legs > MaxPredictions {
		return 0, ErrInvalidBetCount
	}
	return parlayMultipliers[legs], nil
}

// Prediction é uma perna da aposta
type Prediction struct {
	MatchIndex   uint8   `json:"match_index"`
	Outcome      Outcome `json:"predicted_outcome"`
	AmountInPool uint64  `json:"amount_in_pool"`
}

type Bet struct {
	ID              uint64       `json:"bet_id"`
	Bettor          Identity     `json:"bettor"`
	RoundID         uint64       `json:"round_id"`
	Amount          uint64       `json:"amount"`
	AmountAfterFee  uint64       `json:"amount_after_fee"`
	AllocatedAmount uint64       `json:"allocated_amount"`
	ParlayBonus     uint64       `json:"parlay_bonus"`
	Multiplier      Odds         `json:"locked_multiplier"`
	Predictions     []Prediction `json:"predictions"`
	MaxPayout       uint64       `json:"max_payout"`

	Settled       bool       `json:"settled"`
	Claimed       bool       `json:"claimed"`
	ClaimDeadline *time.Time `json:"claim_deadline,omitempty"`
	BountyClaimer Identity   `json:"bounty_claimer,omitempty"`
	Payout        uint64     `json:"payout,omitempty"`
	Bounty        uint64     `json:"bounty,omitempty"`
	PlacedAt      time.Time  `json:"placed_at"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
}

func (b *Bet) Key() uuid.UUID { return BetKey(b.ID) }
func (b *Bet) Kind() string   { return TagBet }

func (b *Bet) NumPredictions() int { return len(b.Predictions) }

// BetStatus é derivado do round; só Claimed é persistido na aposta
type BetStatus int

const (
	BetPending BetStatus = iota
	BetWon
	BetLost
	BetClaimed
)

func (s BetStatus) String() string {
	switch s {
	case BetWon:
		return "won"
	case BetLost:
		return "lost"
	case BetClaimed:
		return "claimed"
	}
	return "pending"
}

func (s BetStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// StatusOf deriva o estado da aposta a partir da rodada
func (b *Bet) StatusOf(r *Round) BetStatus {
	switch {
	case b.Claimed:
		return BetClaimed
	case !r.Settled:
		return BetPending
	case r.wins(b.Predictions):
		return BetWon
	}
	return BetLost
}

// Ticket é uma aposta já validada, antes de tocar em qualquer registro
type Ticket struct {
	Legs []Prediction
}

// NewTicket valida índices e outcomes da aposta
func NewTicket(matchIndices, outcomes []uint8) (Ticket, error) {
	if len(matchIndices) != len(outcomes) {
		return Ticket{}, ErrArrayLengthMismatch
	}
	n := len(matchIndices)
	if n < 1 || n > MaxPredictions {
		return Ticket{}, ErrInvalidBetCount
	}
	var seen [MatchesPerRound]bool
	legs := make([]Prediction, n)
	for i := range matchIndices {
		idx := matchIndices[i]
		if int(idx) >= MatchesPerRound {
			return Ticket{}, ErrInvalidMatchIndex
		}
		if seen[idx] {
			return Ticket{}, ErrDuplicateMatchIndex
		}
		seen[idx] = true
		o, err := ParseOutcome(outcomes[i])
		if err != nil {
			return Ticket{}, err
		}
		legs[i] = Prediction{MatchIndex: idx, Outcome: o}
	}
	return Ticket{Legs: legs}, nil
}

// allocate divide o valor líquido igualmente entre as pernas; o resto vai para a primeira
func (t Ticket) allocate(amountAfterFee uint64) ([]Prediction, error) {
	n := uint64(len(t.Legs))
	if n == 0 {
		return nil, ErrInvalidBetCount
	}
	per := amountAfterFee / n
	if per == 0 {
		return nil, ErrInvalidAmount
	}
	out := make([]Prediction, len(t.Legs))
	copy(out, t.Legs)
	for i := range out {
		out[i].AmountInPool = per
	}
	out[0].AmountInPool += amountAfterFee - per*n
	return out, nil
}
