package events

import "time"

// Tipos de evento publicados pelo ledger após cada transição confirmada
const (
	TypePoolInitialized   = "pool_initialized"
	TypeRoundInitialized  = "round_initialized"
	TypeRoundSeeded       = "round_seeded"
	TypeBetPlaced         = "bet_placed"
	TypeRoundSettled      = "round_settled"
	TypeRoundFinalized    = "round_finalized"
	TypeWinningsClaimed   = "winnings_claimed"
	TypeLiquidityAdded    = "liquidity_added"
	TypeLiquidityRemoved  = "liquidity_removed"
	TypeSeasonPrediction  = "season_prediction_made"
	TypeSeasonAdvanced    = "season_advanced"
	TypeSeasonStarted     = "season_started"
	TypeSeasonRewardClaim = "season_reward_claimed"
)

// Envelope é a mensagem publicada no Kafka e no Redis Pub/Sub.
// Key define a partição (round id, bet id ou usuário).
type Envelope struct {
	Type     string `json:"type"`
	Key      string `json:"key"`
	Payload  any    `json:"payload"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}

// Odds travadas de uma partida em ponto fixo ×1e9
type MatchOdds struct {
	MatchIndex uint8  `json:"match_index"`
	Home       uint64 `json:"home"`
	Away       uint64 `json:"away"`
	Draw       uint64 `json:"draw"`
}

type RoundInitialized struct {
	RoundID   uint64    `json:"round_id"`
	StartTime time.Time `json:"start_time"`
}

type RoundSeeded struct {
	RoundID    uint64      `json:"round_id"`
	SeedAmount uint64      `json:"seed_amount"`
	Odds       []MatchOdds `json:"odds"`
}

type BetLeg struct {
	MatchIndex   uint8  `json:"match_index"`
	Outcome      uint8  `json:"outcome"`
	AmountInPool uint64 `json:"amount_in_pool"`
}

// BetPlaced cobre aposta simples e parlay
type BetPlaced struct {
	BetID          uint64   `json:"bet_id"`
	RoundID        uint64   `json:"round_id"`
	Bettor         string   `json:"bettor"`
	Amount         uint64   `json:"amount"`
	AmountAfterFee uint64   `json:"amount_after_fee"`
	ProtocolFee    uint64   `json:"protocol_fee"`
	SeasonFee      uint64   `json:"season_fee"` // retida até o finalize da rodada
	Multiplier     uint64   `json:"multiplier"`
	Legs           []BetLeg `json:"legs"`
}

type RoundSettled struct {
	RoundID            uint64    `json:"round_id"`
	Results            []int     `json:"results"`
	TotalWinningPool   uint64    `json:"total_winning_pool"`
	TotalLosingPool    uint64    `json:"total_losing_pool"`
	ReservedForWinners uint64    `json:"reserved_for_winners"`
	SettledAt          time.Time `json:"settled_at"`
}

type RoundFinalized struct {
	RoundID         uint64 `json:"round_id"`
	ProtocolShare   uint64 `json:"protocol_share"`
	SeasonShare     uint64 `json:"season_share"`
	ReturnedToLP    uint64 `json:"returned_to_lp"`
	DrawnFromLP     uint64 `json:"drawn_from_lp"`
	NetResult       int64  `json:"net_result"`
	OutstandingOwed uint64 `json:"outstanding_owed"`
}

type WinningsClaimed struct {
	BetID   uint64 `json:"bet_id"`
	RoundID uint64 `json:"round_id"`
	Bettor  string `json:"bettor"`
	Claimer string `json:"claimer"`
	Payout  uint64 `json:"payout"`
	Bounty  uint64 `json:"bounty"`
}

type LiquidityChanged struct {
	Provider       string `json:"provider"`
	Amount         uint64 `json:"amount"`
	Shares         uint64 `json:"shares"`
	TotalLiquidity uint64 `json:"total_liquidity"`
	TotalShares    uint64 `json:"total_shares"`
}

type SeasonChanged struct {
	SeasonID        uint64 `json:"season_id"`
	User            string `json:"user,omitempty"`
	Team            uint8  `json:"team"`
	RewardPerWinner uint64 `json:"reward_per_winner,omitempty"`
	Amount          uint64 `json:"amount,omitempty"`
	TokenID         string `json:"token_id,omitempty"`
}

// MatchResultsFinal é a entrada do oráculo consumida pelo settlement-worker
type MatchResultsFinal struct {
	RoundID  uint64 `json:"round_id"`
	Results  []int  `json:"results"` // 1=casa, 2=fora, 3=empate
	Finalize bool   `json:"finalize"`
	Source   string `json:"source"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}
