package sportsbook

import "fmt"

// Identity é a identidade já autenticada de quem chama
type Identity string

// Account nomeia uma conta de token no ledger hospedeiro
type Account string

// Contas mantidas pelo próprio pool
const (
	AccountLiquidityVault Account = "vault:liquidity_pool"
	AccountBettingVault   Account = "vault:betting_pool"
	AccountSeasonVault    Account = "vault:season_pool"
)

// WalletOf é a conta de token de um usuário
func WalletOf(id Identity) Account { return Account("wallet:" + string(id)) }

const (
	MatchesPerRound = 10
	TeamsPerSeason  = 10
	MaxPredictions  = MatchesPerRound
)

// Outcome é o resultado previsto por uma perna da aposta (1=casa, 2=fora, 3=empate)
type Outcome uint8

const (
	OutcomeHome Outcome = 1
	OutcomeAway Outcome = 2
	OutcomeDraw Outcome = 3
)

// ParseOutcome valida o código numérico vindo do cliente
func ParseOutcome(code uint8) (Outcome, error) {
	switch Outcome(code) {
	case OutcomeHome, OutcomeAway, OutcomeDraw:
		return Outcome(code), nil
	}
	return 0, ErrInvalidOutcome
}

func (o Outcome) String() string {
	switch o {
	case OutcomeHome:
		return "home"
	case OutcomeAway:
		return "away"
	case OutcomeDraw:
		return "draw"
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// MatchResult é o resultado final de uma partida; Pending é o zero value
type MatchResult uint8

const (
	ResultPending MatchResult = iota
	ResultHomeWin
	ResultAwayWin
	ResultDraw
)

// MatchResultFromCode mapeia 1/2/3 para o resultado; qualquer outro código é Pending
func MatchResultFromCode(code uint8) MatchResult {
	switch code {
	case 1:
		return ResultHomeWin
	case 2:
		return ResultAwayWin
	case 3:
		return ResultDraw
	}
	return ResultPending
}

// Code devolve 1/2/3, ou 0 enquanto não há resultado
func (r MatchResult) Code() uint8 {
	if r > ResultDraw {
		return 0
	}
	return uint8(r)
}

// Outcome devolve o outcome vencedor; ok=false enquanto Pending
func (r MatchResult) Outcome() (Outcome, bool) {
	switch r {
	case ResultHomeWin:
		return OutcomeHome, true
	case ResultAwayWin:
		return OutcomeAway, true
	case ResultDraw:
		return OutcomeDraw, true
	}
	return 0, false
}

func (r MatchResult) String() string {
	switch r {
	case ResultHomeWin:
		return "home_win"
	case ResultAwayWin:
		return "away_win"
	case ResultDraw:
		return "draw"
	}
	return "pending"
}

func (r MatchResult) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *MatchResult) UnmarshalText(b []byte) error {
	switch string(b) {
	case "home_win":
		*r = ResultHomeWin
	case "away_win":
		*r = ResultAwayWin
	case "draw":
		*r = ResultDraw
	case "pending", "":
		*r = ResultPending
	default:
		return fmt.Errorf("unknown match result %q", b)
	}
	return nil
}
