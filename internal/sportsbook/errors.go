package sportsbook

import "errors"

// Kind classifica o erro para o chamador decidir entre corrigir input, tentar depois ou desistir
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindSequencing
	KindSolvency
	KindAuth
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSequencing:
		return "sequencing"
	case KindSolvency:
		return "solvency"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error é um erro de domínio com código estável
type Error struct {
	Code string
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.Code + ": " + e.msg }

func newError(code string, kind Kind, msg string) *Error {
	return &Error{Code: code, Kind: kind, msg: msg}
}

// KindOf retorna o Kind do primeiro *Error na cadeia (KindUnknown para erros de infraestrutura)
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf retorna o código estável do erro de domínio, ou "" se não houver
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Validação
var (
	ErrInvalidConfig          = newError("InvalidConfig", KindValidation, "fee basis points exceed 100% or parameters out of range")
	ErrInvalidMatchIndex      = newError("InvalidMatchIndex", KindValidation, "match index must be 0-9")
	ErrInvalidOutcome         = newError("InvalidOutcome", KindValidation, "outcome must be 1, 2 or 3")
	ErrArrayLengthMismatch    = newError("ArrayLengthMismatch", KindValidation, "match indices and outcomes differ in length")
	ErrInvalidBetCount        = newError("InvalidBetCount", KindValidation, "bet must have 1-10 predictions")
	ErrDuplicateMatchIndex    = newError("DuplicateMatchIndex", KindValidation, "match index repeated within a bet")
	ErrInvalidAmount          = newError("InvalidAmount", KindValidation, "amount must be greater than zero")
	ErrBetExceedsMaximum      = newError("BetExceedsMaximum", KindValidation, "bet amount exceeds maximum allowed")
	ErrInvalidRoundID         = newError("InvalidRoundId", KindValidation, "round id must equal the next round id")
	ErrInvalidTeamIndex       = newError("InvalidTeamIndex", KindValidation, "team index must be 0-9")
	ErrMatchResultsIncomplete = newError("MatchResultsIncomplete", KindValidation, "exactly ten final match results are required")
	ErrCalculationOverflow    = newError("CalculationOverflow", KindValidation, "overflow in calculation")
)

// Sequenciamento de estado
var (
	ErrPoolAlreadyInitialized    = newError("PoolAlreadyInitialized", KindSequencing, "betting pool already initialized")
	ErrRoundAlreadySeeded        = newError("RoundAlreadySeeded", KindSequencing, "round already seeded")
	ErrRoundNotSeeded            = newError("RoundNotSeeded", KindSequencing, "round not seeded yet")
	ErrOddsNotLocked             = newError("OddsNotLocked", KindSequencing, "odds not locked yet")
	ErrRoundAlreadySettled       = newError("RoundAlreadySettled", KindSequencing, "round already settled")
	ErrRoundNotSettled           = newError("RoundNotSettled", KindSequencing, "round not settled yet")
	ErrRevenueAlreadyDistributed = newError("RevenueAlreadyDistributed", KindSequencing, "round revenue already distributed")
	ErrBetAlreadyClaimed         = newError("BetAlreadyClaimed", KindSequencing, "bet already claimed")
	ErrBetLost                   = newError("BetLost", KindSequencing, "bet did not win")
	ErrSeasonAlreadyEnded        = newError("SeasonAlreadyEnded", KindSequencing, "season already ended")
	ErrSeasonNotEnded            = newError("SeasonNotEnded", KindSequencing, "season has not ended")
	ErrSeasonPredictionExists    = newError("SeasonPredictionExists", KindSequencing, "prediction already made for this season")
	ErrRewardAlreadyClaimed      = newError("RewardAlreadyClaimed", KindSequencing, "season reward already claimed")
	ErrNotSeasonWinner           = newError("NotSeasonWinner", KindSequencing, "prediction did not match the winning team")
	ErrRoundBetLimitReached      = newError("RoundBetLimitReached", KindSequencing, "round reached the maximum number of bets")
)

// Solvência
var (
	ErrInsufficientLPLiquidity        = newError("InsufficientLPLiquidity", KindSolvency, "insufficient LP liquidity")
	ErrInsufficientAvailableLiquidity = newError("InsufficientAvailableLiquidity", KindSolvency, "insufficient available liquidity for withdrawal")
	ErrInsufficientShares             = newError("InsufficientShares", KindSolvency, "position holds fewer shares than requested")
	ErrInsufficientFunds              = newError("InsufficientFunds", KindSolvency, "source account balance too low")
	ErrPayoutBelowMinimum             = newError("PayoutBelowMinimum", KindSolvency, "payout below minimum (slippage protection)")
)

// Autorização
var (
	ErrInvalidAuthority = newError("InvalidAuthority", KindAuth, "caller is not the pool authority")
	ErrNotBettor        = newError("NotBettor", KindAuth, "caller is not the bettor and the claim window is still open")
)

// Registros ausentes
var (
	ErrPoolNotInitialized = newError("PoolNotInitialized", KindNotFound, "betting pool not initialized")
	ErrRoundNotFound      = newError("RoundNotFound", KindNotFound, "round not found")
	ErrBetNotFound        = newError("BetNotFound", KindNotFound, "bet not found")
	ErrPredictionNotFound = newError("PredictionNotFound", KindNotFound, "season prediction not found")
	ErrPositionNotFound   = newError("PositionNotFound", KindNotFound, "liquidity position not found")
)
