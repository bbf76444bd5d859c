package sportsbook

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Tags de separação de domínio. Indexadores externos derivam as mesmas chaves a partir delas.
const (
	TagBettingPool      = "betting_pool"
	TagLiquidityPool    = "liquidity_pool"
	TagRound            = "round"
	TagBet              = "bet"
	TagSeasonPrediction = "season_prediction"
	TagPredictionToken  = "prediction_nft"
	TagLPPosition       = "lp_position"
)

// Namespace é o namespace UUIDv5 de todas as chaves do ledger
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sportsbook-ledger"))

// PoolKey é a chave do registro singleton do betting pool
var PoolKey = deriveKey([]byte(TagBettingPool))

func deriveKey(parts ...[]byte) uuid.UUID {
	var buf []byte
	for _, p := range parts {
		// prefixo de tamanho evita colisão entre concatenações diferentes
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(p)))
		buf = append(buf, p...)
	}
	return uuid.NewSHA1(Namespace, buf)
}

func le64(v uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, v)
}

func LiquidityPoolKey() uuid.UUID {
	return deriveKey([]byte(TagLiquidityPool), PoolKey[:])
}

func RoundKey(roundID uint64) uuid.UUID {
	return deriveKey([]byte(TagRound), PoolKey[:], le64(roundID))
}

func BetKey(betID uint64) uuid.UUID {
	return deriveKey([]byte(TagBet), PoolKey[:], le64(betID))
}

func SeasonPredictionKey(user Identity, seasonID uint64) uuid.UUID {
	return deriveKey([]byte(TagSeasonPrediction), []byte(user), PoolKey[:], le64(seasonID))
}

// PredictionTokenID identifica o token único emitido junto com a previsão de temporada
func PredictionTokenID(user Identity, seasonID uint64) uuid.UUID {
	return deriveKey([]byte(TagPredictionToken), PoolKey[:], le64(seasonID), []byte(user))
}

func LPPositionKey(owner Identity) uuid.UUID {
	return deriveKey([]byte(TagLPPosition), PoolKey[:], []byte(owner))
}
