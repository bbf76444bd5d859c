package sportsbook

import (
	"time"

	"github.com/google/uuid"
)

// Registry é o registro singleton do betting pool: configuração, contadores e estado da temporada.
// Version é incrementado a cada escrita; o store rejeita gravações com versão desatualizada.
type Registry struct {
	Authority     Identity  `json:"authority"`
	TokenMint     string    `json:"token_mint"`
	Treasury      Account   `json:"treasury"`
	LiquidityPool uuid.UUID `json:"liquidity_pool"`
	FeeConfig
	// Policy é a cópia de Params gravada no Initialize
	Policy Params `json:"policy"`

	NextBetID   uint64 `json:"next_bet_id"`
	NextRoundID uint64 `json:"next_round_id"`

	CurrentSeasonID        uint64                 `json:"current_season_id"`
	SeasonEnded            bool                   `json:"season_ended"`
	SeasonWinningTeam      uint8                  `json:"season_winning_team"`
	SeasonRewardPool       uint64                 `json:"season_reward_pool"`
	SeasonRewardPerWinner  uint64                 `json:"season_reward_per_winner"`
	SeasonPredictionCounts [TeamsPerSeason]uint64 `json:"season_prediction_counts"`

	CreatedAt time.Time `json:"created_at"`
	Version   uint64    `json:"version"`
}

func (r *Registry) Key() uuid.UUID   { return PoolKey }
func (r *Registry) Kind() string     { return TagBettingPool }
func (r *Registry) Revision() uint64 { return r.Version }

func newRegistry(authority Identity, treasury Account, mint string, fees FeeConfig, now time.Time) *Registry {
	return &Registry{
		Authority:       authority,
		TokenMint:       mint,
		Treasury:        treasury,
		LiquidityPool:   LiquidityPoolKey(),
		FeeConfig:       fees,
		NextBetID:       1,
		NextRoundID:     1,
		CurrentSeasonID: 1,
		CreatedAt:       now,
	}
}

func (r *Registry) requireAuthority(caller Identity) error {
	if caller != r.Authority {
		return ErrInvalidAuthority
	}
	return nil
}

// allocateRoundID só aceita exatamente o próximo id (sem buracos nem reuso)
func (r *Registry) allocateRoundID(requested uint64) error {
	if requested != r.NextRoundID {
		return ErrInvalidRoundID
	}
	next, err := addU64(r.NextRoundID, 1)
	if err != nil {
		return err
	}
	r.NextRoundID = next
	return nil
}

func (r *Registry) allocateBetID() (uint64, error) {
	id := r.NextBetID
	next, err := addU64(id, 1)
	if err != nil {
		return 0, err
	}
	r.NextBetID = next
	return id, nil
}

// endSeason fecha a temporada e congela a parte de cada previsão vencedora
func (r *Registry) endSeason(winningTeam uint8) error {
	if winningTeam >= TeamsPerSeason {
		return ErrInvalidTeamIndex
	}
	if r.SeasonEnded {
		return ErrSeasonAlreadyEnded
	}
	r.SeasonEnded = true
	r.SeasonWinningTeam = winningTeam
	r.SeasonRewardPerWinner = 0
	if winners := r.SeasonPredictionCounts[winningTeam]; winners > 0 {
		r.SeasonRewardPerWinner = r.SeasonRewardPool / winners
	}
	return nil
}

// startNewSeason abre a próxima temporada; o saldo do season pool é carregado
func (r *Registry) startNewSeason() error {
	if !r.SeasonEnded {
		return ErrSeasonNotEnded
	}
	next, err := addU64(r.CurrentSeasonID, 1)
	if err != nil {
		return err
	}
	r.CurrentSeasonID = next
	r.SeasonEnded = false
	r.SeasonWinningTeam = 0
	r.SeasonRewardPerWinner = 0
	r.SeasonPredictionCounts = [TeamsPerSeason]uint64{}
	return nil
}
