package sportsbook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

// SeasonPrediction é o palpite de campeão de um usuário; no máximo um por temporada
type SeasonPrediction struct {
	User          Identity  `json:"user"`
	SeasonID      uint64    `json:"season_id"`
	PredictedTeam uint8     `json:"predicted_team"`
	TokenID       uuid.UUID `json:"token_id"`
	RewardClaimed bool      `json:"reward_claimed"`
	Reward        uint64    `json:"reward,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p *SeasonPrediction) Key() uuid.UUID { return SeasonPredictionKey(p.User, p.SeasonID) }
func (p *SeasonPrediction) Kind() string   { return TagSeasonPrediction }

func newSeasonPrediction(user Identity, seasonID uint64, team uint8, now time.Time) *SeasonPrediction {
	return &SeasonPrediction{
		User:          user,
		SeasonID:      seasonID,
		PredictedTeam: team,
		TokenID:       PredictionTokenID(user, seasonID),
		CreatedAt:     now,
	}
}

// MakeSeasonPrediction registra o palpite de campeão do caller para a temporada atual
func (e *Engine) MakeSeasonPrediction(ctx context.Context, caller Identity, team uint8) (*SeasonPrediction, error) {
	if team >= TeamsPerSeason {
		return nil, ErrInvalidTeamIndex
	}
	var out *SeasonPrediction
	err := e.update(ctx, "season_prediction", func(ctx context.Context, tx Tx, fx *effects) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if reg.SeasonEnded {
			return ErrSeasonAlreadyEnded
		}
		p := newSeasonPrediction(caller, reg.CurrentSeasonID, team, e.now())
		if err := tx.Insert(ctx, p); err != nil {
			if errors.Is(err, ErrRecordExists) {
				return ErrSeasonPredictionExists
			}
			return err
		}
		reg.SeasonPredictionCounts[team]++
		if err := saveRegistry(ctx, tx, reg); err != nil {
			return err
		}
		fx.emit(events.TypeSeasonPrediction, string(caller), events.SeasonChanged{
			SeasonID: p.SeasonID,
			User:     string(caller),
			Team:     team,
			TokenID:  p.TokenID.String(),
		})
		fx.log(zap.String("user", string(caller)), zap.Uint64("season_id", p.SeasonID), zap.Uint8("team", team))
		out = p
		return nil
	})
	return out, err
}

// AdvanceSeason encerra a temporada atual com o time vencedor e congela a recompensa por acerto
func (e *Engine) AdvanceSeason(ctx context.Context, caller Identity, winningTeam uint8) (*Registry, error) {
	var out *Registry
	err := e.update(ctx, "advance_season", func(ctx context.Context, tx Tx, fx *effects) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if err := reg.requireAuthority(caller); err != nil {
			return err
		}
		if err := reg.endSeason(winningTeam); err != nil {
			return err
		}
		if err := saveRegistry(ctx, tx, reg); err != nil {
			return err
		}
		fx.emit(events.TypeSeasonAdvanced, idKey(reg.CurrentSeasonID), events.SeasonChanged{
			SeasonID:        reg.CurrentSeasonID,
			Team:            winningTeam,
			RewardPerWinner: reg.SeasonRewardPerWinner,
		})
		fx.log(zap.Uint64("season_id", reg.CurrentSeasonID), zap.Uint8("winning_team", winningTeam),
			zap.Uint64("reward_per_winner", reg.SeasonRewardPerWinner))
		out = reg
		return nil
	})
	return out, err
}

// StartNewSeason abre a temporada seguinte; só depois do AdvanceSeason
func (e *Engine) StartNewSeason(ctx context.Context, caller Identity) (*Registry, error) {
	var out *Registry
	err := e.update(ctx, "start_season", func(ctx context.Context, tx Tx, fx *effects) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if err := reg.requireAuthority(caller); err != nil {
			return err
		}
		if err := reg.startNewSeason(); err != nil {
			return err
		}
		if err := saveRegistry(ctx, tx, reg); err != nil {
			return err
		}
		fx.emit(events.TypeSeasonStarted, idKey(reg.CurrentSeasonID), events.SeasonChanged{
			SeasonID: reg.CurrentSeasonID,
			Amount:   reg.SeasonRewardPool,
		})
		fx.log(zap.Uint64("season_id", reg.CurrentSeasonID), zap.Uint64("carried_pool", reg.SeasonRewardPool))
		out = reg
		return nil
	})
	return out, err
}

// ClaimSeasonReward paga a parte de um palpite vencedor. Só vale para a temporada atual, já encerrada.
func (e *Engine) ClaimSeasonReward(ctx context.Context, caller Identity, seasonID uint64) (uint64, error) {
	var reward uint64
	err := e.update(ctx, "season_reward", func(ctx context.Context, tx Tx, fx *effects) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if reg.CurrentSeasonID != seasonID || !reg.SeasonEnded {
			return ErrSeasonNotEnded
		}
		p := &SeasonPrediction{User: caller, SeasonID: seasonID}
		if err := loadRecord(ctx, tx, p, ErrPredictionNotFound); err != nil {
			return err
		}
		if p.RewardClaimed {
			return ErrRewardAlreadyClaimed
		}
		if p.PredictedTeam != reg.SeasonWinningTeam {
			return ErrNotSeasonWinner
		}
		reward = reg.SeasonRewardPerWinner
		if reg.SeasonRewardPool, err = subU64(reg.SeasonRewardPool, reward, ErrInsufficientFunds); err != nil {
			return err
		}
		if err := tx.Transfer(ctx, AccountSeasonVault, WalletOf(caller), reward, "season_reward:"+idKey(seasonID)); err != nil {
			return err
		}
		p.RewardClaimed = true
		p.Reward = reward
		if err := tx.Save(ctx, p); err != nil {
			return err
		}
		if err := saveRegistry(ctx, tx, reg); err != nil {
			return err
		}
		fx.emit(events.TypeSeasonRewardClaim, string(caller), events.SeasonChanged{
			SeasonID: seasonID,
			User:     string(caller),
			Team:     p.PredictedTeam,
			Amount:   reward,
		})
		fx.volume("season_reward", reward)
		fx.log(zap.String("user", string(caller)), zap.Uint64("season_id", seasonID), zap.Uint64("reward", reward))
		return nil
	})
	return reward, err
}
