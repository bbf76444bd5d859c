package sportsbook

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

// Initialize cria o registro do pool e o liquidity pool zerado. Só pode rodar uma vez.
func (e *Engine) Initialize(ctx context.Context, authority Identity, fees FeeConfig, treasury Account, mint string) (*Registry, error) {
	if err := fees.Validate(); err != nil {
		return nil, err
	}
	if authority == "" || treasury == "" {
		return nil, ErrInvalidConfig
	}
	var out *Registry
	err := e.update(ctx, "initialize", func(ctx context.Context, tx Tx, fx *effects) error {
		var existing Registry
		err := tx.Get(ctx, PoolKey, &existing)
		switch {
		case err == nil:
			return ErrPoolAlreadyInitialized
		case !errors.Is(err, ErrRecordNotFound):
			return err
		}
		reg := newRegistry(authority, treasury, mint, fees, e.now())
		reg.Policy = e.params
		reg.Version = 1
		if err := tx.Insert(ctx, reg); err != nil {
			return err
		}
		lp := &LiquidityPool{}
		if err := tx.Insert(ctx, lp); err != nil {
			return err
		}
		fx.lp = lp
		fx.emit(events.TypePoolInitialized, PoolKey.String(), reg)
		fx.log(zap.String("authority", string(authority)), zap.String("treasury", string(treasury)))
		out = reg
		return nil
	})
	return out, err
}

// InitializeRound cria a rodada roundID; roundID precisa ser exatamente o próximo id
func (e *Engine) InitializeRound(ctx context.Context, caller Identity, roundID uint64) (*Round, error) {
	var out *Round
	err := e.update(ctx, "initialize_round", func(ctx context.Context, tx Tx, fx *effects) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if err := reg.requireAuthority(caller); err != nil {
			return err
		}
		if err := reg.allocateRoundID(roundID); err != nil {
			return err
		}
		r := newRound(roundID, e.now())
		if err := tx.Insert(ctx, r); err != nil {
			if errors.Is(err, ErrRecordExists) {
				return ErrInvalidRoundID
			}
			return err
		}
		if err := saveRegistry(ctx, tx, reg); err != nil {
			return err
		}
		fx.round = r
		fx.emit(events.TypeRoundInitialized, idKey(roundID), events.RoundInitialized{RoundID: roundID, StartTime: r.StartTime})
		fx.log(zap.Uint64("round_id", roundID))
		out = r
		return nil
	})
	return out, err
}

// SeedRoundPools move o seed do LP para os pools da rodada e trava as odds
func (e *Engine) SeedRoundPools(ctx context.Context, caller Identity, roundID uint64) (*Round, error) {
	var out *Round
	err := e.update(ctx, "seed_round", func(ctx context.Context, tx Tx, fx *effects) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if err := reg.requireAuthority(caller); err != nil {
			return err
		}
		r, err := loadRound(ctx, tx, roundID)
		if err != nil {
			return err
		}
		lp, err := loadLiquidity(ctx, tx)
		if err != nil {
			return err
		}
		seed, err := r.seed(reg.Policy)
		if err != nil {
			return err
		}
		if err := lp.lock(seed); err != nil {
			return err
		}
		if err := tx.Transfer(ctx, AccountLiquidityVault, AccountBettingVault, seed, "seed:"+idKey(roundID)); err != nil {
			return err
		}
		r.PotBalance = seed
		r.LockedReserve = seed
		if err := tx.Save(ctx, r); err != nil {
			return err
		}
		if err := tx.Save(ctx, lp); err != nil {
			return err
		}

		ev := events.RoundSeeded{RoundID: roundID, SeedAmount: seed}
		for i, m := range r.Matches {
			ev.Odds = append(ev.Odds, events.MatchOdds{
				MatchIndex: uint8(i),
				Home:       uint64(m.Odds.Home),
				Away:       uint64(m.Odds.Away),
				Draw:       uint64(m.Odds.Draw),
			})
		}
		fx.round, fx.lp = r, lp
		fx.emit(events.TypeRoundSeeded, idKey(roundID), ev)
		fx.volume("seed", seed)
		fx.log(zap.Uint64("round_id", roundID), zap.Uint64("seed", seed))
		out = r
		return nil
	})
	return out, err
}

// SettleRound grava os dez resultados e fixa quanto cada aposta vencedora tem a receber.
// Não movimenta fundos.
func (e *Engine) SettleRound(ctx context.Context, caller Identity, roundID uint64, results []uint8) (*Round, error) {
	var out *Round
	err := e.update(ctx, "settle_round", func(ctx context.Context, tx Tx, fx *effects) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if err := reg.requireAuthority(caller); err != nil {
			return err
		}
		r, err := loadRound(ctx, tx, roundID)
		if err != nil {
			return err
		}
		lp, err := loadLiquidity(ctx, tx)
		if err != nil {
			return err
		}
		now := e.now()
		if err := r.settle(results, now); err != nil {
			return err
		}

		deadline := now.Add(reg.Policy.ClaimWindow)
		var reserved uint64
		for _, id := range r.BetIDs {
			b, err := loadBet(ctx, tx, id)
			if err != nil {
				return err
			}
			b.Settled = true
			d := deadline
			b.ClaimDeadline = &d
			if r.wins(b.Predictions) {
				payout, err := r.quote(b.Predictions, b.Multiplier)
				if err != nil {
					return err
				}
				if reserved, err = addU64(reserved, payout); err != nil {
					return err
				}
			}
			if err := tx.Save(ctx, b); err != nil {
				return err
			}
		}
		limit, err := addU64(lp.TotalLiquidity, r.TotalBetVolume)
		if err != nil {
			return err
		}
		if reserved > limit {
			return ErrInsufficientLPLiquidity
		}
		r.TotalReservedForWinners = reserved
		if err := tx.Save(ctx, r); err != nil {
			return err
		}

		res := make([]int, MatchesPerRound)
		for i, c := range r.Results() {
			res[i] = int(c)
		}
		fx.round = r
		fx.emit(events.TypeRoundSettled, idKey(roundID), events.RoundSettled{
			RoundID:            roundID,
			Results:            res,
			TotalWinningPool:   r.TotalWinningPool,
			TotalLosingPool:    r.TotalLosingPool,
			ReservedForWinners: reserved,
			SettledAt:          now,
		})
		fx.log(zap.Uint64("round_id", roundID), zap.Uint64("reserved_for_winners", reserved), zap.Int("bets", len(r.BetIDs)))
		out = r
		return nil
	})
	return out, err
}

// FinalizeRoundRevenue move a parte da temporada para o season pool, devolve o excedente da rodada
// ao LP, libera a reserva travada e registra lucro ou prejuízo do LP.
// Só movimenta contas do próprio pool; o que ainda é devido a vencedores continua no vault de apostas.
func (e *Engine) FinalizeRoundRevenue(ctx context.Context, caller Identity, roundID uint64) (*Round, error) {
	var out *Round
	err := e.update(ctx, "finalize_round", func(ctx context.Context, tx Tx, fx *effects) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if err := reg.requireAuthority(caller); err != nil {
			return err
		}
		r, err := loadRound(ctx, tx, roundID)
		if err != nil {
			return err
		}
		if !r.Settled {
			return ErrRoundNotSettled
		}
		if r.RevenueDistributed {
			return ErrRevenueAlreadyDistributed
		}
		lp, err := loadLiquidity(ctx, tx)
		if err != nil {
			return err
		}

		// a parte da temporada ficou retida no vault de apostas desde o PlaceBet
		seasonShare := r.SeasonFeeHeld
		if err := tx.Transfer(ctx, AccountBettingVault, AccountSeasonVault, seasonShare, "season_share:"+idKey(roundID)); err != nil {
			return err
		}
		r.SeasonFeeHeld = 0
		if reg.SeasonRewardPool, err = addU64(reg.SeasonRewardPool, seasonShare); err != nil {
			return err
		}
		r.SeasonRevenueShare = seasonShare
		r.ProtocolRevenueShare = r.ProtocolFeeCollected - seasonShare

		outstanding := r.TotalReservedForWinners
		var returned, drawn uint64
		if r.PotBalance >= outstanding {
			returned = r.PotBalance - outstanding
			if err := tx.Transfer(ctx, AccountBettingVault, AccountLiquidityVault, returned, "round_surplus:"+idKey(roundID)); err != nil {
				return err
			}
		} else {
			drawn = outstanding - r.PotBalance
			if err := tx.Transfer(ctx, AccountLiquidityVault, AccountBettingVault, drawn, "round_topup:"+idKey(roundID)); err != nil {
				return err
			}
			r.LPShortfall += drawn
		}
		r.PotBalance = outstanding

		lp.release(r.LockedReserve)
		r.LockedReserve = 0

		owed, err := addU64(r.TotalPaidOut, outstanding)
		if err != nil {
			return err
		}
		var profit, loss uint64
		if r.TotalUserDeposits >= owed {
			profit = r.TotalUserDeposits - owed
		} else {
			loss = owed - r.TotalUserDeposits
		}
		if err := lp.applyResult(profit, loss); err != nil {
			return err
		}
		r.NetResult = signedNet(profit, loss)
		r.RevenueDistributed = true

		if err := tx.Save(ctx, r); err != nil {
			return err
		}
		if err := tx.Save(ctx, lp); err != nil {
			return err
		}
		if err := saveRegistry(ctx, tx, reg); err != nil {
			return err
		}

		fx.round, fx.lp = r, lp
		fx.emit(events.TypeRoundFinalized, idKey(roundID), events.RoundFinalized{
			RoundID:         roundID,
			ProtocolShare:   r.ProtocolRevenueShare,
			SeasonShare:     seasonShare,
			ReturnedToLP:    returned,
			DrawnFromLP:     drawn,
			NetResult:       r.NetResult,
			OutstandingOwed: outstanding,
		})
		fx.volume("lp_profit", profit)
		fx.volume("lp_loss", loss)
		fx.volume("season_share", seasonShare)
		fx.log(zap.Uint64("round_id", roundID), zap.Int64("net_result", r.NetResult), zap.Uint64("outstanding", outstanding))
		out = r
		return nil
	})
	return out, err
}

func signedNet(profit, loss uint64) int64 {
	const maxInt64 = 1<<63 - 1
	if profit > 0 {
		if profit > maxInt64 {
			return maxInt64
		}
		return int64(profit)
	}
	if loss > maxInt64 {
		return -maxInt64
	}
	return -int64(loss)
}
