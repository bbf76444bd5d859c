package sportsbook

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

// PlaceBet registra uma aposta simples ou parlay na rodada. Débito do apostador, taxa para a
// tesouraria, pernas nos pools e o registro da aposta são gravados juntos ou nada é gravado.
func (e *Engine) PlaceBet(ctx context.Context, caller Identity, roundID uint64, matchIndices, outcomes []uint8, amount uint64) (*Bet, error) {
	ticket, err := NewTicket(matchIndices, outcomes)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	multiplier, err := ParlayMultiplier(len(ticket.Legs))
	if err != nil {
		return nil, err
	}

	var out *Bet
	err = e.update(ctx, "place_bet", func(ctx context.Context, tx Tx, fx *effects) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		if amount > reg.Policy.MaxBetAmount {
			return ErrBetExceedsMaximum
		}
		r, err := loadRound(ctx, tx, roundID)
		if err != nil {
			return err
		}
		if !r.Seeded {
			return ErrRoundNotSeeded
		}
		if r.Settled {
			return ErrRoundAlreadySettled
		}
		if r.BetCount >= reg.Policy.MaxBetsPerRound {
			return ErrRoundBetLimitReached
		}
		lp, err := loadLiquidity(ctx, tx)
		if err != nil {
			return err
		}

		fee, err := reg.ProtocolFeeBPS.Of(amount)
		if err != nil {
			return err
		}
		// a parte da temporada fica no vault de apostas até o finalize; o resto vai para a tesouraria
		seasonFee, err := reg.SeasonPoolShareBPS.Of(fee)
		if err != nil {
			return err
		}
		afterFee := amount - fee
		legs, err := ticket.allocate(afterFee)
		if err != nil {
			return err
		}
		for _, leg := range legs {
			if err := r.recordBet(leg.MatchIndex, leg.Outcome, leg.AmountInPool); err != nil {
				return err
			}
		}

		// pior caso: todas as pernas acertam; o que passa do stake fica travado no LP
		maxPayout, err := r.quote(legs, multiplier)
		if err != nil {
			return err
		}
		base, err := r.quote(legs, OneX)
		if err != nil {
			return err
		}
		var exposure uint64
		if maxPayout > afterFee {
			exposure = maxPayout - afterFee
		}
		if err := lp.lock(exposure); err != nil {
			return err
		}

		bettor := WalletOf(caller)
		betID, err := reg.allocateBetID()
		if err != nil {
			return err
		}
		if err := tx.Transfer(ctx, bettor, AccountBettingVault, amount, "bet:"+idKey(betID)); err != nil {
			return err
		}
		if err := tx.Transfer(ctx, AccountBettingVault, reg.Treasury, fee-seasonFee, "fee:"+idKey(betID)); err != nil {
			return err
		}

		if r.TotalUserDeposits, err = addU64(r.TotalUserDeposits, afterFee); err != nil {
			return err
		}
		if r.ProtocolFeeCollected, err = addU64(r.ProtocolFeeCollected, fee); err != nil {
			return err
		}
		if r.PotBalance, err = addU64(r.PotBalance, afterFee); err != nil {
			return err
		}
		if r.SeasonFeeHeld, err = addU64(r.SeasonFeeHeld, seasonFee); err != nil {
			return err
		}
		r.LockedReserve += exposure
		r.BetCount++
		if len(legs) > 1 {
			r.ParlayCount++
		}
		r.BetIDs = append(r.BetIDs, betID)

		b := &Bet{
			ID:              betID,
			Bettor:          caller,
			RoundID:         roundID,
			Amount:          amount,
			AmountAfterFee:  afterFee,
			AllocatedAmount: afterFee,
			ParlayBonus:     maxPayout - base,
			Multiplier:      multiplier,
			Predictions:     legs,
			MaxPayout:       maxPayout,
			PlacedAt:        e.now(),
		}
		if err := tx.Insert(ctx, b); err != nil {
			return err
		}
		if err := tx.Save(ctx, r); err != nil {
			return err
		}
		if err := tx.Save(ctx, lp); err != nil {
			return err
		}
		if err := saveRegistry(ctx, tx, reg); err != nil {
			return err
		}

		ev := events.BetPlaced{
			BetID:          betID,
			RoundID:        roundID,
			Bettor:         string(caller),
			Amount:         amount,
			AmountAfterFee: afterFee,
			ProtocolFee:    fee,
			SeasonFee:      seasonFee,
			Multiplier:     uint64(multiplier),
		}
		for _, leg := range legs {
			ev.Legs = append(ev.Legs, events.BetLeg{MatchIndex: leg.MatchIndex, Outcome: uint8(leg.Outcome), AmountInPool: leg.AmountInPool})
		}
		fx.round, fx.lp = r, lp
		fx.emit(events.TypeBetPlaced, idKey(roundID), ev)
		fx.volume("bet", amount)
		fx.volume("fee", fee)
		fx.log(zap.Uint64("bet_id", betID), zap.Uint64("round_id", roundID),
			zap.Uint64("amount", amount), zap.Int("legs", len(legs)), zap.Uint64("exposure", exposure))
		out = b
		return nil
	})
	return out, err
}
