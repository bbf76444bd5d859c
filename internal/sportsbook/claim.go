package sportsbook

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

// ClaimResult descreve como o pagamento foi dividido
type ClaimResult struct {
	BetID        uint64   `json:"bet_id"`
	Payout       uint64   `json:"payout"`
	BettorAmount uint64   `json:"bettor_amount"`
	Bounty       uint64   `json:"bounty"`
	Claimer      Identity `json:"claimer"`
}

// ClaimWinnings paga uma aposta vencedora. O apostador pode reclamar a qualquer momento depois
// do settle; qualquer outro só depois do prazo, ficando com BountyBPS do pagamento.
func (e *Engine) ClaimWinnings(ctx context.Context, caller Identity, betID, minPayout uint64) (*ClaimResult, error) {
	var out *ClaimResult
	err := e.update(ctx, "claim_winnings", func(ctx context.Context, tx Tx, fx *effects) error {
		reg, err := loadRegistry(ctx, tx)
		if err != nil {
			return err
		}
		b, err := loadBet(ctx, tx, betID)
		if err != nil {
			return err
		}
		if b.Claimed {
			return ErrBetAlreadyClaimed
		}
		r, err := loadRound(ctx, tx, b.RoundID)
		if err != nil {
			return err
		}
		if !r.Settled {
			return ErrRoundNotSettled
		}
		now := e.now()
		bounty := caller != b.Bettor
		if bounty && (b.ClaimDeadline == nil || !now.After(*b.ClaimDeadline)) {
			return ErrNotBettor
		}
		if !r.wins(b.Predictions) {
			return ErrBetLost
		}
		payout, err := r.quote(b.Predictions, b.Multiplier)
		if err != nil {
			return err
		}
		if payout < minPayout {
			return ErrPayoutBelowMinimum
		}

		res := &ClaimResult{BetID: betID, Payout: payout, BettorAmount: payout, Claimer: caller}
		if bounty {
			if res.Bounty, err = reg.Policy.BountyBPS.Of(payout); err != nil {
				return err
			}
			res.BettorAmount = payout - res.Bounty
		}

		if r.PotBalance < payout {
			// o pot da rodada não cobre: o LP completa a diferença
			if r.RevenueDistributed {
				return ErrInsufficientLPLiquidity
			}
			deficit := payout - r.PotBalance
			if err := tx.Transfer(ctx, AccountLiquidityVault, AccountBettingVault, deficit, "claim_topup:"+idKey(betID)); err != nil {
				return err
			}
			r.LPShortfall += deficit
			r.PotBalance += deficit
		}

		if r.TotalReservedForWinners, err = subU64(r.TotalReservedForWinners, payout, ErrInsufficientLPLiquidity); err != nil {
			return err
		}
		r.PotBalance -= payout
		if r.TotalClaimed, err = addU64(r.TotalClaimed, payout); err != nil {
			return err
		}
		if r.TotalPaidOut, err = addU64(r.TotalPaidOut, payout); err != nil {
			return err
		}

		if err := tx.Transfer(ctx, AccountBettingVault, WalletOf(b.Bettor), res.BettorAmount, "payout:"+idKey(betID)); err != nil {
			return err
		}
		if err := tx.Transfer(ctx, AccountBettingVault, WalletOf(caller), res.Bounty, "bounty:"+idKey(betID)); err != nil {
			return err
		}

		b.Claimed = true
		b.Payout = payout
		b.Bounty = res.Bounty
		if bounty {
			b.BountyClaimer = caller
		}
		b.ClaimedAt = &now
		if err := tx.Save(ctx, b); err != nil {
			return err
		}
		if err := tx.Save(ctx, r); err != nil {
			return err
		}

		fx.round = r
		fx.emit(events.TypeWinningsClaimed, idKey(b.RoundID), events.WinningsClaimed{
			BetID:   betID,
			RoundID: b.RoundID,
			Bettor:  string(b.Bettor),
			Claimer: string(caller),
			Payout:  payout,
			Bounty:  res.Bounty,
		})
		fx.volume("payout", payout)
		fx.volume("bounty", res.Bounty)
		fx.log(zap.Uint64("bet_id", betID), zap.Uint64("payout", payout), zap.Uint64("bounty", res.Bounty),
			zap.Bool("bounty_claim", bounty))
		out = res
		return nil
	})
	return out, err
}
