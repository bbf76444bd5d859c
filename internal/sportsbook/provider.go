package sportsbook

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

// LiquidityReceipt é o resultado de um depósito ou saque no LP
type LiquidityReceipt struct {
	Amount   uint64     `json:"amount"`
	Shares   uint64     `json:"shares"`
	Position LPPosition `json:"position"`
}

// AddLiquidity deposita amount no LP e emite cotas proporcionais (1:1 no bootstrap)
func (e *Engine) AddLiquidity(ctx context.Context, caller Identity, amount uint64) (*LiquidityReceipt, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	var out *LiquidityReceipt
	err := e.update(ctx, "add_liquidity", func(ctx context.Context, tx Tx, fx *effects) error {
		lp, err := loadLiquidity(ctx, tx)
		if err != nil {
			return err
		}
		shares, err := lp.deposit(amount)
		if err != nil {
			return err
		}
		if err := tx.Transfer(ctx, WalletOf(caller), AccountLiquidityVault, amount, "lp_deposit:"+string(caller)); err != nil {
			return err
		}

		pos := &LPPosition{Owner: caller}
		err = tx.Get(ctx, pos.Key(), pos)
		isNew := errors.Is(err, ErrRecordNotFound)
		if err != nil && !isNew {
			return err
		}
		if pos.Shares, err = addU64(pos.Shares, shares); err != nil {
			return err
		}
		if pos.Deposited, err = addU64(pos.Deposited, amount); err != nil {
			return err
		}
		pos.UpdatedAt = e.now()
		if isNew {
			err = tx.Insert(ctx, pos)
		} else {
			err = tx.Save(ctx, pos)
		}
		if err != nil {
			return err
		}
		if err := tx.Save(ctx, lp); err != nil {
			return err
		}

		fx.lp = lp
		fx.emit(events.TypeLiquidityAdded, string(caller), events.LiquidityChanged{
			Provider:       string(caller),
			Amount:         amount,
			Shares:         shares,
			TotalLiquidity: lp.TotalLiquidity,
			TotalShares:    lp.TotalShares,
		})
		fx.volume("lp_deposit", amount)
		fx.log(zap.String("provider", string(caller)), zap.Uint64("amount", amount), zap.Uint64("shares", shares))
		out = &LiquidityReceipt{Amount: amount, Shares: shares, Position: *pos}
		return nil
	})
	return out, err
}

// RemoveLiquidity queima cotas e devolve o valor proporcional, limitado à liquidez disponível
func (e *Engine) RemoveLiquidity(ctx context.Context, caller Identity, shares uint64) (*LiquidityReceipt, error) {
	if shares == 0 {
		return nil, ErrInvalidAmount
	}
	var out *LiquidityReceipt
	err := e.update(ctx, "remove_liquidity", func(ctx context.Context, tx Tx, fx *effects) error {
		lp, err := loadLiquidity(ctx, tx)
		if err != nil {
			return err
		}
		pos := &LPPosition{Owner: caller}
		if err := loadRecord(ctx, tx, pos, ErrPositionNotFound); err != nil {
			return err
		}
		if pos.Shares < shares {
			return ErrInsufficientShares
		}
		amount, err := lp.withdraw(shares)
		if err != nil {
			return err
		}
		if err := tx.Transfer(ctx, AccountLiquidityVault, WalletOf(caller), amount, "lp_withdraw:"+string(caller)); err != nil {
			return err
		}
		pos.Shares -= shares
		pos.Withdrawn += amount
		pos.UpdatedAt = e.now()
		if err := tx.Save(ctx, pos); err != nil {
			return err
		}
		if err := tx.Save(ctx, lp); err != nil {
			return err
		}

		fx.lp = lp
		fx.emit(events.TypeLiquidityRemoved, string(caller), events.LiquidityChanged{
			Provider:       string(caller),
			Amount:         amount,
			Shares:         shares,
			TotalLiquidity: lp.TotalLiquidity,
			TotalShares:    lp.TotalShares,
		})
		fx.volume("lp_withdraw", amount)
		fx.log(zap.String("provider", string(caller)), zap.Uint64("amount", amount), zap.Uint64("shares", shares))
		out = &LiquidityReceipt{Amount: amount, Shares: shares, Position: *pos}
		return nil
	})
	return out, err
}
