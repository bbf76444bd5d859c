package sportsbook

import (
	"time"

	"github.com/google/uuid"
)

// LiquidityPool guarda a contabilidade do LP. TotalLiquidity inclui o seed emprestado às rodadas
// abertas; LockedReserve é a parte comprometida com rodadas ainda não finalizadas.
type LiquidityPool struct {
	TotalLiquidity     uint64 `json:"total_liquidity"`
	TotalShares        uint64 `json:"total_shares"`
	LockedReserve      uint64 `json:"locked_reserve"`
	AvailableLiquidity uint64 `json:"available_liquidity"`
	TotalProfit        uint64 `json:"total_profit"`
	TotalLoss          uint64 `json:"total_loss"`
}

func (lp *LiquidityPool) Key() uuid.UUID { return LiquidityPoolKey() }
func (lp *LiquidityPool) Kind() string   { return TagLiquidityPool }

func (lp *LiquidityPool) refresh() {
	if lp.LockedReserve > lp.TotalLiquidity {
		lp.AvailableLiquidity = 0
		return
	}
	lp.AvailableLiquidity = lp.TotalLiquidity - lp.LockedReserve
}

// SharesFor calcula as cotas emitidas para um depósito (1:1 no bootstrap)
func (lp *LiquidityPool) SharesFor(amount uint64) (uint64, error) {
	if lp.TotalShares == 0 || lp.TotalLiquidity == 0 {
		return amount, nil
	}
	return mulDiv(amount, lp.TotalShares, lp.TotalLiquidity)
}

// WithdrawalFor calcula quanto vale um lote de cotas
func (lp *LiquidityPool) WithdrawalFor(shares uint64) (uint64, error) {
	if lp.TotalShares == 0 {
		return 0, nil
	}
	return mulDiv(shares, lp.TotalLiquidity, lp.TotalShares)
}

// SharePrice devolve total/cotas em ponto fixo (1.0x no bootstrap)
func (lp *LiquidityPool) SharePrice() Odds {
	if lp.TotalShares == 0 {
		return OneX
	}
	p, err := mulDiv(lp.TotalLiquidity, OddsScale, lp.TotalShares)
	if err != nil {
		return Odds(^uint64(0))
	}
	return Odds(p)
}

func (lp *LiquidityPool) deposit(amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	shares, err := lp.SharesFor(amount)
	if err != nil {
		return 0, err
	}
	if shares == 0 {
		return 0, ErrInvalidAmount
	}
	total, err := addU64(lp.TotalLiquidity, amount)
	if err != nil {
		return 0, err
	}
	totalShares, err := addU64(lp.TotalShares, shares)
	if err != nil {
		return 0, err
	}
	lp.TotalLiquidity, lp.TotalShares = total, totalShares
	lp.refresh()
	return shares, nil
}

func (lp *LiquidityPool) withdraw(shares uint64) (uint64, error) {
	if shares == 0 || shares > lp.TotalShares {
		return 0, ErrInvalidAmount
	}
	amount, err := lp.WithdrawalFor(shares)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	if amount > lp.AvailableLiquidity {
		return 0, ErrInsufficientAvailableLiquidity
	}
	lp.TotalShares -= shares
	lp.TotalLiquidity -= amount
	lp.refresh()
	return amount, nil
}

// lock compromete liquidez disponível; nunca deixa LockedReserve passar de TotalLiquidity
func (lp *LiquidityPool) lock(amount uint64) error {
	if amount > lp.AvailableLiquidity {
		return ErrInsufficientLPLiquidity
	}
	lp.LockedReserve += amount
	lp.refresh()
	return nil
}

func (lp *LiquidityPool) release(amount uint64) {
	if amount > lp.LockedReserve {
		amount = lp.LockedReserve
	}
	lp.LockedReserve -= amount
	lp.refresh()
}

// applyResult registra o resultado líquido de uma rodada finalizada
func (lp *LiquidityPool) applyResult(profit, loss uint64) error {
	if profit > 0 {
		total, err := addU64(lp.TotalLiquidity, profit)
		if err != nil {
			return err
		}
		lp.TotalLiquidity = total
		lp.TotalProfit += profit
	}
	if loss > 0 {
		total, err := subU64(lp.TotalLiquidity, loss, ErrInsufficientLPLiquidity)
		if err != nil {
			return err
		}
		lp.TotalLiquidity = total
		lp.TotalLoss += loss
	}
	lp.refresh()
	return nil
}

// LPPosition são as cotas de um provedor de liquidez
type LPPosition struct {
	Owner     Identity  `json:"owner"`
	Shares    uint64    `json:"shares"`
	Deposited uint64    `json:"deposited"`
	Withdrawn uint64    `json:"withdrawn"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *LPPosition) Key() uuid.UUID { return LPPositionKey(p.Owner) }
func (p *LPPosition) Kind() string   { return TagLPPosition }
