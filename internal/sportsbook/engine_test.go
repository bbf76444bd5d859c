package sportsbook_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sb "github.com/radieske/sportsbook-ledger/internal/sportsbook"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook/memstore"
	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

const (
	admin    sb.Identity = "admin"
	provider sb.Identity = "lp-1"
	alice    sb.Identity = "alice"
	bob      sb.Identity = "bob"
	hunter   sb.Identity = "hunter"

	token = sb.TokenUnit
)

var (
	treasury = sb.WalletOf("treasury")
	allHome  = []uint8{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type capturePublisher struct {
	mu  sync.Mutex
	evs []events.Envelope
}

func (p *capturePublisher) Publish(_ context.Context, evs ...events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evs = append(p.evs, evs...)
	return nil
}

func (p *capturePublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.evs))
	for i, e := range p.evs {
		out[i] = e.Type
	}
	return out
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	store  *memstore.Store
	engine *sb.Engine
	clock  *fakeClock
	pub    *capturePublisher
}

// newHarness inicializa o pool e deposita lpAmount de liquidez
func newHarness(t *testing.T, lpAmount uint64) *harness {
	t.Helper()
	return newHarnessWithParams(t, sb.DefaultParams(), lpAmount)
}

func newHarnessWithParams(t *testing.T, params sb.Params, lpAmount uint64) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		ctx:   context.Background(),
		store: memstore.New(),
		clock: &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		pub:   &capturePublisher{},
	}
	eng, err := sb.New(h.store, params,
		sb.WithLogger(zap.NewNop()),
		sb.WithClock(h.clock.Now),
		sb.WithPublisher(h.pub),
	)
	require.NoError(t, err)
	h.engine = eng

	_, err = eng.Initialize(h.ctx, admin, sb.DefaultFeeConfig(), treasury, "BET")
	require.NoError(t, err)
	if lpAmount > 0 {
		h.fund(provider, lpAmount)
		_, err = eng.AddLiquidity(h.ctx, provider, lpAmount)
		require.NoError(t, err)
	}
	return h
}

func (h *harness) fund(id sb.Identity, amount uint64) {
	h.t.Helper()
	require.NoError(h.t, h.store.Mint(sb.WalletOf(id), amount))
}

func (h *harness) supply() uint64 {
	h.t.Helper()
	total, err := h.store.Supply()
	require.NoError(h.t, err)
	return total
}

func (h *harness) balance(acct sb.Account) uint64 {
	h.t.Helper()
	b, err := h.engine.Balance(h.ctx, acct)
	require.NoError(h.t, err)
	return b
}

func (h *harness) openRound(id uint64) *sb.Round {
	h.t.Helper()
	_, err := h.engine.InitializeRound(h.ctx, admin, id)
	require.NoError(h.t, err)
	r, err := h.engine.SeedRoundPools(h.ctx, admin, id)
	require.NoError(h.t, err)
	return r
}

func (h *harness) bet(who sb.Identity, roundID uint64, idx, outcomes []uint8, amount uint64) *sb.Bet {
	h.t.Helper()
	h.fund(who, amount)
	b, err := h.engine.PlaceBet(h.ctx, who, roundID, idx, outcomes, amount)
	require.NoError(h.t, err)
	return b
}

// setOdds sobrescreve uma odd travada direto no store, simulando um pool já desbalanceado
func (h *harness) setOdds(roundID uint64, match int, home sb.Odds) {
	h.t.Helper()
	err := h.store.Update(h.ctx, func(tx sb.Tx) error {
		r := &sb.Round{ID: roundID}
		if err := tx.Get(h.ctx, r.Key(), r); err != nil {
			return err
		}
		r.Matches[match].Odds.Home = home
		return tx.Save(h.ctx, r)
	})
	require.NoError(h.t, err)
}

func TestInitialize(t *testing.T) {
	h := newHarness(t, 0)

	reg, err := h.engine.Registry(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, admin, reg.Authority)
	assert.Equal(t, uint64(1), reg.NextRoundID)
	assert.Equal(t, uint64(1), reg.NextBetID)
	assert.Equal(t, sb.DefaultProtocolFeeBPS, reg.ProtocolFeeBPS)

	lp, err := h.engine.LiquidityPool(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, sb.LiquidityPool{}, *lp)

	_, err = h.engine.Initialize(h.ctx, admin, sb.DefaultFeeConfig(), treasury, "BET")
	assert.ErrorIs(t, err, sb.ErrPoolAlreadyInitialized)
	assert.Equal(t, sb.KindSequencing, sb.KindOf(err))
}

func TestInitializeRejectsBadFees(t *testing.T) {
	eng, err := sb.New(memstore.New(), sb.DefaultParams())
	require.NoError(t, err)
	_, err = eng.Initialize(context.Background(), admin, sb.FeeConfig{ProtocolFeeBPS: 9_000, SeasonPoolShareBPS: 1_001}, treasury, "BET")
	assert.ErrorIs(t, err, sb.ErrInvalidConfig)

	_, err = eng.Registry(context.Background())
	assert.ErrorIs(t, err, sb.ErrPoolNotInitialized)
}

func TestInitializeRoundIsSequential(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.engine.InitializeRound(h.ctx, admin, 2)
	assert.ErrorIs(t, err, sb.ErrInvalidRoundID)
	assert.Equal(t, "InvalidRoundId", sb.CodeOf(err))

	_, err = h.engine.InitializeRound(h.ctx, alice, 1)
	assert.ErrorIs(t, err, sb.ErrInvalidAuthority)

	r, err := h.engine.InitializeRound(h.ctx, admin, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.ID)

	_, err = h.engine.InitializeRound(h.ctx, admin, 1)
	assert.ErrorIs(t, err, sb.ErrInvalidRoundID)

	_, err = h.engine.InitializeRound(h.ctx, admin, 2)
	require.NoError(t, err)

	reg, err := h.engine.Registry(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), reg.NextRoundID)
}

func TestSeedRoundPools(t *testing.T) {
	h := newHarness(t, 100_000*token)

	_, err := h.engine.SeedRoundPools(h.ctx, admin, 1)
	assert.ErrorIs(t, err, sb.ErrRoundNotFound)

	r := h.openRound(1)
	assert.True(t, r.Seeded)
	assert.Equal(t, 30_000*token, r.SeedAmount)
	for _, m := range r.Matches {
		assert.True(t, m.Odds.Locked)
		assert.Equal(t, 3*sb.OneX, m.Odds.Home)
	}

	_, err = h.engine.SeedRoundPools(h.ctx, admin, 1)
	assert.ErrorIs(t, err, sb.ErrRoundAlreadySeeded)

	lp, err := h.engine.LiquidityPool(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 100_000*token, lp.TotalLiquidity)
	assert.Equal(t, 30_000*token, lp.LockedReserve)
	assert.Equal(t, 70_000*token, lp.AvailableLiquidity)
	assert.Equal(t, 30_000*token, h.balance(sb.AccountBettingVault))
	assert.Equal(t, 70_000*token, h.balance(sb.AccountLiquidityVault))
}

func TestSeedRequiresLiquidity(t *testing.T) {
	h := newHarness(t, 10_000*token)
	_, err := h.engine.InitializeRound(h.ctx, admin, 1)
	require.NoError(t, err)

	_, err = h.engine.SeedRoundPools(h.ctx, admin, 1)
	assert.ErrorIs(t, err, sb.ErrInsufficientLPLiquidity)
	assert.Equal(t, sb.KindSolvency, sb.KindOf(err))

	r, err := h.engine.Round(h.ctx, 1)
	require.NoError(t, err)
	assert.False(t, r.Seeded)
}

func TestPlaceBetValidation(t *testing.T) {
	h := newHarness(t, 100_000*token)
	_, err := h.engine.InitializeRound(h.ctx, admin, 1)
	require.NoError(t, err)
	h.fund(alice, 1_000*token)

	_, err = h.engine.PlaceBet(h.ctx, alice, 1, []uint8{0}, []uint8{1}, 10*token)
	assert.ErrorIs(t, err, sb.ErrRoundNotSeeded)

	_, err = h.engine.SeedRoundPools(h.ctx, admin, 1)
	require.NoError(t, err)

	cases := []struct {
		name    string
		idx     []uint8
		out     []uint8
		amount  uint64
		wantErr error
	}{
		{"length mismatch", []uint8{0, 1}, []uint8{1}, token, sb.ErrArrayLengthMismatch},
		{"empty", nil, nil, token, sb.ErrInvalidBetCount},
		{"eleven legs", make([]uint8, 11), make([]uint8, 11), token, sb.ErrInvalidBetCount},
		{"bad index", []uint8{10}, []uint8{1}, token, sb.ErrInvalidMatchIndex},
		{"bad outcome", []uint8{0}, []uint8{4}, token, sb.ErrInvalidOutcome},
		{"duplicate", []uint8{2, 2}, []uint8{1, 3}, token, sb.ErrDuplicateMatchIndex},
		{"zero amount", []uint8{0}, []uint8{1}, 0, sb.ErrInvalidAmount},
		{"above max", []uint8{0}, []uint8{1}, 10_001 * token, sb.ErrBetExceedsMaximum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.engine.PlaceBet(h.ctx, alice, 1, tc.idx, tc.out, tc.amount)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, sb.KindValidation, sb.KindOf(err))
		})
	}

	_, err = h.engine.PlaceBet(h.ctx, alice, 9, []uint8{0}, []uint8{1}, token)
	assert.ErrorIs(t, err, sb.ErrRoundNotFound)

	r, err := h.engine.Round(h.ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, r.TotalBetVolume)
	assert.Equal(t, 1_000*token, h.balance(sb.WalletOf(alice)))
}

func TestPlaceBetIsAllOrNothing(t *testing.T) {
	h := newHarness(t, 100_000*token)
	h.openRound(1)
	h.fund(alice, 5*token)

	_, err := h.engine.PlaceBet(h.ctx, alice, 1, []uint8{0}, []uint8{1}, 10*token)
	assert.ErrorIs(t, err, sb.ErrInsufficientFunds)

	r, err := h.engine.Round(h.ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, r.TotalBetVolume)
	assert.Empty(t, r.BetIDs)
	assert.Equal(t, 1_000*token, r.Matches[0].Pool.Home)

	reg, err := h.engine.Registry(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), reg.NextBetID)
	assert.Equal(t, 5*token, h.balance(sb.WalletOf(alice)))
	assert.Zero(t, h.balance(treasury))

	_, err = h.engine.Bet(h.ctx, 1)
	assert.ErrorIs(t, err, sb.ErrBetNotFound)
}

func TestPlaceBetRecordsParlay(t *testing.T) {
	h := newHarness(t, 100_000*token)
	h.openRound(1)

	b := h.bet(alice, 1, []uint8{0, 4, 7}, []uint8{1, 2, 3}, 100*token)
	assert.Equal(t, uint64(1), b.ID)
	assert.Equal(t, sb.Odds(1_100_000_000), b.Multiplier)
	assert.Equal(t, 95*token, b.AmountAfterFee)
	assert.Equal(t, 95*token, b.AllocatedAmount)
	assert.Equal(t, 3, b.NumPredictions())
	assert.Nil(t, b.ClaimDeadline)

	var sum uint64
	for _, p := range b.Predictions {
		sum += p.AmountInPool
	}
	assert.Equal(t, b.AllocatedAmount, sum)

	// 95 × 3.0 × 1.10
	assert.Equal(t, uint64(313_500_000_000), b.MaxPayout)
	assert.Equal(t, uint64(28_500_000_000), b.ParlayBonus)

	single := h.bet(bob, 1, []uint8{0}, []uint8{1}, 10*token)
	assert.Equal(t, uint64(2), single.ID)
	assert.Equal(t, sb.OneX, single.Multiplier)

	r, err := h.engine.Round(h.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r.BetCount)
	assert.Equal(t, uint64(1), r.ParlayCount)
	assert.Equal(t, []uint64{1, 2}, r.BetIDs)
	assert.Equal(t, 95*token+9_500_000_000, r.TotalBetVolume)
	assert.Equal(t, 5*token+500_000_000, r.ProtocolFeeCollected)
	// 2% da taxa fica retido para a temporada até o finalize
	assert.Equal(t, uint64(110_000_000), r.SeasonFeeHeld)
	assert.Equal(t, uint64(5_390_000_000), h.balance(treasury))

	lp, err := h.engine.LiquidityPool(h.ctx)
	require.NoError(t, err)
	// seed + exposição (313.5-95) + (28.5-9.5)
	assert.Equal(t, 30_000*token+218_500_000_000+19*token, lp.LockedReserve)
}

func TestPlaceBetLocksExposure(t *testing.T) {
	h := newHarness(t, 30_100*token)
	h.openRound(1)
	h.fund(alice, 100*token)

	// 95 × 3.0 = 285; exposição 190 > 100 disponível
	_, err := h.engine.PlaceBet(h.ctx, alice, 1, []uint8{0}, []uint8{1}, 100*token)
	assert.ErrorIs(t, err, sb.ErrInsufficientLPLiquidity)

	b, err := h.engine.PlaceBet(h.ctx, alice, 1, []uint8{0}, []uint8{1}, 50*token)
	require.NoError(t, err)
	assert.Equal(t, uint64(142_500_000_000), b.MaxPayout)
}

func TestPlaceBetRespectsRoundBetLimit(t *testing.T) {
	params := sb.DefaultParams()
	params.MaxBetsPerRound = 2
	h := newHarnessWithParams(t, params, 100_000*token)
	h.openRound(1)
	h.bet(alice, 1, []uint8{0}, []uint8{1}, 10*token)
	h.bet(bob, 1, []uint8{1}, []uint8{2}, 10*token)

	h.fund(alice, 10*token)
	_, err := h.engine.PlaceBet(h.ctx, alice, 1, []uint8{2}, []uint8{3}, 10*token)
	assert.ErrorIs(t, err, sb.ErrRoundBetLimitReached)
	assert.Equal(t, sb.KindSequencing, sb.KindOf(err))
	assert.Equal(t, 10*token, h.balance(sb.WalletOf(alice)))

	// o limite é por rodada
	h.openRound(2)
	_, err = h.engine.PlaceBet(h.ctx, alice, 2, []uint8{2}, []uint8{3}, 10*token)
	require.NoError(t, err)
}

func TestPolicyIsFixedAtInitialize(t *testing.T) {
	h := newHarness(t, 1_000_000*token)
	reg, err := h.engine.Registry(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, sb.DefaultParams(), reg.Policy)

	// outro processo, com config divergente, sobre o mesmo store
	other := sb.DefaultParams()
	other.ClaimWindow = time.Hour
	other.SeedPerMatch = 500 * token
	other.MaxBetAmount = 10 * token
	other.BountyBPS = 5_000
	eng, err := sb.New(h.store, other, sb.WithLogger(zap.NewNop()), sb.WithClock(h.clock.Now))
	require.NoError(t, err)

	_, err = eng.InitializeRound(h.ctx, admin, 1)
	require.NoError(t, err)
	r, err := eng.SeedRoundPools(h.ctx, admin, 1)
	require.NoError(t, err)
	assert.Equal(t, 30_000*token, r.SeedAmount)

	h.fund(alice, 100*token)
	b, err := eng.PlaceBet(h.ctx, alice, 1, []uint8{0}, []uint8{1}, 100*token)
	require.NoError(t, err)

	_, err = eng.SettleRound(h.ctx, admin, 1, allHome)
	require.NoError(t, err)
	got, err := eng.Bet(h.ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ClaimDeadline)
	assert.True(t, got.ClaimDeadline.Equal(h.clock.Now().Add(sb.DefaultClaimWindow)))

	h.clock.Advance(2 * time.Hour)
	_, err = eng.ClaimWinnings(h.ctx, hunter, b.ID, 0)
	assert.ErrorIs(t, err, sb.ErrNotBettor)

	h.clock.Advance(sb.DefaultClaimWindow)
	res, err := eng.ClaimWinnings(h.ctx, hunter, b.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(28_500_000_000), res.Bounty)
}

func TestOddsImmutableAfterLock(t *testing.T) {
	h := newHarness(t, 1_000_000*token)
	before := h.openRound(1).Matches[0].Odds

	for i := 0; i < 5; i++ {
		h.bet(alice, 1, []uint8{0}, []uint8{1}, 1_000*token)
	}
	r, err := h.engine.Round(h.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before, r.Matches[0].Odds)
	assert.Equal(t, 1_000*token+5*950*token, r.Matches[0].Pool.Home)
}

func TestSettleRound(t *testing.T) {
	h := newHarness(t, 100_000*token)
	_, err := h.engine.InitializeRound(h.ctx, admin, 1)
	require.NoError(t, err)

	_, err = h.engine.SettleRound(h.ctx, admin, 1, allHome)
	assert.ErrorIs(t, err, sb.ErrRoundNotSeeded)

	_, err = h.engine.SeedRoundPools(h.ctx, admin, 1)
	require.NoError(t, err)
	h.bet(alice, 1, []uint8{0}, []uint8{1}, 100*token)
	h.bet(bob, 1, []uint8{0}, []uint8{2}, 100*token)

	_, err = h.engine.SettleRound(h.ctx, alice, 1, allHome)
	assert.ErrorIs(t, err, sb.ErrInvalidAuthority)
	_, err = h.engine.SettleRound(h.ctx, admin, 1, allHome[:9])
	assert.ErrorIs(t, err, sb.ErrMatchResultsIncomplete)

	r, err := h.engine.SettleRound(h.ctx, admin, 1, allHome)
	require.NoError(t, err)
	assert.True(t, r.Settled)
	assert.Equal(t, h.clock.Now(), r.EndTime)
	assert.Equal(t, uint64(285*token), r.TotalReservedForWinners)

	b, err := h.engine.Bet(h.ctx, 1)
	require.NoError(t, err)
	assert.True(t, b.Settled)
	require.NotNil(t, b.ClaimDeadline)
	assert.Equal(t, h.clock.Now().Add(24*time.Hour), *b.ClaimDeadline)

	_, err = h.engine.SettleRound(h.ctx, admin, 1, allHome)
	assert.ErrorIs(t, err, sb.ErrRoundAlreadySettled)

	h.fund(alice, token)
	_, err = h.engine.PlaceBet(h.ctx, alice, 1, []uint8{0}, []uint8{1}, token)
	assert.ErrorIs(t, err, sb.ErrRoundAlreadySettled)
}

func TestAllLegsMustBeCorrect(t *testing.T) {
	h := newHarness(t, 100_000*token)
	h.openRound(1)
	b := h.bet(alice, 1, []uint8{0, 1}, []uint8{1, 2}, 100*token)

	results := []uint8{1, 3, 1, 1, 1, 1, 1, 1, 1, 1}
	_, err := h.engine.SettleRound(h.ctx, admin, 1, results)
	require.NoError(t, err)

	q, err := h.engine.BetStatus(h.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, sb.BetLost, q.Status)
	assert.Zero(t, q.Payout)

	_, err = h.engine.ClaimWinnings(h.ctx, alice, b.ID, 0)
	assert.ErrorIs(t, err, sb.ErrBetLost)

	got, err := h.engine.Bet(h.ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.Claimed)
}

func TestClaimScenario(t *testing.T) {
	h := newHarness(t, 1_000_000*token)
	h.openRound(1)
	h.setOdds(1, 0, 1_750_000_000)

	b := h.bet(alice, 1, []uint8{0}, []uint8{1}, 100*token)
	assert.Equal(t, sb.OneX, b.Multiplier)

	_, err := h.engine.ClaimWinnings(h.ctx, alice, b.ID, 0)
	assert.ErrorIs(t, err, sb.ErrRoundNotSettled)

	_, err = h.engine.SettleRound(h.ctx, admin, 1, allHome)
	require.NoError(t, err)

	q, err := h.engine.BetStatus(h.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, sb.BetWon, q.Status)
	assert.Equal(t, uint64(166_250_000_000), q.Payout)

	_, err = h.engine.ClaimWinnings(h.ctx, alice, b.ID, 166_250_000_001)
	assert.ErrorIs(t, err, sb.ErrPayoutBelowMinimum)

	res, err := h.engine.ClaimWinnings(h.ctx, alice, b.ID, q.Payout)
	require.NoError(t, err)
	assert.Equal(t, uint64(166_250_000_000), res.Payout)
	assert.Equal(t, res.Payout, res.BettorAmount)
	assert.Zero(t, res.Bounty)
	assert.Equal(t, "166.25", sb.FormatTokens(h.balance(sb.WalletOf(alice))))

	_, err = h.engine.ClaimWinnings(h.ctx, alice, b.ID, 0)
	assert.ErrorIs(t, err, sb.ErrBetAlreadyClaimed)
	assert.Equal(t, uint64(166_250_000_000), h.balance(sb.WalletOf(alice)))

	r, err := h.engine.Round(h.ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, r.TotalReservedForWinners)
	assert.Equal(t, res.Payout, r.TotalClaimed)
	assert.Equal(t, res.Payout, r.TotalPaidOut)

	q, err = h.engine.BetStatus(h.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, sb.BetClaimed, q.Status)

	assert.Equal(t, []string{
		events.TypePoolInitialized,
		events.TypeLiquidityAdded,
		events.TypeRoundInitialized,
		events.TypeRoundSeeded,
		events.TypeBetPlaced,
		events.TypeRoundSettled,
		events.TypeWinningsClaimed,
	}, h.pub.Types())
}

func TestBountyClaimAfterDeadline(t *testing.T) {
	h := newHarness(t, 1_000_000*token)
	h.openRound(1)
	b := h.bet(alice, 1, []uint8{0}, []uint8{1}, 100*token)
	_, err := h.engine.SettleRound(h.ctx, admin, 1, allHome)
	require.NoError(t, err)

	_, err = h.engine.ClaimWinnings(h.ctx, hunter, b.ID, 0)
	assert.ErrorIs(t, err, sb.ErrNotBettor)
	assert.Equal(t, sb.KindAuth, sb.KindOf(err))

	h.clock.Advance(24 * time.Hour)
	_, err = h.engine.ClaimWinnings(h.ctx, hunter, b.ID, 0)
	assert.ErrorIs(t, err, sb.ErrNotBettor, "no prazo exato ainda é do apostador")

	h.clock.Advance(time.Second)
	res, err := h.engine.ClaimWinnings(h.ctx, hunter, b.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(285*token), res.Payout)
	assert.Equal(t, uint64(28_500_000_000), res.Bounty)
	assert.Equal(t, uint64(256_500_000_000), res.BettorAmount)
	assert.Equal(t, res.Bounty, h.balance(sb.WalletOf(hunter)))
	assert.Equal(t, res.BettorAmount, h.balance(sb.WalletOf(alice)))

	got, err := h.engine.Bet(h.ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Claimed)
	assert.Equal(t, hunter, got.BountyClaimer)

	_, err = h.engine.ClaimWinnings(h.ctx, alice, b.ID, 0)
	assert.ErrorIs(t, err, sb.ErrBetAlreadyClaimed)
}

func TestBettorMayClaimAfterDeadline(t *testing.T) {
	h := newHarness(t, 1_000_000*token)
	h.openRound(1)
	b := h.bet(alice, 1, []uint8{0}, []uint8{1}, 100*token)
	_, err := h.engine.SettleRound(h.ctx, admin, 1, allHome)
	require.NoError(t, err)

	h.clock.Advance(48 * time.Hour)
	res, err := h.engine.ClaimWinnings(h.ctx, alice, b.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, res.Bounty)
	assert.Equal(t, uint64(285*token), h.balance(sb.WalletOf(alice)))
}

func TestConcurrentBetsOnSameMatch(t *testing.T) {
	h := newHarness(t, 1_000_000*token)
	h.openRound(1)

	const n = 25
	bettors := make([]sb.Identity, n)
	for i := range bettors {
		bettors[i] = sb.Identity("bettor-" + string(rune('a'+i)))
		h.fund(bettors[i], 100*token)
	}

	var wg sync.WaitGroup
	ids := make([]uint64, n)
	errs := make([]error, n)
	for i := range bettors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := h.engine.PlaceBet(h.ctx, bettors[i], 1, []uint8{3}, []uint8{3}, 100*token)
			errs[i] = err
			if err == nil {
				ids[i] = b.ID
			}
		}(i)
	}
	wg.Wait()

	seen := map[uint64]bool{}
	for i := range ids {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]], "bet id %d repetido", ids[i])
		seen[ids[i]] = true
		assert.GreaterOrEqual(t, ids[i], uint64(1))
		assert.LessOrEqual(t, ids[i], uint64(n))
	}

	r, err := h.engine.Round(h.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(n)*95*token, r.TotalBetVolume)
	assert.Equal(t, 1_000*token+uint64(n)*95*token, r.Matches[3].Pool.Draw)
	assert.Len(t, r.BetIDs, n)

	reg, err := h.engine.Registry(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(n+1), reg.NextBetID)
}
