package sportsbook

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	v, err := mulDiv(10, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	v, err = mulDiv(math.MaxUint64, math.MaxUint64, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)

	_, err = mulDiv(math.MaxUint64, 2, 1)
	assert.ErrorIs(t, err, ErrCalculationOverflow)

	_, err = mulDiv(1, 1, 0)
	assert.ErrorIs(t, err, ErrCalculationOverflow)
}

func TestCheckedAddSub(t *testing.T) {
	_, err := addU64(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrCalculationOverflow)

	_, err = subU64(1, 2, ErrInsufficientLPLiquidity)
	assert.ErrorIs(t, err, ErrInsufficientLPLiquidity)

	d, err := subU64(5, 2, ErrInsufficientLPLiquidity)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), d)

	assert.Equal(t, uint64(math.MaxUint64), saturatingMul(1<<40, 1<<40))
	assert.Equal(t, uint64(6), saturatingMul(2, 3))
}

func TestOddsAndBPS(t *testing.T) {
	p, err := Odds(1_750_000_000).Apply(95 * TokenUnit)
	require.NoError(t, err)
	assert.Equal(t, uint64(166_250_000_000), p)

	fee, err := DefaultProtocolFeeBPS.Of(100 * TokenUnit)
	require.NoError(t, err)
	assert.Equal(t, 5*TokenUnit, fee)
}

func TestPariMutuelOdds(t *testing.T) {
	v, err := pariMutuelOdds(300, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3*OneX), v)

	// denominador zero satura em vez de dividir por zero
	v, err = pariMutuelOdds(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)

	// total + virtual passa de 64 bits sem wraparound
	v, err = pariMutuelOdds(3_000*TokenUnit, 1_000*TokenUnit, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, uint64(3*OneX), v)
}

func TestWeightedPayoutDividesOnce(t *testing.T) {
	v, err := weightedPayout([]uint64{1, 1}, []Odds{1_500_000_000, 1_500_000_000})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v, "soma antes de dividir preserva a fração")

	v, err = weightedPayout([]uint64{50 * TokenUnit, 50 * TokenUnit}, []Odds{1_500_000_000, 2_500_000_000})
	require.NoError(t, err)
	assert.Equal(t, 200*TokenUnit, v)

	_, err = weightedPayout([]uint64{math.MaxUint64, math.MaxUint64}, []Odds{Odds(math.MaxUint64), Odds(math.MaxUint64)})
	assert.ErrorIs(t, err, ErrCalculationOverflow)
}

func TestComputeOddsSeededPoolIsEven(t *testing.T) {
	p := DefaultParams()
	home, away, draw, err := p.seedSplit()
	require.NoError(t, err)
	assert.Equal(t, p.SeedPerMatch, home+away+draw)

	pool := MatchPool{Home: home, Away: away, Draw: draw, Total: p.SeedPerMatch}
	odds, err := ComputeOdds(pool, p.VirtualLiquidity(), p.MaxLockedOdds)
	require.NoError(t, err)
	assert.Equal(t, 3*OneX, odds.Home)
	assert.Equal(t, 3*OneX, odds.Away)
	assert.Equal(t, 3*OneX, odds.Draw)
}

func TestComputeOddsClampsToCeiling(t *testing.T) {
	odds, err := ComputeOdds(MatchPool{Home: 1000, Total: 1000}, 0, 100*OneX)
	require.NoError(t, err)
	assert.Equal(t, OneX, odds.Home)
	assert.Equal(t, 100*OneX, odds.Away)
	assert.Equal(t, 100*OneX, odds.Draw)
}

func TestComputeOddsStayWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ceiling := 50 * OneX
	for i := 0; i < 2000; i++ {
		pool := MatchPool{
			Home: uint64(rng.Int63n(1 << 50)),
			Away: uint64(rng.Int63n(1 << 50)),
			Draw: uint64(rng.Int63n(1 << 50)),
		}
		pool.Total = pool.Home + pool.Away + pool.Draw
		virtual := saturatingMul(uint64(rng.Int63n(1<<40)), uint64(rng.Int63n(1<<30)))

		odds, err := ComputeOdds(pool, virtual, ceiling)
		require.NoError(t, err)
		for _, o := range []Odds{odds.Home, odds.Away, odds.Draw} {
			assert.GreaterOrEqual(t, o, OneX)
			assert.LessOrEqual(t, o, ceiling)
		}
	}
}
