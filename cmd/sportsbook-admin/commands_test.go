package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/sportsbook-ledger/internal/shared/config"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook/memstore"
	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

type captureResults struct{ got []events.MatchResultsFinal }

func (c *captureResults) PublishResults(_ context.Context, ev events.MatchResultsFinal) error {
	c.got = append(c.got, ev)
	return nil
}

func newTestApp(t *testing.T) (*app, *bytes.Buffer, *captureResults) {
	t.Helper()
	cfg := config.Config{
		Authority: "admin",
		Treasury:  "treasury",
		TokenMint: "BET",
		Ledger:    config.DefaultLedger(),
	}
	params, err := cfg.Ledger.Params()
	require.NoError(t, err)

	mem := memstore.New()
	eng, err := sportsbook.New(mem, params, sportsbook.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	res := &captureResults{}
	return &app{cfg: cfg, log: zap.NewNop(), engine: eng, minter: memMinter{mem}, results: res, out: out}, out, res
}

// exec roda um comando e devolve o JSON impresso
func exec(t *testing.T, a *app, out *bytes.Buffer, args ...string) map[string]any {
	t.Helper()
	out.Reset()
	require.NoError(t, a.run(context.Background(), args), "command %v", args)
	var v map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	return v
}

func TestRoundLifecycleThroughCLI(t *testing.T) {
	a, out, _ := newTestApp(t)

	exec(t, a, out, "init")
	exec(t, a, out, "mint", "-to", "lp", "-amount", "1000000")
	lp := exec(t, a, out, "lp-add", "-user", "lp", "-amount", "1000000")
	assert.EqualValues(t, 1_000_000*sportsbook.TokenUnit, lp["shares"])

	exec(t, a, out, "round-init", "-round", "1")
	exec(t, a, out, "round-seed", "-round", "1")

	exec(t, a, out, "mint", "-to", "alice", "-amount", "100")
	bet := exec(t, a, out, "bet", "-user", "alice", "-round", "1", "-matches", "0,1", "-outcomes", "1,1", "-amount", "100")
	betID := bet["bet_id"]
	require.NotNil(t, betID)

	exec(t, a, out, "settle", "-round", "1", "-results", "1,1,1,1,1,1,1,1,1,1")
	claim := exec(t, a, out, "claim", "-user", "alice", "-bet", "1")
	assert.Equal(t, claim["payout"], claim["bettor_amount"])

	bal := exec(t, a, out, "balance", "-user", "alice")
	assert.Equal(t, claim["payout"], bal["balance"])

	round := exec(t, a, out, "finalize", "-round", "1")
	assert.Equal(t, true, round["revenue_distributed"])

	pool := exec(t, a, out, "show-pool")
	assert.Contains(t, pool, "share_price")

	view := exec(t, a, out, "show-round", "-round", "1")
	assert.Len(t, view["display_odds"], sportsbook.MatchesPerRound)
}

func TestCLIErrors(t *testing.T) {
	a, out, _ := newTestApp(t)

	assert.ErrorIs(t, a.run(context.Background(), nil), errUsage)
	assert.Error(t, a.run(context.Background(), []string{"nope"}))
	assert.Contains(t, out.String(), "publish-results")

	err := a.run(context.Background(), []string{"round-init", "-round", "1"})
	assert.ErrorIs(t, err, sportsbook.ErrPoolNotInitialized)

	err = a.run(context.Background(), []string{"bet", "-user", "alice"})
	assert.EqualError(t, err, "-round is required")

	err = a.run(context.Background(), []string{"show-round", "-round", "1", "-cached"})
	assert.EqualError(t, err, "snapshot cache not configured")

	err = a.run(context.Background(), []string{"migrate"})
	assert.Error(t, err)
}

func TestPublishResults(t *testing.T) {
	a, out, res := newTestApp(t)

	v := exec(t, a, out, "publish-results", "-round", "4", "-results", "1,2,3,1,2,3,1,2,3,1", "-finalize")
	assert.EqualValues(t, 4, v["round_id"])
	require.Len(t, res.got, 1)
	assert.True(t, res.got[0].Finalize)
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3, 1, 2, 3, 1}, res.got[0].Results)
}

func TestParseUint8List(t *testing.T) {
	v, err := parseUint8List("1, 2,3")
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3}, v)

	v, err = parseUint8List("")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = parseUint8List("1,256")
	assert.Error(t, err)
}
