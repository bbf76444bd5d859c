package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sportsbook-ledger/internal/shared/config"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook"
	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

// minter credita tokens novos; só existe em ambientes de teste/dev
type minter interface {
	Mint(ctx context.Context, acct sportsbook.Account, amount uint64) error
}

// resultsPublisher envia resultados oficiais para o settlement-worker
type resultsPublisher interface {
	PublishResults(ctx context.Context, ev events.MatchResultsFinal) error
}

// snapshotReader lê o cache de rodadas
type snapshotReader interface {
	Round(ctx context.Context, id uint64) (*sportsbook.Round, error)
}

type app struct {
	cfg       config.Config
	log       *zap.Logger
	engine    *sportsbook.Engine
	minter    minter
	results   resultsPublisher // opcional
	snapshots snapshotReader   // opcional
	migrate   func(ctx context.Context) error
	out       io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error
}

var commands = map[string]command{
	"migrate":         {"cria as tabelas do ledger", cmdMigrate},
	"init":            {"inicializa o pool (-protocol-fee-bps, -winner-share-bps, -season-share-bps)", cmdInit},
	"mint":            {"credita tokens numa carteira (-to, -amount)", cmdMint},
	"round-init":      {"abre uma rodada (-round)", cmdRoundInit},
	"round-seed":      {"semeia as partidas da rodada (-round)", cmdRoundSeed},
	"bet":             {"aposta (-user, -round, -matches 0,1, -outcomes 1,3, -amount)", cmdBet},
	"settle":          {"liquida a rodada (-round, -results 1,2,3,...)", cmdSettle},
	"finalize":        {"distribui a receita da rodada (-round)", cmdFinalize},
	"claim":           {"resgata um bilhete vencedor (-user, -bet, -min-payout)", cmdClaim},
	"lp-add":          {"deposita liquidez (-user, -amount)", cmdLPAdd},
	"lp-remove":       {"retira liquidez (-user, -shares)", cmdLPRemove},
	"season-predict":  {"palpite de campeão (-user, -team)", cmdSeasonPredict},
	"season-advance":  {"encerra a temporada (-team)", cmdSeasonAdvance},
	"season-start":    {"abre a próxima temporada", cmdSeasonStart},
	"season-claim":    {"resgata prêmio da temporada (-user, -season)", cmdSeasonClaim},
	"show-pool":       {"registro do pool e pool de liquidez", cmdShowPool},
	"show-round":      {"estado da rodada (-round, -cached)", cmdShowRound},
	"show-bet":        {"bilhete e status (-bet)", cmdShowBet},
	"show-lp":         {"posição de um provedor (-user)", cmdShowLP},
	"balance":         {"saldo de uma conta (-account ou -user)", cmdBalance},
	"publish-results": {"publica resultados para o settlement-worker (-round, -results, -finalize)", cmdPublishResults},
}

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(a.out)
	return cmd.run(ctx, a, fs, args[1:])
}

func (a *app) usage() {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintln(a.out, "usage: sportsbook-admin [-store postgres|memory] <command> [flags]")
	for _, n := range names {
		fmt.Fprintf(a.out, "  %-16s %s\n", n, commands[n].usage)
	}
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) authority() sportsbook.Identity { return sportsbook.Identity(a.cfg.Authority) }

// ---- flags ----

func tokensFlag(fs *flag.FlagSet, name, usage string) *string {
	return fs.String(name, "", usage+" (tokens, ex.: 100.5)")
}

func parseUint8List(s string) ([]uint8, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint8, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid list element %q: %w", p, err)
		}
		out = append(out, uint8(v))
	}
	return out, nil
}

func required(fs *flag.FlagSet, names ...string) error {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, n := range names {
		if !set[n] {
			return fmt.Errorf("-%s is required", n)
		}
	}
	return nil
}

// ---- comandos ----

func cmdMigrate(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.migrate == nil {
		return errors.New("store has no schema")
	}
	return a.migrate(ctx)
}

func cmdInit(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	fees := a.cfg.Ledger.Fees
	protocol := fs.Uint("protocol-fee-bps", uint(fees.ProtocolFeeBPS), "taxa do protocolo em bps")
	winner := fs.Uint("winner-share-bps", uint(fees.WinnerShareBPS), "parcela dos vencedores em bps")
	season := fs.Uint("season-share-bps", uint(fees.SeasonPoolShareBPS), "parcela da temporada em bps")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if uint64(*protocol) > sportsbook.BPSDenominator || uint64(*winner) > sportsbook.BPSDenominator || uint64(*season) > sportsbook.BPSDenominator {
		return sportsbook.ErrInvalidConfig
	}
	reg, err := a.engine.Initialize(ctx, a.authority(), sportsbook.FeeConfig{
		ProtocolFeeBPS:     sportsbook.BPS(*protocol),
		WinnerShareBPS:     sportsbook.BPS(*winner),
		SeasonPoolShareBPS: sportsbook.BPS(*season),
	}, sportsbook.WalletOf(sportsbook.Identity(a.cfg.Treasury)), a.cfg.TokenMint)
	if err != nil {
		return err
	}
	return a.print(reg)
}

func cmdMint(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	to := fs.String("to", "", "usuário que recebe")
	amount := tokensFlag(fs, "amount", "quantidade")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "to", "amount"); err != nil {
		return err
	}
	if a.minter == nil {
		return errors.New("store does not support mint")
	}
	v, err := sportsbook.ParseTokens(*amount)
	if err != nil {
		return err
	}
	acct := sportsbook.WalletOf(sportsbook.Identity(*to))
	if err := a.minter.Mint(ctx, acct, v); err != nil {
		return err
	}
	return a.printBalance(ctx, acct)
}

func cmdRoundInit(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	id := fs.Uint64("round", 0, "id da rodada (sequencial)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := a.engine.InitializeRound(ctx, a.authority(), *id)
	if err != nil {
		return err
	}
	return a.print(r)
}

func cmdRoundSeed(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	id := fs.Uint64("round", 0, "id da rodada")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := a.engine.SeedRoundPools(ctx, a.authority(), *id)
	if err != nil {
		return err
	}
	return a.print(r)
}

func cmdBet(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	user := fs.String("user", "", "apostador")
	round := fs.Uint64("round", 0, "id da rodada")
	matches := fs.String("matches", "", "índices das partidas, separados por vírgula")
	outcomes := fs.String("outcomes", "", "palpites 1=casa 2=fora 3=empate, na mesma ordem")
	amount := tokensFlag(fs, "amount", "valor apostado")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "user", "round", "matches", "outcomes", "amount"); err != nil {
		return err
	}
	idx, err := parseUint8List(*matches)
	if err != nil {
		return err
	}
	outs, err := parseUint8List(*outcomes)
	if err != nil {
		return err
	}
	v, err := sportsbook.ParseTokens(*amount)
	if err != nil {
		return err
	}
	b, err := a.engine.PlaceBet(ctx, sportsbook.Identity(*user), *round, idx, outs, v)
	if err != nil {
		return err
	}
	return a.print(b)
}

func cmdSettle(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	round := fs.Uint64("round", 0, "id da rodada")
	results := fs.String("results", "", "dez resultados 1=casa 2=fora 3=empate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := parseUint8List(*results)
	if err != nil {
		return err
	}
	r, err := a.engine.SettleRound(ctx, a.authority(), *round, res)
	if err != nil {
		return err
	}
	return a.print(r)
}

func cmdFinalize(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	round := fs.Uint64("round", 0, "id da rodada")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := a.engine.FinalizeRoundRevenue(ctx, a.authority(), *round)
	if err != nil {
		return err
	}
	return a.print(r)
}

func cmdClaim(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	user := fs.String("user", "", "quem resgata (apostador ou caçador de bounty)")
	bet := fs.Uint64("bet", 0, "id do bilhete")
	minPayout := tokensFlag(fs, "min-payout", "pagamento mínimo aceito")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "user", "bet"); err != nil {
		return err
	}
	floor := uint64(0)
	if *minPayout != "" {
		v, err := sportsbook.ParseTokens(*minPayout)
		if err != nil {
			return err
		}
		floor = v
	}
	res, err := a.engine.ClaimWinnings(ctx, sportsbook.Identity(*user), *bet, floor)
	if err != nil {
		return err
	}
	return a.print(res)
}

func cmdLPAdd(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	user := fs.String("user", "", "provedor")
	amount := tokensFlag(fs, "amount", "depósito")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "user", "amount"); err != nil {
		return err
	}
	v, err := sportsbook.ParseTokens(*amount)
	if err != nil {
		return err
	}
	rec, err := a.engine.AddLiquidity(ctx, sportsbook.Identity(*user), v)
	if err != nil {
		return err
	}
	return a.print(rec)
}

func cmdLPRemove(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	user := fs.String("user", "", "provedor")
	shares := fs.Uint64("shares", 0, "cotas a resgatar (unidades base)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "user", "shares"); err != nil {
		return err
	}
	rec, err := a.engine.RemoveLiquidity(ctx, sportsbook.Identity(*user), *shares)
	if err != nil {
		return err
	}
	return a.print(rec)
}

func cmdSeasonPredict(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	user := fs.String("user", "", "usuário")
	team := fs.Uint("team", 0, "time (0-9)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "user", "team"); err != nil {
		return err
	}
	if *team > 255 {
		return sportsbook.ErrInvalidTeamIndex
	}
	p, err := a.engine.MakeSeasonPrediction(ctx, sportsbook.Identity(*user), uint8(*team))
	if err != nil {
		return err
	}
	return a.print(p)
}

func cmdSeasonAdvance(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	team := fs.Uint("team", 0, "time campeão (0-9)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "team"); err != nil {
		return err
	}
	if *team > 255 {
		return sportsbook.ErrInvalidTeamIndex
	}
	reg, err := a.engine.AdvanceSeason(ctx, a.authority(), uint8(*team))
	if err != nil {
		return err
	}
	return a.print(reg)
}

func cmdSeasonStart(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	reg, err := a.engine.StartNewSeason(ctx, a.authority())
	if err != nil {
		return err
	}
	return a.print(reg)
}

func cmdSeasonClaim(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	user := fs.String("user", "", "usuário")
	season := fs.Uint64("season", 0, "id da temporada")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "user", "season"); err != nil {
		return err
	}
	reward, err := a.engine.ClaimSeasonReward(ctx, sportsbook.Identity(*user), *season)
	if err != nil {
		return err
	}
	return a.print(map[string]any{
		"season_id": *season,
		"reward":    reward,
		"display":   sportsbook.FormatTokens(reward),
	})
}

func cmdShowPool(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	reg, err := a.engine.Registry(ctx)
	if err != nil {
		return err
	}
	lp, err := a.engine.LiquidityPool(ctx)
	if err != nil {
		return err
	}
	return a.print(map[string]any{
		"registry":    reg,
		"liquidity":   lp,
		"share_price": sportsbook.FormatOdds(lp.SharePrice()),
		"fees": map[string]string{
			"protocol": sportsbook.FormatBPS(reg.ProtocolFeeBPS),
			"winner":   sportsbook.FormatBPS(reg.WinnerShareBPS),
			"season":   sportsbook.FormatBPS(reg.SeasonPoolShareBPS),
		},
	})
}

// roundView é a rodada com as odds formatadas para leitura humana
type roundView struct {
	*sportsbook.Round
	DisplayOdds []string `json:"display_odds"`
	Cached      bool     `json:"cached,omitempty"`
}

func cmdShowRound(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	round := fs.Uint64("round", 0, "id da rodada")
	cached := fs.Bool("cached", false, "ler o snapshot do Redis em vez do store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var (
		r   *sportsbook.Round
		err error
	)
	if *cached {
		if a.snapshots == nil {
			return errors.New("snapshot cache not configured")
		}
		r, err = a.snapshots.Round(ctx, *round)
	} else {
		r, err = a.engine.Round(ctx, *round)
	}
	if err != nil {
		return err
	}
	view := roundView{Round: r, Cached: *cached}
	for i, m := range r.Matches {
		view.DisplayOdds = append(view.DisplayOdds, fmt.Sprintf("#%d %s/%s/%s",
			i, sportsbook.FormatOdds(m.Odds.Home), sportsbook.FormatOdds(m.Odds.Away), sportsbook.FormatOdds(m.Odds.Draw)))
	}
	return a.print(view)
}

func cmdShowBet(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	bet := fs.Uint64("bet", 0, "id do bilhete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	b, err := a.engine.Bet(ctx, *bet)
	if err != nil {
		return err
	}
	q, err := a.engine.BetStatus(ctx, *bet)
	if err != nil {
		return err
	}
	return a.print(map[string]any{"bet": b, "quote": q})
}

func cmdShowLP(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	user := fs.String("user", "", "provedor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.engine.LPPosition(ctx, sportsbook.Identity(*user))
	if err != nil {
		return err
	}
	return a.print(p)
}

func cmdBalance(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	account := fs.String("account", "", "conta (ex.: vault:liquidity_pool)")
	user := fs.String("user", "", "atalho para wallet:<user>")
	if err := fs.Parse(args); err != nil {
		return err
	}
	acct := sportsbook.Account(*account)
	if *user != "" {
		acct = sportsbook.WalletOf(sportsbook.Identity(*user))
	}
	if acct == "" {
		return errors.New("-account or -user is required")
	}
	return a.printBalance(ctx, acct)
}

func (a *app) printBalance(ctx context.Context, acct sportsbook.Account) error {
	bal, err := a.engine.Balance(ctx, acct)
	if err != nil {
		return err
	}
	return a.print(map[string]any{
		"account": acct,
		"balance": bal,
		"display": sportsbook.FormatTokens(bal),
	})
}

func cmdPublishResults(ctx context.Context, a *app, fs *flag.FlagSet, args []string) error {
	round := fs.Uint64("round", 0, "id da rodada")
	results := fs.String("results", "", "dez resultados 1=casa 2=fora 3=empate")
	finalize := fs.Bool("finalize", false, "distribuir a receita logo após liquidar")
	source := fs.String("source", "sportsbook-admin", "origem registrada na mensagem")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "round", "results"); err != nil {
		return err
	}
	if a.results == nil {
		return errors.New("kafka not configured")
	}
	res, err := parseUint8List(*results)
	if err != nil {
		return err
	}
	ev := events.MatchResultsFinal{
		RoundID:  *round,
		Results:  make([]int, len(res)),
		Finalize: *finalize,
		Source:   *source,
		TsUnixMs: time.Now().UnixMilli(),
	}
	for i, r := range res {
		ev.Results[i] = int(r)
	}
	if err := a.results.PublishResults(ctx, ev); err != nil {
		return err
	}
	a.log.Info("results published", zap.Uint64("round_id", ev.RoundID), zap.Bool("finalize", ev.Finalize))
	return a.print(ev)
}
