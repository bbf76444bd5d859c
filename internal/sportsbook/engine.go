package sportsbook

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

// Publisher recebe os eventos de uma operação depois do commit
type Publisher interface {
	Publish(ctx context.Context, evs ...events.Envelope) error
}

// SnapshotSink guarda o último estado de rodadas e do LP para leitura rápida
type SnapshotSink interface {
	StoreRound(ctx context.Context, r *Round) error
	StoreLiquidity(ctx context.Context, lp *LiquidityPool) error
}

// Recorder recebe métricas do motor (implementado em shared/metrics)
type Recorder interface {
	Operation(op, result string, elapsed time.Duration)
	Volume(kind string, amount uint64)
	Liquidity(lp LiquidityPool)
}

type nopRecorder struct{}

func (nopRecorder) Operation(string, string, time.Duration) {}
func (nopRecorder) Volume(string, uint64)                   {}
func (nopRecorder) Liquidity(LiquidityPool)                 {}

// Engine aplica as operações do ledger sobre um Store. Cada operação roda numa única
// transação; eventos, snapshots e métricas só saem depois do commit.
type Engine struct {
	store      Store
	params     Params
	log        *zap.Logger
	now        func() time.Time
	publishers []Publisher
	snapshots  SnapshotSink
	rec        Recorder
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l } }

// WithClock troca o relógio (testes de janela de claim)
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publishers = append(e.publishers, p) }
}

func WithSnapshots(s SnapshotSink) Option { return func(e *Engine) { e.snapshots = s } }

func WithRecorder(r Recorder) Option { return func(e *Engine) { e.rec = r } }

func New(store Store, params Params, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("sportsbook: nil store")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		store:  store,
		params: params,
		log:    zap.NewNop(),
		now:    time.Now,
		rec:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Params é a política deste processo. Só é usada no Initialize; as operações seguintes
// leem Registry.Policy, para que todos os processos apliquem a mesma política ao pool.
func (e *Engine) Params() Params { return e.params }

// effects acumula o que a operação deve anunciar depois do commit
type effects struct {
	events  []events.Envelope
	round   *Round
	lp      *LiquidityPool
	volumes []volume
	fields  []zap.Field
}

type volume struct {
	kind   string
	amount uint64
}

func (fx *effects) emit(typ, key string, payload any) {
	fx.events = append(fx.events, events.Envelope{Type: typ, Key: key, Payload: payload})
}

func (fx *effects) volume(kind string, amount uint64) {
	if amount > 0 {
		fx.volumes = append(fx.volumes, volume{kind: kind, amount: amount})
	}
}

func (fx *effects) log(fields ...zap.Field) { fx.fields = append(fx.fields, fields...) }

// update roda fn dentro de Store.Update. O store pode repetir fn (conflito de serialização),
// por isso os efeitos são recriados a cada tentativa.
func (e *Engine) update(ctx context.Context, op string, fn func(ctx context.Context, tx Tx, fx *effects) error) error {
	start := time.Now()
	var fx *effects
	err := e.store.Update(ctx, func(tx Tx) error {
		fx = &effects{}
		return fn(ctx, tx, fx)
	})
	e.rec.Operation(op, resultLabel(err), time.Since(start))
	if err != nil {
		e.log.Debug("operation rejected",
			zap.String("op", op),
			zap.String("code", CodeOf(err)),
			zap.String("kind", KindOf(err).String()),
			zap.Error(err))
		return err
	}
	e.log.Info(op, fx.fields...)
	e.afterCommit(ctx, fx)
	return nil
}

func (e *Engine) afterCommit(ctx context.Context, fx *effects) {
	for _, v := range fx.volumes {
		e.rec.Volume(v.kind, v.amount)
	}
	if fx.lp != nil {
		e.rec.Liquidity(*fx.lp)
	}
	if e.snapshots != nil {
		if fx.round != nil {
			if err := e.snapshots.StoreRound(ctx, fx.round); err != nil {
				e.log.Warn("round snapshot failed", zap.Uint64("round_id", fx.round.ID), zap.Error(err))
			}
		}
		if fx.lp != nil {
			if err := e.snapshots.StoreLiquidity(ctx, fx.lp); err != nil {
				e.log.Warn("liquidity snapshot failed", zap.Error(err))
			}
		}
	}
	if len(fx.events) == 0 {
		return
	}
	ts := e.now().UnixMilli()
	for i := range fx.events {
		fx.events[i].TsUnixMs = ts
	}
	// falha de publicação não desfaz a operação já confirmada
	for _, p := range e.publishers {
		if err := p.Publish(ctx, fx.events...); err != nil {
			e.log.Warn("event publish failed", zap.Int("events", len(fx.events)), zap.Error(err))
		}
	}
}

func (e *Engine) view(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return e.store.View(ctx, func(tx Tx) error { return fn(ctx, tx) })
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if code := CodeOf(err); code != "" {
		return code
	}
	return "error"
}

func idKey(id uint64) string { return strconv.FormatUint(id, 10) }

// ---- carregamento de registros ----

func loadRecord(ctx context.Context, tx Tx, rec Record, notFound error) error {
	err := tx.Get(ctx, rec.Key(), rec)
	if errors.Is(err, ErrRecordNotFound) {
		return notFound
	}
	return err
}

func loadRegistry(ctx context.Context, tx Tx) (*Registry, error) {
	var r Registry
	if err := loadRecord(ctx, tx, &r, ErrPoolNotInitialized); err != nil {
		return nil, err
	}
	return &r, nil
}

// saveRegistry incrementa Version; o store recusa se outra transação gravou antes
func saveRegistry(ctx context.Context, tx Tx, r *Registry) error {
	r.Version++
	return tx.Save(ctx, r)
}

func loadLiquidity(ctx context.Context, tx Tx) (*LiquidityPool, error) {
	var lp LiquidityPool
	if err := loadRecord(ctx, tx, &lp, ErrPoolNotInitialized); err != nil {
		return nil, err
	}
	return &lp, nil
}

func loadRound(ctx context.Context, tx Tx, id uint64) (*Round, error) {
	r := Round{ID: id}
	if err := loadRecord(ctx, tx, &r, ErrRoundNotFound); err != nil {
		return nil, err
	}
	return &r, nil
}

func loadBet(ctx context.Context, tx Tx, id uint64) (*Bet, error) {
	b := Bet{ID: id}
	if err := loadRecord(ctx, tx, &b, ErrBetNotFound); err != nil {
		return nil, err
	}
	return &b, nil
}

// ---- leitura ----

func (e *Engine) Registry(ctx context.Context) (*Registry, error) {
	var out *Registry
	err := e.view(ctx, func(ctx context.Context, tx Tx) (err error) {
		out, err = loadRegistry(ctx, tx)
		return err
	})
	return out, err
}

func (e *Engine) Round(ctx context.Context, roundID uint64) (*Round, error) {
	var out *Round
	err := e.view(ctx, func(ctx context.Context, tx Tx) (err error) {
		out, err = loadRound(ctx, tx, roundID)
		return err
	})
	return out, err
}

func (e *Engine) Bet(ctx context.Context, betID uint64) (*Bet, error) {
	var out *Bet
	err := e.view(ctx, func(ctx context.Context, tx Tx) (err error) {
		out, err = loadBet(ctx, tx, betID)
		return err
	})
	return out, err
}

func (e *Engine) LiquidityPool(ctx context.Context) (*LiquidityPool, error) {
	var out *LiquidityPool
	err := e.view(ctx, func(ctx context.Context, tx Tx) (err error) {
		out, err = loadLiquidity(ctx, tx)
		return err
	})
	return out, err
}

func (e *Engine) SeasonPrediction(ctx context.Context, user Identity, seasonID uint64) (*SeasonPrediction, error) {
	p := SeasonPrediction{User: user, SeasonID: seasonID}
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		return loadRecord(ctx, tx, &p, ErrPredictionNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (e *Engine) LPPosition(ctx context.Context, owner Identity) (*LPPosition, error) {
	p := LPPosition{Owner: owner}
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		return loadRecord(ctx, tx, &p, ErrPositionNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Balance lê o saldo de uma conta de token no ledger hospedeiro
func (e *Engine) Balance(ctx context.Context, acct Account) (uint64, error) {
	var out uint64
	err := e.view(ctx, func(ctx context.Context, tx Tx) (err error) {
		out, err = tx.Balance(ctx, acct)
		return err
	})
	return out, err
}

// BetQuote é o estado derivado de uma aposta e quanto um claim pagaria agora
type BetQuote struct {
	BetID         uint64     `json:"bet_id"`
	Status        BetStatus  `json:"status"`
	Payout        uint64     `json:"payout"`
	MaxPayout     uint64     `json:"max_payout"`
	ClaimDeadline *time.Time `json:"claim_deadline,omitempty"`
}

func (e *Engine) BetStatus(ctx context.Context, betID uint64) (*BetQuote, error) {
	var out *BetQuote
	err := e.view(ctx, func(ctx context.Context, tx Tx) error {
		b, err := loadBet(ctx, tx, betID)
		if err != nil {
			return err
		}
		r, err := loadRound(ctx, tx, b.RoundID)
		if err != nil {
			return err
		}
		q := &BetQuote{BetID: b.ID, Status: b.StatusOf(r), MaxPayout: b.MaxPayout, ClaimDeadline: b.ClaimDeadline}
		switch q.Status {
		case BetWon:
			if q.Payout, err = r.quote(b.Predictions, b.Multiplier); err != nil {
				return err
			}
		case BetClaimed:
			q.Payout = b.Payout
		}
		out = q
		return nil
	})
	return out, err
}
