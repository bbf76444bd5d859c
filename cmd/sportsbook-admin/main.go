package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedcache "github.com/radieske/sportsbook-ledger/internal/shared/cache"
	"github.com/radieske/sportsbook-ledger/internal/shared/config"
	"github.com/radieske/sportsbook-ledger/internal/shared/db"
	"github.com/radieske/sportsbook-ledger/internal/shared/kafka"
	"github.com/radieske/sportsbook-ledger/internal/shared/logger"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook/cache"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook/memstore"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook/producer"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook/repo"
	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

func main() {
	storeKind := flag.String("store", "postgres", "postgres | memory")
	publish := flag.Bool("publish", true, "publicar eventos do ledger no Kafka e no Redis (só com -store postgres)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "sportsbook-admin"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	params, err := cfg.Ledger.Params()
	if err != nil {
		log.Fatal("ledger params", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{cfg: cfg, log: log, out: os.Stdout}
	opts := []sportsbook.Option{sportsbook.WithLogger(log)}

	var store sportsbook.Store
	switch *storeKind {
	case "memory":
		// útil só para experimentar: o estado some ao sair
		mem := memstore.New()
		store = mem
		a.minter = memMinter{mem}

	case "postgres":
		pg, err := db.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("postgres connect", zap.Error(err))
		}
		defer pg.Close()
		p := repo.NewPostgres(pg)
		store = p
		a.minter = p
		a.migrate = p.Migrate

		if *publish {
			w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLedgerEvents)
			defer w.Close()
			opts = append(opts, sportsbook.WithPublisher(producer.NewKafkaPublisher(w)))

			rw := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchResults)
			defer rw.Close()
			a.results = kafkaResults{rw}

			// Redis é opcional para o CLI: sem ele só perdemos snapshots e broadcast
			if rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr); err != nil {
				log.Warn("redis unavailable, snapshots disabled", zap.Error(err))
			} else {
				defer rdb.Close()
				rc := cache.NewRedisCache(rdb, cfg.SnapshotTTL)
				a.snapshots = rc
				opts = append(opts,
					sportsbook.WithSnapshots(rc),
					sportsbook.WithPublisher(cache.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel)),
				)
			}
		}

	default:
		log.Fatal("unknown store", zap.String("store", *storeKind))
	}

	a.engine, err = sportsbook.New(store, params, opts...)
	if err != nil {
		log.Fatal("engine", zap.Error(err))
	}

	if err := a.run(ctx, flag.Args()); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v (code=%s kind=%s)\n", err, sportsbook.CodeOf(err), sportsbook.KindOf(err))
		os.Exit(1)
	}
}

// memMinter adapta o Mint do memstore (sem contexto) à interface do CLI
type memMinter struct{ s *memstore.Store }

func (m memMinter) Mint(_ context.Context, acct sportsbook.Account, amount uint64) error {
	return m.s.Mint(acct, amount)
}

// kafkaResults publica MatchResultsFinal com a rodada como chave
type kafkaResults struct{ w *kafkago.Writer }

func (k kafkaResults) PublishResults(ctx context.Context, ev events.MatchResultsFinal) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, k.w, strconv.FormatUint(ev.RoundID, 10), b)
}
