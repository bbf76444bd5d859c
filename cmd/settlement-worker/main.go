package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sportsbook-ledger/internal/settlement"
	sharedcache "github.com/radieske/sportsbook-ledger/internal/shared/cache"
	"github.com/radieske/sportsbook-ledger/internal/shared/config"
	"github.com/radieske/sportsbook-ledger/internal/shared/db"
	"github.com/radieske/sportsbook-ledger/internal/shared/kafka"
	"github.com/radieske/sportsbook-ledger/internal/shared/logger"
	"github.com/radieske/sportsbook-ledger/internal/shared/metrics"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook/cache"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook/producer"
	"github.com/radieske/sportsbook-ledger/internal/sportsbook/repo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
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

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres é a fonte de verdade do ledger
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	store := repo.NewPostgres(pg)
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Eventos do ledger: Kafka para consumidores, Redis Pub/Sub para clientes ao vivo
	eventsWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLedgerEvents)
	defer eventsWriter.Close()
	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchResultsDLQ)
	defer dlqWriter.Close()

	engine, err := sportsbook.New(store, params,
		sportsbook.WithLogger(log),
		sportsbook.WithRecorder(metrics.NewLedgerMetrics(prometheus.DefaultRegisterer)),
		sportsbook.WithSnapshots(cache.NewRedisCache(redisClient, cfg.SnapshotTTL)),
		sportsbook.WithPublisher(producer.NewKafkaPublisher(eventsWriter)),
		sportsbook.WithPublisher(cache.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel)),
	)
	if err != nil {
		log.Fatal("engine", zap.Error(err))
	}

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMatchResults, cfg.SettlementConsumerGroup)
	defer reader.Close()

	// Métricas Prometheus do consumo
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_messages_consumed_total", Help: "mensagens consumidas"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_rounds_settled_total", Help: "rodadas liquidadas"})
	finalized := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_rounds_finalized_total", Help: "rodadas com receita distribuída"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, finalized, errorsBy)

	proc := &settlement.Processor{
		Log:         log,
		Reader:      reader,
		DLQ:         dlqWriter,
		Ledger:      engine,
		Authority:   sportsbook.Identity(cfg.Authority),
		OnConsumed:  func() { consumed.Inc() },
		OnSettled:   func() { settled.Inc() },
		OnFinalized: func() { finalized.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	srv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicMatchResults),
		zap.String("publish", cfg.TopicLedgerEvents),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("settlement-worker stopped")
}
