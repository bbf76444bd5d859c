// Package settlement consome os resultados oficiais das partidas e liquida as rodadas no ledger.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/sportsbook-ledger/internal/sportsbook"
	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

// MessageReader é o pedaço do *kafka.Reader usado pelo loop
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// MessageWriter recebe as mensagens que não puderam ser aplicadas (DLQ)
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Ledger são as operações do motor que o worker chama
type Ledger interface {
	SettleRound(ctx context.Context, caller sportsbook.Identity, roundID uint64, results []uint8) (*sportsbook.Round, error)
	FinalizeRoundRevenue(ctx context.Context, caller sportsbook.Identity, roundID uint64) (*sportsbook.Round, error)
}

const (
	defaultRetries = 3
	readBackoff    = 500 * time.Millisecond
)

// ErrInvalidResults marca mensagens com códigos de resultado fora de 0..255
var ErrInvalidResults = errors.New("result code out of range")

// Processor lê MatchResultsFinal do Kafka, liquida a rodada e, se pedido, distribui a receita.
// Erros de domínio vão direto para a DLQ; erros de infraestrutura e de solvência são tentados de novo.
type Processor struct {
	Log       *zap.Logger
	Reader    MessageReader
	DLQ       MessageWriter // opcional
	Ledger    Ledger
	Authority sportsbook.Identity
	Retries   int
	Backoff   time.Duration

	OnConsumed  func()
	OnSettled   func()
	OnFinalized func()
	OnError     func(string) // métricas por fase
}

// Run roda até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(readBackoff)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var ev events.MatchResultsFinal
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			p.fail("decode")
			p.deadLetter(ctx, m, "decode")
			continue
		}

		if err := p.handleWithRetry(ctx, ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Error("settlement failed",
				zap.Uint64("round_id", ev.RoundID),
				zap.String("code", sportsbook.CodeOf(err)),
				zap.Error(err))
			p.deadLetter(ctx, m, sportsbook.CodeOf(err))
		}
	}
}

func (p *Processor) handleWithRetry(ctx context.Context, ev events.MatchResultsFinal) error {
	retries := p.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = 300 * time.Millisecond
	}

	err := p.Handle(ctx, ev)
	for i := 0; i < retries && transient(err); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(i+1)):
		}
		err = p.Handle(ctx, ev)
	}
	return err
}

// Handle aplica uma mensagem. Reentregas são idempotentes: rodada já liquidada
// ou receita já distribuída não contam como erro.
func (p *Processor) Handle(ctx context.Context, ev events.MatchResultsFinal) error {
	results := make([]uint8, len(ev.Results))
	for i, r := range ev.Results {
		if r < 0 || r > 255 {
			return ErrInvalidResults
		}
		results[i] = uint8(r)
	}

	_, err := p.Ledger.SettleRound(ctx, p.Authority, ev.RoundID, results)
	switch {
	case err == nil:
		if p.OnSettled != nil {
			p.OnSettled()
		}
		p.Log.Info("round settled", zap.Uint64("round_id", ev.RoundID), zap.String("source", ev.Source))
	case errors.Is(err, sportsbook.ErrRoundAlreadySettled):
		p.Log.Info("round already settled", zap.Uint64("round_id", ev.RoundID))
	default:
		p.fail("settle")
		return err
	}

	if !ev.Finalize {
		return nil
	}
	_, err = p.Ledger.FinalizeRoundRevenue(ctx, p.Authority, ev.RoundID)
	switch {
	case err == nil:
		if p.OnFinalized != nil {
			p.OnFinalized()
		}
		p.Log.Info("round finalized", zap.Uint64("round_id", ev.RoundID))
	case errors.Is(err, sportsbook.ErrRevenueAlreadyDistributed):
		p.Log.Info("round revenue already distributed", zap.Uint64("round_id", ev.RoundID))
	default:
		p.fail("finalize")
		return err
	}
	return nil
}

func transient(err error) bool {
	if err == nil || errors.Is(err, ErrInvalidResults) || errors.Is(err, context.Canceled) {
		return false
	}
	k := sportsbook.KindOf(err)
	return k == sportsbook.KindUnknown || k == sportsbook.KindSolvency
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, reason string) {
	if p.DLQ == nil {
		return
	}
	msg := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "reason", Value: []byte(reason)},
			{Key: "offset", Value: []byte(strconv.FormatInt(m.Offset, 10))},
		},
	}
	if err := p.DLQ.WriteMessages(ctx, msg); err != nil {
		p.Log.Warn("dlq write failed", zap.Error(err))
		p.fail("dlq")
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
