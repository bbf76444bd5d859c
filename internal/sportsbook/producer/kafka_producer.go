package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

// MessageWriter é o pedaço do *kafka.Writer que o publisher usa
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publica os envelopes do ledger no tópico configurado no writer.
// A chave da mensagem é Envelope.Key, então eventos da mesma rodada caem na mesma partição.
type KafkaPublisher struct {
	Writer MessageWriter
}

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

// Publish envia todos os envelopes numa única escrita, preservando a ordem
func (p *KafkaPublisher) Publish(ctx context.Context, evs ...events.Envelope) error {
	if len(evs) == 0 {
		return nil
	}
	now := time.Now()
	msgs := make([]kafka.Message, 0, len(evs))
	for _, e := range evs {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(e.Key),
			Value:   b,
			Time:    now,
			Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
		})
	}
	return p.Writer.WriteMessages(ctx, msgs...)
}
