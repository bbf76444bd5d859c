package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/sportsbook-ledger/pkg/contracts/events"
)

// RedisBroadcaster publica cada envelope do ledger num canal Pub/Sub
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, evs ...events.Envelope) error {
	for _, e := range evs {
		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := b.r.Publish(ctx, b.channel, payload).Err(); err != nil {
			return err
		}
	}
	return nil
}
