// Package cache mantém no Redis o último snapshot de cada rodada e do pool de liquidez,
// e retransmite os eventos do ledger via Pub/Sub.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/sportsbook-ledger/internal/sportsbook"
)

// ErrMiss indica que a chave não está no cache (ou expirou)
var ErrMiss = errors.New("cache miss")

// RedisCache guarda snapshots pós-commit. É só leitura rápida: a fonte de verdade é o store.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

func roundKey(id uint64) string { return "sportsbook:round:" + strconv.FormatUint(id, 10) }

const liquidityKey = "sportsbook:liquidity"

func (r *RedisCache) StoreRound(ctx context.Context, round *sportsbook.Round) error {
	return r.set(ctx, roundKey(round.ID), round)
}

func (r *RedisCache) StoreLiquidity(ctx context.Context, lp *sportsbook.LiquidityPool) error {
	return r.set(ctx, liquidityKey, lp)
}

// Round devolve o último snapshot da rodada ou ErrMiss
func (r *RedisCache) Round(ctx context.Context, id uint64) (*sportsbook.Round, error) {
	var out sportsbook.Round
	if err := r.get(ctx, roundKey(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RedisCache) Liquidity(ctx context.Context) (*sportsbook.LiquidityPool, error) {
	var out sportsbook.LiquidityPool
	if err := r.get(ctx, liquidityKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RedisCache) set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, b, r.TTL).Err()
}

func (r *RedisCache) get(ctx context.Context, key string, dst any) error {
	b, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
