package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 時刻は Redis の TIME を使う（インスタンス間の時計ずれを避ける）
var takeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local per_token_us = tonumber(ARGV[2])

local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000000 + tonumber(t[2])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

if now > ts then
  tokens = math.min(capacity, tokens + (now - ts) / per_token_us)
end

local allowed = 0
local retry_us = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  retry_us = math.ceil((1 - tokens) * per_token_us)
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', tostring(now))
redis.call('PEXPIRE', KEYS[1], math.ceil(capacity * per_token_us / 1000) + 1000)

return {allowed, math.floor(tokens), retry_us}
`)

// RedisStore は全インスタンスで1つのバケットを共有する
type RedisStore struct {
	client    redis.Scripter
	limit     Limit
	keyPrefix string
}

func NewRedisStore(client redis.Scripter, limit Limit, keyPrefix string) (*RedisStore, error) {
	if err := limit.validate(); err != nil {
		return nil, err
	}
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisStore{client: client, limit: limit, keyPrefix: keyPrefix}, nil
}

func (s *RedisStore) Take(ctx context.Context, key string) (Result, error) {
	perTokenUS := s.limit.perToken().Microseconds()
	if perTokenUS < 1 {
		perTokenUS = 1
	}

	vals, err := takeScript.Run(ctx, s.client, []string{s.keyPrefix + key}, s.limit.Capacity, perTokenUS).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit take: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("ratelimit take: unexpected reply %v", vals)
	}

	return Result{
		Allowed:    vals[0] == 1,
		Remaining:  int(vals[1]),
		RetryAfter: time.Duration(vals[2]) * time.Microsecond,
	}, nil
}

// REDIS_URL から接続し、疎通を確認する
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
