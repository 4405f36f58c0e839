// Package ratelimit はクライアントごとのトークンバケット。
// 状態は Store に置く（複数台なら Redis、1台ならメモリ）。
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Capacity 個まで貯まり、Every ごとに Refill 個ずつ回復する
type Limit struct {
	Capacity int
	Refill   int
	Every    time.Duration
}

func (l Limit) validate() error {
	if l.Capacity <= 0 || l.Refill <= 0 || l.Every <= 0 {
		return errors.New("ratelimit: capacity, refill and period must be positive")
	}
	return nil
}

// 1トークン回復までの時間
func (l Limit) perToken() time.Duration {
	return l.Every / time.Duration(l.Refill)
}

type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Store interface {
	// key のバケットから1トークン取る
	Take(ctx context.Context, key string) (Result, error)
}
