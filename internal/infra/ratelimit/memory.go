package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepEvery = 1024

// MemoryStore はプロセス内のバケット。開発・単一インスタンス用
type MemoryStore struct {
	limit Limit
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	takes    int
}

func NewMemoryStore(limit Limit) (*MemoryStore, error) {
	if err := limit.validate(); err != nil {
		return nil, err
	}
	return &MemoryStore{
		limit:    limit,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

func (s *MemoryStore) Take(_ context.Context, key string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.takes++
	if s.takes%sweepEvery == 0 {
		s.sweep(now)
	}

	lim, ok := s.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(s.limit.perToken()), s.limit.Capacity)
		s.limiters[key] = lim
	}

	if lim.AllowN(now, 1) {
		return Result{Allowed: true, Remaining: int(lim.TokensAt(now))}, nil
	}

	// 待ち時間だけ知りたいので予約は取り消す
	r := lim.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return Result{Allowed: false, Remaining: 0, RetryAfter: wait}, nil
}

// 満タンに戻ったバケットは消しても結果が変わらない
func (s *MemoryStore) sweep(now time.Time) {
	for k, lim := range s.limiters {
		if lim.TokensAt(now) >= float64(s.limit.Capacity) {
			delete(s.limiters, k)
		}
	}
}
