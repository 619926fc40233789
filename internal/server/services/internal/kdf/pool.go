package kdf

import (
	"context"
	"sync/atomic"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of Argon2id evaluations running at once. Up to
// workers evaluations run concurrently and up to queue callers wait for a
// slot; anything beyond that is rejected with common.ErrDerivationBusy.
type Pool struct {
	params     Params
	sem        *semaphore.Weighted
	waiting    atomic.Int64
	maxWaiting int64
}

func NewPool(workers, queue int, params Params) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	return &Pool{
		params:     params,
		sem:        semaphore.NewWeighted(int64(workers)),
		maxWaiting: int64(queue),
	}
}

func (p *Pool) Params() Params {
	return p.params
}

// DeriveKey runs DeriveKey on the pool. The caller owns the returned key
// and must wipe it.
func (p *Pool) DeriveKey(ctx context.Context, password string, salt []byte) ([]byte, error) {
	return run(ctx, p, func() []byte {
		return DeriveKey(password, salt, p.params)
	}, common.WipeByteArray)
}

func (p *Pool) HashPassword(ctx context.Context, password string) (string, error) {
	type result struct {
		hash string
		err  error
	}
	r, err := run(ctx, p, func() result {
		h, err := HashPassword(password, p.params)
		return result{h, err}
	}, nil)
	if err != nil {
		return "", err
	}
	return r.hash, r.err
}

func (p *Pool) VerifyPassword(ctx context.Context, password, encoded string) (bool, error) {
	return run(ctx, p, func() bool {
		return VerifyPassword(password, encoded)
	}, nil)
}

// run executes fn once a slot is free. A started fn always runs to
// completion; if ctx ends first its result is handed to discard.
func run[T any](ctx context.Context, p *Pool, fn func() T, discard func(T)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if !p.sem.TryAcquire(1) {
		if p.waiting.Add(1) > p.maxWaiting {
			p.waiting.Add(-1)
			return zero, common.ErrDerivationBusy
		}
		err := p.sem.Acquire(ctx, 1)
		p.waiting.Add(-1)
		if err != nil {
			return zero, err
		}
	}

	done := make(chan T, 1)
	go func() {
		defer p.sem.Release(1)
		done <- fn()
	}()

	select {
	case v := <-done:
		return v, nil
	case <-ctx.Done():
		go func() {
			v := <-done
			if discard != nil {
				discard(v)
			}
		}()
		return zero, ctx.Err()
	}
}
