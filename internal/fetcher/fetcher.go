// Package fetcher retrieves holder balances concurrently over a shared
// client pool.
package fetcher

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"xrpl-airdrop/internal/domain"
	"xrpl-airdrop/internal/xrpl"
)

// Default configuration values.
const (
	DefaultWorkers     = 8
	DefaultMaxAttempts = 8
	DefaultRetryDelay  = 10 * time.Second
	DefaultMaxDelay    = 300 * time.Second
)

// Fetcher runs balance queries for a holder set through a bounded worker
// pool. Each worker blocks on the client pool, so concurrency is capped by
// both the worker count and the number of pooled clients.
type Fetcher struct {
	pool        *xrpl.Pool
	workers     int
	maxAttempts int
	retryDelay  time.Duration
	maxDelay    time.Duration
	logger      *log.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// Options contains configuration for creating a Fetcher.
type Options struct {
	Pool        *xrpl.Pool
	Workers     int
	MaxAttempts int           // tries per holder before dead-lettering
	RetryDelay  time.Duration // initial backoff after a failed try
	MaxDelay    time.Duration // backoff ceiling
	Logger      *log.Logger

	// Sleep overrides the backoff wait, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	workers := opts.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}
	retryDelay := opts.RetryDelay
	if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}
	maxDelay := opts.MaxDelay
	if maxDelay == 0 {
		maxDelay = DefaultMaxDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
				return nil
			}
		}
	}
	return &Fetcher{
		pool:        opts.Pool,
		workers:     workers,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		maxDelay:    maxDelay,
		logger:      logger,
		sleep:       sleep,
	}
}

// DeadLetter records a holder whose balance could not be fetched.
type DeadLetter struct {
	Address  string
	Attempts int
	Err      error
}

// Result holds the outcome of one fetch pass. Balances contains only the
// holders whose queries succeeded; everything else is in DeadLetters.
type Result struct {
	Balances    map[string]decimal.Decimal
	DeadLetters []DeadLetter
}

// FetchAll queries the balance of every holder. It returns once every
// holder has either a balance or a dead letter, or earlier if the context
// ends. Dead letters are not an error: the caller decides whether a
// partial result is acceptable.
func (f *Fetcher) FetchAll(ctx context.Context, holders []string, token domain.TokenRef) (*Result, error) {
	result := &Result{Balances: make(map[string]decimal.Decimal, len(holders))}
	if len(holders) == 0 {
		return result, nil
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	workers := f.workers
	if workers > len(holders) {
		workers = len(holders)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for address := range jobs {
				balance, attempts, err := f.fetchOne(ctx, address, token)
				mu.Lock()
				if err != nil {
					result.DeadLetters = append(result.DeadLetters, DeadLetter{
						Address:  address,
						Attempts: attempts,
						Err:      err,
					})
				} else {
					result.Balances[address] = balance
				}
				mu.Unlock()
			}
		}()
	}

	for _, address := range holders {
		select {
		case jobs <- address:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if n := len(result.DeadLetters); n > 0 {
		f.logger.Printf("Fetch pass finished with %d dead letters out of %d holders", n, len(holders))
	}
	return result, nil
}

// fetchOne tries a single holder with exponential backoff between tries.
// Server-reported request errors are final immediately: resending the same
// bad request cannot succeed.
func (f *Fetcher) fetchOne(ctx context.Context, address string, token domain.TokenRef) (decimal.Decimal, int, error) {
	delay := f.retryDelay
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			f.logger.Printf("Retrying %s in %s (attempt %d/%d): %v", address, delay, attempt, f.maxAttempts, lastErr)
			if err := f.sleep(ctx, delay); err != nil {
				return decimal.Decimal{}, attempt - 1, err
			}
			delay *= 2
			if delay > f.maxDelay {
				delay = f.maxDelay
			}
		}

		balance, err := f.tryFetch(ctx, address, token)
		if err == nil {
			return balance, attempt, nil
		}
		lastErr = err

		var apiErr *xrpl.APIError
		if errors.As(err, &apiErr) {
			return decimal.Decimal{}, attempt, err
		}
		if ctx.Err() != nil {
			return decimal.Decimal{}, attempt, ctx.Err()
		}
	}

	return decimal.Decimal{}, f.maxAttempts, lastErr
}

// tryFetch performs one attempt against a pooled client.
func (f *Fetcher) tryFetch(ctx context.Context, address string, token domain.TokenRef) (decimal.Decimal, error) {
	client, err := f.pool.Acquire(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer f.pool.Release(client)

	return xrpl.NewBalanceService(client).Balance(ctx, address, token)
}
