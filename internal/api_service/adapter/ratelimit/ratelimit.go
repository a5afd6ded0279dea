// Package ratelimit builds the per-client request limiter.
package ratelimit

import (
	"github.com/pkg/errors"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// New parses a formatted rate such as "120-M" and binds it to store.
// A nil store keeps counters in process memory.
func New(formatted string, store limiter.Store) (*limiter.Limiter, error) {
	const op = "ratelimit.New"

	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	if store == nil {
		store = memory.NewStore()
	}

	return limiter.New(store, rate), nil
}
