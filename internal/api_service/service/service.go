package service

import (
	"context"
	"github.com/andesco/odata-valet/internal/entities"
	"github.com/pkg/errors"
	"time"
)

type Service struct {
	client  UpstreamClient
	timeout time.Duration
	now     func() time.Time
}

type Option func(s *Service)

// WithClock replaces time.Now for period resolution.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTimeout bounds every upstream call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

func NewService(client UpstreamClient, opts ...Option) *Service {
	s := &Service{
		client:  client,
		timeout: 10 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Now() time.Time {
	return s.now()
}

// Range is the date range a query resolves to at the current time.
func (s *Service) Range(q Query) entities.DateRange {
	return Resolve(q.Period, q.Pad, s.now())
}

// ExchangeRates fetches the requested pairs and pivots them into feed records.
// An empty result is not an error.
func (s *Service) ExchangeRates(ctx context.Context, q Query) ([]entities.Record, error) {
	const op = "service.ExchangeRates"

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	codes := entities.SeriesCodes(q.Pairs)

	rows, err := s.client.Observations(ctx, codes, s.Range(q))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, entities.ErrUpstreamTimeout) {
			err = errors.Wrap(entities.ErrUpstreamTimeout, err.Error())
		}
		return nil, errors.Wrap(err, op)
	}

	records, err := Pivot(rows, q.Pairs, codes)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	return records, nil
}
