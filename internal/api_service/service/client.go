package service

import (
	"context"
	"github.com/andesco/odata-valet/internal/entities"
)

type UpstreamClient interface {
	Observations(ctx context.Context, codes []entities.SeriesCode, rng entities.DateRange) ([]entities.Observation, error)
}
