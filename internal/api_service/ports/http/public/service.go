package public

import (
	"context"
	"github.com/andesco/odata-valet/internal/api_service/service"
	"github.com/andesco/odata-valet/internal/entities"
	"time"
)

type Service interface {
	ExchangeRates(ctx context.Context, q service.Query) ([]entities.Record, error)
	Now() time.Time
}

// Pinger reports the health of an optional backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}
