package service

import (
	"fmt"
	"github.com/andesco/odata-valet/internal/entities"
	"github.com/shopspring/decimal"
)

// Pivot builds one record per observation row, in upstream order, with one cell per pair.
// pairs and codes must be index aligned as produced by entities.SeriesCodes.
func Pivot(rows []entities.Observation, pairs []entities.Pair, codes []entities.SeriesCode) ([]entities.Record, error) {
	if len(pairs) != len(codes) {
		return nil, fmt.Errorf("pivot: %d pairs for %d series codes", len(pairs), len(codes))
	}

	records := make([]entities.Record, 0, len(rows))
	for i, row := range rows {
		cells := make([]entities.Cell, len(pairs))
		for j, pair := range pairs {
			cells[j] = entities.Cell{Column: pair.Column(), Missing: true}

			raw, ok := row.Values[codes[j]]
			if !ok || raw == "" {
				continue
			}

			value, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: series %s on %s: %v",
					entities.ErrUpstream, codes[j], row.Date.Format(entities.DateLayout), err)
			}
			cells[j].Value = value
			cells[j].Missing = false
		}

		records = append(records, entities.NewRecord(i+1, row.Date, cells))
	}

	return records, nil
}
