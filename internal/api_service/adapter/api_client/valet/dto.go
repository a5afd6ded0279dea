package valet

import (
	"encoding/json"
	"fmt"
	"github.com/andesco/odata-valet/internal/entities"
	"time"
)

type observationsResponse struct {
	Observations []observationRow `json:"observations"`
}

type errorResponse struct {
	Message string `json:"message"`
}

type seriesValue struct {
	V string `json:"v"`
}

// observationRow holds the "d" date plus one {"v": "..."} object per series code.
type observationRow struct {
	Date   string
	Values map[string]seriesValue
}

func (o *observationRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.Values = make(map[string]seriesValue, len(raw))
	for key, msg := range raw {
		if key == "d" {
			if err := json.Unmarshal(msg, &o.Date); err != nil {
				return fmt.Errorf("parse date field: %w", err)
			}
			continue
		}

		var v seriesValue
		if err := json.Unmarshal(msg, &v); err != nil {
			// Non-series keys are not part of the row.
			continue
		}
		o.Values[key] = v
	}

	return nil
}

func (o observationRow) toEntity() (entities.Observation, error) {
	date, err := time.Parse(entities.DateLayout, o.Date)
	if err != nil {
		return entities.Observation{}, fmt.Errorf("parse time %q: %w", o.Date, err)
	}

	values := make(map[entities.SeriesCode]string, len(o.Values))
	for code, v := range o.Values {
		if v.V == "" {
			continue
		}
		values[entities.SeriesCode(code)] = v.V
	}

	return entities.Observation{Date: date, Values: values}, nil
}
