package entities

import (
	"github.com/shopspring/decimal"
	"time"
)

// DateLayout is the calendar date format used by the upstream API and the query string.
const DateLayout = "2006-01-02"

// MissingValueText is how a cell with no upstream value is rendered.
const MissingValueText = "0.0000"

type Observation struct {
	Date   time.Time
	Values map[SeriesCode]string
}

type Cell struct {
	Column  string
	Value   decimal.Decimal
	Missing bool
}

// Text returns the value as it appears in the feed.
func (c Cell) Text() string {
	if c.Missing {
		return MissingValueText
	}
	return c.Value.String()
}

// Record is one pivoted feed row. ID is a request-local ordinal starting at 1.
type Record struct {
	ID    int
	Date  time.Time
	Cells []Cell
}

func NewRecord(id int, date time.Time, cells []Cell) Record {
	return Record{
		ID:    id,
		Date:  date,
		Cells: cells,
	}
}
