package odata

import (
	"fmt"
	"github.com/andesco/odata-valet/internal/entities"
)

type EdmType string

const (
	EdmInt32    EdmType = "Edm.Int32"
	EdmDateTime EdmType = "Edm.DateTime"
	EdmDecimal  EdmType = "Edm.Decimal"
)

// Column describes one ExchangeRate property. The same list drives
// $metadata and the feed entries.
type Column struct {
	Name     string
	Type     EdmType
	Key      bool
	Nullable bool
}

var (
	IDColumn   = Column{Name: "Id", Type: EdmInt32, Key: true}
	DateColumn = Column{Name: "Date", Type: EdmDateTime}
)

func RateColumn(name string) Column {
	return Column{Name: name, Type: EdmDecimal, Nullable: true}
}

// Columns returns Id, Date and one decimal column per expanded pair.
// No codes means the default currencies.
func Columns(codes []string) []Column {
	if len(codes) == 0 {
		codes = entities.DefaultCurrencies
	}

	pairs := entities.ExpandPairs(codes)
	columns := make([]Column, 0, len(pairs)+2)
	columns = append(columns, IDColumn, DateColumn)
	for _, p := range pairs {
		columns = append(columns, RateColumn(p.Column()))
	}

	return columns
}

func (c Column) validate() error {
	if !propertyName.MatchString(c.Name) {
		return fmt.Errorf("invalid property name %q", c.Name)
	}
	return nil
}
