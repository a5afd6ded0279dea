package entities

import "time"

type PeriodUnit string

const (
	UnitYears  PeriodUnit = "years"
	UnitMonths PeriodUnit = "months"
	UnitWeeks  PeriodUnit = "weeks"
)

type PeriodKind int

const (
	PeriodDefault PeriodKind = iota
	PeriodRelative
	PeriodAbsolute
)

// PeriodSpec is a tagged variant; Kind selects which fields are meaningful.
type PeriodSpec struct {
	Kind  PeriodKind
	Unit  PeriodUnit
	Count int
	Start time.Time
	End   time.Time
}

func RelativePeriod(unit PeriodUnit, count int) PeriodSpec {
	return PeriodSpec{Kind: PeriodRelative, Unit: unit, Count: count}
}

func AbsolutePeriod(start, end time.Time) PeriodSpec {
	return PeriodSpec{Kind: PeriodAbsolute, Start: start, End: end}
}

func DefaultPeriod() PeriodSpec {
	return PeriodSpec{Kind: PeriodDefault}
}

type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) StartParam() string {
	return r.Start.UTC().Format(DateLayout)
}

func (r DateRange) EndParam() string {
	return r.End.UTC().Format(DateLayout)
}
