package service

import (
	"github.com/andesco/odata-valet/internal/entities"
	"time"
)

const (
	// PadDays is subtracted from the start of every padded range.
	PadDays = 7

	defaultYears = 5
)

// Resolve turns a period into a calendar date range ending at now.
// Padding moves only the start and is applied after the period itself.
func Resolve(spec entities.PeriodSpec, pad bool, now time.Time) entities.DateRange {
	today := truncateDay(now)

	var rng entities.DateRange
	switch spec.Kind {
	case entities.PeriodRelative:
		rng = entities.DateRange{Start: back(today, spec.Unit, spec.Count), End: today}
	case entities.PeriodAbsolute:
		rng = entities.DateRange{Start: truncateDay(spec.Start), End: truncateDay(spec.End)}
	default:
		rng = entities.DateRange{Start: today.AddDate(-defaultYears, 0, 0), End: today}
	}

	if pad {
		rng.Start = rng.Start.AddDate(0, 0, -PadDays)
	}

	return rng
}

func back(t time.Time, unit entities.PeriodUnit, count int) time.Time {
	switch unit {
	case entities.UnitYears:
		return t.AddDate(-count, 0, 0)
	case entities.UnitMonths:
		return t.AddDate(0, -count, 0)
	case entities.UnitWeeks:
		return t.AddDate(0, 0, -count*7)
	}
	return t
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
