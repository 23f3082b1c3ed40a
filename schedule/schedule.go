// Package schedule implements the pure calculation engine for immersion
// schedules: expansion of a weekly pattern into explicit dates, total hour
// computation over a date range, and the human-readable rendering used in
// notification emails. No I/O happens here.
package schedule

import (
	"fmt"
	"time"
)

const isoDate = "2006-01-02"

// TimePeriod is a same-day time range expressed as "HH:MM" bounds.
type TimePeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayPeriod is an inclusive weekday range, 0=Monday..6=Sunday.
type DayPeriod struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// RegularSchedule applies the same time periods to every weekday covered by
// one of the day periods.
type RegularSchedule struct {
	DayPeriods  []DayPeriod  `json:"dayPeriods"`
	TimePeriods []TimePeriod `json:"timePeriods"`
}

// DailySchedule lists the time periods worked on one calendar date (ISO).
type DailySchedule struct {
	Date        string       `json:"date"`
	TimePeriods []TimePeriod `json:"timePeriods"`
}

// ComplexSchedule is the explicit per-date form.
type ComplexSchedule struct {
	DailySchedules []DailySchedule `json:"dailySchedules"`
}

// Schedule holds both representations; exactly one is authoritative,
// selected by IsSimple.
type Schedule struct {
	IsSimple bool             `json:"isSimple"`
	Regular  *RegularSchedule `json:"regularSchedule,omitempty"`
	Complex  ComplexSchedule  `json:"complexSchedule"`
}

// Weekday returns the 0=Monday..6=Sunday index for an ISO date, or an error
// when the date does not parse.
func Weekday(date string) (int, error) {
	d, err := time.Parse(isoDate, date)
	if err != nil {
		return 0, fmt.Errorf("schedule: parse date %q: %w", date, err)
	}
	return (int(d.Weekday()) + 6) % 7, nil
}

func (p DayPeriod) contains(weekday int) bool {
	return weekday >= p.First && weekday <= p.Last
}

func coveredByAny(periods []DayPeriod, weekday int) bool {
	for _, p := range periods {
		if p.contains(weekday) {
			return true
		}
	}
	return false
}

// ComplexFromRegular expands a weekly pattern over the dates already present
// in the given complex schedule. A date whose weekday falls inside one of the
// regular day periods receives the regular time periods; every other date
// receives an empty list.
func ComplexFromRegular(existing ComplexSchedule, regular RegularSchedule) ComplexSchedule {
	out := ComplexSchedule{DailySchedules: make([]DailySchedule, 0, len(existing.DailySchedules))}
	for _, day := range existing.DailySchedules {
		periods := []TimePeriod{}
		if wd, err := Weekday(day.Date); err == nil && coveredByAny(regular.DayPeriods, wd) {
			periods = append(periods, regular.TimePeriods...)
		}
		out.DailySchedules = append(out.DailySchedules, DailySchedule{
			Date:        day.Date,
			TimePeriods: periods,
		})
	}
	return out
}

// EmptyComplexOver builds a complex schedule with one empty daily entry per
// date in the inclusive [start, end] range.
func EmptyComplexOver(start, end time.Time) ComplexSchedule {
	var days []DailySchedule
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, DailySchedule{Date: d.Format(isoDate), TimePeriods: []TimePeriod{}})
	}
	return ComplexSchedule{DailySchedules: days}
}

func periodHours(p TimePeriod) float64 {
	start, err := time.Parse("15:04", p.Start)
	if err != nil {
		return 0
	}
	end, err := time.Parse("15:04", p.End)
	if err != nil {
		return 0
	}
	h := end.Sub(start).Hours()
	if h < 0 {
		return 0
	}
	return h
}

func dayHours(periods []TimePeriod) float64 {
	var total float64
	for _, p := range periods {
		total += periodHours(p)
	}
	return total
}
