package schedule

import "time"

// TotalImmersionHoursBetween sums the worked hours of every time period on
// every scheduled date inside the inclusive [dateStart, dateEnd] range. A
// regular schedule is first expanded over that window.
//
// Both bounds must be ISO dates ("2006-01-02"). Any other format, including
// "DD/MM/YYYY", makes the function return 0 instead of failing: known quirk
// kept for compatibility with the historical behavior of the workflow.
func TotalImmersionHoursBetween(dateStart, dateEnd string, s Schedule) float64 {
	start, err := time.Parse(isoDate, dateStart)
	if err != nil {
		return 0
	}
	end, err := time.Parse(isoDate, dateEnd)
	if err != nil {
		return 0
	}

	complex := s.Complex
	if s.IsSimple {
		if s.Regular == nil {
			return 0
		}
		complex = ComplexFromRegular(EmptyComplexOver(start, end), *s.Regular)
	}

	var total float64
	for _, day := range complex.DailySchedules {
		d, err := time.Parse(isoDate, day.Date)
		if err != nil {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		total += dayHours(day.TimePeriods)
	}
	return total
}
