package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

var frenchWeekdays = [7]string{
	"lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi", "dimanche",
}

// maxLineLength bounds the joined time ranges printed for one weekday before
// the remainder wraps onto a continuation line.
const maxLineLength = 74

// PrettyPrint renders the weekly pattern of a schedule as a fixed-order
// (Monday to Sunday) multi-line string. Days without any time period print
// "libre". With includeHeader, the first line carries the total weekly hours.
func PrettyPrint(s Schedule, includeHeader bool) string {
	week := weeklyPeriods(s)

	var b strings.Builder
	if includeHeader {
		var total float64
		for _, periods := range week {
			total += dayHours(periods)
		}
		fmt.Fprintf(&b, "Heures de travail hebdomadaires : %s\n", formatHours(total))
	}

	for weekday, periods := range week {
		b.WriteString(frenchWeekdays[weekday])
		b.WriteString(" : ")
		if len(periods) == 0 {
			b.WriteString("libre")
			b.WriteString("\n")
			continue
		}
		ranges := make([]string, len(periods))
		for i, p := range periods {
			ranges[i] = p.Start + "-" + p.End
		}
		for _, line := range wrapJoined(ranges, maxLineLength) {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// weeklyPeriods projects a schedule onto one representative week. Complex
// schedules use the first occurrence of each weekday.
func weeklyPeriods(s Schedule) [7][]TimePeriod {
	var week [7][]TimePeriod
	if s.IsSimple && s.Regular != nil {
		for weekday := range week {
			if coveredByAny(s.Regular.DayPeriods, weekday) {
				week[weekday] = s.Regular.TimePeriods
			}
		}
		return week
	}
	seen := [7]bool{}
	for _, day := range s.Complex.DailySchedules {
		wd, err := Weekday(day.Date)
		if err != nil || seen[wd] {
			continue
		}
		seen[wd] = true
		week[wd] = day.TimePeriods
	}
	return week
}

func wrapJoined(ranges []string, width int) []string {
	var lines []string
	current := ""
	for _, r := range ranges {
		candidate := r
		if current != "" {
			candidate = current + ", " + r
		}
		if current != "" && len(candidate) > width {
			lines = append(lines, current+",")
			current = r
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
