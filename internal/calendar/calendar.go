// Package calendar buckets issues into the calendar days of a visible range.
package calendar

import (
	"time"

	"github.com/alexanderramin/trackboard/internal/domain"
)

// Range is an inclusive span of local calendar days.
type Range struct {
	Start time.Time
	End   time.Time
}

// Day is one enumerated calendar day and the issues due on it.
type Day struct {
	Date    time.Time
	Key     string
	Weekend bool
	InMonth bool
	Issues  []domain.Issue
}

// MonthRange returns the full weeks covering a month, starting on weekStart.
func MonthRange(year int, month time.Month, weekStart time.Weekday) Range {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -daysBack(first.Weekday(), weekStart))
	end := last.AddDate(0, 0, 6-daysBack(last.Weekday(), weekStart))
	return Range{Start: start, End: end}
}

// WeekRange returns the week containing day, starting on weekStart.
func WeekRange(day time.Time, weekStart time.Weekday) Range {
	d := truncateDay(day)
	start := d.AddDate(0, 0, -daysBack(d.Weekday(), weekStart))
	return Range{Start: start, End: start.AddDate(0, 0, 6)}
}

// Days enumerates the calendar days of r. Saturdays and Sundays are skipped
// when showWeekends is false. A reversed range yields nothing.
func Days(r Range, showWeekends bool) []time.Time {
	start, end := truncateDay(r.Start), truncateDay(r.End)
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !showWeekends && isWeekend(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Bucket places each issue on the day its target date falls on. Dates are
// compared as YYYY-MM-DD strings; issues without a target date or outside
// the enumerated days are left out. Issue order within a day follows the
// input.
func Bucket(issues []domain.Issue, r Range, showWeekends bool) []Day {
	days := Days(r, showWeekends)
	out := make([]Day, len(days))
	index := make(map[string]int, len(days))
	month := monthOf(r)
	for i, d := range days {
		key := d.Format(domain.DateLayout)
		out[i] = Day{
			Date:    d,
			Key:     key,
			Weekend: isWeekend(d),
			InMonth: d.Month() == month,
			Issues:  []domain.Issue{},
		}
		index[key] = i
	}
	for _, is := range issues {
		if is.TargetDate == nil {
			continue
		}
		i, ok := index[is.TargetDate.Format(domain.DateLayout)]
		if !ok {
			continue
		}
		out[i].Issues = append(out[i].Issues, is)
	}
	return out
}

// Weeks splits days into rows of perWeek days.
func Weeks(days []Day, perWeek int) [][]Day {
	if perWeek <= 0 {
		return nil
	}
	var out [][]Day
	for i := 0; i < len(days); i += perWeek {
		end := i + perWeek
		if end > len(days) {
			end = len(days)
		}
		out = append(out, days[i:end])
	}
	return out
}

// DropPatch is the update implied by dropping an issue onto a day.
func DropPatch(day time.Time) domain.IssuePatch {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return domain.IssuePatch{TargetDate: domain.SetDate(d)}
}

func daysBack(wd, weekStart time.Weekday) int {
	return (int(wd) - int(weekStart) + 7) % 7
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// monthOf picks the month the middle of the range falls in.
func monthOf(r Range) time.Month {
	mid := r.Start.Add(r.End.Sub(r.Start) / 2)
	return mid.Month()
}
