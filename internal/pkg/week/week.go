// Package week computes the sales week every retailer adapter works against.
package week

import (
	"regexp"
	"strconv"
	"time"
)

// Window is an inclusive Monday..Saturday range of calendar dates.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Current returns the sales week for now. Sunday already belongs to the
// following week.
func Current(now time.Time) Window {
	day := Date(now)
	if day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	start := MondayOf(day)
	return Window{Start: start, End: start.AddDate(0, 0, 5)}
}

// Date truncates t to midnight in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MondayOf returns the Monday of d's ISO week.
func MondayOf(d time.Time) time.Time {
	d = Date(d)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// SaturdayOf returns the Saturday of d's ISO week.
func SaturdayOf(d time.Time) time.Time {
	return MondayOf(d).AddDate(0, 0, 5)
}

func (w Window) Contains(d time.Time) bool {
	d = Date(d.In(w.Start.Location()))
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) ISOWeek() (int, int) {
	return w.Start.ISOWeek()
}

// Day returns the date offset days after the window start.
func (w Window) Day(offset int) time.Time {
	return w.Start.AddDate(0, 0, offset)
}

func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w Window) String() string {
	return w.Start.Format(time.DateOnly) + ".." + w.End.Format(time.DateOnly)
}

// ResolveDayMonth builds a date from a day/month fragment using the calendar
// year of now, not the year of any week being processed. ParseDates corrects
// the year around New Year.
func ResolveDayMonth(day, month int, now time.Time) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

var dateRe = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4}|\d{2})?`)

// ParseDate finds the first dd.mm.yyyy, dd.mm.yy or dd.mm. fragment in text.
func ParseDate(text string, now time.Time) (time.Time, bool) {
	all := ParseDates(text, now)
	if len(all) == 0 {
		return time.Time{}, false
	}
	return all[0], true
}

// ParseDates returns every date fragment of text in order of appearance.
// Fragments without a year start from the year of now and move to a
// neighbouring year when that lands within half a year of now. Such a
// fragment that falls before the preceding date of the same text is its
// range end and rolls forward a year.
func ParseDates(text string, now time.Time) []time.Time {
	var out []time.Time
	for _, m := range dateRe.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if m[3] == "" {
			t, ok := ResolveDayMonth(day, month, now)
			if !ok {
				continue
			}
			t = Nearest(t, now)
			if n := len(out); n > 0 && t.Before(out[n-1]) {
				t = t.AddDate(1, 0, 0)
			}
			out = append(out, t)
			continue
		}
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		if t.Day() == day && int(t.Month()) == month {
			out = append(out, t)
		}
	}
	return out
}

// Nearest shifts t by one year when that brings it within half a year of ref.
// 29 February keeps its year.
func Nearest(t, ref time.Time) time.Time {
	const half = 183 * 24 * time.Hour
	ref = Date(ref)
	for _, years := range []int{-1, 1} {
		if dist(t, ref) <= half {
			break
		}
		shifted := t.AddDate(years, 0, 0)
		if shifted.Day() != t.Day() {
			continue
		}
		if dist(shifted, ref) < dist(t, ref) {
			return shifted
		}
	}
	return t
}

func dist(a, b time.Time) time.Duration {
	if d := a.Sub(b); d >= 0 {
		return d
	}
	return b.Sub(a)
}
