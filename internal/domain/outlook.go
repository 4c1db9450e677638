package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// JST is the only offset the feed publishes in.
var JST = time.FixedZone("JST", 9*60*60)

const dateKey = "2006-01-02"

// DayOutlook is everything the calendar needs for one forecast day.
// TempMin and TempMax are nil when neither the week report nor the
// short-range readings provide a value.
type DayOutlook struct {
	Date          time.Time
	WeatherCode   string
	TempMin       *int
	TempMax       *int
	Precipitation string
}

// PopRollup holds the four six-hour precipitation slots of one local day
// (00-05, 06-11, 12-17, 18-23). A nil slot has no data.
type PopRollup struct {
	Day   time.Time
	Slots [4]*string
}

// String renders the slots as "10%/-%/30%/20%".
func (r PopRollup) String() string {
	parts := make([]string, len(r.Slots))
	for i, s := range r.Slots {
		parts[i] = percent(s)
	}
	return strings.Join(parts, "/")
}

// RollupPops groups six-hourly pops by local calendar day.
func RollupPops(s Series[SixHourRecord]) (map[string]PopRollup, error) {
	out := make(map[string]PopRollup)
	for _, e := range s {
		t, err := parseTimeDefine(e.Time)
		if err != nil {
			return nil, err
		}
		day := localMidnight(t)
		key := day.Format(dateKey)
		r, ok := out[key]
		if !ok {
			r = PopRollup{Day: day}
		}
		if e.Record.Pop != "" {
			pop := e.Record.Pop
			r.Slots[t.Hour()/6] = &pop
		}
		out[key] = r
	}
	return out, nil
}

// BuildOutlook derives one DayOutlook per week record, in date order.
// The six-hourly rollup replaces the week pop for days it covers; empty week
// temperatures fall back to the extremes of the day-level readings.
func BuildOutlook(area NormalizedArea) ([]DayOutlook, error) {
	rollups, err := RollupPops(area.PerSixHours)
	if err != nil {
		return nil, err
	}
	dayMin, dayMax := dayTempRange(area.Days)

	out := make([]DayOutlook, 0, len(area.Weeks))
	for _, e := range area.Weeks {
		t, err := parseTimeDefine(e.Time)
		if err != nil {
			return nil, err
		}
		day := localMidnight(t)

		o := DayOutlook{
			Date:        day,
			WeatherCode: e.Record.WeatherCode,
			TempMin:     parseTemp(e.Record.TempMin),
			TempMax:     parseTemp(e.Record.TempMax),
		}
		if o.TempMin == nil {
			o.TempMin = dayMin
		}
		if o.TempMax == nil {
			o.TempMax = dayMax
		}

		if r, ok := rollups[day.Format(dateKey)]; ok {
			o.Precipitation = r.String()
		} else {
			pop := e.Record.Pop
			o.Precipitation = percent(&pop)
		}
		out = append(out, o)
	}
	return out, nil
}

func parseTimeDefine(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, mismatchf("timeDefine %q: %v", s, err)
	}
	return t.In(JST), nil
}

func localMidnight(t time.Time) time.Time {
	t = t.In(JST)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, JST)
}

func percent(v *string) string {
	if v == nil || *v == "" {
		return "-%"
	}
	return *v + "%"
}

// parseTemp reads a temperature string; empty or malformed values are absent.
func parseTemp(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

func dayTempRange(days Series[DayRecord]) (lo, hi *int) {
	for _, e := range days {
		v := parseTemp(e.Record.Temp)
		if v == nil {
			continue
		}
		if lo == nil || *v < *lo {
			n := *v
			lo = &n
		}
		if hi == nil || *v > *hi {
			n := *v
			hi = &n
		}
	}
	return lo, hi
}
