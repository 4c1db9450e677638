package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// eventNamespace seeds deterministic event UIDs.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://www.jma.go.jp/bosai/forecast/"))

// ForecastEvent is one all-day calendar entry.
type ForecastEvent struct {
	UID         string    `json:"uid"`
	Date        time.Time `json:"date"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
}

// CalendarDocument is the calendar published for one forecast point.
type CalendarDocument struct {
	DisplayName string          `json:"display_name"`
	PointName   string          `json:"point_name"`
	PointCode   string          `json:"point_code"`
	RegionName  string          `json:"region_name"`
	Events      []ForecastEvent `json:"events"`
}

// Emitter turns normalized areas into calendar documents.
type Emitter struct {
	telops TelopTable
	rules  []GlyphRule
}

// NewEmitter creates an Emitter. A nil rules slice selects DefaultGlyphRules.
func NewEmitter(telops TelopTable, rules []GlyphRule) *Emitter {
	if rules == nil {
		rules = DefaultGlyphRules
	}
	return &Emitter{telops: telops, rules: rules}
}

// Emit builds the calendar for one area, one event per week record.
// An unknown weather code fails the area with ErrLookupMiss.
func (e *Emitter) Emit(area NormalizedArea) (CalendarDocument, error) {
	days, err := BuildOutlook(area)
	if err != nil {
		return CalendarDocument{}, err
	}

	events := make([]ForecastEvent, 0, len(days))
	for _, d := range days {
		text, err := e.telops.Describe(d.WeatherCode)
		if err != nil {
			return CalendarDocument{}, fmt.Errorf("%s %s: %w", area.PointName, d.Date.Format(dateKey), err)
		}
		events = append(events, ForecastEvent{
			UID:         eventUID(area.PointCode, d.Date),
			Date:        d.Date,
			Summary:     Glyphify(text, e.rules),
			Description: describeDay(d, text),
		})
	}

	return CalendarDocument{
		DisplayName: CalendarName(area.PointName),
		PointName:   area.PointName,
		PointCode:   area.PointCode,
		RegionName:  area.RegionName,
		Events:      events,
	}, nil
}

// CalendarName is the display name of a point's calendar.
func CalendarName(pointName string) string {
	return fmt.Sprintf("週間天気予報 (%s)", pointName)
}

func describeDay(d DayOutlook, text string) string {
	parts := make([]string, 0, 3)
	if d.TempMin != nil && d.TempMax != nil {
		parts = append(parts, fmt.Sprintf("%d℃/%d℃", *d.TempMin, *d.TempMax))
	}
	parts = append(parts, text, "(☂"+d.Precipitation+")")
	return strings.Join(parts, " ")
}

func eventUID(pointCode string, day time.Time) string {
	return uuid.NewSHA1(eventNamespace, []byte(pointCode+"|"+day.Format(dateKey))).String()
}
