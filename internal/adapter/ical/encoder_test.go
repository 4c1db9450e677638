package ical

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/couchcryptid/weathercal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportTime = time.Date(2021, 2, 25, 17, 0, 0, 0, domain.JST)

func sampleDocument() domain.CalendarDocument {
	return domain.CalendarDocument{
		DisplayName: domain.CalendarName("東京"),
		PointName:   "東京",
		PointCode:   "44132",
		RegionName:  "東京地方",
		Events: []domain.ForecastEvent{
			{
				UID:         "a4c1d6a2-0000-5000-8000-000000000001",
				Date:        time.Date(2021, 2, 26, 0, 0, 0, 0, domain.JST),
				Summary:     "☁/☀",
				Description: "3℃/9℃ 曇時々晴 (☂10%/-%/30%/20%)",
			},
			{
				UID:         "a4c1d6a2-0000-5000-8000-000000000002",
				Date:        time.Date(2021, 2, 27, 0, 0, 0, 0, domain.JST),
				Summary:     "☂",
				Description: "6℃/11℃ 雨 (☂80%)",
			},
		},
	}
}

func TestEncode(t *testing.T) {
	out := string(Encode(sampleDocument(), reportTime))

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "X-WR-CALNAME:週間天気予報 (東京)")
	assert.Contains(t, out, "PRODID:"+productID)
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20210226")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20210227")
	assert.Contains(t, out, "DTSTAMP:20210225T080000Z")
	assert.Contains(t, out, "SUMMARY:☂")
}

func TestEncode_ParsesBack(t *testing.T) {
	cal, err := ics.ParseCalendar(strings.NewReader(string(Encode(sampleDocument(), reportTime))))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "a4c1d6a2-0000-5000-8000-000000000001", events[0].Id())
	assert.Equal(t, "☁/☀", events[0].GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "3℃/9℃ 曇時々晴 (☂10%/-%/30%/20%)", events[0].GetProperty(ics.ComponentPropertyDescription).Value)

	start, err := events[1].GetAllDayStartAt()
	require.NoError(t, err)
	assert.Equal(t, 27, start.Day())
}

func TestEncode_Deterministic(t *testing.T) {
	first := Encode(sampleDocument(), reportTime)
	second := Encode(sampleDocument(), reportTime)
	assert.Equal(t, first, second)
}

func TestEncode_NoEvents(t *testing.T) {
	doc := sampleDocument()
	doc.Events = nil
	out := string(Encode(doc, reportTime))
	assert.Contains(t, out, "END:VCALENDAR")
	assert.NotContains(t, out, "VEVENT")
}
