// Package ical serializes calendar documents as iCalendar (RFC 5545) text.
package ical

import (
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/couchcryptid/weathercal/internal/domain"
)

// ContentType is the MIME type of encoded calendars.
const ContentType = "text/calendar; charset=utf-8"

const productID = "-//weathercal//JMA weekly forecast//JA"

// Encode renders doc as a VCALENDAR with one all-day VEVENT per event.
// stamp becomes every DTSTAMP; passing the report datetime keeps the output
// identical for identical input.
func Encode(doc domain.CalendarDocument, stamp time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(doc.DisplayName)

	for _, ev := range doc.Events {
		e := cal.AddEvent(ev.UID)
		e.SetDtStampTime(stamp)
		e.SetAllDayStartAt(ev.Date)
		e.SetSummary(ev.Summary)
		e.SetDescription(ev.Description)
	}
	return []byte(cal.Serialize())
}
