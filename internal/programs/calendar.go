package programs

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/Nixie-Tech-LLC/attendance/internal/model"
)

const productID = "-//Nixie Tech//Attendance//EN"

// CalendarICS renders sessions of p as an iCalendar feed, one VEVENT per
// session. stamp is written as DTSTAMP.
func CalendarICS(p model.Program, sessions []model.ProgramSession, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, s := range sessions {
		uid := fmt.Sprintf("program-%d-%s@attendance", p.ID, s.Start.UTC().Format("20060102T150405Z"))
		event := cal.AddEvent(uid)
		event.SetDtStampTime(stamp)
		event.SetStartAt(s.Start)
		event.SetEndAt(s.End)
		event.SetSummary(p.Name)
		if p.Location != nil {
			event.SetLocation(*p.Location)
		}
		if p.Description != nil {
			event.SetDescription(*p.Description)
		}
	}

	return cal.Serialize()
}
