package ical

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"companion/internal/models"
	"companion/internal/schedule"
)

const timeLayout = "2006-01-02T15:04"

// Event renders one session as an iCalendar VEVENT so clients can add it to
// their own calendar. The event UID is the session key.
func Event(session models.Session, date string, zone *time.Location) ([]byte, error) {
	start, err := time.ParseInLocation(timeLayout, date+"T"+session.Time, zone)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session start: %w", err)
	}
	end, err := time.ParseInLocation(timeLayout, date+"T"+session.End, zone)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session end: %w", err)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)

	event := cal.AddEvent(schedule.SessionKey(session, date))
	event.SetCreatedTime(time.Now())
	event.SetDtStampTime(time.Now())
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(session.Title)
	if session.Room != "" {
		event.SetLocation(session.Room)
	}
	if session.Description != "" {
		event.SetDescription(session.Description)
	}

	return []byte(cal.Serialize()), nil
}
