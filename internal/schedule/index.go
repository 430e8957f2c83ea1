package schedule

import (
	"sync"
	"time"

	"companion/internal/models"
)

const timeLayout = "2006-01-02T15:04"

// SessionKey is the sole identity used for reminder matching and duplicate
// suppression. Two sessions with identical date, start time, and title are
// indistinguishable.
func SessionKey(session models.Session, date string) string {
	return date + "|" + session.Time + "|" + session.Title
}

// SessionRef pairs a session with its day's date.
type SessionRef struct {
	Session models.Session `json:"session"`
	Date    string         `json:"date"`
}

// Key returns the session key of the referenced session.
func (r SessionRef) Key() string {
	return SessionKey(r.Session, r.Date)
}

// Index is a queryable view over the current agenda snapshot. Snapshots are
// full replacements; Swap installs a new one atomically so readers never see
// a partially updated agenda.
type Index struct {
	mu   sync.RWMutex
	days []models.Day
	zone *time.Location
}

func NewIndex(zone *time.Location) *Index {
	if zone == nil {
		zone = time.Local
	}
	return &Index{zone: zone}
}

func (ix *Index) Swap(days []models.Day) {
	ix.mu.Lock()
	ix.days = days
	ix.mu.Unlock()
}

func (ix *Index) Days() []models.Day {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.days
}

func (ix *Index) Zone() *time.Location {
	return ix.zone
}

// StartTime combines a day date with a HH:MM clock value in the event zone.
func (ix *Index) StartTime(date, clock string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, date+"T"+clock, ix.zone)
}

// FindSessionsBySpeaker scans all days for sessions listing the speaker.
func (ix *Index) FindSessionsBySpeaker(speakerID string) []SessionRef {
	var refs []SessionRef
	for _, day := range ix.Days() {
		if day.Date == "" {
			continue
		}
		for _, session := range day.Sessions {
			if session.HasSpeaker(speakerID) {
				refs = append(refs, SessionRef{Session: session, Date: day.Date})
			}
		}
	}
	return refs
}

// IsSessionNow reports whether now falls inside [start, end] inclusive.
// A missing date or an unparsable time means false, never an error.
func (ix *Index) IsSessionNow(session models.Session, date string, now time.Time) bool {
	if date == "" {
		return false
	}
	start, err := ix.StartTime(date, session.Time)
	if err != nil {
		return false
	}
	end, err := ix.StartTime(date, session.End)
	if err != nil {
		return false
	}
	return !now.Before(start) && !now.After(end)
}

// NextOrCurrentSession returns the in-progress session if one exists, else
// the session with the soonest future start. Ties keep the first session in
// list order since the comparison is strict. Returns nil when the agenda is
// empty or everything is over.
func (ix *Index) NextOrCurrentSession(now time.Time) *SessionRef {
	var next *SessionRef
	var nextStart time.Time

	for _, day := range ix.Days() {
		if day.Date == "" {
			continue
		}
		for _, session := range day.Sessions {
			start, err := ix.StartTime(day.Date, session.Time)
			if err != nil {
				continue
			}
			end, err := ix.StartTime(day.Date, session.End)
			if err != nil {
				continue
			}

			if !now.Before(start) && !now.After(end) {
				return &SessionRef{Session: session, Date: day.Date}
			}

			if start.After(now) && (next == nil || start.Before(nextStart)) {
				next = &SessionRef{Session: session, Date: day.Date}
				nextStart = start
			}
		}
	}
	return next
}

// FindSession looks up a session by its identity triple.
func (ix *Index) FindSession(date, clock, title string) *SessionRef {
	for _, day := range ix.Days() {
		if day.Date != date {
			continue
		}
		for _, session := range day.Sessions {
			if session.Time == clock && session.Title == title {
				return &SessionRef{Session: session, Date: day.Date}
			}
		}
	}
	return nil
}
