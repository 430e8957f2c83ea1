package models

// Session is one agenda entry. Sessions carry no stable id in the published
// data; identity is the (date, time, title) composite built by the schedule
// package.
type Session struct {
	Time        string   `json:"time"`
	End         string   `json:"end"`
	Title       string   `json:"title"`
	Room        string   `json:"room"`
	Area        string   `json:"area"`
	Moderator   string   `json:"moderator,omitempty"`
	Speakers    []string `json:"speakers,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Day groups the sessions of one conference day. Day numbers are unique.
type Day struct {
	Day      int       `json:"day"`
	Date     string    `json:"date"`
	Sessions []Session `json:"sessions"`
}

func (s Session) HasSpeaker(speakerID string) bool {
	for _, id := range s.Speakers {
		if id == speakerID {
			return true
		}
	}
	return false
}
