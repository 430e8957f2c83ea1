package models

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Announcement is an organizer-published notification. IDs increase
// monotonically and drive the read/dismissed watermarks.
type Announcement struct {
	ID       int      `json:"id"`
	Date     string   `json:"date,omitempty"`
	Time     string   `json:"time,omitempty"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority Priority `json:"priority,omitempty"`
}
