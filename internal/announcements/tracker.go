package announcements

import (
	"context"
	"sort"

	"companion/internal/models"
	"companion/internal/store"

	"github.com/sirupsen/logrus"
)

// Defaults applied when an announcement carries no date or time, so sorting
// stays total over partially filled entries.
const (
	fallbackDate = "2026-01-01"
	fallbackTime = "00:00"
)

// Tracker keeps the per-device read and banner-dismissed watermarks.
type Tracker struct {
	prefs  *store.Prefs
	logger *logrus.Logger
}

func NewTracker(prefs *store.Prefs, logger *logrus.Logger) *Tracker {
	return &Tracker{prefs: prefs, logger: logger}
}

// Sorted returns the announcements ordered descending by (date, time) for
// display. The source guarantees no ordering.
func Sorted(list []models.Announcement) []models.Announcement {
	sorted := make([]models.Announcement, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortStamp(sorted[i]) > sortStamp(sorted[j])
	})
	return sorted
}

func sortStamp(a models.Announcement) string {
	date := a.Date
	if date == "" {
		date = fallbackDate
	}
	clock := a.Time
	if clock == "" {
		clock = fallbackTime
	}
	return date + "T" + clock
}

// UnreadCount counts announcements above the device's read watermark.
func (t *Tracker) UnreadCount(ctx context.Context, device string, list []models.Announcement) int {
	lastRead := t.prefs.Int(ctx, device, store.KeyNotifRead)
	unread := 0
	for _, a := range list {
		if a.ID > lastRead {
			unread++
		}
	}
	return unread
}

// MarkRead advances the read watermark to the highest known id. This is an
// explicit navigation side effect of opening the notifications view.
func (t *Tracker) MarkRead(ctx context.Context, device string, list []models.Announcement) {
	if len(list) == 0 {
		return
	}
	t.prefs.SetInt(ctx, device, store.KeyNotifRead, maxID(list))
	t.logger.WithField("device", device).Debug("Announcements marked read")
}

// Banner selects the highest-id high-priority announcement above the
// dismissed watermark, or nil when none qualifies.
func (t *Tracker) Banner(ctx context.Context, device string, list []models.Announcement) *models.Announcement {
	lastDismissed := t.prefs.Int(ctx, device, store.KeyBannerDismissed)

	var banner *models.Announcement
	for i := range list {
		a := list[i]
		if a.Priority != models.PriorityHigh || a.ID <= lastDismissed {
			continue
		}
		if banner == nil || a.ID > banner.ID {
			banner = &a
		}
	}
	return banner
}

// DismissBanner advances the dismissed watermark to the current max id,
// suppressing every currently known high-priority banner, shown or not.
func (t *Tracker) DismissBanner(ctx context.Context, device string, list []models.Announcement) {
	if len(list) == 0 {
		return
	}
	t.prefs.SetInt(ctx, device, store.KeyBannerDismissed, maxID(list))
	t.logger.WithField("device", device).Debug("Banner dismissed")
}

func maxID(list []models.Announcement) int {
	max := 0
	for _, a := range list {
		if a.ID > max {
			max = a.ID
		}
	}
	return max
}
