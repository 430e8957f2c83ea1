package reminders

import (
	"context"
	"sort"

	"companion/internal/models"
	"companion/internal/schedule"
	"companion/internal/store"

	"github.com/sirupsen/logrus"
)

// ChangeListener is notified after every registry mutation so dependent
// views can refresh. The registry has no rendering knowledge of its own.
type ChangeListener interface {
	RemindersChanged(device string)
	FollowedChanged(device string)
}

// Registry tracks which sessions a device wants to be notified about, plus
// the followed speakers whose sessions derive reminders.
type Registry struct {
	prefs    *store.Prefs
	index    *schedule.Index
	listener ChangeListener // optional
	logger   *logrus.Logger
}

func NewRegistry(prefs *store.Prefs, index *schedule.Index, listener ChangeListener, logger *logrus.Logger) *Registry {
	return &Registry{
		prefs:    prefs,
		index:    index,
		listener: listener,
		logger:   logger,
	}
}

// Toggle flips the membership of key in the device's reminder set and
// returns the resulting state. Removing a reminder also clears its notified
// flag so a re-added reminder can fire again.
func (r *Registry) Toggle(ctx context.Context, device, key string) bool {
	reminders := r.prefs.StringSet(ctx, device, store.KeyReminders)

	reminded := !reminders[key]
	if reminded {
		reminders[key] = true
	} else {
		delete(reminders, key)
		r.clearNotified(ctx, device, key)
	}
	r.prefs.SetStringSet(ctx, device, store.KeyReminders, reminders)

	r.logger.WithFields(logrus.Fields{
		"device":   device,
		"key":      key,
		"reminded": reminded,
	}).Info("Reminder toggled")

	r.remindersChanged(device)
	return reminded
}

// IsReminded tests membership via the session key.
func (r *Registry) IsReminded(ctx context.Context, device string, session models.Session, date string) bool {
	reminders := r.prefs.StringSet(ctx, device, store.KeyReminders)
	return reminders[schedule.SessionKey(session, date)]
}

// Reminders lists the device's reminder keys in sorted order.
func (r *Registry) Reminders(ctx context.Context, device string) []string {
	set := r.prefs.StringSet(ctx, device, store.KeyReminders)
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FollowSpeaker adds the speaker to the followed set and a reminder for
// every currently indexed session where the speaker appears. Idempotent.
func (r *Registry) FollowSpeaker(ctx context.Context, device, speakerID string) {
	followed := r.prefs.StringSet(ctx, device, store.KeyFollowedSpeakers)
	followed[speakerID] = true
	r.prefs.SetStringSet(ctx, device, store.KeyFollowedSpeakers, followed)

	reminders := r.prefs.StringSet(ctx, device, store.KeyReminders)
	added := 0
	for _, ref := range r.index.FindSessionsBySpeaker(speakerID) {
		key := ref.Key()
		if !reminders[key] {
			reminders[key] = true
			added++
		}
	}
	r.prefs.SetStringSet(ctx, device, store.KeyReminders, reminders)

	r.logger.WithFields(logrus.Fields{
		"device":          device,
		"speaker_id":      speakerID,
		"reminders_added": added,
	}).Info("Speaker followed")

	r.followedChanged(device)
	r.remindersChanged(device)
}

// UnfollowSpeaker removes the speaker from the followed set and removes the
// reminder of every session the speaker appears in per the current schedule
// snapshot. There is no provenance on reminder entries, so a manually set
// reminder on one of those sessions is removed as well.
func (r *Registry) UnfollowSpeaker(ctx context.Context, device, speakerID string) {
	followed := r.prefs.StringSet(ctx, device, store.KeyFollowedSpeakers)
	delete(followed, speakerID)
	r.prefs.SetStringSet(ctx, device, store.KeyFollowedSpeakers, followed)

	reminders := r.prefs.StringSet(ctx, device, store.KeyReminders)
	removed := 0
	for _, ref := range r.index.FindSessionsBySpeaker(speakerID) {
		key := ref.Key()
		if reminders[key] {
			delete(reminders, key)
			r.clearNotified(ctx, device, key)
			removed++
		}
	}
	r.prefs.SetStringSet(ctx, device, store.KeyReminders, reminders)

	r.logger.WithFields(logrus.Fields{
		"device":            device,
		"speaker_id":        speakerID,
		"reminders_removed": removed,
	}).Info("Speaker unfollowed")

	r.followedChanged(device)
	r.remindersChanged(device)
}

// FollowedSpeakers lists the device's followed speaker ids in sorted order.
func (r *Registry) FollowedSpeakers(ctx context.Context, device string) []string {
	set := r.prefs.StringSet(ctx, device, store.KeyFollowedSpeakers)
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) IsFollowed(ctx context.Context, device, speakerID string) bool {
	return r.prefs.StringSet(ctx, device, store.KeyFollowedSpeakers)[speakerID]
}

func (r *Registry) clearNotified(ctx context.Context, device, key string) {
	notified := r.prefs.StringSet(ctx, device, store.KeyNotified)
	if notified[key] {
		delete(notified, key)
		r.prefs.SetStringSet(ctx, device, store.KeyNotified, notified)
	}
}

func (r *Registry) remindersChanged(device string) {
	if r.listener != nil {
		r.listener.RemindersChanged(device)
	}
}

func (r *Registry) followedChanged(device string) {
	if r.listener != nil {
		r.listener.FollowedChanged(device)
	}
}
