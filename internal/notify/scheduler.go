package notify

import (
	"context"
	"time"

	"companion/internal/schedule"
	"companion/internal/store"

	"github.com/sirupsen/logrus"
)

const (
	defaultTickInterval = time.Minute
	defaultLeadWindow   = 10 * time.Minute
	defaultTolerance    = time.Minute
)

// Notification is the payload handed to the presentation platform. Tag is
// the session key; the platform replaces rather than stacks presentations
// sharing a tag.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	Tag   string `json:"tag"`
}

// Presenter displays a transient, dismissible notification on a device.
// A nil Presenter means the platform cannot present notifications; the
// scheduler is then inert.
type Presenter interface {
	Present(ctx context.Context, device string, notification Notification) error
}

// DeviceLister enumerates the devices whose reminders each tick inspects.
type DeviceLister interface {
	All(ctx context.Context) ([]string, error)
}

type SchedulerConfig struct {
	TickInterval time.Duration
	LeadWindow   time.Duration
	Tolerance    time.Duration
	Title        string
	Icon         string
	Now          func() time.Time // test hook
}

// Scheduler runs a fixed-interval tick that matches active reminders
// against the schedule and fires at-most-once notifications in the trailing
// sub-window of the lead time. Missed windows are never retried.
type Scheduler struct {
	prefs     *store.Prefs
	index     *schedule.Index
	devices   DeviceLister
	presenter Presenter
	logger    *logrus.Logger

	tickInterval time.Duration
	leadWindow   time.Duration
	tolerance    time.Duration
	title        string
	icon         string
	now          func() time.Time
}

func NewScheduler(prefs *store.Prefs, index *schedule.Index, devices DeviceLister, presenter Presenter, logger *logrus.Logger, cfg SchedulerConfig) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.LeadWindow <= 0 {
		cfg.LeadWindow = defaultLeadWindow
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = defaultTolerance
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		prefs:        prefs,
		index:        index,
		devices:      devices,
		presenter:    presenter,
		logger:       logger,
		tickInterval: cfg.TickInterval,
		leadWindow:   cfg.LeadWindow,
		tolerance:    cfg.Tolerance,
		title:        cfg.Title,
		icon:         cfg.Icon,
		now:          cfg.Now,
	}
}

// Run ticks until the context is cancelled. Start it only after the first
// content load attempt so the index is populated before the first tick.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.WithField("interval", s.tickInterval.String()).Info("Starting reminder scheduler")

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.presenter == nil {
		return
	}

	devices, err := s.devices.All(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list devices")
		return
	}

	now := s.now()
	fired := 0
	for _, device := range devices {
		fired += s.checkDevice(ctx, device, now)
	}

	if fired > 0 {
		s.logger.WithField("fired", fired).Info("Reminder notifications sent")
	}
}

// checkDevice fires due notifications for one device and returns how many
// were sent. A malformed session never halts the scan.
func (s *Scheduler) checkDevice(ctx context.Context, device string, now time.Time) int {
	if s.prefs.Bool(ctx, device, store.KeyNotifyDisabled) {
		return 0
	}

	reminders := s.prefs.StringSet(ctx, device, store.KeyReminders)
	if len(reminders) == 0 {
		return 0
	}
	notified := s.prefs.StringSet(ctx, device, store.KeyNotified)

	fired := 0
	for _, day := range s.index.Days() {
		if day.Date == "" {
			continue
		}
		for _, session := range day.Sessions {
			key := schedule.SessionKey(session, day.Date)
			if !reminders[key] || notified[key] {
				continue
			}

			start, err := s.index.StartTime(day.Date, session.Time)
			if err != nil {
				continue
			}

			diff := start.Sub(now)
			if diff <= 0 || diff > s.leadWindow || diff <= s.leadWindow-s.tolerance {
				continue
			}

			notification := Notification{
				Title: s.title,
				Body:  session.Title + "\n" + session.Time + " - " + session.Room,
				Icon:  s.icon,
				Tag:   key,
			}
			if err := s.presenter.Present(ctx, device, notification); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"device": device,
					"key":    key,
				}).Error("Failed to present notification")
				continue
			}

			notified[key] = true
			s.prefs.SetStringSet(ctx, device, store.KeyNotified, notified)
			fired++

			s.logger.WithFields(logrus.Fields{
				"device": device,
				"key":    key,
			}).Info("Reminder notification sent")
		}
	}
	return fired
}
