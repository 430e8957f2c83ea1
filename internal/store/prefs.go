package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Well-known per-device preference keys.
const (
	KeyReminders        = "reminders"
	KeyFollowedSpeakers = "followed_speakers"
	KeyNotified         = "notified"
	KeyNotifRead        = "notif_read"
	KeyBannerDismissed  = "banner_dismissed"
	KeyNotifyDisabled   = "notifications_disabled"

	prefKeyPrefix = "prefs:"
)

// Prefs is the typed preference store. Every read fails soft to the type's
// empty default and every write swallows backend errors: reminders are
// best-effort, not critical-path.
type Prefs struct {
	backend Backend
	logger  *logrus.Logger
}

func NewPrefs(backend Backend, logger *logrus.Logger) *Prefs {
	return &Prefs{backend: backend, logger: logger}
}

func (p *Prefs) storageKey(device, name string) string {
	return prefKeyPrefix + device + ":" + name
}

// StringSet reads a JSON string array into set form. Missing keys, backend
// failures, and corrupt JSON all yield the empty set.
func (p *Prefs) StringSet(ctx context.Context, device, name string) map[string]bool {
	set := make(map[string]bool)

	raw, err := p.backend.Get(ctx, p.storageKey(device, name))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.WithError(err).WithField("key", name).Warn("Failed to read preference, using empty set")
		}
		return set
	}

	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		p.logger.WithError(err).WithField("key", name).Warn("Corrupt preference data, using empty set")
		return set
	}

	for _, entry := range entries {
		set[entry] = true
	}
	return set
}

// SetStringSet persists a set as a sorted JSON array.
func (p *Prefs) SetStringSet(ctx context.Context, device, name string, set map[string]bool) {
	entries := make([]string, 0, len(set))
	for entry := range set {
		entries = append(entries, entry)
	}
	sort.Strings(entries)

	raw, err := json.Marshal(entries)
	if err != nil {
		p.logger.WithError(err).WithField("key", name).Warn("Failed to encode preference")
		return
	}

	if err := p.backend.Set(ctx, p.storageKey(device, name), string(raw)); err != nil {
		p.logger.WithError(err).WithField("key", name).Warn("Failed to persist preference")
	}
}

func (p *Prefs) Int(ctx context.Context, device, name string) int {
	raw, err := p.backend.Get(ctx, p.storageKey(device, name))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.WithError(err).WithField("key", name).Warn("Failed to read preference, using zero")
		}
		return 0
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		p.logger.WithError(err).WithField("key", name).Warn("Corrupt preference data, using zero")
		return 0
	}
	return value
}

func (p *Prefs) SetInt(ctx context.Context, device, name string, value int) {
	if err := p.backend.Set(ctx, p.storageKey(device, name), strconv.Itoa(value)); err != nil {
		p.logger.WithError(err).WithField("key", name).Warn("Failed to persist preference")
	}
}

func (p *Prefs) Bool(ctx context.Context, device, name string) bool {
	raw, err := p.backend.Get(ctx, p.storageKey(device, name))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.WithError(err).WithField("key", name).Warn("Failed to read preference, using false")
		}
		return false
	}
	return raw == "true"
}

func (p *Prefs) SetBool(ctx context.Context, device, name string, value bool) {
	if err := p.backend.Set(ctx, p.storageKey(device, name), strconv.FormatBool(value)); err != nil {
		p.logger.WithError(err).WithField("key", name).Warn("Failed to persist preference")
	}
}
