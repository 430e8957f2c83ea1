package api

import (
	"errors"
	"net/http"
	"time"

	"companion/internal/announcements"
	"companion/internal/claims"
	"companion/internal/content"
	"companion/internal/devices"
	"companion/internal/ical"
	"companion/internal/reminders"
	"companion/internal/schedule"
	"companion/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	loader   *content.Loader
	index    *schedule.Index
	registry *reminders.Registry
	tracker  *announcements.Tracker
	devices  *devices.Service
	claims   *claims.Service // nil when no database is configured
	prefs    *store.Prefs
	logger   *logrus.Logger
}

func NewHandlers(
	loader *content.Loader,
	index *schedule.Index,
	registry *reminders.Registry,
	tracker *announcements.Tracker,
	deviceService *devices.Service,
	claimService *claims.Service,
	prefs *store.Prefs,
	logger *logrus.Logger,
) *Handlers {
	return &Handlers{
		loader:   loader,
		index:    index,
		registry: registry,
		tracker:  tracker,
		devices:  deviceService,
		claims:   claimService,
		prefs:    prefs,
		logger:   logger,
	}
}

func nowIn(ix *schedule.Index) time.Time {
	return time.Now().In(ix.Zone())
}

// deviceID resolves the calling device from the X-Device-ID header or the
// device query param. Routes that track per-device state require it.
func deviceID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-Device-ID")
	if id == "" {
		id = c.Query("device")
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing device id"})
		return "", false
	}
	return id, true
}

func (h *Handlers) RegisterDevice(c *gin.Context) {
	id, err := h.devices.Register(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to register device")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register device"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"device_id": id})
}

func (h *Handlers) Agenda(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"days": h.loader.Snapshot().Agenda})
}

func (h *Handlers) Speakers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"speakers": h.loader.Snapshot().Speakers})
}

func (h *Handlers) Locations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"locations": h.loader.Snapshot().Locations})
}

func (h *Handlers) Announcements(c *gin.Context) {
	device, ok := deviceID(c)
	if !ok {
		return
	}
	list := h.loader.Snapshot().Announcements
	c.JSON(http.StatusOK, gin.H{
		"announcements": announcements.Sorted(list),
		"unread":        h.tracker.UnreadCount(c.Request.Context(), device, list),
	})
}

func (h *Handlers) MarkAnnouncementsRead(c *gin.Context) {
	device, ok := deviceID(c)
	if !ok {
		return
	}
	h.tracker.MarkRead(c.Request.Context(), device, h.loader.Snapshot().Announcements)
	c.Status(http.StatusNoContent)
}

func (h *Handlers) Banner(c *gin.Context) {
	device, ok := deviceID(c)
	if !ok {
		return
	}
	banner := h.tracker.Banner(c.Request.Context(), device, h.loader.Snapshot().Announcements)
	if banner == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"banner": banner})
}

func (h *Handlers) DismissBanner(c *gin.Context) {
	device, ok := deviceID(c)
	if !ok {
		return
	}
	h.tracker.DismissBanner(c.Request.Context(), device, h.loader.Snapshot().Announcements)
	c.Status(http.StatusNoContent)
}

type toggleRequest struct {
	Key string `json:"key" binding:"required"`
}

func (h *Handlers) ToggleReminder(c *gin.Context) {
	device, ok := deviceID(c)
	if !ok {
		return
	}
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing reminder key"})
		return
	}
	reminded := h.registry.Toggle(c.Request.Context(), device, req.Key)
	c.JSON(http.StatusOK, gin.H{"key": req.Key, "reminded": reminded})
}

func (h *Handlers) Reminders(c *gin.Context) {
	device, ok := deviceID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": h.registry.Reminders(c.Request.Context(), device)})
}

func (h *Handlers) FollowSpeaker(c *gin.Context) {
	device, ok := deviceID(c)
	if !ok {
		return
	}
	h.registry.FollowSpeaker(c.Request.Context(), device, c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handlers) UnfollowSpeaker(c *gin.Context) {
	device, ok := deviceID(c)
	if !ok {
		return
	}
	h.registry.UnfollowSpeaker(c.Request.Context(), device, c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handlers) FollowedSpeakers(c *gin.Context) {
	device, ok := deviceID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"followed": h.registry.FollowedSpeakers(c.Request.Context(), device)})
}

func (h *Handlers) NextSession(c *gin.Context) {
	ref := h.index.NextOrCurrentSession(nowIn(h.index))
	if ref == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": ref,
		"now":     h.index.IsSessionNow(ref.Session, ref.Date, nowIn(h.index)),
	})
}

func (h *Handlers) SessionICS(c *gin.Context) {
	ref := h.index.FindSession(c.Query("date"), c.Query("time"), c.Query("title"))
	if ref == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	body, err := ical.Event(ref.Session, ref.Date, h.index.Zone())
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "session has no valid times"})
		return
	}
	c.Data(http.StatusOK, "text/calendar", body)
}

type notifySettingsRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

func (h *Handlers) SetNotificationsDisabled(c *gin.Context) {
	device, ok := deviceID(c)
	if !ok {
		return
	}
	var req notifySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing disabled flag"})
		return
	}
	h.prefs.SetBool(c.Request.Context(), device, store.KeyNotifyDisabled, *req.Disabled)
	c.Status(http.StatusNoContent)
}

type claimRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	SpeakerID string `json:"speaker_id" binding:"required"`
}

func (h *Handlers) ClaimSpeaker(c *gin.Context) {
	if h.claims == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "claims are not available"})
		return
	}
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing account_id or speaker_id"})
		return
	}

	err := h.claims.Claim(c.Request.Context(), req.AccountID, req.SpeakerID)
	switch {
	case errors.Is(err, claims.ErrSpeakerClaimed), errors.Is(err, claims.ErrAccountHasClaim):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.WithError(err).Error("Failed to claim speaker")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not claim speaker"})
	default:
		c.Status(http.StatusNoContent)
	}
}

func (h *Handlers) ReleaseClaim(c *gin.Context) {
	if h.claims == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "claims are not available"})
		return
	}
	if err := h.claims.Release(c.Request.Context(), c.Param("accountID")); err != nil {
		h.logger.WithError(err).Error("Failed to release claim")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not release claim"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ClaimedSpeakers(c *gin.Context) {
	if h.claims == nil {
		c.JSON(http.StatusOK, gin.H{"claimed": []string{}})
		return
	}
	ids, err := h.claims.ClaimedSpeakerIDs(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list claims")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list claims"})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"claimed": ids})
}
