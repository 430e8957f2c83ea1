package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Routes(handlers *Handlers) http.Handler {
	g := gin.Default()

	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	g.POST("/devices", handlers.RegisterDevice)

	g.GET("/agenda", handlers.Agenda)
	g.GET("/speakers", handlers.Speakers)
	g.GET("/locations", handlers.Locations)

	g.GET("/announcements", handlers.Announcements)
	g.POST("/announcements/read", handlers.MarkAnnouncementsRead)
	g.GET("/banner", handlers.Banner)
	g.POST("/banner/dismiss", handlers.DismissBanner)

	g.GET("/reminders", handlers.Reminders)
	g.POST("/reminders/toggle", handlers.ToggleReminder)
	g.POST("/notifications/settings", handlers.SetNotificationsDisabled)

	g.GET("/speakers/followed", handlers.FollowedSpeakers)
	g.POST("/speakers/:id/follow", handlers.FollowSpeaker)
	g.POST("/speakers/:id/unfollow", handlers.UnfollowSpeaker)

	g.GET("/sessions/next", handlers.NextSession)
	g.GET("/sessions/ics", handlers.SessionICS)

	g.POST("/claims", handlers.ClaimSpeaker)
	g.DELETE("/claims/:accountID", handlers.ReleaseClaim)
	g.GET("/claims", handlers.ClaimedSpeakers)

	return g
}
