package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handlePreflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRecurringTasks(c *gin.Context) {
	summary, err := s.recurring.ProcessRecurringTasks(c.Request.Context(), s.now().In(s.loc))
	if err != nil {
		s.log.Error().Err(err).Msg("process recurring tasks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Task processing failed. Please try again."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processed": summary.Scanned,
		"created":   summary.Created,
	})
}

func (s *Server) handleDailyReminder(c *gin.Context) {
	summary, err := s.reminders.Dispatch(c.Request.Context(), s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("daily reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch preferences"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"sent":    summary.Sent,
	})
}
