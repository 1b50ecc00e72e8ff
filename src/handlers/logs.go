package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/filehub/api/src/store"
)

// ListLogs returns all activity entries, newest first.
func ListLogs(logs *store.LogStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := logs.List()
		if err != nil {
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("log list failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read activity log"})
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

type appendLogRequest struct {
	Username string `json:"username"`
	Action   string `json:"action"`
	File     string `json:"file"`
	Folder   string `json:"folder"`
}

// AppendLog records a client-submitted activity entry; the timestamp is
// assigned server-side.
func AppendLog(logs *store.LogStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req appendLogRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		if _, err := logs.Append(actingUser(req.Username, fallbackUser), req.Action, req.File, req.Folder); err != nil {
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("log append failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write activity log"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "logged"})
	}
}

type deleteLogsRequest struct {
	Logs []store.LogEntry `json:"logs"`
}

// DeleteLogs removes the entries that exactly match the submitted ones.
func DeleteLogs(logs *store.LogStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deleteLogsRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Logs == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		if err := logs.DeleteWhere(req.Logs); err != nil {
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("log delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete log entries"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

type deleteByTimestampsRequest struct {
	Timestamps []string `json:"timestamps"`
}

// DeleteLogsByTimestamps removes exactly the entries whose timestamps are in
// the submitted set. An empty set is invalid input, not a no-op.
func DeleteLogsByTimestamps(logs *store.LogStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deleteByTimestampsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		if err := logs.DeleteByTimestamps(req.Timestamps); err != nil {
			if errors.Is(err, store.ErrEmptyTimestampSet) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "timestamps must not be empty"})
				return
			}
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("log delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete log entries"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

// ClearLogs wipes the whole activity log.
func ClearLogs(logs *store.LogStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := logs.Clear(); err != nil {
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("log clear failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear activity log"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cleared"})
	}
}
