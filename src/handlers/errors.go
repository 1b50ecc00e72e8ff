package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/filehub/api/src/storage"
	"github.com/filehub/api/src/store"
)

// handleStorageError translates backend failures into the HTTP taxonomy at
// the route boundary. Nothing is retried internally.
func handleStorageError(c *gin.Context, err error, logger *logrus.Logger, requestID string) {
	status := http.StatusInternalServerError
	message := "storage operation failed"

	switch {
	case errors.Is(err, storage.ErrNotFound) || os.IsNotExist(err):
		status = http.StatusNotFound
		message = "file or folder not found"
	case errors.Is(err, storage.ErrFolderExists):
		status = http.StatusBadRequest
		message = "folder already exists"
	case errors.Is(err, storage.ErrPathTraversal):
		status = http.StatusBadRequest
		message = "invalid path"
	case errors.Is(err, context.DeadlineExceeded):
		// Bounded remote-store timeout; the client may retry.
		status = http.StatusServiceUnavailable
		message = "storage backend timed out"
	}

	logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"status":     status,
	}).Warn("storage: request failed")

	c.JSON(status, gin.H{"error": message})
}

// recordActivity appends one log entry for a file-affecting operation. A
// failed append is logged and never fails the primary response.
func recordActivity(logs *store.LogStore, logger *logrus.Logger, requestID, username, action, file, folder string) {
	if _, err := logs.Append(username, action, file, folder); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": requestID,
			"action":     action,
			"file":       file,
		}).Warn("activity log append failed")
	}
}
