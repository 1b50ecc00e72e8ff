package handlers

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/filehub/api/src/storage"
	"github.com/filehub/api/src/store"
)

type createFolderRequest struct {
	Folder   string `json:"folder"`
	Name     string `json:"name" binding:"required"`
	Username string `json:"username"`
}

// CreateFolder creates a directory under the given parent folder.
func CreateFolder(provider storage.Provider, logs *store.LogStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		var req createFolderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}

		if err := provider.CreateFolder(c.Request.Context(), req.Folder, req.Name); err != nil {
			handleStorageError(c, err, logger, requestID)
			return
		}

		recordActivity(logs, logger, requestID, actingUser(req.Username, fallbackUser), "created folder", req.Name, req.Folder)
		c.JSON(http.StatusOK, gin.H{"status": "created"})
	}
}

type deleteFolderRequest struct {
	Folder     string `json:"folder"`
	FolderName string `json:"folderName" binding:"required"`
	Username   string `json:"username"`
}

// DeleteFolder removes a directory and everything under it.
func DeleteFolder(provider storage.Provider, logs *store.LogStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		var req deleteFolderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "folderName is required"})
			return
		}

		if err := provider.DeleteFolder(c.Request.Context(), path.Join(req.Folder, req.FolderName)); err != nil {
			handleStorageError(c, err, logger, requestID)
			return
		}

		recordActivity(logs, logger, requestID, actingUser(req.Username, fallbackAdmin), "deleted folder", req.FolderName, req.Folder)
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}
