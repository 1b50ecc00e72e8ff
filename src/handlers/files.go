package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/filehub/api/src/storage"
	"github.com/filehub/api/src/store"
)

const (
	fallbackUser  = "unknown"
	fallbackAdmin = "admin"
)

func actingUser(username, fallback string) string {
	if username == "" {
		return fallback
	}
	return username
}

// Upload stores a multipart file under the given folder.
func Upload(provider storage.Provider, logs *store.LogStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		folder := c.PostForm("folder")
		username := actingUser(c.PostForm("username"), fallbackUser)

		src, err := fileHeader.Open()
		if err != nil {
			logger.WithError(err).WithField("request_id", requestID).Error("upload: open multipart file failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
			return
		}
		defer src.Close()

		url, err := provider.Put(c.Request.Context(), folder, fileHeader.Filename, src, fileHeader.Size)
		if err != nil {
			handleStorageError(c, err, logger, requestID)
			return
		}

		recordActivity(logs, logger, requestID, username, "uploaded", fileHeader.Filename, folder)
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}

// Browse lists the folders and files directly under a folder.
func Browse(provider storage.Provider, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		listing, err := provider.List(c.Request.Context(), c.Query("folder"))
		if err != nil {
			handleStorageError(c, err, logger, requestID)
			return
		}
		c.JSON(http.StatusOK, listing)
	}
}

// Download retrieves a file, either streaming its bytes or redirecting to a
// provider-issued URL depending on the backend.
func Download(provider storage.Provider, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")
		fileName := c.Param("fileName")
		folder := c.Query("folder")

		obj, err := provider.Fetch(c.Request.Context(), folder, fileName)
		if err != nil {
			handleStorageError(c, err, logger, requestID)
			return
		}

		if obj.RedirectURL != "" {
			c.Redirect(http.StatusFound, obj.RedirectURL)
			return
		}

		defer obj.Body.Close()
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", obj.Name))
		c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
	}
}

type saveRequest struct {
	FileName string `json:"fileName" binding:"required"`
	Content  string `json:"content"`
	Folder   string `json:"folder"`
	Username string `json:"username"`
}

// Save overwrites a text file with the submitted content.
func Save(provider storage.Provider, logs *store.LogStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		var req saveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fileName is required"})
			return
		}

		_, err := provider.Put(c.Request.Context(), req.Folder, req.FileName,
			strings.NewReader(req.Content), int64(len(req.Content)))
		if err != nil {
			handleStorageError(c, err, logger, requestID)
			return
		}

		recordActivity(logs, logger, requestID, actingUser(req.Username, fallbackUser), "edited", req.FileName, req.Folder)
		c.JSON(http.StatusOK, gin.H{"status": "saved"})
	}
}

type renameRequest struct {
	Folder   string `json:"folder"`
	OldName  string `json:"oldName" binding:"required"`
	NewName  string `json:"newName" binding:"required"`
	Username string `json:"username"`
}

// Rename changes a file's display name within its folder.
func Rename(provider storage.Provider, logs *store.LogStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		var req renameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "oldName and newName are required"})
			return
		}

		if err := provider.Rename(c.Request.Context(), req.Folder, req.OldName, req.NewName); err != nil {
			handleStorageError(c, err, logger, requestID)
			return
		}

		recordActivity(logs, logger, requestID, actingUser(req.Username, fallbackAdmin),
			"renamed", fmt.Sprintf("%s -> %s", req.OldName, req.NewName), req.Folder)
		c.JSON(http.StatusOK, gin.H{"status": "renamed"})
	}
}

type deleteFileRequest struct {
	Folder   string `json:"folder"`
	FileName string `json:"fileName" binding:"required"`
	Username string `json:"username"`
}

// DeleteFile removes a single file.
func DeleteFile(provider storage.Provider, logs *store.LogStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		var req deleteFileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fileName is required"})
			return
		}

		if err := provider.Delete(c.Request.Context(), req.Folder, req.FileName); err != nil {
			handleStorageError(c, err, logger, requestID)
			return
		}

		recordActivity(logs, logger, requestID, actingUser(req.Username, fallbackAdmin), "deleted", req.FileName, req.Folder)
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

// Search matches the keyword as a case-insensitive substring of display
// names anywhere under the storage root.
func Search(provider storage.Provider, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		hits, err := provider.Search(c.Request.Context(), c.Query("keyword"))
		if err != nil {
			handleStorageError(c, err, logger, requestID)
			return
		}
		c.JSON(http.StatusOK, hits)
	}
}
