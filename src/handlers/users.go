package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/filehub/api/src/store"
)

// ListUsers returns the whole user directory.
func ListUsers(users *store.UserStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := users.List()
		if err != nil {
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("user list failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read user directory"})
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateUser registers a new user; the username is the unique key.
func CreateUser(users *store.UserStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
			return
		}

		if err := users.Create(req.Username, req.Password, req.Role); err != nil {
			if errors.Is(err, store.ErrUserExists) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "username already exists"})
				return
			}
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("user create failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "created"})
	}
}

type updateUserRequest struct {
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUser replaces password and role for an existing user.
func UpdateUser(users *store.UserStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		if err := users.Update(c.Param("username"), req.Password, req.Role); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("user update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	}
}

// DeleteUser removes a user; deleting an absent user still succeeds.
func DeleteUser(users *store.UserStore, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := users.Delete(c.Param("username")); err != nil {
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("user delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}
