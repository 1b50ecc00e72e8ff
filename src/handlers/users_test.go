package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filehub/api/src/store"
)

func newUserRouter(t *testing.T) (*gin.Engine, *store.UserStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	users, err := store.NewUserStore(t.TempDir(), logger)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/users", ListUsers(users, logger))
	router.POST("/users", CreateUser(users, logger))
	router.PATCH("/users/:username", UpdateUser(users, logger))
	router.DELETE("/users/:username", DeleteUser(users, logger))
	return router, users
}

func TestListUsersEmptyDirectory(t *testing.T) {
	router, _ := newUserRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/users", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestCreateAndListUsers(t *testing.T) {
	router, _ := newUserRouter(t)

	w := jsonRequest(router, "POST", "/users", gin.H{"username": "maria", "password": "pw", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/users", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var records []store.UserRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "maria", records[0].Username)
	assert.Equal(t, "admin", records[0].Role)
}

func TestCreateDuplicateUserIsRejected(t *testing.T) {
	router, _ := newUserRouter(t)

	w := jsonRequest(router, "POST", "/users", gin.H{"username": "maria"})
	require.Equal(t, http.StatusOK, w.Code)

	w = jsonRequest(router, "POST", "/users", gin.H{"username": "maria"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateUserWithoutUsernameIsRejected(t *testing.T) {
	router, _ := newUserRouter(t)

	w := jsonRequest(router, "POST", "/users", gin.H{"password": "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUser(t *testing.T) {
	router, users := newUserRouter(t)

	require.NoError(t, users.Create("maria", "old", "viewer"))

	w := jsonRequest(router, "PATCH", "/users/maria", gin.H{"password": "new", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)

	records, err := users.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].Password)
	assert.Equal(t, "admin", records[0].Role)
}

func TestUpdateMissingUserReturns404(t *testing.T) {
	router, _ := newUserRouter(t)

	w := jsonRequest(router, "PATCH", "/users/ghost", gin.H{"role": "admin"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUserIsIdempotent(t *testing.T) {
	router, users := newUserRouter(t)

	require.NoError(t, users.Create("maria", "pw", "admin"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/users/maria", nil))
	require.Equal(t, http.StatusOK, w.Code)

	// Deleting again still succeeds.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/users/maria", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	records, err := users.List()
	require.NoError(t, err)
	assert.Empty(t, records)
}
