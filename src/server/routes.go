package server

import (
	"github.com/filehub/api/src/handlers"
)

// SetupRoutes configures all HTTP routes.
func (s *Server) SetupRoutes() {
	s.router.GET("/health", handlers.Health())

	s.setupFileRoutes()
	s.setupFolderRoutes()
	s.setupLogRoutes()
	s.setupUserRoutes()
}

// setupFileRoutes configures file transfer and manipulation endpoints.
func (s *Server) setupFileRoutes() {
	s.router.POST("/upload", handlers.Upload(s.provider, s.logStore, s.logger))
	s.router.GET("/browse", handlers.Browse(s.provider, s.logger))
	s.router.GET("/download/:fileName", handlers.Download(s.provider, s.logger))
	s.router.POST("/save", handlers.Save(s.provider, s.logStore, s.logger))
	s.router.GET("/search", handlers.Search(s.provider, s.logger))

	// Legacy clients use POST for rename and delete; both verbs are served.
	rename := handlers.Rename(s.provider, s.logStore, s.logger)
	s.router.POST("/rename", rename)
	s.router.PATCH("/rename", rename)

	remove := handlers.DeleteFile(s.provider, s.logStore, s.logger)
	s.router.POST("/delete", remove)
	s.router.DELETE("/delete", remove)
}

// setupFolderRoutes configures directory endpoints.
func (s *Server) setupFolderRoutes() {
	s.router.POST("/create-folder", handlers.CreateFolder(s.provider, s.logStore, s.logger))

	removeFolder := handlers.DeleteFolder(s.provider, s.logStore, s.logger)
	s.router.POST("/delete-folder", removeFolder)
	s.router.DELETE("/delete-folder", removeFolder)
}

// setupLogRoutes configures activity log endpoints.
func (s *Server) setupLogRoutes() {
	s.router.GET("/log", handlers.ListLogs(s.logStore, s.logger))
	s.router.POST("/log", handlers.AppendLog(s.logStore, s.logger))
	s.router.POST("/log/delete", handlers.DeleteLogs(s.logStore, s.logger))
	s.router.DELETE("/log", handlers.DeleteLogsByTimestamps(s.logStore, s.logger))
	s.router.POST("/log/clear", handlers.ClearLogs(s.logStore, s.logger))
}

// setupUserRoutes configures user directory endpoints.
func (s *Server) setupUserRoutes() {
	s.router.GET("/users", handlers.ListUsers(s.userStore, s.logger))
	s.router.POST("/users", handlers.CreateUser(s.userStore, s.logger))
	s.router.PATCH("/users/:username", handlers.UpdateUser(s.userStore, s.logger))
	s.router.DELETE("/users/:username", handlers.DeleteUser(s.userStore, s.logger))
}
