package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nfrund/lanstream/internal/middleware"
)

// RegisterRoutes sets up all the relay routes.
func (s *Server) RegisterRoutes() {
	s.E.GET("/ws", s.bridge.Handler())

	s.E.GET("/history", s.historyHandler.GetHistory)
	s.E.POST("/messages", s.historyHandler.SubmitMessage)
	s.E.DELETE("/history/delete", s.historyHandler.DeleteMessage)
	s.E.DELETE("/history/clear", s.historyHandler.ClearHistory)

	s.E.POST("/upload", s.uploadHandler.Upload, middleware.UploadRateLimiter())
	s.E.GET("/uploads/:token", s.uploadHandler.Download)

	s.E.GET("/health", s.systemHandler.Health)
	s.E.GET("/server-info", s.systemHandler.ServerInfo)
	s.E.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// The browser client; specific routes above win over the wildcard.
	s.E.Static("/", s.Cfg.StaticDir)
}
