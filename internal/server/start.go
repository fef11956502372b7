package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nfrund/lanstream/internal/handlers"
)

// Start runs the relay until an interrupt or terminate signal arrives, then
// shuts down gracefully.
func (s *Server) Start() {
	s.printBanner()

	go func() {
		if err := s.E.Start(s.Cfg.Addr); err != nil && err != http.ErrServerClosed {
			slog.Error("Server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown()
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.bus.Close(); err != nil {
		slog.Warn("Failed to close message bus", "error", err)
	}
	if s.DB != nil {
		if err := s.DB.Close(ctx); err != nil {
			slog.Warn("Failed to close database connection", "error", err)
		}
	}
	if err := s.E.Shutdown(ctx); err != nil {
		slog.Error("Failed to shut down cleanly", "error", err)
		os.Exit(1)
	}
}

// printBanner lists the URLs LAN peers can open, so the person starting the
// relay can read an address to the room.
func (s *Server) printBanner() {
	port := s.Cfg.Addr
	if idx := strings.LastIndex(port, ":"); idx >= 0 {
		port = port[idx+1:]
	}

	fmt.Println("lanstream relay is up. Reachable at:")
	fmt.Printf("  http://localhost:%s\n", port)
	for _, addr := range handlers.LANAddresses() {
		fmt.Printf("  http://%s:%s\n", addr, port)
	}
}

// waitForShutdown blocks until an interrupt or terminate signal is received.
func waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
}
