package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"
	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/lanstream/internal/config"
	"github.com/nfrund/lanstream/internal/database"
	"github.com/nfrund/lanstream/internal/handlers"
	"github.com/nfrund/lanstream/internal/history"
	"github.com/nfrund/lanstream/internal/hub"
	"github.com/nfrund/lanstream/internal/logging"
	"github.com/nfrund/lanstream/internal/middleware"
	"github.com/nfrund/lanstream/internal/pubsub"
	"github.com/nfrund/lanstream/internal/relay"
	"github.com/nfrund/lanstream/internal/storage"
	"github.com/nfrund/lanstream/internal/websocket"
)

// Server holds the dependencies for the relay.
type Server struct {
	E   *echo.Echo
	Cfg *config.Config
	DB  *surrealdb.DB // nil unless the surreal history backend is selected

	bus      *pubsub.WatermillBridge
	sessions *hub.Hub
	router   *relay.Router
	bridge   *websocket.Bridge

	historyHandler *handlers.HistoryHandler
	uploadHandler  *handlers.UploadHandler
	systemHandler  *handlers.SystemHandler
}

// New creates a fully wired Server. The uploads and static directories are
// created if missing, so a first run on a clean machine needs no setup.
func New(cfg *config.Config) (*Server, error) {
	logging.New()

	for _, dir := range []string{cfg.UploadDir, cfg.StaticDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	srv := &Server{Cfg: cfg}

	log, err := srv.newHistoryStore(cfg)
	if err != nil {
		return nil, err
	}
	blobs := storage.NewOsStore(cfg.UploadDir)

	srv.sessions = hub.New()
	go srv.sessions.Run()

	srv.bus = pubsub.NewWatermillBridge()
	srv.router = relay.New(log, blobs, srv.sessions)
	if err := srv.router.Start(context.Background(), srv.bus); err != nil {
		return nil, fmt.Errorf("failed to subscribe relay to the bus: %w", err)
	}

	srv.bridge = websocket.NewBridge(srv.bus, srv.sessions, cfg.SendBuffer)
	srv.historyHandler = handlers.NewHistoryHandler(srv.router)
	srv.uploadHandler = handlers.NewUploadHandler(blobs, 0)
	srv.systemHandler = handlers.NewSystemHandler(cfg.Addr)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger)
	e.Use(echomw.Recover())
	srv.E = e

	return srv, nil
}

// newHistoryStore builds the configured history backend.
func (s *Server) newHistoryStore(cfg *config.Config) (history.Store, error) {
	switch cfg.HistoryBackend {
	case config.BackendSurreal:
		db, err := database.NewDB(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
		}
		s.DB = db
		slog.Info("Using surreal history backend", "url", cfg.DBUrl)
		return history.NewSurrealStore(db), nil
	case config.BackendFile:
		store, err := history.NewFileStore(afero.NewOsFs(), cfg.HistoryFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open history file %q: %w", cfg.HistoryFile, err)
		}
		slog.Info("Using file history backend", "path", cfg.HistoryFile)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}
