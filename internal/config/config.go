package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// History backend selectors.
const (
	BackendFile    = "file"
	BackendSurreal = "surreal"
)

// Config holds all configuration for the relay.
type Config struct {
	// Addr is the listen address, e.g. ":8080". The relay binds all
	// interfaces by default so other devices on the LAN can reach it.
	Addr string

	// UploadDir is where uploaded blobs live (content store root).
	UploadDir string

	// StaticDir holds the browser client assets, served as-is.
	StaticDir string

	// HistoryBackend selects the history log store: "file" or "surreal".
	HistoryBackend string

	// HistoryFile is the JSON snapshot path used by the file backend.
	HistoryFile string

	// SendBuffer is the per-session outbound buffer size. A session whose
	// buffer fills up during a broadcast is dropped.
	SendBuffer int

	// SurrealDB connection settings, only required for the surreal backend.
	DBUrl  string
	DBNs   string
	DBDb   string
	DBUser string
	DBPass string
}

// New loads configuration from environment variables. Every setting has a
// LAN-friendly default so the relay starts with no configuration at all;
// only the surreal backend demands explicit connection settings.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Addr:           getEnv("LANSTREAM_ADDR", ":8080"),
		UploadDir:      getEnv("LANSTREAM_UPLOAD_DIR", "uploads"),
		StaticDir:      getEnv("LANSTREAM_STATIC_DIR", "static"),
		HistoryBackend: getEnv("LANSTREAM_HISTORY_BACKEND", BackendFile),
		HistoryFile:    getEnv("LANSTREAM_HISTORY_FILE", "history.json"),
		SendBuffer:     getEnvAsInt("LANSTREAM_SEND_BUFFER", 256),
		DBUrl:          os.Getenv("SURREAL_URL"),
		DBUser:         os.Getenv("SURREAL_USER"),
		DBPass:         os.Getenv("SURREAL_PASS"),
		DBNs:           os.Getenv("SURREAL_NS"),
		DBDb:           os.Getenv("SURREAL_DB"),
	}

	if cfg.HistoryBackend == BackendSurreal && (cfg.DBUrl == "" || cfg.DBNs == "" || cfg.DBDb == "") {
		log.Fatal("History backend is 'surreal' but SURREAL_URL, SURREAL_NS, or SURREAL_DB is not set.")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return fallback
}
