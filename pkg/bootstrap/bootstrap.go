package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"

	shared "github.com/ripixel/fitplan-server/pkg"
	"github.com/ripixel/fitplan-server/pkg/infrastructure/database"
	infrapubsub "github.com/ripixel/fitplan-server/pkg/infrastructure/pubsub"
	"github.com/ripixel/fitplan-server/pkg/infrastructure/secrets"
	infrastorage "github.com/ripixel/fitplan-server/pkg/infrastructure/storage"
	"github.com/ripixel/fitplan-server/pkg/infrastructure/textgen"
)

// Store backends.
const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
)

// Documented configuration defaults.
const (
	DefaultSQLitePath           = "fitplan.db"
	DefaultGenerationTimeout    = 45 * time.Second
	DefaultGenerationMaxTokens  = 6000
	DefaultGenerationRateWindow = 30 * time.Second
	DefaultGenerationRateBurst  = 2
	DefaultTextgenKeySecret     = "TEXTGEN_API_KEY"
)

// Config holds standard configuration for all services
type Config struct {
	ProjectID         string
	EnablePublish     bool
	GCSArtifactBucket string

	StoreBackend string
	SQLitePath   string

	TextgenBaseURL       string
	TextgenModel         string
	TextgenFallbackModel string
	TextgenAPIKey        string
	TextgenAPIKeySecret  string

	ExternalGeneration   bool
	GenerationTimeout    time.Duration
	GenerationMaxTokens  int
	GenerationRateWindow time.Duration
	GenerationRateBurst  int
	Location             *time.Location
}

// Service holds initialized dependencies
type Service struct {
	DB      shared.Database
	Store   shared.BlobStore
	Pub     shared.Publisher
	Secrets shared.SecretStore
	Text    shared.TextGenerator
	Config  *Config
	Logger  *slog.Logger

	closers []func() error
}

// LoadConfig reads configuration from environment variables. Optional
// values that fail to parse keep their defaults.
func LoadConfig() *Config {
	return loadConfig(os.Getenv)
}

func loadConfig(getenv func(string) string) *Config {
	projectID := getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = shared.ProjectID // Fallback
	}

	backend := strings.ToLower(getenv("STORE_BACKEND"))
	if backend != BackendSQLite {
		backend = BackendFirestore
	}
	sqlitePath := getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = DefaultSQLitePath
	}
	keySecret := getenv("TEXTGEN_API_KEY_SECRET")
	if keySecret == "" {
		keySecret = DefaultTextgenKeySecret
	}

	loc := time.UTC
	if tz := getenv("TIMEZONE"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	return &Config{
		ProjectID:         projectID,
		EnablePublish:     getenv("ENABLE_PUBLISH") == "true",
		GCSArtifactBucket: getenv("GCS_ARTIFACT_BUCKET"),

		StoreBackend: backend,
		SQLitePath:   sqlitePath,

		TextgenBaseURL:       getenv("TEXTGEN_BASE_URL"),
		TextgenModel:         getenv("TEXTGEN_MODEL"),
		TextgenFallbackModel: getenv("TEXTGEN_FALLBACK_MODEL"),
		TextgenAPIKey:        getenv("TEXTGEN_API_KEY"),
		TextgenAPIKeySecret:  keySecret,

		ExternalGeneration:   parseBool(getenv("EXTERNAL_GENERATION"), true),
		GenerationTimeout:    parseDuration(getenv("GENERATION_TIMEOUT"), DefaultGenerationTimeout),
		GenerationMaxTokens:  parseInt(getenv("GENERATION_MAX_TOKENS"), DefaultGenerationMaxTokens),
		GenerationRateWindow: parseDuration(getenv("GENERATION_RATE_INTERVAL"), DefaultGenerationRateWindow),
		GenerationRateBurst:  parseInt(getenv("GENERATION_RATE_BURST"), DefaultGenerationRateBurst),
		Location:             loc,
	}
}

func parseBool(s string, def bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return def
}

func parseInt(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message
type ComponentHandler struct {
	slog.Handler
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	var component string

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = a.Value.String()
			return false
		}
		return true
	})

	if component != "" {
		newRecord := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("[%s] %s", component, r.Message), r.PC)
		r.Attrs(func(a slog.Attr) bool {
			if a.Key != "component" {
				newRecord.AddAttrs(a)
			}
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps the wrapper when attributes are bound with Logger.With.
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ComponentHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup keeps the wrapper when a group is opened.
func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{Handler: h.Handler.WithGroup(name)}
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a configured logger instance and installs it as the
// default logger.
func NewLogger(serviceName string, isDev bool) *slog.Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	if isDev && os.Getenv("LOG_LEVEL") == "" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, GetSlogHandlerOptions(level))
	logger := slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
	slog.SetDefault(logger)
	return logger
}

// NewService initializes all standard dependencies
func NewService(ctx context.Context, serviceName string) (*Service, error) {
	cfg := LoadConfig()
	logger := NewLogger(serviceName, cfg.StoreBackend == BackendSQLite)

	logger.Info("Initializing service", "project_id", cfg.ProjectID, "store", cfg.StoreBackend)

	svc := &Service{Config: cfg, Logger: logger}
	svc.Secrets = &secrets.SecretsAdapter{Logger: logger}

	// Store
	switch cfg.StoreBackend {
	case BackendSQLite:
		db, err := database.NewSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Error("SQLite init failed", "error", err)
			return nil, fmt.Errorf("sqlite init: %w", err)
		}
		svc.DB = db
		svc.closers = append(svc.closers, db.Close)
	default:
		fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			logger.Error("Firestore init failed", "error", err)
			return nil, fmt.Errorf("firestore init: %w", err)
		}
		svc.DB = database.NewFirestoreAdapter(fsClient)
		svc.closers = append(svc.closers, fsClient.Close)
	}

	// Pub/Sub
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			logger.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		svc.Pub = &infrapubsub.PubSubAdapter{Client: psClient, Logger: logger}
		svc.closers = append(svc.closers, psClient.Close)
		logger.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		svc.Pub = &infrapubsub.LogPublisher{Logger: logger}
		logger.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	// Storage is only needed when artifacts are exported.
	if cfg.GCSArtifactBucket != "" {
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			logger.Error("Storage init failed", "error", err)
			return nil, fmt.Errorf("storage init: %w", err)
		}
		svc.Store = &infrastorage.StorageAdapter{Client: gcsClient}
		svc.closers = append(svc.closers, gcsClient.Close)
	}

	// Text generation. A missing key leaves the client in static mode, which
	// routes every request to deterministic synthesis.
	apiKey := cfg.TextgenAPIKey
	if apiKey == "" && cfg.ExternalGeneration {
		key, err := svc.Secrets.GetSecret(ctx, cfg.ProjectID, cfg.TextgenAPIKeySecret)
		if err != nil {
			logger.Warn("Text generator key unavailable, external generation disabled", "error", err)
		}
		apiKey = key
	}
	svc.Text = textgen.NewClient(cfg.TextgenBaseURL, apiKey, cfg.TextgenModel, cfg.TextgenFallbackModel, logger)

	return svc, nil
}

// Close releases every client opened by NewService.
func (s *Service) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
