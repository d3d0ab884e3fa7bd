// Package pipeline orchestrates program generation and the on-demand coach
// operations: context aggregation, candidate generation with fallback,
// validation, periodization, calendar propagation and persistence.
package pipeline

import (
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	shared "github.com/ripixel/fitplan-server/pkg"
	"github.com/ripixel/fitplan-server/pkg/bootstrap"
	"github.com/ripixel/fitplan-server/pkg/generator"
	"github.com/ripixel/fitplan-server/pkg/ratelimit"
)

// DefaultLockTTL bounds how long a crashed generation can block the next one.
const DefaultLockTTL = 2 * time.Minute

// Config tunes the pipeline. Zero values use the documented defaults.
type Config struct {
	ExternalGeneration  bool
	GenerationTimeout   time.Duration
	GenerationMaxTokens int
	RateInterval        time.Duration
	RateBurst           int
	ArtifactBucket      string
	LockTTL             time.Duration
	Location            *time.Location
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	db     shared.Database
	pub    shared.Publisher
	store  shared.BlobStore
	logger *slog.Logger

	external generator.Strategy
	fallback *generator.Fallback
	planner  *generator.SessionPlanner
	limiter  *ratelimit.Limiter
	inflight singleflight.Group

	bucket  string
	lockTTL time.Duration
	loc     *time.Location
	now     func() time.Time
}

// New wires a pipeline. text may be nil, which disables external generation.
// store may be nil, which disables artifact export.
func New(db shared.Database, pub shared.Publisher, store shared.BlobStore, text shared.TextGenerator, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	p := &Pipeline{
		db:       db,
		pub:      pub,
		store:    store,
		logger:   logger,
		fallback: generator.NewFallback(nil),
		planner:  generator.NewSessionPlanner(),
		bucket:   cfg.ArtifactBucket,
		lockTTL:  ttl,
		loc:      loc,
		now:      time.Now,
	}
	if cfg.ExternalGeneration && text != nil {
		p.external = generator.NewExternal(text, logger, cfg.GenerationTimeout, cfg.GenerationMaxTokens)
	}
	p.limiter = ratelimit.New(cfg.RateInterval, cfg.RateBurst, func() time.Time { return p.now() })
	return p
}

// FromService builds a pipeline from an initialized service container.
func FromService(svc *bootstrap.Service) *Pipeline {
	cfg := svc.Config
	return New(svc.DB, svc.Pub, svc.Store, svc.Text, Config{
		ExternalGeneration:  cfg.ExternalGeneration,
		GenerationTimeout:   cfg.GenerationTimeout,
		GenerationMaxTokens: cfg.GenerationMaxTokens,
		RateInterval:        cfg.GenerationRateWindow,
		RateBurst:           cfg.GenerationRateBurst,
		ArtifactBucket:      cfg.GCSArtifactBucket,
		Location:            cfg.Location,
	}, svc.Logger)
}

// SetClock replaces the pipeline's clock. Rate limiting follows it too.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Location is the timezone used for "today".
func (p *Pipeline) Location() *time.Location {
	return p.loc
}
