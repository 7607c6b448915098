// Package container wires the claimflow components from configuration.
package container

import (
	"context"
	"fmt"
	"time"

	"fjacquet/claimflow/internal/aba"
	"fjacquet/claimflow/internal/claims"
	"fjacquet/claimflow/internal/config"
	"fjacquet/claimflow/internal/extractor"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/matcher"
	"fjacquet/claimflow/internal/store"
	"fjacquet/claimflow/internal/store/sqlstore"

	"github.com/shopspring/decimal"
)

// Container holds all application dependencies. It is immutable after creation.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	store     store.Repository
	memory    *store.MemoryStore
	extractor *extractor.Extractor
	matcher   *matcher.Matcher
	batcher   *claims.Batcher
	encoder   *aba.Encoder
	now       func() time.Time
}

type options struct {
	logger logging.Logger
	now    func() time.Time
}

// Option customizes container construction.
type Option func(*options)

// WithLogger replaces the logger built from the log section.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock sets the clock shared by every component.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewContainer creates and wires all application dependencies. The memory driver
// is seeded from the fixtures file and writes it back on Close.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	base := o.now
	now := func() time.Time { return base().In(loc) }

	c := &Container{logger: logger, config: cfg, now: now}
	if err := c.openStore(ctx); err != nil {
		return nil, err
	}

	c.extractor = extractor.NewExtractor(logger,
		extractor.WithClock(now),
		extractor.WithMaxQuantity(decimal.NewFromFloat(cfg.Extraction.MaxQuantity)))
	c.matcher = matcher.NewMatcher(c.store, cfg.MatcherConfig(), logger, matcher.WithClock(now))
	c.batcher = claims.NewBatcher(c.store, c.store, logger,
		claims.WithClock(now),
		claims.WithReferencePrefix(cfg.Claims.ReferencePrefix))
	c.encoder = aba.NewEncoder(c.store, c.store, cfg.EncoderConfig(), logger, aba.WithClock(now))

	logger.Debug("Container initialized", logging.F("store_driver", cfg.Store.Driver))
	return c, nil
}

func (c *Container) openStore(ctx context.Context) error {
	switch c.config.Store.Driver {
	case config.DriverMemory:
		mem := store.NewMemoryStore()
		if c.config.Store.Fixtures != "" {
			fx, err := store.LoadFixtures(c.config.Store.Fixtures)
			if err != nil {
				return err
			}
			if err := store.Seed(ctx, mem, fx); err != nil {
				return fmt.Errorf("failed to seed memory store: %w", err)
			}
		}
		c.store, c.memory = mem, mem
	case config.DriverSQLite, config.DriverPgx:
		s, err := sqlstore.Open(ctx, c.config.Store.Driver, c.config.Store.DSN, c.logger)
		if err != nil {
			return err
		}
		c.store = s
	default:
		return fmt.Errorf("unknown store driver: %s", c.config.Store.Driver)
	}
	return nil
}

// ImportFixtures upserts every entity of a fixtures file into the store.
func (c *Container) ImportFixtures(ctx context.Context, path string) (*store.Fixtures, error) {
	fx, err := store.LoadFixtures(path)
	if err != nil {
		return nil, err
	}
	if err := store.Seed(ctx, c.store, fx); err != nil {
		return nil, err
	}
	return fx, nil
}

// Now returns the current time in the business timezone.
func (c *Container) Now() time.Time { return c.now() }

func (c *Container) GetLogger() logging.Logger          { return c.logger }
func (c *Container) GetConfig() *config.Config          { return c.config }
func (c *Container) GetStore() store.Repository         { return c.store }
func (c *Container) GetExtractor() *extractor.Extractor { return c.extractor }
func (c *Container) GetMatcher() *matcher.Matcher       { return c.matcher }
func (c *Container) GetBatcher() *claims.Batcher        { return c.batcher }
func (c *Container) GetEncoder() *aba.Encoder           { return c.encoder }

// Close persists the memory store to its fixtures file and releases the store.
func (c *Container) Close() error {
	if c.memory != nil && c.config.Store.Fixtures != "" {
		if err := store.SaveFixtures(c.config.Store.Fixtures, c.memory.Snapshot()); err != nil {
			return fmt.Errorf("failed to persist memory store: %w", err)
		}
	}
	return c.store.Close()
}
