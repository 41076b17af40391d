// Package refdata memoizes the backend's reference data (manufacturers, types,
// sites, units, statuses, acceptance criteria) for the filter dropdowns and forms.
package refdata

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/shared"
)

// DefaultTTL is how long a snapshot is served before it is fetched again.
const DefaultTTL = 5 * time.Minute

// Result labels a Get outcome for metrics.
type Result string

const (
	ResultHit      Result = "hit"
	ResultRefresh  Result = "refresh"
	ResultFallback Result = "fallback"
	ResultEmpty    Result = "empty"
)

// Fetcher loads the full reference data set.
type Fetcher interface {
	All(ctx context.Context) (backend.Configuration, error)
}

// StatsRecorder receives one Result per Get call.
type StatsRecorder interface {
	RecordRefdata(result string)
}

// Snapshot is an immutable view of every category. It is replaced wholesale on refresh.
type Snapshot struct {
	FetchedAt  time.Time
	categories backend.Configuration
}

// Options returns the records of one category, keyed as in backend.Categories.
func (s *Snapshot) Options(key string) []backend.ConfigItem {
	if s == nil {
		return nil
	}
	return s.categories[key]
}

// Name resolves an id to its display name within a category.
func (s *Snapshot) Name(key string, id int) string {
	for _, item := range s.Options(key) {
		if item.ID == id {
			return item.Nome
		}
	}
	return ""
}

// Empty reports whether the snapshot was synthesized after a failed first fetch.
func (s *Snapshot) Empty() bool {
	return s == nil || s.FetchedAt.IsZero()
}

// EmptySnapshot has every category present with no records.
func EmptySnapshot() *Snapshot {
	cats := make(backend.Configuration, len(backend.Categories))
	for _, cat := range backend.Categories {
		cats[cat.Key] = []backend.ConfigItem{}
	}
	return &Snapshot{categories: cats}
}

func newSnapshot(cfg backend.Configuration, at time.Time) *Snapshot {
	cats := make(backend.Configuration, len(backend.Categories))
	for _, cat := range backend.Categories {
		items := cfg[cat.Key]
		if items == nil {
			items = []backend.ConfigItem{}
		}
		cats[cat.Key] = items
	}
	return &Snapshot{FetchedAt: at, categories: cats}
}

// Cache is shared by every section. Get never fails.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	clock   shared.Clock
	logger  *slog.Logger
	stats   StatsRecorder

	group singleflight.Group

	mu      sync.RWMutex
	current *Snapshot
	// generation advances on Invalidate so a fetch started before it cannot repopulate the cache.
	generation uint64
}

// Option customises a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source.
func WithClock(clock shared.Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithStats registers a recorder for hit and refresh counts.
func WithStats(stats StatsRecorder) Option {
	return func(c *Cache) { c.stats = stats }
}

// NewCache constructs a Cache over fetcher.
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		ttl:     DefaultTTL,
		clock:   shared.RealClock{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the memoized snapshot while it is younger than the TTL, or
// fetches a new one. On fetch failure the previous snapshot is returned, or an
// empty one when nothing was ever fetched.
func (c *Cache) Get(ctx context.Context, force bool) *Snapshot {
	c.mu.RLock()
	current, generation := c.current, c.generation
	c.mu.RUnlock()

	if !force && current != nil && c.clock.Now().Sub(current.FetchedAt) < c.ttl {
		c.record(ResultHit)
		return current
	}

	ch := c.group.DoChan("all", func() (any, error) {
		// The fetch outlives a single caller; a cancelled request must not fail the others.
		cfg, err := c.fetcher.All(backend.Detach(ctx))
		if err != nil {
			return nil, err
		}
		return newSnapshot(cfg, c.clock.Now()), nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}

	if res.Err != nil {
		c.logger.Error("refdata fetch failed", slog.Any("error", res.Err))
		if ctx.Err() == nil {
			backend.Notify(ctx, backend.SessionNotifier{}, backend.Notification{Kind: backend.KindError, Message: backend.UserMessage(res.Err)})
		}
		c.mu.RLock()
		previous := c.current
		c.mu.RUnlock()
		if previous != nil {
			c.record(ResultFallback)
			return previous
		}
		c.record(ResultEmpty)
		return EmptySnapshot()
	}

	fresh := res.Val.(*Snapshot)
	c.mu.Lock()
	if c.generation == generation && (c.current == nil || !fresh.FetchedAt.Before(c.current.FetchedAt)) {
		c.current = fresh
	}
	c.mu.Unlock()
	c.record(ResultRefresh)
	return fresh
}

// Invalidate drops the snapshot; the next Get fetches regardless of age.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.generation++
	c.mu.Unlock()
	c.group.Forget("all")
}

// Peek returns the memoized snapshot without fetching, or nil.
func (c *Cache) Peek() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Cache) record(result Result) {
	if c.stats != nil {
		c.stats.RecordRefdata(string(result))
	}
}
