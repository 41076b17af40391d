package shell

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/shared"
)

// BadgeWindowDays is the look-ahead used for the notification badge.
const BadgeWindowDays = 30

// BadgeTTL is how long a badge count is reused across page renders.
const BadgeTTL = time.Minute

// CriticalSource returns overdue and soon-due points.
type CriticalSource interface {
	CriticalPoints(ctx context.Context, dias int) (*backend.CriticalPoints, error)
}

// Badge keeps the number of critical points shown next to the bell. Failures
// are logged and never reach the operator; the last known count stays.
type Badge struct {
	source CriticalSource
	ttl    time.Duration
	clock  shared.Clock
	logger *slog.Logger
	group  singleflight.Group

	mu        sync.Mutex
	count     int
	fetchedAt time.Time
}

// NewBadge constructs a Badge. The count is -1 until the first success.
func NewBadge(source CriticalSource, ttl time.Duration, clock shared.Clock, logger *slog.Logger) *Badge {
	if ttl <= 0 {
		ttl = BadgeTTL
	}
	if clock == nil {
		clock = shared.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Badge{source: source, ttl: ttl, clock: clock, logger: logger, count: -1}
}

// Count returns the cached count, refreshing it when stale.
func (b *Badge) Count(ctx context.Context) int {
	b.mu.Lock()
	fresh := !b.fetchedAt.IsZero() && b.clock.Now().Sub(b.fetchedAt) < b.ttl
	count := b.count
	b.mu.Unlock()
	if fresh {
		return count
	}
	return b.Refresh(ctx)
}

// Refresh reloads the count now.
func (b *Badge) Refresh(ctx context.Context) int {
	v, _, _ := b.group.Do("badge", func() (any, error) {
		cp, err := b.source.CriticalPoints(backend.Detach(ctx), BadgeWindowDays)
		b.mu.Lock()
		defer b.mu.Unlock()
		if err != nil {
			b.logger.Warn("notification badge", slog.Any("error", err))
			b.fetchedAt = b.clock.Now()
			return b.count, nil
		}
		b.count = cp.Resumo.TotalCriticos
		if b.count == 0 {
			b.count = len(cp.Vencidos) + len(cp.Proximos)
		}
		b.fetchedAt = b.clock.Now()
		return b.count, nil
	})
	return v.(int)
}
