package cache

import (
	"strings"
	"time"

	ledgerdomain "github.com/vectcut/credits/internal/ledger/domain"
	statisticsdomain "github.com/vectcut/credits/internal/statistics/domain"
)

// Balances change on every spend, statistics only matter at dashboard
// granularity.
const (
	defaultBalanceTTL    = 15 * time.Second
	defaultStatisticsTTL = 5 * time.Minute
)

// LedgerCache memoizes per-owner ledger reads. Invalidation is coarse: a
// write drops every entry for that owner, so the writer's next read is fresh.
// Other readers may observe a stale value within the TTL.
type LedgerCache interface {
	GetBalance(ownerID string) (*ledgerdomain.Balance, bool)
	SetBalance(ownerID string, balance *ledgerdomain.Balance)
	GetStatistics(ownerID string) (*statisticsdomain.Statistics, bool)
	SetStatistics(ownerID string, stats *statisticsdomain.Statistics)
	// The stale getters return the last known value even after expiry, for
	// degraded reads when storage is unreachable.
	GetStaleBalance(ownerID string) (*ledgerdomain.Balance, bool)
	GetStaleStatistics(ownerID string) (*statisticsdomain.Statistics, bool)
	InvalidateOwner(ownerID string)
}

type ledgerCache struct {
	balances        Cache[string, *ledgerdomain.Balance]
	stale           Cache[string, *ledgerdomain.Balance]
	statistics      Cache[string, *statisticsdomain.Statistics]
	staleStatistics Cache[string, *statisticsdomain.Statistics]

	balanceTTL    time.Duration
	statisticsTTL time.Duration
}

// NewLedgerCache returns the in-memory read-through cache for ledger reads.
func NewLedgerCache() LedgerCache {
	return &ledgerCache{
		balances:        NewTTLCache[string, *ledgerdomain.Balance](),
		stale:           NewTTLCache[string, *ledgerdomain.Balance](),
		statistics:      NewTTLCache[string, *statisticsdomain.Statistics](),
		staleStatistics: NewTTLCache[string, *statisticsdomain.Statistics](),
		balanceTTL:      defaultBalanceTTL,
		statisticsTTL:   defaultStatisticsTTL,
	}
}

func (c *ledgerCache) GetBalance(ownerID string) (*ledgerdomain.Balance, bool) {
	return c.balances.Get(cacheKey("balance", ownerID))
}

func (c *ledgerCache) SetBalance(ownerID string, balance *ledgerdomain.Balance) {
	if balance == nil {
		return
	}
	c.balances.Set(cacheKey("balance", ownerID), balance, c.balanceTTL)
	// The stale copy outlives the fresh TTL so degraded reads have something
	// better than zeros to serve.
	c.stale.Set(cacheKey("stale", ownerID), balance, 24*time.Hour)
}

func (c *ledgerCache) GetStaleBalance(ownerID string) (*ledgerdomain.Balance, bool) {
	return c.stale.Get(cacheKey("stale", ownerID))
}

func (c *ledgerCache) GetStatistics(ownerID string) (*statisticsdomain.Statistics, bool) {
	return c.statistics.Get(cacheKey("statistics", ownerID))
}

func (c *ledgerCache) SetStatistics(ownerID string, stats *statisticsdomain.Statistics) {
	if stats == nil {
		return
	}
	c.statistics.Set(cacheKey("statistics", ownerID), stats, c.statisticsTTL)
	c.staleStatistics.Set(cacheKey("stale", ownerID), stats, 24*time.Hour)
}

func (c *ledgerCache) GetStaleStatistics(ownerID string) (*statisticsdomain.Statistics, bool) {
	return c.staleStatistics.Get(cacheKey("stale", ownerID))
}

func (c *ledgerCache) InvalidateOwner(ownerID string) {
	suffix := "|" + strings.ToLower(strings.TrimSpace(ownerID))
	match := func(key string) bool { return strings.HasSuffix(key, suffix) }
	c.balances.DeleteFunc(match)
	c.statistics.DeleteFunc(match)
	// The stale copy survives invalidation on purpose: it only serves
	// offline fallbacks.
}

func cacheKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
