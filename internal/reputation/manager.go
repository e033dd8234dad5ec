package reputation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/pkg/utils"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// CacheTTL is how long a lookup result, positive or negative, stays in
	// redis before the next lookup goes back to Postgres.
	CacheTTL = time.Hour
	// redisTimeout caps every cache round trip so a slow redis never stalls
	// the detection pipeline.
	redisTimeout = 2 * time.Second
)

// Hit is the outcome of a reputation lookup. Negative lookups are hits too
// and are cached the same way.
type Hit struct {
	IsBlacklisted bool    `json:"is_blacklisted"`
	ReportsCount  int     `json:"reports_count"`
	IsVerified    bool    `json:"is_verified"`
	ScamType      *string `json:"scam_type,omitempty"`
	RiskBoost     float64 `json:"risk_boost"`
	RiskScore     float64 `json:"risk_score"`
}

// Store is the persistent blacklist behind the cache.
type Store interface {
	GetByHash(ctx context.Context, hash []byte) (*types.BlacklistEntry, error)
	Upsert(ctx context.Context, entry *types.BlacklistEntry) (int, error)
}

// Manager answers blacklist lookups through a redis read-through cache with
// an in-process TTL map fallback. Callers never branch on redis health.
type Manager struct {
	store    Store
	client   rueidis.Client
	fallback *utils.TTLMap[string, *Hit]
	logger   *zap.Logger
}

// NewManager creates a reputation manager.
func NewManager(store Store, client rueidis.Client, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		client:   client,
		fallback: utils.NewTTLMap[string, *Hit](CacheTTL),
		logger:   logger.Named("reputation"),
	}
}

// Check looks up one artifact. The value is normalized and hashed, the cache
// consulted, and on a miss the store result (including negatives) is written
// back with a TTL.
func (m *Manager) Check(ctx context.Context, value string, artifactType enum.BlacklistType) (*Hit, error) {
	normalized := Normalize(value, artifactType)
	hash := HashValue(normalized)
	key := CacheKey(hash)

	hit, redisHealthy := m.fromCache(ctx, key)
	if hit != nil {
		return hit, nil
	}

	entry, err := m.store.GetByHash(ctx, hash)
	if err != nil && !errors.Is(err, types.ErrBlacklistEntryNotFound) {
		return nil, fmt.Errorf("blacklist lookup failed: %w", err)
	}

	hit = buildHit(entry)
	m.writeBack(ctx, key, hit, CacheTTL, redisHealthy)

	return hit, nil
}

// fromCache consults redis first and the in-process fallback map when redis
// is unreachable. The second return reports whether redis answered at all.
func (m *Manager) fromCache(ctx context.Context, key string) (*Hit, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := m.client.Do(ctx, m.client.B().Get().Key(key).Build()).AsBytes()
	if err == nil {
		var hit Hit
		if err := sonic.Unmarshal(data, &hit); err == nil {
			return &hit, true
		}

		m.logger.Warn("Discarding malformed cache entry", zap.String("key", key))

		return nil, true
	}

	if rueidis.IsRedisNil(err) {
		return nil, true
	}

	m.logger.Warn("Redis unavailable, using fallback cache", zap.Error(err))

	if hit, ok := m.fallback.Get(key); ok {
		return hit, false
	}

	return nil, false
}

// writeBack stores a lookup result in whichever cache layer is reachable.
func (m *Manager) writeBack(ctx context.Context, key string, hit *Hit, ttl time.Duration, redisHealthy bool) {
	if !redisHealthy {
		m.fallback.Set(key, hit)
		return
	}

	data, err := sonic.Marshal(hit)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	err = m.client.Do(ctx, m.client.B().Set().Key(key).Value(string(data)).Ex(ttl).Build()).Error()
	if err != nil {
		m.logger.Warn("Failed to cache reputation result", zap.Error(err))
		m.fallback.Set(key, hit)
	}
}

// Warm writes cache entries for the given blacklist rows. Used by the
// maintenance worker to keep the most-reported entries hot so lookups for
// them never pay a database round trip. The TTL scales with report recency:
// actively reported entries expire sooner so their counts stay fresh, quiet
// entries stay pinned until the next run.
func (m *Manager) Warm(ctx context.Context, entries []*types.BlacklistEntry) int {
	warmed := 0

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		ttl := utils.CalculateRewarmInterval(entry.LastReportedAt)
		m.writeBack(ctx, CacheKey(entry.ValueHash), buildHit(entry), ttl, true)
		warmed++
	}

	return warmed
}

// invalidate removes a key from both cache layers. Runs synchronously before
// any write returns so readers never see a stale entry after a report.
func (m *Manager) invalidate(ctx context.Context, key string) {
	m.fallback.Delete(key)

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := m.client.Do(ctx, m.client.B().Del().Key(key).Build()).Error(); err != nil {
		m.logger.Warn("Failed to invalidate cache entry", zap.Error(err))
	}
}

// buildHit projects a store entry (or its absence) into a lookup result.
func buildHit(entry *types.BlacklistEntry) *Hit {
	if entry == nil {
		return &Hit{}
	}

	hit := &Hit{
		IsBlacklisted: true,
		ReportsCount:  entry.ReportsCount,
		IsVerified:    entry.Verified,
		ScamType:      entry.ScamType,
	}

	if entry.Verified {
		hit.RiskBoost = 0.3
		hit.RiskScore = 1.0
	} else {
		hit.RiskBoost = 0.2
		hit.RiskScore = min(0.5+0.1*float64(entry.ReportsCount), 0.95)
	}

	return hit
}
