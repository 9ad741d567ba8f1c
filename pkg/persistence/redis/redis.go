package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/persistence"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/types"
)

const (
	keyPrefixDistribution = "distributor:distribution:"
	keySchemaVersion      = "distributor:metadata:schema_version"
	currentSchemaVersion  = "v1"

	// Redis has no prefix iteration, so roots are tracked in a set.
	keySetDistributions = "distributor:distributions:index"

	operationTimeout = 5 * time.Second
)

// RedisPersistence stores distributions in Redis so several proof servers can
// share them.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key, e.g. "tenant-a:" gives
	// "tenant-a:distributor:distribution:0x...".
	KeyPrefix string
}

// NewRedisPersistence connects to Redis and validates the schema version.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized",
		"address", cfg.Address,
		"db", cfg.DB,
		"key_prefix", cfg.KeyPrefix,
	)

	return rp, nil
}

func (r *RedisPersistence) prefixKey(key string) string {
	return r.keyPrefix + key
}

func (r *RedisPersistence) distributionKey(root string) string {
	return r.prefixKey(keyPrefixDistribution + root)
}

func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existing, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if existing != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existing, currentSchemaVersion)
	}
	return nil
}

// SaveDistribution writes the distribution and adds its root to the index set
// in one pipeline.
func (r *RedisPersistence) SaveDistribution(d *types.Distribution) error {
	if d == nil {
		return fmt.Errorf("cannot save nil Distribution")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrPersistenceClosed
	}

	data, err := persistence.MarshalDistribution(d)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	root := d.Root.Hex()
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.distributionKey(root), data, 0)
	pipe.SAdd(ctx, r.prefixKey(keySetDistributions), root)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save Distribution: %w", err)
	}
	return nil
}

// LoadDistribution retrieves a distribution by root.
func (r *RedisPersistence) LoadDistribution(root common.Hash) (*types.Distribution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrPersistenceClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.distributionKey(root.Hex())).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load Distribution: %w", err)
	}

	return persistence.UnmarshalDistribution(data)
}

// ListDistributions resolves the index set with a single MGET.
func (r *RedisPersistence) ListDistributions() ([]*types.DistributionSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrPersistenceClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	roots, err := r.client.SMembers(ctx, r.prefixKey(keySetDistributions)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list Distribution roots: %w", err)
	}

	summaries := make([]*types.DistributionSummary, 0, len(roots))
	if len(roots) == 0 {
		return summaries, nil
	}

	keys := make([]string, len(roots))
	for i, root := range roots {
		keys[i] = r.distributionKey(root)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Distributions: %w", err)
	}

	for i, val := range values {
		if val == nil {
			// Index entry without data
			continue
		}
		str, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type in Redis, skipping", "root", roots[i])
			continue
		}
		d, err := persistence.UnmarshalDistribution([]byte(str))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal Distribution, skipping",
				"root", roots[i], "error", err)
			continue
		}
		summaries = append(summaries, d.Summary())
	}

	persistence.SortSummaries(summaries)
	return summaries, nil
}

// DeleteDistribution removes a distribution and its index entry.
func (r *RedisPersistence) DeleteDistribution(root common.Hash) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrPersistenceClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.distributionKey(root.Hex()))
	pipe.SRem(ctx, r.prefixKey(keySetDistributions), root.Hex())

	_, err := pipe.Exec(ctx)
	return err
}

// Close closes the Redis client.
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck pings Redis.
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrPersistenceClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
