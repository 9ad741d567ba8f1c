package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	awsUtil "github.com/Layr-Labs/eigenx-merkle-distributor/internal/aws"
	"github.com/Layr-Labs/eigenx-merkle-distributor/internal/signer"
	"github.com/Layr-Labs/eigenx-merkle-distributor/internal/signer/awsKmsSigner"
	"github.com/Layr-Labs/eigenx-merkle-distributor/internal/signer/localSigner"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/config"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/logger"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/persistence"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/persistence/badger"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/persistence/redis"
)

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

func parsePersistenceConfig(c *cli.Context) *config.PersistenceConfig {
	return &config.PersistenceConfig{
		Type:           config.PersistenceType(c.String("persistence-type")),
		DataPath:       c.String("data-path"),
		RedisAddress:   c.String("redis-address"),
		RedisPassword:  c.String("redis-password"),
		RedisDB:        c.Int("redis-db"),
		RedisKeyPrefix: c.String("redis-key-prefix"),
	}
}

// newPersistence opens the store selected by cfg.
func newPersistence(cfg *config.PersistenceConfig, l *zap.Logger) (persistence.IDistributionPersistence, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid persistence configuration: %w", err)
	}

	switch cfg.Type {
	case config.PersistenceTypeBadger:
		return badger.NewBadgerPersistence(cfg.DataPath, l)
	case config.PersistenceTypeRedis:
		return redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, l)
	default:
		return memory.NewMemoryPersistence(l), nil
	}
}

func parseSignerConfig(c *cli.Context) *config.SignerConfig {
	return &config.SignerConfig{
		Type:       config.SignerType(c.String("signer-type")),
		PrivateKey: c.String("private-key"),
		KMSKeyID:   c.String("kms-key-id"),
		AWSRegion:  c.String("aws-region"),
	}
}

// newSigner builds the claim signer selected by cfg. For KMS it logs the
// caller identity so operators can see which principal is signing.
func newSigner(ctx context.Context, cfg *config.SignerConfig, l *zap.Logger) (signer.ISigner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid signer configuration: %w", err)
	}

	switch cfg.Type {
	case config.SignerTypeAWSKMS:
		awsCfg, err := awsUtil.LoadAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		identity, err := awsUtil.GetCallerIdentity(ctx, awsCfg)
		if err != nil {
			return nil, err
		}
		l.Sugar().Infow("Using AWS identity", "arn", deref(identity.Arn), "account", deref(identity.Account))
		return awsKmsSigner.NewAWSKMSSignerFromConfig(ctx, awsCfg, cfg.KMSKeyID, l)
	default:
		return localSigner.NewLocalSigner(cfg.PrivateKey, l)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// writeJSON pretty prints v to path, or to stdout when path is empty.
func writeJSON(path string, v interface{}) error {
	var out io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
