package config

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for distributor configuration
const (
	EnvDistributorPort            = "DISTRIBUTOR_PORT"
	EnvDistributorDebug           = "DISTRIBUTOR_DEBUG"
	EnvDistributorRateLimit       = "DISTRIBUTOR_RATE_LIMIT"
	EnvDistributorRateBurst       = "DISTRIBUTOR_RATE_BURST"
	EnvDistributorPersistenceType = "DISTRIBUTOR_PERSISTENCE_TYPE"
	EnvDistributorDataPath        = "DISTRIBUTOR_DATA_PATH"
	EnvDistributorRedisAddress    = "DISTRIBUTOR_REDIS_ADDRESS"
	EnvDistributorRedisPassword   = "DISTRIBUTOR_REDIS_PASSWORD"
	EnvDistributorRedisDB         = "DISTRIBUTOR_REDIS_DB"
	EnvDistributorRedisKeyPrefix  = "DISTRIBUTOR_REDIS_KEY_PREFIX"
	EnvDistributorSignerType      = "DISTRIBUTOR_SIGNER_TYPE"
	EnvDistributorPrivateKey      = "DISTRIBUTOR_PRIVATE_KEY"
	EnvDistributorKMSKeyID        = "DISTRIBUTOR_KMS_KEY_ID"
	EnvDistributorAWSRegion       = "DISTRIBUTOR_AWS_REGION"
)

const (
	DefaultPort      = 8080
	DefaultRateLimit = 50.0
	DefaultRateBurst = 100
	DefaultDataPath  = "./distributor-data"
)

type PersistenceType string

func (p PersistenceType) String() string {
	return string(p)
}

const (
	PersistenceTypeMemory PersistenceType = "memory"
	PersistenceTypeBadger PersistenceType = "badger"
	PersistenceTypeRedis  PersistenceType = "redis"
)

type SignerType string

func (s SignerType) String() string {
	return string(s)
}

const (
	SignerTypeLocal  SignerType = "local"
	SignerTypeAWSKMS SignerType = "aws-kms"
)

// PersistenceConfig selects and configures the distribution store.
type PersistenceConfig struct {
	Type PersistenceType `json:"type"`

	// Badger
	DataPath string `json:"data_path,omitempty"`

	// Redis
	RedisAddress   string `json:"redis_address,omitempty"`
	RedisPassword  string `json:"-"`
	RedisDB        int    `json:"redis_db,omitempty"`
	RedisKeyPrefix string `json:"redis_key_prefix,omitempty"`
}

// Validate checks the fields required by the selected backend.
func (pc *PersistenceConfig) Validate() error {
	return pc.validate(field.NewPath("persistence")).ToAggregate()
}

func (pc *PersistenceConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	switch pc.Type {
	case PersistenceTypeMemory:
	case PersistenceTypeBadger:
		if pc.DataPath == "" {
			allErrors = append(allErrors, field.Required(path.Child("data_path"), "data path is required for badger persistence"))
		}
	case PersistenceTypeRedis:
		if pc.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(path.Child("redis_address"), "redis address is required for redis persistence"))
		}
		if pc.RedisDB < 0 || pc.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redis_db"), pc.RedisDB, "must be between 0 and 15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), pc.Type,
			[]string{PersistenceTypeMemory.String(), PersistenceTypeBadger.String(), PersistenceTypeRedis.String()}))
	}
	return allErrors
}

// SignerConfig selects the key used to sign claims.
type SignerConfig struct {
	Type       SignerType `json:"type"`
	PrivateKey string     `json:"-"`
	KMSKeyID   string     `json:"kms_key_id,omitempty"`
	AWSRegion  string     `json:"aws_region,omitempty"`
}

// Validate checks the fields required by the selected signer.
func (sc *SignerConfig) Validate() error {
	return sc.validate(field.NewPath("signer")).ToAggregate()
}

func (sc *SignerConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	switch sc.Type {
	case SignerTypeLocal:
		if sc.PrivateKey == "" {
			allErrors = append(allErrors, field.Required(path.Child("private_key"), "private key is required for local signing"))
			break
		}
		key := strings.TrimPrefix(sc.PrivateKey, "0x")
		if len(key) != 64 {
			allErrors = append(allErrors, field.Invalid(path.Child("private_key"), "<redacted>",
				fmt.Sprintf("must be 32 bytes (64 hex chars), got %d chars", len(key))))
		}
	case SignerTypeAWSKMS:
		if sc.KMSKeyID == "" {
			allErrors = append(allErrors, field.Required(path.Child("kms_key_id"), "KMS key id is required for aws-kms signing"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), sc.Type,
			[]string{SignerTypeLocal.String(), SignerTypeAWSKMS.String()}))
	}
	return allErrors
}

// DistributorConfig is the configuration of the proof server.
type DistributorConfig struct {
	Port int `json:"port"`

	// Requests per second allowed across all clients, and the burst size.
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`

	Persistence PersistenceConfig `json:"persistence"`

	Debug bool `json:"debug"`
}

// NewDefaultDistributorConfig returns a config for an in-memory server on DefaultPort.
func NewDefaultDistributorConfig() *DistributorConfig {
	return &DistributorConfig{
		Port:      DefaultPort,
		RateLimit: DefaultRateLimit,
		RateBurst: DefaultRateBurst,
		Persistence: PersistenceConfig{
			Type:     PersistenceTypeMemory,
			DataPath: DefaultDataPath,
		},
	}
}

// Validate aggregates every invalid field into one error.
func (c *DistributorConfig) Validate() error {
	var allErrors field.ErrorList

	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "must be between 1-65535"))
	}
	if c.RateLimit <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rate_limit"), c.RateLimit, "must be positive"))
	}
	if c.RateBurst < 1 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rate_burst"), c.RateBurst, "must be at least 1"))
	}
	allErrors = append(allErrors, c.Persistence.validate(field.NewPath("persistence"))...)

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
