package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/joho/godotenv"
)

const (
	defaultAppName       = "BallotChainRelay"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultConfirmWait   = 90 * time.Second
	defaultIdemTTL       = 24 * time.Hour
	defaultRegistryTTL   = 12 * time.Hour
	defaultRegistryPath  = "accounts.json"

	// Gas defaults mirror what the relayed account and EntryPoint were tuned
	// against on the local devnet.
	defaultCallGasLimit         = 200_000
	defaultVerificationGasLimit = 200_000
	defaultPreVerificationGas   = 50_000
	defaultHandleOpsGasLimit    = 3_000_000
)

// Config captures runtime configuration loaded from environment variables.
// Every contract address is configured exactly once here and injected from
// here; nothing else in the codebase hardcodes addresses.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	RPCURL          string
	RelayPrivateKey string

	EntryPoint     common.Address
	AccountFactory common.Address
	Paymaster      common.Address
	Token          common.Address
	Election       common.Address

	RegistryPath string
	DatabaseURL  string
	RedisURL     string

	ShutdownPeriod      time.Duration
	ConfirmationTimeout time.Duration
	IdempotencyTTL      time.Duration

	// RegistryCacheTTL bounds the read-through cache over account records.
	// Records are append-once, so the TTL only limits staleness after an
	// out-of-band registry edit.
	RegistryCacheTTL time.Duration

	FundingThresholdWei *big.Int
	FundingTopUpWei     *big.Int

	CallGasLimit         uint64
	VerificationGasLimit uint64
	PreVerificationGas   uint64
	HandleOpsGasLimit    uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int

	// InsecureNoSignature keeps the empty userop signature the on-chain demo
	// account accepts. It must stay false anywhere validation is real.
	InsecureNoSignature bool

	RelayRateLimitPerMin int
}

// Load reads configuration from the environment, after loading a local .env
// file when one is present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:              getEnv("APP_NAME", defaultAppName),
		AppEnv:               getEnv("APP_ENV", defaultAppEnv),
		Port:                 getEnv("PORT", defaultPort),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		RPCURL:               os.Getenv("RPC_URL"),
		RelayPrivateKey:      os.Getenv("RELAY_PRIVATE_KEY"),
		RegistryPath:         getEnv("REGISTRY_PATH", defaultRegistryPath),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		ShutdownPeriod:       defaultShutdownDelay,
		ConfirmationTimeout:  defaultConfirmWait,
		IdempotencyTTL:       defaultIdemTTL,
		RegistryCacheTTL:     defaultRegistryTTL,
		FundingThresholdWei:  new(big.Int).SetUint64(params.Ether),
		FundingTopUpWei:      new(big.Int).Mul(big.NewInt(100), new(big.Int).SetUint64(params.Ether)),
		CallGasLimit:         defaultCallGasLimit,
		VerificationGasLimit: defaultVerificationGasLimit,
		PreVerificationGas:   defaultPreVerificationGas,
		HandleOpsGasLimit:    defaultHandleOpsGasLimit,
		MaxFeePerGas:         gwei(10),
		MaxPriorityFeePerGas: gwei(5),
		InsecureNoSignature:  getEnv("RELAY_INSECURE_NO_SIGNATURE", "true") == "true",
		RelayRateLimitPerMin: 10,
	}

	if cfg.RPCURL == "" {
		return Config{}, fmt.Errorf("RPC_URL must be set")
	}
	if cfg.RelayPrivateKey == "" {
		return Config{}, fmt.Errorf("RELAY_PRIVATE_KEY must be set")
	}

	var err error
	if cfg.EntryPoint, err = requireAddress("ENTRYPOINT_ADDRESS"); err != nil {
		return Config{}, err
	}
	if cfg.AccountFactory, err = requireAddress("FACTORY_ADDRESS"); err != nil {
		return Config{}, err
	}
	if cfg.Paymaster, err = requireAddress("PAYMASTER_ADDRESS"); err != nil {
		return Config{}, err
	}
	if cfg.Token, err = requireAddress("TOKEN_ADDRESS"); err != nil {
		return Config{}, err
	}
	if cfg.Election, err = requireAddress("ELECTION_ADDRESS"); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("CONFIRMATION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CONFIRMATION_TIMEOUT: %w", err)
		}
		cfg.ConfirmationTimeout = d
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownPeriod = d
	}
	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
		}
		cfg.IdempotencyTTL = d
	}
	if v := os.Getenv("REGISTRY_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REGISTRY_CACHE_TTL: %w", err)
		}
		cfg.RegistryCacheTTL = d
	}

	if v := os.Getenv("FUNDING_THRESHOLD_WEI"); v != "" {
		wei, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return Config{}, fmt.Errorf("invalid FUNDING_THRESHOLD_WEI: %q", v)
		}
		cfg.FundingThresholdWei = wei
	}
	if v := os.Getenv("FUNDING_TOPUP_WEI"); v != "" {
		wei, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return Config{}, fmt.Errorf("invalid FUNDING_TOPUP_WEI: %q", v)
		}
		cfg.FundingTopUpWei = wei
	}

	if v := os.Getenv("MAX_FEE_GWEI"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MAX_FEE_GWEI: %w", err)
		}
		cfg.MaxFeePerGas = gwei(n)
	}
	if v := os.Getenv("MAX_PRIORITY_FEE_GWEI"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MAX_PRIORITY_FEE_GWEI: %w", err)
		}
		cfg.MaxPriorityFeePerGas = gwei(n)
	}

	if v := os.Getenv("RELAY_RATE_LIMIT_PER_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RELAY_RATE_LIMIT_PER_MIN: %w", err)
		}
		cfg.RelayRateLimitPerMin = n
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func requireAddress(key string) (common.Address, error) {
	v := os.Getenv(key)
	if v == "" {
		return common.Address{}, fmt.Errorf("%s must be set", key)
	}
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("%s is not a hex address: %q", key, v)
	}
	return common.HexToAddress(v), nil
}

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.GWei))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
