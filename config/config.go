package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Base mainnet USDC.
const (
	defaultChainID      = 8453
	defaultTokenAddress = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
)

type Config struct {
	ServiceID string

	HTTPPort      int
	PublicBaseURL string

	DatabaseURL string
	MaxDBConns  int32

	RedisURL      string
	RegistryCache time.Duration

	KafkaBrokers         []string
	KafkaTopicTipSettled string

	ChainID       int64
	RPCURL        string
	TokenAddress  string
	TokenDecimals int32
	TokenSymbol   string
	TokenName     string
	TokenVersion  string

	MinConfirmations  uint64
	VerifyTimeout     time.Duration
	VerifyAttempts    int
	VerifyBackoff     time.Duration
	MaxTimeoutSeconds int64

	StaticAPIKey  string
	APIKeysFromDB bool
}

type configFile struct {
	Service struct {
		ID            string `yaml:"id"`
		HTTPPort      int    `yaml:"http_port"`
		PublicBaseURL string `yaml:"public_base_url"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL          string   `yaml:"postgres_url"`
		MaxDBConns           int32    `yaml:"max_db_conns"`
		RedisURL             string   `yaml:"redis_url"`
		RegistryCacheSeconds int      `yaml:"registry_cache_seconds"`
		KafkaBrokers         []string `yaml:"kafka_brokers"`
		KafkaTopicTipSettled string   `yaml:"kafka_topic_tip_settled"`
	} `yaml:"dependencies"`
	Chain struct {
		ID                   int64  `yaml:"id"`
		RPCURL               string `yaml:"rpc_url"`
		MinConfirmations     uint64 `yaml:"min_confirmations"`
		VerifyTimeoutSeconds int    `yaml:"verify_timeout_seconds"`
		VerifyAttempts       int    `yaml:"verify_attempts"`
		VerifyBackoffMS      int    `yaml:"verify_backoff_ms"`
		MaxTimeoutSeconds    int64  `yaml:"max_timeout_seconds"`
	} `yaml:"chain"`
	Token struct {
		Address  string `yaml:"address"`
		Decimals int32  `yaml:"decimals"`
		Symbol   string `yaml:"symbol"`
		Name     string `yaml:"name"`
		Version  string `yaml:"version"`
	} `yaml:"token"`
	Auth struct {
		StaticAPIKey  string `yaml:"static_api_key"`
		APIKeysFromDB bool   `yaml:"api_keys_from_db"`
	} `yaml:"auth"`
}

// Load reads the defaults, then the optional YAML file at path, then environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "x402-tip-links",
		HTTPPort:             3000,
		MaxDBConns:           10,
		RegistryCache:        10 * time.Minute,
		KafkaTopicTipSettled: "tip.settled",
		ChainID:              defaultChainID,
		TokenAddress:         defaultTokenAddress,
		TokenDecimals:        6,
		TokenSymbol:          "USDC",
		TokenName:            "USD Coin",
		TokenVersion:         "2",
		MinConfirmations:     1,
		VerifyTimeout:        30 * time.Second,
		VerifyAttempts:       3,
		VerifyBackoff:        500 * time.Millisecond,
		MaxTimeoutSeconds:    300,
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.applyFile(raw); err != nil {
				return Config{}, err
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.PublicBaseURL = envOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.RegistryCache = time.Duration(envInt("REGISTRY_CACHE_SECONDS", int(cfg.RegistryCache.Seconds()))) * time.Second
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopicTipSettled = envOrDefault("KAFKA_TOPIC_TIP_SETTLED", cfg.KafkaTopicTipSettled)
	cfg.ChainID = int64(envInt("CHAIN_ID", int(cfg.ChainID)))
	cfg.RPCURL = envOrDefault("RPC_URL", cfg.RPCURL)
	cfg.TokenAddress = envOrDefault("TOKEN_ADDRESS", cfg.TokenAddress)
	cfg.TokenDecimals = int32(envInt("TOKEN_DECIMALS", int(cfg.TokenDecimals)))
	cfg.TokenSymbol = envOrDefault("TOKEN_SYMBOL", cfg.TokenSymbol)
	cfg.TokenName = envOrDefault("TOKEN_NAME", cfg.TokenName)
	cfg.TokenVersion = envOrDefault("TOKEN_VERSION", cfg.TokenVersion)
	cfg.MinConfirmations = uint64(envInt("MIN_CONFIRMATIONS", int(cfg.MinConfirmations)))
	cfg.VerifyTimeout = time.Duration(envInt("VERIFY_TIMEOUT_SECONDS", int(cfg.VerifyTimeout.Seconds()))) * time.Second
	cfg.VerifyAttempts = envInt("VERIFY_ATTEMPTS", cfg.VerifyAttempts)
	cfg.VerifyBackoff = time.Duration(envInt("VERIFY_BACKOFF_MS", int(cfg.VerifyBackoff.Milliseconds()))) * time.Millisecond
	cfg.MaxTimeoutSeconds = int64(envInt("MAX_TIMEOUT_SECONDS", int(cfg.MaxTimeoutSeconds)))
	cfg.StaticAPIKey = envOrDefault("STATIC_API_KEY", cfg.StaticAPIKey)
	cfg.APIKeysFromDB = envBool("API_KEYS_FROM_DB", cfg.APIKeysFromDB)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyFile(raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.PublicBaseURL != "" {
		cfg.PublicBaseURL = f.Service.PublicBaseURL
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.MaxDBConns > 0 {
		cfg.MaxDBConns = f.Dependencies.MaxDBConns
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if f.Dependencies.RegistryCacheSeconds > 0 {
		cfg.RegistryCache = time.Duration(f.Dependencies.RegistryCacheSeconds) * time.Second
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
	}
	if f.Dependencies.KafkaTopicTipSettled != "" {
		cfg.KafkaTopicTipSettled = f.Dependencies.KafkaTopicTipSettled
	}
	if f.Chain.ID > 0 {
		cfg.ChainID = f.Chain.ID
	}
	if f.Chain.RPCURL != "" {
		cfg.RPCURL = f.Chain.RPCURL
	}
	if f.Chain.MinConfirmations > 0 {
		cfg.MinConfirmations = f.Chain.MinConfirmations
	}
	if f.Chain.VerifyTimeoutSeconds > 0 {
		cfg.VerifyTimeout = time.Duration(f.Chain.VerifyTimeoutSeconds) * time.Second
	}
	if f.Chain.VerifyAttempts > 0 {
		cfg.VerifyAttempts = f.Chain.VerifyAttempts
	}
	if f.Chain.VerifyBackoffMS > 0 {
		cfg.VerifyBackoff = time.Duration(f.Chain.VerifyBackoffMS) * time.Millisecond
	}
	if f.Chain.MaxTimeoutSeconds > 0 {
		cfg.MaxTimeoutSeconds = f.Chain.MaxTimeoutSeconds
	}
	if f.Token.Address != "" {
		cfg.TokenAddress = f.Token.Address
	}
	if f.Token.Decimals > 0 {
		cfg.TokenDecimals = f.Token.Decimals
	}
	if f.Token.Symbol != "" {
		cfg.TokenSymbol = f.Token.Symbol
	}
	if f.Token.Name != "" {
		cfg.TokenName = f.Token.Name
	}
	if f.Token.Version != "" {
		cfg.TokenVersion = f.Token.Version
	}
	cfg.StaticAPIKey = f.Auth.StaticAPIKey
	cfg.APIKeysFromDB = f.Auth.APIKeysFromDB
	return nil
}

func (cfg Config) validate() error {
	if cfg.RPCURL == "" {
		return fmt.Errorf("missing RPC_URL")
	}
	if !common.IsHexAddress(cfg.TokenAddress) {
		return fmt.Errorf("invalid TOKEN_ADDRESS %q", cfg.TokenAddress)
	}
	if cfg.ChainID <= 0 {
		return fmt.Errorf("invalid CHAIN_ID %d", cfg.ChainID)
	}
	if cfg.TokenDecimals < 0 || cfg.TokenDecimals > 36 {
		return fmt.Errorf("invalid TOKEN_DECIMALS %d", cfg.TokenDecimals)
	}
	if cfg.APIKeysFromDB && cfg.DatabaseURL == "" {
		return fmt.Errorf("API_KEYS_FROM_DB requires DATABASE_URL")
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
