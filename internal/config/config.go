package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EngineConfig holds the engine and price-source settings shared by all commands.
type EngineConfig struct {
	Owner            string
	Treasury         string
	Account          string
	LPFeeBps         uint64
	ProtocolFeeBps   uint64
	MinimumLiquidity uint64
	Pricing          string
	Oracle           OracleConfig
}

// OracleConfig selects and configures the price source.
type OracleConfig struct {
	Backend          string
	RPCURL           string
	Contract         string
	PrivateKey       string
	Prices           []string
	MaxAge           time.Duration
	MaxConfidenceBps uint64
}

// StorageConfig locates the journal and snapshot.
type StorageConfig struct {
	Journal   string
	Snapshot  string
	PGDSN     string
	StateName string
}

// ServeConfig holds configuration for the HTTP API.
type ServeConfig struct {
	Engine           EngineConfig
	Storage          StorageConfig
	Listen           string
	JWTSecret        string
	RateLimit        float64
	RateBurst        int
	SnapshotInterval time.Duration
	LogLevel         string
	LogFile          string
}

// ApplyConfig holds configuration for replaying an operation file.
type ApplyConfig struct {
	Engine            EngineConfig
	Storage           StorageConfig
	Input             string
	Results           string
	BatchSize         uint64
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
	LogFile           string
}

// QuoteConfig holds configuration for a read-only swap preview.
type QuoteConfig struct {
	Engine   EngineConfig
	Storage  StorageConfig
	TokenIn  string
	TokenOut string
	Amount   string
	LogLevel string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := load(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("listen", ":8080")
		v.SetDefault("rate-limit", 20.0)
		v.SetDefault("rate-burst", 40)
		v.SetDefault("snapshot-interval", time.Minute)
	})
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Engine:           engineConfig(v),
		Storage:          storageConfig(v),
		Listen:           v.GetString("listen"),
		JWTSecret:        v.GetString("jwt-secret"),
		RateLimit:        v.GetFloat64("rate-limit"),
		RateBurst:        v.GetInt("rate-burst"),
		SnapshotInterval: v.GetDuration("snapshot-interval"),
		LogLevel:         v.GetString("log-level"),
		LogFile:          v.GetString("log-file"),
	}
	if cfg.JWTSecret == "" {
		return ServeConfig{}, fmt.Errorf("jwt-secret is required")
	}
	return cfg, nil
}

// LoadApply merges config file, environment variables, and flags into ApplyConfig.
func LoadApply(cfgFile string, flags *pflag.FlagSet) (ApplyConfig, error) {
	v, err := load(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("results", "./data/results.jsonl")
		v.SetDefault("batch-size", uint64(500))
		v.SetDefault("checkpoint", "./data/checkpoint.json")
		v.SetDefault("checkpoint-enabled", true)
		v.SetDefault("max-retries", 5)
		v.SetDefault("retry-backoff", 500*time.Millisecond)
	})
	if err != nil {
		return ApplyConfig{}, err
	}

	cfg := ApplyConfig{
		Engine:            engineConfig(v),
		Storage:           storageConfig(v),
		Input:             v.GetString("in"),
		Results:           v.GetString("results"),
		BatchSize:         v.GetUint64("batch-size"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
		LogFile:           v.GetString("log-file"),
	}
	if cfg.Input == "" {
		return ApplyConfig{}, fmt.Errorf("in is required")
	}
	return cfg, nil
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, nil)
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		Engine:   engineConfig(v),
		Storage:  storageConfig(v),
		TokenIn:  v.GetString("token-in"),
		TokenOut: v.GetString("token-out"),
		Amount:   v.GetString("amount"),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.TokenIn == "" || cfg.TokenOut == "" || cfg.Amount == "" {
		return QuoteConfig{}, fmt.Errorf("token-in, token-out and amount are required")
	}
	return cfg, nil
}

func load(cfgFile string, flags *pflag.FlagSet, defaults func(v *viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("AMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("account", "oracle-amm")
	v.SetDefault("lp-fee-bps", uint64(25))
	v.SetDefault("protocol-fee-bps", uint64(5))
	v.SetDefault("minimum-liquidity", uint64(1000))
	v.SetDefault("pricing", "oracle")
	v.SetDefault("oracle", "memory")
	v.SetDefault("oracle-max-age", time.Duration(0))
	v.SetDefault("journal", "./data/events.jsonl")
	v.SetDefault("snapshot", "./data/snapshot.json")
	v.SetDefault("state-name", "default")
	v.SetDefault("log-level", "info")
	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func engineConfig(v *viper.Viper) EngineConfig {
	return EngineConfig{
		Owner:            v.GetString("owner"),
		Treasury:         v.GetString("treasury"),
		Account:          v.GetString("account"),
		LPFeeBps:         v.GetUint64("lp-fee-bps"),
		ProtocolFeeBps:   v.GetUint64("protocol-fee-bps"),
		MinimumLiquidity: v.GetUint64("minimum-liquidity"),
		Pricing:          v.GetString("pricing"),
		Oracle: OracleConfig{
			Backend:          v.GetString("oracle"),
			RPCURL:           v.GetString("rpc"),
			Contract:         v.GetString("oracle-contract"),
			PrivateKey:       v.GetString("oracle-key"),
			Prices:           getStringSlice(v, "price"),
			MaxAge:           v.GetDuration("oracle-max-age"),
			MaxConfidenceBps: v.GetUint64("oracle-max-conf-bps"),
		},
	}
}

func storageConfig(v *viper.Viper) StorageConfig {
	return StorageConfig{
		Journal:   v.GetString("journal"),
		Snapshot:  v.GetString("snapshot"),
		PGDSN:     v.GetString("pg-dsn"),
		StateName: v.GetString("state-name"),
	}
}

// PriceSpec is a static price for the memory oracle, written feed:price:expo.
type PriceSpec struct {
	Feed  string
	Price int64
	Expo  int32
}

// ParsePriceSpecs parses feed:price:expo entries.
func ParsePriceSpecs(inputs []string) ([]PriceSpec, error) {
	specs := make([]PriceSpec, 0, len(inputs))
	for _, input := range inputs {
		parts := strings.Split(strings.TrimSpace(input), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid price %q: want feed:price:expo", input)
		}
		price, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", input, err)
		}
		expo, err := strconv.ParseInt(parts[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid expo %q: %w", input, err)
		}
		specs = append(specs, PriceSpec{Feed: parts[0], Price: price, Expo: int32(expo)})
	}
	return specs, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
