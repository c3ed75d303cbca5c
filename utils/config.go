package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL           string
	WSURL            string
	ProgramID        string
	Pool             string
	NeighborhoodSize int
	RPS              float64
	Slippage         string
	RefreshInterval  time.Duration
	MetricsAddr      string
	RedisAddr        string
	RedisChannel     string
	LogLevel         string
}

// LoadConfig merges config file, SWAPIO_ environment variables, and flags
// into Config. SOLANA_RPC_URL and SOLANA_WS_RPC_URL fill the endpoints when
// nothing else sets them.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SWAPIO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("rpc", "https://api.mainnet-beta.solana.com")
	v.SetDefault("program-id", "SWPammPnp7L9qFgV436u3CSPmcxU6ZQm6ttawzDTRuw")
	v.SetDefault("pool", "HR1xNcU5XPHpEZDsEknw22oPFELk1VGyBzoSaCJrL926")
	v.SetDefault("neighborhood-size", 5)
	v.SetDefault("rps", 8.0)
	v.SetDefault("slippage", "0.005")
	v.SetDefault("refresh-interval", 10*time.Second)
	v.SetDefault("metrics-addr", ":9100")
	v.SetDefault("redis-channel", "swapio:quotes")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:           v.GetString("rpc"),
		WSURL:            v.GetString("ws"),
		ProgramID:        v.GetString("program-id"),
		Pool:             v.GetString("pool"),
		NeighborhoodSize: v.GetInt("neighborhood-size"),
		RPS:              v.GetFloat64("rps"),
		Slippage:         v.GetString("slippage"),
		RefreshInterval:  v.GetDuration("refresh-interval"),
		MetricsAddr:      v.GetString("metrics-addr"),
		RedisAddr:        v.GetString("redis-addr"),
		RedisChannel:     v.GetString("redis-channel"),
		LogLevel:         v.GetString("log-level"),
	}

	if !isSet(v, flags, "rpc") {
		if env := os.Getenv("SOLANA_RPC_URL"); env != "" {
			cfg.RPCURL = env
		}
	}
	if !isSet(v, flags, "ws") {
		if env := os.Getenv("SOLANA_WS_RPC_URL"); env != "" {
			cfg.WSURL = env
		}
	}

	if cfg.NeighborhoodSize <= 0 {
		return Config{}, fmt.Errorf("neighborhood-size must be positive, got %d", cfg.NeighborhoodSize)
	}
	if cfg.RefreshInterval <= 0 {
		return Config{}, fmt.Errorf("refresh-interval must be positive, got %s", cfg.RefreshInterval)
	}
	return cfg, nil
}

// isSet reports whether key came from a changed flag, the environment or
// the config file rather than a default.
func isSet(v *viper.Viper, flags *pflag.FlagSet, key string) bool {
	if flags != nil {
		if f := flags.Lookup(key); f != nil && f.Changed {
			return true
		}
	}
	if _, ok := os.LookupEnv("SWAPIO_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))); ok {
		return true
	}
	return v.InConfig(key)
}
