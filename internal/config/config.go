// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr       string
	LogLevel   string
	LogConsole bool

	// reference data locations
	DataDir   string
	RasterDir string
	ConfDir   string

	// hedge document store; empty addr selects the in-memory store
	RedisAddr      string
	RedisPoolSize  int
	RedisOpTimeout time.Duration
	HedgeTTL       time.Duration

	EvaluateTimeout    time.Duration
	EvaluateTimeoutOvr map[string]time.Duration

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),

		DataDir:   getenv("DATA_DIR", "./data/maps"),
		RasterDir: getenv("RASTER_DIR", "./data/catchment"),
		ConfDir:   getenv("CONF_DIR", "./data/config"),

		RedisAddr:      getenv("REDIS_ADDR", ""),
		RedisPoolSize:  getint("REDIS_POOL_SIZE", 16),
		RedisOpTimeout: getduration("REDIS_OP_TIMEOUT", 250*time.Millisecond),
		HedgeTTL:       getduration("HEDGE_TTL", 90*24*time.Hour),

		EvaluateTimeout:    getduration("EVALUATE_TIMEOUT", 15*time.Second),
		EvaluateTimeoutOvr: parseDurationMap(getenv("EVALUATE_TIMEOUT_OVERRIDES", "")),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "envergo-refdata"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "moulinette-refdata"),
		},
	}
}

// TimeoutFor returns the evaluate deadline for one evaluation kind.
func (c Config) TimeoutFor(kind string) time.Duration {
	if d, ok := c.EvaluateTimeoutOvr[kind]; ok {
		return d
	}
	return c.EvaluateTimeout
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parse "amenagement=5s,haie=30s" into map
func parseDurationMap(s string) map[string]time.Duration {
	out := map[string]time.Duration{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])
		if k == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil {
			out[k] = d
		}
	}
	return out
}
