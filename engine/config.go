package engine

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warpgraph/warpengine/receipt"
)

// Config holds engine tuning loaded from environment variables, in the
// same getEnv/getEnvInt/getEnvBool style used elsewhere in this
// codebase's ambient configuration layer.
type Config struct {
	// Workers is the requested executor worker count. Values above
	// exec.NumShards are silently capped by the Sharded backend; a
	// value <= 1 selects the Serial backend.
	Workers int

	// DeltaValidate, when true, additionally reconstructs a cloned
	// GraphStore from the tick's ops and asserts its canonical state
	// hash equals the SnapshotAccumulator's state_root before
	// committing. Test suites run with this on; it costs an extra
	// full-store rebuild per tick.
	DeltaValidate bool

	// DefaultReceiptMode is the Receipt.Mode used by CommitDefault.
	DefaultReceiptMode receipt.Mode

	// LogLevel is a zerolog level name: "debug", "info", "warn", "error".
	LogLevel string
	// LogFormat selects "json" (zerolog's default) or "console"
	// (zerolog.ConsoleWriter, for local development).
	LogFormat string

	// MetricsEnabled registers the engine's prometheus collectors with
	// the default registry.
	MetricsEnabled bool

	// WarpName and WorldlineName derive the engine's root WarpId and
	// WorldlineId; two engines configured with the same names always
	// agree on both ids without coordination.
	WarpName      string
	WorldlineName string
}

// LoadFromEnv loads Config from the environment. Every field has a
// usable default, so LoadFromEnv() alone is enough to run the engine.
func LoadFromEnv() *Config {
	cfg := &Config{
		Workers:            getEnvInt("WARPENGINE_WORKERS", 1),
		DeltaValidate:      getEnvBool("WARPENGINE_DELTA_VALIDATE", false),
		DefaultReceiptMode: parseMode(getEnv("WARPENGINE_RECEIPT_MODE", "full")),
		LogLevel:           getEnv("WARPENGINE_LOG_LEVEL", "info"),
		LogFormat:          getEnv("WARPENGINE_LOG_FORMAT", "json"),
		MetricsEnabled:     getEnvBool("WARPENGINE_METRICS_ENABLED", true),
		WarpName:           getEnv("WARPENGINE_WARP", "root"),
		WorldlineName:      getEnv("WARPENGINE_WORLDLINE", "default"),
	}
	return cfg
}

// Validate checks Config for values that would make the engine
// misbehave rather than merely underperform.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("engine: workers must be >= 1, got %d", c.Workers)
	}
	if c.WarpName == "" {
		return fmt.Errorf("engine: warp name must not be empty")
	}
	if c.WorldlineName == "" {
		return fmt.Errorf("engine: worldline name must not be empty")
	}
	return nil
}

func parseMode(s string) receipt.Mode {
	switch strings.ToLower(s) {
	case "proof":
		return receipt.ModeProof
	case "light":
		return receipt.ModeLight
	default:
		return receipt.ModeFull
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes" || v == "on"
	}
	return defaultVal
}
