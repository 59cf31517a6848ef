// Package config loads Nova's process-wide configuration: a struct of
// defaults overridden by environment variables, with the environment
// always winning.
package config

import (
	"os"
	"strconv"
)

// Category names a memory budget bucket.
type Category string

const (
	CategoryQueryCache  Category = "QueryCache"
	CategorySyntaxTrees Category = "SyntaxTrees"
	CategoryIndexes     Category = "Indexes"
	CategoryTypeInfo    Category = "TypeInfo"
	CategoryOther       Category = "Other"
)

// defaultShare is each category's fraction of the total budget absent
// an override: QueryCache 40%, SyntaxTrees 25%, Indexes 20%, TypeInfo
// 10%, Other the remainder.
var defaultShare = map[Category]float64{
	CategoryQueryCache:  0.40,
	CategorySyntaxTrees: 0.25,
	CategoryIndexes:     0.20,
	CategoryTypeInfo:    0.10,
	CategoryOther:       0.05,
}

// Config holds Nova's tunable knobs.
type Config struct {
	// TotalBudgetBytes bounds the sum of every category's budget.
	TotalBudgetBytes int64
	// CategoryBudgetBytes is derived from TotalBudgetBytes and
	// defaultShare unless an env override names a category directly.
	CategoryBudgetBytes map[Category]int64
	// LogLevel is the minimum nlog.Level name ("debug"|"info"|"warning"|"error").
	LogLevel string
}

const defaultTotalBudgetBytes int64 = 512 * 1024 * 1024

// Load builds a Config from defaults, then applies environment overrides.
func Load() *Config {
	cfg := &Config{
		TotalBudgetBytes: defaultTotalBudgetBytes,
		LogLevel:         "info",
	}

	if v := os.Getenv("NOVA_MEMORY_BUDGET_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.TotalBudgetBytes = n
		}
	}
	if v := os.Getenv("NOVA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.CategoryBudgetBytes = make(map[Category]int64, len(defaultShare))
	for cat, share := range defaultShare {
		cfg.CategoryBudgetBytes[cat] = int64(float64(cfg.TotalBudgetBytes) * share)
	}

	for cat := range defaultShare {
		envKey := "NOVA_BUDGET_" + string(cat)
		if v := os.Getenv(envKey); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
				cfg.CategoryBudgetBytes[cat] = n
			}
		}
	}

	return cfg
}
