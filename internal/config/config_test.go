package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NOVA_MEMORY_BUDGET_BYTES",
		"NOVA_LOG_LEVEL",
		"NOVA_BUDGET_QueryCache",
		"NOVA_BUDGET_SyntaxTrees",
		"NOVA_BUDGET_Indexes",
		"NOVA_BUDGET_TypeInfo",
		"NOVA_BUDGET_Other",
	} {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	assert.Equal(t, defaultTotalBudgetBytes, cfg.TotalBudgetBytes)
	assert.Equal(t, "info", cfg.LogLevel)

	var sum int64
	for _, b := range cfg.CategoryBudgetBytes {
		sum += b
	}
	assert.InDelta(t, cfg.TotalBudgetBytes, sum, float64(cfg.TotalBudgetBytes)*0.01)
}

func TestLoad_EnvironmentDominates(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOVA_MEMORY_BUDGET_BYTES", "1000000")
	t.Setenv("NOVA_BUDGET_QueryCache", "123")
	t.Setenv("NOVA_LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, int64(1000000), cfg.TotalBudgetBytes)
	assert.Equal(t, int64(123), cfg.CategoryBudgetBytes[CategoryQueryCache])
	assert.Equal(t, "debug", cfg.LogLevel)
}
