package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleave-tools/cleave/internal/category"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - LoadConfig() uses defaults when no config file exists
// - LoadConfig() loads from .cleave/config.yml when present
// - Environment variables override config file values
// - LoadConfig() returns error for malformed YAML
// - Validate() accepts valid configuration
// - Validate() rejects unknown strategy
// - Validate() rejects non-positive search window
// - Validate() rejects imbalance policies other than abort
// - Validate() rejects a rule table without a trailing catch-all
// - Validate() rejects depth-target strategy without targets
// - Validate() rejects unordered targets
// - Validate() returns multiple errors for multiple invalid fields
// - RuleTable() compiles to a categorizer table

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, StrategyDeclaration, cfg.Split.Strategy)
	assert.Equal(t, 30, cfg.Split.SearchWindow)
	assert.Equal(t, "abort", cfg.Split.OnImbalance)
	assert.Equal(t, ".", cfg.Split.OutputDir)
	assert.Equal(t, "Core", cfg.Split.Primary)
	require.NotEmpty(t, cfg.Rules)
	assert.Equal(t, "*", cfg.Rules[len(cfg.Rules)-1].Pattern)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	tempDir := t.TempDir()

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	expected := Default()
	assert.Equal(t, expected.Split, cfg.Split)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	tempDir := t.TempDir()
	cleaveDir := filepath.Join(tempDir, ".cleave")
	require.NoError(t, os.MkdirAll(cleaveDir, 0755))

	yml := `split:
  type_name: ChatService
  strategy: declaration-based
  search_window: 40
  output_dir: out
rules:
  - pattern: "fetch*"
    partition: Fetching
  - pattern: "send*"
    partition: Sending
  - pattern: "*"
    partition: Persistence
always_resident:
  names:
    - observeConversationCount
`
	require.NoError(t, os.WriteFile(filepath.Join(cleaveDir, "config.yml"), []byte(yml), 0644))

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "ChatService", cfg.Split.TypeName)
	assert.Equal(t, 40, cfg.Split.SearchWindow)
	assert.Equal(t, "out", cfg.Split.OutputDir)
	require.Len(t, cfg.Rules, 3)
	assert.Equal(t, "Fetching", cfg.Rules[0].Partition)
	assert.Equal(t, []string{"observeConversationCount"}, cfg.AlwaysResident.Names)

	// Default survives where the file is silent.
	assert.Equal(t, "abort", cfg.Split.OnImbalance)
	assert.Equal(t, "Core", cfg.Split.Primary)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("CLEAVE_SPLIT_TYPE_NAME", "ChatService")
	t.Setenv("CLEAVE_SPLIT_SEARCH_WINDOW", "12")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "ChatService", cfg.Split.TypeName)
	assert.Equal(t, 12, cfg.Split.SearchWindow)
}

func TestLoadConfig_MalformedYaml(t *testing.T) {
	tempDir := t.TempDir()
	cleaveDir := filepath.Join(tempDir, ".cleave")
	require.NoError(t, os.MkdirAll(cleaveDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cleaveDir, "config.yml"), []byte("split: ["), 0644))

	_, err := NewLoader(tempDir).Load()
	require.Error(t, err)
}

func TestValidate_RejectsUnknownStrategy(t *testing.T) {
	cfg := Default()
	cfg.Split.Strategy = "guesswork"

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}

func TestValidate_RejectsBadWindow(t *testing.T) {
	cfg := Default()
	cfg.Split.SearchWindow = 0

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestValidate_RejectsNonAbortPolicy(t *testing.T) {
	cfg := Default()
	cfg.Split.OnImbalance = "ignore"

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidImbalancePolicy)
}

func TestValidate_RejectsMissingCatchAll(t *testing.T) {
	cfg := Default()
	cfg.Rules = []RuleConfig{{Pattern: "fetch*", Partition: "Fetching"}}

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRules)
}

func TestValidate_DepthTargetRequiresTargets(t *testing.T) {
	cfg := Default()
	cfg.Split.Strategy = StrategyDepthTarget

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTargets)
}

func TestValidate_RejectsUnorderedTargets(t *testing.T) {
	cfg := Default()
	cfg.Split.Strategy = StrategyDepthTarget
	cfg.Targets = []TargetConfig{
		{Line: 500, Partition: "A"},
		{Line: 200, Partition: "B"},
	}

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTargets)
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Split.Strategy = "guesswork"
	cfg.Split.SearchWindow = -1
	cfg.Split.Primary = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy")
	assert.Contains(t, err.Error(), "search_window")
}

func TestRuleTable_Compiles(t *testing.T) {
	cfg := Default()
	cfg.Rules = []RuleConfig{
		{Pattern: "fetch*", Partition: "Fetching"},
		{Pattern: "*", Partition: "Rest"},
	}

	tbl, err := cfg.RuleTable()
	require.NoError(t, err)
	require.NotNil(t, tbl)
	assert.Equal(t, "Core", tbl.Primary)
}

func TestRuleTable_PropagatesCategoryError(t *testing.T) {
	cfg := Default()
	cfg.Rules = []RuleConfig{{Pattern: "fetch*", Partition: "Fetching"}}

	_, err := cfg.RuleTable()
	require.Error(t, err)
	assert.ErrorIs(t, err, category.ErrCategory)
}
