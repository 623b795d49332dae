package config

import "github.com/cleave-tools/cleave/internal/category"

// Strategy names accepted by the splitter.
const (
	StrategyDeclaration = "declaration-based"
	StrategyDepthTarget = "depth-target-based"
)

// Config represents the complete cleave configuration.
// It can be loaded from .cleave/config.yml with environment variable overrides.
type Config struct {
	Split          SplitConfig          `yaml:"split" mapstructure:"split"`
	Rules          []RuleConfig         `yaml:"rules" mapstructure:"rules"`
	AlwaysResident AlwaysResidentConfig `yaml:"always_resident" mapstructure:"always_resident"`
	Targets        []TargetConfig       `yaml:"targets" mapstructure:"targets"`
}

// SplitConfig selects the enclosing type, the slicing strategy, and where
// output units land.
type SplitConfig struct {
	TypeName     string `yaml:"type_name" mapstructure:"type_name"`         // enclosing type to split; empty means first type body found
	Strategy     string `yaml:"strategy" mapstructure:"strategy"`           // "declaration-based" or "depth-target-based"
	SearchWindow int    `yaml:"search_window" mapstructure:"search_window"` // lines searched around a depth target for a clean cut
	OnImbalance  string `yaml:"on_imbalance" mapstructure:"on_imbalance"`   // only "abort" is supported
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`       // destination for output units
	Primary      string `yaml:"primary" mapstructure:"primary"`             // primary partition id
}

// RuleConfig maps a declaration name pattern to a partition id. Order
// matters; the last rule must be a catch-all.
type RuleConfig struct {
	Pattern   string `yaml:"pattern" mapstructure:"pattern"`
	Partition string `yaml:"partition" mapstructure:"partition"`
}

// AlwaysResidentConfig names declarations pinned to the primary partition
// regardless of name rules. Stored properties, initializers, and lifecycle
// hooks are always pinned; this adds to that set.
type AlwaysResidentConfig struct {
	Names []string `yaml:"names" mapstructure:"names"`
}

// TargetConfig is one coarse cut for the depth-target strategy: the body
// line to aim for and the partition id for the chunk that begins after the
// cut. The chunk before the first cut is always the primary partition.
type TargetConfig struct {
	Line      int    `yaml:"line" mapstructure:"line"`
	Partition string `yaml:"partition" mapstructure:"partition"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Split: SplitConfig{
			TypeName:     "",
			Strategy:     StrategyDeclaration,
			SearchWindow: 30,
			OnImbalance:  "abort",
			OutputDir:    ".",
			Primary:      "Core",
		},
		Rules: []RuleConfig{
			{Pattern: "*", Partition: "Support"},
		},
	}
}

// RuleTable compiles the configured rules into a categorizer table.
func (c *Config) RuleTable() (*category.Table, error) {
	rules := make([]category.Rule, len(c.Rules))
	for i, r := range c.Rules {
		rules[i] = category.Rule{Pattern: r.Pattern, Partition: r.Partition}
	}
	return category.Compile(c.Split.Primary, rules, c.AlwaysResident.Names)
}

// TargetLines returns the depth-target line indices in configured order.
func (c *Config) TargetLines() []int {
	lines := make([]int, len(c.Targets))
	for i, t := range c.Targets {
		lines[i] = t.Line
	}
	return lines
}
