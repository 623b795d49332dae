package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleave-tools/cleave/internal/config"
	"github.com/cleave-tools/cleave/internal/splitter"
)

var (
	splitQuietFlag  bool
	splitOutputFlag string
	splitTypeFlag   string
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split <file>",
	Short: "Split one type body into a primary file plus extension files",
	Long: `Split reads one source file containing the enclosing type body to
partition, routes every top-level member to a partition, and writes one
balanced output file per partition plus a manifest.

Stored properties, initializers, and lifecycle hooks always stay in the
primary file; remaining members are routed by the ordered rule table in
.cleave/config.yml. Private members that move out of the primary file are
relaxed to default visibility so sibling files can still reach them;
private(set) is preserved.

Nothing is written unless every output file and their concatenation verify
as brace-balanced and the split survives a reassemble-and-resplit check.

Examples:
  # Split using .cleave/config.yml in the current directory
  cleave split Services/ChatService.swift

  # Override the output directory and target type
  cleave split --type ChatService --output Services ChatService.swift

  # No progress output
  cleave split --quiet ChatService.swift
`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)
	splitCmd.Flags().BoolVarP(&splitQuietFlag, "quiet", "q", false, "Disable progress and non-error output")
	splitCmd.Flags().StringVarP(&splitOutputFlag, "output", "o", "", "Output directory (overrides config)")
	splitCmd.Flags().StringVarP(&splitTypeFlag, "type", "t", "", "Enclosing type name (overrides config)")
}

// loadConfig loads the effective configuration: an explicit --config file
// wins, otherwise .cleave/config.yml under the working directory.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadConfigFromFile(cfgFile)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return config.LoadConfigFromDir(wd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if splitOutputFlag != "" {
		cfg.Split.OutputDir = splitOutputFlag
	}
	if splitTypeFlag != "" {
		cfg.Split.TypeName = splitTypeFlag
	}

	reporter := newPhaseReporter(splitQuietFlag)
	pipe := splitter.New(cfg)
	pipe.Progress = reporter.OnPhase

	res, err := pipe.RunFile(args[0])
	if err != nil {
		return err
	}
	reporter.Finish()

	if !splitQuietFlag {
		fmt.Print(res.Manifest.String())
		fmt.Printf("✓ %d files written to %s\n", len(res.Units), cfg.Split.OutputDir)
	}
	return nil
}
