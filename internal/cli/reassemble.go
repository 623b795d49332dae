package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleave-tools/cleave/internal/assemble"
	"github.com/cleave-tools/cleave/internal/scanner"
)

var (
	reassembleOutFlag  string
	reassembleTypeFlag string
)

// reassembleCmd represents the reassemble command
var reassembleCmd = &cobra.Command{
	Use:   "reassemble <primary> <companion>...",
	Short: "Restore a single source file from split parts",
	Long: `Reassemble merges the primary file and its companion extension files
back into one source file. Companion bodies are appended inside the primary
type body in the order given on the command line.

The merged result is balance-checked before anything is written, and the
output is staged and renamed into place so a failure leaves no partial file.

Examples:
  cleave reassemble ChatService.swift ChatService+Fetching.swift ChatService+Helpers.swift -o ChatService.merged.swift
`,
	Args: cobra.MinimumNArgs(2),
	RunE: runReassemble,
}

func init() {
	rootCmd.AddCommand(reassembleCmd)
	reassembleCmd.Flags().StringVarP(&reassembleOutFlag, "output", "o", "", "Output file (default: <Type>.reassembled.swift)")
	reassembleCmd.Flags().StringVarP(&reassembleTypeFlag, "type", "t", "", "Enclosing type name (default: from configuration)")
}

func runReassemble(cmd *cobra.Command, args []string) error {
	typeName := reassembleTypeFlag
	if typeName == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		typeName = cfg.Split.TypeName
	}

	primary, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if typeName == "" {
		// Fall back to the type declared in the primary file itself.
		src, err := assemble.ParseSource(string(primary), "")
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		typeName = src.TypeName
	}

	companions := make([]string, 0, len(args)-1)
	for _, path := range args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		companions = append(companions, string(data))
	}

	merged, err := assemble.ReassembleFiles(string(primary), companions, typeName)
	if err != nil {
		return err
	}
	tr, err := scanner.Scan(merged)
	if err != nil {
		return err
	}
	if d := tr.FinalDepth(); d != 0 {
		return fmt.Errorf("%w: merged output has final depth %d", assemble.ErrBalance, d)
	}

	out := reassembleOutFlag
	if out == "" {
		out = typeName + ".reassembled.swift"
	}
	if err := writeAtomic(out, []byte(merged)); err != nil {
		return err
	}
	fmt.Printf("✓ %s written (%d lines from %d parts)\n", out, tr.LineCount(), len(args))
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return nil
}
