package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleave-tools/cleave/internal/assemble"
	"github.com/cleave-tools/cleave/internal/scanner"
)

var verifyTypeFlag string

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <file>...",
	Short: "Check balance and report the declaration census, writing nothing",
	Long: `Verify scans each file with the depth tracer and reports the final
brace depth, and for files carrying the target type body, the top-level
declaration census. It never writes anything.

With several files the concatenation is checked too, so a split set can be
validated as a whole.

Examples:
  cleave verify ChatService.swift
  cleave verify --type ChatService ChatService.swift ChatService+*.swift
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifyTypeFlag, "type", "t", "", "Enclosing type name for the declaration census")
}

func runVerify(cmd *cobra.Command, args []string) error {
	var all string
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		text := string(data)
		all += text

		tr, err := scanner.Scan(text)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if d := tr.FinalDepth(); d != 0 {
			return fmt.Errorf("%s: %w: final depth %d", path, assemble.ErrBalance, d)
		}
		fmt.Printf("%s: %d lines, balanced\n", path, tr.LineCount())

		src, err := assemble.ParseSource(text, verifyTypeFlag)
		if err != nil {
			// Companion files have no type body of their own; depth balance
			// already passed, which is all verify promises for them.
			continue
		}
		decls, err := src.Declarations()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Printf("  type %s: %d top-level declarations, %d body lines\n",
			src.TypeName, len(decls), len(src.Body))
	}

	if len(args) > 1 {
		tr, err := scanner.Scan(all)
		if err != nil {
			return fmt.Errorf("concatenation: %w", err)
		}
		if d := tr.FinalDepth(); d != 0 {
			return fmt.Errorf("concatenation: %w: final depth %d", assemble.ErrBalance, d)
		}
		fmt.Printf("concatenation of %d files: balanced\n", len(args))
	}
	return nil
}
