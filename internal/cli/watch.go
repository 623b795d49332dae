package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleave-tools/cleave/internal/splitter"
	"github.com/cleave-tools/cleave/internal/watcher"
)

var watchOutputFlag string

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-split a file whenever it changes",
	Long: `Watch monitors a source file and re-runs the split pipeline after each
change, debounced so a burst of editor saves triggers a single run.

A failed run leaves the previous output untouched and is reported without
stopping the watch. Press Ctrl+C to exit.

Examples:
  cleave watch ChatService.swift
  cleave watch --output Split/ ChatService.swift
`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchOutputFlag, "output", "o", "", "Output directory (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]

	resplit := func() {
		cfg, err := loadConfig()
		if err != nil {
			log.Printf("watch: failed to load configuration: %v", err)
			return
		}
		if watchOutputFlag != "" {
			cfg.Split.OutputDir = watchOutputFlag
		}
		pipe := splitter.New(cfg)
		res, err := pipe.RunFile(path)
		if err != nil {
			log.Printf("watch: split failed, previous output kept: %v", err)
			return
		}
		log.Printf("watch: %s split into %d files", path, len(res.Units))
	}

	// Split once up front so the output exists before the first change.
	resplit()

	fw, err := watcher.New(path)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := fw.Start(ctx, resplit); err != nil {
		fw.Stop()
		return err
	}

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", path)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nStopping...")
	return fw.Stop()
}
