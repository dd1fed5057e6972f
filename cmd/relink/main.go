package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"relink/internal/cache"
	"relink/internal/config"
	"relink/internal/dedup"
	"relink/internal/report"
	"relink/internal/run"
	"relink/internal/stats"
	"relink/internal/target"
)

// Injected at build time via -ldflags; defaults to "dev".
var version = "dev"

func main() {
	os.Exit(execute())
}

// Exit codes: 0 full success (including completed dry runs), 1 any link
// failure or fatal per-set error, 2 configuration errors detected before
// any traversal.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

//nolint:gocyclo // main CLI entry point orchestrates all flag parsing
func execute() int {
	var (
		targetFile  string
		minSizeStr  string
		threads     int
		separator   string
		dryRun      bool
		promptFlag  bool
		rawOutput   bool
		noBrace     bool
		verbose     int
		quiet       int
		cacheDB     string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "relink [flags] TARGET... [; TARGET...]",
		Short: "Replace duplicate files with hardlinks to one canonical copy",
		Long: `relink finds byte-identical regular files inside the given directory
trees and replaces redundant copies with hardlinks to a single keeper file,
reclaiming space while preserving every path.

Targets are grouped into sets by the separator token (default ";"); each set
must live on one filesystem and is deduplicated in isolation. Duplicates are
detected by size, then BLAKE3 digest, then a full byte comparison.`,
		Args: func(cmd *cobra.Command, args []string) error {
			return nil // validated in RunE so --version and --file work
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "relink %s\n", version)
				return nil
			}

			// Configure logging from the verbosity counters.
			verbosity := verbose - quiet
			logLevel := slog.LevelWarn
			switch {
			case verbosity >= 1:
				logLevel = slog.LevelDebug
			case verbosity == 0:
				logLevel = slog.LevelInfo
			case verbosity <= -2:
				logLevel = slog.LevelError
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})))

			// Load optional config file defaults for flags not set on CLI.
			cfgFile, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			if !cmd.Flags().Changed("threads") && cfgFile.Defaults.Threads != nil {
				threads = *cfgFile.Defaults.Threads
			}
			if !cmd.Flags().Changed("min-size") && cfgFile.Defaults.MinSize != nil {
				minSizeStr = *cfgFile.Defaults.MinSize
			}
			if !cmd.Flags().Changed("no-brace-output") && cfgFile.Defaults.Brace != nil {
				noBrace = !*cfgFile.Defaults.Brace
			}
			if !cmd.Flags().Changed("cache-db") && cfgFile.Defaults.CacheDB != nil {
				cacheDB = *cfgFile.Defaults.CacheDB
			}

			// Target sources are mutually exclusive.
			if targetFile != "" && len(args) > 0 {
				return errors.New("targets were given both as arguments and with --file")
			}
			tokens := args
			if targetFile != "" {
				tokens, err = target.ReadTokensFile(targetFile)
				if err != nil {
					return fmt.Errorf("read targets: %w", err)
				}
			}
			if len(tokens) == 0 {
				return errors.New("no targets given")
			}

			if threads < 1 {
				return fmt.Errorf("--threads must be positive, got %d", threads)
			}
			minSize, err := target.ParseSize(minSizeStr)
			if err != nil {
				return fmt.Errorf("invalid --min-size: %w", err)
			}
			if minSize < 1 {
				minSize = 1
			}

			sets, err := target.SplitSets(tokens, separator)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var store dedup.DigestStore
			if cacheDB != "" {
				c, err := cache.Open(cacheDB)
				if err != nil {
					slog.Warn("digest cache disabled", "path", cacheDB, "error", err)
				} else {
					defer c.Close()
					store = c
				}
			}

			collector := stats.NewCollector()
			reporter := &report.Reporter{
				W:         os.Stdout,
				ErrW:      os.Stderr,
				Raw:       rawOutput,
				Brace:     !noBrace,
				Verbosity: verbosity,
			}

			result := run.Run(ctx, run.Config{
				Sets:      sets,
				MinSize:   minSize,
				Threads:   threads,
				DryRun:    dryRun,
				Prompt:    promptFlag,
				Store:     store,
				Reporter:  reporter,
				Stats:     collector,
				PromptIn:  os.Stdin,
				PromptOut: os.Stderr,
			})

			if result.Failed {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().StringVarP(&targetFile, "file", "f", "",
		"read targets from FILE, one per line (\"-\" for stdin); exclusive with TARGET arguments")
	rootCmd.Flags().StringVarP(&minSizeStr, "min-size", "s", "1",
		"ignore files smaller than SIZE (e.g. 4096, 64K, 1M; floor 1 byte)")
	rootCmd.Flags().IntVarP(&threads, "threads", "t", 2, "number of hashing threads")
	rootCmd.Flags().StringVar(&separator, "separator", ";",
		"token separating independent target sets")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false,
		"report what would be linked without touching the filesystem")
	rootCmd.Flags().BoolVarP(&promptFlag, "prompt", "p", false,
		"ask once for confirmation before linking anything")
	rootCmd.Flags().BoolVar(&rawOutput, "raw-output", false,
		"machine-readable output: keeper and duplicate paths, tab-separated")
	rootCmd.Flags().BoolVar(&noBrace, "no-brace-output", false,
		"print full path pairs instead of brace-compacted paths")
	rootCmd.Flags().CountVarP(&verbose, "verbose", "v", "more output (repeatable)")
	rootCmd.Flags().CountVarP(&quiet, "quiet", "q", "less output (repeatable)")
	rootCmd.Flags().StringVar(&cacheDB, "cache-db", "",
		"SQLite digest cache path (disabled when empty)")

	rootCmd.AddCommand(listCmd())

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "relink: %v\n", err)
		return 2
	}
	return 0
}
