// Package run orchestrates a whole invocation: resolve, classify and plan
// every target set first, confirm once, then execute set by set.
package run

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"relink/internal/dedup"
	"relink/internal/report"
	"relink/internal/stats"
	"relink/internal/target"
)

// Config describes one invocation.
type Config struct {
	Sets    []target.Set
	MinSize int64
	Threads int
	DryRun  bool
	Prompt  bool
	Store   dedup.DigestStore // optional digest cache

	Reporter *report.Reporter
	Stats    *stats.Collector

	// PromptIn answers the confirmation prompt (os.Stdin in the command
	// layer; a bytes.Reader in tests).
	PromptIn io.Reader
	// PromptOut is where the prompt itself is written.
	PromptOut io.Writer
}

// Result aggregates the run outcome.
type Result struct {
	Snapshot stats.Snapshot
	Failed   bool // any link failure or fatal per-set configuration error
	Aborted  bool // user declined the prompt
}

// setPlan pairs a resolved set with its computed plan during the first,
// mutation-free phase.
type setPlan struct {
	set  target.Set
	plan dedup.Plan
}

// Run executes the invocation. Sets are processed strictly one at a time
// and never merged; a set that fails to resolve is reported and skipped
// without affecting the others.
func Run(ctx context.Context, cfg Config) Result {
	var result Result

	resolver := target.NewResolver(cfg.MinSize, cfg.Stats)
	classifier := dedup.NewClassifier(cfg.Threads, cfg.Store, cfg.Stats)

	// Phase one: resolve, classify, plan. No filesystem mutation happens
	// here, so the single confirmation below covers every set.
	var plans []setPlan
	for _, set := range cfg.Sets {
		if ctx.Err() != nil {
			break
		}

		resolved, err := resolver.Resolve(set)
		if err != nil {
			slog.Error("target set failed", "set", set.Index+1, "error", err)
			cfg.Stats.AddSetsFailed(1)
			result.Failed = true
			continue
		}

		groups, problems := classifier.Classify(ctx, resolved.Files)
		for _, p := range problems {
			cfg.Stats.AddPathErrors(1)
			slog.Warn("file excluded from classification", "set", set.Index+1, "error", p)
		}

		plans = append(plans, setPlan{set: set, plan: dedup.BuildPlan(groups, cfg.Stats)})
	}

	pending := 0
	for _, sp := range plans {
		pending += sp.plan.Pending()
	}

	if cfg.Prompt && pending > 0 && !cfg.DryRun {
		if !confirm(cfg.PromptIn, cfg.PromptOut, pending) {
			slog.Info("aborted by user, nothing linked")
			result.Aborted = true
			result.Snapshot = cfg.Stats.Snapshot()
			return result
		}
	}

	// Phase two: execute per set, in input order, output never interleaved.
	tmp := dedup.NewTmpRegistry()
	defer tmp.Cleanup()
	executor := &dedup.Executor{DryRun: cfg.DryRun, Tmp: tmp, Stats: cfg.Stats}

	for _, sp := range plans {
		if ctx.Err() != nil {
			break
		}
		for _, rec := range executor.Execute(ctx, sp.plan.Ops) {
			if rec.Kind == report.Failed {
				result.Failed = true
			}
			cfg.Reporter.Emit(rec)
		}
	}

	result.Snapshot = cfg.Stats.Snapshot()
	cfg.Reporter.Summary(result.Snapshot, cfg.DryRun)
	return result
}

// confirm asks once for the whole run. Only an explicit yes proceeds.
func confirm(in io.Reader, out io.Writer, pending int) bool {
	fmt.Fprintf(out, "replace %d duplicate files with hardlinks? [y/N] ", pending)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
