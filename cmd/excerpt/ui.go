package main

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/xhad/excerpt/internal/models"
	"github.com/xhad/excerpt/pkg/relevance"
)

// Spinners and summaries go to stderr; stdout carries excerpts and JSON.
func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func printStats(outcome relevance.Outcome, originalChars int) {
	stats := outcome.Stats
	summary := color.New(color.FgGreen).FprintfFunc()
	if outcome.Degraded() {
		color.New(color.FgYellow).Fprintf(os.Stderr, "\n! Degraded ranking: %s\n", outcome.Reason)
	}
	summary(os.Stderr, "\n✓ %s: %d/%d chunks selected from %d matches (%d keys",
		stats.Strategy, stats.ChunksSelected, stats.ChunksAnalyzed, stats.MatchesFound, stats.KeysProcessed)
	if stats.KeysSkipped > 0 {
		summary(os.Stderr, ", %d skipped", stats.KeysSkipped)
	}
	if len(stats.Algorithms) > 0 {
		summary(os.Stderr, ", %s", strings.Join(stats.Algorithms, "+"))
	}
	summary(os.Stderr, ") in %s\n", stats.Duration)
	summary(os.Stderr, "  %d → %d chars\n", originalChars, len([]rune(outcome.Text())))
}

func printReduction(result models.ExtractionResult) {
	r := result.Reduction
	if result.Cache.Hit {
		color.New(color.FgBlue).Fprintf(os.Stderr, "✓ Cache hit %s\n", result.Cache.Key)
		return
	}
	if r.Status == string(relevance.StatusDegraded) {
		color.New(color.FgYellow).Fprintf(os.Stderr, "! Degraded reduction: %s\n", r.Reason)
	}
	line := color.New(color.FgGreen).FprintfFunc()
	line(os.Stderr, "✓ %s: %d → %d chars, %d excerpts", r.Strategy, r.OriginalChars, r.ReducedChars, r.Excerpts)
	if r.OriginalTokens > 0 {
		line(os.Stderr, ", %d → %d tokens", r.OriginalTokens, r.ReducedTokens)
	}
	line(os.Stderr, " in %.2fs\n", result.Performance.ExecutionTime)
}
