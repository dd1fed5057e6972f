package report

import (
	"fmt"
	"io"

	"relink/internal/stats"
)

// Reporter writes records for one run. The data stream (W) and the
// diagnostic stream (ErrW) are kept strictly separate so raw output stays
// machine-parseable.
type Reporter struct {
	W    io.Writer
	ErrW io.Writer

	// Raw switches to the two-column tab-separated contract:
	// "keeper\tduplicate\n" per (would-)link record, nothing else on W.
	// Verbosity is ignored in raw mode.
	Raw bool

	// Brace enables prefix/{a,b}/suffix compaction in human mode.
	Brace bool

	// Verbosity is the net of --verbose and --quiet counters.
	Verbosity int
}

// visibleAt is the minimum verbosity at which each record kind is shown in
// human mode. Failures survive one level of quieting; a second -q silences
// everything.
func visibleAt(k Kind) int {
	switch k {
	case AlreadyLinked:
		return 1
	case Failed:
		return -1
	default:
		return 0
	}
}

// Emit writes a single record.
func (r *Reporter) Emit(rec Record) {
	if r.Raw {
		switch rec.Kind {
		case Linked, WouldLink:
			fmt.Fprintf(r.W, "%s\t%s\n", rec.Keeper, rec.Duplicate)
		case Failed:
			fmt.Fprintf(r.ErrW, "relink: %s: %v\n", rec.Duplicate, rec.Err)
		}
		return
	}

	if r.Verbosity < visibleAt(rec.Kind) {
		return
	}

	switch rec.Kind {
	case Failed:
		fmt.Fprintf(r.ErrW, "failed: %s: %v\n", rec.Duplicate, rec.Err)
	default:
		fmt.Fprintf(r.W, "%s: %s\n", rec.Kind, r.pair(rec))
	}
}

func (r *Reporter) pair(rec Record) string {
	if r.Brace {
		if s, ok := Compact(rec.Keeper, rec.Duplicate); ok {
			return s
		}
	}
	return rec.Keeper + " <- " + rec.Duplicate
}

// Summary writes the end-of-run totals to the diagnostic stream. Silent in
// raw mode and below default verbosity.
func (r *Reporter) Summary(snap stats.Snapshot, dryRun bool) {
	if r.Raw || r.Verbosity < 0 {
		return
	}

	verb := "linked"
	linked := snap.LinksCreated
	if dryRun {
		verb = "would link"
		linked = snap.LinksPlanned - snap.LinksFailed
	}
	fmt.Fprintf(r.ErrW, "%s %s of %s duplicates in %s groups, reclaiming %s (%s files scanned, %s hashed)\n",
		verb,
		FormatCount(linked),
		FormatCount(snap.LinksPlanned),
		FormatCount(snap.GroupsFound),
		FormatBytes(snap.BytesReclaimed),
		FormatCount(snap.FilesScanned),
		FormatCount(snap.FilesHashed))
	if snap.LinksFailed > 0 || snap.SetsFailed > 0 || snap.PathErrors > 0 {
		fmt.Fprintf(r.ErrW, "errors: %s link failures, %s failed sets, %s skipped paths\n",
			FormatCount(snap.LinksFailed),
			FormatCount(snap.SetsFailed),
			FormatCount(snap.PathErrors))
	}
}
