package dedup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"relink/internal/report"
	"relink/internal/stats"
)

// Executor performs (or, in dry-run, simulates) the link operations of one
// plan, serially and in order. Failures are isolated per operation.
type Executor struct {
	DryRun bool
	Tmp    *TmpRegistry
	Stats  *stats.Collector
}

// Execute consumes ops in order and returns one record per op. Cancellation
// stops before the next operation; completed links stay durable.
func (e *Executor) Execute(ctx context.Context, ops []Op) []report.Record {
	records := make([]report.Record, 0, len(ops))
	for _, op := range ops {
		select {
		case <-ctx.Done():
			return records
		default:
		}
		records = append(records, e.execute(op))
	}
	return records
}

func (e *Executor) execute(op Op) report.Record {
	rec := report.Record{
		Keeper:    op.Keeper.Path,
		Duplicate: op.Duplicate.Path,
		Size:      op.Duplicate.Size,
	}

	if op.AlreadyLinked {
		rec.Kind = report.AlreadyLinked
		return rec
	}

	if e.DryRun {
		rec.Kind = report.WouldLink
		return rec
	}

	if err := e.link(op); err != nil {
		rec.Kind = report.Failed
		rec.Err = err
		e.Stats.AddLinksFailed(1)
		return rec
	}

	rec.Kind = report.Linked
	e.Stats.AddLinksCreated(1)
	e.Stats.AddBytesReclaimed(op.Duplicate.Size)
	return rec
}

// link replaces the duplicate with a hardlink to the keeper: link the
// keeper's inode to a unique temporary name in the duplicate's directory,
// then rename it over the duplicate. The rename is atomic, so a concurrent
// reader sees either the old content or the linked inode, never a missing
// path. A failed link leaves the original untouched; a failed rename
// removes the temporary, best effort.
func (e *Executor) link(op Op) error {
	dir := filepath.Dir(op.Duplicate.Path)
	base := filepath.Base(op.Duplicate.Path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.relink-tmp", base, uuid.New().String()[:8]))

	e.Tmp.Register(tmp)
	defer e.Tmp.Deregister(tmp)

	if err := os.Link(op.Keeper.Path, tmp); err != nil {
		return fmt.Errorf("link %s: %w", op.Keeper.Path, err)
	}
	if err := os.Rename(tmp, op.Duplicate.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename over %s: %w", op.Duplicate.Path, err)
	}
	return nil
}
