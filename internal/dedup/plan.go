package dedup

import (
	"sort"

	"relink/internal/stats"
	"relink/internal/target"
)

// Op is one planned replacement: Duplicate's path will become a hardlink to
// Keeper's inode. AlreadyLinked ops carry no work; they are kept so the
// report stream stays complete and ordered.
type Op struct {
	Keeper        target.FileEntry
	Duplicate     target.FileEntry
	AlreadyLinked bool
}

// Plan is the ordered list of operations for one target set.
type Plan struct {
	Ops []Op
}

// Pending returns the number of operations that would mutate the filesystem.
func (p Plan) Pending() int {
	n := 0
	for _, op := range p.Ops {
		if !op.AlreadyLinked {
			n++
		}
	}
	return n
}

// BuildPlan chooses a keeper per group and emits link operations. The keeper
// is the lexicographically smallest path in the group, which makes the
// choice reproducible regardless of traversal or scheduling order. Ops
// follow group order, then lexicographic member order within a group.
func BuildPlan(groups []Group, st *stats.Collector) Plan {
	var plan Plan
	for _, g := range groups {
		members := make([]target.FileEntry, len(g.Entries))
		copy(members, g.Entries)
		sort.Slice(members, func(i, j int) bool { return members[i].Path < members[j].Path })

		keeper := members[0]
		for _, m := range members[1:] {
			op := Op{Keeper: keeper, Duplicate: m, AlreadyLinked: m.DevIno == keeper.DevIno}
			if op.AlreadyLinked {
				st.AddLinksSkipped(1)
			} else {
				st.AddLinksPlanned(1)
			}
			plan.Ops = append(plan.Ops, op)
		}
	}
	return plan
}
