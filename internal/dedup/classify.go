// Package dedup groups byte-identical files, plans which duplicate becomes a
// hardlink of which keeper, and performs the replacement.
package dedup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"relink/internal/stats"
	"relink/internal/target"
)

const defaultWorkers = 2

// Group is a verified set of byte-identical files within one target set,
// in traversal order.
type Group struct {
	Size    int64
	Digest  string
	Entries []target.FileEntry
}

// Classifier turns the files of one target set into duplicate groups:
// bucket by size, digest candidates on a worker pool, regroup by
// (size, digest), then verify true byte equality. Digest equality is only
// ever a filter; a group is trusted after its bytes have been compared.
type Classifier struct {
	Workers int
	Store   DigestStore // optional; nil disables caching
	Stats   *stats.Collector

	// hashFn is swapped out in tests to inject digest collisions.
	hashFn func(path string, buf []byte) (string, int64, error)
}

// NewClassifier creates a Classifier with the given pool size.
func NewClassifier(workers int, store DigestStore, st *stats.Collector) *Classifier {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Classifier{Workers: workers, Store: store, Stats: st, hashFn: hashFile}
}

// Classify returns the confirmed duplicate groups of files, ordered by the
// traversal position of each group's earliest member. The returned errors
// are per-file problems (failed hash or read); each one excluded only the
// affected file.
func (c *Classifier) Classify(ctx context.Context, files []target.FileEntry) ([]Group, []error) {
	candidates := sizeBuckets(files)
	c.Stats.AddCandidates(int64(len(candidates)))

	digests, hashErrs := c.digestAll(ctx, candidates)

	var problems []error
	for _, err := range hashErrs {
		if err != nil {
			problems = append(problems, err)
		}
	}

	var groups []Group
	for _, g := range digestBuckets(candidates, digests) {
		verified, errs := c.verify(g)
		problems = append(problems, errs...)
		groups = append(groups, verified...)
	}

	c.Stats.AddGroupsFound(int64(len(groups)))
	slog.Debug("classification done",
		"files", len(files),
		"candidates", len(candidates),
		"groups", len(groups),
		"errors", len(problems))
	return groups, problems
}

// sizeBuckets returns, in traversal order, every file whose size is shared
// by at least one other file. Singleton sizes cannot be duplicates and are
// dropped before any hashing.
func sizeBuckets(files []target.FileEntry) []target.FileEntry {
	counts := make(map[int64]int, len(files))
	for _, f := range files {
		counts[f.Size]++
	}
	var out []target.FileEntry
	for _, f := range files {
		if counts[f.Size] > 1 {
			out = append(out, f)
		}
	}
	return out
}

type sizeDigest struct {
	size   int64
	digest string
}

// digestBuckets regroups candidates by (size, digest), keeping only groups
// with at least two members. Group order follows the first-seen position of
// each key; entries with a failed digest are excluded.
func digestBuckets(candidates []target.FileEntry, digests []string) []Group {
	byKey := make(map[sizeDigest]int)
	var groups []Group
	for i, f := range candidates {
		if digests[i] == "" {
			continue
		}
		key := sizeDigest{size: f.Size, digest: digests[i]}
		gi, ok := byKey[key]
		if !ok {
			gi = len(groups)
			byKey[key] = gi
			groups = append(groups, Group{Size: f.Size, Digest: digests[i]})
		}
		groups[gi].Entries = append(groups[gi].Entries, f)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.Entries) >= 2 {
			out = append(out, g)
		}
	}
	return out
}

// verify splits a digest group into subgroups of files that are truly
// byte-identical. Every member is compared against the group head; members
// that mismatch (a digest collision) are regrouped among themselves.
// Unreadable members are dropped with an error.
func (c *Classifier) verify(g Group) ([]Group, []error) {
	if len(g.Entries) < 2 {
		return nil, nil
	}

	head := g.Entries[0]
	matched := []target.FileEntry{head}
	var mismatched []target.FileEntry
	var problems []error

	for _, e := range g.Entries[1:] {
		// Same inode means same bytes; no read needed.
		if e.DevIno == head.DevIno {
			matched = append(matched, e)
			continue
		}
		equal, err := sameBytes(head.Path, e.Path)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		if equal {
			matched = append(matched, e)
		} else {
			slog.Warn("digest collision detected",
				"digest", g.Digest, "a", head.Path, "b", e.Path)
			mismatched = append(mismatched, e)
		}
	}

	var out []Group
	if len(matched) >= 2 {
		out = append(out, Group{Size: g.Size, Digest: g.Digest, Entries: matched})
	}
	if len(mismatched) >= 2 {
		sub, errs := c.verify(Group{Size: g.Size, Digest: g.Digest, Entries: mismatched})
		out = append(out, sub...)
		problems = append(problems, errs...)
	}
	return out, problems
}

// sameBytes reports whether the two files have identical content,
// short-circuiting on the first differing chunk.
func sameBytes(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", a, err)
	}
	defer fa.Close()

	fb, err := os.Open(b)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", b, err)
	}
	defer fb.Close()

	bufA := make([]byte, hashBufSize)
	bufB := make([]byte, hashBufSize)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		aEOF := errA == io.EOF || errA == io.ErrUnexpectedEOF
		bEOF := errB == io.EOF || errB == io.ErrUnexpectedEOF
		switch {
		case errA != nil && !aEOF:
			return false, fmt.Errorf("read %s: %w", a, errA)
		case errB != nil && !bEOF:
			return false, fmt.Errorf("read %s: %w", b, errB)
		case aEOF && bEOF:
			return true, nil
		case aEOF != bEOF:
			// Sizes matched at stat time; a concurrent write changed one.
			return false, nil
		}
	}
}
