package dedup

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"relink/internal/target"
)

const hashBufSize = 32 * 1024

// DigestStore is an optional persistent digest cache keyed by
// (path, size, mtime). A changed size or mtime must miss.
type DigestStore interface {
	Lookup(path string, size int64, mtime time.Time) (digest string, ok bool)
	Store(path string, size int64, mtime time.Time, digest string) error
}

// hashFile streams the file through BLAKE3 and returns the hex digest and
// the number of bytes read. buf is reused across calls by the same worker.
func hashFile(path string, buf []byte) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	n, err := io.CopyBuffer(h, f, buf)
	if err != nil {
		return "", n, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// digestAll computes digests for entries on a bounded pool of workers.
// Results and errors are positionally aligned with entries; an error leaves
// the corresponding digest empty and never affects other entries.
// The store, when non-nil, is consulted and updated on the control
// goroutine only; workers hash cache misses exclusively.
func (c *Classifier) digestAll(ctx context.Context, entries []target.FileEntry) ([]string, []error) {
	digests := make([]string, len(entries))
	errs := make([]error, len(entries))

	// Cache pass — single-threaded.
	var misses []int
	for i, e := range entries {
		if c.Store != nil {
			if d, ok := c.Store.Lookup(e.Path, e.Size, e.ModTime); ok {
				digests[i] = d
				c.Stats.AddCacheHits(1)
				continue
			}
		}
		misses = append(misses, i)
	}

	if len(misses) > 0 {
		workers := c.Workers
		if workers <= 0 {
			workers = defaultWorkers
		}

		jobs := make(chan int, workers)
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				buf := make([]byte, hashBufSize)
				for i := range jobs {
					// Each index is owned by exactly one worker; the
					// slices need no locking.
					d, n, err := c.hashFn(entries[i].Path, buf)
					c.Stats.AddBytesHashed(n)
					if err != nil {
						errs[i] = err
						continue
					}
					digests[i] = d
					c.Stats.AddFilesHashed(1)
				}
			}()
		}

	dispatch:
		for _, i := range misses {
			select {
			case <-ctx.Done():
				break dispatch
			case jobs <- i:
			}
		}
		close(jobs)
		wg.Wait()
	}

	// Store pass — single-threaded, after all workers are done.
	if c.Store != nil {
		for _, i := range misses {
			if errs[i] != nil || digests[i] == "" {
				continue
			}
			e := entries[i]
			if err := c.Store.Store(e.Path, e.Size, e.ModTime, digests[i]); err != nil {
				// Cache write failures are not classification failures.
				slog.Warn("digest cache store", "path", e.Path, "error", err)
			}
		}
	}

	return digests, errs
}
