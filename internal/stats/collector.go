// Package stats tracks run counters using lock-free atomics so the hashing
// workers can report without contending with the control goroutine.
package stats

import (
	"sync/atomic"
	"time"
)

// Collector accumulates counters for a whole run (all target sets).
type Collector struct {
	filesScanned   atomic.Int64
	candidates     atomic.Int64
	filesHashed    atomic.Int64
	bytesHashed    atomic.Int64
	groupsFound    atomic.Int64
	linksPlanned   atomic.Int64
	linksCreated   atomic.Int64
	linksSkipped   atomic.Int64
	linksFailed    atomic.Int64
	bytesReclaimed atomic.Int64
	pathErrors     atomic.Int64
	setsFailed     atomic.Int64
	cacheHits      atomic.Int64
	startTime      time.Time
}

// NewCollector creates a Collector with the start time set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) AddFilesScanned(n int64)   { c.filesScanned.Add(n) }
func (c *Collector) AddCandidates(n int64)     { c.candidates.Add(n) }
func (c *Collector) AddFilesHashed(n int64)    { c.filesHashed.Add(n) }
func (c *Collector) AddBytesHashed(n int64)    { c.bytesHashed.Add(n) }
func (c *Collector) AddGroupsFound(n int64)    { c.groupsFound.Add(n) }
func (c *Collector) AddLinksPlanned(n int64)   { c.linksPlanned.Add(n) }
func (c *Collector) AddLinksCreated(n int64)   { c.linksCreated.Add(n) }
func (c *Collector) AddLinksSkipped(n int64)   { c.linksSkipped.Add(n) }
func (c *Collector) AddLinksFailed(n int64)    { c.linksFailed.Add(n) }
func (c *Collector) AddBytesReclaimed(n int64) { c.bytesReclaimed.Add(n) }
func (c *Collector) AddPathErrors(n int64)     { c.pathErrors.Add(n) }
func (c *Collector) AddSetsFailed(n int64)     { c.setsFailed.Add(n) }
func (c *Collector) AddCacheHits(n int64)      { c.cacheHits.Add(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesScanned   int64
	Candidates     int64
	FilesHashed    int64
	BytesHashed    int64
	GroupsFound    int64
	LinksPlanned   int64
	LinksCreated   int64
	LinksSkipped   int64
	LinksFailed    int64
	BytesReclaimed int64
	PathErrors     int64
	SetsFailed     int64
	CacheHits      int64
	Elapsed        time.Duration
}

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesScanned:   c.filesScanned.Load(),
		Candidates:     c.candidates.Load(),
		FilesHashed:    c.filesHashed.Load(),
		BytesHashed:    c.bytesHashed.Load(),
		GroupsFound:    c.groupsFound.Load(),
		LinksPlanned:   c.linksPlanned.Load(),
		LinksCreated:   c.linksCreated.Load(),
		LinksSkipped:   c.linksSkipped.Load(),
		LinksFailed:    c.linksFailed.Load(),
		BytesReclaimed: c.bytesReclaimed.Load(),
		PathErrors:     c.pathErrors.Load(),
		SetsFailed:     c.setsFailed.Load(),
		CacheHits:      c.cacheHits.Load(),
		Elapsed:        c.Elapsed(),
	}
}

// Elapsed returns the time since the collector was created.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}
