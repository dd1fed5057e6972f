// Package platform extracts filesystem identity metadata (device and inode
// numbers) from the OS-specific stat structures.
package platform

// DevIno uniquely identifies an inode across a whole host.
// Two paths with equal DevIno are the same file.
type DevIno struct {
	Dev uint64
	Ino uint64
}
