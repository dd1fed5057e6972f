//go:build linux

package platform

import (
	"fmt"
	"io/fs"
	"syscall"

	"golang.org/x/sys/unix"
)

// Stat extracts the device/inode pair from a FileInfo obtained via
// os.Lstat or DirEntry.Info.
func Stat(info fs.FileInfo) (DevIno, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return DevIno{}, false
	}
	return DevIno{Dev: st.Dev, Ino: st.Ino}, true
}

// DeviceOf returns the device number of path, following symlinks.
// Used to establish the device identity of a root directory.
func DeviceOf(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return st.Dev, nil
}
