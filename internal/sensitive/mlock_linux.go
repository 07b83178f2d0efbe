//go:build linux

package sensitive

import "golang.org/x/sys/unix"

// LockMemory wires the whole address space against paging so secrets never
// reach swap. Can fail when RLIMIT_MEMLOCK is below the KDF working set;
// the caller decides whether that is fatal.
func LockMemory() error {
	return unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
}
