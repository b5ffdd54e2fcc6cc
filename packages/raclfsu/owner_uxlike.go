//go:build unix

package raclfsu

import (
	"os"
	"syscall"
)

// Owner returns the owning user and group of fi when the platform tells them
func Owner(fi os.FileInfo) (uid, gid uint32, ok bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return st.Uid, st.Gid, true
}
