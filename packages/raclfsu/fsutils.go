// Package raclfsu converts file modes between afero and the POSIX bits
// exchanged with peers, and applies the mode fixup following ACL writes.
package raclfsu

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/t-beigbeder/otvl_racl/packages/racl"
)

// PosixMode returns the st_mode bits of fm
func PosixMode(fm os.FileMode) uint32 {
	mode := uint32(fm.Perm())
	if fm&os.ModeSetuid != 0 {
		mode |= racl.ModeSetuid
	}
	if fm&os.ModeSetgid != 0 {
		mode |= racl.ModeSetgid
	}
	if fm&os.ModeSticky != 0 {
		mode |= racl.ModeSticky
	}
	switch {
	case fm.IsDir():
		mode |= racl.ModeDir
	case fm&os.ModeSymlink != 0:
		mode |= racl.ModeSymlink
	case fm.IsRegular():
		mode |= racl.ModeRegular
	}
	return mode
}

// FileMode returns the permission and special bits of mode for a chmod
func FileMode(mode uint32) os.FileMode {
	fm := os.FileMode(mode & racl.AccessPerms)
	if mode&racl.ModeSetuid != 0 {
		fm |= os.ModeSetuid
	}
	if mode&racl.ModeSetgid != 0 {
		fm |= os.ModeSetgid
	}
	if mode&racl.ModeSticky != 0 {
		fm |= os.ModeSticky
	}
	return fm
}

func GetFileMode(afs afero.Fs, path string) (mode uint32, ro bool, err error) {
	fi, err := afs.Stat(path)
	if err != nil {
		return 0, false, fmt.Errorf("in GetFileMode: %w", err)
	}
	return PosixMode(fi.Mode()), fi.Mode()&0200 == 0, nil
}

// NewMode returns the mode of a missing entry created on the receiving side:
// the sender type and permissions, restricted to the default permissions
// of its parent and without special bits
func NewMode(flistMode, dfltPerms uint32) uint32 {
	return flistMode & (^racl.ChmodBits | dfltPerms)
}

// FixMode sets the mode of path to target when cur, the mode known to be
// on disk, differs on chmod bits. It returns whether chmod was called.
func FixMode(afs afero.Fs, path string, cur, target uint32) (bool, error) {
	if cur&racl.ChmodBits == target&racl.ChmodBits {
		return false, nil
	}
	if err := afs.Chmod(path, FileMode(target)); err != nil {
		return false, fmt.Errorf("in FixMode: %w", err)
	}
	return true, nil
}
