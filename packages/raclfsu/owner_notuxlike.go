//go:build !unix

package raclfsu

import "os"

func Owner(fi os.FileInfo) (uid, gid uint32, ok bool) {
	return 0, 0, false
}
