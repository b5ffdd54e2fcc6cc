package internal

import (
	"fmt"
	"strconv"
	"strings"
)

// ModeToStr renders POSIX mode bits the way ls does, eg drwxr-sr-t
func ModeToStr(mode uint32) string {
	bs := []byte("----------")
	switch mode & 0o170000 {
	case 0o040000:
		bs[0] = 'd'
	case 0o120000:
		bs[0] = 'l'
	}
	const rwx = "rwx"
	for i := 0; i < 9; i++ {
		if mode&(1<<(8-i)) != 0 {
			bs[1+i] = rwx[i%3]
		}
	}
	special := func(bit uint32, pos int, set, unset byte) {
		if mode&bit == 0 {
			return
		}
		if bs[pos] == 'x' {
			bs[pos] = set
		} else {
			bs[pos] = unset
		}
	}
	special(0o4000, 3, 's', 'S')
	special(0o2000, 6, 's', 'S')
	special(0o1000, 9, 't', 'T')
	return string(bs)
}

// StrToOctal parses an octal value such as 022, 0755 or 0o755 not above max
func StrToOctal(s string, max uint32) (uint32, error) {
	ds := strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0O")
	v, err := strconv.ParseUint(ds, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid octal value %s: %v", s, err)
	}
	if uint32(v) > max {
		return 0, fmt.Errorf("octal value %s above %o", s, max)
	}
	return uint32(v), nil
}
