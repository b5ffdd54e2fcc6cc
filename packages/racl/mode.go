package racl

// POSIX mode bits, as exchanged on the wire and stored in File records
const (
	ModeSetuid   uint32 = 0o4000
	ModeSetgid   uint32 = 0o2000
	ModeSticky   uint32 = 0o1000
	ModeSpecial         = ModeSetuid | ModeSetgid | ModeSticky
	ModeDir      uint32 = 0o040000
	ModeRegular  uint32 = 0o100000
	ModeSymlink  uint32 = 0o120000
	ModeType     uint32 = 0o170000
	AccessPerms  uint32 = 0o777
	ChmodBits    uint32 = 0o7777
	groupOtherRW uint32 = 0o077
)

func IsDir(mode uint32) bool { return mode&ModeType == ModeDir }
