package internal

type StringSliceEOL []string

func (ss StringSliceEOL) String() (res string) {
	for _, s := range ss {
		if res != "" {
			res += "\n"
		}
		res += s
	}
	return
}
