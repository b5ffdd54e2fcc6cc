package joule

import "io"

type c2w struct {
	oc chan []byte
}

// Write hands a copy of p to the UI goroutine, callers such as bufio reuse p
func (c c2w) Write(p []byte) (n int, err error) {
	c.oc <- append([]byte(nil), p...)
	return len(p), nil
}

func newC2w(oc chan []byte) io.Writer {
	return c2w{oc: oc}
}
