package sysacl

import "fmt"

// ModeSystem is used where no ACL support exists,
// the mode bits are the only permissions a path carries
type ModeSystem struct{}

func (ModeSystem) Get(path string, typ Type) (SysAcl, error) {
	return nil, fmt.Errorf("%w: Get(%s, %s)", ErrUnsupported, path, typ)
}

func (ModeSystem) Set(path string, typ Type, sa SysAcl) error {
	return fmt.Errorf("%w: Set(%s, %s)", ErrUnsupported, path, typ)
}

func (ModeSystem) DeleteDefault(path string) error {
	return fmt.Errorf("%w: DeleteDefault(%s)", ErrUnsupported, path)
}

func (ModeSystem) Capabilities() Capabilities { return Capabilities{} }
