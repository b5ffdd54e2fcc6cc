//go:build linux

package sysacl

import (
	"errors"
	"fmt"

	"github.com/pkg/xattr"
	"golang.org/x/sys/unix"
)

// XattrSystem reads and writes ACLs through the system.posix_acl_* extended attributes
type XattrSystem struct{}

func NewXattrSystem() *XattrSystem { return &XattrSystem{} }

// Native returns the ACL implementation of the running platform
func Native() System { return NewXattrSystem() }

func errnoOf(err error) error {
	var xe *xattr.Error
	if errors.As(err, &xe) {
		return xe.Err
	}
	return err
}

func classify(op, path string, typ Type, err error) error {
	switch errnoOf(err) {
	case unix.ENOTSUP, unix.ENOSYS:
		return fmt.Errorf("%w: %s(%s, %s): %v", ErrUnsupported, op, path, typ, err)
	}
	return fmt.Errorf("in %s(%s, %s): %w", op, path, typ, err)
}

func isNoAttr(err error) bool { return errnoOf(err) == unix.ENODATA }

func (xs *XattrSystem) Get(path string, typ Type) (SysAcl, error) {
	bs, err := xattr.Get(path, xattrName(typ))
	if err != nil {
		if !isNoAttr(err) {
			return nil, classify("Get", path, typ, err)
		}
		if typ == Default {
			return SysAcl{}, nil
		}
		// no extended ACL stored, the mode is the ACL
		var st unix.Stat_t
		if err = unix.Stat(path, &st); err != nil {
			return nil, fmt.Errorf("in Get(%s, %s): %w", path, typ, err)
		}
		return FromPerms(st.Mode & 0o777), nil
	}
	sa, err := Decode(bs)
	if err != nil {
		return nil, fmt.Errorf("in Get(%s, %s): %w", path, typ, err)
	}
	return sa, nil
}

func (xs *XattrSystem) Set(path string, typ Type, sa SysAcl) error {
	if typ == Default && len(sa) == 0 {
		return xs.DeleteDefault(path)
	}
	if err := xattr.Set(path, xattrName(typ), Encode(sa)); err != nil {
		return classify("Set", path, typ, err)
	}
	return nil
}

func (xs *XattrSystem) DeleteDefault(path string) error {
	if err := xattr.Remove(path, XattrDefault); err != nil && !isNoAttr(err) {
		return classify("DeleteDefault", path, Default, err)
	}
	return nil
}

// Capabilities are fixed on Linux: the kernel neither requires a mask without
// named entries nor sorted entries, and keeps the setuid, setgid and sticky
// bits when an ACL is written
func (xs *XattrSystem) Capabilities() Capabilities { return Capabilities{} }
