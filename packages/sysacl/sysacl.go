// Package sysacl gives access to the ACLs the platform stores for a path.
//
// A SysAcl is the native form of an ACL: an unordered list of tagged
// entries as the kernel knows them. Package racl converts it to and from
// its normalized representation.
package sysacl

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Type tells which of the two ACLs of a path is addressed
type Type int

const (
	Access Type = iota
	Default
)

func (typ Type) String() string {
	switch typ {
	case Access:
		return "ACL_TYPE_ACCESS"
	case Default:
		return "ACL_TYPE_DEFAULT"
	}
	return "unknown ACL type"
}

// Tag values are the ones of the Linux system.posix_acl_* extended attributes
type Tag uint16

const (
	UserObj  Tag = 0x01
	User     Tag = 0x02
	GroupObj Tag = 0x04
	Group    Tag = 0x08
	Mask     Tag = 0x10
	Other    Tag = 0x20
)

func (tag Tag) String() string {
	switch tag {
	case UserObj:
		return "user_obj"
	case User:
		return "user"
	case GroupObj:
		return "group_obj"
	case Group:
		return "group"
	case Mask:
		return "mask"
	case Other:
		return "other"
	}
	return fmt.Sprintf("tag(%#x)", uint16(tag))
}

// Qualified is true for tags carrying a user or group id
func (tag Tag) Qualified() bool { return tag == User || tag == Group }

// UndefinedID is stored as the id of entries without qualifier
const UndefinedID = ^uint32(0)

type Entry struct {
	Tag  Tag
	Perm uint16
	ID   uint32
}

// SysAcl is the native ACL handle
type SysAcl []Entry

func (sa SysAcl) Clone() SysAcl {
	if sa == nil {
		return nil
	}
	return append(SysAcl{}, sa...)
}

func (sa SysAcl) String() string {
	var sb strings.Builder
	for i, e := range sa {
		if i > 0 {
			sb.WriteByte(',')
		}
		if e.Tag.Qualified() {
			fmt.Fprintf(&sb, "%s:%d:%o", e.Tag, e.ID, e.Perm)
		} else {
			fmt.Fprintf(&sb, "%s::%o", e.Tag, e.Perm)
		}
	}
	return sb.String()
}

// Sorted returns a copy ordered as the kernel stores entries: by tag then by id
func (sa SysAcl) Sorted() SysAcl {
	ssa := sa.Clone()
	sort.SliceStable(ssa, func(i, j int) bool {
		if ssa[i].Tag != ssa[j].Tag {
			return ssa[i].Tag < ssa[j].Tag
		}
		return ssa[i].ID < ssa[j].ID
	})
	return ssa
}

// ErrInvalid is returned by Valid when the ACL could not be stored by the kernel
var ErrInvalid = errors.New("invalid ACL")

// Valid checks the entries make a well formed POSIX ACL, an empty ACL is valid
func (sa SysAcl) Valid() error {
	if len(sa) == 0 {
		return nil
	}
	counts := map[Tag]int{}
	ids := map[Entry]bool{}
	for _, e := range sa {
		if e.Perm&^7 != 0 {
			return fmt.Errorf("%w: %s permission %#o out of range", ErrInvalid, e.Tag, e.Perm)
		}
		switch e.Tag {
		case UserObj, GroupObj, Mask, Other:
			counts[e.Tag]++
			if counts[e.Tag] > 1 {
				return fmt.Errorf("%w: duplicate %s entry", ErrInvalid, e.Tag)
			}
		case User, Group:
			counts[e.Tag]++
			k := Entry{Tag: e.Tag, ID: e.ID}
			if ids[k] {
				return fmt.Errorf("%w: duplicate %s entry for id %d", ErrInvalid, e.Tag, e.ID)
			}
			ids[k] = true
		default:
			return fmt.Errorf("%w: unknown tag %s", ErrInvalid, e.Tag)
		}
	}
	if counts[UserObj] != 1 || counts[GroupObj] != 1 || counts[Other] != 1 {
		return fmt.Errorf("%w: user_obj, group_obj and other entries are required", ErrInvalid)
	}
	if counts[User]+counts[Group] > 0 && counts[Mask] == 0 {
		return fmt.Errorf("%w: mask entry required with named entries", ErrInvalid)
	}
	return nil
}

// Capabilities describes how the platform ACL implementation behaves,
// it is probed once per run
type Capabilities struct {
	NeedsMask            bool // a mask entry is always present
	NeedsSort            bool // named user entries must precede named group entries, ids ascending
	LosesSpecialModeBits bool // writing an ACL clears setuid, setgid and sticky bits
}

// System is the native ACL access of a platform
type System interface {
	// Get returns the ACL of the given type for path,
	// an error matching ErrUnsupported if path has no ACL support
	Get(path string, typ Type) (SysAcl, error)
	// Set replaces the ACL of the given type for path
	Set(path string, typ Type, sa SysAcl) error
	// DeleteDefault removes the default ACL of the directory path
	DeleteDefault(path string) error
	Capabilities() Capabilities
}

// ErrUnsupported is matched by errors returned when a path does not support ACLs
var ErrUnsupported = errors.New("ACLs are not supported")

func IsUnsupported(err error) bool { return errors.Is(err, ErrUnsupported) }

// FromPerms builds the minimal ACL equivalent to permission bits
func FromPerms(perm uint32) SysAcl {
	return SysAcl{
		{Tag: UserObj, Perm: uint16(perm>>6) & 7, ID: UndefinedID},
		{Tag: GroupObj, Perm: uint16(perm>>3) & 7, ID: UndefinedID},
		{Tag: Other, Perm: uint16(perm) & 7, ID: UndefinedID},
	}
}

// PermsOf returns the permission bits an access ACL sets on the file mode
func (sa SysAcl) PermsOf() (perm uint32) {
	var group, mask uint16
	hasMask := false
	for _, e := range sa {
		switch e.Tag {
		case UserObj:
			perm |= uint32(e.Perm&7) << 6
		case GroupObj:
			group = e.Perm & 7
		case Mask:
			mask, hasMask = e.Perm&7, true
		case Other:
			perm |= uint32(e.Perm & 7)
		}
	}
	if hasMask {
		group = mask
	}
	return perm | uint32(group)<<3
}

// Extended is true when the ACL holds more than what permission bits express
func (sa SysAcl) Extended() bool {
	for _, e := range sa {
		if e.Tag == User || e.Tag == Group || e.Tag == Mask {
			return true
		}
	}
	return false
}
