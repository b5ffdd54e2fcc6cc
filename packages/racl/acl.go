// Package racl holds the normalized representation of POSIX ACLs, the
// tables deduplicating them during a transfer, their wire encoding and
// the logic applying them to files.
//
// An Acl has four optional permission slots for the owning user, the
// owning group, the mask and others, plus an ordered list of named user
// and group entries. A Session is the context of a run on one side of the
// transfer: it owns the access and default ACL tables.
package racl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Perm holds read, write and execute bits
type Perm uint8

const (
	PermExecute Perm = 1
	PermWrite   Perm = 2
	PermRead    Perm = 4
	PermAll     Perm = 7
)

func (p Perm) String() string {
	bs := []byte("---")
	if p&PermRead != 0 {
		bs[0] = 'r'
	}
	if p&PermWrite != 0 {
		bs[1] = 'w'
	}
	if p&PermExecute != 0 {
		bs[2] = 'x'
	}
	return string(bs)
}

// ParsePerm accepts an octal digit or a combination of the 'rwx-' characters
func ParsePerm(s string) (Perm, error) {
	if len(s) == 1 && s[0] >= '0' && s[0] <= '7' {
		return Perm(s[0] - '0'), nil
	}
	var p Perm
	for _, char := range s {
		if char == 'r' {
			p |= PermRead
		} else if char == 'w' {
			p |= PermWrite
		} else if char == 'x' {
			p |= PermExecute
		} else if char != '-' {
			return 0, fmt.Errorf("invalid character %c for access right (not in 'rwx-')", char)
		}
	}
	return p, nil
}

// Slot is an optional permission, the zero value is absent
type Slot struct {
	perm    Perm
	present bool
}

// Has returns a present slot
func Has(p Perm) Slot { return Slot{perm: p & PermAll, present: true} }

func (s Slot) Present() bool { return s.present }

// Perm returns the permission of a present slot, 0 otherwise
func (s Slot) Perm() Perm {
	if !s.present {
		return 0
	}
	return s.perm
}

func (s Slot) String() string {
	if !s.present {
		return "<none>"
	}
	return s.perm.String()
}

// NamedEntry grants permissions to a user or a group other than the owners
type NamedEntry struct {
	ID     uint32
	Perm   Perm
	IsUser bool
}

func (ne NamedEntry) String() string {
	tag := "group"
	if ne.IsUser {
		tag = "user"
	}
	return fmt.Sprintf("%s:%d:%s", tag, ne.ID, ne.Perm)
}

type Acl struct {
	UserObj  Slot
	GroupObj Slot
	MaskObj  Slot
	OtherObj Slot
	Names    []NamedEntry
}

// IsEmpty is true for an ACL without any entry, the value of a missing default ACL
func (acl *Acl) IsEmpty() bool {
	return !acl.UserObj.present && !acl.GroupObj.present && !acl.MaskObj.present && !acl.OtherObj.present && len(acl.Names) == 0
}

func namesEqual(n1, n2 []NamedEntry) bool {
	if len(n1) != len(n2) {
		return false
	}
	for i := range n1 {
		if n1[i] != n2[i] {
			return false
		}
	}
	return true
}

// Equal compares the four slots and the sequence of named entries
func (acl *Acl) Equal(other *Acl) bool {
	return acl.UserObj == other.UserObj &&
		acl.GroupObj == other.GroupObj &&
		acl.MaskObj == other.MaskObj &&
		acl.OtherObj == other.OtherObj &&
		namesEqual(acl.Names, other.Names)
}

// EqualEnough tells if the full ACL read from a file needs no change
// to match the condensed ACL cached, given the mode the file will have.
// Permission slots are not compared as the mode restores them.
func (acl *Acl) EqualEnough(cached *Acl, mode uint32) bool {
	if acl.MaskObj.present != cached.MaskObj.present {
		return false
	}
	// with a mask the owning group becomes an extended entry
	if acl.MaskObj.present {
		if !cached.GroupObj.present {
			// condensed only when it was identical to the mode group bits
			if acl.GroupObj != Has(Perm(mode>>3)) {
				return false
			}
		} else if acl.GroupObj != cached.GroupObj {
			return false
		}
	}
	return namesEqual(acl.Names, cached.Names)
}

// Perms returns the permission bits of the mode matching the ACL,
// the mask stands for the group when present
func (acl *Acl) Perms() uint32 {
	group := acl.GroupObj
	if acl.MaskObj.present {
		group = acl.MaskObj
	}
	return uint32(acl.UserObj.Perm())<<6 | uint32(group.Perm())<<3 | uint32(acl.OtherObj.Perm())
}

// StripPerms removes the slots that the file mode allows to rebuild
func (acl *Acl) StripPerms() {
	acl.UserObj = Slot{}
	if !acl.MaskObj.present {
		acl.GroupObj = Slot{}
	} else {
		if acl.GroupObj == acl.MaskObj {
			acl.GroupObj = Slot{}
		}
		acl.MaskObj = Slot{}
	}
	acl.OtherObj = Slot{}
}

// FromMode builds the ACL equivalent to the permission bits of mode
func FromMode(mode uint32) *Acl {
	return &Acl{
		UserObj:  Has(Perm(mode >> 6)),
		GroupObj: Has(Perm(mode >> 3)),
		OtherObj: Has(Perm(mode)),
	}
}

// SortNames orders named entries users first then by ascending id
func (acl *Acl) SortNames() {
	sort.SliceStable(acl.Names, func(i, j int) bool {
		ni, nj := acl.Names[i], acl.Names[j]
		if ni.IsUser != nj.IsUser {
			return ni.IsUser
		}
		return ni.ID < nj.ID
	})
}

func (acl *Acl) Clone() *Acl {
	cacl := *acl
	if acl.Names != nil {
		cacl.Names = append([]NamedEntry{}, acl.Names...)
	}
	return &cacl
}

// String renders the ACL in the getfacl short text form, absent slots are omitted
func (acl *Acl) String() string {
	var entries []string
	add := func(tag string, s Slot) {
		if s.present {
			entries = append(entries, tag+"::"+s.perm.String())
		}
	}
	addNames := func(isUser bool) {
		for _, ne := range acl.Names {
			if ne.IsUser == isUser {
				entries = append(entries, ne.String())
			}
		}
	}
	add("user", acl.UserObj)
	addNames(true)
	add("group", acl.GroupObj)
	addNames(false)
	add("mask", acl.MaskObj)
	add("other", acl.OtherObj)
	return strings.Join(entries, ",")
}

var longTags = map[string]string{"u": "user", "g": "group", "m": "mask", "o": "other"}

// ParseAcl converts a comma separated list of <tag:[id]:rights> strings,
// named entries keep the order in which they are given
func ParseAcl(text string) (*Acl, error) {
	acl := &Acl{}
	if strings.TrimSpace(text) == "" {
		return acl, nil
	}
	for _, sac := range strings.Split(text, ",") {
		sac = strings.TrimSpace(sac)
		sacsubs := strings.Split(sac, ":")
		if len(sacsubs) == 2 {
			sacsubs = []string{sacsubs[0], "", sacsubs[1]}
		}
		if len(sacsubs) != 3 {
			return nil, fmt.Errorf("invalid ACL string %s, not <tag:[id]:rights>", sac)
		}
		tag, sid, rights := sacsubs[0], sacsubs[1], sacsubs[2]
		if lt, ok := longTags[tag]; ok {
			tag = lt
		}
		p, err := ParsePerm(rights)
		if err != nil {
			return nil, fmt.Errorf("in ParseAcl: %w", err)
		}
		if sid != "" {
			if tag != "user" && tag != "group" {
				return nil, fmt.Errorf("invalid ACL string %s, no id allowed for %s", sac, tag)
			}
			id, err := strconv.ParseUint(sid, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid ACL string %s, id %s is not numeric", sac, sid)
			}
			acl.Names = append(acl.Names, NamedEntry{ID: uint32(id), Perm: p, IsUser: tag == "user"})
			continue
		}
		var slot *Slot
		switch tag {
		case "user":
			slot = &acl.UserObj
		case "group":
			slot = &acl.GroupObj
		case "mask":
			slot = &acl.MaskObj
		case "other":
			slot = &acl.OtherObj
		default:
			return nil, fmt.Errorf("invalid ACL string %s, unknown tag %s", sac, tag)
		}
		if slot.present {
			return nil, fmt.Errorf("invalid ACL string %s, duplicate %s entry", sac, tag)
		}
		*slot = Has(p)
	}
	return acl, nil
}
