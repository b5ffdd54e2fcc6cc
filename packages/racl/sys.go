package racl

import (
	"github.com/t-beigbeder/otvl_racl/packages/sysacl"
)

// FromSys converts native entries verbatim, duplicated object entries and
// unknown tags are ignored with a warning
func FromSys(sa sysacl.SysAcl, caps sysacl.Capabilities, warn func(string)) *Acl {
	if warn == nil {
		warn = func(string) {}
	}
	acl := &Acl{}
	set := func(s *Slot, e sysacl.Entry) {
		if s.present {
			warn("unpack ACL: warning: duplicate " + e.Tag.String() + " entry ignored")
			return
		}
		*s = Has(Perm(e.Perm))
	}
	for _, e := range sa {
		switch e.Tag {
		case sysacl.UserObj:
			set(&acl.UserObj, e)
		case sysacl.GroupObj:
			set(&acl.GroupObj, e)
		case sysacl.Mask:
			set(&acl.MaskObj, e)
		case sysacl.Other:
			set(&acl.OtherObj, e)
		case sysacl.User, sysacl.Group:
			acl.Names = append(acl.Names, NamedEntry{ID: e.ID, Perm: Perm(e.Perm) & PermAll, IsUser: e.Tag == sysacl.User})
		default:
			warn("unpack ACL: warning: entry with unrecognized tag type ignored")
		}
	}
	if caps.NeedsSort {
		acl.SortNames()
	}
	if caps.NeedsMask && len(acl.Names) == 0 && acl.MaskObj.present {
		// superfluous mask, masks off the group perms first
		if acl.GroupObj.present {
			acl.GroupObj = Has(acl.GroupObj.perm & acl.MaskObj.perm)
		}
		acl.MaskObj = Slot{}
	}
	return acl
}

// ToSys builds the native entries of the ACL, absent object slots are packed as no permission
func (acl *Acl) ToSys(caps sysacl.Capabilities) sysacl.SysAcl {
	sa := make(sysacl.SysAcl, 0, len(acl.Names)+4)
	obj := func(tag sysacl.Tag, p Perm) {
		sa = append(sa, sysacl.Entry{Tag: tag, Perm: uint16(p), ID: sysacl.UndefinedID})
	}
	named := func(ne NamedEntry) {
		tag := sysacl.Group
		if ne.IsUser {
			tag = sysacl.User
		}
		sa = append(sa, sysacl.Entry{Tag: tag, Perm: uint16(ne.Perm), ID: ne.ID})
	}
	names := acl.Names
	if caps.NeedsSort {
		sorted := &Acl{Names: append([]NamedEntry{}, acl.Names...)}
		sorted.SortNames()
		names = sorted.Names
	}
	obj(sysacl.UserObj, acl.UserObj.Perm())
	i := 0
	if caps.NeedsSort {
		for ; i < len(names) && names[i].IsUser; i++ {
			named(names[i])
		}
	} else {
		for ; i < len(names); i++ {
			named(names[i])
		}
	}
	obj(sysacl.GroupObj, acl.GroupObj.Perm())
	for ; i < len(names); i++ {
		named(names[i])
	}
	if caps.NeedsMask {
		mask := acl.GroupObj.Perm()
		if acl.MaskObj.present {
			mask = acl.MaskObj.perm
		}
		obj(sysacl.Mask, mask)
	} else if acl.MaskObj.present {
		obj(sysacl.Mask, acl.MaskObj.perm)
	}
	obj(sysacl.Other, acl.OtherObj.Perm())
	return sa
}
