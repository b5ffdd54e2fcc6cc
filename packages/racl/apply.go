package racl

import (
	"errors"
	"io/fs"

	"github.com/t-beigbeder/otvl_racl/packages/sysacl"
)

// Outcome of applying the cached ACLs of a file
type Outcome int

const (
	Unchanged Outcome = iota
	Changed
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	case Failed:
		return "failed"
	}
	return "unknown outcome"
}

// changeSysPerms returns a copy of the packed access entries with the
// permission entries taken from mode, and the mode of the file on disk once
// they are written. Group and other bits are withheld while special bits
// are changing, leaving the final chmod to restore them.
func changeSysPerms(sa sysacl.SysAcl, acl *Acl, oldMode, mode uint32, caps sysacl.Capabilities) (sysacl.SysAcl, uint32) {
	if IsDir(mode) {
		if caps.LosesSpecialModeBits {
			if mode&ModeSticky != 0 {
				mode &^= groupOtherRW
			}
		} else if mode&ModeSticky != 0 && oldMode&ModeSticky == 0 {
			mode &^= groupOtherRW
		}
	} else if !caps.LosesSpecialModeBits {
		if oldMode&ModeSetuid != 0 && mode&ModeSetuid == 0 ||
			oldMode&ModeSetgid != 0 && mode&ModeSetgid == 0 {
			mode &^= groupOtherRW
		}
	}
	csa := sa.Clone()
	for i := range csa {
		switch csa[i].Tag {
		case sysacl.UserObj:
			csa[i].Perm = uint16(mode>>6) & 7
		case sysacl.GroupObj:
			// absent only when identical to the group bits
			if acl.GroupObj.present {
				continue
			}
			csa[i].Perm = uint16(mode>>3) & 7
		case sysacl.Mask:
			if !caps.NeedsMask && !acl.MaskObj.present {
				continue
			}
			csa[i].Perm = uint16(mode>>3) & 7
		case sysacl.Other:
			csa[i].Perm = uint16(mode) & 7
		}
	}
	if caps.LosesSpecialModeBits && oldMode&ModeSpecial != 0 && oldMode&ChmodBits == mode&ChmodBits {
		// forces the later chmod restoring the lost bits
		oldMode &^= ModeSpecial
	}
	return csa, oldMode&^AccessPerms | mode&AccessPerms
}

func (sess *Session) setRacl(path string, tbl *Table, ndx int, st *Stat, mode uint32) error {
	ca := tbl.items[ndx]
	if tbl.typ == sysacl.Default && !ca.acl.UserObj.present {
		if err := sess.sys.DeleteDefault(path); err != nil {
			return &NativeError{Op: "sys_acl_delete_def_file", Path: path, Type: tbl.typ, Err: err}
		}
		sess.verbose(2, "deleted %s ACL of %s", tbl.typ, path)
		return nil
	}
	sa := tbl.native(ndx, sess.caps)
	curMode := st.Mode
	if tbl.typ == sysacl.Access {
		sa, curMode = changeSysPerms(sa, ca.acl, curMode, mode, sess.caps)
	}
	if err := sess.sys.Set(path, tbl.typ, sa); err != nil {
		return &NativeError{Op: "sys_acl_set_file", Path: path, Type: tbl.typ, Err: err}
	}
	if tbl.typ == sysacl.Access {
		st.Mode = curMode
	}
	sess.verbose(2, "set %s ACL of %s to %s", tbl.typ, path, sa)
	return nil
}

// SetAcl applies the cached ACLs referenced by file to path when the ACLs
// of st, read from path, differ. When the access ACL is written st.Mode is
// updated to the mode now on disk. An empty path only checks for changes.
// A failed access ACL does not prevent the default ACL from being applied,
// errors of both are joined.
func (sess *Session) SetAcl(path string, file *File, st *Stat) (Outcome, error) {
	if !sess.DryRun && (sess.ReadOnly || sess.ListOnly) {
		return Failed, ErrReadOnly
	}
	outcome := Unchanged
	var errs []error
	if ndx := file.AclIndex; ndx >= 0 && ndx < sess.access.Len() {
		cached := sess.access.items[ndx].acl
		if st.Access == nil || !st.Access.EqualEnough(cached, file.Mode) {
			outcome = Changed
			if !sess.DryRun && path != "" {
				if err := sess.setRacl(path, sess.access, ndx, st, file.Mode); err != nil {
					outcome = Failed
					errs = append(errs, err)
				}
			}
		}
	}
	if !IsDir(st.Mode) {
		return outcome, errors.Join(errs...)
	}
	if ndx := file.DefAclIndex; ndx >= 0 && ndx < sess.deflt.Len() {
		cached := sess.deflt.items[ndx].acl
		if st.Default == nil || !st.Default.Equal(cached) {
			if outcome == Unchanged {
				outcome = Changed
			}
			if !sess.DryRun && path != "" {
				if err := sess.setRacl(path, sess.deflt, ndx, st, file.Mode); err != nil {
					outcome = Failed
					errs = append(errs, err)
				}
			}
		}
	}
	return outcome, errors.Join(errs...)
}

// DefaultPermsForDir returns the permission bits a new file created in dir
// gets: the ones of the dir default ACL if any, the umask ones otherwise
func (sess *Session) DefaultPermsForDir(dir string) uint32 {
	if dir == "" {
		dir = "."
	}
	perms := AccessPerms &^ sess.Umask
	sa, err := sess.sys.Get(dir, sysacl.Default)
	if err != nil {
		switch {
		case sysacl.IsUnsupported(err):
		case errors.Is(err, fs.ErrNotExist) && sess.DryRun:
			// the directory was not actually created
		default:
			sess.warn((&NativeError{Op: "sys_acl_get_file", Path: dir, Type: sysacl.Default, Err: err}).Error() + ", falling back on umask")
		}
		return perms
	}
	acl := FromSys(sa, sess.caps, sess.warn)
	if acl.UserObj.present {
		perms = acl.Perms()
		sess.verbose(3, "got ACL-based default perms %o for directory %s", perms, dir)
	}
	return perms
}
