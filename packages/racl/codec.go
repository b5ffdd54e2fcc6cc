package racl

import (
	"fmt"

	"github.com/t-beigbeder/otvl_racl/packages/sysacl"
	"github.com/t-beigbeder/otvl_racl/packages/wire"
)

// flags byte of a literal ACL record
const (
	xmitUserObj  = 1 << 0
	xmitGroupObj = 1 << 1
	xmitMaskObj  = 1 << 2
	xmitOtherObj = 1 << 3
	xmitNameList = 1 << 4
)

// low bits of the access field of a named entry
const (
	xflagNameFollows uint32 = 0x1
	xflagNameIsUser  uint32 = 0x2
)

const (
	validNameBits uint32 = 7
	validObjBits  uint32 = 7
)

func (sess *Session) sendNames(w *wire.Writer, names []NamedEntry) {
	w.WriteVarint(int32(len(names)))
	for _, ne := range names {
		xbits := uint32(ne.Perm) << 2
		var name string
		var ok bool
		if ne.IsUser {
			xbits |= xflagNameIsUser
			name, ok = sess.ids.AddUid(ne.ID)
		} else {
			name, ok = sess.ids.AddGid(ne.ID)
		}
		w.WriteVarint(int32(ne.ID))
		if sess.IncRecurse && ok {
			w.WriteVarint(int32(xbits | xflagNameFollows))
			w.WriteByte(byte(len(name)))
			w.WriteBuf([]byte(name))
		} else {
			w.WriteVarint(int32(xbits))
		}
	}
}

// sendRacl writes the index reference of acl, or the literal ACL
// followed by its interning when the peer does not know it yet
func (sess *Session) sendRacl(w *wire.Writer, acl *Acl, tbl *Table) error {
	ndx := tbl.find(acl)
	// 0 tells a literal ACL follows
	w.WriteVarint(int32(ndx + 1))
	if ndx >= 0 {
		tbl.stats.Hits++
		sess.verbose(3, "send %s ACL: reuse index %d", tbl.typ, ndx)
		return w.Err()
	}
	var flags byte
	if acl.UserObj.present {
		flags |= xmitUserObj
	}
	if acl.GroupObj.present {
		flags |= xmitGroupObj
	}
	if acl.MaskObj.present {
		flags |= xmitMaskObj
	}
	if acl.OtherObj.present {
		flags |= xmitOtherObj
	}
	if len(acl.Names) != 0 {
		flags |= xmitNameList
	}
	w.WriteByte(flags)
	for _, s := range []Slot{acl.UserObj, acl.GroupObj, acl.MaskObj, acl.OtherObj} {
		if s.present {
			w.WriteVarint(int32(s.perm))
		}
	}
	if flags&xmitNameList != 0 {
		sess.sendNames(w, acl.Names)
	}
	tbl.stats.Misses++
	ndx = tbl.push(acl)
	sess.verbose(3, "send %s ACL: literal as index %d", tbl.typ, ndx)
	return w.Err()
}

// SendAcl sends the ACLs of st, the access ACL is stripped of what the mode
// tells and the ACLs of st are consumed
func (sess *Session) SendAcl(w *wire.Writer, st *Stat) error {
	if st.Access == nil {
		st.Access = FromMode(st.Mode)
	}
	st.Access.StripPerms()
	if err := sess.sendRacl(w, st.Access, sess.access); err != nil {
		return fmt.Errorf("in SendAcl: %w", err)
	}
	st.Access = nil
	if !IsDir(st.Mode) {
		return nil
	}
	if st.Default == nil {
		st.Default = &Acl{}
	}
	if err := sess.sendRacl(w, st.Default, sess.deflt); err != nil {
		return fmt.Errorf("in SendAcl: %w", err)
	}
	st.Default = nil
	return nil
}

func recvObjPerm(r *wire.Reader, typ sysacl.Type) (Perm, error) {
	v, err := r.ReadVarint()
	if err != nil {
		return 0, err
	}
	if uint32(v)&^validObjBits != 0 {
		return 0, &ProtocolError{What: fmt.Sprintf("%s ACL object permission", typ), Value: int64(uint32(v)), Limit: -1}
	}
	return Perm(v), nil
}

func recvNamedAccess(r *wire.Reader, typ sysacl.Type) (p Perm, nameFollows, isUser bool, err error) {
	v, err := r.ReadVarint()
	if err != nil {
		return
	}
	access := uint32(v)
	flags := access & 3
	access >>= 2
	if access&^validNameBits != 0 {
		err = &ProtocolError{What: fmt.Sprintf("%s ACL named entry access", typ), Value: int64(access), Limit: -1}
		return
	}
	return Perm(access), flags&xflagNameFollows != 0, flags&xflagNameIsUser != 0, nil
}

// recvNames decodes the named entries and returns the union of their permissions
func (sess *Session) recvNames(r *wire.Reader, acl *Acl, typ sysacl.Type) (Perm, error) {
	var computed Perm
	count, err := r.ReadVarint()
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, &ProtocolError{What: fmt.Sprintf("%s ACL named entries count", typ), Value: int64(count), Limit: -1}
	}
	acl.Names = make([]NamedEntry, 0, min(int(count), 64))
	for i := 0; i < int(count); i++ {
		id32, err := r.ReadVarint()
		if err != nil {
			return 0, err
		}
		id := uint32(id32)
		p, nameFollows, isUser, err := recvNamedAccess(r, typ)
		if err != nil {
			return 0, err
		}
		if nameFollows {
			l, err := r.ReadByte()
			if err != nil {
				return 0, err
			}
			name, err := r.ReadBuf(int(l))
			if err != nil {
				return 0, err
			}
			if isUser {
				id = sess.ids.RecvUserName(id, string(name))
			} else {
				id = sess.ids.RecvGroupName(id, string(name))
			}
		} else if isUser {
			if sess.IncRecurse && sess.AmRoot && !sess.NumericIDs {
				id = sess.ids.MatchUid(id)
			}
		} else if sess.IncRecurse && (!sess.AmRoot || !sess.NumericIDs) {
			id = sess.ids.MatchGid(id)
		}
		acl.Names = append(acl.Names, NamedEntry{ID: id, Perm: p, IsUser: isUser})
		computed |= p
	}
	return computed, nil
}

// recvRacl returns the index of the received ACL in the receiver table
func (sess *Session) recvRacl(r *wire.Reader, tbl *Table) (int, error) {
	v, err := r.ReadVarint()
	if err != nil {
		return -1, err
	}
	if v < 0 || int(v) > tbl.Len() {
		return -1, &ProtocolError{What: fmt.Sprintf("%s ACL index", tbl.typ), Value: int64(v), Limit: int64(tbl.Len())}
	}
	if v != 0 {
		tbl.stats.Hits++
		return int(v) - 1, nil
	}
	flags, err := r.ReadByte()
	if err != nil {
		return -1, err
	}
	acl := &Acl{}
	for _, fs := range []struct {
		bit  byte
		slot *Slot
	}{
		{xmitUserObj, &acl.UserObj},
		{xmitGroupObj, &acl.GroupObj},
		{xmitMaskObj, &acl.MaskObj},
		{xmitOtherObj, &acl.OtherObj},
	} {
		if flags&fs.bit == 0 {
			continue
		}
		p, err := recvObjPerm(r, tbl.typ)
		if err != nil {
			return -1, err
		}
		*fs.slot = Has(p)
	}
	var computed Perm
	if flags&xmitNameList != 0 {
		if computed, err = sess.recvNames(r, acl, tbl.typ); err != nil {
			return -1, err
		}
	}
	if len(acl.Names) == 0 {
		// superfluous mask, masks off the group perms first
		if acl.MaskObj.present {
			if acl.GroupObj.present {
				acl.GroupObj = Has(acl.GroupObj.perm & acl.MaskObj.perm)
			}
			acl.MaskObj = Slot{}
		}
	} else if !acl.MaskObj.present {
		// required with named entries
		acl.MaskObj = Has(computed | acl.GroupObj.Perm())
	}
	// the sender interned it as new, same index on both sides
	tbl.stats.Misses++
	return tbl.push(acl), nil
}

// ReceiveAcl decodes the ACL records of file in the order they were sent
// and sets its indexes
func (sess *Session) ReceiveAcl(r *wire.Reader, file *File) error {
	var err error
	if file.AclIndex, err = sess.recvRacl(r, sess.access); err != nil {
		return fmt.Errorf("in ReceiveAcl: %w", err)
	}
	if file.IsDir() {
		if file.DefAclIndex, err = sess.recvRacl(r, sess.deflt); err != nil {
			return fmt.Errorf("in ReceiveAcl: %w", err)
		}
	}
	return nil
}
