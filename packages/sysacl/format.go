package sysacl

import (
	"encoding/binary"
	"fmt"
)

const (
	XattrAccess  = "system.posix_acl_access"
	XattrDefault = "system.posix_acl_default"

	xattrVersion   = 2
	xattrHeaderLen = 4
	xattrEntryLen  = 8
)

func xattrName(typ Type) string {
	if typ == Default {
		return XattrDefault
	}
	return XattrAccess
}

// Encode returns the extended attribute value storing sa,
// entries are written in the order the kernel expects
func Encode(sa SysAcl) []byte {
	ssa := sa.Sorted()
	bs := make([]byte, xattrHeaderLen+xattrEntryLen*len(ssa))
	binary.LittleEndian.PutUint32(bs, xattrVersion)
	for i, e := range ssa {
		off := xattrHeaderLen + i*xattrEntryLen
		id := e.ID
		if !e.Tag.Qualified() {
			id = UndefinedID
		}
		binary.LittleEndian.PutUint16(bs[off:], uint16(e.Tag))
		binary.LittleEndian.PutUint16(bs[off+2:], e.Perm)
		binary.LittleEndian.PutUint32(bs[off+4:], id)
	}
	return bs
}

// Decode parses an extended attribute value
func Decode(bs []byte) (SysAcl, error) {
	if len(bs) < xattrHeaderLen {
		return nil, fmt.Errorf("in Decode: ACL too short (%d bytes)", len(bs))
	}
	if v := binary.LittleEndian.Uint32(bs); v != xattrVersion {
		return nil, fmt.Errorf("in Decode: unsupported ACL version %d", v)
	}
	bs = bs[xattrHeaderLen:]
	if len(bs)%xattrEntryLen != 0 {
		return nil, fmt.Errorf("in Decode: malformed ACL entries (%d bytes)", len(bs))
	}
	sa := make(SysAcl, 0, len(bs)/xattrEntryLen)
	for off := 0; off < len(bs); off += xattrEntryLen {
		sa = append(sa, Entry{
			Tag:  Tag(binary.LittleEndian.Uint16(bs[off:])),
			Perm: binary.LittleEndian.Uint16(bs[off+2:]),
			ID:   binary.LittleEndian.Uint32(bs[off+4:]),
		})
	}
	return sa, nil
}
