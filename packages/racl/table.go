package racl

import (
	"github.com/t-beigbeder/otvl_racl/packages/sysacl"
)

type cachedAcl struct {
	acl    *Acl
	native sysacl.SysAcl // packed on first use
}

// TableStats counts how table lookups were resolved:
// Hits are ACLs found or referenced by index, Misses new entries
type TableStats struct {
	Hits   int
	Misses int
	Packed int
}

// Table is the append-only list of the distinct ACLs of one type seen
// during a run, an index once returned stays valid for the table lifetime
type Table struct {
	typ   sysacl.Type
	items []*cachedAcl
	match int // last successful lookup, -1 when unknown
	stats TableStats
}

func NewTable(typ sysacl.Type) *Table {
	return &Table{typ: typ, match: -1}
}

func (tbl *Table) Type() sysacl.Type { return tbl.typ }

func (tbl *Table) Len() int { return len(tbl.items) }

func (tbl *Table) Stats() TableStats { return tbl.stats }

// Acl returns a copy of the ACL at ndx or nil if out of range
func (tbl *Table) Acl(ndx int) *Acl {
	if ndx < 0 || ndx >= len(tbl.items) {
		return nil
	}
	return tbl.items[ndx].acl.Clone()
}

// find scans from the last match downwards with wrap around,
// consecutive files often share the same ACL
func (tbl *Table) find(acl *Acl) int {
	count := len(tbl.items)
	if tbl.match == -1 {
		tbl.match = count - 1
	}
	for ; count > 0; count-- {
		if tbl.items[tbl.match].acl.Equal(acl) {
			return tbl.match
		}
		tbl.match--
		if tbl.match < 0 {
			tbl.match = len(tbl.items) - 1
		}
	}
	tbl.match = -1
	return -1
}

// push takes ownership of acl content and returns its new index
func (tbl *Table) push(acl *Acl) int {
	owned := *acl
	*acl = Acl{}
	tbl.items = append(tbl.items, &cachedAcl{acl: &owned})
	return len(tbl.items) - 1
}

// Intern returns the index of an ACL equal to acl, adding it if none.
// The content of acl is consumed in any case and acl is left empty.
func (tbl *Table) Intern(acl *Acl) int {
	if ndx := tbl.find(acl); ndx >= 0 {
		tbl.stats.Hits++
		*acl = Acl{}
		return ndx
	}
	tbl.stats.Misses++
	return tbl.push(acl)
}

// CacheOrDrop interns acl, -1 is returned for a nil acl
func (tbl *Table) CacheOrDrop(acl *Acl) int {
	if acl == nil {
		return -1
	}
	return tbl.Intern(acl)
}

// native returns the platform entries of the ACL at ndx, packing them once
func (tbl *Table) native(ndx int, caps sysacl.Capabilities) sysacl.SysAcl {
	ca := tbl.items[ndx]
	if ca.native == nil {
		ca.native = ca.acl.ToSys(caps)
		tbl.stats.Packed++
	}
	return ca.native
}

// remap translates the ids of every named entry
func (tbl *Table) remap(matchUid, matchGid func(uint32) uint32) {
	for _, ca := range tbl.items {
		for i, ne := range ca.acl.Names {
			if ne.IsUser {
				ca.acl.Names[i].ID = matchUid(ne.ID)
			} else {
				ca.acl.Names[i].ID = matchGid(ne.ID)
			}
		}
		ca.native = nil
	}
}
