package racl

import (
	"testing"

	"github.com/t-beigbeder/otvl_racl/packages/sysacl"
)

func TestIntern(t *testing.T) {
	tbl := NewTable(sysacl.Access)
	acl := mustParse(t, "user:1001:rwx,group::r--")
	c1 := acl.Clone()
	if ndx := tbl.Intern(c1); ndx != 0 || tbl.Len() != 1 {
		t.Fatalf("first %d %d", ndx, tbl.Len())
	}
	if !c1.IsEmpty() {
		t.Fatal("Intern should consume its argument")
	}
	if ndx := tbl.Intern(acl.Clone()); ndx != 0 || tbl.Len() != 1 {
		t.Fatalf("second %d %d", ndx, tbl.Len())
	}
	if !tbl.Acl(0).Equal(acl) || tbl.Acl(1) != nil {
		t.Fatal("Acl")
	}
	if st := tbl.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("stats %+v", st)
	}
	if ndx := tbl.CacheOrDrop(nil); ndx != -1 || tbl.Len() != 1 {
		t.Fatalf("CacheOrDrop(nil) %d", ndx)
	}
}

func TestInternDistinctSlots(t *testing.T) {
	tbl := NewTable(sysacl.Access)
	a1 := mustParse(t, "user::rwx,user:1001:rwx,group::r-x,mask::rwx,other::r--")
	a2 := mustParse(t, "user::rw-,user:1001:rwx,group::r--,mask::rwx,other::---")
	n1, n2 := tbl.Intern(a1), tbl.Intern(a2)
	if n1 == n2 || tbl.Len() != 2 {
		t.Fatalf("same names, different slots: %d %d", n1, n2)
	}
}

func TestFindCursor(t *testing.T) {
	tbl := NewTable(sysacl.Default)
	var acls []*Acl
	for i := 0; i < 5; i++ {
		acl := FromMode(uint32(0o700 + i))
		acls = append(acls, acl.Clone())
		if ndx := tbl.Intern(acl); ndx != i {
			t.Fatalf("intern %d got %d", i, ndx)
		}
	}
	if tbl.match != -1 {
		t.Fatalf("cursor after misses %d", tbl.match)
	}
	if ndx := tbl.find(acls[1]); ndx != 1 || tbl.match != 1 {
		t.Fatalf("find %d cursor %d", ndx, tbl.match)
	}
	// wraps around from the cursor
	if ndx := tbl.find(acls[3]); ndx != 3 || tbl.match != 3 {
		t.Fatalf("find %d cursor %d", ndx, tbl.match)
	}
	if ndx := tbl.find(FromMode(0o600)); ndx != -1 || tbl.match != -1 {
		t.Fatalf("find missing %d cursor %d", ndx, tbl.match)
	}
	if ndx := NewTable(sysacl.Access).find(acls[0]); ndx != -1 {
		t.Fatalf("empty table %d", ndx)
	}
}

func TestNative(t *testing.T) {
	tbl := NewTable(sysacl.Access)
	tbl.Intern(mustParse(t, "user:1001:rwx,mask::rwx"))
	sa1 := tbl.native(0, sysacl.Capabilities{})
	sa2 := tbl.native(0, sysacl.Capabilities{})
	if &sa1[0] != &sa2[0] || tbl.Stats().Packed != 1 {
		t.Fatal("native entries should be packed once")
	}
	tbl.remap(func(id uint32) uint32 { return id + 1 }, func(id uint32) uint32 { return id })
	if tbl.Acl(0).Names[0].ID != 1002 || tbl.items[0].native != nil {
		t.Fatal("remap")
	}
}
