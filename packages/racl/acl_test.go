package racl

import (
	"reflect"
	"strings"
	"testing"

	"github.com/t-beigbeder/otvl_racl/packages/sysacl"
)

func mustParse(t *testing.T, text string) *Acl {
	acl, err := ParseAcl(text)
	if err != nil {
		t.Fatal(err)
	}
	return acl
}

func TestPerm(t *testing.T) {
	if s := Perm(5).String(); s != "r-x" {
		t.Fatal(s)
	}
	for _, s := range []string{"rwx", "7", "xwr"} {
		if p, err := ParsePerm(s); err != nil || p != 7 {
			t.Fatalf("%s %v %v", s, p, err)
		}
	}
	if p, err := ParsePerm("-w-"); err != nil || p != PermWrite {
		t.Fatalf("%v %v", p, err)
	}
	if _, err := ParsePerm("rwz"); err == nil {
		t.Fatal("ParsePerm should fail")
	}
	if s := (Slot{}).String(); s != "<none>" {
		t.Fatal(s)
	}
	if Has(0).Present() != true || (Slot{}).Perm() != 0 {
		t.Fatal("Slot")
	}
}

func TestParseAcl(t *testing.T) {
	text := "user::rwx,user:1001:rw-,group::r-x,group:20:r--,mask::rwx,other::r--"
	acl := mustParse(t, text)
	if acl.String() != text {
		t.Fatalf("String %s", acl)
	}
	expected := &Acl{
		UserObj:  Has(7),
		GroupObj: Has(5),
		MaskObj:  Has(7),
		OtherObj: Has(4),
		Names:    []NamedEntry{{ID: 1001, Perm: 6, IsUser: true}, {ID: 20, Perm: 4}},
	}
	if !acl.Equal(expected) {
		t.Fatalf("got %s", acl)
	}
	short := mustParse(t, "u::7,g::5,o:0")
	if !short.Equal(FromMode(0o750)) {
		t.Fatalf("short %s", short)
	}
	if acl = mustParse(t, " "); !acl.IsEmpty() {
		t.Fatalf("empty %s", acl)
	}
	for _, bad := range []string{"user::rwx,user::r--", "mask:3:rwx", "user:x:rwx", "foo::rwx", "user:1:2:3", "user::rwq"} {
		if _, err := ParseAcl(bad); err == nil {
			t.Fatalf("ParseAcl(%s) should fail", bad)
		}
	}
}

func TestEqual(t *testing.T) {
	a1 := mustParse(t, "user::rwx,user:1001:rwx,group::r-x,mask::rwx,other::r--")
	a2 := a1.Clone()
	if !a1.Equal(a2) {
		t.Fatal("clone should be equal")
	}
	a2.Names[0].Perm = 5
	if a1.Equal(a2) || a1.Names[0].Perm != 7 {
		t.Fatal("clone should not share names")
	}
	a3 := a1.Clone()
	a3.Names[0].IsUser = false
	if a1.Equal(a3) {
		t.Fatal("user and group entries differ")
	}
	a4 := a1.Clone()
	a4.MaskObj = Slot{}
	if a1.Equal(a4) {
		t.Fatal("absent slot differs")
	}
	if !(&Acl{Names: []NamedEntry{}}).Equal(&Acl{}) {
		t.Fatal("empty and nil names are equal")
	}
}

func TestEqualEnough(t *testing.T) {
	disk := mustParse(t, "user::rwx,group::r-x,mask::rwx,other::---")
	condensed := mustParse(t, "mask::rwx")
	if !disk.EqualEnough(condensed, 0o750) {
		t.Fatal("group matches the mode group bits")
	}
	if disk.EqualEnough(condensed, 0o770) {
		t.Fatal("group differs from the mode group bits")
	}
	target := mustParse(t, "group::r-x,mask::rwx")
	if !disk.EqualEnough(target, 0o770) {
		t.Fatal("explicit group matches")
	}
	if disk.EqualEnough(mustParse(t, "group::r--,mask::rwx"), 0o750) {
		t.Fatal("explicit group differs")
	}
	if disk.EqualEnough(&Acl{}, 0o750) {
		t.Fatal("one has a mask and the other doesn't")
	}
	plain := FromMode(0o644)
	if !plain.EqualEnough(&Acl{}, 0o600) {
		t.Fatal("without mask the mode restores all permissions")
	}
	if plain.EqualEnough(mustParse(t, "user:5:r--,mask::r--"), 0o644) {
		t.Fatal("names differ")
	}
}

func TestStripPerms(t *testing.T) {
	for mode := uint32(0); mode <= 0o777; mode++ {
		v := FromMode(mode)
		s := v.Clone()
		s.StripPerms()
		if !s.IsEmpty() {
			t.Fatalf("%o stripped %s", mode, s)
		}
		if !FromMode(v.Perms()).EqualEnough(s, mode) || !v.EqualEnough(s, mode) {
			t.Fatalf("%o not reconstructed", mode)
		}
	}
	v := mustParse(t, "user::rwx,user:1001:rwx,group::rwx,mask::rwx,other::r--")
	v.StripPerms()
	if !v.Equal(mustParse(t, "user:1001:rwx")) {
		t.Fatalf("group identical to mask %s", v)
	}
	v = mustParse(t, "user::rwx,user:1001:rwx,group::r--,mask::rwx,other::r--")
	v.StripPerms()
	if !v.Equal(mustParse(t, "user:1001:rwx,group::r--")) {
		t.Fatalf("group differs from mask %s", v)
	}
	if p := mustParse(t, "user::rw-,group::r--,mask::rwx,other::---").Perms(); p != 0o670 {
		t.Fatalf("Perms %o", p)
	}
}

func TestSortNames(t *testing.T) {
	acl := mustParse(t, "group:3:r--,user:9:r--,group:1:r--,user:2:r--")
	acl.SortNames()
	var ids []uint32
	for _, ne := range acl.Names {
		ids = append(ids, ne.ID)
	}
	if !reflect.DeepEqual(ids, []uint32{2, 9, 1, 3}) || !acl.Names[1].IsUser || acl.Names[2].IsUser {
		t.Fatalf("sorted %v", acl.Names)
	}
}

func TestFromSys(t *testing.T) {
	sa := sysacl.SysAcl{
		{Tag: sysacl.UserObj, Perm: 7, ID: sysacl.UndefinedID},
		{Tag: sysacl.User, Perm: 6, ID: 1001},
		{Tag: sysacl.GroupObj, Perm: 5, ID: sysacl.UndefinedID},
		{Tag: sysacl.GroupObj, Perm: 1, ID: sysacl.UndefinedID},
		{Tag: sysacl.Group, Perm: 4, ID: 20},
		{Tag: sysacl.Mask, Perm: 7, ID: sysacl.UndefinedID},
		{Tag: sysacl.Tag(0x40), Perm: 7, ID: sysacl.UndefinedID},
		{Tag: sysacl.Other, Perm: 4, ID: sysacl.UndefinedID},
	}
	var warnings []string
	acl := FromSys(sa, sysacl.Capabilities{}, func(w string) { warnings = append(warnings, w) })
	if !acl.Equal(mustParse(t, "user::rwx,user:1001:rw-,group::r-x,group:20:r--,mask::rwx,other::r--")) {
		t.Fatalf("FromSys %s", acl)
	}
	if len(warnings) != 2 || !strings.Contains(warnings[0], "duplicate group_obj") {
		t.Fatalf("warnings %v", warnings)
	}
	if got := acl.ToSys(sysacl.Capabilities{}); !reflect.DeepEqual(got, sysacl.SysAcl{sa[0], sa[1], sa[4], sa[2], sa[5], sa[7]}) {
		t.Fatalf("ToSys %s", got)
	}
	noNames := FromSys(sysacl.SysAcl{sa[0], sa[2], {Tag: sysacl.Mask, Perm: 4, ID: sysacl.UndefinedID}, sa[7]}, sysacl.Capabilities{NeedsMask: true}, nil)
	if !noNames.Equal(mustParse(t, "user::rwx,group::r--,other::r--")) {
		t.Fatalf("superfluous mask %s", noNames)
	}
}

func TestToSys(t *testing.T) {
	acl := mustParse(t, "group:3:r--,user:9:rw-,user:2:r--,group::r-x")
	caps := sysacl.Capabilities{NeedsMask: true, NeedsSort: true}
	sa := acl.ToSys(caps)
	if sa.String() != "user_obj::0,user:2:4,user:9:6,group_obj::5,group:3:4,mask::5,other::0" {
		t.Fatalf("sorted %s", sa)
	}
	if acl.Names[0].ID != 3 {
		t.Fatal("ToSys should not sort the ACL itself")
	}
	sa = FromMode(0o640).ToSys(sysacl.Capabilities{})
	if !reflect.DeepEqual(sa, sysacl.FromPerms(0o640)) {
		t.Fatalf("minimal %s", sa)
	}
}
