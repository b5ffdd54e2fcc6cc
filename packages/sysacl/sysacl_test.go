package sysacl

import (
	"errors"
	"os"
	"reflect"
	"syscall"
	"testing"

	"github.com/spf13/afero"
)

var extended = SysAcl{
	{Tag: Other, Perm: 4, ID: UndefinedID},
	{Tag: Group, Perm: 5, ID: 20},
	{Tag: UserObj, Perm: 7, ID: UndefinedID},
	{Tag: User, Perm: 6, ID: 1001},
	{Tag: Mask, Perm: 7, ID: UndefinedID},
	{Tag: GroupObj, Perm: 5, ID: UndefinedID},
	{Tag: User, Perm: 4, ID: 1000},
}

func TestEncodeDecode(t *testing.T) {
	bs := Encode(extended)
	if len(bs) != 4+8*len(extended) {
		t.Fatalf("len %d", len(bs))
	}
	sa, err := Decode(bs)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sa, extended.Sorted()) {
		t.Fatalf("decoded %s expected %s", sa, extended.Sorted())
	}
	if sa[1].Tag != User || sa[1].ID != 1000 || sa[2].ID != 1001 {
		t.Fatalf("not sorted %s", sa)
	}
	if _, err = Decode(bs[:3]); err == nil {
		t.Fatal("Decode should fail on short input")
	}
	if _, err = Decode(bs[:9]); err == nil {
		t.Fatal("Decode should fail on truncated entry")
	}
	bs[0] = 1
	if _, err = Decode(bs); err == nil {
		t.Fatal("Decode should fail on version 1")
	}
}

func TestValid(t *testing.T) {
	if err := extended.Valid(); err != nil {
		t.Fatal(err)
	}
	if err := (SysAcl{}).Valid(); err != nil {
		t.Fatal(err)
	}
	if err := FromPerms(0o640).Valid(); err != nil {
		t.Fatal(err)
	}
	noMask := append(FromPerms(0o640), Entry{Tag: User, Perm: 7, ID: 3})
	if err := noMask.Valid(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	dup := append(extended.Clone(), Entry{Tag: User, Perm: 1, ID: 1001})
	if err := dup.Valid(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if err := (SysAcl{{Tag: UserObj, Perm: 9}}).Valid(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestPermsOf(t *testing.T) {
	if p := FromPerms(0o754).PermsOf(); p != 0o754 {
		t.Fatalf("%o", p)
	}
	if p := extended.PermsOf(); p != 0o774 {
		t.Fatalf("%o", p)
	}
	if FromPerms(0o754).Extended() || !extended.Extended() {
		t.Fatal("Extended")
	}
}

func TestMemSystem(t *testing.T) {
	afs := afero.NewMemMapFs()
	if err := afs.MkdirAll("/d", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(afs, "/d/f", []byte("f"), 0o640); err != nil {
		t.Fatal(err)
	}
	ms := NewMemSystem(afs, Capabilities{})
	sa, err := ms.Get("/d/f", Access)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sa, FromPerms(0o640)) {
		t.Fatalf("%s", sa)
	}
	if err = ms.Set("/d/f", Access, extended); err != nil {
		t.Fatal(err)
	}
	fi, _ := afs.Stat("/d/f")
	if fi.Mode().Perm() != 0o774 {
		t.Fatalf("mode %o", fi.Mode().Perm())
	}
	if err = afs.Chmod("/d/f", 0o750); err != nil {
		t.Fatal(err)
	}
	if sa, err = ms.Get("/d/f", Access); err != nil {
		t.Fatal(err)
	}
	for _, e := range sa {
		if e.Tag == Mask && e.Perm != 5 || e.Tag == Other && e.Perm != 0 || e.Tag == GroupObj && e.Perm != 5 {
			t.Fatalf("after chmod %s", sa)
		}
	}
	if sa, err = ms.Get("/d", Default); err != nil || len(sa) != 0 {
		t.Fatalf("default %s %v", sa, err)
	}
	var pe *os.PathError
	if err = ms.Set("/d/f", Default, FromPerms(0o755)); !errors.As(err, &pe) || pe.Err != syscall.EACCES {
		t.Fatalf("expected EACCES, got %v", err)
	}
	if err = ms.Set("/d", Default, FromPerms(0o755)); err != nil {
		t.Fatal(err)
	}
	if sa, err = ms.Get("/d/", Default); err != nil || len(sa) != 3 {
		t.Fatalf("default %s %v", sa, err)
	}
	if err = ms.DeleteDefault("/d"); err != nil {
		t.Fatal(err)
	}
	if sa, _ = ms.Get("/d", Default); len(sa) != 0 {
		t.Fatalf("default %s", sa)
	}
	if err = ms.Set("/d/f", Access, SysAcl{{Tag: User, Perm: 7, ID: 2}}); err == nil {
		t.Fatal("Set should fail on invalid ACL")
	}
	if st := ms.Stats(); st.Sets != 4 || st.Deletes != 1 {
		t.Fatalf("stats %+v", st)
	}
	ms.SetUnsupported(true)
	if _, err = ms.Get("/d/f", Access); !IsUnsupported(err) {
		t.Fatalf("expected unsupported, got %v", err)
	}
}

func TestMemCbs(t *testing.T) {
	afs := afero.NewMemMapFs()
	afero.WriteFile(afs, "/f", []byte("f"), 0o644)
	ms := NewMemSystem(afs, Capabilities{})
	boom := errors.New("boom")
	ms.SetCbs(&MemCbs{Set: func(path string, typ Type, sa SysAcl) error { return boom }})
	if err := ms.Set("/f", Access, FromPerms(0o600)); err != boom {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := ms.Get("/f", Access); err != nil {
		t.Fatal(err)
	}
}

func TestModeSystem(t *testing.T) {
	var sys System = ModeSystem{}
	if _, err := sys.Get("/", Access); !IsUnsupported(err) {
		t.Fatalf("expected unsupported, got %v", err)
	}
	if err := sys.DeleteDefault("/"); !IsUnsupported(err) {
		t.Fatalf("expected unsupported, got %v", err)
	}
}
