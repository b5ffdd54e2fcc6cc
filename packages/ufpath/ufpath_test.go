package ufpath

import "testing"

func TestJoin(t *testing.T) {
	if Join("") != "" || Join("a") != "a" || Join("a", "b") != "a/b" {
		t.Fatal("Join")
	}
	if Join("/r/", "") != "/r/" || Join("/r/", "a/b") != "/r/a/b" || Join("", "a") != "a" {
		t.Fatalf("Join %s", Join("/r/", "a/b"))
	}
}

func TestDir(t *testing.T) {
	if Dir("") != "" || Dir("a") != "" || Dir("a/") != "" {
		t.Fatal("Dir")
	}
	if Dir("a/b") != "a" || Dir("/r/a/b") != "/r/a" {
		t.Fatalf("Dir %s", Dir("a/b"))
	}
	if Dir("/a") != "/" || Dir("/a/") != "/" || Dir("/") != "" {
		t.Fatalf("Dir %s", Dir("/a"))
	}
}

func TestRel(t *testing.T) {
	for _, c := range [][3]string{{"/r", "/r", ""}, {"/r/", "/r/a/b", "a/b"}, {"/", "/a", "a"},
		{".", ".", ""}, {".", "a.txt", "a.txt"}, {".", "d/c.txt", "d/c.txt"}, {".", "./a", "a"},
		{"", "", ""}, {"", "a.txt", "a.txt"}} {
		if rel, err := Rel(c[0], c[1]); err != nil || rel != c[2] {
			t.Fatalf("Rel %v: %s %v", c, rel, err)
		}
	}
	if _, err := Rel("/r", "/rs/a"); err == nil {
		t.Fatal("Rel outside root")
	}
	if _, err := Rel(".", "/a"); err == nil {
		t.Fatal("Rel absolute path below the current directory")
	}
}

func TestCheck(t *testing.T) {
	for _, ok := range []string{"", "a", "a/b.c"} {
		if err := Check(ok); err != nil {
			t.Fatal(err)
		}
	}
	for _, ko := range []string{"/a", "a/", "a//b", "../a", "a/./b"} {
		if err := Check(ko); err == nil {
			t.Fatalf("Check %s", ko)
		}
	}
}
