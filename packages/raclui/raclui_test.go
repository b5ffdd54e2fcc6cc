package raclui

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/t-beigbeder/otvl_racl/packages/racl"
	"github.com/t-beigbeder/otvl_racl/packages/sysacl"
	"github.com/t-beigbeder/otvl_racl/packages/testfs"
)

// withMemSystem keeps ACLs in memory for the files of the OS file system
func withMemSystem(t *testing.T) *sysacl.MemSystem {
	ms := sysacl.NewMemSystem(afero.NewOsFs(), sysacl.Capabilities{})
	prev := newSystem
	newSystem = func() sysacl.System { return ms }
	t.Cleanup(func() { newSystem = prev })
	return ms
}

func setAcl(t *testing.T, ms *sysacl.MemSystem, path string, typ sysacl.Type, text string) {
	acl, err := racl.ParseAcl(text)
	if err != nil {
		t.Fatal(err)
	}
	if err = ms.Set(path, typ, acl.ToSys(sysacl.Capabilities{})); err != nil {
		t.Fatal(err)
	}
}

func aclText(t *testing.T, ms *sysacl.MemSystem, path string, typ sysacl.Type) string {
	sa, err := ms.Get(path, typ)
	if err != nil {
		t.Fatal(err)
	}
	return racl.FromSys(sa, sysacl.Capabilities{}, nil).String()
}

func perm(t *testing.T, path string) os.FileMode {
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return fi.Mode().Perm()
}

func treeStartup(tfs *testfs.Fs) error {
	for _, d := range []struct {
		rel  string
		perm os.FileMode
	}{{"src", 0o750}, {"src/d", 0o750}, {"dst", 0o755}} {
		if err := tfs.Mkdir(d.rel, d.perm); err != nil {
			return err
		}
	}
	for _, f := range []string{"src/a.txt", "dst/a.txt"} {
		if err := tfs.RandTextFile(f, 5); err != nil {
			return err
		}
		if err := os.Chmod(filepath.Join(tfs.Path(), f), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func newTree(t *testing.T, ms *sysacl.MemSystem) *testfs.Fs {
	tfs, err := testfs.CreateFs(t.Name(), treeStartup)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tfs.Delete() })
	setAcl(t, ms, filepath.Join(tfs.Path(), "src/a.txt"), sysacl.Access, "user::rw-,user:1001:r--,group::r--,mask::r--,other::---")
	return tfs
}

func TestSync(t *testing.T) {
	ms := withMemSystem(t)
	tfs := newTree(t, ms)
	src, dst := filepath.Join(tfs.Path(), "src"), filepath.Join(tfs.Path(), "dst")
	var out, errOut bytes.Buffer
	err := CLIRun[SyncOptions, *SyncVars](
		nil, &out, &errOut,
		SyncOptions{BaseOptions: BaseOptions{NumericIds: true, Verbose: true}, CreateDirs: true},
		[]string{src, dst},
		SyncStartup, SyncShutdown)
	if err != nil {
		t.Fatalf("%v %s", err, errOut.String())
	}
	for _, line := range []string{"da .\n", "fa a.txt\n", "d+ d\n", "changed 2"} {
		if !strings.Contains(out.String(), line) {
			t.Fatalf("output %q lacks %q", out.String(), line)
		}
	}
	if s := aclText(t, ms, filepath.Join(dst, "a.txt"), sysacl.Access); s != "user::rw-,user:1001:r--,group::r--,mask::r--,other::---" {
		t.Fatalf("access ACL %s", s)
	}
	if p := perm(t, dst); p != 0o750 {
		t.Fatalf("root mode %s", p)
	}
	if p := perm(t, filepath.Join(dst, "d")); p != 0o750 {
		t.Fatalf("created dir mode %s", p)
	}
}

func TestSendReceive(t *testing.T) {
	ms := withMemSystem(t)
	tfs := newTree(t, ms)
	stream := filepath.Join(tfs.Path(), "stream")
	var out, errOut bytes.Buffer
	err := CLIRun[SendOptions, *SendVars](
		nil, &out, &errOut,
		SendOptions{Out: stream},
		[]string{filepath.Join(tfs.Path(), "src")},
		SendStartup, SendShutdown)
	if err != nil {
		t.Fatalf("%v %s", err, errOut.String())
	}
	if out.Len() != 0 {
		t.Fatal("the stream goes to the file")
	}
	err = CLIRun[ReceiveOptions, *ReceiveVars](
		nil, &out, &errOut,
		ReceiveOptions{BaseOptions: BaseOptions{DryRun: true}, In: stream},
		[]string{filepath.Join(tfs.Path(), "dst")},
		ReceiveStartup, ReceiveShutdown)
	if err != nil {
		t.Fatalf("%v %s", err, errOut.String())
	}
	if !strings.Contains(out.String(), "fa a.txt\n") || !strings.Contains(out.String(), "d- d\n") {
		t.Fatalf("output %q", out.String())
	}
	if p := perm(t, filepath.Join(tfs.Path(), "dst/a.txt")); p != 0o644 || ms.Stats().Sets != 1 {
		t.Fatal("dry run should not write")
	}

	// from stdin
	bs, err := os.ReadFile(stream)
	if err != nil {
		t.Fatal(err)
	}
	out.Reset()
	err = CLIRun[ReceiveOptions, *ReceiveVars](
		bytes.NewReader(bs), &out, &errOut,
		ReceiveOptions{},
		[]string{filepath.Join(tfs.Path(), "dst")},
		ReceiveStartup, ReceiveShutdown)
	if err != nil {
		t.Fatalf("%v %s", err, errOut.String())
	}
	if p := perm(t, filepath.Join(tfs.Path(), "dst/a.txt")); p != 0o640 {
		t.Fatalf("mode %s", p)
	}
}

func TestCorruptedStream(t *testing.T) {
	withMemSystem(t)
	tfs, err := testfs.CreateFs(t.Name(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tfs.Delete()
	var out, errOut bytes.Buffer
	err = CLIRun[ReceiveOptions, *ReceiveVars](
		strings.NewReader("\x01x\x7f"), &out, &errOut,
		ReceiveOptions{},
		[]string{tfs.Path()},
		ReceiveStartup, ReceiveShutdown)
	if ExitCode(err) != racl.ExitStreamIO {
		t.Fatalf("exit code %d for %v", ExitCode(err), err)
	}
}

func TestShow(t *testing.T) {
	ms := withMemSystem(t)
	tfs := newTree(t, ms)
	d := filepath.Join(tfs.Path(), "src/d")
	setAcl(t, ms, d, sysacl.Default, "user::rwx,group::r-x,other::---")
	a := filepath.Join(tfs.Path(), "src/a.txt")
	var out, errOut bytes.Buffer
	err := CLIRun[ShowOptions, *ShowVars](
		nil, &out, &errOut, ShowOptions{}, []string{a, d},
		ShowStartup, ShowShutdown)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{
		"# file: " + a + "\n", "# mode: -rw-r-----\n", "user::rw-\nuser:1001:r--\ngroup::r--\nmask::r--\nother::---\n",
		"# mode: drwxr-x---\n", "default:user::rwx\ndefault:group::r-x\ndefault:other::---\n",
	} {
		if !strings.Contains(out.String(), line) {
			t.Fatalf("output %q lacks %q", out.String(), line)
		}
	}
	out.Reset()
	err = CLIRun[ShowOptions, *ShowVars](
		nil, &out, &errOut, ShowOptions{Condensed: true}, []string{a, filepath.Join(tfs.Path(), "missing")},
		ShowStartup, ShowShutdown)
	if err == nil || !strings.HasSuffix(out.String(), "# condensed\nuser:1001:r--\n") {
		t.Fatalf("%v %q", err, out.String())
	}
}

func TestDefPerms(t *testing.T) {
	ms := withMemSystem(t)
	tfs := newTree(t, ms)
	d := filepath.Join(tfs.Path(), "src/d")
	setAcl(t, ms, d, sysacl.Default, "user::rwx,group::r-x,other::---")
	dst := filepath.Join(tfs.Path(), "dst")
	var out, errOut bytes.Buffer
	err := CLIRun[DefPermsOptions, *DefPermsVars](
		nil, &out, &errOut, DefPermsOptions{BaseOptions: BaseOptions{Umask: "027"}}, []string{d, dst},
		DefPermsStartup, DefPermsShutdown)
	if err != nil {
		t.Fatal(err)
	}
	expected := fmt.Sprintf("%s 750 file -rw-r----- dir drwxr-x---\n%s 750 file -rw-r----- dir drwxr-x---\n", d, dst)
	if out.String() != expected {
		t.Fatalf("output %q", out.String())
	}
}

func TestConfig(t *testing.T) {
	tfs, err := testfs.CreateFs(t.Name(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tfs.Delete()
	cf := filepath.Join(tfs.Path(), "racl.yaml")
	os.WriteFile(cf, []byte("dryrun: true\nnumeric-ids: true\numask: \"077\"\ndebug: 2\ncreate-dirs: true\n"), 0o644)
	fc, err := LoadConfig(cf)
	if err != nil {
		t.Fatal(err)
	}
	bos := BaseOptions{Umask: "022"}
	createDirs := false
	fc.Apply(&bos, &createDirs, func(flag string) bool { return flag == "umask" })
	if !bos.DryRun || !bos.NumericIds || bos.IncRecurse || bos.Umask != "022" || bos.VerboseLevel != 2 || !createDirs {
		t.Fatalf("options %+v %v", bos, createDirs)
	}
	os.WriteFile(cf, []byte("umask: \"999\"\n"), 0o644)
	if _, err = LoadConfig(cf); err == nil {
		t.Fatal("invalid umask")
	}
	if _, err = LoadConfig(filepath.Join(tfs.Path(), "missing.yaml")); err == nil {
		t.Fatal("missing config")
	}
}

func TestLogger(t *testing.T) {
	var out bytes.Buffer
	for level, expected := range map[int]logrus.Level{0: logrus.WarnLevel, 1: logrus.InfoLevel, 2: logrus.DebugLevel, 5: logrus.TraceLevel} {
		if l := NewLogger(&out, BaseOptions{VerboseLevel: level}).GetLevel(); l != expected {
			t.Fatalf("level %d: %s", level, l)
		}
	}
	logger := NewLogger(&out, BaseOptions{Verbose: true})
	bv := BeVerbose(logger)
	bv(0, "a warning")
	bv(2, "a debug line")
	if !strings.Contains(out.String(), "a warning") || strings.Contains(out.String(), "a debug line") {
		t.Fatalf("log %q", out.String())
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 || ExitCode(fmt.Errorf("x")) != 1 {
		t.Fatal("ExitCode")
	}
	if ExitCode(fmt.Errorf("in Receive: %w", &racl.ProtocolError{What: "x", Value: 1, Limit: 0})) != 12 {
		t.Fatal("ExitCode protocol error")
	}
}
