// Package testfs creates scratch directory trees on the OS file system
// for tests needing real files, such as the ones checking native ACLs
package testfs

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var words = []string{
	"access", "default", "mask", "owner", "group", "other", "named", "entry",
	"sticky", "setgid", "umask", "mode", "index", "cache", "stream", "normal",
}

type Fs struct {
	path string
	rand *rand.Rand
}

// CreateFs creates a directory named after name under the OS temporary
// directory, cleaning it first, and runs startup to populate it
func CreateFs(name string, startup func(tfs *Fs) error) (*Fs, error) {
	if name == "" || strings.ContainsRune(name, os.PathSeparator) {
		return nil, fmt.Errorf("invalid test fs name %q", name)
	}
	path := filepath.Join(os.TempDir(), "racl-tests", name)
	if err := os.RemoveAll(path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	tfs := &Fs{path: path, rand: rand.New(rand.NewSource(int64(len(name))))}
	if startup != nil {
		if err := startup(tfs); err != nil {
			tfs.Delete()
			return nil, err
		}
	}
	return tfs, nil
}

func (tfs *Fs) Path() string {
	return tfs.path
}

// Delete removes the tree, it is safe on a nil Fs
func (tfs *Fs) Delete() error {
	if tfs == nil {
		return nil
	}
	return os.RemoveAll(tfs.path)
}

func (tfs *Fs) Rand() *rand.Rand {
	return tfs.rand
}

func (tfs *Fs) RandomWord() string {
	return words[tfs.rand.Intn(len(words))]
}

// RandTextFile writes lines random lines to rel
func (tfs *Fs) RandTextFile(rel string, lines int) error {
	var sb strings.Builder
	for i := 0; i < lines; i++ {
		n := 1 + tfs.rand.Intn(8)
		for j := 0; j < n; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(tfs.RandomWord())
		}
		sb.WriteByte('\n')
	}
	return os.WriteFile(filepath.Join(tfs.path, rel), []byte(sb.String()), 0o644)
}

// Mkdir creates rel and its parents then sets its permission bits
func (tfs *Fs) Mkdir(rel string, perm os.FileMode) error {
	p := filepath.Join(tfs.path, rel)
	if err := os.MkdirAll(p, 0o755); err != nil {
		return err
	}
	return os.Chmod(p, perm)
}

func (tfs *Fs) FileAsText(rel string) (string, error) {
	bs, err := os.ReadFile(filepath.Join(tfs.path, rel))
	if err != nil {
		return "", err
	}
	return string(bs), nil
}
