// Package mockfs wraps an afero.Fs so that tests can inject failures
// in the calls a transfer makes to its tree
package mockfs

import (
	"os"

	"github.com/spf13/afero"
)

type MockCbs struct {
	AfsStat         func(mfs afero.Fs, name string) (os.FileInfo, error)
	AfsChmod        func(mfs afero.Fs, name string, mode os.FileMode) error
	AfsMkdir        func(mfs afero.Fs, name string, perm os.FileMode) error
	AfsOpen         func(mfs afero.Fs, name string) (afero.File, error)
	AfiReaddirnames func(mfi afero.File, n int) ([]string, error)
}

type File struct {
	afero.File
	cbs *MockCbs
}

func (f File) Readdirnames(n int) ([]string, error) {
	if f.cbs.AfiReaddirnames != nil {
		return f.cbs.AfiReaddirnames(f.File, n)
	}
	return f.File.Readdirnames(n)
}

type MockFs struct {
	afero.Fs
	cbs *MockCbs
}

func (m MockFs) GetBase() afero.Fs {
	return m.Fs
}

func (m MockFs) Stat(name string) (os.FileInfo, error) {
	if m.cbs.AfsStat != nil {
		return m.cbs.AfsStat(m.Fs, name)
	}
	return m.Fs.Stat(name)
}

// LstatIfPossible keeps the base behavior for symbolic links unless Stat is mocked
func (m MockFs) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	if m.cbs.AfsStat != nil {
		fi, err := m.cbs.AfsStat(m.Fs, name)
		return fi, false, err
	}
	if ls, ok := m.Fs.(afero.Lstater); ok {
		return ls.LstatIfPossible(name)
	}
	fi, err := m.Fs.Stat(name)
	return fi, false, err
}

func (m MockFs) Chmod(name string, mode os.FileMode) error {
	if m.cbs.AfsChmod != nil {
		return m.cbs.AfsChmod(m.Fs, name, mode)
	}
	return m.Fs.Chmod(name, mode)
}

func (m MockFs) Mkdir(name string, perm os.FileMode) error {
	if m.cbs.AfsMkdir != nil {
		return m.cbs.AfsMkdir(m.Fs, name, perm)
	}
	return m.Fs.Mkdir(name, perm)
}

func (m MockFs) Open(name string) (afero.File, error) {
	var base afero.File
	var err error
	if m.cbs.AfsOpen != nil {
		base, err = m.cbs.AfsOpen(m.Fs, name)
	} else {
		base, err = m.Fs.Open(name)
	}
	if err != nil {
		return nil, err
	}
	return File{File: base, cbs: m.cbs}, nil
}

func New(base afero.Fs, cbs *MockCbs) afero.Fs {
	if cbs == nil {
		cbs = &MockCbs{}
	}
	return MockFs{Fs: base, cbs: cbs}
}
