package sysacl

import (
	"fmt"
	"os"
	"path"
	"sync"
	"syscall"

	"github.com/spf13/afero"
)

// MemCbs allows tests to intercept MemSystem calls, a non nil error is returned as is
type MemCbs struct {
	Get           func(path string, typ Type) error
	Set           func(path string, typ Type, sa SysAcl) error
	DeleteDefault func(path string) error
}

// MemStats counts MemSystem calls
type MemStats struct {
	Gets    int
	Sets    int
	Deletes int
}

type memKey struct {
	path string
	typ  Type
}

// MemSystem stores ACLs in memory for the files of an afero.Fs,
// setting an access ACL updates the file mode as the kernel does
type MemSystem struct {
	afs   afero.Fs
	caps  Capabilities
	noAcl bool
	cbs   *MemCbs
	mux   sync.Mutex
	acls  map[memKey]SysAcl
	stats MemStats
}

func NewMemSystem(afs afero.Fs, caps Capabilities) *MemSystem {
	return &MemSystem{afs: afs, caps: caps, acls: map[memKey]SysAcl{}}
}

// SetUnsupported makes every later call fail as on a filesystem without ACL support
func (ms *MemSystem) SetUnsupported(noAcl bool) { ms.noAcl = noAcl }

func (ms *MemSystem) SetCbs(cbs *MemCbs) { ms.cbs = cbs }

func (ms *MemSystem) GetAfs() afero.Fs { return ms.afs }

func (ms *MemSystem) Stats() MemStats {
	ms.mux.Lock()
	defer ms.mux.Unlock()
	return ms.stats
}

func (ms *MemSystem) key(p string, typ Type) memKey {
	return memKey{path: path.Clean(p), typ: typ}
}

func (ms *MemSystem) Get(p string, typ Type) (SysAcl, error) {
	ms.mux.Lock()
	ms.stats.Gets++
	ms.mux.Unlock()
	if ms.noAcl {
		return nil, fmt.Errorf("%w: Get(%s, %s)", ErrUnsupported, p, typ)
	}
	if ms.cbs != nil && ms.cbs.Get != nil {
		if err := ms.cbs.Get(p, typ); err != nil {
			return nil, err
		}
	}
	fi, err := ms.afs.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("in Get(%s, %s): %w", p, typ, err)
	}
	ms.mux.Lock()
	stored, ok := ms.acls[ms.key(p, typ)]
	ms.mux.Unlock()
	if typ == Default {
		if !ok || !fi.IsDir() {
			return SysAcl{}, nil
		}
		return stored.Clone(), nil
	}
	perm := uint32(fi.Mode().Perm())
	if !ok {
		return FromPerms(perm), nil
	}
	// permission entries follow the mode as a chmod would have changed them
	sa := stored.Clone()
	hasMask := false
	for _, e := range sa {
		hasMask = hasMask || e.Tag == Mask
	}
	for i := range sa {
		switch sa[i].Tag {
		case UserObj:
			sa[i].Perm = uint16(perm>>6) & 7
		case GroupObj:
			if !hasMask {
				sa[i].Perm = uint16(perm>>3) & 7
			}
		case Mask:
			sa[i].Perm = uint16(perm>>3) & 7
		case Other:
			sa[i].Perm = uint16(perm) & 7
		}
	}
	return sa, nil
}

func (ms *MemSystem) Set(p string, typ Type, sa SysAcl) error {
	ms.mux.Lock()
	ms.stats.Sets++
	ms.mux.Unlock()
	if ms.noAcl {
		return fmt.Errorf("%w: Set(%s, %s)", ErrUnsupported, p, typ)
	}
	if ms.cbs != nil && ms.cbs.Set != nil {
		if err := ms.cbs.Set(p, typ, sa); err != nil {
			return err
		}
	}
	fi, err := ms.afs.Stat(p)
	if err != nil {
		return fmt.Errorf("in Set(%s, %s): %w", p, typ, err)
	}
	if err = sa.Valid(); err != nil {
		return &os.PathError{Op: "setxattr", Path: p, Err: fmt.Errorf("%w (%v)", syscall.EINVAL, err)}
	}
	k := ms.key(p, typ)
	if typ == Default {
		if !fi.IsDir() {
			return &os.PathError{Op: "setxattr", Path: p, Err: syscall.EACCES}
		}
		ms.mux.Lock()
		defer ms.mux.Unlock()
		if len(sa) == 0 {
			delete(ms.acls, k)
		} else {
			ms.acls[k] = sa.Clone()
		}
		return nil
	}
	if len(sa) == 0 {
		return &os.PathError{Op: "setxattr", Path: p, Err: syscall.EINVAL}
	}
	mode := fi.Mode()&(os.ModeSetuid|os.ModeSetgid|os.ModeSticky) | os.FileMode(sa.PermsOf())
	if err = ms.afs.Chmod(p, mode); err != nil {
		return fmt.Errorf("in Set(%s, %s): %w", p, typ, err)
	}
	ms.mux.Lock()
	defer ms.mux.Unlock()
	if sa.Extended() {
		ms.acls[k] = sa.Clone()
	} else {
		delete(ms.acls, k)
	}
	return nil
}

func (ms *MemSystem) DeleteDefault(p string) error {
	ms.mux.Lock()
	ms.stats.Deletes++
	ms.mux.Unlock()
	if ms.noAcl {
		return fmt.Errorf("%w: DeleteDefault(%s)", ErrUnsupported, p)
	}
	if ms.cbs != nil && ms.cbs.DeleteDefault != nil {
		if err := ms.cbs.DeleteDefault(p); err != nil {
			return err
		}
	}
	if _, err := ms.afs.Stat(p); err != nil {
		return fmt.Errorf("in DeleteDefault(%s): %w", p, err)
	}
	ms.mux.Lock()
	defer ms.mux.Unlock()
	delete(ms.acls, ms.key(p, Default))
	return nil
}

func (ms *MemSystem) Capabilities() Capabilities { return ms.caps }
