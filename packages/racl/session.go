package racl

import (
	"fmt"

	"github.com/t-beigbeder/otvl_racl/packages/idmap"
	"github.com/t-beigbeder/otvl_racl/packages/sysacl"
)

type BeVerboseFunc func(level int, line string)

type Options struct {
	DryRun     bool   // nothing is written
	ReadOnly   bool   // the receiving side may not be modified
	ListOnly   bool   // only listing files
	IncRecurse bool   // the file list is exchanged incrementally, names are sent along with ACL entries
	NumericIDs bool   // ids are not translated using names
	AmRoot     bool   // the receiver runs as root
	Umask      uint32 // used for new files when a directory has no default ACL
}

// Stat is what is known of a path: its mode and the ACLs read from it,
// Access or Default are nil when not read
type Stat struct {
	Mode    uint32
	Access  *Acl
	Default *Acl
}

// File is the file list record of a transferred path,
// it references ACLs by their index in the session tables
type File struct {
	Mode        uint32
	AclIndex    int
	DefAclIndex int
}

func NewFile(mode uint32) *File {
	return &File{Mode: mode, AclIndex: -1, DefAclIndex: -1}
}

func (f *File) IsDir() bool { return IsDir(f.Mode) }

// Session holds the state of one side of an ACL transfer for the whole run,
// it is not safe for concurrent use
type Session struct {
	Options
	sys       sysacl.System
	caps      sysacl.Capabilities
	ids       idmap.Mapper
	access    *Table
	deflt     *Table
	beVerbose BeVerboseFunc
}

// NewSession probes the platform capabilities once, a nil mapper keeps ids as is
func NewSession(sys sysacl.System, ids idmap.Mapper, options Options, beVerbose BeVerboseFunc) *Session {
	if ids == nil {
		ids = idmap.Numeric{}
	}
	return &Session{
		Options:   options,
		sys:       sys,
		caps:      sys.Capabilities(),
		ids:       ids,
		access:    NewTable(sysacl.Access),
		deflt:     NewTable(sysacl.Default),
		beVerbose: beVerbose,
	}
}

func (sess *Session) AccessTable() *Table { return sess.access }

func (sess *Session) DefaultTable() *Table { return sess.deflt }

func (sess *Session) Capabilities() sysacl.Capabilities { return sess.caps }

func (sess *Session) System() sysacl.System { return sess.sys }

func (sess *Session) Ids() idmap.Mapper { return sess.ids }

func (sess *Session) verbose(level int, format string, args ...any) {
	if sess.beVerbose == nil {
		return
	}
	sess.beVerbose(level, fmt.Sprintf(format, args...))
}

func (sess *Session) warn(line string) { sess.verbose(0, "%s", line) }

func (sess *Session) table(typ sysacl.Type) *Table {
	if typ == sysacl.Default {
		return sess.deflt
	}
	return sess.access
}

func (sess *Session) getRacl(path string, typ sysacl.Type, mode uint32) (*Acl, error) {
	sa, err := sess.sys.Get(path, typ)
	if err == nil {
		return FromSys(sa, sess.caps, sess.warn), nil
	}
	if sysacl.IsUnsupported(err) {
		if typ == sysacl.Access {
			return FromMode(mode), nil
		}
		return &Acl{}, nil
	}
	return nil, &NativeError{Op: "sys_acl_get_file", Path: path, Type: typ, Err: err}
}

// GetAcl reads the access ACL of path and its default ACL for a directory,
// an ACL equivalent to the mode is returned when the path has no ACL support
func (sess *Session) GetAcl(path string, mode uint32) (*Stat, error) {
	st := &Stat{Mode: mode}
	var err error
	if st.Access, err = sess.getRacl(path, sysacl.Access, mode); err != nil {
		return nil, fmt.Errorf("in GetAcl: %w", err)
	}
	if IsDir(mode) {
		if st.Default, err = sess.getRacl(path, sysacl.Default, mode); err != nil {
			return nil, fmt.Errorf("in GetAcl: %w", err)
		}
	}
	return st, nil
}

// CacheAcl interns the ACLs of st without sending them and sets the file indexes
func (sess *Session) CacheAcl(file *File, st *Stat) {
	file.AclIndex = sess.access.CacheOrDrop(st.Access)
	if IsDir(st.Mode) {
		file.DefAclIndex = sess.deflt.CacheOrDrop(st.Default)
	}
}

// MatchAclIds translates the ids of every received ACL once the whole
// file list and the id lists are received, when names were not sent inline
func (sess *Session) MatchAclIds() {
	sess.access.remap(sess.ids.MatchUid, sess.ids.MatchGid)
	sess.deflt.remap(sess.ids.MatchUid, sess.ids.MatchGid)
}
