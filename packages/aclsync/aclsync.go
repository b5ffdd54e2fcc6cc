package aclsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/t-beigbeder/otvl_racl/packages/idmap"
	"github.com/t-beigbeder/otvl_racl/packages/racl"
	"github.com/t-beigbeder/otvl_racl/packages/raclfsu"
	"github.com/t-beigbeder/otvl_racl/packages/ufpath"
	"github.com/t-beigbeder/otvl_racl/packages/wire"
)

type BeVerboseFunc func(level int, line string)

// Options indicate how Send and Receive should behave,
// the transfer options shared by both sides are the ones of the racl.Session
type Options struct {
	CreateDirs bool          // create the directories missing on the receiving side
	BeVerbose  BeVerboseFunc // callback for process verbosity
}

func (o Options) verbose(level int, format string, args ...any) {
	if o.BeVerbose == nil {
		return
	}
	o.BeVerbose(level, fmt.Sprintf(format, args...))
}

const rootPath = "."

// record is the file list entry of one path in the stream
type record struct {
	path string
	file *racl.File
}

func fullPath(root, rel string) string {
	if rel == rootPath {
		return root
	}
	return ufpath.Join(root, rel)
}

// listsExchanged tells if the id lists follow the file list,
// when not incremental names are not sent along with ACL entries
func listsExchanged(sess *racl.Session) bool {
	return !sess.IncRecurse && !sess.NumericIDs
}

func sendLists(w *wire.Writer, sess *racl.Session) error {
	if tbs, ok := sess.Ids().(*idmap.Tables); ok {
		return tbs.SendLists(w)
	}
	w.WriteVarint(0)
	return w.WriteVarint(0)
}

func recvLists(r *wire.Reader, sess *racl.Session) error {
	tbs, ok := sess.Ids().(*idmap.Tables)
	if !ok {
		// drained, ids are kept as is
		tbs = idmap.NewTables(nil)
	}
	return tbs.RecvLists(r)
}

func tableCounts(sess *racl.Session) (literals, reused int) {
	for _, tbl := range []*racl.Table{sess.AccessTable(), sess.DefaultTable()} {
		st := tbl.Stats()
		literals += st.Misses
		reused += st.Hits
	}
	return
}

func doSend(ctx context.Context, afs afero.Fs, root string, sess *racl.Session, w *wire.Writer, options Options) (report Report) {
	walkFn := func(p string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, relErr := ufpath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		if rel == "" {
			rel = rootPath
		}
		if err != nil {
			if rel == rootPath {
				return err
			}
			options.verbose(0, "%s: %v", rel, err)
			report.Entries = append(report.Entries, ReportEntry{Path: rel, Err: err})
			return nil
		}
		mode := raclfsu.PosixMode(info.Mode())
		entry := ReportEntry{Path: rel, IsDir: racl.IsDir(mode)}
		if mode&racl.ModeType != racl.ModeDir && mode&racl.ModeType != racl.ModeRegular {
			options.verbose(2, "skipping %s mode %o", rel, mode)
			entry.Skipped = true
			report.Entries = append(report.Entries, entry)
			return nil
		}
		st, err := sess.GetAcl(p, mode)
		if err != nil {
			options.verbose(0, "%s: %v", rel, err)
			entry.Err = err
			report.Entries = append(report.Entries, entry)
			return nil
		}
		w.WriteVstring(rel)
		w.WriteVarint(int32(mode))
		if err = sess.SendAcl(w, st); err != nil {
			return err
		}
		options.verbose(2, "sent %s mode %o", rel, mode)
		report.Entries = append(report.Entries, entry)
		return nil
	}
	if err := afero.Walk(afs, root, walkFn); err != nil {
		report.GErr = fmt.Errorf("in Send: %w", err)
		return
	}
	w.WriteVstring("")
	if listsExchanged(sess) {
		sendLists(w, sess)
	}
	if err := w.Flush(); err != nil {
		report.GErr = fmt.Errorf("in Send: %w", err)
	}
	return
}

// Send walks the tree at root of afs in lexical order and writes to w,
// for each directory or regular file, its path relative to root, its mode
// and its ACL records, followed by an empty path and if needed the id lists.
// Symbolic links are skipped.
// ctx is the parent context, possibly nil
func Send(ctx context.Context, afs afero.Fs, root string, sess *racl.Session, w *wire.Writer, options Options) (report Report) {
	if ctx == nil {
		ctx = context.Background()
	}
	report = doSend(ctx, afs, filepath.Clean(root), sess, w, options)
	report.Literals, report.Reused = tableCounts(sess)
	return
}

func recvRecords(r *wire.Reader, sess *racl.Session) ([]record, error) {
	var records []record
	for {
		rel, err := r.ReadVstring()
		if err != nil {
			return nil, err
		}
		if rel == "" {
			break
		}
		if rel != rootPath {
			if err = ufpath.Check(rel); err != nil {
				return nil, fmt.Errorf("%w: %v", &racl.ProtocolError{What: "file path", Value: int64(len(rel)), Limit: -1}, err)
			}
		}
		v, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		mode := uint32(v)
		if mode&racl.ModeType != racl.ModeDir && mode&racl.ModeType != racl.ModeRegular {
			return nil, &racl.ProtocolError{What: "file mode", Value: int64(mode), Limit: -1}
		}
		file := racl.NewFile(mode)
		if err = sess.ReceiveAcl(r, file); err != nil {
			return nil, err
		}
		records = append(records, record{path: rel, file: file})
	}
	if listsExchanged(sess) {
		if err := recvLists(r, sess); err != nil {
			return nil, err
		}
		sess.MatchAclIds()
	}
	return records, nil
}

// createDir creates the missing directory p with the permissions a new
// entry gets from the default ACL of its parent or the umask
func createDir(afs afero.Fs, p string, sess *racl.Session, mode uint32) (uint32, error) {
	nm := raclfsu.NewMode(mode, sess.DefaultPermsForDir(ufpath.Dir(p)))
	if sess.DryRun {
		return nm, nil
	}
	if err := afs.Mkdir(p, raclfsu.FileMode(nm)); err != nil {
		return 0, fmt.Errorf("in createDir: %w", err)
	}
	cur, _, err := raclfsu.GetFileMode(afs, p)
	return cur, err
}

// apply sets the ACLs of one received record, it returns an error
// only when the transfer must be aborted
func apply(afs afero.Fs, root string, rec record, sess *racl.Session, options Options) (ReportEntry, error) {
	p := fullPath(root, rec.path)
	entry := ReportEntry{Path: rec.path, IsDir: rec.file.IsDir()}
	cur, _, err := raclfsu.GetFileMode(afs, p)
	if errors.Is(err, fs.ErrNotExist) && entry.IsDir && options.CreateDirs {
		if cur, err = createDir(afs, p, sess, rec.file.Mode); err == nil {
			entry.Created = true
			if sess.DryRun {
				// nothing to read from
				entry.Outcome = racl.Changed
				return entry, nil
			}
		}
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			entry.Skipped = true
			return entry, nil
		}
		entry.Outcome, entry.Err = racl.Failed, err
		return entry, nil
	}
	if racl.IsDir(cur) != entry.IsDir {
		entry.Outcome, entry.Err = racl.Failed, fmt.Errorf("%s: file type differs, mode %o", rec.path, cur)
		return entry, nil
	}
	st, err := sess.GetAcl(p, cur)
	if err != nil {
		entry.Outcome, entry.Err = racl.Failed, err
		return entry, nil
	}
	entry.Outcome, err = sess.SetAcl(p, rec.file, st)
	if errors.Is(err, racl.ErrReadOnly) {
		return entry, err
	}
	entry.Err = err
	if sess.DryRun {
		entry.Chmod = st.Mode&racl.ChmodBits != rec.file.Mode&racl.ChmodBits
		return entry, nil
	}
	fixed, err := raclfsu.FixMode(afs, p, st.Mode, rec.file.Mode)
	entry.Chmod = fixed
	if err != nil {
		entry.Err = errors.Join(entry.Err, err)
	}
	return entry, nil
}

func doReceive(ctx context.Context, afs afero.Fs, root string, sess *racl.Session, r *wire.Reader, options Options) (report Report) {
	records, err := recvRecords(r, sess)
	if err != nil {
		report.GErr = fmt.Errorf("in Receive: %w", err)
		return
	}
	options.verbose(1, "received %d entries, %d access and %d default ACLs", len(records), sess.AccessTable().Len(), sess.DefaultTable().Len())
	for _, rec := range records {
		if err = ctx.Err(); err != nil {
			report.GErr = fmt.Errorf("in Receive: %w", err)
			return
		}
		entry, err := apply(afs, root, rec, sess, options)
		if err != nil {
			report.GErr = fmt.Errorf("in Receive: %w", err)
			return
		}
		if entry.Err != nil {
			options.verbose(0, "%s: %v", entry.Path, entry.Err)
		} else {
			options.verbose(2, "%s %s", entry.Path, entry.Outcome)
		}
		report.Entries = append(report.Entries, entry)
	}
	return
}

// Receive reads the whole stream written by Send then applies the received
// ACLs to the tree at root of afs in the order they were sent, fixing the
// mode of each entry afterwards.
// A corrupted stream aborts the transfer, report.GErr then matches racl.IsProtocolError.
// ctx is the parent context, possibly nil
func Receive(ctx context.Context, afs afero.Fs, root string, sess *racl.Session, r *wire.Reader, options Options) (report Report) {
	if ctx == nil {
		ctx = context.Background()
	}
	report = doReceive(ctx, afs, root, sess, r, options)
	report.Literals, report.Reused = tableCounts(sess)
	return
}
