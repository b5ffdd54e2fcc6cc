package aclsync

import (
	"fmt"
	"io"
	"sort"

	"github.com/t-beigbeder/otvl_racl/packages/racl"
)

type ReportEntry struct {
	Path    string       // path relative to the transfer root, "." for the root
	IsDir   bool         // entry is a directory
	Created bool         // directory created on the receiving side
	Skipped bool         // entry not handled: symbolic link or missing on the receiving side
	Chmod   bool         // mode fixed after the ACLs were applied
	Outcome racl.Outcome // result of applying the ACLs, Unchanged on the sending side
	Err     error        // if entry processing has errors
}

// Report provides the Send or Receive execution result
type Report struct {
	GErr     error         // global error if the transfer aborted
	Entries  []ReportEntry // report information for each entry
	Literals int           // ACL records sent or received in full
	Reused   int           // ACL records referencing a previous one by index
}

// Stats provides Report statistics
type Stats struct {
	UnchNum  int // number of entries with unchanged ACLs
	ChgNum   int // number of entries with changed ACLs
	FailNum  int // number of entries whose ACLs could not be set
	CreNum   int // number of created directories
	SkipNum  int // number of skipped entries
	ChmodNum int // number of entries whose mode was fixed
	ErrNum   int // number of errors (excl. GErr)
	Literals int
	Reused   int
}

// HasErrors indicates if any error occurred
func (rp Report) HasErrors() bool {
	if rp.GErr != nil {
		return true
	}
	for _, entry := range rp.Entries {
		if entry.Err != nil {
			return true
		}
	}
	return false
}

// GetStats evaluates stats from report
func (rp Report) GetStats() Stats {
	st := Stats{Literals: rp.Literals, Reused: rp.Reused}
	for _, entry := range rp.Entries {
		switch {
		case entry.Skipped:
			st.SkipNum++
		case entry.Outcome == racl.Changed:
			st.ChgNum++
		case entry.Outcome == racl.Failed:
			st.FailNum++
		default:
			st.UnchNum++
		}
		if entry.Created {
			st.CreNum++
		}
		if entry.Chmod {
			st.ChmodNum++
		}
		if entry.Err != nil {
			st.ErrNum++
		}
	}
	return st
}

func (rp Report) SortByPath() (srp Report) {
	srp = rp
	srp.Entries = append([]ReportEntry(nil), rp.Entries...)
	sort.Slice(srp.Entries, func(i, j int) bool {
		return srp.Entries[i].Path < srp.Entries[j].Path
	})
	return
}

func (entry ReportEntry) marker() rune {
	switch {
	case entry.Err != nil:
		return '?'
	case entry.Skipped:
		return '-'
	case entry.Created:
		return '+'
	case entry.Outcome == racl.Changed:
		return 'a'
	case entry.Chmod:
		return 'm'
	}
	return '.'
}

func (rp Report) TextOutput(out io.Writer) {
	for _, entry := range rp.Entries {
		c := entry.marker()
		t := 'f'
		if entry.IsDir {
			t = 'd'
		}
		if entry.Err == nil {
			fmt.Fprintf(out, "%c%c %s\n", t, c, entry.Path)
		} else {
			fmt.Fprintf(out, "%c%c %s %v\n", t, c, entry.Path, entry.Err)
		}
	}
}

func (st Stats) String() string {
	return fmt.Sprintf("unchanged %d, changed %d, failed %d, created %d, skipped %d, chmod %d, errors %d, ACL records %d literal %d reused",
		st.UnchNum, st.ChgNum, st.FailNum, st.CreNum, st.SkipNum, st.ChmodNum, st.ErrNum, st.Literals, st.Reused)
}
