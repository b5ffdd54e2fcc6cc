package racl

import (
	"errors"
	"fmt"

	"github.com/t-beigbeder/otvl_racl/packages/sysacl"
)

// ExitStreamIO is the exit status of a run aborted on a corrupted stream
const ExitStreamIO = 12

// ErrReadOnly is returned by SetAcl when the run may not modify files
var ErrReadOnly = errors.New("read-only file system")

// NativeError reports a failure of the platform ACL layer for a path,
// only the ACL of that path is affected
type NativeError struct {
	Op   string
	Path string
	Type sysacl.Type
	Err  error
}

func (e *NativeError) Error() string {
	if e.Op == "sys_acl_delete_def_file" {
		return fmt.Sprintf("%s(%s): %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s(%s, %s): %v", e.Op, e.Path, e.Type, e.Err)
}

func (e *NativeError) Unwrap() error { return e.Err }

// ProtocolError reports a corrupted stream, the run must be aborted
type ProtocolError struct {
	What  string
	Value int64
	Limit int64
}

func (e *ProtocolError) Error() string {
	if e.Limit >= 0 {
		return fmt.Sprintf("protocol error: %s %d > %d", e.What, e.Value, e.Limit)
	}
	return fmt.Sprintf("protocol error: %s: value out of range: %x", e.What, e.Value)
}

func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
