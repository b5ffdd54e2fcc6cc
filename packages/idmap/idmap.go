// Package idmap translates user and group ids between two systems
// whose id spaces may differ, using the symbolic names as pivot.
package idmap

import (
	"fmt"
	"os/user"
	"strconv"

	"github.com/t-beigbeder/otvl_racl/packages/wire"
)

// Mapper is used by the sender to get the names to transmit
// and by the receiver to translate received ids into local ones
type Mapper interface {
	// AddUid registers uid as referenced and returns its name
	// the first time it is referenced, ok is false otherwise
	AddUid(uid uint32) (name string, ok bool)
	AddGid(gid uint32) (name string, ok bool)
	// RecvUserName records that the sender id is named name and returns the local id
	RecvUserName(id uint32, name string) uint32
	RecvGroupName(id uint32, name string) uint32
	// MatchUid returns the local id of a sender id
	MatchUid(id uint32) uint32
	MatchGid(id uint32) uint32
}

// Lookup resolves names and ids on the local system
type Lookup interface {
	UserName(uid uint32) (string, error)
	GroupName(gid uint32) (string, error)
	UserId(name string) (uint32, error)
	GroupId(name string) (uint32, error)
}

// OsLookup uses the system user and group databases
type OsLookup struct{}

func (OsLookup) UserName(uid uint32) (string, error) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func (OsLookup) GroupName(gid uint32) (string, error) {
	g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
	if err != nil {
		return "", err
	}
	return g.Name, nil
}

func parseId(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	return uint32(id), err
}

func (OsLookup) UserId(name string) (uint32, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, err
	}
	return parseId(u.Uid)
}

func (OsLookup) GroupId(name string) (uint32, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, err
	}
	return parseId(g.Gid)
}

type sentId struct {
	id   uint32
	name string
}

type idTable struct {
	sent  []sentId
	seen  map[uint32]bool
	match map[uint32]uint32
}

func newIdTable() idTable {
	return idTable{seen: map[uint32]bool{}, match: map[uint32]uint32{}}
}

// Tables is the Mapper used when names are preserved across systems
type Tables struct {
	lookup Lookup
	uids   idTable
	gids   idTable
}

func NewTables(lookup Lookup) *Tables {
	if lookup == nil {
		lookup = OsLookup{}
	}
	return &Tables{lookup: lookup, uids: newIdTable(), gids: newIdTable()}
}

func (tbs *Tables) add(tbl *idTable, id uint32, toName func(uint32) (string, error)) (string, bool) {
	// root is never mapped
	if id == 0 || tbl.seen[id] {
		return "", false
	}
	tbl.seen[id] = true
	name, err := toName(id)
	if err != nil || name == "" || len(name) > 255 {
		return "", false
	}
	tbl.sent = append(tbl.sent, sentId{id: id, name: name})
	return name, true
}

func (tbs *Tables) AddUid(uid uint32) (string, bool) {
	return tbs.add(&tbs.uids, uid, tbs.lookup.UserName)
}

func (tbs *Tables) AddGid(gid uint32) (string, bool) {
	return tbs.add(&tbs.gids, gid, tbs.lookup.GroupName)
}

func (tbs *Tables) recv(tbl *idTable, id uint32, name string, toId func(string) (uint32, error)) uint32 {
	local := id
	if lid, err := toId(name); err == nil {
		local = lid
	}
	tbl.match[id] = local
	return local
}

func (tbs *Tables) RecvUserName(id uint32, name string) uint32 {
	return tbs.recv(&tbs.uids, id, name, tbs.lookup.UserId)
}

func (tbs *Tables) RecvGroupName(id uint32, name string) uint32 {
	return tbs.recv(&tbs.gids, id, name, tbs.lookup.GroupId)
}

func (tbs *Tables) MatchUid(id uint32) uint32 {
	if local, ok := tbs.uids.match[id]; ok {
		return local
	}
	return id
}

func (tbs *Tables) MatchGid(id uint32) uint32 {
	if local, ok := tbs.gids.match[id]; ok {
		return local
	}
	return id
}

func sendList(w *wire.Writer, tbl *idTable) error {
	for _, si := range tbl.sent {
		w.WriteVarint(int32(si.id))
		w.WriteByte(byte(len(si.name)))
		w.WriteBuf([]byte(si.name))
	}
	return w.WriteVarint(0)
}

// SendLists sends the names of every id referenced so far,
// used when names were not sent along with the entries
func (tbs *Tables) SendLists(w *wire.Writer) error {
	if err := sendList(w, &tbs.uids); err != nil {
		return fmt.Errorf("in SendLists: %w", err)
	}
	if err := sendList(w, &tbs.gids); err != nil {
		return fmt.Errorf("in SendLists: %w", err)
	}
	return nil
}

func (tbs *Tables) recvList(r *wire.Reader, recv func(uint32, string) uint32) error {
	for {
		id, err := r.ReadVarint()
		if err != nil {
			return err
		}
		if id == 0 {
			return nil
		}
		l, err := r.ReadByte()
		if err != nil {
			return err
		}
		name, err := r.ReadBuf(int(l))
		if err != nil {
			return err
		}
		recv(uint32(id), string(name))
	}
}

// RecvLists reads what SendLists wrote
func (tbs *Tables) RecvLists(r *wire.Reader) error {
	if err := tbs.recvList(r, tbs.RecvUserName); err != nil {
		return fmt.Errorf("in RecvLists: %w", err)
	}
	if err := tbs.recvList(r, tbs.RecvGroupName); err != nil {
		return fmt.Errorf("in RecvLists: %w", err)
	}
	return nil
}

// Numeric is the Mapper used when ids are kept as is
type Numeric struct{}

func (Numeric) AddUid(uint32) (string, bool)               { return "", false }
func (Numeric) AddGid(uint32) (string, bool)               { return "", false }
func (Numeric) RecvUserName(id uint32, name string) uint32  { return id }
func (Numeric) RecvGroupName(id uint32, name string) uint32 { return id }
func (Numeric) MatchUid(id uint32) uint32                   { return id }
func (Numeric) MatchGid(id uint32) uint32                   { return id }
