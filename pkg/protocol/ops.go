package protocol

import (
	"sort"
	"strconv"
)

// OpID is the single byte that names an operation in a call payload.
type OpID uint8

// OpUnknown stands in for any operation name missing from the table.
const OpUnknown OpID = 0xFF

var opIDs = map[string]OpID{
	"hope_status":           0x01,
	"hope_who":              0x02,
	"hope_remember":         0x03,
	"hope_recall":           0x04,
	"hope_think":            0x05,
	"hope_search":           0x06,
	"hope_who_is":           0x07,
	"hope_meet":             0x08,
	"hope_feel":             0x09,
	"hope_associate":        0x0A,
	"hope_associations":     0x0B,
	"hope_consolidate":      0x0C,
	"hope_working_memory":   0x0D,
	"hope_cognitive_status": 0x0E,
}

var opNames = func() map[OpID]string {
	out := make(map[OpID]string, len(opIDs))
	for name, id := range opIDs {
		if prev, dup := out[id]; dup {
			panic("protocol: operation id " + strconv.Itoa(int(id)) + " shared by " + prev + " and " + name)
		}
		out[id] = name
	}
	return out
}()

// OpIDFor maps a name to its id, or OpUnknown.
func OpIDFor(name string) OpID {
	if id, ok := opIDs[name]; ok {
		return id
	}
	return OpUnknown
}

// OpName maps an id back to its name. Unmapped ids, including OpUnknown,
// yield "unknown_<id>".
func OpName(id OpID) string {
	if n, ok := opNames[id]; ok {
		return n
	}
	return "unknown_" + strconv.Itoa(int(id))
}

// Known reports whether the id is in the table.
func (id OpID) Known() bool {
	_, ok := opNames[id]
	return ok
}

func (id OpID) String() string { return OpName(id) }

// Operation is one table row.
type Operation struct {
	Name string
	ID   OpID
}

// Operations lists the table ordered by id.
func Operations() []Operation {
	out := make([]Operation, 0, len(opIDs))
	for name, id := range opIDs {
		out = append(out, Operation{Name: name, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
