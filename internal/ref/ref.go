package ref

import "fmt"

// Ref is a lightweight, kind-polymorphic pointer to one log record.
//
// Kind names one of the disjoint record collections (see Catalog), ID is the
// record's rowid within that collection, and Stamp is the record's timestamp
// exactly as stored. The underlying store has no cross-kind foreign key, so
// a Ref may dangle: the record it points to can be deleted independently.
// Consumers surface dangling refs as placeholders at resolve time rather
// than rejecting them at write time.
type Ref struct {
	Kind  string `json:"kind"`
	ID    int64  `json:"id"`
	Stamp string `json:"timestamp"`
}

// String returns the canonical short form used in operator-facing lists,
// e.g. "phone #7".
func (r Ref) String() string {
	return fmt.Sprintf("%s #%d", r.Kind, r.ID)
}

// Valid reports whether the ref is structurally usable: a non-empty kind
// and a positive id. It says nothing about whether the record exists.
func (r Ref) Valid() bool {
	return r.Kind != "" && r.ID > 0
}
