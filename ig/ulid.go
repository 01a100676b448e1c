package ig

import (
	"github.com/oklog/ulid/v2"
)

// newDealReference generates a client-supplied deal reference: a ULID is
// lexically sortable and collision-resistant enough that the broker will
// never see the same reference twice from this process, unlike a random
// UUID's unordered bytes.
func newDealReference() string {
	return ulid.Make().String()
}

// isULIDZero reports whether u is the zero ULID, used to detect a deal
// reference that was never actually generated (e.g. a zero-valued struct
// field read before newDealReference ran).
func isULIDZero(u ulid.ULID) bool {
	for _, b := range u.Bytes() {
		if b != 0 {
			return false
		}
	}
	return true
}
