package ids

import (
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Entity kind prefixes keep identifiers self-describing in logs and audit trails.
const (
	PrefixUser    = "usr"
	PrefixProgram = "prg"
	PrefixReport  = "rpt"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier suitable for storage keys.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewWithPrefix returns a new identifier tagged with an entity kind prefix,
// e.g. "usr_01J9ZKT8...".
func NewWithPrefix(prefix string) string {
	if prefix == "" {
		return New()
	}
	return prefix + "_" + New()
}

// Kind reports the entity prefix of an identifier, or "" for unprefixed ids.
func Kind(id string) string {
	i := strings.IndexByte(id, '_')
	if i <= 0 {
		return ""
	}
	return id[:i]
}
