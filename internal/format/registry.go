package format

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/pool"
)

// InsertMode selects how an insert formatter addresses tables, mirroring
// IFormatter.hpp's InsertMode enum (SubTable/SuperTable/AutoCreate; this
// repo spells the third AutoCreateTable for clarity since "AutoCreate" on
// its own reads ambiguous outside the original header's comment).
type InsertMode int

const (
	// SubTable issues one INSERT per already-existing child table:
	// "INSERT INTO ? VALUES(?, cols...)".
	SubTable InsertMode = iota

	// SuperTable issues a single INSERT addressing the super table with
	// an explicit tbname column: "INSERT INTO db.stb(tbname,ts,cols)
	// VALUES(?,?,cols...)".
	SuperTable

	// AutoCreateTable creates the child table as part of the insert:
	// "INSERT INTO ? USING db.stb TAGS(tags...) VALUES(?, cols...)".
	AutoCreateTable
)

// Formatter turns one populated pool.Block into a Result.
type Formatter interface {
	Format(blk *pool.Block) (Result, error)
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(blk *pool.Block) (Result, error)

func (f FormatterFunc) Format(blk *pool.Block) (Result, error) { return f(blk) }

// Registry holds formatters keyed by "<action-domain>.<format-type>",
// mirroring original_source's FormatterFactory (register_formatter /
// create keyed by a format-type string like "sql") generalized with an
// action-domain prefix so "insert.sql" and "create-database.sql" don't
// collide in one process-wide table.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[string]Formatter)}
}

// Register adds a formatter under "<actionDomain>.<formatType>". It
// panics on a duplicate key, matching the original's one-time static
// registration pattern (a duplicate registration there is a build-time
// programmer error, not a runtime condition to recover from).
func (r *Registry) Register(actionDomain, formatType string, f Formatter) {
	key := actionDomain + "." + formatType
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formatters[key]; exists {
		panic("format: duplicate formatter registration for " + key)
	}
	r.formatters[key] = f
}

// Get looks up a formatter by "<actionDomain>.<formatType>".
func (r *Registry) Get(actionDomain, formatType string) (Formatter, error) {
	key := actionDomain + "." + formatType
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[key]
	if !ok {
		return nil, errors.Newf("format: no formatter registered for %q", key)
	}
	return f, nil
}
