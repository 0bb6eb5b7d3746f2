package manifest

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/MrWong99/guildmcp/internal/mcperr"
)

// Registry indexes manifests by (kind, key). Writes only happen during
// plugin discovery at startup; once the server starts accepting
// connections the registry is read-only and requires no locking, per the
// "manifest registry is immutable post-startup" invariant.
type Registry struct {
	tools     *orderedmap.OrderedMap[string, *Manifest]
	resources *orderedmap.OrderedMap[string, *Manifest]
	prompts   *orderedmap.OrderedMap[string, *Manifest]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:     orderedmap.New[string, *Manifest](),
		resources: orderedmap.New[string, *Manifest](),
		prompts:   orderedmap.New[string, *Manifest](),
	}
}

func (r *Registry) table(kind Kind) *orderedmap.OrderedMap[string, *Manifest] {
	switch kind {
	case Resource:
		return r.resources
	case Prompt:
		return r.prompts
	default:
		return r.tools
	}
}

// Add inserts m into the registry under (m.Kind, m.Key()). It fails with
// an [mcperr.Error] of kind Internal carrying the word "duplicate" when
// the slot is already occupied by an enabled manifest; a disabled
// placeholder may be overwritten.
func (r *Registry) Add(m *Manifest) error {
	table := r.table(m.Kind)
	key := m.Key()
	if existing, ok := table.Get(key); ok && existing.Enabled {
		return mcperr.New(mcperr.Internal, "duplicate %s manifest for key %q", m.Kind, key)
	}
	table.Set(key, m)
	return nil
}

// Get performs a point lookup. It returns the manifest even when
// disabled; callers that serve dispatch or listing must check Enabled
// themselves, per spec: "enabled=false occupies the key but is invisible
// to listing/dispatch/autocomplete."
func (r *Registry) Get(kind Kind, key string) (*Manifest, bool) {
	return r.table(kind).Get(key)
}

// List returns every enabled manifest of kind in stable insertion order.
func (r *Registry) List(kind Kind) []*Manifest {
	table := r.table(kind)
	out := make([]*Manifest, 0, table.Len())
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Enabled {
			out = append(out, pair.Value)
		}
	}
	return out
}

// All returns every manifest of kind, enabled or not, in insertion order.
// Used by plugin re-registration and diagnostics, never by client-facing
// listing.
func (r *Registry) All(kind Kind) []*Manifest {
	table := r.table(kind)
	out := make([]*Manifest, 0, table.Len())
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
