package simplesearch

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// SchemaRegistry is the set of property columns known to exist on the
// objects relation. It only grows, until Reset.
type SchemaRegistry struct {
	mu      sync.RWMutex
	columns map[string]struct{}
}

// NewSchemaRegistry returns a registry holding columns.
func NewSchemaRegistry(columns ...string) *SchemaRegistry {
	r := &SchemaRegistry{columns: make(map[string]struct{}, len(columns))}
	for _, c := range columns {
		r.columns[c] = struct{}{}
	}
	return r
}

func (r *SchemaRegistry) Has(column string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.columns[column]
	return ok
}

func (r *SchemaRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.columns)
}

// Columns returns the known columns, sorted.
func (r *SchemaRegistry) Columns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.columns))
	for c := range r.columns {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Diff returns the keys that are not yet columns, sorted and deduplicated.
// It does not modify the registry.
func (r *SchemaRegistry) Diff(keys []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{}, len(keys))
	var out []string
	for _, k := range keys {
		if _, ok := r.columns[k]; ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Add records columns as existing.
func (r *SchemaRegistry) Add(columns ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range columns {
		r.columns[c] = struct{}{}
	}
}

// Reset empties the registry.
func (r *SchemaRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.columns = make(map[string]struct{})
}

var validFieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidatePropertyName rejects names that cannot be a property column.
// Property names are otherwise used verbatim as quoted column names; strict
// mode additionally limits them to plain identifiers.
func ValidatePropertyName(name string, strict bool) error {
	if name == "" {
		return SchemaError("property name cannot be empty")
	}
	if name == storage.IdentifierColumn {
		return SchemaError(fmt.Sprintf("property name '%s' is reserved", name))
	}
	if strict && !validFieldNameRe.MatchString(name) {
		return RejectedField(name, "invalid property name (must match ^[A-Za-z_][A-Za-z0-9_]*$)")
	}
	return nil
}

func propertyKeys(props Properties) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
