package ref

import (
	"fmt"
	"regexp"
)

// Kind describes one record collection: its wire name (used in refs and
// CLI flags), its operator-facing label, and the table that backs it.
type Kind struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Table string `json:"table"`
}

// Catalog is the static set of known kinds in declaration order.
//
// The catalog is supplied by configuration, never discovered at runtime.
// Order is preserved because it drives presentation (summary rows, CLI
// help) and must be deterministic.
type Catalog struct {
	kinds  []Kind
	byName map[string]Kind
}

// tableName restricts backing-table identifiers so they can be safely
// interpolated into SQL after an existence check.
var tableName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NewCatalog builds a catalog from an ordered kind list. It rejects empty
// catalogs, duplicate names or tables, and unusable identifiers.
func NewCatalog(kinds []Kind) (Catalog, error) {
	if len(kinds) == 0 {
		return Catalog{}, fmt.Errorf("catalog: at least one kind is required")
	}

	byName := make(map[string]Kind, len(kinds))
	byTable := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		if k.Name == "" || k.Label == "" || k.Table == "" {
			return Catalog{}, fmt.Errorf("catalog: kind %q: name, label and table are all required", k.Name)
		}
		if !tableName.MatchString(k.Table) {
			return Catalog{}, fmt.Errorf("catalog: kind %q: invalid table name %q", k.Name, k.Table)
		}
		if _, dup := byName[k.Name]; dup {
			return Catalog{}, fmt.Errorf("catalog: duplicate kind name %q", k.Name)
		}
		if byTable[k.Table] {
			return Catalog{}, fmt.Errorf("catalog: duplicate table %q", k.Table)
		}
		byName[k.Name] = k
		byTable[k.Table] = true
	}

	return Catalog{kinds: append([]Kind(nil), kinds...), byName: byName}, nil
}

// DefaultCatalog returns the four kinds of the original ops-logger schema.
func DefaultCatalog() Catalog {
	c, err := NewCatalog([]Kind{
		{Name: "email", Label: "Email", Table: "email_logs"},
		{Name: "phone", Label: "Phone", Table: "phone_logs"},
		{Name: "radio", Label: "Radio", Table: "radio_logs"},
		{Name: "alert", Label: "Everbridge", Table: "everbridge_logs"},
	})
	if err != nil {
		// The default set is statically valid.
		panic(err)
	}
	return c
}

// Lookup returns the kind for a wire name.
func (c Catalog) Lookup(name string) (Kind, bool) {
	k, ok := c.byName[name]
	return k, ok
}

// Has reports whether a kind name is known.
func (c Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Kinds returns the kinds in declaration order. The returned slice is a
// copy; callers may not mutate catalog state.
func (c Catalog) Kinds() []Kind {
	return append([]Kind(nil), c.kinds...)
}

// Names returns the kind names in declaration order.
func (c Catalog) Names() []string {
	names := make([]string, len(c.kinds))
	for i, k := range c.kinds {
		names[i] = k.Name
	}
	return names
}

// Len returns the number of kinds.
func (c Catalog) Len() int {
	return len(c.kinds)
}
