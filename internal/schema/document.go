// Package schema loads the startup configuration document, compiles it
// into an immutable Catalog, and enforces the fragment/table invariants
// spec.md §3.1 requires before the coordinator will accept any query.
package schema

// Document is the raw shape decoded from schema.toml.
type Document struct {
	Tables []TableDoc `toml:"tables"`
}

// TableDoc is one logical table entry in the configuration document.
type TableDoc struct {
	Name      string        `toml:"name"`
	Fields    []FieldDoc    `toml:"fields"`
	Fragments []FragmentDoc `toml:"fragments"`
}

// FieldDoc names one logical field and its semantic type.
type FieldDoc struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// FragmentDoc is one physical shard of a table.
type FragmentDoc struct {
	Name       string          `toml:"name"`
	Connection string          `toml:"connection"`
	Manager    string          `toml:"manager"`
	Zone       string          `toml:"zone"`
	Fields     []FragmentField `toml:"fields"`
}

// FragmentField maps one logical field (Reference) to its backend-local
// Name and declared Type within a fragment.
type FragmentField struct {
	Name      string `toml:"name"`
	Reference string `toml:"reference"`
	Type      string `toml:"type"`
}
