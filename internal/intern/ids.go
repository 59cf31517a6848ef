package intern

// Name is an interned identifier's UTF-8 bytes: method names, field names,
// local variable names, and so on. Two Names are equal iff they were
// interned from the same string.
type Name ID

// FileId identifies a file tracked by the input store. Unlike Name,
// FileId is not interned from a value — it is assigned once per logical
// file and stays stable across content edits.
type FileId ID

// PackageId identifies an interned, fully-qualified package name.
type PackageId ID

// TypeId identifies an interned type. Types are interned structurally
// (two class-applications with the same def and args intern to the same
// TypeId); see typesys.Interner.
type TypeId ID

// SymbolId identifies an interned symbol: a package, type, method, field,
// local, parameter, or type-variable declaration.
type SymbolId ID

// ScopeId identifies a node in the scope tree (universe, package, file,
// class, method/body, nested block).
type ScopeId ID

// Counter hands out sequential, never-reused generative IDs for identity
// carriers that are not interned from a value (FileId, SymbolId, ScopeId).
// It is distinct from Table because these IDs are minted once and keep
// their identity across content changes, not across equal values.
type Counter struct {
	next uint32
}

// Next returns the next id in sequence, starting at 1 (0 is reserved,
// matching Table's "zero ID means absent" convention).
func (c *Counter) Next() ID {
	c.next++
	return ID(c.next)
}

// Names interns identifier text. One instance is shared by the whole
// process, passed as a dependency, never a package-level global.
type Names struct{ *Table[string] }

// NewNames creates an empty name table.
func NewNames() *Names { return &Names{NewTable[string]()} }

// Intern interns s and returns its Name.
func (n *Names) Intern(s string) Name { return Name(n.Table.Intern(s)) }

// Text resolves a Name back to its text.
func (n *Names) Text(id Name) (string, bool) { return n.Table.Lookup(ID(id)) }

// Packages interns fully-qualified package names the same way Names does.
type Packages struct{ *Table[string] }

// NewPackages creates an empty package table.
func NewPackages() *Packages { return &Packages{NewTable[string]()} }

// Intern interns s and returns its PackageId.
func (p *Packages) Intern(s string) PackageId { return PackageId(p.Table.Intern(s)) }

// Text resolves a PackageId back to its dotted name.
func (p *Packages) Text(id PackageId) (string, bool) { return p.Table.Lookup(ID(id)) }
