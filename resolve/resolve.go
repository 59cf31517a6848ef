// Package resolve walks Nova's scope chain to map a name use to its
// declaration. It sits between the item tree (which supplies
// per-file declaration skeletons) and the type checker (which consumes
// Resolution values to drive type_of and overload resolution).
package resolve

import (
	"sync"

	"github.com/termfx/nova/internal/intern"
)

// Kind is a symbol's declaration category.
type Kind int

const (
	KindPackage Kind = iota
	KindType
	KindMethod
	KindField
	KindLocal
	KindParam
	KindTypeVar
)

func (k Kind) String() string {
	switch k {
	case KindPackage:
		return "package"
	case KindType:
		return "type"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindLocal:
		return "local"
	case KindParam:
		return "param"
	case KindTypeVar:
		return "type-var"
	default:
		return "unknown"
	}
}

// Visibility is a declaration's access modifier.
type Visibility int

const (
	VisibilityPackage Visibility = iota
	VisibilityPublic
	VisibilityPrivate
	VisibilityProtected
)

// Origin pins a symbol back to the declaration site that produced it. A
// framework-contributed virtual member has a zero Origin — it has no source range.
type Origin struct {
	File  intern.FileId
	Start int
	End   int
}

// Symbol is one interned declaration. Overloaded
// methods share Name but are distinct Symbols, one per signature.
type Symbol struct {
	ID         intern.SymbolId
	Kind       Kind
	Name       intern.Name
	Container  intern.SymbolId // 0 ("no symbol") if top-level/none
	Visibility Visibility
	Origin     Origin
	// Signature disambiguates overloaded methods; empty for non-methods.
	Signature string
}

// SymbolTable interns Symbols keyed by a caller-supplied stable key
// (e.g. "file#42:method:foo(int)"), so re-declaring the same thing across
// an edit that doesn't touch it reuses the same SymbolId.
type SymbolTable struct {
	mu      sync.RWMutex
	byKey   map[string]intern.SymbolId
	byID    map[intern.SymbolId]*Symbol
	counter intern.Counter
}

// NewSymbolTable creates an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byKey: make(map[string]intern.SymbolId),
		byID:  make(map[intern.SymbolId]*Symbol),
	}
}

// Declare interns (or updates) the symbol registered under key, returning
// its stable SymbolId. Calling Declare again with the same key and a
// changed Origin (e.g. after an edit shifted line numbers) keeps the ID
// but refreshes the stored Symbol.
func (t *SymbolTable) Declare(key string, sym Symbol) intern.SymbolId {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byKey[key]; ok {
		sym.ID = id
		t.byID[id] = &sym
		return id
	}
	id := intern.SymbolId(t.counter.Next())
	sym.ID = id
	t.byKey[key] = id
	t.byID[id] = &sym
	return id
}

// Lookup resolves a SymbolId back to its Symbol.
func (t *SymbolTable) Lookup(id intern.SymbolId) (*Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sym, ok := t.byID[id]
	return sym, ok
}

// LookupKey resolves the same stable key Declare was called with back
// to its SymbolId, for later passes (e.g. typesys's declaration-typing
// walk) that need to attach more data to a declaration Builder already
// interned, without re-declaring it.
func (t *SymbolTable) LookupKey(key string) (intern.SymbolId, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byKey[key]
	return id, ok
}

// ResolutionKind is the tag of a Resolution sum-type value.
type ResolutionKind int

const (
	ResUnresolved ResolutionKind = iota
	ResLocal
	ResParameter
	ResMember
	ResTypeInScope
	ResImported
	ResPackageMember
	ResJavaLang
)

func (k ResolutionKind) String() string {
	switch k {
	case ResLocal:
		return "Local"
	case ResParameter:
		return "Parameter"
	case ResMember:
		return "Member"
	case ResTypeInScope:
		return "TypeInScope"
	case ResImported:
		return "Imported"
	case ResPackageMember:
		return "PackageMember"
	case ResJavaLang:
		return "JavaLang"
	default:
		return "Unresolved"
	}
}

// Resolution is the outcome of resolving one name use.
// Symbol is populated for Local/Parameter/Member; Type is populated for
// TypeInScope/Imported/PackageMember/JavaLang. Ambiguous marks a
// same-level collision that is reported rather than guessed at.
type Resolution struct {
	Kind      ResolutionKind
	Symbol    intern.SymbolId
	Type      intern.TypeId
	Ambiguous bool
}

// Eq implements query.Value.
func (r Resolution) Eq(v any) bool {
	o, ok := v.(Resolution)
	return ok && r == o
}

// Unresolved is the zero Resolution, returned whenever no scope level
// binds the name.
var Unresolved = Resolution{Kind: ResUnresolved}
