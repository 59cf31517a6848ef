package resolve

import "github.com/termfx/nova/internal/intern"

// Resolve walks scope's chain outward, returning the innermost binding
// for name.
// A collision among several non-overload declarations at the same level
// is reported as Unresolved with Ambiguous set — the diagnostic text
// itself is the caller's (nova facade's) job.
func Resolve(symtab *SymbolTable, scope *Scope, name intern.Name) Resolution {
	for sc := scope; sc != nil; sc = sc.Parent {
		switch sc.Kind {
		case ScopeBlock:
			if ids, ok := sc.ownNames(name); ok {
				return resolveOne(symtab, ResLocal, ids)
			}
		case ScopeMethod:
			if ids, ok := sc.ownNames(name); ok {
				return resolveOne(symtab, ResParameter, ids)
			}
		case ScopeClass:
			if ids, ok := lookupMember(sc, name); ok {
				return resolveOne(symtab, ResMember, ids)
			}
		case ScopeFile:
			if res, ok := resolveFile(sc, name); ok {
				return res
			}
		case ScopePackage, ScopeUniverse:
			// No declarations of their own in this model; the chain
			// terminates at Universe with Unresolved.
		}
	}
	return Unresolved
}

// resolveOne collapses a same-name binding list to a single Resolution:
// a lone entry resolves directly; several entries that are all methods
// are overloads (left to resolve_method, not an ambiguity here); any
// other multiplicity is a genuine collision.
func resolveOne(symtab *SymbolTable, kind ResolutionKind, ids []intern.SymbolId) Resolution {
	if len(ids) == 1 {
		return Resolution{Kind: kind, Symbol: ids[0]}
	}
	allMethods := true
	for _, id := range ids {
		sym, ok := symtab.Lookup(id)
		if !ok || sym.Kind != KindMethod {
			allMethods = false
			break
		}
	}
	if allMethods {
		return Resolution{Kind: kind, Symbol: ids[0]}
	}
	return Resolution{Kind: ResUnresolved, Ambiguous: true}
}

// resolveFile implements the file-scope priority order: a
// single-type import shadows everything below it; a file declaration
// shadows imports from star-imports/java.lang; same-package types come
// before star imports; java.lang is the last resort.
func resolveFile(sc *Scope, name intern.Name) (Resolution, bool) {
	fi := sc.File
	if fi == nil {
		return Resolution{}, false
	}
	if t, ok := fi.SingleImports[name]; ok {
		return Resolution{Kind: ResImported, Type: t}, true
	}
	if t, ok := fi.FileTypes[name]; ok {
		return Resolution{Kind: ResTypeInScope, Type: t}, true
	}
	if t, ok := fi.SamePackageTypes[name]; ok {
		return Resolution{Kind: ResPackageMember, Type: t}, true
	}
	if sc.pkgIndex != nil {
		for _, pkg := range fi.StarImports {
			if t, ok := sc.pkgIndex.LookupType(pkg, name); ok {
				return Resolution{Kind: ResImported, Type: t}, true
			}
		}
	}
	if t, ok := fi.JavaLang[name]; ok {
		return Resolution{Kind: ResJavaLang, Type: t}, true
	}
	return Resolution{}, false
}

// ShadowHint names one outer declaration an inner one hides; shadowing
// surfaces as a hint-severity diagnostic, never an error.
type ShadowHint struct {
	Inner, Outer intern.SymbolId
	Name         intern.Name
}

// ShadowHints reports every outer declaration of name that scope's
// innermost binding hides, innermost first excluded (the winner, already
// returned by Resolve, is not itself a hint).
func ShadowHints(scope *Scope, name intern.Name) []ShadowHint {
	var hints []ShadowHint
	var winner intern.SymbolId
	have := false
	for sc := scope; sc != nil; sc = sc.Parent {
		var ids []intern.SymbolId
		var ok bool
		switch sc.Kind {
		case ScopeBlock, ScopeMethod:
			ids, ok = sc.ownNames(name)
		case ScopeClass:
			ids, ok = lookupMember(sc, name)
		}
		if !ok || len(ids) == 0 {
			continue
		}
		if !have {
			winner = ids[0]
			have = true
			continue
		}
		for _, id := range ids {
			hints = append(hints, ShadowHint{Inner: winner, Outer: id, Name: name})
		}
	}
	return hints
}
