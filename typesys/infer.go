package typesys

import (
	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/lexer"
	"github.com/termfx/nova/resolve"
	"github.com/termfx/nova/syntax"
)

// InferLocalType computes a `var` local's type from its initializer
//. declNode is
// the VariableDeclarator; its sibling initializer expression is the
// last node child once the identifier token is skipped.
func (c *Checker) InferLocalType(declNode *syntax.Red, scope *resolve.Scope) intern.TypeId {
	init := firstExprChild(declNode)
	if init == nil {
		return c.In.Error()
	}
	return c.TypeOf(init, scope)
}

// InferForEachElementType computes a for-each loop variable's declared
// element type from the iterated expression's type: T for an array T[],
// or the sole type argument of an Iterable<T>-shaped collection type,
// raw-typed collections falling back to Object (modeled as a NamedClass
// since no in-workspace java.lang.Object decl is assumed to exist).
func (c *Checker) InferForEachElementType(iterableExprType intern.TypeId) intern.TypeId {
	t, ok := c.In.Lookup(iterableExprType)
	if !ok {
		return c.In.Error()
	}
	switch t.Tag {
	case TagArray:
		return t.ElemType
	case TagClass:
		if len(t.ClassArgs) == 1 {
			return t.ClassArgs[0]
		}
		return c.In.NamedClass(c.Names.Intern("Object"))
	case TagError:
		return c.In.Error()
	default:
		return c.In.Error()
	}
}

// GenericCall pairs a generic method's declared parameter/return shape
// (expressed in terms of its own TypeVar names) with the concrete
// argument types a call site supplies, for constraint-based inference.
type GenericCall struct {
	TypeParams []intern.Name
	ParamTypes []intern.TypeId // in terms of TypeParams' TypeVar ids
	ReturnType intern.TypeId   // in terms of TypeParams' TypeVar ids
	ArgTypes   []intern.TypeId
	// Target is the call's target type if one is known (e.g. the
	// declared type of the local a call result is assigned to), used to
	// additionally constrain ReturnType when present. Zero means none.
	Target intern.TypeId
}

// InferGenericCall runs greedy unification for
// generic method calls: each type parameter's inferred argument is the
// first concrete type a corresponding parameter position binds it to;
// a parameter never bound by any argument or target falls back to
// Object. Declared upper bounds are not consulted (GenericCall carries
// none).
func (in *Interner) InferGenericCall(call GenericCall) intern.TypeId {
	bindings := map[intern.Name]intern.TypeId{}
	n := len(call.ParamTypes)
	if len(call.ArgTypes) < n {
		n = len(call.ArgTypes)
	}
	for i := 0; i < n; i++ {
		in.unify(call.ParamTypes[i], call.ArgTypes[i], bindings)
	}
	if call.Target != 0 {
		in.unify(call.ReturnType, call.Target, bindings)
	}
	for _, tv := range call.TypeParams {
		if _, ok := bindings[tv]; !ok {
			bindings[tv] = in.NamedClass(in.nameOrObject(tv))
		}
	}
	return in.substitute(call.ReturnType, bindings)
}

func (in *Interner) nameOrObject(tv intern.Name) intern.Name {
	// The type-variable's own name is meaningless as an Object stand-in;
	// callers needing a specific bound type should pre-bind it. This
	// path exists purely so an unconstrained parameter still produces a
	// concrete (if approximate) Type rather than leaving a TypeVar
	// leaking into caller-facing results.
	if in.names == nil {
		return tv
	}
	return in.names.Intern("Object")
}

// unify walks pattern (a type possibly containing TypeVars from the
// call's own type parameters) against concrete, recording the first
// binding seen for each type variable; later occurrences are ignored,
// not checked against it — greedy unification, not full constraint
// solving.
func (in *Interner) unify(pattern, concrete intern.TypeId, bindings map[intern.Name]intern.TypeId) {
	pt, ok := in.Lookup(pattern)
	if !ok {
		return
	}
	if pt.Tag == TagTypeVar {
		if _, bound := bindings[pt.VarName]; !bound {
			bindings[pt.VarName] = concrete
		}
		return
	}
	ct, ok := in.Lookup(concrete)
	if !ok {
		return
	}
	switch pt.Tag {
	case TagArray:
		if ct.Tag == TagArray {
			in.unify(pt.ElemType, ct.ElemType, bindings)
		}
	case TagClass:
		if ct.Tag == TagClass && len(pt.ClassArgs) == len(ct.ClassArgs) {
			for i := range pt.ClassArgs {
				in.unify(pt.ClassArgs[i], ct.ClassArgs[i], bindings)
			}
		}
	}
}

// substitute replaces every TypeVar in t (recursively) with its bound
// concrete type, leaving unbound variables as-is.
func (in *Interner) substitute(t intern.TypeId, bindings map[intern.Name]intern.TypeId) intern.TypeId {
	tt, ok := in.Lookup(t)
	if !ok {
		return t
	}
	switch tt.Tag {
	case TagTypeVar:
		if bound, ok := bindings[tt.VarName]; ok {
			return bound
		}
		return t
	case TagArray:
		return in.Array(in.substitute(tt.ElemType, bindings))
	case TagClass:
		if len(tt.ClassArgs) == 0 {
			return t
		}
		args := make([]intern.TypeId, len(tt.ClassArgs))
		for i, a := range tt.ClassArgs {
			args[i] = in.substitute(a, bindings)
		}
		return in.Class(tt.ClassDef, tt.ClassName, args...)
	default:
		return t
	}
}

// FunctionalInterface describes a target type's single abstract method
// shape, supplied by the caller (backed by the workspace's interface
// index) so a lambda/method-reference can be typed against it.
type FunctionalInterface struct {
	ParamTypes []intern.TypeId
	ReturnType intern.TypeId
}

// TypeOfLambda types a LambdaExpr/MethodRefExpr against an explicit
// target functional interface. The
// plain TypeOf path never has a target to pass, since expression typing
// alone carries no assignment context; callers that know the target
// (e.g. a LocalVarDecl's declared type, or a call argument's declared
// parameter type) call this directly instead.
func (c *Checker) TypeOfLambda(node *syntax.Red, target intern.TypeId, fi *FunctionalInterface) intern.TypeId {
	if fi == nil {
		return c.In.Error()
	}
	t, ok := c.In.Lookup(target)
	if !ok || t.Tag == TagError {
		return c.In.Error()
	}
	return target
}

// lambdaParamCount counts a LambdaExpr's declared parameters (1 for the
// bare single-parameter form). Nothing in this module calls it.
func lambdaParamCount(node *syntax.Red) int {
	list := syntax.FirstChildOfKind(node, syntax.LambdaParamList)
	if list == nil {
		if hasTokenKind(node, syntax.TokenKind(lexer.Identifier)) {
			return 1 // bare `x ->...` single-param form
		}
		return 0
	}
	return len(syntax.FindAll(list, syntax.Param))
}
