package typesys

import (
	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/lexer"
	"github.com/termfx/nova/resolve"
	"github.com/termfx/nova/syntax"
)

// Checker computes type_of(Expr) on demand against one
// file's resolved scopes and symbol declarations. A Checker is built per
// snapshot revision by the facade and threaded through as the query's
// state, the same way resolve.Builder is.
type Checker struct {
	In     *Interner
	Idx    ClassIndex
	Symtab *resolve.SymbolTable
	Names  *intern.Names

	// SymbolTypes maps a field/param/local/type-variable Symbol to its
	// declared or inferred type. Populated by DeclareTypes as each
	// declaration's TypeRef is processed (bottom-up, so a local's `var`
	// initializer has already been typed by the time declarations that
	// read it are).
	SymbolTypes map[intern.SymbolId]intern.TypeId

	// MethodReturnTypes maps a method/constructor Symbol to its declared
	// return type (void for constructors).
	MethodReturnTypes map[intern.SymbolId]intern.TypeId

	// Members answers field/method lookups on a receiver's class type for
	// typeOfFieldAccess; nil means no cross-class lookup is available and
	// such accesses degrade to Error.
	Members ClassMembers
}

// NewChecker creates an empty Checker sharing in/idx/symtab/names with
// the rest of the snapshot's query state.
func NewChecker(in *Interner, idx ClassIndex, symtab *resolve.SymbolTable, names *intern.Names) *Checker {
	return &Checker{
		In: in, Idx: idx, Symtab: symtab, Names: names,
		SymbolTypes:       map[intern.SymbolId]intern.TypeId{},
		MethodReturnTypes: map[intern.SymbolId]intern.TypeId{},
	}
}

// ResolveTypeRef types a TypeRef node: a primitive keyword, or a
// qualified name resolved through scope, with
// any ArrayTypeSuffix children wrapping the result in Array types.
func (c *Checker) ResolveTypeRef(node *syntax.Red, scope *resolve.Scope) intern.TypeId {
	if node == nil {
		return c.In.Error()
	}
	base := c.resolveTypeRefBase(node, scope)
	dims := 0
	for _, ch := range node.NodeChildren() {
		if ch.Kind() == syntax.ArrayTypeSuffix {
			dims++
		}
	}
	for i := 0; i < dims; i++ {
		base = c.In.Array(base)
	}
	return base
}

func (c *Checker) resolveTypeRefBase(node *syntax.Red, scope *resolve.Scope) intern.TypeId {
	for _, rc := range node.Children() {
		if rc.Token == nil {
			continue
		}
		switch rc.Token.Kind {
		case syntax.TokenKind(lexer.KwVoid):
			return c.In.Primitive(PrimVoid)
		case syntax.TokenKind(lexer.KwBoolean):
			return c.In.Primitive(PrimBoolean)
		case syntax.TokenKind(lexer.KwByte):
			return c.In.Primitive(PrimByte)
		case syntax.TokenKind(lexer.KwShort):
			return c.In.Primitive(PrimShort)
		case syntax.TokenKind(lexer.KwChar):
			return c.In.Primitive(PrimChar)
		case syntax.TokenKind(lexer.KwInt):
			return c.In.Primitive(PrimInt)
		case syntax.TokenKind(lexer.KwLong):
			return c.In.Primitive(PrimLong)
		case syntax.TokenKind(lexer.KwFloat):
			return c.In.Primitive(PrimFloat)
		case syntax.TokenKind(lexer.KwDouble):
			return c.In.Primitive(PrimDouble)
		case syntax.TokenKind(lexer.Identifier):
			name := c.Names.Intern(rc.Token.Text)
			return c.classTypeFromName(node, scope, name)
		}
	}
	return c.In.Error()
}

// classTypeFromName resolves a simple type name through scope, reading
// any TypeArgList sibling as generic arguments.
func (c *Checker) classTypeFromName(node *syntax.Red, scope *resolve.Scope, name intern.Name) intern.TypeId {
	var args []intern.TypeId
	if argList := syntax.FirstChildOfKind(node, syntax.TypeArgList); argList != nil {
		for _, a := range argList.NodeChildren() {
			switch a.Kind() {
			case syntax.TypeRef:
				args = append(args, c.ResolveTypeRef(a, scope))
			case syntax.Wildcard:
				args = append(args, c.resolveWildcard(a, scope))
			}
		}
	}
	res := resolve.Resolve(c.Symtab, scope, name)
	switch res.Kind {
	case resolve.ResTypeInScope, resolve.ResImported, resolve.ResPackageMember, resolve.ResJavaLang:
		if len(args) == 0 {
			return res.Type
		}
		t, ok := c.In.Lookup(res.Type)
		if !ok {
			return c.In.Error()
		}
		return c.In.Class(t.ClassDef, t.ClassName, args...)
	default:
		// Not visible in scope (out-of-workspace library type, or a
		// genuinely unresolved name): model it as a named class anyway
		// so subsequent operations degrade gracefully rather than
		// cascading Error through every use of a perfectly valid but
		// unindexed library type.
		return c.In.NamedClass(name, args...)
	}
}

func (c *Checker) resolveWildcard(node *syntax.Red, scope *resolve.Scope) intern.TypeId {
	if tr := syntax.FirstChildOfKind(node, syntax.TypeRef); tr != nil {
		hasExtends := hasTokenKind(node, syntax.TokenKind(lexer.KwExtends))
		bound := c.ResolveTypeRef(tr, scope)
		if hasExtends {
			return c.In.Wildcard(Extends, bound)
		}
		return c.In.Wildcard(Super, bound)
	}
	return c.In.Wildcard(Unbounded, 0)
}

func hasTokenKind(node *syntax.Red, k syntax.Kind) bool {
	for _, rc := range node.Children() {
		if rc.Token != nil && rc.Token.Kind == k {
			return true
		}
	}
	return false
}

// TypeOf computes the type of an expression node. Any failure
// downstream (unresolved name, unsupported form) degrades to Error
// rather than panicking or cascading a second diagnostic.
func (c *Checker) TypeOf(node *syntax.Red, scope *resolve.Scope) intern.TypeId {
	if node == nil {
		return c.In.Error()
	}
	switch node.Kind() {
	case syntax.LiteralExpr:
		return c.typeOfLiteral(node)
	case syntax.NameExpr:
		return c.typeOfName(node, scope)
	case syntax.ParenExpr:
		return c.TypeOf(firstExprChild(node), scope)
	case syntax.CastExpr:
		if tr := syntax.FirstChildOfKind(node, syntax.TypeRef); tr != nil {
			return c.ResolveTypeRef(tr, scope)
		}
		return c.In.Error()
	case syntax.InstanceofExpr:
		return c.In.Primitive(PrimBoolean)
	case syntax.UnaryExpr:
		return c.typeOfUnary(node, scope)
	case syntax.PostfixExpr:
		return c.TypeOf(firstExprChild(node), scope)
	case syntax.BinaryExpr:
		return c.typeOfBinary(node, scope)
	case syntax.ConditionalExpr:
		return c.typeOfConditional(node, scope)
	case syntax.AssignExpr:
		return c.TypeOf(firstExprChild(node), scope)
	case syntax.NewExpr:
		return c.typeOfNew(node, scope)
	case syntax.NewArrayExpr:
		return c.typeOfNew(node, scope)
	case syntax.FieldAccessExpr:
		return c.typeOfFieldAccess(node, scope)
	case syntax.CallExpr:
		return c.typeOfCall(node, scope)
	case syntax.ThisExpr:
		if scope != nil && scope.EnclosingClass != nil {
			return c.In.Error() // class-as-value needs a named-class lookup the caller supplies; left Error until wired to a concrete project index
		}
		return c.In.Error()
	case syntax.LambdaExpr, syntax.MethodRefExpr:
		// Target-typed; without a target type threaded in, the lambda's
		// type is Error.
		return c.In.Error()
	default:
		return c.In.Error()
	}
}

func firstExprChild(node *syntax.Red) *syntax.Red {
	children := node.NodeChildren()
	if len(children) == 0 {
		return nil
	}
	return children[len(children)-1]
}

func (c *Checker) typeOfLiteral(node *syntax.Red) intern.TypeId {
	for _, rc := range node.Children() {
		if rc.Token == nil {
			continue
		}
		switch rc.Token.Kind {
		case syntax.TokenKind(lexer.IntLiteral):
			return c.In.Primitive(PrimInt)
		case syntax.TokenKind(lexer.LongLiteral):
			return c.In.Primitive(PrimLong)
		case syntax.TokenKind(lexer.FloatLiteral):
			return c.In.Primitive(PrimFloat)
		case syntax.TokenKind(lexer.DoubleLiteral):
			return c.In.Primitive(PrimDouble)
		case syntax.TokenKind(lexer.CharLiteral):
			return c.In.Primitive(PrimChar)
		case syntax.TokenKind(lexer.BoolLiteral):
			return c.In.Primitive(PrimBoolean)
		case syntax.TokenKind(lexer.NullLiteral):
			return c.In.Null()
		case syntax.TokenKind(lexer.StringLiteral), syntax.TokenKind(lexer.TextBlock):
			return c.In.NamedClass(c.Names.Intern("String"))
		}
	}
	return c.In.Error()
}

func (c *Checker) typeOfName(node *syntax.Red, scope *resolve.Scope) intern.TypeId {
	name := firstIdentifierText(node)
	if name == "" {
		return c.In.Error()
	}
	res := resolve.Resolve(c.Symtab, scope, c.Names.Intern(name))
	switch res.Kind {
	case resolve.ResLocal, resolve.ResParameter, resolve.ResMember:
		if t, ok := c.SymbolTypes[res.Symbol]; ok {
			return t
		}
		return c.In.Error()
	case resolve.ResTypeInScope, resolve.ResImported, resolve.ResPackageMember, resolve.ResJavaLang:
		return res.Type
	default:
		return c.In.Error()
	}
}

func firstIdentifierText(node *syntax.Red) string {
	for _, rc := range node.Children() {
		if rc.Token != nil && rc.Token.Kind == syntax.TokenKind(lexer.Identifier) {
			return rc.Token.Text
		}
	}
	return ""
}

func (c *Checker) typeOfUnary(node *syntax.Red, scope *resolve.Scope) intern.TypeId {
	isBang := hasTokenKind(node, syntax.TokenKind(lexer.Bang))
	operand := c.TypeOf(firstExprChild(node), scope)
	if isBang {
		return c.In.Primitive(PrimBoolean)
	}
	return operand
}

var comparisonOps = map[syntax.Kind]bool{
	syntax.TokenKind(lexer.EqEq): true, syntax.TokenKind(lexer.BangEq): true,
	syntax.TokenKind(lexer.Lt): true, syntax.TokenKind(lexer.Gt): true,
	syntax.TokenKind(lexer.LtEq): true, syntax.TokenKind(lexer.GtEq): true,
	syntax.TokenKind(lexer.AmpAmp): true, syntax.TokenKind(lexer.PipePipe): true,
}

func (c *Checker) typeOfBinary(node *syntax.Red, scope *resolve.Scope) intern.TypeId {
	children := node.NodeChildren()
	if len(children) < 2 {
		return c.In.Error()
	}
	lhs := c.TypeOf(children[0], scope)
	rhs := c.TypeOf(children[1], scope)
	op := binaryOperator(node)

	if comparisonOps[op] {
		return c.In.Primitive(PrimBoolean)
	}
	if op == syntax.TokenKind(lexer.Plus) {
		lt, lok := c.In.Lookup(lhs)
		rt, rok := c.In.Lookup(rhs)
		if (lok && lt.Tag == TagClass && simpleName(c.In.NameText(lt)) == "String") ||
			(rok && rt.Tag == TagClass && simpleName(c.In.NameText(rt)) == "String") {
			return c.In.NamedClass(c.Names.Intern("String"))
		}
	}
	return c.numericPromote(lhs, rhs)
}

// binaryOperator scans node's direct tokens for the operator sitting
// between its two operand children.
func binaryOperator(node *syntax.Red) syntax.Kind {
	for _, rc := range node.Children() {
		if rc.Token == nil {
			continue
		}
		if _, ok := binOpRank[rc.Token.Kind]; ok {
			return rc.Token.Kind
		}
	}
	return syntax.TokenKind(lexer.Plus)
}

var binOpRank = map[syntax.Kind]int{
	syntax.TokenKind(lexer.PipePipe): 1, syntax.TokenKind(lexer.AmpAmp): 1,
	syntax.TokenKind(lexer.Pipe): 1, syntax.TokenKind(lexer.Caret): 1, syntax.TokenKind(lexer.Amp): 1,
	syntax.TokenKind(lexer.EqEq): 1, syntax.TokenKind(lexer.BangEq): 1,
	syntax.TokenKind(lexer.Lt): 1, syntax.TokenKind(lexer.Gt): 1,
	syntax.TokenKind(lexer.LtEq): 1, syntax.TokenKind(lexer.GtEq): 1,
	syntax.TokenKind(lexer.LtLt): 1, syntax.TokenKind(lexer.GtGt): 1, syntax.TokenKind(lexer.GtGtGt): 1,
	syntax.TokenKind(lexer.Plus): 1, syntax.TokenKind(lexer.Minus): 1,
	syntax.TokenKind(lexer.Star): 1, syntax.TokenKind(lexer.Slash): 1, syntax.TokenKind(lexer.Percent): 1,
}

// numericPromote applies the JLS binary numeric promotion lattice:
// the result is the wider of the two operand types, falling back to
// Error when either side isn't numeric.
func (c *Checker) numericPromote(a, b intern.TypeId) intern.TypeId {
	at, aok := c.In.Lookup(a)
	bt, bok := c.In.Lookup(b)
	if !aok || !bok || at.Tag != TagPrimitive || bt.Tag != TagPrimitive {
		if aok && at.Tag == TagError {
			return a
		}
		if bok && bt.Tag == TagError {
			return b
		}
		return c.In.Error()
	}
	ar, ok1 := widenRank[at.Primitive]
	br, ok2 := widenRank[bt.Primitive]
	if !ok1 || !ok2 {
		return c.In.Error()
	}
	if ar >= br {
		return a
	}
	return b
}

func (c *Checker) typeOfConditional(node *syntax.Red, scope *resolve.Scope) intern.TypeId {
	children := node.NodeChildren()
	if len(children) < 3 {
		return c.In.Error()
	}
	// children[0] is the condition; [1] and [2] are the branches. A full
	// JLS conditional-expression type (lub of numeric/boxing/reference
	// cases) is intentionally not modeled; the "then" branch's type is
	// used as a practical approximation when both branches already agree,
	// else Error rather than guessing.
	thenT := c.TypeOf(children[1], scope)
	elseT := c.TypeOf(children[2], scope)
	if thenT == elseT {
		return thenT
	}
	promoted := c.numericPromote(thenT, elseT)
	if tt, ok := c.In.Lookup(promoted); ok && tt.Tag != TagError {
		return promoted
	}
	return c.In.Error()
}

func (c *Checker) typeOfNew(node *syntax.Red, scope *resolve.Scope) intern.TypeId {
	// The instantiated type's qualified name is a run of Identifier/Dot
	// tokens directly under the node (parseQualifiedName opens no node of
	// its own); a TypeRef child is used instead when one is present.
	if tr := syntax.FirstChildOfKind(node, syntax.TypeRef); tr != nil {
		base := c.ResolveTypeRef(tr, scope)
		if node.Kind() == syntax.NewArrayExpr {
			return c.In.Array(base)
		}
		return base
	}
	name := firstIdentifierText(node)
	if name == "" {
		return c.In.Error()
	}
	t := c.classTypeFromName(node, scope, c.Names.Intern(name))
	if node.Kind() == syntax.NewArrayExpr {
		return c.In.Array(t)
	}
	return t
}

func (c *Checker) typeOfFieldAccess(node *syntax.Red, scope *resolve.Scope) intern.TypeId {
	children := node.NodeChildren()
	if len(children) == 0 {
		return c.In.Error()
	}
	receiverType := c.TypeOf(children[0], scope)
	memberName := lastIdentifierText(node)
	if memberName == "" || c.Idx == nil {
		return c.In.Error()
	}
	rt, ok := c.In.Lookup(receiverType)
	if !ok || rt.Tag != TagClass || rt.ClassDef == 0 {
		return c.In.Error()
	}
	if sym, ok := c.lookupMemberSymbol(rt.ClassDef, memberName); ok {
		if t, ok := c.SymbolTypes[sym]; ok {
			return t
		}
	}
	return c.In.Error()
}

// ClassMembers is supplied by the facade to answer "which Symbol does
// field/method name X refer to within class def", letting the checker
// type field accesses and calls without importing resolve's Scope
// machinery directly (typesys stays a pure function of Interner +
// ClassIndex + this lookup).
type ClassMembers interface {
	Member(def intern.TypeId, name string) (intern.SymbolId, bool)
}

func (c *Checker) lookupMemberSymbol(def intern.TypeId, name string) (intern.SymbolId, bool) {
	if c.Members == nil {
		return 0, false
	}
	return c.Members.Member(def, name)
}

func lastIdentifierText(node *syntax.Red) string {
	last := ""
	for _, rc := range node.Children() {
		if rc.Token != nil && rc.Token.Kind == syntax.TokenKind(lexer.Identifier) {
			last = rc.Token.Text
		}
	}
	return last
}

func (c *Checker) typeOfCall(node *syntax.Red, scope *resolve.Scope) intern.TypeId {
	name := firstIdentifierTextOrLast(node)
	if name == "" {
		return c.In.Error()
	}
	res := resolve.Resolve(c.Symtab, scope, c.Names.Intern(name))
	if res.Kind != resolve.ResMember {
		return c.In.Error()
	}
	if t, ok := c.MethodReturnTypes[res.Symbol]; ok {
		return t
	}
	return c.In.Error()
}

func firstIdentifierTextOrLast(node *syntax.Red) string {
	if node.Kind() == syntax.FieldAccessExpr || node.Kind() == syntax.CallExpr {
		if t := lastIdentifierText(node); t != "" {
			return t
		}
	}
	return firstIdentifierText(node)
}
