package syntax

import "github.com/termfx/nova/lexer"

// Kind identifies a green node or green token's syntactic category.
// Token kinds reuse lexer.Kind values directly; node kinds start
// above lexer's range so the two spaces never collide.
type Kind uint16

const nodeKindBase Kind = 1 << 15

// TokenKind wraps a lexer.Kind as a syntax Kind for a leaf green token.
func TokenKind(k lexer.Kind) Kind { return Kind(k) }

// IsToken reports whether k identifies a leaf token rather than a node.
func (k Kind) IsToken() bool { return k < nodeKindBase }

const (
	CompilationUnit Kind = nodeKindBase + iota
	PackageDecl
	ImportDecl
	Modifiers
	Annotation
	TypeParamList
	TypeParam
	ExtendsClause
	ImplementsClause
	PermitsClause

	ClassDecl
	InterfaceDecl
	EnumDecl
	EnumConstant
	RecordDecl
	RecordComponent
	RecordComponentList
	AnnotationDecl
	ClassBody

	FieldDecl
	MethodDecl
	ConstructorDecl
	InitializerBlock
	ParamList
	Param
	VariableDeclarator
	VariableDeclaratorList
	Throws

	TypeRef
	ArrayTypeSuffix
	TypeArgList
	Wildcard

	Block
	ExprStmt
	IfStmt
	WhileStmt
	DoWhileStmt
	ForStmt
	ForEachStmt
	ReturnStmt
	ThrowStmt
	BreakStmt
	ContinueStmt
	YieldStmt
	LocalVarDecl
	TryStmt
	CatchClause
	FinallyClause
	SwitchStmt
	SwitchCase
	SynchronizedStmt
	AssertStmt
	EmptyStmt
	LabeledStmt

	BinaryExpr
	UnaryExpr
	PostfixExpr
	AssignExpr
	ConditionalExpr
	InstanceofExpr
	CastExpr
	ParenExpr
	NameExpr
	FieldAccessExpr
	CallExpr
	ArgList
	NewExpr
	NewArrayExpr
	ArrayAccessExpr
	LiteralExpr
	LambdaExpr
	LambdaParamList
	MethodRefExpr
	ThisExpr
	SuperExpr
	ArrayInitializer

	ErrorNode
)
