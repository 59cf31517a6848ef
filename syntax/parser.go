// Package syntax turns a lexed Java source into a lossless red-green
// tree via a hand-written recursive-descent parser with a Pratt
// expression core, recovering from malformed input instead of aborting
//. No external CST/parser-generator library is used: the
// tree shape here is purpose-specific (red-green, offset-free green
// nodes) and not something a generic parser-combinator or grammar
// library models.
package syntax

import "github.com/termfx/nova/lexer"

// Parse lexes and parses a full compilation unit, returning the green
// tree root and every syntax diagnostic collected along the way. Parse
// never fails outright — a best-effort tree is always produced.
func Parse(src string) (*GreenNode, []Diagnostic) {
	toks := lexer.Lex(src)
	p := &parser{toks: toks, b: newBuilder()}
	p.parseCompilationUnit()
	return p.b.stack0Result(), p.b.diags
}

// stack0Result finishes any frames the grammar left open (only if
// recovery gave up entirely) and returns the root: the node whose
// FinishNode emptied the stack.
func (b *builder) stack0Result() *GreenNode {
	for len(b.stack) > 0 {
		b.FinishNode()
	}
	return b.root
}

type parser struct {
	toks []lexer.Token
	idx  int
	b    *builder
}

// sig returns the offset-th significant (non-trivia, non-EOF-trivia)
// token ahead of the cursor without consuming anything.
func (p *parser) sig(offset int) lexer.Token {
	i := p.idx
	skipped := 0
	for i < len(p.toks) {
		if !p.toks[i].IsTrivia() {
			if skipped == offset {
				return p.toks[i]
			}
			skipped++
		}
		i++
	}
	return lexer.Token{Kind: lexer.EOF}
}

func (p *parser) cur() lexer.Token  { return p.sig(0) }
func (p *parser) curKind() lexer.Kind { return p.cur().Kind }

func (p *parser) at(k lexer.Kind) bool { return p.curKind() == k }

func (p *parser) atAny(ks...lexer.Kind) bool {
	c := p.curKind()
	for _, k := range ks {
		if c == k {
			return true
		}
	}
	return false
}

// bump pushes all pending trivia then the next significant token (or
// EOF) into the current builder frame and advances the cursor past it.
func (p *parser) bump() lexer.Token {
	for p.idx < len(p.toks) && p.toks[p.idx].IsTrivia() {
		t := p.toks[p.idx]
		p.b.Token(TokenKind(t.Kind), t.Text)
		p.idx++
	}
	if p.idx >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	t := p.toks[p.idx]
	p.b.Token(TokenKind(t.Kind), t.Text)
	if t.Kind != lexer.EOF {
		p.idx++
	}
	return t
}

// expect bumps a token of kind k, or — if absent — records a zero-width
// "missing token" diagnostic and leaves the cursor in place (insertion
// recovery: the tree gains no node for the missing token, but parsing
// continues as if it were there).
func (p *parser) expect(k lexer.Kind, what string) bool {
	if p.at(k) {
		p.bump()
		return true
	}
	p.b.Error(0, "expected "+what)
	return false
}

// checkpoint/rollback support the speculative reparse needed to
// disambiguate `<` as a less-than operator vs. the start of a type
// argument list.
type checkpoint struct {
	idx        int
	pos        int
	diagsLen   int
	frameLen   int
	stackDepth int
}

func (p *parser) checkpoint() checkpoint {
	top := p.b.stack[len(p.b.stack)-1]
	return checkpoint{
		idx:        p.idx,
		pos:        p.b.pos,
		diagsLen:   len(p.b.diags),
		frameLen:   len(top.children),
		stackDepth: len(p.b.stack),
	}
}

func (p *parser) rollback(cp checkpoint) {
	p.idx = cp.idx
	p.b.pos = cp.pos
	p.b.diags = p.b.diags[:cp.diagsLen]
	p.b.stack = p.b.stack[:cp.stackDepth]
	top := p.b.stack[len(p.b.stack)-1]
	top.children = top.children[:cp.frameLen]
}

// synchronize consumes tokens up to (not including) the next token in
// set, or EOF, wrapping everything skipped in an ErrorNode. This is the
// "synchronization" recovery strategy: used when a declaration or
// statement start doesn't match anything recognizable.
func (p *parser) synchronize(set...lexer.Kind) {
	if p.atAny(set...) || p.at(lexer.EOF) {
		return
	}
	p.b.WrapError()
	for !p.atAny(set...) && !p.at(lexer.EOF) {
		p.bump()
	}
	p.b.FinishNode()
}

func (p *parser) parseCompilationUnit() {
	p.b.StartNode(CompilationUnit)
	if p.at(lexer.KwPackage) {
		p.parsePackageDecl()
	}
	for p.at(lexer.KwImport) {
		p.parseImportDecl()
	}
	for !p.at(lexer.EOF) {
		p.parseTypeDecl()
	}
	p.expect(lexer.EOF, "end of file")
	p.b.FinishNode()
}

func (p *parser) parsePackageDecl() {
	p.b.StartNode(PackageDecl)
	p.bump() // package
	p.parseQualifiedName()
	p.expect(lexer.Semi, "';'")
	p.b.FinishNode()
}

func (p *parser) parseImportDecl() {
	p.b.StartNode(ImportDecl)
	p.bump() // import
	if p.at(lexer.KwStatic) {
		p.bump()
	}
	p.parseQualifiedName()
	if p.at(lexer.Dot) {
		p.bump()
		if p.at(lexer.Star) {
			p.bump()
		}
	}
	p.expect(lexer.Semi, "';'")
	p.b.FinishNode()
}

// parseQualifiedName consumes Identifier ('.' Identifier)* directly
// into the current frame (no wrapper node — callers decide framing).
func (p *parser) parseQualifiedName() {
	if !p.at(lexer.Identifier) {
		p.b.Error(0, "expected identifier")
		return
	}
	p.bump()
	for p.at(lexer.Dot) && p.sig(1).Kind == lexer.Identifier {
		p.bump()
		p.bump()
	}
}

var typeDeclStart = []lexer.Kind{lexer.KwClass, lexer.KwInterface, lexer.KwEnum, lexer.At, lexer.EOF}

// parseTypeDecl parses one top-level type declaration together with
// its leading modifiers/annotations as a single node (mark+WrapFrom:
// modifiers belong to the declaration they annotate, not a detached
// sibling).
func (p *parser) parseTypeDecl() {
	mark := p.b.Mark()
	cp := p.checkpoint()
	p.parseModifiers()
	switch {
	case p.at(lexer.KwClass):
		p.classLikeBody(ClassDecl)
		p.b.WrapFrom(mark, ClassDecl)
	case p.at(lexer.KwInterface):
		p.classLikeBody(InterfaceDecl)
		p.b.WrapFrom(mark, InterfaceDecl)
	case p.at(lexer.KwEnum):
		p.enumBody()
		p.b.WrapFrom(mark, EnumDecl)
	case p.at(lexer.At) && p.sig(1).Kind == lexer.KwInterface:
		p.annotationBody()
		p.b.WrapFrom(mark, AnnotationDecl)
	case p.at(lexer.Identifier) && p.cur().Text == "record" && p.sig(1).Kind == lexer.Identifier:
		p.recordBody()
		p.b.WrapFrom(mark, RecordDecl)
	default:
		p.rollback(cp)
		p.synchronize(typeDeclStart...)
	}
}

var modifierKinds = []lexer.Kind{
	lexer.KwPublic, lexer.KwPrivate, lexer.KwProtected, lexer.KwStatic,
	lexer.KwFinal, lexer.KwAbstract, lexer.KwNative, lexer.KwSynchronized,
	lexer.KwTransient, lexer.KwVolatile, lexer.KwStrictfp,
}

func (p *parser) parseModifiers() {
	p.b.StartNode(Modifiers)
	for {
		if p.atAny(modifierKinds...) {
			p.bump()
			continue
		}
		if p.at(lexer.At) && p.sig(1).Kind != lexer.KwInterface {
			p.parseAnnotation()
			continue
		}
		if p.at(lexer.Identifier) && (p.cur().Text == "sealed" || p.cur().Text == "non-sealed") {
			p.bump()
			continue
		}
		break
	}
	p.b.FinishNode()
}

func (p *parser) parseAnnotation() {
	p.b.StartNode(Annotation)
	p.bump() // @
	p.parseQualifiedName()
	if p.at(lexer.LParen) {
		p.bump()
		depth := 1
		for depth > 0 && !p.at(lexer.EOF) {
			if p.at(lexer.LParen) {
				depth++
			} else if p.at(lexer.RParen) {
				depth--
				if depth == 0 {
					p.bump()
					break
				}
			}
			p.bump()
		}
	}
	p.b.FinishNode()
}

// classLikeBody parses a class or interface's name through body,
// emitting directly into the caller's current frame — the caller wraps
// it (plus modifiers) into a ClassDecl/InterfaceDecl node.
func (p *parser) classLikeBody(kind Kind) {
	p.bump() // class/interface
	p.expect(lexer.Identifier, "type name")
	if p.at(lexer.Lt) {
		p.parseTypeParamList()
	}
	if p.at(lexer.KwExtends) {
		p.parseExtendsClause()
	}
	if p.at(lexer.KwImplements) {
		p.parseImplementsClause()
	}
	p.parseClassBody()
}

func (p *parser) recordBody() {
	p.bump() // "record" identifier
	p.expect(lexer.Identifier, "record name")
	if p.at(lexer.Lt) {
		p.parseTypeParamList()
	}
	p.parseRecordComponentList()
	if p.at(lexer.KwImplements) {
		p.parseImplementsClause()
	}
	p.parseClassBody()
}

func (p *parser) parseRecordComponentList() {
	p.b.StartNode(RecordComponentList)
	p.expect(lexer.LParen, "'('")
	for !p.at(lexer.RParen) && !p.at(lexer.EOF) {
		p.b.StartNode(RecordComponent)
		p.parseType()
		p.expect(lexer.Identifier, "component name")
		p.b.FinishNode()
		if p.at(lexer.Comma) {
			p.bump()
		} else {
			break
		}
	}
	p.expect(lexer.RParen, "')'")
	p.b.FinishNode()
}

func (p *parser) enumBody() {
	p.bump() // enum
	p.expect(lexer.Identifier, "enum name")
	if p.at(lexer.KwImplements) {
		p.parseImplementsClause()
	}
	p.expect(lexer.LBrace, "'{'")
	for p.at(lexer.Identifier) {
		p.b.StartNode(EnumConstant)
		p.bump()
		if p.at(lexer.LParen) {
			p.parseArgList()
		}
		if p.at(lexer.LBrace) {
			p.parseClassBody()
		}
		p.b.FinishNode()
		if p.at(lexer.Comma) {
			p.bump()
			continue
		}
		break
	}
	if p.at(lexer.Semi) {
		p.bump()
		for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
			p.parseClassMember()
		}
	}
	p.expect(lexer.RBrace, "'}'")
}

func (p *parser) annotationBody() {
	p.bump() // @
	p.bump() // interface
	p.expect(lexer.Identifier, "annotation name")
	p.expect(lexer.LBrace, "'{'")
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		p.parseClassMember()
	}
	p.expect(lexer.RBrace, "'}'")
}

func (p *parser) parseTypeParamList() {
	p.b.StartNode(TypeParamList)
	p.bump() // <
	for !p.at(lexer.Gt) && !p.at(lexer.EOF) {
		p.b.StartNode(TypeParam)
		p.expect(lexer.Identifier, "type parameter")
		if p.at(lexer.KwExtends) {
			p.bump()
			p.parseType()
			for p.at(lexer.Amp) {
				p.bump()
				p.parseType()
			}
		}
		p.b.FinishNode()
		if p.at(lexer.Comma) {
			p.bump()
			continue
		}
		break
	}
	p.expect(lexer.Gt, "'>'")
	p.b.FinishNode()
}

func (p *parser) parseExtendsClause() {
	p.b.StartNode(ExtendsClause)
	p.bump() // extends
	p.parseType()
	for p.at(lexer.Comma) {
		p.bump()
		p.parseType()
	}
	p.b.FinishNode()
}

func (p *parser) parseImplementsClause() {
	p.b.StartNode(ImplementsClause)
	p.bump() // implements
	p.parseType()
	for p.at(lexer.Comma) {
		p.bump()
		p.parseType()
	}
	p.b.FinishNode()
}
