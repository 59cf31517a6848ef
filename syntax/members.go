package syntax

import "github.com/termfx/nova/lexer"

func (p *parser) parseClassBody() {
	p.b.StartNode(ClassBody)
	p.expect(lexer.LBrace, "'{'")
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		p.parseClassMember()
	}
	p.expect(lexer.RBrace, "'}'")
	p.b.FinishNode()
}

var memberSync = []lexer.Kind{lexer.RBrace, lexer.Semi, lexer.EOF}

// parseClassMember parses one member — nested type, field, method,
// constructor, or initializer block — together with its leading
// modifiers as a single node (mark+WrapFrom, same reasoning as
// parseTypeDecl: modifiers and the declared type both belong to the
// member they annotate).
func (p *parser) parseClassMember() {
	if p.at(lexer.Semi) {
		p.bump()
		return
	}
	if p.at(lexer.LBrace) {
		p.b.StartNode(InitializerBlock)
		p.parseBlock()
		p.b.FinishNode()
		return
	}
	mark := p.b.Mark()
	cp := p.checkpoint()
	p.parseModifiers()

	if p.at(lexer.LBrace) {
		// "static {... }" already consumed its modifier.
		p.parseBlock()
		p.b.WrapFrom(mark, InitializerBlock)
		return
	}
	switch {
	case p.at(lexer.KwClass):
		p.classLikeBody(ClassDecl)
		p.b.WrapFrom(mark, ClassDecl)
		return
	case p.at(lexer.KwInterface):
		p.classLikeBody(InterfaceDecl)
		p.b.WrapFrom(mark, InterfaceDecl)
		return
	case p.at(lexer.KwEnum):
		p.enumBody()
		p.b.WrapFrom(mark, EnumDecl)
		return
	case p.at(lexer.At) && p.sig(1).Kind == lexer.KwInterface:
		p.annotationBody()
		p.b.WrapFrom(mark, AnnotationDecl)
		return
	case p.at(lexer.Identifier) && p.cur().Text == "record" && p.sig(1).Kind == lexer.Identifier:
		p.recordBody()
		p.b.WrapFrom(mark, RecordDecl)
		return
	}

	// Constructor: Identifier directly followed by '(' with no type
	// preceding it.
	if p.at(lexer.Identifier) && p.sig(1).Kind == lexer.LParen {
		p.bump() // name
		p.parseParamList()
		if p.at(lexer.KwThrows) {
			p.parseThrows()
		}
		p.parseBlock()
		p.b.WrapFrom(mark, ConstructorDecl)
		return
	}

	// Generic method type parameters: <T> T foo(...)
	if p.at(lexer.Lt) {
		p.parseTypeParamList()
	}

	if !looksLikeTypeStart(p.curKind()) {
		p.rollback(cp)
		p.synchronize(memberSync...)
		return
	}
	p.parseType()
	if !p.at(lexer.Identifier) {
		p.rollback(cp)
		p.synchronize(memberSync...)
		return
	}
	if p.sig(1).Kind == lexer.LParen {
		p.bump() // name
		p.parseParamList()
		for p.at(lexer.LBracket) {
			p.b.StartNode(ArrayTypeSuffix)
			p.bump()
			p.expect(lexer.RBracket, "']'")
			p.b.FinishNode()
		}
		if p.at(lexer.KwThrows) {
			p.parseThrows()
		}
		if p.at(lexer.LBrace) {
			p.parseBlock()
		} else {
			p.expect(lexer.Semi, "';'")
		}
		p.b.WrapFrom(mark, MethodDecl)
		return
	}

	p.parseVariableDeclaratorList()
	p.expect(lexer.Semi, "';'")
	p.b.WrapFrom(mark, FieldDecl)
}

// looksLikeTypeStart reports whether k can begin a type reference.
func looksLikeTypeStart(k lexer.Kind) bool {
	switch k {
	case lexer.Identifier, lexer.KwVoid, lexer.KwInt, lexer.KwLong, lexer.KwShort,
		lexer.KwByte, lexer.KwChar, lexer.KwBoolean, lexer.KwFloat, lexer.KwDouble:
		return true
	default:
		return false
	}
}

func (p *parser) parseThrows() {
	p.b.StartNode(Throws)
	p.bump() // throws
	p.parseType()
	for p.at(lexer.Comma) {
		p.bump()
		p.parseType()
	}
	p.b.FinishNode()
}

func (p *parser) parseParamList() {
	p.b.StartNode(ParamList)
	p.expect(lexer.LParen, "'('")
	for !p.at(lexer.RParen) && !p.at(lexer.EOF) {
		p.b.StartNode(Param)
		for p.at(lexer.At) {
			p.parseAnnotation()
		}
		if p.at(lexer.KwFinal) {
			p.bump()
		}
		p.parseType()
		if p.at(lexer.Ellipsis) {
			p.bump()
		}
		p.expect(lexer.Identifier, "parameter name")
		p.b.FinishNode()
		if p.at(lexer.Comma) {
			p.bump()
			continue
		}
		break
	}
	p.expect(lexer.RParen, "')'")
	p.b.FinishNode()
}

func (p *parser) parseVariableDeclaratorList() {
	p.b.StartNode(VariableDeclaratorList)
	p.parseVariableDeclarator()
	for p.at(lexer.Comma) {
		p.bump()
		p.parseVariableDeclarator()
	}
	p.b.FinishNode()
}

func (p *parser) parseVariableDeclarator() {
	p.b.StartNode(VariableDeclarator)
	p.expect(lexer.Identifier, "variable name")
	for p.at(lexer.LBracket) {
		p.bump()
		p.expect(lexer.RBracket, "']'")
	}
	if p.at(lexer.Eq) {
		p.bump()
		if p.at(lexer.LBrace) {
			p.parseArrayInitializer()
		} else {
			p.parseExpr()
		}
	}
	p.b.FinishNode()
}

func (p *parser) parseArrayInitializer() {
	p.b.StartNode(ArrayInitializer)
	p.bump() // {
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		if p.at(lexer.LBrace) {
			p.parseArrayInitializer()
		} else {
			p.parseExpr()
		}
		if p.at(lexer.Comma) {
			p.bump()
			continue
		}
		break
	}
	p.expect(lexer.RBrace, "'}'")
	p.b.FinishNode()
}

// parseType parses a TypeRef: primitive keyword or qualified name, with
// optional generic type arguments and trailing [] suffixes.
func (p *parser) parseType() {
	p.b.StartNode(TypeRef)
	switch p.curKind() {
	case lexer.KwVoid, lexer.KwInt, lexer.KwLong, lexer.KwShort, lexer.KwByte,
		lexer.KwChar, lexer.KwBoolean, lexer.KwFloat, lexer.KwDouble:
		p.bump()
	default:
		p.parseQualifiedName()
		if p.at(lexer.Lt) {
			p.parseTypeArgList()
		}
	}
	for p.at(lexer.LBracket) && p.sig(1).Kind == lexer.RBracket {
		p.b.StartNode(ArrayTypeSuffix)
		p.bump()
		p.bump()
		p.b.FinishNode()
	}
	p.b.FinishNode()
}

func (p *parser) parseTypeArgList() {
	p.b.StartNode(TypeArgList)
	p.bump() // <
	for !p.at(lexer.Gt) && !p.at(lexer.GtGt) && !p.at(lexer.GtGtGt) && !p.at(lexer.EOF) {
		if p.at(lexer.Question) {
			p.b.StartNode(Wildcard)
			p.bump()
			if p.atAny(lexer.KwExtends, lexer.KwSuper) {
				p.bump()
				p.parseType()
			}
			p.b.FinishNode()
		} else {
			p.parseType()
		}
		if p.at(lexer.Comma) {
			p.bump()
			continue
		}
		break
	}
	p.closeAngle()
	p.b.FinishNode()
}

// closeAngle consumes one '>' off a possibly-merged >>, >>> token
//. Splitting re-lexes the remainder as a
// synthetic token of one narrower kind per step.
func (p *parser) closeAngle() {
	switch p.curKind() {
	case lexer.Gt:
		p.bump()
	case lexer.GtGt:
		p.splitGt(lexer.Gt)
	case lexer.GtGtGt:
		p.splitGt(lexer.GtGt)
	default:
		p.expect(lexer.Gt, "'>'")
	}
}

// splitGt consumes one '>' from the current merged token and leaves the
// remainder (rest) as if it were the next token, by rewriting the
// token in place in the parser's stream.
func (p *parser) splitGt(rest lexer.Kind) {
	restText := map[lexer.Kind]string{lexer.Gt: ">", lexer.GtGt: ">>"}[rest]
	p.b.Token(TokenKind(lexer.Gt), ">")
	cur := p.toks[p.idx]
	p.toks[p.idx] = lexer.Token{Kind: rest, Start: cur.Start + 1, End: cur.End, Text: restText}
}
