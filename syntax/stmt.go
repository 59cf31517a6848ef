package syntax

import "github.com/termfx/nova/lexer"

var stmtSync = []lexer.Kind{lexer.RBrace, lexer.Semi, lexer.EOF}

func (p *parser) parseBlock() {
	p.b.StartNode(Block)
	p.expect(lexer.LBrace, "'{'")
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		p.parseStatement()
	}
	p.expect(lexer.RBrace, "'}'")
	p.b.FinishNode()
}

func (p *parser) parseStatement() {
	switch p.curKind() {
	case lexer.LBrace:
		p.parseBlock()
	case lexer.Semi:
		p.b.StartNode(EmptyStmt)
		p.bump()
		p.b.FinishNode()
	case lexer.KwIf:
		p.parseIfStmt()
	case lexer.KwWhile:
		p.parseWhileStmt()
	case lexer.KwDo:
		p.parseDoWhileStmt()
	case lexer.KwFor:
		p.parseForStmt()
	case lexer.KwReturn:
		p.parseSimpleKeywordStmt(ReturnStmt, true)
	case lexer.KwThrow:
		p.parseSimpleKeywordStmt(ThrowStmt, true)
	case lexer.KwBreak:
		p.parseLabelRefStmt(BreakStmt)
	case lexer.KwContinue:
		p.parseLabelRefStmt(ContinueStmt)
	case lexer.KwTry:
		p.parseTryStmt()
	case lexer.KwSwitch:
		p.parseSwitchStmt()
	case lexer.KwSynchronized:
		p.parseSynchronizedStmt()
	case lexer.KwAssert:
		p.parseAssertStmt()
	default:
		p.parseExprOrDeclStmt()
	}
}

func (p *parser) parseSimpleKeywordStmt(kind Kind, hasExpr bool) {
	p.b.StartNode(kind)
	p.bump()
	if hasExpr && !p.at(lexer.Semi) {
		p.parseExpr()
	}
	p.expect(lexer.Semi, "';'")
	p.b.FinishNode()
}

func (p *parser) parseLabelRefStmt(kind Kind) {
	p.b.StartNode(kind)
	p.bump()
	if p.at(lexer.Identifier) {
		p.bump()
	}
	p.expect(lexer.Semi, "';'")
	p.b.FinishNode()
}

func (p *parser) parseIfStmt() {
	p.b.StartNode(IfStmt)
	p.bump() // if
	p.expect(lexer.LParen, "'('")
	p.parseExpr()
	p.expect(lexer.RParen, "')'")
	p.parseStatement()
	if p.at(lexer.KwElse) {
		p.bump()
		p.parseStatement()
	}
	p.b.FinishNode()
}

func (p *parser) parseWhileStmt() {
	p.b.StartNode(WhileStmt)
	p.bump()
	p.expect(lexer.LParen, "'('")
	p.parseExpr()
	p.expect(lexer.RParen, "')'")
	p.parseStatement()
	p.b.FinishNode()
}

func (p *parser) parseDoWhileStmt() {
	p.b.StartNode(DoWhileStmt)
	p.bump() // do
	p.parseStatement()
	p.expect(lexer.KwWhile, "'while'")
	p.expect(lexer.LParen, "'('")
	p.parseExpr()
	p.expect(lexer.RParen, "')'")
	p.expect(lexer.Semi, "';'")
	p.b.FinishNode()
}

// parseForStmt disambiguates classic vs. for-each by scanning for a
// ':' before the matching ')' starting from the loop variable's type.
func (p *parser) parseForStmt() {
	if p.isForEach() {
		p.parseForEachStmt()
		return
	}
	p.b.StartNode(ForStmt)
	p.bump() // for
	p.expect(lexer.LParen, "'('")
	if !p.at(lexer.Semi) {
		p.parseExprOrDeclForInit()
		p.expect(lexer.Semi, "';'")
	} else {
		p.bump()
	}
	if !p.at(lexer.Semi) {
		p.parseExpr()
	}
	p.expect(lexer.Semi, "';'")
	if !p.at(lexer.RParen) {
		p.parseExpr()
		for p.at(lexer.Comma) {
			p.bump()
			p.parseExpr()
		}
	}
	p.expect(lexer.RParen, "')'")
	p.parseStatement()
	p.b.FinishNode()
}

// isForEach speculatively looks ahead past "for (" for a ':' that binds
// to this loop rather than to a nested construct, by tracking paren
// depth; it never mutates parser state.
func (p *parser) isForEach() bool {
	i := 1 // offset from 'for'; sig(1) should be '('
	if p.sig(i).Kind != lexer.LParen {
		return false
	}
	i++
	depth := 1
	for depth > 0 {
		k := p.sig(i).Kind
		switch k {
		case lexer.EOF:
			return false
		case lexer.LParen:
			depth++
		case lexer.RParen:
			depth--
		case lexer.Semi:
			if depth == 1 {
				return false
			}
		case lexer.Colon:
			if depth == 1 {
				return true
			}
		}
		i++
	}
	return false
}

func (p *parser) parseForEachStmt() {
	p.b.StartNode(ForEachStmt)
	p.bump() // for
	p.expect(lexer.LParen, "'('")
	if p.at(lexer.KwFinal) {
		p.bump()
	}
	p.parseType()
	p.expect(lexer.Identifier, "loop variable")
	p.expect(lexer.Colon, "':'")
	p.parseExpr()
	p.expect(lexer.RParen, "')'")
	p.parseStatement()
	p.b.FinishNode()
}

func (p *parser) parseExprOrDeclForInit() {
	if looksLikeTypeStart(p.curKind()) && p.localDeclAhead() {
		p.b.StartNode(LocalVarDecl)
		p.parseType()
		p.parseVariableDeclaratorList()
		p.b.FinishNode()
		return
	}
	p.parseExpr()
	for p.at(lexer.Comma) {
		p.bump()
		p.parseExpr()
	}
}

// localDeclAhead distinguishes "int i = 0" from an expression statement
// starting with a name used as a value (e.g. a bare method call whose
// target happens to share a keyword-like spelling is impossible in
// Java, but "Foo.bar()" vs "Foo bar" both start with an identifier).
// It looks for Type Identifier as the next two significant tokens.
func (p *parser) localDeclAhead() bool {
	switch p.curKind() {
	case lexer.KwVoid, lexer.KwInt, lexer.KwLong, lexer.KwShort, lexer.KwByte,
		lexer.KwChar, lexer.KwBoolean, lexer.KwFloat, lexer.KwDouble:
		return true
	case lexer.Identifier:
		i := 1
		for p.sig(i).Kind == lexer.Dot && p.sig(i+1).Kind == lexer.Identifier {
			i += 2
		}
		if p.sig(i).Kind == lexer.Lt {
			depth := 0
			for {
				k := p.sig(i).Kind
				if k == lexer.Lt {
					depth++
				} else if k == lexer.Gt {
					depth--
					if depth == 0 {
						i++
						break
					}
				} else if k == lexer.EOF || k == lexer.Semi {
					return false
				}
				i++
			}
		}
		for p.sig(i).Kind == lexer.LBracket && p.sig(i+1).Kind == lexer.RBracket {
			i += 2
		}
		return p.sig(i).Kind == lexer.Identifier
	default:
		return false
	}
}

func (p *parser) parseTryStmt() {
	p.b.StartNode(TryStmt)
	p.bump() // try
	if p.at(lexer.LParen) {
		p.bump()
		for {
			if p.at(lexer.KwFinal) {
				p.bump()
			}
			p.parseType()
			p.expect(lexer.Identifier, "resource name")
			p.expect(lexer.Eq, "'='")
			p.parseExpr()
			if p.at(lexer.Semi) {
				p.bump()
				if p.at(lexer.RParen) {
					break
				}
				continue
			}
			break
		}
		p.expect(lexer.RParen, "')'")
	}
	p.parseBlock()
	for p.at(lexer.KwCatch) {
		p.b.StartNode(CatchClause)
		p.bump()
		p.expect(lexer.LParen, "'('")
		p.parseType()
		for p.at(lexer.Pipe) {
			p.bump()
			p.parseType()
		}
		p.expect(lexer.Identifier, "exception variable")
		p.expect(lexer.RParen, "')'")
		p.parseBlock()
		p.b.FinishNode()
	}
	if p.at(lexer.KwFinally) {
		p.b.StartNode(FinallyClause)
		p.bump()
		p.parseBlock()
		p.b.FinishNode()
	}
	p.b.FinishNode()
}

func (p *parser) parseSwitchStmt() {
	p.b.StartNode(SwitchStmt)
	p.bump() // switch
	p.expect(lexer.LParen, "'('")
	p.parseExpr()
	p.expect(lexer.RParen, "')'")
	p.expect(lexer.LBrace, "'{'")
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		p.b.StartNode(SwitchCase)
		if p.at(lexer.KwCase) {
			p.bump()
			p.parseExpr()
			for p.at(lexer.Comma) {
				p.bump()
				p.parseExpr()
			}
		} else if p.at(lexer.KwDefault) {
			p.bump()
		} else {
			p.b.FinishNode()
			p.synchronize(lexer.KwCase, lexer.KwDefault, lexer.RBrace)
			continue
		}
		if p.at(lexer.Arrow) {
			p.bump()
			if p.at(lexer.LBrace) {
				p.parseBlock()
			} else {
				p.parseExpr()
				p.expect(lexer.Semi, "';'")
			}
		} else {
			p.expect(lexer.Colon, "':'")
			for !p.atAny(lexer.KwCase, lexer.KwDefault, lexer.RBrace, lexer.EOF) {
				p.parseStatement()
			}
		}
		p.b.FinishNode()
	}
	p.expect(lexer.RBrace, "'}'")
	p.b.FinishNode()
}

func (p *parser) parseSynchronizedStmt() {
	p.b.StartNode(SynchronizedStmt)
	p.bump()
	p.expect(lexer.LParen, "'('")
	p.parseExpr()
	p.expect(lexer.RParen, "')'")
	p.parseBlock()
	p.b.FinishNode()
}

func (p *parser) parseAssertStmt() {
	p.b.StartNode(AssertStmt)
	p.bump()
	p.parseExpr()
	if p.at(lexer.Colon) {
		p.bump()
		p.parseExpr()
	}
	p.expect(lexer.Semi, "';'")
	p.b.FinishNode()
}

// parseExprOrDeclStmt handles local variable declarations, labeled
// statements, "yield" (contextual), and plain expression statements.
func (p *parser) parseExprOrDeclStmt() {
	if p.at(lexer.Identifier) && p.cur().Text == "yield" && !p.startsCallOrField(1) {
		p.parseSimpleKeywordStmt(YieldStmt, true)
		return
	}
	if p.at(lexer.Identifier) && p.sig(1).Kind == lexer.Colon {
		p.b.StartNode(LabeledStmt)
		p.bump()
		p.bump()
		p.parseStatement()
		p.b.FinishNode()
		return
	}
	if looksLikeTypeStart(p.curKind()) && p.localDeclAhead() {
		p.b.StartNode(LocalVarDecl)
		if p.at(lexer.KwFinal) {
			p.bump()
		}
		p.parseType()
		p.parseVariableDeclaratorList()
		p.expect(lexer.Semi, "';'")
		p.b.FinishNode()
		return
	}
	if !p.startsExpr() {
		p.synchronize(stmtSync...)
		if p.at(lexer.Semi) {
			p.bump()
		}
		return
	}
	p.b.StartNode(ExprStmt)
	p.parseExpr()
	p.expect(lexer.Semi, "';'")
	p.b.FinishNode()
}

// startsCallOrField reports whether the token `offset` ahead begins a
// member-access/call chain, used to keep "yield" usable as an ordinary
// identifier (e.g. a field or method named yield) outside switch
// expression bodies.
func (p *parser) startsCallOrField(offset int) bool {
	k := p.sig(offset).Kind
	return k == lexer.Dot || k == lexer.LParen
}

func (p *parser) startsExpr() bool {
	switch p.curKind() {
	case lexer.RBrace, lexer.EOF:
		return false
	default:
		return true
	}
}
