package syntax

import "github.com/termfx/nova/lexer"

var assignOps = []lexer.Kind{
	lexer.Eq, lexer.PlusEq, lexer.MinusEq, lexer.StarEq, lexer.SlashEq,
	lexer.AmpEq, lexer.PipeEq, lexer.CaretEq, lexer.PercentEq,
	lexer.LtLtEq, lexer.GtGtEq, lexer.GtGtGtEq,
}

func (p *parser) parseExpr() { p.parseAssignment() }

func (p *parser) parseAssignment() {
	mark := p.b.Mark()
	p.parseConditional()
	if p.atAny(assignOps...) {
		p.bump()
		p.parseAssignment() // right-associative
		p.b.WrapFrom(mark, AssignExpr)
	}
}

func (p *parser) parseConditional() {
	mark := p.b.Mark()
	p.parseBinary(0)
	if p.at(lexer.Question) {
		p.bump()
		p.parseExpr()
		p.expect(lexer.Colon, "':'")
		p.parseConditional() // right-associative chaining of nested ?:
		p.b.WrapFrom(mark, ConditionalExpr)
	}
}

// binPrec ranks binary operator tightness; instanceof sits alongside
// the relational operators per the JLS.
var binPrec = map[lexer.Kind]int{
	lexer.PipePipe: 10,
	lexer.AmpAmp:   20,
	lexer.Pipe:     30,
	lexer.Caret:    40,
	lexer.Amp:      50,
	lexer.EqEq:     60, lexer.BangEq: 60,
	lexer.Lt: 70, lexer.Gt: 70, lexer.LtEq: 70, lexer.GtEq: 70, lexer.KwInstanceof: 70,
	lexer.LtLt: 80, lexer.GtGt: 80, lexer.GtGtGt: 80,
	lexer.Plus: 90, lexer.Minus: 90,
	lexer.Star: 100, lexer.Slash: 100, lexer.Percent: 100,
}

func (p *parser) parseBinary(minPrec int) {
	mark := p.b.Mark()
	p.parseUnary()
	for {
		prec, ok := binPrec[p.curKind()]
		if !ok || prec < minPrec {
			return
		}
		if p.curKind() == lexer.KwInstanceof {
			p.bump()
			p.parseType()
			if p.at(lexer.Identifier) {
				p.bump() // pattern variable
			}
			p.b.WrapFrom(mark, InstanceofExpr)
			continue
		}
		p.bump() // operator, left-associative: next operand at prec+1
		p.parseBinary(prec + 1)
		p.b.WrapFrom(mark, BinaryExpr)
	}
}

var unaryPrefixOps = []lexer.Kind{
	lexer.Plus, lexer.Minus, lexer.Bang, lexer.Tilde, lexer.PlusPlus, lexer.MinusMinus,
}

func (p *parser) parseUnary() {
	if p.atAny(unaryPrefixOps...) {
		mark := p.b.Mark()
		p.bump()
		p.parseUnary()
		p.b.WrapFrom(mark, UnaryExpr)
		return
	}
	if p.tryParseCast() {
		return
	}
	p.parsePostfix()
}

func (p *parser) parsePostfix() {
	mark := p.b.Mark()
	p.parsePrimary()
	for {
		switch p.curKind() {
		case lexer.Dot:
			p.bump()
			if p.at(lexer.Lt) {
				p.tryExplicitTypeWitness()
			}
			switch p.curKind() {
			case lexer.KwThis, lexer.KwSuper, lexer.KwNew, lexer.Identifier:
				p.bump()
			default:
				p.b.Error(0, "expected member name")
			}
			if p.at(lexer.LParen) {
				p.parseArgList()
				p.b.WrapFrom(mark, CallExpr)
			} else {
				p.b.WrapFrom(mark, FieldAccessExpr)
			}
		case lexer.LBracket:
			p.bump()
			p.parseExpr()
			p.expect(lexer.RBracket, "']'")
			p.b.WrapFrom(mark, ArrayAccessExpr)
		case lexer.ColonColon:
			p.bump()
			if p.at(lexer.KwNew) {
				p.bump()
			} else {
				p.expect(lexer.Identifier, "method reference name")
			}
			p.b.WrapFrom(mark, MethodRefExpr)
		case lexer.PlusPlus, lexer.MinusMinus:
			p.bump()
			p.b.WrapFrom(mark, PostfixExpr)
		default:
			return
		}
	}
}

// tryExplicitTypeWitness speculatively consumes a generic method
// invocation's "<Type,...>" witness between '.' and the method name
// (e.g. "Collections.<String>emptyList()"); on failure it rolls back,
// leaving the '<' for parseBinary to treat as less-than.
func (p *parser) tryExplicitTypeWitness() {
	cp := p.checkpoint()
	p.parseTypeArgList()
	if !p.at(lexer.Identifier) {
		p.rollback(cp)
	}
}

func (p *parser) parseArgList() {
	p.b.StartNode(ArgList)
	p.expect(lexer.LParen, "'('")
	for !p.at(lexer.RParen) && !p.at(lexer.EOF) {
		p.parseExpr()
		if p.at(lexer.Comma) {
			p.bump()
			continue
		}
		break
	}
	p.expect(lexer.RParen, "')'")
	p.b.FinishNode()
}

var literalKinds = []lexer.Kind{
	lexer.IntLiteral, lexer.LongLiteral, lexer.FloatLiteral, lexer.DoubleLiteral,
	lexer.CharLiteral, lexer.StringLiteral, lexer.TextBlock, lexer.BoolLiteral, lexer.NullLiteral,
}

func (p *parser) parsePrimary() {
	// Single-identifier lambda: "x ->...".
	if p.at(lexer.Identifier) && p.sig(1).Kind == lexer.Arrow {
		p.b.StartNode(LambdaExpr)
		p.b.StartNode(LambdaParamList)
		p.b.StartNode(Param)
		p.bump()
		p.b.FinishNode()
		p.b.FinishNode()
		p.bump() // ->
		if p.at(lexer.LBrace) {
			p.parseBlock()
		} else {
			p.parseExpr()
		}
		p.b.FinishNode()
		return
	}
	if p.at(lexer.LParen) {
		if p.tryParseLambda() {
			return
		}
		p.b.StartNode(ParenExpr)
		p.bump()
		p.parseExpr()
		p.expect(lexer.RParen, "')'")
		p.b.FinishNode()
		return
	}
	switch p.curKind() {
	case lexer.KwThis:
		p.b.StartNode(ThisExpr)
		p.bump()
		if p.at(lexer.LParen) {
			p.parseArgList()
		}
		p.b.FinishNode()
	case lexer.KwSuper:
		p.b.StartNode(SuperExpr)
		p.bump()
		if p.at(lexer.LParen) {
			p.parseArgList()
		}
		p.b.FinishNode()
	case lexer.KwNew:
		p.parseNewExpr()
	case lexer.Identifier:
		p.b.StartNode(NameExpr)
		p.parseQualifiedName()
		if p.at(lexer.LParen) {
			p.parseArgList()
		}
		p.b.FinishNode()
	default:
		if p.atAny(literalKinds...) {
			p.b.StartNode(LiteralExpr)
			p.bump()
			p.b.FinishNode()
			return
		}
		p.b.Error(0, "expected expression")
		p.b.StartNode(ErrorNode)
		if !p.at(lexer.Semi) && !p.at(lexer.RParen) && !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
			p.bump()
		}
		p.b.FinishNode()
	}
}

func (p *parser) parseNewExpr() {
	p.b.StartNode(NewExpr)
	p.bump() // new
	p.parseQualifiedName()
	if p.at(lexer.Lt) {
		p.parseTypeArgList()
	}
	if p.at(lexer.LBracket) {
		p.parseNewArrayTail()
		p.b.FinishNode()
		return
	}
	if p.at(lexer.LParen) {
		p.parseArgList()
		if p.at(lexer.LBrace) {
			// Anonymous class body.
			p.parseClassBody()
		}
	}
	p.b.FinishNode()
}

func (p *parser) parseNewArrayTail() {
	for p.at(lexer.LBracket) {
		p.bump()
		if !p.at(lexer.RBracket) {
			p.parseExpr()
		}
		p.expect(lexer.RBracket, "']'")
	}
	if p.at(lexer.LBrace) {
		p.parseArrayInitializer()
	}
}

func isPrimitiveTypeKind(k lexer.Kind) bool {
	switch k {
	case lexer.KwInt, lexer.KwLong, lexer.KwShort, lexer.KwByte, lexer.KwChar,
		lexer.KwBoolean, lexer.KwFloat, lexer.KwDouble:
		return true
	default:
		return false
	}
}

// tryParseCast speculatively parses "(" Type ")" and commits as a
// CastExpr only when what follows can't instead be read as a binary
// operator continuing a parenthesized expression. A primitive-typed
// parenthesized expression is unambiguous in Java and always commits.
func (p *parser) tryParseCast() bool {
	if !p.at(lexer.LParen) {
		return false
	}
	cp := p.checkpoint()
	primitive := isPrimitiveTypeKind(p.sig(1).Kind)
	p.b.StartNode(CastExpr)
	p.bump() // (
	if !looksLikeTypeStart(p.curKind()) {
		p.rollback(cp)
		return false
	}
	p.parseType()
	for p.at(lexer.Amp) { // intersection cast: (A & B) x
		p.bump()
		p.parseType()
	}
	if !p.at(lexer.RParen) {
		p.rollback(cp)
		return false
	}
	p.bump() // )
	if !primitive && !p.castOperandFollows() {
		p.rollback(cp)
		return false
	}
	p.parseUnary()
	p.b.FinishNode()
	return true
}

func (p *parser) castOperandFollows() bool {
	switch p.curKind() {
	case lexer.Identifier, lexer.LParen, lexer.KwThis, lexer.KwNew, lexer.KwSuper,
		lexer.Bang, lexer.Tilde:
		return true
	default:
		return p.atAny(literalKinds...)
	}
}

// tryParseLambda speculatively parses a parenthesized parameter list
// followed by "->"; on any mismatch it rolls back so the caller falls
// through to parenthesized-expression parsing.
func (p *parser) tryParseLambda() bool {
	cp := p.checkpoint()
	p.b.StartNode(LambdaExpr)
	p.b.StartNode(LambdaParamList)
	p.bump() // (
	ok := true
	for !p.at(lexer.RParen) && !p.at(lexer.EOF) {
		p.b.StartNode(Param)
		if p.at(lexer.KwFinal) {
			p.bump()
		}
		switch {
		case p.at(lexer.Identifier) && (p.sig(1).Kind == lexer.Comma || p.sig(1).Kind == lexer.RParen):
			p.bump()
		case looksLikeTypeStart(p.curKind()):
			p.parseType()
			if !p.at(lexer.Identifier) {
				ok = false
			} else {
				p.bump()
			}
		default:
			ok = false
		}
		p.b.FinishNode()
		if !ok {
			break
		}
		if p.at(lexer.Comma) {
			p.bump()
			continue
		}
		break
	}
	if ok && p.at(lexer.RParen) {
		p.bump()
		if p.at(lexer.Arrow) {
			p.b.FinishNode() // LambdaParamList
			p.bump()         // ->
			if p.at(lexer.LBrace) {
				p.parseBlock()
			} else {
				p.parseExpr()
			}
			p.b.FinishNode() // LambdaExpr
			return true
		}
	}
	p.rollback(cp)
	return false
}
