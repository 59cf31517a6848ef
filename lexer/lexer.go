package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lex tokenizes src in full, returning every token including trivia. The
// concatenation of every token's Text equals src exactly.
func Lex(src string) []Token {
	l := &lexer{src: src}
	var out []Token
	for {
		tok := l.next()
		out = append(out, tok)
		if tok.Kind == EOF {
			return out
		}
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) eof() bool { return l.pos >= len(l.src) }

func (l *lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekByteAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *lexer) next() Token {
	start := l.pos
	if l.eof() {
		return Token{Kind: EOF, Start: start, End: start, Text: ""}
	}

	c := l.peekByte()

	switch {
	case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
		return l.lexWhitespace(start)
	case c == '/' && l.peekByteAt(1) == '/':
		return l.lexLineComment(start)
	case c == '/' && l.peekByteAt(1) == '*':
		return l.lexBlockComment(start)
	case c == '"' && l.peekByteAt(1) == '"' && l.peekByteAt(2) == '"':
		return l.lexTextBlock(start)
	case c == '"':
		return l.lexString(start)
	case c == '\'':
		return l.lexChar(start)
	case isDigit(c):
		return l.lexNumber(start)
	case c == '.' && isDigit(l.peekByteAt(1)):
		return l.lexNumber(start)
	case isIdentStart(rune(c)) || c >= utf8.RuneSelf:
		return l.lexIdentLike(start)
	default:
		return l.lexOperator(start)
	}
}

func (l *lexer) slice(start int) string { return l.src[start:l.pos] }

func (l *lexer) lexWhitespace(start int) Token {
	for !l.eof() {
		switch l.peekByte() {
		case ' ', '\t', '\n', '\r', '\f':
			l.pos++
		default:
			return Token{Kind: Whitespace, Start: start, End: l.pos, Text: l.slice(start)}
		}
	}
	return Token{Kind: Whitespace, Start: start, End: l.pos, Text: l.slice(start)}
}

func (l *lexer) lexLineComment(start int) Token {
	l.pos += 2
	for !l.eof() && l.peekByte() != '\n' {
		l.pos++
	}
	return Token{Kind: LineComment, Start: start, End: l.pos, Text: l.slice(start)}
}

func (l *lexer) lexBlockComment(start int) Token {
	doc := l.peekByteAt(2) == '*' && l.peekByteAt(3) != '/'
	l.pos += 2
	for !l.eof() {
		if l.peekByte() == '*' && l.peekByteAt(1) == '/' {
			l.pos += 2
			kind := BlockComment
			if doc {
				kind = DocComment
			}
			return Token{Kind: kind, Start: start, End: l.pos, Text: l.slice(start)}
		}
		l.pos++
	}
	// Unterminated block comment: absorb to EOF as the comment itself;
	// this is lossless (no Error token needed — nothing was misread as
	// code) but the parser's caller may still want to flag it.
	kind := BlockComment
	if doc {
		kind = DocComment
	}
	return Token{Kind: kind, Start: start, End: l.pos, Text: l.slice(start)}
}

// lexTextBlock handles """…""" block-locally: an unterminated text
// block ends at EOF producing an Error token covering the remainder.
func (l *lexer) lexTextBlock(start int) Token {
	l.pos += 3
	// Skip the rest of the opening line (optional trailing whitespace)
	// — still part of the same token for lossless round-trip purposes.
	for !l.eof() {
		if l.peekByte() == '"' && l.peekByteAt(1) == '"' && l.peekByteAt(2) == '"' {
			l.pos += 3
			return Token{Kind: TextBlock, Start: start, End: l.pos, Text: l.slice(start)}
		}
		if l.peekByte() == '\\' && !l.eof() {
			l.pos++
		}
		l.pos++
	}
	return Token{Kind: Error, Start: start, End: l.pos, Text: l.slice(start)}
}

func (l *lexer) lexString(start int) Token {
	l.pos++ // opening quote
	for !l.eof() {
		c := l.peekByte()
		if c == '\\' {
			l.pos += 2
			continue
		}
		if c == '"' {
			l.pos++
			return Token{Kind: StringLiteral, Start: start, End: l.pos, Text: l.slice(start)}
		}
		if c == '\n' {
			// Unterminated: stop before consuming the newline so trivia
			// after it still lexes normally.
			return Token{Kind: Error, Start: start, End: l.pos, Text: l.slice(start)}
		}
		l.pos++
	}
	return Token{Kind: Error, Start: start, End: l.pos, Text: l.slice(start)}
}

func (l *lexer) lexChar(start int) Token {
	l.pos++ // opening quote
	for !l.eof() {
		c := l.peekByte()
		if c == '\\' {
			l.pos += 2
			continue
		}
		if c == '\'' {
			l.pos++
			return Token{Kind: CharLiteral, Start: start, End: l.pos, Text: l.slice(start)}
		}
		if c == '\n' {
			return Token{Kind: Error, Start: start, End: l.pos, Text: l.slice(start)}
		}
		l.pos++
	}
	return Token{Kind: Error, Start: start, End: l.pos, Text: l.slice(start)}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (l *lexer) lexNumber(start int) Token {
	if l.peekByte() == '0' && (l.peekByteAt(1) == 'x' || l.peekByteAt(1) == 'X') {
		l.pos += 2
		for !l.eof() && (isHexDigit(l.peekByte()) || l.peekByte() == '_') {
			l.pos++
		}
		return l.finishIntSuffix(start)
	}
	if l.peekByte() == '0' && (l.peekByteAt(1) == 'b' || l.peekByteAt(1) == 'B') {
		l.pos += 2
		for !l.eof() && (l.peekByte() == '0' || l.peekByte() == '1' || l.peekByte() == '_') {
			l.pos++
		}
		return l.finishIntSuffix(start)
	}

	isFloat := false
	for !l.eof() && (isDigit(l.peekByte()) || l.peekByte() == '_') {
		l.pos++
	}
	if !l.eof() && l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		l.pos++
		for !l.eof() && (isDigit(l.peekByte()) || l.peekByte() == '_') {
			l.pos++
		}
	}
	if !l.eof() && (l.peekByte() == 'e' || l.peekByte() == 'E') {
		isFloat = true
		l.pos++
		if !l.eof() && (l.peekByte() == '+' || l.peekByte() == '-') {
			l.pos++
		}
		for !l.eof() && isDigit(l.peekByte()) {
			l.pos++
		}
	}
	return l.finishNumberSuffix(start, isFloat)
}

func (l *lexer) finishIntSuffix(start int) Token {
	kind := IntLiteral
	if !l.eof() && (l.peekByte() == 'l' || l.peekByte() == 'L') {
		l.pos++
		kind = LongLiteral
	}
	return Token{Kind: kind, Start: start, End: l.pos, Text: l.slice(start)}
}

func (l *lexer) finishNumberSuffix(start int, isFloat bool) Token {
	kind := IntLiteral
	if isFloat {
		kind = DoubleLiteral
	}
	if !l.eof() {
		switch l.peekByte() {
		case 'l', 'L':
			l.pos++
			kind = LongLiteral
		case 'f', 'F':
			l.pos++
			kind = FloatLiteral
		case 'd', 'D':
			l.pos++
			kind = DoubleLiteral
		}
	}
	return Token{Kind: kind, Start: start, End: l.pos, Text: l.slice(start)}
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) lexIdentLike(start int) Token {
	for !l.eof() {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	text := l.slice(start)
	if kind, ok := keywords[text]; ok {
		return Token{Kind: kind, Start: start, End: l.pos, Text: text}
	}
	return Token{Kind: Identifier, Start: start, End: l.pos, Text: text}
}

// three, two, and one-byte operator tables, longest match first.
var threeByteOps = map[string]Kind{
	">>>": GtGtGt,
	"<<=": LtLtEq,
	">>=": GtGtEq,
}
var fourByteOps = map[string]Kind{
	">>>=": GtGtGtEq,
}
var twoByteOps = map[string]Kind{
	"==": EqEq, "<=": LtEq, ">=": GtEq, "!=": BangEq,
	"&&": AmpAmp, "||": PipePipe, "++": PlusPlus, "--": MinusMinus,
	"<<": LtLt, ">>": GtGt,
	"+=": PlusEq, "-=": MinusEq, "*=": StarEq, "/=": SlashEq,
	"&=": AmpEq, "|=": PipeEq, "^=": CaretEq, "%=": PercentEq,
	"->": Arrow, "::": ColonColon,
}
var oneByteOps = map[byte]Kind{
	'(': LParen, ')': RParen, '{': LBrace, '}': RBrace,
	'[': LBracket, ']': RBracket, ';': Semi, ',': Comma, '.': Dot,
	'@': At, ':': Colon, '?': Question,
	'=': Eq, '>': Gt, '<': Lt, '!': Bang, '~': Tilde,
	'&': Amp, '|': Pipe, '^': Caret, '%': Percent,
	'+': Plus, '-': Minus, '*': Star, '/': Slash,
}

func (l *lexer) lexOperator(start int) Token {
	if strings.HasPrefix(l.src[l.pos:], "...") {
		l.pos += 3
		return Token{Kind: Ellipsis, Start: start, End: l.pos, Text: l.slice(start)}
	}
	if l.pos+4 <= len(l.src) {
		if k, ok := fourByteOps[l.src[l.pos:l.pos+4]]; ok {
			l.pos += 4
			return Token{Kind: k, Start: start, End: l.pos, Text: l.slice(start)}
		}
	}
	if l.pos+3 <= len(l.src) {
		if k, ok := threeByteOps[l.src[l.pos:l.pos+3]]; ok {
			l.pos += 3
			return Token{Kind: k, Start: start, End: l.pos, Text: l.slice(start)}
		}
	}
	if l.pos+2 <= len(l.src) {
		if k, ok := twoByteOps[l.src[l.pos:l.pos+2]]; ok {
			l.pos += 2
			return Token{Kind: k, Start: start, End: l.pos, Text: l.slice(start)}
		}
	}
	c := l.peekByte()
	if k, ok := oneByteOps[c]; ok {
		l.pos++
		return Token{Kind: k, Start: start, End: l.pos, Text: l.slice(start)}
	}

	// Unrecognized character: one Error token covering exactly one rune
	//.
	_, size := utf8.DecodeRuneInString(l.src[l.pos:])
	if size == 0 {
		size = 1
	}
	l.pos += size
	return Token{Kind: Error, Start: start, End: l.pos, Text: l.slice(start)}
}
