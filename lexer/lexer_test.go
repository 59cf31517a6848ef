package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func concatText(toks []Token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.Text)
	}
	return b.String()
}

func TestLex_LosslessRoundTrip(t *testing.T) {
	srcs := []string{
		`class C { int x = 1; void f() { return; } }`,
		"class C {\n  // comment\n  /* block */\n  /** doc */\n  int x;\n}",
		`var x = "hello\nworld"; char c = '\'';`,
		`String s = """
			multi
			line""";`,
		`double d = 1_000.5e-3f;`,
		`int hex = 0xFF_FF; int bin = 0b1010;`,
	}
	for _, src := range srcs {
		toks := Lex(src)
		assert.Equal(t, src, concatText(toks), "lex+unlex must reproduce source exactly")
		require.NotEmpty(t, toks)
		assert.Equal(t, EOF, toks[len(toks)-1].Kind)
	}
}

func TestLex_KeywordsVsIdentifiers(t *testing.T) {
	toks := Lex("class record var")
	kinds := []Kind{}
	for _, tok := range toks {
		if !tok.IsTrivia() && tok.Kind != EOF {
			kinds = append(kinds, tok.Kind)
		}
	}
	require.Len(t, kinds, 3)
	assert.Equal(t, KwClass, kinds[0])
	// "record" and "var" are contextual: lexed as plain identifiers.
	assert.Equal(t, Identifier, kinds[1])
	assert.Equal(t, Identifier, kinds[2])

	k, ok := ContextualKind("record")
	require.True(t, ok)
	assert.Equal(t, ContextualRecord, k)
}

func TestLex_UnterminatedStringIsSingleErrorToken(t *testing.T) {
	toks := Lex(`"abc`)
	require.Len(t, toks, 2) // Error + EOF
	assert.Equal(t, Error, toks[0].Kind)
	assert.Equal(t, `"abc`, toks[0].Text)
}

func TestLex_UnterminatedTextBlockEndsAtEOF(t *testing.T) {
	toks := Lex(`"""abc`)
	require.Len(t, toks, 2)
	assert.Equal(t, Error, toks[0].Kind)
}

func TestLex_UnrecognizedCharacterIsOneCharError(t *testing.T) {
	toks := Lex("int x = 1 # 2;")
	var errTok *Token
	for i := range toks {
		if toks[i].Kind == Error {
			errTok = &toks[i]
			break
		}
	}
	require.NotNil(t, errTok)
	assert.Equal(t, "#", errTok.Text)
}

func TestLex_OperatorMaximalMunch(t *testing.T) {
	toks := Lex(">>>= >>= >> > ->")
	var kinds []Kind
	for _, tok := range toks {
		if !tok.IsTrivia() && tok.Kind != EOF {
			kinds = append(kinds, tok.Kind)
		}
	}
	assert.Equal(t, []Kind{GtGtGtEq, GtGtEq, GtGt, Gt, Arrow}, kinds)
}
