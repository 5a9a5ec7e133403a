package lexer

import (
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/gem/pkg/compiler/token"
)

type typedLiteral struct {
	Type    token.TokenType
	Literal string
}

func kinds(tokens []token.Token) []typedLiteral {
	out := make([]typedLiteral, len(tokens))
	for i, tok := range tokens {
		out[i] = typedLiteral{tok.Type, tok.Literal}
	}
	return out
}

func TestTokenize_FunctionWithCommandCall(t *testing.T) {
	tokens, err := Tokenize(`fn test() { print "hello world"; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []typedLiteral{
		{token.FN, "fn"},
		{token.IDENT, "test"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "print"},
		{token.STRING, "hello world"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}
	if diff := cmp.Diff(want, kinds(tokens)); diff != "" {
		t.Errorf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestNextToken(t *testing.T) {
	input := `x += 1.5; y -= 2; z *= 3; w /= 4;
i++; j--;
a == b; a != b; a <= b; a >= b; a < b; a > b;
obj.name = [1, "s"]; !ok;
// comment to end of line
while for if elif else class new return true false println read`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.IDENT, "x"}, {token.PLUS_ASSIGN, "+="}, {token.NUMBER, "1.5"}, {token.SEMICOLON, ";"},
		{token.IDENT, "y"}, {token.MINUS_ASSIGN, "-="}, {token.NUMBER, "2"}, {token.SEMICOLON, ";"},
		{token.IDENT, "z"}, {token.ASTERISK_ASSIGN, "*="}, {token.NUMBER, "3"}, {token.SEMICOLON, ";"},
		{token.IDENT, "w"}, {token.SLASH_ASSIGN, "/="}, {token.NUMBER, "4"}, {token.SEMICOLON, ";"},
		{token.IDENT, "i"}, {token.INCREMENT, "++"}, {token.SEMICOLON, ";"},
		{token.IDENT, "j"}, {token.DECREMENT, "--"}, {token.SEMICOLON, ";"},
		{token.IDENT, "a"}, {token.EQ, "=="}, {token.IDENT, "b"}, {token.SEMICOLON, ";"},
		{token.IDENT, "a"}, {token.NOT_EQ, "!="}, {token.IDENT, "b"}, {token.SEMICOLON, ";"},
		{token.IDENT, "a"}, {token.LTE, "<="}, {token.IDENT, "b"}, {token.SEMICOLON, ";"},
		{token.IDENT, "a"}, {token.GTE, ">="}, {token.IDENT, "b"}, {token.SEMICOLON, ";"},
		{token.IDENT, "a"}, {token.LT, "<"}, {token.IDENT, "b"}, {token.SEMICOLON, ";"},
		{token.IDENT, "a"}, {token.GT, ">"}, {token.IDENT, "b"}, {token.SEMICOLON, ";"},
		{token.IDENT, "obj"}, {token.DOT, "."}, {token.IDENT, "name"}, {token.ASSIGN, "="},
		{token.LBRACKET, "["}, {token.NUMBER, "1"}, {token.COMMA, ","}, {token.STRING, "s"}, {token.RBRACKET, "]"},
		{token.SEMICOLON, ";"},
		{token.BANG, "!"}, {token.IDENT, "ok"}, {token.SEMICOLON, ";"},
		{token.WHILE, "while"}, {token.FOR, "for"}, {token.IF, "if"}, {token.ELIF, "elif"},
		{token.ELSE, "else"}, {token.CLASS, "class"}, {token.NEW, "new"}, {token.RETURN, "return"},
		{token.TRUE, "true"}, {token.FALSE, "false"},
		{token.IDENT, "println"}, {token.IDENT, "read"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestTokenize_NumberValues(t *testing.T) {
	tokens, err := Tokenize("0 42 3.25 7.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0, 42, 3.25, 7}
	for i, w := range want {
		if tokens[i].Type != token.NUMBER || tokens[i].Number != w {
			t.Errorf("tokens[%d] = %v (%v), want number %v", i, tokens[i], tokens[i].Number, w)
		}
	}
}

func TestTokenize_Positions(t *testing.T) {
	tokens, err := Tokenize("a = 1;\n  b = 2;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := tokens[4]
	if b.Literal != "b" || b.Line != 2 || b.Column != 3 {
		t.Errorf("got %s at %d:%d, want b at 2:3", b, b.Line, b.Column)
	}
}

func TestTokenize_StringsAreVerbatim(t *testing.T) {
	tokens, err := Tokenize(`"a\nb // not a comment"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].Literal != `a\nb // not a comment` {
		t.Errorf("literal = %q", tokens[0].Literal)
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		text  string
	}{
		{"two decimal points", "x = 1.2.3;", "1.2.3"},
		{"letters after digits", "x = 12ab;", "12ab"},
		{"unterminated string", `print "abc`, "abc"},
		{"unknown character", "x = 1 @ 2;", "@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err == nil {
				t.Fatalf("expected error, got tokens %v", tokens)
			}
			if tokens != nil {
				t.Errorf("expected no tokens on failure, got %d", len(tokens))
			}
			var lexErr *Error
			if !errors.As(err, &lexErr) {
				t.Fatalf("expected *lexer.Error, got %T", err)
			}
			if lexErr.Text != tt.text {
				t.Errorf("offending text = %q, want %q", lexErr.Text, tt.text)
			}
		})
	}
}

func TestTokenize_EmptyInput(t *testing.T) {
	tokens, err := Tokenize("   // only a comment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Type != token.EOF {
		t.Errorf("expected single EOF, got %v", tokens)
	}
}

func TestTokenize_IdentifierProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a lone word lexes to one identifier or keyword", prop.ForAll(
		func(word string) bool {
			tokens, err := Tokenize(word)
			if err != nil || len(tokens) != 2 {
				return false
			}
			return tokens[0].Literal == word &&
				tokens[0].Type == token.LookupIdent(word) &&
				tokens[1].Type == token.EOF
		},
		gen.Identifier(),
	))

	properties.Property("integers lex to their value", prop.ForAll(
		func(n int) bool {
			tokens, err := Tokenize(" " + strconv.Itoa(n) + " ")
			return err == nil && tokens[0].Type == token.NUMBER && tokens[0].Number == float64(n)
		},
		gen.IntRange(0, 1000000),
	))

	properties.TestingRun(t)
}
