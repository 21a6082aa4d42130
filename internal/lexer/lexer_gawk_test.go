package lexer

import (
	"testing"

	"github.com/gawkgo/gawkgo/internal/token"
)

func TestLexerGawkOperators(t *testing.T) {
	cases := []struct {
		src  string
		want []token.Token
	}{
		{"2 ** 3", []token.Token{token.NUMBER, token.POW, token.NUMBER, token.EOF}},
		{"cmd |& getline", []token.Token{token.NAME, token.PIPEAMP, token.GETLINE, token.EOF}},
		{"ns::name", []token.Token{token.NAME, token.COLONCOLON, token.NAME, token.EOF}},
		{"@include \"f.awk\"", []token.Token{token.AT_INCLUDE, token.STRING, token.EOF}},
		{"@namespace \"ns\"", []token.Token{token.AT_NAMESPACE, token.STRING, token.EOF}},
		{"@fn(1)", []token.Token{token.AT, token.NAME, token.LPAREN, token.NUMBER, token.RPAREN, token.EOF}},
		{"switch (x) { case 1: default: }", []token.Token{
			token.SWITCH, token.LPAREN, token.NAME, token.RPAREN, token.LBRACE,
			token.CASE, token.NUMBER, token.COLON, token.DEFAULT, token.COLON, token.RBRACE, token.EOF,
		}},
		{"BEGINFILE ENDFILE", []token.Token{token.BEGINFILE, token.ENDFILE, token.EOF}},
	}

	for _, tc := range cases {
		l := NewFromString(tc.src)
		for i, want := range tc.want {
			got := l.Scan()
			if got.Type != want {
				t.Fatalf("%q: token %d: got %v, want %v", tc.src, i, got.Type, want)
			}
		}
	}
}
