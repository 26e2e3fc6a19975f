package opcode

import (
	"strconv"
	"strings"

	"github.com/zurustar/iescript/pkg/compiler/lexer"
)

// TokenKind classifies a token of compiled code.
type TokenKind int

const (
	EOF TokenKind = iota
	TokMarker
	TokNumber
	TokString
	TokRect
	TokError
	TokWord
)

func (k TokenKind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case TokMarker:
		return "marker"
	case TokNumber:
		return "number"
	case TokString:
		return "string"
	case TokRect:
		return "region"
	case TokError:
		return "error placeholder"
	}
	return "word"
}

// Token is one lexical element of compiled code.
type Token struct {
	Kind TokenKind
	Text string // marker letters, digits, unquoted string, or error message
	Num  int64
	Line int
}

// Is reports whether t is marker m.
func (t Token) Is(m Marker) bool {
	return t.Kind == TokMarker && t.Text == string(m)
}

// Tokenize splits compiled code into tokens. Markers glued to a preceding
// number or string ("100AC", `""OB`) are separated.
func Tokenize(text string) []Token {
	var toks []Token
	r := lexer.New(text)
	for {
		line, ok := r.Next()
		if !ok {
			return toks
		}
		toks = tokenizeLine(toks, line, r.Line())
	}
}

func tokenizeLine(toks []Token, line string, lineNo int) []Token {
	if strings.HasPrefix(line, ErrorPrefix) {
		return append(toks, Token{Kind: TokError, Text: strings.TrimPrefix(line, ErrorPrefix), Line: lineNo})
	}
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '"':
			end := strings.IndexByte(line[i+1:], '"')
			if end < 0 {
				toks = append(toks, Token{Kind: TokString, Text: line[i+1:], Line: lineNo})
				return toks
			}
			toks = append(toks, Token{Kind: TokString, Text: line[i+1 : i+1+end], Line: lineNo})
			i += end + 2
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' && line[j] != '"' {
				j++
			}
			toks = appendWord(toks, line[i:j], lineNo)
			i = j
		}
	}
	return toks
}

func appendWord(toks []Token, w string, lineNo int) []Token {
	if m, ok := markers[w]; ok {
		return append(toks, Token{Kind: TokMarker, Text: string(m), Line: lineNo})
	}
	if len(w) > 2 {
		if m, ok := markers[w[len(w)-2:]]; ok {
			toks = appendWord(toks, w[:len(w)-2], lineNo)
			return append(toks, Token{Kind: TokMarker, Text: string(m), Line: lineNo})
		}
	}
	if strings.HasPrefix(w, "[") {
		return append(toks, Token{Kind: TokRect, Text: w, Line: lineNo})
	}
	if n, err := strconv.ParseInt(w, 10, 64); err == nil {
		return append(toks, Token{Kind: TokNumber, Text: w, Num: n, Line: lineNo})
	}
	return append(toks, Token{Kind: TokWord, Text: w, Line: lineNo})
}
