package snbt

import (
	"strconv"
	"strings"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/lexer"
	"github.com/mcdatapack/dpe/internal/parser"
	"github.com/mcdatapack/dpe/internal/text"
)

type snbtParser struct {
	parser.Base[TokenKind]
	tz *tokenizer
}

// Parse parses a whole SNBT document. It always returns a node.
func Parse(src []byte, expect *Expect) (Node, []diag.Diagnostic) {
	return ParseInput(lang.Input{Source: src}, expect)
}

// ParseInput parses in.Source from in.Cursor with spans placed by
// in.Origin.
func ParseInput(in lang.Input, expect *Expect) (Node, []diag.Diagnostic) {
	tz := newTokenizer(in.Source, in.Cursor, in.Origin)
	p := &snbtParser{tz: tz}
	p.Base = parser.NewBase[TokenKind](tz, TokenEOF)

	root := p.parseValue()
	if !p.AtEOF() {
		tok := p.Peek()
		p.Errorf(diag.CodeTrailingData, tok.Span, "unexpected %s after the tag", tok.Kind)
	}
	if expect != nil {
		setSchema(root, expect)
	}

	ds := make([]diag.Diagnostic, 0, len(tz.Diagnostics())+len(p.Diagnostics()))
	ds = append(ds, tz.Diagnostics()...)
	ds = append(ds, p.Diagnostics()...)
	diag.Sort(ds)
	return root, ds
}

func setSchema(n Node, s lang.Schema) {
	switch n := n.(type) {
	case *Invalid:
		n.schema = s
	case *Compound:
		n.schema = s
	case *List:
		n.schema = s
	case *Array:
		n.schema = s
	case *String:
		n.schema = s
	case *Number:
		n.schema = s
	case *Bool:
		n.schema = s
	}
}

func (p *snbtParser) parseValue() Node {
	switch tok := p.Peek(); tok.Kind {
	case TokenLeftBrace:
		return p.parseCompound()
	case TokenLeftBracket:
		return p.parseList()
	case TokenArrayStart:
		return p.parseArray()
	case TokenString:
		return p.parseString()
	case TokenWord:
		p.Advance()
		return classifyWord(tok)
	case TokenInvalid:
		p.Advance()
		return &Invalid{base: base{span: tok.Span}}
	default:
		p.Unexpected("tag")
		return &Invalid{base: base{span: text.PointSpan(p.Last().Span.End)}}
	}
}

func (p *snbtParser) parseCompound() Node {
	open := p.Advance()
	c := &Compound{}

	if p.At(TokenRightBrace) {
		c.closeSpan = p.Advance().Span
		c.Closed = true
	} else {
	loop:
		for {
			if !p.AtAnyOf(TokenString, TokenWord) {
				p.Unexpected("key")
				switch {
				case p.AtEOF():
					break loop
				case p.At(TokenRightBrace):
					c.closeSpan = p.Advance().Span
					c.Closed = true
					break loop
				}
				p.Advance()
				continue
			}
			c.Entries = append(c.Entries, p.parseEntry())

			switch tok := p.Peek(); tok.Kind {
			case TokenComma:
				p.Advance()
				if p.At(TokenRightBrace) {
					// a trailing comma is accepted
					c.closeSpan = p.Advance().Span
					c.Closed = true
					break loop
				}
			case TokenRightBrace:
				c.closeSpan = p.Advance().Span
				c.Closed = true
				break loop
			case TokenEOF, TokenRightBracket:
				p.Unexpected(", or }")
				break loop
			default:
				p.Unexpected(", or }")
				if tok.Kind != TokenString && tok.Kind != TokenWord {
					p.Advance()
				}
			}
		}
	}

	c.span = text.NewSpan(open.Span.Start, p.Last().Span.End)
	if !c.Closed {
		c.closeSpan = text.PointSpan(c.span.End)
	}
	return c
}

func (p *snbtParser) parseEntry() *Entry {
	var key *String
	if p.At(TokenString) {
		key = p.parseString()
	} else {
		tok := p.Advance()
		key = &String{base: base{span: tok.Span}, Value: string(tok.Value), contentSpan: tok.Span}
	}

	e := &Entry{Key: key}
	end := key.span.End
	colon, ok := p.Accept(TokenColon)
	if ok {
		end = colon.Span.End
	}
	if !ok || p.AtAnyOf(TokenComma, TokenRightBrace, TokenEOF) {
		if ok {
			p.Unexpected("tag")
		}
		e.Value = &Invalid{base: base{span: text.PointSpan(end)}}
	} else {
		e.Value = p.parseValue()
		if e.Value.Span().End.After(end) {
			end = e.Value.Span().End
		}
	}
	e.span = text.NewSpan(key.span.Start, end)
	return e
}

func (p *snbtParser) parseList() Node {
	open := p.Advance()
	l := &List{}
	l.Elements, l.Closed = p.parseElements()
	l.span = text.NewSpan(open.Span.Start, p.Last().Span.End)
	return l
}

func (p *snbtParser) parseArray() Node {
	open := p.Advance()
	a := &Array{prefix: open.Span}
	switch open.Value[1] {
	case 'B':
		a.Type = TagByte
	case 'L':
		a.Type = TagLong
	default:
		a.Type = TagInt
	}
	a.Elements, a.Closed = p.parseElements()
	a.span = text.NewSpan(open.Span.Start, p.Last().Span.End)
	return a
}

// parseElements parses list or array elements after the opener up to and
// including the closing bracket.
func (p *snbtParser) parseElements() ([]Node, bool) {
	if p.At(TokenRightBracket) {
		p.Advance()
		return nil, true
	}
	var out []Node
	for {
		if p.AtEOF() {
			p.Unexpected("tag")
			return out, false
		}
		out = append(out, p.parseValue())

		switch tok := p.Peek(); tok.Kind {
		case TokenComma:
			p.Advance()
			if p.At(TokenRightBracket) {
				p.Advance()
				return out, true
			}
		case TokenRightBracket:
			p.Advance()
			return out, true
		case TokenEOF, TokenRightBrace:
			p.Unexpected(", or ]")
			return out, false
		default:
			p.Unexpected(", or ]")
			switch tok.Kind {
			case TokenLeftBrace, TokenLeftBracket, TokenArrayStart, TokenString, TokenWord, TokenInvalid:
			default:
				p.Advance()
			}
		}
	}
}

func (p *snbtParser) parseString() *String {
	tok := p.Advance()
	content := tok.Value[1:]
	terminated := !tok.Flags.Has(lexer.TokenFlagUnterminated)
	if terminated && len(content) > 0 {
		content = content[:len(content)-1]
	}
	src, origin := p.tz.Src(), p.tz.Origin()
	start := lexer.PositionAt(origin, src, tok.Offset, tok.Span.Start, tok.Offset+1)
	end := lexer.PositionAt(origin, src, tok.Offset+1, start, tok.Offset+1+len(content))

	var out strings.Builder
	for i := 0; i < len(content); i++ {
		c := content[i]
		if c != '\\' || i+1 >= len(content) {
			if c != '\\' {
				out.WriteByte(c)
			}
			continue
		}
		i++
		switch e := content[i]; e {
		case '\\', '"', '\'':
			out.WriteByte(e)
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case 'b':
			out.WriteByte('\b')
		case 'f':
			out.WriteByte('\f')
		case 's':
			out.WriteByte(' ')
		default:
			at := lexer.PositionAt(origin, src, tok.Offset+1, start, tok.Offset+i)
			p.Errorf(diag.CodeInvalidEscape, text.NewSpan(at, at.Shift(2)), "invalid escape sequence `\\%c`", e)
			out.WriteByte(e)
		}
	}
	return &String{
		base:        base{span: tok.Span},
		Value:       out.String(),
		Quote:       tok.Value[0],
		contentSpan: text.NewSpan(start, end),
	}
}

// classifyWord turns an unquoted word into a number, boolean, or string tag
// the way the game reads it: a word that does not look like a number is a
// string.
func classifyWord(tok lexer.Token[TokenKind]) Node {
	word := string(tok.Value)
	b := base{span: tok.Span}
	switch word {
	case "true":
		return &Bool{base: b, Value: true}
	case "false":
		return &Bool{base: b, Value: false}
	}
	if n, ok := parseNumber(word); ok {
		n.base = b
		return n
	}
	return &String{base: b, Value: word, contentSpan: tok.Span}
}

func parseNumber(word string) (*Number, bool) {
	if word == "" {
		return nil, false
	}
	body, suffix := word, byte(0)
	switch last := word[len(word)-1] | 0x20; last {
	case 'b', 's', 'l', 'f', 'd':
		body, suffix = word[:len(word)-1], last
	}

	if isIntegerText(body) {
		var t TagType
		switch suffix {
		case 'b':
			t = TagByte
		case 's':
			t = TagShort
		case 0:
			t = TagInt
		case 'l':
			t = TagLong
		case 'f':
			t = TagFloat
		case 'd':
			t = TagDouble
		}
		if t == TagFloat || t == TagDouble {
			f, err := strconv.ParseFloat(body, 64)
			return &Number{Type: t, Float: f, Raw: word}, err == nil
		}
		v, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return nil, false
		}
		return &Number{Type: t, Int: v, Raw: word}, true
	}

	if !isFloatText(body) {
		return nil, false
	}
	t := TagDouble
	switch suffix {
	case 'f':
		t = TagFloat
	case 'd':
	case 0:
		// an unsuffixed double needs a decimal point
		if !strings.Contains(body, ".") {
			return nil, false
		}
	default:
		return nil, false
	}
	f, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return nil, false
	}
	return &Number{Type: t, Float: f, Raw: word}, true
}

func isIntegerText(s string) bool {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" || len(s) > 1 && s[0] == '0' {
		return s == "0"
	}
	for i := 0; i < len(s); i++ {
		if !lexer.IsDigit(s[i]) {
			return false
		}
	}
	return true
}

func isFloatText(s string) bool {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	digits, i := 0, 0
	for i < len(s) && lexer.IsDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && lexer.IsDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && lexer.IsDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}
