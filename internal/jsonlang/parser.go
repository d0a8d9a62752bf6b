package jsonlang

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/lexer"
	"github.com/mcdatapack/dpe/internal/parser"
	"github.com/mcdatapack/dpe/internal/text"
)

type jsonParser struct {
	parser.Base[TokenKind]
	tz *tokenizer
}

// Parse parses a whole document against schema (which may be nil) and
// enriches the tree. It always returns a node.
func Parse(src []byte, schema Schema) (Node, []diag.Diagnostic) {
	return ParseInput(lang.Input{Source: src}, schema)
}

// ParseInput parses in.Source starting at in.Cursor with spans placed by
// in.Origin, then enriches the tree with schema.
func ParseInput(in lang.Input, schema Schema) (Node, []diag.Diagnostic) {
	tz := newTokenizer(in.Source, in.Cursor, in.Origin, in.Options.AllowMultilineStrings)
	p := &jsonParser{tz: tz}
	p.Base = parser.NewBase[TokenKind](tz, TokenEOF)

	root := p.parseValue(schema)
	if !p.AtEOF() {
		tok := p.Peek()
		p.Errorf(diag.CodeTrailingData, tok.Span, "unexpected %s after the document value", tok.Kind)
	}
	EnrichWithSchema(root, schema)

	ds := make([]diag.Diagnostic, 0, len(tz.Diagnostics())+len(p.Diagnostics()))
	ds = append(ds, tz.Diagnostics()...)
	ds = append(ds, p.Diagnostics()...)
	diag.Sort(ds)
	return root, ds
}

// selectSchema substitutes a union with the option claiming the next token.
func (p *jsonParser) selectSchema(s Schema) Schema {
	u, ok := s.(*UnionSchema)
	if !ok {
		return s
	}
	if o, ok := u.ForToken(p.Peek().Kind); ok {
		return o
	}
	return s
}

func (p *jsonParser) parseValue(s Schema) Node {
	s = p.selectSchema(s)
	tok := p.Peek()
	switch tok.Kind {
	case TokenLeftBrace:
		return p.parseObject(s)
	case TokenLeftBracket:
		return p.parseArray(s)
	case TokenString:
		return p.parseString(s)
	case TokenNumber:
		return p.parseNumber(s)
	case TokenBoolean:
		p.Advance()
		return &Bool{base: base{span: tok.Span, schema: s}, Value: string(tok.Value) == "true"}
	case TokenNull:
		p.Advance()
		return &Null{base: base{span: tok.Span, schema: s}}
	case TokenInvalid:
		// already reported by the tokenizer
		p.Advance()
		return &Invalid{base: base{span: tok.Span, schema: s}}
	default:
		p.Unexpected("value")
		return &Invalid{base: base{span: text.PointSpan(p.Last().Span.End), schema: s}}
	}
}

func (p *jsonParser) parseObject(s Schema) Node {
	open := p.Advance()
	obj := &Object{base: base{schema: s}}
	objSchema, _ := s.(*ObjectSchema)

	if p.At(TokenRightBrace) {
		p.closeObject(obj)
	} else {
	loop:
		for {
			if p.AtEOF() {
				p.Unexpected("property name")
				break
			}
			if !p.At(TokenString) {
				p.Unexpected("property name")
				switch {
				case p.At(TokenRightBrace):
					p.closeObject(obj)
					break loop
				case p.At(TokenComma):
					p.Advance()
					continue
				}
				p.Advance()
				continue
			}

			prop := p.parseProperty(obj, objSchema)
			obj.Properties = append(obj.Properties, prop)

			switch tok := p.Peek(); tok.Kind {
			case TokenComma:
				p.Advance()
				if p.At(TokenRightBrace) {
					p.Errorf(diag.CodeUnexpectedToken, p.Peek().Span, "expected property after comma, found }")
					p.closeObject(obj)
					break loop
				}
				if p.AtEOF() {
					p.Errorf(diag.CodeUnexpectedEOF, p.Peek().Span, "expected property after comma, found end of input")
					break loop
				}
			case TokenRightBrace:
				p.closeObject(obj)
				break loop
			case TokenEOF, TokenRightBracket:
				p.Unexpected(", or }")
				break loop
			default:
				p.Unexpected(", or }")
				if tok.Kind != TokenString {
					p.Advance()
				}
			}
		}
	}

	obj.span = text.NewSpan(open.Span.Start, p.Last().Span.End)
	if !obj.Closed {
		obj.closeSpan = text.PointSpan(obj.span.End)
	}
	return obj
}

func (p *jsonParser) closeObject(obj *Object) {
	tok := p.Advance()
	obj.Closed = true
	obj.closeSpan = tok.Span
}

func (p *jsonParser) parseProperty(obj *Object, objSchema *ObjectSchema) *Property {
	key := p.parseString(nil)
	prop := &Property{Key: key, schema: objSchema.Property(key.Value)}

	var valueSchema Schema
	if prop.schema != nil {
		valueSchema = prop.schema.Resolve(obj)
	}

	end := key.span.End
	if colon, ok := p.Accept(TokenColon); ok {
		end = colon.Span.End
	}

	switch {
	case p.AtAnyOf(TokenComma, TokenRightBrace, TokenEOF):
		if p.Last().Kind == TokenColon {
			p.Unexpected("value")
		}
		prop.Value = &Invalid{base: base{span: text.PointSpan(end), schema: valueSchema}}
	case p.At(TokenString) && p.Last().Kind != TokenColon:
		// a string after a missing colon most likely starts the next property
		prop.Value = &Invalid{base: base{span: text.PointSpan(end), schema: valueSchema}}
	default:
		prop.Value = p.parseValue(valueSchema)
		if prop.Value.Span().End.After(end) {
			end = prop.Value.Span().End
		}
	}

	prop.span = text.NewSpan(key.span.Start, end)
	return prop
}

func (p *jsonParser) parseArray(s Schema) Node {
	open := p.Advance()
	arr := &Array{base: base{schema: s}}
	var elem Schema
	if as, ok := s.(*ArraySchema); ok {
		elem = as.Element
	}

	if p.At(TokenRightBracket) {
		p.Advance()
		arr.Closed = true
	} else {
	loop:
		for {
			if p.AtEOF() {
				p.Unexpected("value")
				break
			}
			arr.Elements = append(arr.Elements, p.parseValue(elem))

			switch tok := p.Peek(); tok.Kind {
			case TokenComma:
				p.Advance()
				if p.At(TokenRightBracket) {
					p.Errorf(diag.CodeUnexpectedToken, p.Peek().Span, "expected value after comma, found ]")
					p.Advance()
					arr.Closed = true
					break loop
				}
				if p.AtEOF() {
					p.Errorf(diag.CodeUnexpectedEOF, p.Peek().Span, "expected value after comma, found end of input")
					break loop
				}
			case TokenRightBracket:
				p.Advance()
				arr.Closed = true
				break loop
			case TokenEOF, TokenRightBrace:
				// a stray } most likely closes the enclosing object
				p.Unexpected(", or ]")
				break loop
			default:
				p.Unexpected(", or ]")
				if !tok.Kind.startsValue() {
					p.Advance()
				}
			}
		}
	}

	arr.span = text.NewSpan(open.Span.Start, p.Last().Span.End)
	return arr
}

func (p *jsonParser) parseNumber(s Schema) Node {
	tok := p.Advance()
	raw := string(tok.Value)
	n := &Number{base: base{span: tok.Span, schema: s}, Raw: raw}
	if tok.Flags.Has(lexer.TokenFlagMalformed) {
		n.Malformed = true
		return n
	}

	// The literal's shape decides IsInt; values beyond int64 keep only Float.
	n.IsInt = isIntegerLiteral(raw)
	if n.IsInt {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			n.Int, n.Float = v, float64(v)
			return n
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		p.Errorf(diag.CodeInvalidValue, tok.Span, "invalid number `%s`", raw)
		n.Malformed = true
		return n
	}
	n.Float = v
	return n
}

func isIntegerLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !lexer.IsDigit(s[i]) {
			return false
		}
	}
	return true
}

func (p *jsonParser) parseString(s Schema) *String {
	tok := p.Advance()
	terminated := !tok.Flags.Has(lexer.TokenFlagUnterminated)
	content := tok.Value[1:]
	if terminated && len(content) > 0 {
		content = content[:len(content)-1]
	}

	src := p.tz.Src()
	origin := p.tz.Origin()
	contentStart := tok.Offset + 1
	startPos := lexer.PositionAt(origin, src, tok.Offset, tok.Span.Start, contentStart)
	endPos := lexer.PositionAt(origin, src, contentStart, startPos, contentStart+len(content))

	value, mapper, bad := decodeString(content)
	for _, b := range bad {
		at := lexer.PositionAt(origin, src, contentStart, startPos, contentStart+b.start)
		to := lexer.PositionAt(origin, src, contentStart, startPos, contentStart+b.end)
		p.Errorf(diag.CodeInvalidEscape, text.NewSpan(at, to), "invalid escape sequence `%s`", content[b.start:b.end])
	}

	return &String{
		base:        base{span: tok.Span, schema: s},
		Value:       value,
		Quote:       tok.Value[0],
		Terminated:  terminated,
		contentSpan: text.NewSpan(startPos, endPos),
		origin:      origin.Child(contentStart, startPos, mapper),
		mapper:      mapper,
	}
}

type badEscape struct {
	start, end int
}

// decodeString unescapes a string body and records an index-mapper break at
// both ends of every escape sequence.
func decodeString(content []byte) (string, *text.IndexMapper, []badEscape) {
	var (
		out strings.Builder
		mb  text.IndexMapperBuilder
		bad []badEscape
	)
	out.Grow(len(content))

	for i := 0; i < len(content); {
		c := content[i]
		if c != '\\' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(content) || content[i+1] == '\n' || content[i+1] == '\r' {
			// incomplete escape; reported by the tokenizer
			mb.AddEscape(i, out.Len(), i+1, out.Len())
			i++
			continue
		}

		start, decStart := i, out.Len()
		switch e := content[i+1]; e {
		case '"', '\'', '/', '\\':
			out.WriteByte(e)
			i += 2
		case 'b':
			out.WriteByte('\b')
			i += 2
		case 'f':
			out.WriteByte('\f')
			i += 2
		case 'n':
			out.WriteByte('\n')
			i += 2
		case 'r':
			out.WriteByte('\r')
			i += 2
		case 't':
			out.WriteByte('\t')
			i += 2
		case 'u':
			r, n, ok := decodeUnicodeEscape(content[i:])
			if !ok {
				bad = append(bad, badEscape{start: i, end: min(i+n, len(content))})
				out.WriteByte('u')
				i += 2
				break
			}
			out.WriteRune(r)
			i += n
		default:
			size := 1
			if e >= utf8.RuneSelf {
				_, size = utf8.DecodeRune(content[i+1:])
			}
			bad = append(bad, badEscape{start: i, end: i + 1 + size})
			out.Write(content[i+1 : i+1+size])
			i += 1 + size
		}
		mb.AddEscape(start, decStart, i, out.Len())
	}
	return out.String(), mb.Build(), bad
}

// decodeUnicodeEscape decodes \uXXXX, combining a following low surrogate.
// n is the number of bytes consumed, or the length of the malformed prefix
// when ok is false.
func decodeUnicodeEscape(b []byte) (r rune, n int, ok bool) {
	hi, ok := hex4(b)
	if !ok {
		n = 2
		for n < len(b) && n < 6 && lexer.IsHexDigit(b[n]) {
			n++
		}
		return 0, n, false
	}
	if utf16.IsSurrogate(hi) && len(b) >= 12 && b[6] == '\\' && b[7] == 'u' {
		if lo, ok := hex4(b[6:]); ok {
			if r := utf16.DecodeRune(hi, lo); r != utf8.RuneError {
				return r, 12, true
			}
		}
	}
	if utf16.IsSurrogate(hi) {
		return utf8.RuneError, 6, true
	}
	return hi, 6, true
}

func hex4(b []byte) (rune, bool) {
	if len(b) < 6 || b[0] != '\\' || b[1] != 'u' {
		return 0, false
	}
	var r rune
	for _, c := range b[2:6] {
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, false
		}
		r = r<<4 | rune(d)
	}
	return r, true
}
