package mcfunction

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/lang"
	"github.com/mcdatapack/dpe/internal/lexer"
	"github.com/mcdatapack/dpe/internal/text"
)

// reader is a brigadier-style string reader over the whole buffer. Command
// arguments are not tokenized up front: the command tree decides how the
// next argument is read, and a failed attempt rewinds to try the next
// sibling.
type reader struct {
	lexer.Scanner[TokenKind]
	grammar *Grammar
	command bool
}

// Parse parses a function file against g. Without a grammar every command
// line is split into literal words.
func Parse(src []byte, g *Grammar) (*File, []diag.Diagnostic) {
	return ParseInput(lang.Input{Source: src}, &Schema{Grammar: g})
}

// ParseInput parses in.Source from in.Cursor with spans placed by
// in.Origin.
func ParseInput(in lang.Input, s *Schema) (*File, []diag.Diagnostic) {
	r := &reader{Scanner: lexer.NewScanner[TokenKind](in.Source, in.Cursor, in.Origin)}
	f := &File{}
	if s != nil {
		r.grammar, r.command = s.Grammar, s.Command
		f.schema = s
	}

	start := r.Position()
	for {
		r.SkipWhitespace()
		if r.EOF() {
			break
		}
		f.Lines = append(f.Lines, r.parseLine())
		if !r.command {
			continue
		}
		r.SkipWhitespace()
		if !r.EOF() {
			m := r.Mark()
			r.AdvanceWhile(func(byte) bool { return true })
			sp := r.SpanFrom(m)
			r.Errorf(diag.CodeTrailingData, sp, "a command string holds a single command")
			f.Lines = append(f.Lines, &Invalid{span: sp, Text: string(r.Text(m))})
		}
		break
	}
	f.span = text.NewSpan(start, r.Position())
	if r.command && len(f.Lines) == 0 {
		r.Errorf(diag.CodeUnexpectedEOF, text.PointSpan(start), "expected a command")
	}

	ds := slices.Clone(r.Diagnostics())
	diag.Sort(ds)
	return f, ds
}

func (r *reader) parseLine() Node {
	m := r.Mark()
	switch r.Current() {
	case '#':
		if !r.command {
			r.AdvanceWhile(notLineEnd)
			tok := r.Emit(TokenComment, m)
			return &Comment{span: tok.Span, Text: string(tok.Value[1:])}
		}
	case '$':
		if !r.command {
			return r.parseMacro(m)
		}
	}
	return r.parseCommand(m)
}

func (r *reader) parseMacro(m lexer.Mark) Node {
	mac := &Macro{}
	r.Advance(1)
	for !r.atLineEnd() {
		if r.Current() != '$' || r.Peek(1) != '(' {
			r.Advance(1)
			continue
		}
		vm := r.Mark()
		r.Advance(2)
		r.AdvanceWhile(isMacroNameByte)
		if r.Current() == ')' {
			r.Advance(1)
			mac.Vars = append(mac.Vars, r.SpanFrom(vm))
			continue
		}
		r.Errorf(diag.CodeInvalidArgument, r.SpanFrom(vm), "unterminated macro variable")
	}
	tok := r.Emit(TokenMacro, m)
	mac.span, mac.Text = tok.Span, string(tok.Value[1:])
	if len(mac.Vars) == 0 {
		r.Errorf(diag.CodeInvalidArgument, tok.Span, "macro line without `$(name)` variables")
	}
	return mac
}

func (r *reader) parseCommand(m lexer.Mark) Node {
	c := &Command{}
	if r.Current() == '/' {
		r.Advance(1)
		c.Slash = r.Emit(TokenSlash, m).Span
		if !r.command {
			r.Errorf(diag.CodeInvalidArgument, c.Slash, "functions do not accept a leading `/`")
		}
	}
	if r.grammar == nil {
		r.parseWords(c)
	} else {
		r.parseTree(c)
	}
	c.span = r.SpanFrom(m)
	return c
}

func (r *reader) parseWords(c *Command) {
	for {
		r.SkipSpaces()
		if r.atLineEnd() {
			return
		}
		m := r.Mark()
		r.AdvanceWhile(isWordByte)
		tok := r.Emit(TokenLiteral, m)
		c.Parts = append(c.Parts, &Literal{span: tok.Span, Value: string(tok.Value)})
	}
}

func (r *reader) parseTree(c *Command) {
	node := r.grammar.Root
	for {
		next := r.grammar.Next(node)
		if len(c.Parts) > 0 {
			if r.atLineEnd() {
				if !node.Executable {
					r.Errorf(diag.CodeUnexpectedEOF, text.PointSpan(r.Position()), "incomplete command, expected %s", usages(next))
				}
				return
			}
			if r.Current() != ' ' {
				r.invalidRest(c, diag.CodeTrailingData, "expected whitespace to end the argument")
				return
			}
			r.Advance(1)
			if len(next) == 0 {
				r.invalidRest(c, diag.CodeTrailingData, "unexpected trailing data")
				return
			}
			if r.atLineEnd() || r.Current() == ' ' {
				r.Errorf(diag.CodeInvalidArgument, text.PointSpan(r.Position()), "expected %s", usages(next))
				return
			}
		}
		part, child := r.parseChild(next, len(c.Parts) == 0)
		c.Parts = append(c.Parts, part)
		if child == nil {
			return
		}
		node = child
	}
}

// parseChild matches the next word against the candidates: literals first,
// then arguments in tree order. Without a match the rest of the line
// becomes an Invalid node.
func (r *reader) parseChild(cands []*CommandNode, first bool) (Node, *CommandNode) {
	m := r.Mark()
	r.AdvanceWhile(isWordByte)
	word := string(r.Text(m))
	for _, cand := range cands {
		if cand.Type == NodeLiteral && cand.Name == word {
			tok := r.Emit(TokenLiteral, m)
			return &Literal{span: tok.Span, Value: word, node: cand}, cand
		}
	}

	var firstErr error
	for _, cand := range cands {
		if cand.Type != NodeArgument {
			continue
		}
		r.Reset(m)
		err := r.readArgument(cand)
		if err == nil {
			return r.newArgument(cand, r.Emit(TokenArgument, m)), cand
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	r.Reset(m)
	r.AdvanceWhile(isWordByte)
	ws := r.SpanFrom(m)
	r.AdvanceWhile(notLineEnd)
	inv := &Invalid{span: r.SpanFrom(m), Text: string(r.Text(m))}
	switch {
	case firstErr != nil:
		r.Errorf(diag.CodeInvalidArgument, ws, "%s", firstErr.Error())
	case first && word == "":
		r.Errorf(diag.CodeUnexpectedEOF, ws, "expected a command")
	case first:
		r.Errorf(diag.CodeUnresolved, ws, "unknown command `%s`", word)
	default:
		r.Errorf(diag.CodeUnresolved, ws, "unknown literal `%s`, expected %s", word, usages(cands))
	}
	return inv, nil
}

func (r *reader) invalidRest(c *Command, code diag.Code, msg string) {
	m := r.Mark()
	r.AdvanceWhile(notLineEnd)
	sp := r.SpanFrom(m)
	r.Errorf(code, sp, "%s", msg)
	c.Parts = append(c.Parts, &Invalid{span: sp, Text: string(r.Text(m))})
}

func (r *reader) newArgument(n *CommandNode, tok lexer.Token[TokenKind]) *Argument {
	a := &Argument{
		span:        tok.Span,
		Raw:         string(tok.Value),
		node:        n,
		value:       string(tok.Value),
		contentSpan: tok.Span,
	}
	offset, at := tok.Offset, tok.Span.Start
	var mapper *text.IndexMapper
	if n.Parser == "brigadier:string" && len(tok.Value) >= 2 && isQuote(tok.Value[0]) {
		body := tok.Value[1 : len(tok.Value)-1]
		a.value, mapper = decodeQuoted(body)
		offset++
		at = lexer.PositionAt(r.Origin(), r.Src(), tok.Offset, tok.Span.Start, offset)
		end := lexer.PositionAt(r.Origin(), r.Src(), offset, at, offset+len(body))
		a.contentSpan = text.NewSpan(at, end)
	}
	a.origin = r.Origin().Child(offset, at, mapper)
	return a
}

func decodeQuoted(body []byte) (string, *text.IndexMapper) {
	var out strings.Builder
	var mb text.IndexMapperBuilder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			mb.AddEscape(i, out.Len(), i+2, out.Len()+1)
			out.WriteByte(body[i+1])
			i++
			continue
		}
		out.WriteByte(body[i])
	}
	return out.String(), mb.Build()
}

// readArgument consumes one argument of the parser of n or returns why the
// text does not fit. The caller rewinds on error.
func (r *reader) readArgument(n *CommandNode) error {
	switch n.Parser {
	case "brigadier:bool":
		return r.readWord(n, "a boolean", func(w string) bool { return w == "true" || w == "false" })
	case "brigadier:integer", "brigadier:long":
		return r.readNumber(n, "an integer", func(s string) error {
			_, err := strconv.ParseInt(s, 10, 64)
			return err
		})
	case "brigadier:float", "brigadier:double":
		return r.readNumber(n, "a number", func(s string) error {
			_, err := strconv.ParseFloat(s, 64)
			return err
		})
	case "brigadier:string":
		switch n.Property("type") {
		case "greedy":
			return r.readGreedy(n, "a string")
		case "phrase":
			if isQuote(r.Current()) {
				return r.readQuoted(n)
			}
		}
		return r.readWord(n, "a word", nil)
	case "minecraft:message":
		return r.readGreedy(n, "a message")
	case "minecraft:nbt_compound_tag":
		if r.Current() != '{' {
			return expected(n, "a compound tag")
		}
		return r.readBalanced(n, "a compound tag")
	case "minecraft:resource_location", "minecraft:function", "minecraft:resource",
		"minecraft:resource_key", "minecraft:resource_or_tag", "minecraft:dimension":
		if r.AdvanceWhile(isResourceByte) == 0 {
			return expected(n, "a resource location")
		}
		return nil
	case "minecraft:block_pos", "minecraft:vec3":
		return r.readCoordinates(n, 3)
	case "minecraft:vec2", "minecraft:rotation", "minecraft:column_pos":
		return r.readCoordinates(n, 2)
	default:
		return r.readBalanced(n, "a value")
	}
}

func expected(n *CommandNode, what string) error {
	return fmt.Errorf("expected %s for %s", what, n.Usage())
}

func (r *reader) readWord(n *CommandNode, what string, valid func(string) bool) error {
	m := r.Mark()
	if r.AdvanceWhile(isUnquotedByte) == 0 {
		return expected(n, what)
	}
	if valid != nil && !valid(string(r.Text(m))) {
		return expected(n, what)
	}
	return nil
}

func (r *reader) readNumber(n *CommandNode, what string, parse func(string) error) error {
	m := r.Mark()
	r.AdvanceWhile(func(b byte) bool { return lexer.IsDigit(b) || b == '-' || b == '.' })
	s := string(r.Text(m))
	if s == "" {
		return expected(n, what)
	}
	if err := parse(s); err != nil {
		return fmt.Errorf("invalid %s `%s` for %s", strings.TrimPrefix(strings.TrimPrefix(what, "an "), "a "), s, n.Usage())
	}
	return nil
}

func (r *reader) readGreedy(n *CommandNode, what string) error {
	if r.AdvanceWhile(notLineEnd) == 0 {
		return expected(n, what)
	}
	return nil
}

var errUnclosedQuote = errors.New("unclosed quoted string")

func (r *reader) readQuoted(n *CommandNode) error {
	q := r.Current()
	r.Advance(1)
	for !r.atLineEnd() {
		switch c := r.Current(); {
		case c == q:
			r.Advance(1)
			return nil
		case c == '\\':
			if e := r.Peek(1); e != q && e != '\\' {
				return fmt.Errorf("invalid escape sequence `\\%c` in %s", e, n.Usage())
			}
			r.Advance(2)
		default:
			r.Advance(1)
		}
	}
	return errUnclosedQuote
}

// readBalanced reads up to the next space outside brackets and quotes. An
// unbalanced value runs to the end of the line; the language that
// interprets it reports the missing bracket.
func (r *reader) readBalanced(n *CommandNode, what string) error {
	m := r.Mark()
	depth := 0
loop:
	for !r.atLineEnd() {
		switch c := r.Current(); c {
		case ' ':
			if depth == 0 {
				break loop
			}
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			if depth == 0 {
				break loop
			}
			depth--
		case '"', '\'':
			r.skipQuoted(c)
			continue
		}
		r.Advance(1)
	}
	if r.Offset() == m.Offset {
		return expected(n, what)
	}
	return nil
}

func (r *reader) skipQuoted(q byte) {
	r.Advance(1)
	for !r.atLineEnd() {
		switch r.Current() {
		case q:
			r.Advance(1)
			return
		case '\\':
			if lineEndByte(r.Peek(1)) {
				r.Advance(1)
				continue
			}
			r.Advance(2)
		default:
			r.Advance(1)
		}
	}
}

func (r *reader) readCoordinates(n *CommandNode, count int) error {
	for i := range count {
		if i > 0 {
			if r.Current() != ' ' {
				return fmt.Errorf("expected %d coordinates for %s", count, n.Usage())
			}
			r.Advance(1)
		}
		m := r.Mark()
		r.AdvanceWhile(isUnquotedByte)
		if !isCoordinate(string(r.Text(m))) {
			if r.Offset() == m.Offset {
				return fmt.Errorf("expected %d coordinates for %s", count, n.Usage())
			}
			return fmt.Errorf("invalid coordinate `%s` in %s", r.Text(m), n.Usage())
		}
	}
	return nil
}

func isCoordinate(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '~' || s[0] == '^' {
		s = s[1:]
		if s == "" {
			return true
		}
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func (r *reader) atLineEnd() bool {
	return r.EOF() || lineEndByte(r.Current())
}

func lineEndByte(b byte) bool {
	return b == '\n' || b == '\r'
}

func notLineEnd(b byte) bool {
	return !lineEndByte(b)
}

func isWordByte(b byte) bool {
	return b != ' ' && b != '\t' && !lineEndByte(b)
}

func isQuote(b byte) bool {
	return b == '"' || b == '\''
}

// isUnquotedByte matches brigadier's unquoted string alphabet plus the
// coordinate prefixes.
func isUnquotedByte(b byte) bool {
	return lexer.IsLetter(b) || lexer.IsDigit(b) || b == '_' || b == '-' || b == '.' || b == '+' || b == '~' || b == '^'
}

func isResourceByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || lexer.IsDigit(b) || b == '_' || b == '-' || b == '.' || b == '/' || b == ':' || b == '#'
}

func isMacroNameByte(b byte) bool {
	return lexer.IsLetter(b) || lexer.IsDigit(b) || b == '_'
}

func usages(nodes []*CommandNode) string {
	if len(nodes) == 0 {
		return "nothing"
	}
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Usage()
	}
	return strings.Join(out, ", ")
}
