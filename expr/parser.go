// Package expr implements the command-expression mini-language: a line of
// text naming an XML-RPC method and a sequence of argument values is
// lexed and parsed into (method, args) ready for gbxremote.Remote.Call.
package expr

import (
	"github.com/snixtho/clifga/rpcvalue"
)

type parser struct {
	toks   []Token
	pos    int
	srcLen int
}

func (p *parser) peek() *Token {
	if p.pos >= len(p.toks) {
		return nil
	}
	return &p.toks[p.pos]
}

func (p *parser) advance() {
	p.pos++
}

func (p *parser) skipWS() {
	for {
		tok := p.peek()
		if tok == nil || tok.Kind != KindWhitespace {
			return
		}
		p.advance()
	}
}

func (p *parser) endOfInputError() error {
	return &UnexpectedEndOfInputError{Pos: p.srcLen}
}

// Parse lexes and parses line into a method name and its argument vector.
// The first non-whitespace token must be an identifier; everything after
// it is read as a whitespace-separated sequence of values.
func Parse(line string) (string, []rpcvalue.Value, error) {
	toks, err := Tokenize(line)
	if err != nil {
		return "", nil, err
	}

	p := &parser{toks: toks, srcLen: len(line)}
	p.skipWS()

	first := p.peek()
	if first == nil {
		return "", nil, p.endOfInputError()
	}
	if first.Kind != KindIdentifier {
		return "", nil, &UnexpectedTokenError{Pos: first.Pos, Kind: first.Kind, Want: "identifier"}
	}
	method := first.Text
	p.advance()

	var args []rpcvalue.Value
	for {
		p.skipWS()
		tok := p.peek()
		if tok == nil {
			break
		}
		if tok.Kind == KindArraySeparator || tok.Kind == KindArrayEnd {
			return "", nil, &UnexpectedTokenError{Pos: tok.Pos, Kind: tok.Kind}
		}

		v, err := p.parseValue()
		if err != nil {
			return "", nil, err
		}
		args = append(args, v)
	}

	return method, args, nil
}

func (p *parser) parseValue() (rpcvalue.Value, error) {
	tok := p.peek()
	if tok == nil {
		return rpcvalue.Nil(), p.endOfInputError()
	}

	switch tok.Kind {
	case KindNumber:
		p.advance()
		if tok.IsFloat {
			return rpcvalue.Double(tok.Float), nil
		}
		return rpcvalue.Int(int32(tok.Int)), nil
	case KindString:
		p.advance()
		return rpcvalue.String(tok.Str), nil
	case KindBoolean:
		p.advance()
		return rpcvalue.Bool(tok.Bool), nil
	case KindIdentifier:
		p.advance()
		return rpcvalue.String(tok.Text), nil
	case KindArrayStart:
		return p.parseArray()
	default:
		return rpcvalue.Nil(), &UnexpectedTokenError{Pos: tok.Pos, Kind: tok.Kind}
	}
}

// parseArray parses '[' (WS | Element (Sep Element)*)? ']'. Elements and
// separators must strictly alternate: a trailing separator or a separator
// before the first element is a parse error.
func (p *parser) parseArray() (rpcvalue.Value, error) {
	p.advance() // consume '['
	p.skipWS()

	var elems []rpcvalue.Value

	tok := p.peek()
	if tok == nil {
		return rpcvalue.Nil(), p.endOfInputError()
	}
	if tok.Kind == KindArrayEnd {
		p.advance()
		return rpcvalue.Array(elems), nil
	}
	if tok.Kind == KindArraySeparator {
		return rpcvalue.Nil(), &UnexpectedTokenError{Pos: tok.Pos, Kind: tok.Kind, Want: "array element"}
	}

	for {
		v, err := p.parseValue()
		if err != nil {
			return rpcvalue.Nil(), err
		}
		elems = append(elems, v)

		p.skipWS()
		tok := p.peek()
		if tok == nil {
			return rpcvalue.Nil(), p.endOfInputError()
		}
		if tok.Kind == KindArrayEnd {
			p.advance()
			return rpcvalue.Array(elems), nil
		}
		if tok.Kind != KindArraySeparator {
			return rpcvalue.Nil(), &UnexpectedTokenError{Pos: tok.Pos, Kind: tok.Kind, Want: "',' or ']'"}
		}
		p.advance() // consume ','
		p.skipWS()

		next := p.peek()
		if next == nil {
			return rpcvalue.Nil(), p.endOfInputError()
		}
		if next.Kind == KindArrayEnd {
			return rpcvalue.Nil(), &UnexpectedTokenError{Pos: next.Pos, Kind: next.Kind, Want: "array element after ','"}
		}
	}
}
