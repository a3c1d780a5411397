package expr

import "strconv"

// Node is a parsed expression.
type Node interface {
	Pos() int
}

type (
	literal struct {
		pos int
		val any // bool, int64, float64 or string
	}
	ident struct {
		pos  int
		name string
	}
	unary struct {
		pos int
		op  tokenKind
		x   Node
	}
	binary struct {
		pos  int
		op   tokenKind
		x, y Node
	}
)

func (n *literal) Pos() int { return n.pos }
func (n *ident) Pos() int   { return n.pos }
func (n *unary) Pos() int   { return n.pos }
func (n *binary) Pos() int  { return n.pos }

type parser struct {
	toks []token
	at   int
}

// Parse parses src into an expression tree.
func Parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, errorf(0, "empty expression")
	}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, errorf(t.pos, "unexpected %s after expression", t.kind)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.at] }

func (p *parser) next() token {
	t := p.toks[p.at]
	if t.kind != tokEOF {
		p.at++
	}
	return t
}

func (p *parser) or() (Node, error) {
	x, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		t := p.next()
		y, err := p.and()
		if err != nil {
			return nil, err
		}
		x = &binary{pos: t.pos, op: tokOr, x: x, y: y}
	}
	return x, nil
}

func (p *parser) and() (Node, error) {
	x, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		t := p.next()
		y, err := p.not()
		if err != nil {
			return nil, err
		}
		x = &binary{pos: t.pos, op: tokAnd, x: x, y: y}
	}
	return x, nil
}

func (p *parser) not() (Node, error) {
	if p.peek().kind == tokNot {
		t := p.next()
		x, err := p.not()
		if err != nil {
			return nil, err
		}
		return &unary{pos: t.pos, op: tokNot, x: x}, nil
	}
	return p.comparison()
}

func (p *parser) comparison() (Node, error) {
	x, err := p.sum()
	if err != nil {
		return nil, err
	}
	switch p.peek().kind {
	case tokEq, tokNe, tokLt, tokLe, tokGt, tokGe:
		t := p.next()
		y, err := p.sum()
		if err != nil {
			return nil, err
		}
		x = &binary{pos: t.pos, op: t.kind, x: x, y: y}
		switch p.peek().kind {
		case tokEq, tokNe, tokLt, tokLe, tokGt, tokGe:
			return nil, errorf(p.peek().pos, "comparisons cannot be chained")
		}
	}
	return x, nil
}

func (p *parser) sum() (Node, error) {
	x, err := p.term()
	if err != nil {
		return nil, err
	}
	for k := p.peek().kind; k == tokPlus || k == tokMinus; k = p.peek().kind {
		t := p.next()
		y, err := p.term()
		if err != nil {
			return nil, err
		}
		x = &binary{pos: t.pos, op: t.kind, x: x, y: y}
	}
	return x, nil
}

func (p *parser) term() (Node, error) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	for k := p.peek().kind; k == tokStar || k == tokSlash || k == tokPercent; k = p.peek().kind {
		t := p.next()
		y, err := p.unary()
		if err != nil {
			return nil, err
		}
		x = &binary{pos: t.pos, op: t.kind, x: x, y: y}
	}
	return x, nil
}

func (p *parser) unary() (Node, error) {
	if p.peek().kind == tokMinus {
		t := p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unary{pos: t.pos, op: tokMinus, x: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokInt:
		i, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, errorf(t.pos, "invalid integer %q", t.text)
		}
		return &literal{pos: t.pos, val: i}, nil
	case tokFloat:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, errorf(t.pos, "invalid float %q", t.text)
		}
		return &literal{pos: t.pos, val: f}, nil
	case tokString:
		return &literal{pos: t.pos, val: t.text}, nil
	case tokTrue:
		return &literal{pos: t.pos, val: true}, nil
	case tokFalse:
		return &literal{pos: t.pos, val: false}, nil
	case tokIdent:
		return &ident{pos: t.pos, name: t.text}, nil
	case tokLParen:
		x, err := p.or()
		if err != nil {
			return nil, err
		}
		if r := p.next(); r.kind != tokRParen {
			return nil, errorf(r.pos, "expected ) but found %s", r.kind)
		}
		return x, nil
	case tokEOF:
		return nil, errorf(t.pos, "unexpected end of input")
	default:
		return nil, errorf(t.pos, "unexpected %s", t.kind)
	}
}
