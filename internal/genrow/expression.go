package genrow

import (
	"math/rand"
	"strconv"
	"unicode"

	"github.com/cockroachdb/errors"
)

// expressionGenerator implements gen_type=expression: a small arithmetic
// formula over +, -, *, /, parentheses, numeric literals, and the two
// bound variables _i (row index) and _t (row timestamp), matching
// ColumnConfig.hpp's formula field. Parsed once at construction into an
// AST, evaluated per row.
type expressionGenerator struct {
	root exprNode
}

func newExpressionGenerator(c ColumnConfig) (Generator, error) {
	toks, err := tokenizeExpr(c.Formula)
	if err != nil {
		return nil, errors.Wrapf(err, "genrow: tokenizing formula %q", c.Formula)
	}
	p := &exprParser{toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, errors.Wrapf(err, "genrow: parsing formula %q", c.Formula)
	}
	if p.pos != len(p.toks) {
		return nil, errors.Newf("genrow: unexpected trailing input in formula %q", c.Formula)
	}
	return &expressionGenerator{root: root}, nil
}

func (g *expressionGenerator) Generate(i int, t int64, rnd *rand.Rand) (any, error) {
	return g.root.eval(float64(i), float64(t))
}

type exprNode interface {
	eval(i, t float64) (float64, error)
}

type numNode float64

func (n numNode) eval(i, t float64) (float64, error) { return float64(n), nil }

type varNode string

func (v varNode) eval(i, t float64) (float64, error) {
	switch v {
	case "_i":
		return i, nil
	case "_t":
		return t, nil
	default:
		return 0, errors.Wrapf(ErrColumnNotFound, "genrow: unbound variable %q in expression (only _i and _t are bound)", string(v))
	}
}

type binNode struct {
	op       byte
	lhs, rhs exprNode
}

func (b binNode) eval(i, t float64) (float64, error) {
	l, err := b.lhs.eval(i, t)
	if err != nil {
		return 0, err
	}
	r, err := b.rhs.eval(i, t)
	if err != nil {
		return 0, err
	}
	switch b.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, errors.Newf("genrow: division by zero in expression")
		}
		return l / r, nil
	default:
		return 0, errors.Newf("genrow: unknown operator %q", string(b.op))
	}
}

type negNode struct{ inner exprNode }

func (n negNode) eval(i, t float64) (float64, error) {
	v, err := n.inner.eval(i, t)
	return -v, err
}

// --- tokenizer ---

type exprToken struct {
	kind  byte // 'n' number, 'v' var, 'o' operator/paren
	text  string
	value float64
}

func tokenizeExpr(s string) ([]exprToken, error) {
	var toks []exprToken
	r := []rune(s)
	i := 0
	for i < len(r) {
		c := r[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '(' || c == ')':
			toks = append(toks, exprToken{kind: 'o', text: string(c)})
			i++
		case unicode.IsDigit(c) || c == '.':
			start := i
			for i < len(r) && (unicode.IsDigit(r[i]) || r[i] == '.') {
				i++
			}
			text := string(r[start:i])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "genrow: invalid number literal %q", text)
			}
			toks = append(toks, exprToken{kind: 'n', text: text, value: v})
		case c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(r) && (r[i] == '_' || unicode.IsLetter(r[i]) || unicode.IsDigit(r[i])) {
				i++
			}
			toks = append(toks, exprToken{kind: 'v', text: string(r[start:i])})
		default:
			return nil, errors.Newf("genrow: unexpected character %q in expression", string(c))
		}
	}
	return toks, nil
}

// --- recursive-descent parser: expr := term (('+'|'-') term)* ---

type exprParser struct {
	toks []exprToken
	pos  int
}

func (p *exprParser) peek() (exprToken, bool) {
	if p.pos >= len(p.toks) {
		return exprToken{}, false
	}
	return p.toks[p.pos], true
}

func (p *exprParser) parseExpr() (exprNode, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != 'o' || (tok.text != "+" && tok.text != "-") {
			return lhs, nil
		}
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		lhs = binNode{op: tok.text[0], lhs: lhs, rhs: rhs}
	}
}

func (p *exprParser) parseTerm() (exprNode, error) {
	lhs, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != 'o' || (tok.text != "*" && tok.text != "/") {
			return lhs, nil
		}
		p.pos++
		rhs, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		lhs = binNode{op: tok.text[0], lhs: lhs, rhs: rhs}
	}
}

func (p *exprParser) parseFactor() (exprNode, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, errors.Newf("genrow: unexpected end of expression")
	}

	switch tok.kind {
	case 'n':
		p.pos++
		return numNode(tok.value), nil
	case 'v':
		p.pos++
		return varNode(tok.text), nil
	case 'o':
		switch tok.text {
		case "-":
			p.pos++
			inner, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			return negNode{inner: inner}, nil
		case "(":
			p.pos++
			inner, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			close, ok := p.peek()
			if !ok || close.text != ")" {
				return nil, errors.Newf("genrow: missing closing parenthesis")
			}
			p.pos++
			return inner, nil
		}
	}
	return nil, errors.Newf("genrow: unexpected token %q", tok.text)
}
