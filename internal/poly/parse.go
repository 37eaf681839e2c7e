package poly

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrSyntax = errors.New("poly: syntax error")

// Parse reads an expanded polynomial such as "x^2 - 3*x*y + 0.5".
// Only sums of products of numbers and powers of x and y are accepted.
func Parse(s string) (Polynomial, error) {
	p := &parser{src: strings.ReplaceAll(s, " ", "")}
	if p.src == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	out := make(Polynomial, 0)
	sign := 1.0
	for {
		switch p.peek() {
		case '+':
			p.pos++
		case '-':
			sign = -sign
			p.pos++
		}
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		t.Coeff *= sign
		out = append(out, t)
		if p.pos >= len(p.src) {
			break
		}
		c := p.peek()
		if c != '+' && c != '-' {
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, c, p.pos)
		}
		sign = 1.0
	}
	return out.Simplify(), nil
}

// MustParse panics on malformed input. Intended for presets and tests.
func MustParse(s string) Polynomial {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

type parser struct {
	src string
	pos int
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) term() (Term, error) {
	t := Term{Coeff: 1}
	for {
		if err := p.factor(&t); err != nil {
			return t, err
		}
		if p.peek() != '*' {
			return t, nil
		}
		p.pos++
	}
}

func (p *parser) factor(t *Term) error {
	c := p.peek()
	switch {
	case c == 'x' || c == 'y':
		p.pos++
		n := 1
		if p.peek() == '^' {
			p.pos++
			start := p.pos
			for p.pos < len(p.src) && unicode.IsDigit(rune(p.src[p.pos])) {
				p.pos++
			}
			v, err := strconv.Atoi(p.src[start:p.pos])
			if err != nil {
				return fmt.Errorf("%w: bad exponent at %d", ErrSyntax, start)
			}
			n = v
		}
		if c == 'x' {
			t.ExpX += n
		} else {
			t.ExpY += n
		}
		return nil
	case c == '.' || unicode.IsDigit(rune(c)):
		start := p.pos
		for p.pos < len(p.src) {
			ch := p.src[p.pos]
			if unicode.IsDigit(rune(ch)) || ch == '.' {
				p.pos++
				continue
			}
			if (ch == 'e' || ch == 'E') && p.pos+1 < len(p.src) {
				p.pos++
				if p.src[p.pos] == '-' || p.src[p.pos] == '+' {
					p.pos++
				}
				continue
			}
			break
		}
		v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			return fmt.Errorf("%w: bad number %q", ErrSyntax, p.src[start:p.pos])
		}
		t.Coeff *= v
		return nil
	default:
		return fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, c, p.pos)
	}
}
