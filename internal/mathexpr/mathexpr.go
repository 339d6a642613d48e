// Package mathexpr evaluates the restricted arithmetic expressions
// players type into a counting channel. It is a small recursive-descent
// parser over a fixed vocabulary: numeric literals, + - * / ^,
// parentheses, a short function table and the usual math constants.
// Nothing else resolves, so arbitrary input is structurally incapable
// of executing anything.
package mathexpr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotANumber classifies every evaluation failure. Callers treat it
// as "this message is not part of the game", not as a fault.
var ErrNotANumber = errors.New("not a numeric expression")

// Evaluate parses input and returns its integer value. Fractional
// results truncate toward zero. Any lexing or parsing error, unknown
// name, domain error or non-finite result reports ErrNotANumber.
func Evaluate(input string) (int, error) {
	p := &parser{input: strings.TrimSpace(input)}

	if err := p.lex(); err != nil {
		return 0, err
	}

	if len(p.tokens) == 0 {
		return 0, fmt.Errorf("%w: empty input", ErrNotANumber)
	}

	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}

	if p.pos != len(p.tokens) {
		return 0, fmt.Errorf("%w: unexpected %q", ErrNotANumber, p.tokens[p.pos].text)
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: result is not finite", ErrNotANumber)
	}

	truncated := math.Trunc(value)
	if truncated > math.MaxInt32 || truncated < math.MinInt32 {
		return 0, fmt.Errorf("%w: result out of range", ErrNotANumber)
	}

	return int(truncated), nil
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdent
	tokenOperator
	tokenLeftParen
	tokenRightParen
	tokenComma
)

type token struct {
	kind  tokenKind
	text  string
	value float64
}

type parser struct {
	input  string
	tokens []token
	pos    int
}

func (p *parser) lex() error {
	s := p.input
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				j++
			}
			value, err := strconv.ParseFloat(s[i:j], 64)
			if err != nil {
				return fmt.Errorf("%w: bad literal %q", ErrNotANumber, s[i:j])
			}
			p.tokens = append(p.tokens, token{kind: tokenNumber, text: s[i:j], value: value})
			i = j
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
			j := i
			for j < len(s) && (s[j] >= 'a' && s[j] <= 'z' || s[j] >= 'A' && s[j] <= 'Z' || s[j] >= '0' && s[j] <= '9' || s[j] == '_') {
				j++
			}
			p.tokens = append(p.tokens, token{kind: tokenIdent, text: s[i:j]})
			i = j
		case c == '*':
			// ** is the exponent spelling some players use
			if i+1 < len(s) && s[i+1] == '*' {
				p.tokens = append(p.tokens, token{kind: tokenOperator, text: "^"})
				i += 2
			} else {
				p.tokens = append(p.tokens, token{kind: tokenOperator, text: "*"})
				i++
			}
		case c == '+' || c == '-' || c == '/' || c == '^':
			p.tokens = append(p.tokens, token{kind: tokenOperator, text: string(c)})
			i++
		case c == '(':
			p.tokens = append(p.tokens, token{kind: tokenLeftParen, text: "("})
			i++
		case c == ')':
			p.tokens = append(p.tokens, token{kind: tokenRightParen, text: ")"})
			i++
		case c == ',':
			p.tokens = append(p.tokens, token{kind: tokenComma, text: ","})
			i++
		default:
			return fmt.Errorf("%w: unexpected character %q", ErrNotANumber, string(c))
		}
	}
	return nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) acceptOperator(ops ...string) (string, bool) {
	t, ok := p.peek()
	if !ok || t.kind != tokenOperator {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

// parseExpr handles + and -, the loosest binding level
func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		op, ok := p.acceptOperator("+", "-")
		if !ok {
			return left, nil
		}

		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}

		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		op, ok := p.acceptOperator("*", "/")
		if !ok {
			return left, nil
		}

		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}

		if op == "*" {
			left *= right
		} else {
			if right == 0 {
				return 0, fmt.Errorf("%w: division by zero", ErrNotANumber)
			}
			left /= right
		}
	}
}

// parseUnary applies leading signs. Exponentiation binds tighter than a
// leading minus, so -2^2 evaluates to -4.
func (p *parser) parseUnary() (float64, error) {
	if op, ok := p.acceptOperator("+", "-"); ok {
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == "-" {
			return -value, nil
		}
		return value, nil
	}

	return p.parsePower()
}

// parsePower handles ^, right-associative with a possibly signed
// right operand (2^-1 is valid).
func (p *parser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}

	if _, ok := p.acceptOperator("^"); !ok {
		return base, nil
	}

	exponent, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	return math.Pow(base, exponent), nil
}

func (p *parser) parsePrimary() (float64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("%w: unexpected end of expression", ErrNotANumber)
	}

	switch t.kind {
	case tokenNumber:
		p.pos++
		return t.value, nil

	case tokenLeftParen:
		p.pos++
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if err := p.expectRightParen(); err != nil {
			return 0, err
		}
		return value, nil

	case tokenIdent:
		p.pos++
		if next, ok := p.peek(); ok && next.kind == tokenLeftParen {
			return p.parseCall(t.text)
		}
		value, ok := constants[t.text]
		if !ok {
			return 0, fmt.Errorf("%w: unknown name %q", ErrNotANumber, t.text)
		}
		return value, nil

	default:
		return 0, fmt.Errorf("%w: unexpected %q", ErrNotANumber, t.text)
	}
}

func (p *parser) parseCall(name string) (float64, error) {
	fn, ok := functions[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown function %q", ErrNotANumber, name)
	}

	p.pos++ // consume '('

	var args []float64
	if t, ok := p.peek(); !ok || t.kind != tokenRightParen {
		for {
			value, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			args = append(args, value)

			if t, ok := p.peek(); ok && t.kind == tokenComma {
				p.pos++
				continue
			}
			break
		}
	}

	if err := p.expectRightParen(); err != nil {
		return 0, err
	}

	if len(args) != fn.arity {
		return 0, fmt.Errorf("%w: %s takes %d argument(s)", ErrNotANumber, name, fn.arity)
	}

	return fn.apply(args)
}

func (p *parser) expectRightParen() error {
	t, ok := p.peek()
	if !ok || t.kind != tokenRightParen {
		return fmt.Errorf("%w: missing closing parenthesis", ErrNotANumber)
	}
	p.pos++
	return nil
}

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
}

type function struct {
	arity int
	apply func(args []float64) (float64, error)
}

var functions = map[string]function{
	"sqrt": {arity: 1, apply: func(args []float64) (float64, error) {
		if args[0] < 0 {
			return 0, fmt.Errorf("%w: sqrt of negative number", ErrNotANumber)
		}
		return math.Sqrt(args[0]), nil
	}},
	"factorial": {arity: 1, apply: func(args []float64) (float64, error) {
		n := args[0]
		if n < 0 || n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: factorial needs a non-negative integer", ErrNotANumber)
		}
		if n > 170 {
			// 171! overflows float64
			return 0, fmt.Errorf("%w: factorial argument too large", ErrNotANumber)
		}
		result := 1.0
		for i := 2.0; i <= n; i++ {
			result *= i
		}
		return result, nil
	}},
	"pow": {arity: 2, apply: func(args []float64) (float64, error) {
		return math.Pow(args[0], args[1]), nil
	}},
	"abs": {arity: 1, apply: func(args []float64) (float64, error) {
		return math.Abs(args[0]), nil
	}},
}
