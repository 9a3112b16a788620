package msbuild

import (
	"fmt"
	"strconv"
	"strings"
)

// conditionEnv is what a condition needs beyond property expansion.
type conditionEnv interface {
	scope
	exists(path string) bool
}

// evalCondition evaluates an MSBuild condition. An empty condition is true.
func evalCondition(cond string, env conditionEnv) (bool, error) {
	if strings.TrimSpace(cond) == "" {
		return true, nil
	}
	toks, err := tokenizeCondition(cond)
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", cond, err)
	}
	p := &condParser{toks: toks, env: env}
	v, err := p.parseOr()
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", cond, err)
	}
	if p.pos != len(p.toks) {
		return false, fmt.Errorf("condition %q: unexpected %q", cond, p.toks[p.pos].text)
	}
	b, err := v.boolean()
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", cond, err)
	}
	return b, nil
}

type tokKind int

const (
	tokString tokKind = iota // quoted
	tokWord                  // unquoted
	tokFunc                  // word followed by '('
	tokLParen
	tokRParen
	tokComma
	tokNot
	tokAnd
	tokOr
	tokOp
)

type condToken struct {
	kind tokKind
	text string
}

func tokenizeCondition(s string) ([]condToken, error) {
	var toks []condToken
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '(':
			toks = append(toks, condToken{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, condToken{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, condToken{tokComma, ","})
			i++
		case c == '\'':
			end, err := closingQuote(s, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, condToken{tokString, s[i+1 : end]})
			i = end + 1
		case c == '=' || c == '!' || c == '<' || c == '>':
			if i+1 < len(s) && s[i+1] == '=' {
				toks = append(toks, condToken{tokOp, s[i : i+2]})
				i += 2
				continue
			}
			switch c {
			case '!':
				toks = append(toks, condToken{tokNot, "!"})
			case '<', '>':
				toks = append(toks, condToken{tokOp, string(c)})
			default:
				return nil, fmt.Errorf("unexpected '=' at offset %d", i)
			}
			i++
		default:
			start := i
			for i < len(s) {
				c := s[i]
				if (c == '$' || c == '@' || c == '%') && i+1 < len(s) && s[i+1] == '(' {
					end := matchParen(s, i+1)
					if end < 0 {
						return nil, fmt.Errorf("unbalanced parentheses at offset %d", i)
					}
					i = end + 1
					continue
				}
				if strings.IndexByte(" \t\r\n()',=!<>", c) >= 0 {
					break
				}
				i++
			}
			word := s[start:i]
			switch {
			case strings.EqualFold(word, "and"):
				toks = append(toks, condToken{tokAnd, word})
			case strings.EqualFold(word, "or"):
				toks = append(toks, condToken{tokOr, word})
			case i < len(s) && s[i] == '(' && validName(word):
				toks = append(toks, condToken{tokFunc, word})
			default:
				toks = append(toks, condToken{tokWord, word})
			}
		}
	}
	return toks, nil
}

// closingQuote returns the index of the quote ending the string that opens
// at open. Quotes inside $(), @() and %() belong to the expression.
func closingQuote(s string, open int) (int, error) {
	for i := open + 1; i < len(s); i++ {
		c := s[i]
		if (c == '$' || c == '@' || c == '%') && i+1 < len(s) && s[i+1] == '(' {
			end := matchParen(s, i+1)
			if end < 0 {
				return 0, fmt.Errorf("unbalanced parentheses at offset %d", i)
			}
			i = end
			continue
		}
		if c == '\'' {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unterminated string at offset %d", open)
}

// condValue is either a boolean (from a comparison or function) or a string.
type condValue struct {
	isBool bool
	b      bool
	s      string
}

func (v condValue) boolean() (bool, error) {
	if v.isBool {
		return v.b, nil
	}
	switch strings.ToLower(strings.TrimSpace(v.s)) {
	case "true", "on", "yes", "!false", "!off", "!no":
		return true, nil
	case "false", "off", "no", "!true", "!on", "!yes":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", v.s)
}

func (v condValue) str() string {
	if v.isBool {
		return strconv.FormatBool(v.b)
	}
	return v.s
}

type condParser struct {
	toks []condToken
	pos  int
	env  conditionEnv
}

func (p *condParser) peek() (condToken, bool) {
	if p.pos >= len(p.toks) {
		return condToken{}, false
	}
	return p.toks[p.pos], true
}

func (p *condParser) next() (condToken, error) {
	t, ok := p.peek()
	if !ok {
		return condToken{}, fmt.Errorf("unexpected end of condition")
	}
	p.pos++
	return t, nil
}

func (p *condParser) parseOr() (condValue, error) {
	left, err := p.parseAnd()
	if err != nil {
		return condValue{}, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOr {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return condValue{}, err
		}
		lb, err := left.boolean()
		if err != nil {
			return condValue{}, err
		}
		rb, err := right.boolean()
		if err != nil {
			return condValue{}, err
		}
		left = condValue{isBool: true, b: lb || rb}
	}
}

func (p *condParser) parseAnd() (condValue, error) {
	left, err := p.parseNot()
	if err != nil {
		return condValue{}, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokAnd {
			return left, nil
		}
		p.pos++
		right, err := p.parseNot()
		if err != nil {
			return condValue{}, err
		}
		lb, err := left.boolean()
		if err != nil {
			return condValue{}, err
		}
		rb, err := right.boolean()
		if err != nil {
			return condValue{}, err
		}
		left = condValue{isBool: true, b: lb && rb}
	}
}

func (p *condParser) parseNot() (condValue, error) {
	if t, ok := p.peek(); ok && t.kind == tokNot {
		p.pos++
		v, err := p.parseNot()
		if err != nil {
			return condValue{}, err
		}
		b, err := v.boolean()
		if err != nil {
			return condValue{}, err
		}
		return condValue{isBool: true, b: !b}, nil
	}
	return p.parseComparison()
}

func (p *condParser) parseComparison() (condValue, error) {
	left, err := p.parseOperand()
	if err != nil {
		return condValue{}, err
	}
	t, ok := p.peek()
	if !ok || t.kind != tokOp {
		return left, nil
	}
	p.pos++
	right, err := p.parseOperand()
	if err != nil {
		return condValue{}, err
	}
	return compare(t.text, left.str(), right.str())
}

func (p *condParser) parseOperand() (condValue, error) {
	t, err := p.next()
	if err != nil {
		return condValue{}, err
	}
	switch t.kind {
	case tokLParen:
		v, err := p.parseOr()
		if err != nil {
			return condValue{}, err
		}
		if r, err := p.next(); err != nil || r.kind != tokRParen {
			return condValue{}, fmt.Errorf("missing ')'")
		}
		return v, nil
	case tokString, tokWord:
		return condValue{s: expand(t.text, p.env)}, nil
	case tokFunc:
		return p.parseCall(t.text)
	}
	return condValue{}, fmt.Errorf("unexpected %q", t.text)
}

func (p *condParser) parseCall(name string) (condValue, error) {
	if t, err := p.next(); err != nil || t.kind != tokLParen {
		return condValue{}, fmt.Errorf("expected '(' after %s", name)
	}
	var args []string
	for {
		t, err := p.next()
		if err != nil {
			return condValue{}, err
		}
		if t.kind == tokRParen {
			break
		}
		if t.kind == tokComma {
			continue
		}
		if t.kind != tokString && t.kind != tokWord {
			return condValue{}, fmt.Errorf("unexpected %q in arguments to %s", t.text, name)
		}
		args = append(args, expand(t.text, p.env))
	}

	switch strings.ToLower(name) {
	case "exists":
		if len(args) != 1 {
			return condValue{}, fmt.Errorf("Exists takes one argument, got %d", len(args))
		}
		path := strings.TrimSpace(args[0])
		return condValue{isBool: true, b: path != "" && p.env.exists(path)}, nil
	case "hastrailingslash":
		if len(args) != 1 {
			return condValue{}, fmt.Errorf("HasTrailingSlash takes one argument, got %d", len(args))
		}
		a := args[0]
		return condValue{isBool: true, b: strings.HasSuffix(a, "/") || strings.HasSuffix(a, `\`)}, nil
	}
	return condValue{}, fmt.Errorf("unknown function %s", name)
}

func compare(op, a, b string) (condValue, error) {
	switch op {
	case "==":
		return condValue{isBool: true, b: strings.EqualFold(a, b)}, nil
	case "!=":
		return condValue{isBool: true, b: !strings.EqualFold(a, b)}, nil
	}

	x, errA := parseNumber(a)
	y, errB := parseNumber(b)
	if errA != nil || errB != nil {
		return condValue{}, fmt.Errorf("cannot compare %q %s %q: operands must be numeric", a, op, b)
	}
	var r bool
	switch op {
	case "<":
		r = x < y
	case ">":
		r = x > y
	case "<=":
		r = x <= y
	case ">=":
		r = x >= y
	default:
		return condValue{}, fmt.Errorf("unknown operator %s", op)
	}
	return condValue{isBool: true, b: r}, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		return float64(n), err
	}
	return strconv.ParseFloat(s, 64)
}
