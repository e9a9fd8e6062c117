package lang

import "strings"

// Parse parses text as a single expression, for example
//
//	user.name
//	@add(1, @count).toFixed(2)
//	#env.HOME
//
// The whole text must be consumed. On failure the returned error is a
// [*SyntaxError] describing the farthest point the parser reached.
func Parse(text string) (*Expression, error) {
	p := &parser{src: text}

	e, c, ok := p.exp(cursor{})
	if ok && p.eof(c) {
		return e, nil
	}

	if ok {
		p.fail(c, "end of input")
	}

	return nil, p.syntaxError()
}

// ParseValue parses text as a single value: a literal, an array, an object,
// or an expression.
func ParseValue(text string) (any, error) {
	p := &parser{src: text}

	v, c, ok := p.value(cursor{})
	if ok && p.eof(c) {
		return v, nil
	}

	if ok {
		p.fail(c, "end of input")
	}

	return nil, p.syntaxError()
}

// exp parses: _ ExpItem ('.' ExpItem)* _.
func (p *parser) exp(c cursor) (*Expression, cursor, bool) {
	first, n, ok := p.item(p.ws(c))
	if !ok {
		return nil, c, false
	}

	steps := []Step{first}

	for {
		d, ok := p.literal(n, ".")
		if !ok {
			break
		}

		s, m, ok := p.item(d)
		if !ok {
			break
		}

		steps = append(steps, s)
		n = m
	}

	return NewExpression(steps...), p.ws(n), true
}

// item parses: ('#' | '@')? Iden ('(' ValueList? ','? ')')?.
func (p *parser) item(c cursor) (Step, cursor, bool) {
	var s Step

	start := c

	if n, ok := p.literal(c, "#"); ok {
		s.Scope, c = ScopeExternal, n
	} else if n, ok := p.literal(c, "@"); ok {
		s.Scope, c = ScopeStore, n
	}

	name, n, ok := p.identifier(c)
	if !ok {
		return Step{}, start, false
	}

	s.Name = name

	if o, ok := p.punct(n, "("); ok {
		args, m, ok := p.valueList(o)
		if !ok {
			m = o
		}

		if cm, ok := p.punct(m, ","); ok {
			m = cm
		}

		if e, ok := p.punct(m, ")"); ok {
			if args == nil {
				args = []any{}
			}

			s.Call, s.Args = true, args

			return s, e, true
		}
	}

	return s, n, true
}

// valueList parses: Value (',' Value)*.
func (p *parser) valueList(c cursor) ([]any, cursor, bool) {
	v, n, ok := p.value(c)
	if !ok {
		return nil, c, false
	}

	list := []any{v}

	for {
		m, ok := p.punct(n, ",")
		if !ok {
			break
		}

		v, m, ok = p.value(m)
		if !ok {
			break
		}

		list = append(list, v)
		n = m
	}

	return list, n, true
}

// value parses: '(' Value ')' | _ Primary _.
func (p *parser) value(c cursor) (any, cursor, bool) {
	if n, ok := p.punct(c, "("); ok {
		if v, m, ok := p.value(n); ok {
			if e, ok := p.punct(m, ")"); ok {
				return v, e, true
			}
		}
	}

	v, n, ok := p.primary(p.ws(c))
	if !ok {
		return nil, c, false
	}

	return v, p.ws(n), true
}

// primary tries each value form in order; the first match wins.
func (p *parser) primary(c cursor) (any, cursor, bool) {
	if _, n, ok := named(p, c, "null", p.keywordRule("null")); ok {
		return nil, n, true
	}

	if _, n, ok := named(p, c, "undefined", p.keywordRule("undefined")); ok {
		return Undefined, n, true
	}

	if n, ok := p.keyword(c, "true"); ok {
		return true, n, true
	}

	if n, ok := p.keyword(c, "false"); ok {
		return false, n, true
	}

	if v, n, ok := p.number(c); ok {
		return v, n, true
	}

	if v, n, ok := p.str(c); ok {
		return v, n, true
	}

	if v, n, ok := p.regex(c); ok {
		return v, n, true
	}

	if v, n, ok := p.exp(c); ok {
		return v, n, true
	}

	if v, n, ok := p.object(c); ok {
		return v, n, true
	}

	if v, n, ok := p.array(c); ok {
		return v, n, true
	}

	return nil, c, false
}

func (p *parser) keywordRule(word string) func(cursor) (struct{}, cursor, bool) {
	return func(c cursor) (struct{}, cursor, bool) {
		n, ok := p.keyword(c, word)

		return struct{}{}, n, ok
	}
}

// object parses: '{' (KeyVal (',' KeyVal)*)? ','? '}'.
func (p *parser) object(c cursor) (*Object, cursor, bool) {
	return named(p, c, "object", func(c cursor) (*Object, cursor, bool) {
		n, ok := p.punct(c, "{")
		if !ok {
			return nil, c, false
		}

		obj := NewObject()

		if k, v, m, ok := p.keyVal(n); ok {
			obj.Set(k, v)
			n = m

			for {
				d, ok := p.punct(n, ",")
				if !ok {
					break
				}

				k, v, m, ok := p.keyVal(d)
				if !ok {
					break
				}

				obj.Set(k, v)
				n = m
			}
		}

		if m, ok := p.punct(n, ","); ok {
			n = m
		}

		n, ok = p.punct(n, "}")
		if !ok {
			return nil, c, false
		}

		return obj, n, true
	})
}

type pair struct {
	key string
	val any
}

// keyVal parses: (String | Key) ':' Value.
func (p *parser) keyVal(c cursor) (string, any, cursor, bool) {
	kv, n, ok := named(p, c, "key:val pair", func(c cursor) (pair, cursor, bool) {
		key, n, ok := p.str(c)
		if !ok {
			key, n, ok = p.key(c)
		}

		if !ok {
			return pair{}, c, false
		}

		n, ok = p.punct(n, ":")
		if !ok {
			return pair{}, c, false
		}

		v, n, ok := p.value(n)
		if !ok {
			return pair{}, c, false
		}

		return pair{key, v}, n, true
	})

	return kv.key, kv.val, n, ok
}

// key parses a dotted identifier chain and returns its text.
func (p *parser) key(c cursor) (string, cursor, bool) {
	return named(p, c, "key", func(c cursor) (string, cursor, bool) {
		id, n, ok := p.identifier(c)
		if !ok {
			return "", c, false
		}

		parts := []string{id}

		for {
			d, ok := p.literal(n, ".")
			if !ok {
				break
			}

			id, m, ok := p.identifier(d)
			if !ok {
				break
			}

			parts = append(parts, id)
			n = m
		}

		return strings.Join(parts, "."), n, true
	})
}

// array parses: '[' ValueList? ','? ']'.
func (p *parser) array(c cursor) ([]any, cursor, bool) {
	n, ok := p.punct(c, "[")
	if !ok {
		return nil, c, false
	}

	items, m, ok := p.valueList(n)
	if !ok {
		items, m = []any{}, n
	}

	if d, ok := p.punct(m, ","); ok {
		m = d
	}

	m, ok = p.punct(m, "]")
	if !ok {
		return nil, c, false
	}

	return items, m, true
}
