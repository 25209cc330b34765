package virtual

import (
	"fmt"
	"strings"

	"github.com/ghetzel/go-scrollfriend/dom"
	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-stockutil/stringutil"
)

type attributeMatch struct {
	name     string
	operator string
	value    string
}

// A compound selector such as a.anchor[href^="#"].
type compound struct {
	tag        string
	id         string
	classes    []string
	attributes []attributeMatch
}

// A chain of compound selectors separated by descendant combinators.
type chain []compound

func (self *Page) Query(selector string) (scroll.Element, error) {
	if matches, err := self.queryBoxes(selector); err == nil {
		if len(matches) == 0 {
			return nil, fmt.Errorf("%q: %w", selector, ErrNoSuchElement)
		}

		return matches[0], nil
	} else {
		return nil, err
	}
}

func (self *Page) QueryAll(selector string) ([]scroll.Element, error) {
	if matches, err := self.queryBoxes(selector); err == nil {
		elements := make([]scroll.Element, len(matches))

		for i, box := range matches {
			elements[i] = box
		}

		return elements, nil
	} else {
		return nil, err
	}
}

// Return every box matching the selector in document order.  Selectors may carry a
// @css[...] or @[text] annotation.
func (self *Page) queryBoxes(selector string) ([]*Box, error) {
	atype, inner, err := dom.Selector(selector).GetAnnotation()

	if err != nil {
		return nil, err
	}

	matches := make([]*Box, 0)

	switch atype {
	case `text`:
		for _, box := range self.order {
			if strings.TrimSpace(box.text) == inner {
				matches = append(matches, box)
			}
		}

		return matches, nil

	case `css`:
		chains, err := parseSelectorList(inner)

		if err != nil {
			return nil, err
		}

		for _, box := range self.order {
			for _, c := range chains {
				if c.match(box) {
					matches = append(matches, box)
					break
				}
			}
		}

		return matches, nil

	default:
		return nil, fmt.Errorf("%s selectors are not supported on virtual pages", atype)
	}
}

func parseSelectorList(selector string) ([]chain, error) {
	chains := make([]chain, 0)

	for _, part := range strings.Split(selector, `,`) {
		part = strings.TrimSpace(part)

		if part == `` {
			return nil, fmt.Errorf("empty selector in list %q", selector)
		}

		var c chain

		for _, token := range splitDescendants(part) {
			if cmp, err := parseCompound(token); err == nil {
				c = append(c, cmp)
			} else {
				return nil, err
			}
		}

		chains = append(chains, c)
	}

	return chains, nil
}

// Split on whitespace that is not inside an attribute expression.
func splitDescendants(selector string) []string {
	tokens := make([]string, 0)
	var current strings.Builder
	var depth int

	for _, r := range selector {
		switch {
		case r == '[':
			depth += 1
		case r == ']':
			depth -= 1
		case (r == ' ' || r == '\t') && depth == 0:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func parseCompound(token string) (compound, error) {
	var out compound
	rest := token

	readName := func() string {
		end := strings.IndexAny(rest, `#.[`)

		if end < 0 {
			end = len(rest)
		}

		name := rest[:end]
		rest = rest[end:]
		return name
	}

	out.tag = strings.ToLower(readName())

	if out.tag == `*` {
		out.tag = ``
	}

	for rest != `` {
		switch rest[0] {
		case '#':
			rest = rest[1:]
			out.id = readName()
		case '.':
			rest = rest[1:]
			out.classes = append(out.classes, readName())
		case '[':
			end := strings.IndexByte(rest, ']')

			if end < 0 {
				return out, fmt.Errorf("unterminated attribute selector in %q", token)
			}

			out.attributes = append(out.attributes, parseAttributeMatch(rest[1:end]))
			rest = rest[end+1:]
		default:
			return out, fmt.Errorf("unsupported selector %q", token)
		}
	}

	return out, nil
}

func parseAttributeMatch(expr string) attributeMatch {
	for _, operator := range []string{`^=`, `$=`, `*=`, `=`} {
		if strings.Contains(expr, operator) {
			name, value := stringutil.SplitPair(expr, operator)
			value = strings.TrimSpace(value)

			if stringutil.IsSurroundedBy(value, `"`, `"`) || stringutil.IsSurroundedBy(value, `'`, `'`) {
				value = value[1 : len(value)-1]
			}

			return attributeMatch{
				name:     strings.TrimSpace(name),
				operator: operator,
				value:    value,
			}
		}
	}

	return attributeMatch{
		name: strings.TrimSpace(expr),
	}
}

func (self attributeMatch) match(box *Box) bool {
	actual, ok := box.Attribute(self.name)

	if !ok {
		return false
	}

	switch self.operator {
	case ``:
		return true
	case `=`:
		return actual == self.value
	case `^=`:
		return strings.HasPrefix(actual, self.value)
	case `$=`:
		return strings.HasSuffix(actual, self.value)
	case `*=`:
		return strings.Contains(actual, self.value)
	default:
		return false
	}
}

func (self compound) match(box *Box) bool {
	if self.tag != `` && box.tag != self.tag {
		return false
	}

	if self.id != `` && box.id != self.id {
		return false
	}

	for _, class := range self.classes {
		if !box.HasClass(class) {
			return false
		}
	}

	for _, attr := range self.attributes {
		if !attr.match(box) {
			return false
		}
	}

	return true
}

func (self chain) match(box *Box) bool {
	if len(self) == 0 || !self[len(self)-1].match(box) {
		return false
	}

	ancestor := box.parent

	for i := len(self) - 2; i >= 0; i-- {
		for ancestor != nil && !self[i].match(ancestor) {
			ancestor = ancestor.parent
		}

		if ancestor == nil {
			return false
		}

		ancestor = ancestor.parent
	}

	return true
}
