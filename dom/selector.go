package dom

import (
	"fmt"
	"strings"

	"github.com/ghetzel/go-stockutil/stringutil"
)

// A Selector locates elements on a page.  Plain selectors are CSS; annotated
// selectors take the form @type[expression], where type is "css", "xpath", or empty
// (match on the element's text).
type Selector string

func (self Selector) String() string {
	return string(self)
}

func (self Selector) IsNone() bool {
	return (self == `none` || self == ``)
}

func (self Selector) IsAnnotated() bool {
	return stringutil.IsSurroundedBy(string(self), `@`, `]`)
}

// Return the annotation type and inner expression of the selector.
func (self Selector) GetAnnotation() (string, string, error) {
	var atype string
	var inner string

	if self.IsAnnotated() {
		expr := strings.TrimPrefix(string(self), `@`)
		expr = strings.TrimSuffix(expr, `]`)
		atype, inner = stringutil.SplitPair(expr, `[`)
	} else {
		atype = `css`
		inner = string(self)
	}

	switch atype {
	case ``:
		atype = `text`
	case `xpath`, `css`:
		break
	default:
		return ``, ``, fmt.Errorf("Unsupported annotation type %q", atype)
	}

	return atype, inner, nil
}

// Return the selector as a fragment target (e.g. "#intro") if it names an element
// by ID, or an empty string otherwise.
func (self Selector) Fragment() string {
	if s := string(self); len(s) > 1 && s[0] == '#' && !strings.ContainsAny(s[1:], ` .[#>:,`) {
		return s
	}

	return ``
}
