// internal/browser/locator.go
package browser

import (
	"fmt"
	"strings"
)

// Strategy identifies how a Locator's value is interpreted.
type Strategy int

const (
	// ByID matches the element's id attribute exactly.
	ByID Strategy = iota
	// ByCSS uses the value as a raw CSS selector.
	ByCSS
	// ByClassName matches one entry of the element's class list.
	ByClassName
	// ByAriaLabel matches the aria-label attribute exactly.
	ByAriaLabel
	// ByName matches the name attribute exactly.
	ByName
)

var strategyNames = map[Strategy]string{
	ByID:        "id",
	ByCSS:       "css",
	ByClassName: "class",
	ByAriaLabel: "aria-label",
	ByName:      "name",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Locator describes how to find one UI element. It is a comparable value and
// may be used as a map key.
type Locator struct {
	Strategy Strategy
	Value    string
}

// ID returns a Locator matching the id attribute.
func ID(value string) Locator { return Locator{Strategy: ByID, Value: value} }

// CSS returns a Locator for a raw CSS selector.
func CSS(selector string) Locator { return Locator{Strategy: ByCSS, Value: selector} }

// ClassName returns a Locator matching a single class.
func ClassName(value string) Locator { return Locator{Strategy: ByClassName, Value: value} }

// AriaLabel returns a Locator matching the aria-label attribute.
func AriaLabel(value string) Locator { return Locator{Strategy: ByAriaLabel, Value: value} }

// Name returns a Locator matching the name attribute.
func Name(value string) Locator { return Locator{Strategy: ByName, Value: value} }

// Selector renders the locator as a CSS selector usable with querySelector.
// Attribute forms are used instead of #id and .class so values need no identifier escaping.
func (l Locator) Selector() string {
	switch l.Strategy {
	case ByID:
		return attrSelector("id", "=", l.Value)
	case ByClassName:
		return attrSelector("class", "~=", l.Value)
	case ByAriaLabel:
		return attrSelector("aria-label", "=", l.Value)
	case ByName:
		return attrSelector("name", "=", l.Value)
	default:
		return l.Value
	}
}

// String is used in logs and error messages.
func (l Locator) String() string {
	return l.Strategy.String() + "=" + l.Value
}

func attrSelector(attr, op, value string) string {
	return "[" + attr + op + cssString(value) + "]"
}

// cssString quotes s as a CSS string literal.
func cssString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\a `)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
