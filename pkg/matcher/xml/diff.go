package xml

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.squit.io/squit/utils"
)

// Diff compares expected and actual structurally. In non-strict mode element and
// attribute names are compared by namespace URI and local name only.
func (m *Matcher) Diff(expected, actual []byte) (string, error) {
	exp, err := Parse(expected)
	if err != nil {
		return "", fmt.Errorf("failed to parse expected xml: %w", err)
	}
	act, err := Parse(actual)
	if err != nil {
		return "", fmt.Errorf("failed to parse actual xml: %w", err)
	}

	c := &comparison{strict: m.opts.XMLStrict}
	root := exp.Root()
	c.compare(root, act.Root(), scope{}, scope{}, "/"+root.Tag+"[1]")
	return strings.Join(c.diffs, "\n"), nil
}

type comparison struct {
	strict bool
	diffs  []string
}

func (c *comparison) report(format string, args ...interface{}) {
	c.diffs = append(c.diffs, fmt.Sprintf(format, args...))
}

func (c *comparison) compare(exp, act *etree.Element, expScope, actScope scope, path string) {
	expScope = expScope.extend(exp)
	actScope = actScope.extend(act)

	if en, an := c.elementName(exp, expScope), c.elementName(act, actScope); en != an {
		c.report("Expected element %s but was %s at %s", en, an, path)
		return
	}

	if c.strict {
		c.compareMaps("namespace declaration", declarations(exp), declarations(act), path)
	}
	c.compareMaps("attribute", c.attributes(exp, expScope), c.attributes(act, actScope), path)

	if et, at := text(exp), text(act); et != at {
		c.report("Expected text '%s' but was '%s' at %s", et, at, path)
	}

	ec, ac := exp.ChildElements(), act.ChildElements()
	if len(ec) != len(ac) {
		c.report("Expected %d child elements but was %d at %s", len(ec), len(ac), path)
	}
	for i := 0; i < len(ec) && i < len(ac); i++ {
		c.compare(ec[i], ac[i], expScope, actScope, fmt.Sprintf("%s/%s[%d]", path, ec[i].Tag, i+1))
	}
}

func (c *comparison) compareMaps(kind string, exp, act map[string]string, path string) {
	for _, k := range utils.Keys(exp) {
		av, ok := act[k]
		switch {
		case !ok:
			c.report("Expected %s %s='%s' but was nothing at %s", kind, k, exp[k], path)
		case av != exp[k]:
			c.report("Expected %s %s='%s' but was '%s' at %s", kind, k, exp[k], av, path)
		}
	}
	for _, k := range utils.Keys(act) {
		if _, ok := exp[k]; !ok {
			c.report("Expected nothing but was %s %s='%s' at %s", kind, k, act[k], path)
		}
	}
}

func (c *comparison) elementName(e *etree.Element, s scope) string {
	name := qualified(s.uri(e.Space), e.Tag)
	if c.strict && e.Space != "" {
		return e.Space + ":" + name
	}
	return name
}

// attributes keys the non declaration attributes of e by their comparable name.
func (c *comparison) attributes(e *etree.Element, s scope) map[string]string {
	attrs := map[string]string{}
	for _, a := range e.Attr {
		if _, ok := namespaceDecl(a); ok {
			continue
		}
		key := qualified(s.attrURI(a), a.Key)
		if c.strict && a.Space != "" {
			key = a.Space + ":" + key
		}
		attrs[key] = a.Value
	}
	return attrs
}

func qualified(uri, local string) string {
	if uri == "" {
		return local
	}
	return "{" + uri + "}" + local
}

// text concatenates the direct character data of e, ignoring surrounding whitespace.
func text(e *etree.Element) string {
	var sb strings.Builder
	for _, t := range e.Child {
		if cd, ok := t.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}
