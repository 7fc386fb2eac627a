// Package xml canonicalizes and structurally compares XML bodies.
package xml

import (
	"errors"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"go.squit.io/squit/pkg/matcher"
	"go.squit.io/squit/pkg/models"
	"golang.org/x/net/html/charset"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

const indentSpaces = 2

type Matcher struct {
	opts matcher.Options
}

var _ matcher.Matcher = (*Matcher)(nil)

func New(opts matcher.Options) *Matcher {
	return &Matcher{opts: opts}
}

// Parse reads raw into a document. Declared non UTF-8 encodings are decoded.
func Parse(raw []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("document has no root element")
	}
	return doc, nil
}

// Write serializes doc the way canonical documents are persisted.
func Write(doc *etree.Document) (string, error) {
	doc.WriteSettings.CanonicalEndTags = true
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true
	doc.Indent(indentSpaces)
	return doc.WriteToString()
}

// Canonicalize removes comments and the XML declaration, drops namespace
// declarations already in scope, sorts attributes and pretty prints raw.
func (m *Matcher) Canonicalize(raw, source string) (string, error) {
	if !m.opts.CanonicalizeXML {
		return raw, nil
	}
	doc, err := Parse([]byte(raw))
	if err != nil {
		return "", &models.ParseError{Path: source, Err: err}
	}
	CanonicalizeDocument(doc)
	out, err := Write(doc)
	if err != nil {
		return "", &models.ParseError{Path: source, Err: err}
	}
	return out, nil
}

// CanonicalizeDocument applies the canonical transformation to doc in place.
func CanonicalizeDocument(doc *etree.Document) {
	for i := len(doc.Child) - 1; i >= 0; i-- {
		switch t := doc.Child[i].(type) {
		case *etree.Comment:
			doc.RemoveChildAt(i)
		case *etree.ProcInst:
			if t.Target == "xml" {
				doc.RemoveChildAt(i)
			}
		case *etree.CharData:
			if t.IsWhitespace() {
				doc.RemoveChildAt(i)
			}
		}
	}
	canonicalizeElement(doc.Root(), scope{})
}

func canonicalizeElement(e *etree.Element, parent scope) {
	kept := e.Attr[:0]
	for _, a := range e.Attr {
		if prefix, ok := namespaceDecl(a); ok {
			if uri, inScope := parent[prefix]; inScope && uri == a.Value {
				continue
			}
		}
		kept = append(kept, a)
	}
	e.Attr = kept
	current := parent.extend(e)
	sortAttrs(e, current)

	mixed := hasElementChildren(e)
	for i := len(e.Child) - 1; i >= 0; i-- {
		switch t := e.Child[i].(type) {
		case *etree.Comment:
			e.RemoveChildAt(i)
		case *etree.CharData:
			if mixed {
				t.Data = strings.TrimSpace(t.Data)
				if t.Data == "" {
					e.RemoveChildAt(i)
				}
			}
		case *etree.Element:
			canonicalizeElement(t, current)
		}
	}
}

// sortAttrs orders namespace declarations first (default namespace, then by
// prefix) followed by the remaining attributes by namespace URI and local name.
func sortAttrs(e *etree.Element, s scope) {
	sort.SliceStable(e.Attr, func(i, j int) bool {
		a, b := e.Attr[i], e.Attr[j]
		ap, aDecl := namespaceDecl(a)
		bp, bDecl := namespaceDecl(b)
		switch {
		case aDecl && bDecl:
			return ap < bp
		case aDecl != bDecl:
			return aDecl
		}
		au, bu := s.attrURI(a), s.attrURI(b)
		if au != bu {
			return au < bu
		}
		return a.Key < b.Key
	})
}

func hasElementChildren(e *etree.Element) bool {
	for _, c := range e.Child {
		if _, ok := c.(*etree.Element); ok {
			return true
		}
	}
	return false
}

// scope maps namespace prefixes to URIs. The default namespace uses the empty prefix.
type scope map[string]string

func namespaceDecl(a etree.Attr) (prefix string, ok bool) {
	switch {
	case a.Space == "xmlns":
		return a.Key, true
	case a.Space == "" && a.Key == "xmlns":
		return "", true
	default:
		return "", false
	}
}

func declarations(e *etree.Element) map[string]string {
	decls := map[string]string{}
	for _, a := range e.Attr {
		if prefix, ok := namespaceDecl(a); ok {
			decls[prefix] = a.Value
		}
	}
	return decls
}

func (s scope) extend(e *etree.Element) scope {
	decls := declarations(e)
	if len(decls) == 0 {
		return s
	}
	out := make(scope, len(s)+len(decls))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range decls {
		out[k] = v
	}
	return out
}

func (s scope) uri(prefix string) string {
	if prefix == "xml" {
		return xmlNamespace
	}
	return s[prefix]
}

// attrURI resolves the namespace of an attribute. Unprefixed attributes are in no namespace.
func (s scope) attrURI(a etree.Attr) string {
	if a.Space == "" {
		return ""
	}
	return s.uri(a.Space)
}
