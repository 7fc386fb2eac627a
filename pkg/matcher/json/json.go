// Package json canonicalizes and structurally compares JSON bodies.
package json

import (
	"bytes"
	encjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/pretty"
	"github.com/wI2L/jsondiff"
	"go.squit.io/squit/pkg/matcher"
	"go.squit.io/squit/pkg/models"
)

type Matcher struct {
	opts matcher.Options
}

var _ matcher.Matcher = (*Matcher)(nil)

func New(opts matcher.Options) *Matcher {
	return &Matcher{opts: opts}
}

var prettyOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: true}

// Canonicalize sorts object keys, normalizes numbers and pretty prints raw.
// Array order is kept.
func (m *Matcher) Canonicalize(raw, source string) (string, error) {
	if !m.opts.CanonicalizeJSON {
		return raw, nil
	}
	v, err := Parse([]byte(raw))
	if err != nil {
		return "", &models.ParseError{Path: source, Err: err}
	}
	out, err := Encode(Normalize(v))
	if err != nil {
		return "", &models.ParseError{Path: source, Err: err}
	}
	return string(out), nil
}

// Parse decodes data keeping numbers as json.Number so no precision is lost.
func Parse(data []byte) (any, error) {
	dec := encjson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the top-level value")
	}
	return v, nil
}

// Encode writes v as pretty printed JSON with sorted keys.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := encjson.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(buf.Bytes(), prettyOptions), nil
}

// Normalize rewrites every number of v in place into its canonical form and returns v.
func Normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = Normalize(val)
		}
	case []any:
		for i, val := range x {
			x[i] = Normalize(val)
		}
	case encjson.Number:
		return normalizeNumber(x)
	case float64:
		return normalizeNumber(encjson.Number(strconv.FormatFloat(x, 'g', -1, 64)))
	}
	return v
}

// maxExponent bounds the exponents expanded into plain decimal notation.
const maxExponent = 10000

// normalizeNumber renders 12.0 as 12 and expands exponents into plain decimal
// notation. It works on the decimal digits so no value is ever rounded.
func normalizeNumber(n encjson.Number) encjson.Number {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		return n
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	mantissa, exp := s, 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		e, err := strconv.Atoi(s[i+1:])
		if err != nil || e > maxExponent || e < -maxExponent {
			return n
		}
		mantissa, exp = s[:i], e
	}
	intPart, frac, _ := strings.Cut(mantissa, ".")
	digits := intPart + frac
	point := len(intPart) + exp

	trimmed := strings.TrimLeft(digits, "0")
	point -= len(digits) - len(trimmed)
	digits = strings.TrimRight(trimmed, "0")
	if digits == "" {
		return "0"
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	switch {
	case point <= 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -point))
		b.WriteString(digits)
	case point >= len(digits):
		b.WriteString(digits)
		b.WriteString(strings.Repeat("0", point-len(digits)))
	default:
		b.WriteString(digits[:point])
		b.WriteByte('.')
		b.WriteString(digits[point:])
	}
	return encjson.Number(b.String())
}

// Diff compares expected and actual structurally. Formatting and key order
// never matter; array order matters unless JSONIgnoreArrayOrder is set.
func (m *Matcher) Diff(expected, actual []byte) (string, error) {
	var opts []jsondiff.Option
	if m.opts.JSONIgnoreArrayOrder {
		opts = append(opts, jsondiff.Equivalent())
	}
	patch, err := jsondiff.CompareJSON(expected, actual, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to compare json: %w", err)
	}

	diffs := make([]string, 0, len(patch))
	for _, op := range patch {
		switch op.Type {
		case jsondiff.OperationReplace:
			diffs = append(diffs, fmt.Sprintf("Expected %s but was %s at %s", literal(op.OldValue), literal(op.Value), pointer(string(op.Path))))
		case jsondiff.OperationRemove:
			diffs = append(diffs, fmt.Sprintf("Expected %s but was nothing at %s", literal(op.OldValue), pointer(string(op.Path))))
		case jsondiff.OperationAdd:
			diffs = append(diffs, fmt.Sprintf("Expected nothing but was %s at %s", literal(op.Value), pointer(string(op.Path))))
		default:
			diffs = append(diffs, fmt.Sprintf("Unexpected %s operation at %s", op.Type, pointer(string(op.Path))))
		}
	}
	return strings.Join(diffs, "\n"), nil
}

func pointer(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func literal(v any) string {
	b, err := encjson.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
