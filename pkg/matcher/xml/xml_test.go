package xml

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.squit.io/squit/pkg/matcher"
	"go.squit.io/squit/pkg/models"
)

func newMatcher(strict bool) *Matcher {
	opts := matcher.DefaultOptions()
	opts.XMLStrict = strict
	return New(opts)
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "comments and declaration removed",
			raw:  `<?xml version="1.0"?><!-- c --><root b="2" a="1"><!-- inner --><child>text</child><empty/></root>`,
			want: "<root a=\"1\" b=\"2\">\n  <child>text</child>\n  <empty></empty>\n</root>",
		},
		{
			name: "redundant namespace declaration dropped",
			raw:  `<r xmlns="urn:a"><c xmlns="urn:a"/></r>`,
			want: "<r xmlns=\"urn:a\">\n  <c></c>\n</r>",
		},
		{
			name: "rebinding kept",
			raw:  `<r xmlns="urn:a"><c xmlns="urn:b"/></r>`,
			want: "<r xmlns=\"urn:a\">\n  <c xmlns=\"urn:b\"></c>\n</r>",
		},
		{
			name: "attributes ordered",
			raw:  `<r z="1" xmlns:b="urn:b" b:a="2" xmlns="urn:d" a="3"/>`,
			want: `<r xmlns="urn:d" xmlns:b="urn:b" a="3" z="1" b:a="2"></r>`,
		},
		{
			name: "whitespace between elements",
			raw:  "<r>\n\n   <a>1</a>\n\t<b>2</b>   </r>",
			want: "<r>\n  <a>1</a>\n  <b>2</b>\n</r>",
		},
	}

	m := newMatcher(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Canonicalize(tt.raw, "response.xml")
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(got))
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		`<a:r xmlns:a="urn:a" x="1"><a:c a:y="2">v</a:c><!-- x --></a:r>`,
		`<p>hello <b>x</b> world</p>`,
		`<r><c>  padded  </c></r>`,
	}
	m := newMatcher(false)
	for _, in := range inputs {
		once, err := m.Canonicalize(in, "")
		require.NoError(t, err)
		twice, err := m.Canonicalize(once, "")
		require.NoError(t, err)
		assert.Equal(t, once, twice, in)
	}
}

func TestCanonicalize_Disabled(t *testing.T) {
	opts := matcher.DefaultOptions()
	opts.CanonicalizeXML = false
	raw := `<r><!-- keep --></r>`
	got, err := New(opts).Canonicalize(raw, "")
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestCanonicalize_Malformed(t *testing.T) {
	_, err := newMatcher(false).Canonicalize(`<r a=></r>`, "suite/test/response.xml")
	require.Error(t, err)

	var parseErr *models.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "suite/test/response.xml", parseErr.Path)
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		strict   bool
		expected string
		actual   string
		wantDiff bool
		contains string
	}{
		{
			name:     "equal",
			expected: `<root><cool/></root>`,
			actual:   `<root><cool/></root>`,
		},
		{
			name:     "whitespace only differences",
			expected: "<root>\n  <cool>x</cool>\n</root>",
			actual:   `<root><cool> x </cool></root>`,
		},
		{
			name:     "attribute order",
			expected: `<root a="1" b="2"/>`,
			actual:   `<root b="2" a="1"/>`,
		},
		{
			name:     "prefix renamed non strict",
			expected: `<ns:root xmlns:ns="http://example.com"><cool/></ns:root>`,
			actual:   `<x:root xmlns:x="http://example.com"><cool/></x:root>`,
		},
		{
			name:     "prefix renamed strict",
			strict:   true,
			expected: `<ns:root xmlns:ns="http://example.com"><cool/></ns:root>`,
			actual:   `<x:root xmlns:x="http://example.com"><cool/></x:root>`,
			wantDiff: true,
		},
		{
			name:     "unused namespace declaration non strict",
			expected: `<root><cool/></root>`,
			actual:   `<root xmlns:unused="urn:unused"><cool/></root>`,
		},
		{
			name:     "unused namespace declaration strict",
			strict:   true,
			expected: `<root><cool/></root>`,
			actual:   `<root xmlns:unused="urn:unused"><cool/></root>`,
			wantDiff: true,
			contains: "namespace declaration unused",
		},
		{
			name:     "different element non strict",
			expected: `<good/>`,
			actual:   `<bad/>`,
			wantDiff: true,
			contains: "Expected element good but was bad at /good[1]",
		},
		{
			name:     "different element strict",
			strict:   true,
			expected: `<good/>`,
			actual:   `<bad/>`,
			wantDiff: true,
		},
		{
			name:     "different namespace uri",
			expected: `<r xmlns="urn:a"/>`,
			actual:   `<r xmlns="urn:b"/>`,
			wantDiff: true,
			contains: "{urn:a}r",
		},
		{
			name:     "text differs",
			expected: `<root><cool>a</cool></root>`,
			actual:   `<root><cool>b</cool></root>`,
			wantDiff: true,
			contains: "Expected text 'a' but was 'b' at /root[1]/cool[1]",
		},
		{
			name:     "attribute missing",
			expected: `<root id="1"/>`,
			actual:   `<root/>`,
			wantDiff: true,
			contains: "Expected attribute id='1' but was nothing at /root[1]",
		},
		{
			name:     "child count",
			expected: `<root><a/><b/></root>`,
			actual:   `<root><a/></root>`,
			wantDiff: true,
			contains: "Expected 2 child elements but was 1 at /root[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff, err := newMatcher(tt.strict).Diff([]byte(tt.expected), []byte(tt.actual))
			require.NoError(t, err)
			if !tt.wantDiff {
				assert.Empty(t, diff)
				return
			}
			assert.NotEmpty(t, diff)
			if tt.contains != "" {
				assert.Contains(t, diff, tt.contains)
			}
		})
	}
}

func TestDiff_OneLinePerDifference(t *testing.T) {
	diff, err := newMatcher(false).Diff(
		[]byte(`<root a="1"><x>1</x><y>2</y></root>`),
		[]byte(`<root a="2"><x>3</x><y>4</y></root>`),
	)
	require.NoError(t, err)
	assert.Len(t, strings.Split(diff, "\n"), 3)
}

func TestDiff_Malformed(t *testing.T) {
	_, err := newMatcher(false).Diff([]byte(`<root`), []byte(`<root/>`))
	assert.Error(t, err)
}
