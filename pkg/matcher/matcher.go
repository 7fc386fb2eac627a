// Package matcher defines how response bodies are normalized and compared.
// Each media type family has its own implementation in a sub package.
package matcher

// Options tune canonicalization and comparison.
type Options struct {
	CanonicalizeJSON     bool
	CanonicalizeXML      bool
	XMLStrict            bool
	JSONIgnoreArrayOrder bool
}

// DefaultOptions canonicalizes both structured formats and compares XML leniently.
func DefaultOptions() Options {
	return Options{
		CanonicalizeJSON: true,
		CanonicalizeXML:  true,
	}
}

// Canonicalizer turns a raw body into its canonical textual form.
// Implementations are pure and idempotent. source names the file the body
// was read from and is only used in errors.
type Canonicalizer interface {
	Canonicalize(raw, source string) (string, error)
}

// Differ returns a human readable description of the differences between
// two bodies, or an empty string when they are equal.
type Differ interface {
	Diff(expected, actual []byte) (string, error)
}

// Matcher canonicalizes and compares bodies of one media type family.
type Matcher interface {
	Canonicalizer
	Differ
}
