// Package generic compares bodies that have no known structure, line by line.
package generic

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.squit.io/squit/pkg/matcher"
)

type Matcher struct{}

var _ matcher.Matcher = (*Matcher)(nil)

func New() *Matcher {
	return &Matcher{}
}

// Canonicalize returns raw unchanged.
func (m *Matcher) Canonicalize(raw, _ string) (string, error) {
	return raw, nil
}

// Diff reports one line per changed hunk in the form
// "Expected '<old>' but was '<new>' at line <n>", n being 1-based in expected.
func (m *Matcher) Diff(expected, actual []byte) (string, error) {
	exp := splitLines(string(expected))
	act := splitLines(string(actual))

	var diffs []string
	for _, op := range difflib.NewMatcher(exp, act).GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		diffs = append(diffs, fmt.Sprintf("Expected '%s' but was '%s' at line %d",
			strings.Join(exp[op.I1:op.I2], "\n"),
			strings.Join(act[op.J1:op.J2], "\n"),
			op.I1+1))
	}
	return strings.Join(diffs, "\n"), nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
