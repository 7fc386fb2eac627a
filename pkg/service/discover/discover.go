// Package discover finds the leaf directories of a fixture tree.
package discover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Service interface {
	Leaves(ctx context.Context, root string) ([]string, error)
}

type Discoverer struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Discoverer {
	return &Discoverer{logger: logger}
}

var _ Service = (*Discoverer)(nil)

// Leaves returns every directory below root without sub directories, depth
// first, siblings in Compare order. root itself is returned when it has no
// sub directories. Hidden directories are skipped.
func (d *Discoverer) Leaves(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fixture root %s is not a directory", root)
	}

	var leaves []string
	if err := d.walk(ctx, filepath.Clean(root), &leaves); err != nil {
		return nil, err
	}
	d.logger.Debug("discovered fixtures", zap.String("root", root), zap.Int("count", len(leaves)))
	return leaves, nil
}

func (d *Discoverer) walk(ctx context.Context, dir string, leaves *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subdirs, err := subdirectories(dir)
	if err != nil {
		return err
	}
	if len(subdirs) == 0 {
		*leaves = append(*leaves, dir)
		return nil
	}
	for _, name := range subdirs {
		if err := d.walk(ctx, filepath.Join(dir, name), leaves); err != nil {
			return err
		}
	}
	return nil
}

func subdirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.SliceStable(names, func(i, j int) bool {
		return Compare(names[i], names[j]) < 0
	})
	return names, nil
}

// Compare orders directory names alphanumerically. A leading number followed
// by a single delimiter ('-', '_', '.', ' ') or the end of the name compares
// numerically. Names with such a prefix sort before names without. Ties fall
// back to the remainder, then to the whole name.
func Compare(a, b string) int {
	an, arest, aok := numericPrefix(a)
	bn, brest, bok := numericPrefix(b)

	switch {
	case aok && !bok:
		return -1
	case !aok && bok:
		return 1
	case aok && bok:
		if c := an.cmp(bn); c != 0 {
			return c
		}
		if c := strings.Compare(arest, brest); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

type number struct {
	digits string
}

// cmp compares arbitrarily long digit strings numerically.
func (n number) cmp(o number) int {
	a := strings.TrimLeft(n.digits, "0")
	b := strings.TrimLeft(o.digits, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func numericPrefix(name string) (number, string, bool) {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 {
		return number{}, "", false
	}
	if i == len(name) {
		return number{digits: name}, "", true
	}
	switch name[i] {
	case '-', '_', '.', ' ':
		return number{digits: name[:i]}, name[i+1:], true
	}
	return number{}, "", false
}

// Index formats the position of a fixture for listings, zero padded to width.
func Index(i, total int) string {
	width := len(strconv.Itoa(total))
	return fmt.Sprintf("%0*d", width, i)
}
