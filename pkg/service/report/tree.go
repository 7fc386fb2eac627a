package report

import (
	"strings"

	"go.squit.io/squit/pkg/models"
)

// BuildTree groups results into a forest with one node per path segment of
// context, suite and test path. Siblings with the same name are merged and keep
// the order in which they were first seen. Ignored results are kept in the tree
// but counted nowhere.
func BuildTree(results []models.SquitResult) []*models.ResultTreeNode {
	root := &models.ResultTreeNode{}
	for i := range results {
		insert(root, results[i])
	}
	for _, child := range root.Children {
		rollup(child)
	}
	return root.Children
}

// Root wraps a forest into a single unnamed node carrying the overall counts.
func Root(forest []*models.ResultTreeNode) *models.ResultTreeNode {
	root := &models.ResultTreeNode{Children: forest}
	rollup(root)
	return root
}

func insert(root *models.ResultTreeNode, result models.SquitResult) {
	node := root
	for _, segment := range segments(result) {
		node = child(node, segment)
	}
	if node == root {
		return
	}
	r := result
	node.Result = &r
}

func segments(result models.SquitResult) []string {
	var out []string
	for _, p := range []string{result.ContextPath, result.SuitePath, result.TestPath} {
		for _, s := range strings.Split(p, "/") {
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func child(node *models.ResultTreeNode, name string) *models.ResultTreeNode {
	for _, c := range node.Children {
		if c.Name == name {
			return c
		}
	}
	c := &models.ResultTreeNode{Name: name}
	node.Children = append(node.Children, c)
	return c
}

func rollup(node *models.ResultTreeNode) {
	node.Successful, node.Failed = 0, 0
	if r := node.Result; r != nil && !r.Ignored {
		if r.IsSuccess() {
			node.Successful++
		} else {
			node.Failed++
		}
	}
	for _, c := range node.Children {
		rollup(c)
		node.Successful += c.Successful
		node.Failed += c.Failed
	}
	node.Total = node.Successful + node.Failed
	node.Success = node.Failed == 0
}
