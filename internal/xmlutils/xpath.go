package xmlutils

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/xmlpath.v2"
)

// ParseXML parses an in-memory document and returns its root node.
func ParseXML(data []byte) (*xmlpath.Node, error) {
	root, err := xmlpath.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return root, nil
}

// First returns the cleaned text of the first match, or "".
func First(node *xmlpath.Node, path *xmlpath.Path) string {
	if v, ok := path.String(node); ok {
		return CleanText(v)
	}
	return ""
}

// All returns the cleaned, non-empty text of every match.
func All(node *xmlpath.Node, path *xmlpath.Path) []string {
	var values []string
	iter := path.Iter(node)
	for iter.Next() {
		if v := CleanText(iter.Node().String()); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// Nodes returns every node matched by path.
func Nodes(node *xmlpath.Node, path *xmlpath.Path) []*xmlpath.Node {
	var nodes []*xmlpath.Node
	iter := path.Iter(node)
	for iter.Next() {
		nodes = append(nodes, iter.Node())
	}
	return nodes
}

// CleanText collapses whitespace and newlines inside XML text content.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
