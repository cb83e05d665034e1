// Package script implements the scope-typed condition interpreter used by
// game scripts: a registry of named conditions, a parse phase turning
// generic AST nodes into typed condition trees, and a side-effect-free
// execute phase evaluating those trees against live simulation state.
package script

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ironcliff/hegemon/errs"
)

// Node is a parsed script AST node: either a scalar literal or an ordered
// list of key/child entries. Entries may repeat keys, which is why this
// is not a plain map. The interpreter consumes nodes only through the
// Expect accessors; the concrete file syntax stays outside the core.
type Node struct {
	scalar  string
	entries []Entry
	leaf    bool
}

// Entry is one key/child pair inside a non-leaf node.
type Entry struct {
	Key  string
	Node Node
}

// ScalarNode builds a leaf node holding one literal token.
func ScalarNode(value string) Node {
	return Node{scalar: value, leaf: true}
}

// ListNode builds a non-leaf node from key/child entries.
func ListNode(entries ...Entry) Node {
	return Node{entries: entries}
}

// IsLeaf reports whether the node is a scalar literal.
func (n Node) IsLeaf() bool { return n.leaf }

// ExpectScalar returns the node's literal token.
func (n Node) ExpectScalar() (string, error) {
	if !n.leaf {
		return "", errs.New("script", errs.CodeScript,
			errs.WithMessage("expected a scalar value, got a node list"))
	}
	return n.scalar, nil
}

// ExpectEntries returns the node's key/child entries.
func (n Node) ExpectEntries() ([]Entry, error) {
	if n.leaf {
		return nil, errs.New("script", errs.CodeScript,
			errs.WithMessage("expected a node list, got a scalar value"),
			errs.WithField("value", n.scalar))
	}
	return n.entries, nil
}

// ExpectBool interprets the node as a yes/no literal.
func (n Node) ExpectBool() (bool, error) {
	s, err := n.ExpectScalar()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(s) {
	case "yes", "true":
		return true, nil
	case "no", "false":
		return false, nil
	}
	return false, errs.New("script", errs.CodeScript,
		errs.WithMessage("expected a boolean literal"),
		errs.WithField("value", s))
}

// ExpectInt interprets the node as an integer literal.
func (n Node) ExpectInt() (int64, error) {
	s, err := n.ExpectScalar()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errs.New("script", errs.CodeScript,
			errs.WithMessage("expected an integer literal"),
			errs.WithField("value", s))
	}
	return v, nil
}

// ExpectDecimal interprets the node as a fixed-point literal.
func (n Node) ExpectDecimal() (decimal.Decimal, error) {
	s, err := n.ExpectScalar()
	if err != nil {
		return decimal.Zero, err
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errs.New("script", errs.CodeScript,
			errs.WithMessage("expected a fixed-point literal"),
			errs.WithField("value", s))
	}
	return v, nil
}

// ParseYAML builds a script AST from YAML source. Mappings become entry
// lists; sequences of mappings flatten into one entry list, which is how
// scripts repeat the same condition key.
func ParseYAML(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Node{}, errs.New("script", errs.CodeScript,
			errs.WithMessage("cannot parse script source"),
			errs.WithCause(err))
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return ListNode(), nil
		}
		root = root.Content[0]
	}
	return nodeFromYAML(root)
}

func nodeFromYAML(y *yaml.Node) (Node, error) {
	switch y.Kind {
	case yaml.ScalarNode:
		return ScalarNode(y.Value), nil
	case yaml.MappingNode:
		entries := make([]Entry, 0, len(y.Content)/2)
		for i := 0; i+1 < len(y.Content); i += 2 {
			child, err := nodeFromYAML(y.Content[i+1])
			if err != nil {
				return Node{}, err
			}
			entries = append(entries, Entry{Key: y.Content[i].Value, Node: child})
		}
		return Node{entries: entries}, nil
	case yaml.SequenceNode:
		var entries []Entry
		for _, item := range y.Content {
			child, err := nodeFromYAML(item)
			if err != nil {
				return Node{}, err
			}
			if child.leaf {
				return Node{}, errs.New("script", errs.CodeScript,
					errs.WithMessage("script sequences may only contain condition mappings"),
					errs.WithField("value", child.scalar))
			}
			entries = append(entries, child.entries...)
		}
		return Node{entries: entries}, nil
	default:
		return Node{}, errs.New("script", errs.CodeScript,
			errs.WithMessage("unsupported script node kind"))
	}
}
