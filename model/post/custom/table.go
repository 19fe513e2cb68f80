package custom

import (
	"github.com/yuin/goldmark/ast"
)

// A Table struct represents a table marker in the markdown serialization of
// a post. The class attribute tells whether it opens a table, a row, a
// cell, or closes the table.
type Table struct {
	ast.BaseBlock
}

// Dump implements Node.Dump.
func (n *Table) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// KindTable is a NodeKind of the Table node.
var KindTable = ast.NewNodeKind("Table")

// Kind implements Node.Kind.
func (n *Table) Kind() ast.NodeKind {
	return KindTable
}

// NewTable returns a new Table node.
func NewTable() *Table {
	return &Table{
		BaseBlock: ast.BaseBlock{},
	}
}
