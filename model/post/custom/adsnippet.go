package custom

import (
	"github.com/yuin/goldmark/ast"
)

// An AdSnippet struct represents an advertising slot block in a post. Its
// code payload is carried as an attribute and stays opaque.
type AdSnippet struct {
	ast.BaseBlock
}

// Dump implements Node.Dump.
func (n *AdSnippet) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// KindAdSnippet is a NodeKind of the AdSnippet node.
var KindAdSnippet = ast.NewNodeKind("AdSnippet")

// Kind implements Node.Kind.
func (n *AdSnippet) Kind() ast.NodeKind {
	return KindAdSnippet
}

// NewAdSnippet returns a new AdSnippet node.
func NewAdSnippet() *AdSnippet {
	return &AdSnippet{
		BaseBlock: ast.BaseBlock{},
	}
}
