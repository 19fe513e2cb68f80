// Package custom defines the goldmark nodes and parsers for the custom
// atomic blocks of the posts schema, so that they round-trip through the
// markdown serialization.
package custom

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// An Embed struct represents an embedded provider block in a post.
type Embed struct {
	ast.BaseBlock
}

// Dump implements Node.Dump.
func (n *Embed) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// KindEmbed is a NodeKind of the Embed node.
var KindEmbed = ast.NewNodeKind("Embed")

// Kind implements Node.Kind.
func (n *Embed) Kind() ast.NodeKind {
	return KindEmbed
}

// NewEmbed returns a new Embed node.
func NewEmbed() *Embed {
	return &Embed{
		BaseBlock: ast.BaseBlock{},
	}
}

type blockMarkerParser struct{}

var defaultBlockMarkerParser = &blockMarkerParser{}

// NewBlockMarkerParser returns a new BlockParser that parses the marker
// lines of the custom atomic blocks, like
// ________________________________________{.embed provider="youtube"}.
// This parser must take precedence over the parser.ThematicBreakParser.
func NewBlockMarkerParser() parser.BlockParser {
	return defaultBlockMarkerParser
}

func (b *blockMarkerParser) Trigger() []byte {
	return []byte{'_'}
}

func (b *blockMarkerParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w > 3 {
		return nil, parser.NoChildren
	}
	count := 0
	for i := pos; i < len(line); i++ {
		c := line[i]
		if c == '{' {
			break
		}
		if c != '_' {
			count = 0
			break
		}
		count++
	}
	if count < 10 {
		return nil, parser.NoChildren
	}
	reader.Advance(count)

	attrs, ok := parser.ParseAttributes(reader)
	if !ok {
		return nil, parser.NoChildren
	}
	var node ast.Node
	state := parser.NoChildren
	for _, attr := range attrs {
		if string(attr.Name) != "class" {
			continue
		}
		if value, ok := attr.Value.([]byte); ok {
			switch string(value) {
			case "embed":
				node = NewEmbed()
			case "adSnippet":
				node = NewAdSnippet()
			case "table", "tableRow", "tableCell", "tableEnd":
				node = NewTable()
				state = parser.HasChildren
			}
		}
	}
	if node == nil {
		return nil, parser.NoChildren
	}
	for _, attr := range attrs {
		if value, ok := attr.Value.([]byte); ok {
			node.SetAttribute(attr.Name, string(value))
		} else {
			node.SetAttribute(attr.Name, attr.Value)
		}
	}
	return node, state
}

func (b *blockMarkerParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	return parser.Close
}

func (b *blockMarkerParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {
	// nothing to do
}

func (b *blockMarkerParser) CanInterruptParagraph() bool {
	return true
}

func (b *blockMarkerParser) CanAcceptIndentedLine() bool {
	return false
}
