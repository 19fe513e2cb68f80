package custom

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// A Span struct represents an inline run of text carrying attributes, like
// [some text]{.underlined}. The custom marks of the posts schema (underline,
// highlight, textStyle) travel through markdown as spans.
type Span struct {
	ast.BaseInline
	Value string
}

// Dump implements Node.Dump.
func (n *Span) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Value": n.Value}, nil)
}

// KindSpan is a NodeKind of the Span node.
var KindSpan = ast.NewNodeKind("Span")

// Kind implements Node.Kind.
func (n *Span) Kind() ast.NodeKind {
	return KindSpan
}

// NewSpan returns a new Span node with the given text.
func NewSpan(value string) *Span {
	return &Span{Value: value}
}

type spanParser struct{}

var defaultSpanParser = &spanParser{}

// NewSpanParser returns a new InlineParser for attribute spans.
// This parser must take precedence over the parser.LinkParser, since both
// trigger on an opening bracket.
func NewSpanParser() parser.InlineParser {
	return defaultSpanParser
}

func (s *spanParser) Trigger() []byte {
	return []byte{'['}
}

func (s *spanParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	end := bytes.IndexByte(line, ']')
	// A span closes on the same line and the attributes follow immediately,
	// otherwise this is a regular link and the link parser takes over.
	if end < 1 || end+1 >= len(line) || line[end+1] != '{' {
		return nil
	}
	block.Advance(end + 1)
	span := NewSpan(string(line[1:end]))
	attrs, ok := parser.ParseAttributes(block)
	if !ok {
		return span
	}
	for _, attr := range attrs {
		if value, isBytes := attr.Value.([]byte); isBytes {
			span.SetAttribute(attr.Name, string(value))
		} else {
			span.SetAttribute(attr.Name, attr.Value)
		}
	}
	return span
}

func (s *spanParser) CloseBlock(parent ast.Node, pc parser.Context) {
	// nothing to do
}
