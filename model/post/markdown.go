package post

import (
	"fmt"

	"github.com/cozy/prosemirror-go/markdown"
	"github.com/cozy/prosemirror-go/model"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extensionast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"

	"github.com/openpress/openpress-stack/model/post/custom"
)

const blockMarker = "________________________________________"

func markdownSerializer() *markdown.Serializer {
	vanilla := markdown.DefaultSerializer
	nodes := map[string]markdown.NodeSerializerFunc{
		"paragraph":   vanilla.Nodes["paragraph"],
		"text":        vanilla.Nodes["text"],
		"bulletList":  vanilla.Nodes["bullet_list"],
		"orderedList": vanilla.Nodes["ordered_list"],
		"listItem":    vanilla.Nodes["list_item"],
		"heading":     vanilla.Nodes["heading"],
		"blockquote":  vanilla.Nodes["blockquote"],
		"rule":        vanilla.Nodes["horizontal_rule"],
		"hardBreak":   vanilla.Nodes["hard_break"],
		"image":       vanilla.Nodes["image"],
		"codeBlock": func(state *markdown.SerializerState, node, _parent *model.Node, _index int) {
			lang, _ := node.Attrs["language"].(string)
			state.Write("```" + lang + "\n")
			state.Text(node.TextContent(), false)
			state.EnsureNewLine()
			state.Write("```")
			state.CloseBlock(node)
		},
		"embed": func(state *markdown.SerializerState, node, _parent *model.Node, _index int) {
			provider, _ := node.Attrs["provider"].(string)
			src, _ := node.Attrs["src"].(string)
			url, _ := node.Attrs["url"].(string)
			title, _ := node.Attrs["title"].(string)
			state.Write(fmt.Sprintf(`%s{.embed provider=%q src=%q url=%q title=%q}`,
				blockMarker, provider, src, url, title))
			state.CloseBlock(node)
		},
		"adSnippet": func(state *markdown.SerializerState, node, _parent *model.Node, _index int) {
			code, _ := node.Attrs["code"].(string)
			state.Write(fmt.Sprintf(`%s{.adSnippet code=%q}`, blockMarker, code))
			state.CloseBlock(node)
		},
		"table": func(state *markdown.SerializerState, node, _parent *model.Node, _index int) {
			state.Write(blockMarker + "{.table}\n\n")
			state.RenderContent(node)
			state.EnsureNewLine()
			state.Write(blockMarker + "{.tableEnd}\n")
			state.CloseBlock(node)
		},
		"tableRow": func(state *markdown.SerializerState, node, _parent *model.Node, _index int) {
			state.Write(blockMarker + "{.tableRow}\n\n")
			state.RenderContent(node)
			state.EnsureNewLine()
			state.CloseBlock(node)
		},
		"tableCell": func(state *markdown.SerializerState, node, _parent *model.Node, _index int) {
			state.Write("____________________{.tableCell}\n\n")
			state.RenderContent(node)
		},
	}
	marks := map[string]markdown.MarkSerializerSpec{
		"em":        vanilla.Marks["em"],
		"strong":    vanilla.Marks["strong"],
		"link":      vanilla.Marks["link"],
		"code":      vanilla.Marks["code"],
		"strike":    {Open: "~~", Close: "~~", ExpelEnclosingWhitespace: true},
		"underline": {Open: "[", Close: "]{.underlined}", ExpelEnclosingWhitespace: true},
		"highlight": {
			Open: "[",
			Close: func(state *markdown.SerializerState, mark *model.Mark, parent *model.Node, index int) string {
				color, _ := mark.Attrs["color"].(string)
				return fmt.Sprintf(`]{.highlight color=%q}`, color)
			},
		},
		"textStyle": {
			Open: "[",
			Close: func(state *markdown.SerializerState, mark *model.Mark, parent *model.Node, index int) string {
				// Unset attributes are omitted entirely.
				out := "]{.textStyle"
				if size, _ := mark.Attrs["fontSize"].(string); size != "" {
					out += fmt.Sprintf(" fontSize=%q", size)
				}
				if family, _ := mark.Attrs["fontFamily"].(string); family != "" {
					out += fmt.Sprintf(" fontFamily=%q", family)
				}
				if color, _ := mark.Attrs["color"].(string); color != "" {
					out += fmt.Sprintf(" color=%q", color)
				}
				return out + "}"
			},
		},
	}
	return markdown.NewSerializer(nodes, marks)
}

func isTableCell(item *StackItem) bool {
	return item.Type.Name == "tableCell"
}

func markdownNodeMapper() NodeMapper {
	return NodeMapper{
		// Blocks
		ast.KindDocument: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			if entering {
				typ, err := state.Schema.NodeType(state.Schema.Spec.TopNode)
				if err != nil {
					return err
				}
				state.OpenNode(typ, nil)
			} else {
				info := state.Pop()
				node, err := info.Type.CreateAndFill(info.Attrs, info.Content, state.Marks)
				if err != nil {
					return err
				}
				state.Root = node
			}
			return nil
		},
		ast.KindParagraph: GenericBlockHandler("paragraph"),
		ast.KindHeading: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			if entering {
				typ, err := state.Schema.NodeType("heading")
				if err != nil {
					return err
				}
				level := node.(*ast.Heading).Level
				state.OpenNode(typ, map[string]interface{}{"level": level})
			} else {
				if _, err := state.CloseNode(); err != nil {
					return err
				}
			}
			return nil
		},
		ast.KindList: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			nodeType := "bulletList"
			if node.(*ast.List).IsOrdered() {
				nodeType = "orderedList"
			}
			if entering {
				typ, err := state.Schema.NodeType(nodeType)
				if err != nil {
					return err
				}
				state.OpenNode(typ, nil)
			} else {
				if _, err := state.CloseNode(); err != nil {
					return err
				}
			}
			return nil
		},
		ast.KindListItem:   GenericBlockHandler("listItem"),
		ast.KindTextBlock:  GenericBlockHandler("paragraph"),
		ast.KindBlockquote: GenericBlockHandler("blockquote"),
		ast.KindThematicBreak: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			if !entering {
				return nil
			}
			typ, err := state.Schema.NodeType("rule")
			if err != nil {
				return err
			}
			_, err = state.AddNode(typ, nil, nil)
			return err
		},
		ast.KindCodeBlock:       codeBlockHandler,
		ast.KindFencedCodeBlock: codeBlockHandler,
		custom.KindEmbed: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			if !entering {
				return nil
			}
			typ, err := state.Schema.NodeType("embed")
			if err != nil {
				return err
			}
			attrs := map[string]interface{}{
				"provider": attributeString(node, "provider"),
				"src":      attributeString(node, "src"),
				"url":      attributeString(node, "url"),
				"title":    attributeString(node, "title"),
			}
			_, err = state.AddNode(typ, attrs, nil)
			return err
		},
		custom.KindAdSnippet: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			if !entering {
				return nil
			}
			typ, err := state.Schema.NodeType("adSnippet")
			if err != nil {
				return err
			}
			attrs := map[string]interface{}{"code": attributeString(node, "code")}
			_, err = state.AddNode(typ, attrs, nil)
			return err
		},
		custom.KindTable: tableMarkerHandler,

		// Inlines
		ast.KindText: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			if entering {
				segment := node.(*ast.Text).Segment
				state.AddText(string(segment.Value(state.Source)))
			}
			return nil
		},
		ast.KindString: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			if entering {
				state.AddText(string(node.(*ast.String).Value))
			}
			return nil
		},
		ast.KindAutoLink: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			if !entering {
				return nil
			}
			typ, err := state.Schema.MarkType("link")
			if err != nil {
				return err
			}
			href := string(node.(*ast.AutoLink).URL(state.Source))
			mark := typ.Create(map[string]interface{}{"href": href})
			state.OpenMark(mark)
			state.AddText(href)
			state.CloseMark(mark)
			return SkipChildren
		},
		ast.KindLink: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			typ, err := state.Schema.MarkType("link")
			if err != nil {
				return err
			}
			n := node.(*ast.Link)
			attrs := map[string]interface{}{
				"href":  string(n.Destination),
				"title": string(n.Title),
			}
			mark := typ.Create(attrs)
			if entering {
				state.OpenMark(mark)
			} else {
				state.CloseMark(mark)
			}
			return nil
		},
		ast.KindImage: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			if !entering {
				return nil
			}
			typ, err := state.Schema.NodeType("image")
			if err != nil {
				return err
			}
			n := node.(*ast.Image)
			attrs := map[string]interface{}{
				"src":   string(n.Destination),
				"title": string(n.Title),
			}
			if _, err := state.AddNode(typ, attrs, nil); err != nil {
				return err
			}
			return SkipChildren
		},
		ast.KindCodeSpan: GenericMarkHandler("code"),
		ast.KindEmphasis: func(state *MarkdownParseState, node ast.Node, entering bool) error {
			var typ *model.MarkType
			var err error
			if node.(*ast.Emphasis).Level == 2 {
				typ, err = state.Schema.MarkType("strong")
			} else {
				typ, err = state.Schema.MarkType("em")
			}
			if err != nil {
				return err
			}
			mark := typ.Create(nil)
			if entering {
				state.OpenMark(mark)
			} else {
				state.CloseMark(mark)
			}
			return nil
		},
		extensionast.KindStrikethrough: GenericMarkHandler("strike"),
		custom.KindSpan:                spanHandler,
	}
}

func codeBlockHandler(state *MarkdownParseState, node ast.Node, entering bool) error {
	if entering {
		typ, err := state.Schema.NodeType("codeBlock")
		if err != nil {
			return err
		}
		var attrs map[string]interface{}
		if fenced, ok := node.(*ast.FencedCodeBlock); ok {
			attrs = map[string]interface{}{
				"language": string(fenced.Language(state.Source)),
			}
		}
		state.OpenNode(typ, attrs)
		state.AddText(WithoutTrailingNewline(node, state.Source))
	} else {
		if _, err := state.CloseNode(); err != nil {
			return err
		}
	}
	return nil
}

// tableMarkerHandler rebuilds the table structure from the marker lines of
// the serialization.
func tableMarkerHandler(state *MarkdownParseState, node ast.Node, entering bool) error {
	tableType, ok := node.AttributeString("class")
	if entering || !ok {
		return nil
	}

	switch tableType {
	case "table":
		// Nothing to do
	case "tableEnd":
		if isTableCell(state.Top()) {
			if _, err := state.CloseNode(); err != nil { // Cell
				return err
			}
			if _, err := state.CloseNode(); err != nil { // Row
				return err
			}
		}
		if _, err := state.CloseNode(); err != nil { // Table
			return err
		}
		return nil
	case "tableRow":
		if isTableCell(state.Top()) {
			if _, err := state.CloseNode(); err != nil { // Cell
				return err
			}
			if _, err := state.CloseNode(); err != nil { // Row
				return err
			}
		}
	case "tableCell":
		if isTableCell(state.Top()) {
			if _, err := state.CloseNode(); err != nil {
				return err
			}
		}
	default:
		return nil
	}
	typ, err := state.Schema.NodeType(tableType.(string))
	if err != nil {
		return err
	}
	state.OpenNode(typ, nil)
	return nil
}

// spanHandler carries the custom marks through markdown.
func spanHandler(state *MarkdownParseState, node ast.Node, entering bool) error {
	text := node.(*custom.Span).Value

	var markType string
	var attrs map[string]interface{}
	if class, ok := node.AttributeString("class"); ok {
		switch class {
		case "underlined":
			markType = "underline"
		case "highlight":
			markType = "highlight"
			attrs = map[string]interface{}{"color": attributeString(node, "color")}
		case "textStyle":
			markType = "textStyle"
			attrs = map[string]interface{}{
				"fontSize":   attributeString(node, "fontSize"),
				"fontFamily": attributeString(node, "fontFamily"),
				"color":      attributeString(node, "color"),
			}
		}
	}

	if markType == "" {
		if entering {
			state.AddText(text)
		}
		return nil
	}
	typ, err := state.Schema.MarkType(markType)
	if err != nil {
		return err
	}
	mark := typ.Create(attrs)
	if entering {
		state.OpenMark(mark)
		state.AddText(text)
	} else {
		state.CloseMark(mark)
	}
	return nil
}

func attributeString(node ast.Node, name string) string {
	value, ok := node.AttributeString(name)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

func markdownParser() parser.Parser {
	return parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(custom.NewBlockMarkerParser(), 50),
			util.Prioritized(parser.NewSetextHeadingParser(), 100),
			util.Prioritized(parser.NewThematicBreakParser(), 200),
			util.Prioritized(parser.NewListParser(), 300),
			util.Prioritized(parser.NewListItemParser(), 400),
			util.Prioritized(parser.NewCodeBlockParser(), 500),
			util.Prioritized(parser.NewATXHeadingParser(), 600),
			util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
			util.Prioritized(parser.NewBlockquoteParser(), 800),
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(custom.NewSpanParser(), 50),
			util.Prioritized(parser.NewCodeSpanParser(), 100),
			util.Prioritized(parser.NewLinkParser(), 200),
			util.Prioritized(parser.NewAutoLinkParser(), 300),
			util.Prioritized(parser.NewEmphasisParser(), 400),
			util.Prioritized(extension.NewStrikethroughParser(), 500),
		),
		parser.WithParagraphTransformers(
			util.Prioritized(parser.LinkReferenceParagraphTransformer, 100),
		),
	)
}

// ParseMarkdownContent parses a markdown export back into a post document.
func ParseMarkdownContent(source []byte, schema *model.Schema) (*model.Node, error) {
	return ParseMarkdown(markdownParser(), markdownNodeMapper(), source, schema)
}
