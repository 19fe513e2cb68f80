package post

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/cozy/prosemirror-go/model"

	"github.com/openpress/openpress-stack/pkg/embed"
	"github.com/openpress/openpress-stack/pkg/provider"
)

// HTMLRenderer renders a post document to HTML for publishing. Embed and
// adSnippet nodes are delegated to the embed renderer, so that published
// pages carry the same markup as the editor preview.
type HTMLRenderer struct {
	embeds *embed.Renderer
}

// NewHTMLRenderer returns a renderer backed by a fresh embed renderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{embeds: embed.NewRenderer()}
}

// Render walks the document and returns its HTML.
func (r *HTMLRenderer) Render(doc *model.Node) (template.HTML, error) {
	var b strings.Builder
	var err error
	doc.ForEach(func(child *model.Node, _offset, _index int) {
		if err != nil {
			return
		}
		err = r.renderBlock(&b, child)
	})
	if err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}

func (r *HTMLRenderer) renderBlock(b *strings.Builder, node *model.Node) error {
	switch node.Type.Name {
	case "paragraph":
		b.WriteString("<p>")
		r.renderInline(b, node)
		b.WriteString("</p>\n")
	case "heading":
		level := intAttr(node.Attrs, "level")
		if level < 1 || level > 6 {
			level = 1
		}
		fmt.Fprintf(b, "<h%d>", level)
		r.renderInline(b, node)
		fmt.Fprintf(b, "</h%d>\n", level)
	case "blockquote":
		b.WriteString("<blockquote>\n")
		if err := r.renderChildren(b, node); err != nil {
			return err
		}
		b.WriteString("</blockquote>\n")
	case "bulletList":
		b.WriteString("<ul>\n")
		if err := r.renderChildren(b, node); err != nil {
			return err
		}
		b.WriteString("</ul>\n")
	case "orderedList":
		b.WriteString("<ol>\n")
		if err := r.renderChildren(b, node); err != nil {
			return err
		}
		b.WriteString("</ol>\n")
	case "listItem":
		b.WriteString("<li>")
		if err := r.renderChildren(b, node); err != nil {
			return err
		}
		b.WriteString("</li>\n")
	case "codeBlock":
		lang, _ := node.Attrs["language"].(string)
		if lang != "" {
			fmt.Fprintf(b, `<pre><code class="language-%s">`, template.HTMLEscapeString(lang))
		} else {
			b.WriteString("<pre><code>")
		}
		b.WriteString(template.HTMLEscapeString(node.TextContent()))
		b.WriteString("</code></pre>\n")
	case "rule":
		b.WriteString("<hr>\n")
	case "table":
		b.WriteString("<table>\n")
		if err := r.renderChildren(b, node); err != nil {
			return err
		}
		b.WriteString("</table>\n")
	case "tableRow":
		b.WriteString("<tr>")
		if err := r.renderChildren(b, node); err != nil {
			return err
		}
		b.WriteString("</tr>\n")
	case "tableCell":
		b.WriteString("<td>")
		if err := r.renderChildren(b, node); err != nil {
			return err
		}
		b.WriteString("</td>")
	case "embed":
		src, _ := node.Attrs["src"].(string)
		url, _ := node.Attrs["url"].(string)
		title, _ := node.Attrs["title"].(string)
		tag, _ := node.Attrs["provider"].(string)
		attrs := provider.Attrs{
			Provider: provider.FromString(tag),
			Src:      src,
			URL:      url,
			Title:    title,
		}
		b.WriteString(string(r.embeds.Render(attrs)))
		b.WriteString("\n")
	case "adSnippet":
		code, _ := node.Attrs["code"].(string)
		b.WriteString(string(r.embeds.RenderAdSnippet(code)))
		b.WriteString("\n")
	default:
		return fmt.Errorf("cannot render node type %s: %w", node.Type.Name, ErrInvalidContent)
	}
	return nil
}

func (r *HTMLRenderer) renderChildren(b *strings.Builder, node *model.Node) error {
	var err error
	node.ForEach(func(child *model.Node, _offset, _index int) {
		if err != nil {
			return
		}
		err = r.renderBlock(b, child)
	})
	return err
}

func (r *HTMLRenderer) renderInline(b *strings.Builder, node *model.Node) {
	node.ForEach(func(child *model.Node, _offset, _index int) {
		switch {
		case child.IsText():
			r.renderText(b, child)
		case child.Type.Name == "image":
			src, _ := child.Attrs["src"].(string)
			alt, _ := child.Attrs["alt"].(string)
			title, _ := child.Attrs["title"].(string)
			fmt.Fprintf(b, `<img src="%s" alt="%s"`,
				template.HTMLEscapeString(src), template.HTMLEscapeString(alt))
			if title != "" {
				fmt.Fprintf(b, ` title="%s"`, template.HTMLEscapeString(title))
			}
			b.WriteString(">")
		case child.Type.Name == "hardBreak":
			b.WriteString("<br>")
		}
	})
}

// renderText wraps the escaped text in one tag per mark. Closing tags are
// emitted in reverse order of the opening ones.
func (r *HTMLRenderer) renderText(b *strings.Builder, node *model.Node) {
	var opening, closing []string
	for _, mark := range node.Marks {
		switch mark.Type.Name {
		case "strong":
			opening = append(opening, "<strong>")
			closing = append([]string{"</strong>"}, closing...)
		case "em":
			opening = append(opening, "<em>")
			closing = append([]string{"</em>"}, closing...)
		case "code":
			opening = append(opening, "<code>")
			closing = append([]string{"</code>"}, closing...)
		case "strike":
			opening = append(opening, "<s>")
			closing = append([]string{"</s>"}, closing...)
		case "underline":
			opening = append(opening, "<u>")
			closing = append([]string{"</u>"}, closing...)
		case "link":
			href, _ := mark.Attrs["href"].(string)
			opening = append(opening, fmt.Sprintf(`<a href="%s" rel="noopener">`, template.HTMLEscapeString(href)))
			closing = append([]string{"</a>"}, closing...)
		case "highlight":
			color, _ := mark.Attrs["color"].(string)
			if color != "" {
				opening = append(opening, fmt.Sprintf(`<mark style="background-color: %s">`, template.HTMLEscapeString(color)))
			} else {
				opening = append(opening, "<mark>")
			}
			closing = append([]string{"</mark>"}, closing...)
		case "textStyle":
			if style := StyleAttr(mark.Attrs); style != "" {
				opening = append(opening, fmt.Sprintf(`<span style="%s">`, template.HTMLEscapeString(style)))
				closing = append([]string{"</span>"}, closing...)
			}
		}
	}
	for _, tag := range opening {
		b.WriteString(tag)
	}
	b.WriteString(template.HTMLEscapeString(node.TextContent()))
	for _, tag := range closing {
		b.WriteString(tag)
	}
}
