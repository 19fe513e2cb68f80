// Package post is the rich-text document model behind the admin posts
// editor: the prosemirror schema with the custom embed and adSnippet nodes,
// the edit session, the paste pipeline, and the markdown round-trip.
package post

import "github.com/cozy/prosemirror-go/model"

var (
	empty = ""
	falsy = false

	headingAttrs = map[string]*model.AttributeSpec{
		"level": {Default: 1},
	}
	codeBlockAttrs = map[string]*model.AttributeSpec{
		"language": {Default: ""},
	}
	imageAttrs = map[string]*model.AttributeSpec{
		"src":   {},
		"alt":   {Default: nil},
		"title": {Default: nil},
	}
	// An embed is atomic: it has no editable content, and every attribute
	// defaults to the empty string so that a missing value renders a safe
	// empty state.
	embedAttrs = map[string]*model.AttributeSpec{
		"provider": {Default: ""},
		"src":      {Default: ""},
		"url":      {Default: ""},
		"title":    {Default: ""},
	}
	adSnippetAttrs = map[string]*model.AttributeSpec{
		"code": {Default: ""},
	}
	linkAttrs = map[string]*model.AttributeSpec{
		"href":  {},
		"title": {Default: nil},
	}
	highlightAttrs = map[string]*model.AttributeSpec{
		"color": {Default: ""},
	}
	// textStyle carries the character-level style attributes. An empty value
	// means unset and must not serialize any style declaration.
	textStyleAttrs = map[string]*model.AttributeSpec{
		"fontSize":   {Default: ""},
		"fontFamily": {Default: ""},
		"color":      {Default: ""},
	}
)

// Nodes are the specs for the nodes of the posts schema.
var Nodes = []*model.NodeSpec{
	{Key: "doc", Content: "block+"},

	{Key: "paragraph", Content: "inline*", Group: "block"},

	{Key: "blockquote", Content: "block+", Group: "block"},

	{Key: "rule", Group: "block"},

	{Key: "heading", Content: "inline*", Group: "block", Attrs: headingAttrs},

	{Key: "codeBlock", Content: "text*", Marks: &empty, Group: "block", Attrs: codeBlockAttrs},

	{Key: "bulletList", Content: "listItem+", Group: "block"},

	{Key: "orderedList", Content: "listItem+", Group: "block"},

	{Key: "listItem", Content: "paragraph block*"},

	{Key: "table", Content: "tableRow+", Group: "block"},

	{Key: "tableRow", Content: "tableCell+"},

	{Key: "tableCell", Content: "paragraph+"},

	// The embedded content of an external provider (YouTube, Instagram,
	// Facebook, or a generic iframe). Atomic: selected, dragged and deleted
	// as a unit.
	{Key: "embed", Group: "block", Attrs: embedAttrs},

	// An advertising snippet slot. The code payload is opaque: it is shown
	// as hover text and never executed.
	{Key: "adSnippet", Group: "block", Attrs: adSnippetAttrs},

	{Key: "text", Group: "inline"},

	{Key: "image", Group: "inline", Inline: true, Attrs: imageAttrs},

	{Key: "hardBreak", Group: "inline", Inline: true},
}

// Marks are the specs for the marks of the posts schema.
var Marks = []*model.MarkSpec{
	{Key: "link", Attrs: linkAttrs, Inclusive: &falsy},

	{Key: "em"},

	{Key: "strong"},

	{Key: "code"},

	{Key: "strike"},

	{Key: "underline"},

	{Key: "highlight", Attrs: highlightAttrs},

	{Key: "textStyle", Attrs: textStyleAttrs},
}

// DefaultSchemaSpec is the schema used for new posts.
var DefaultSchemaSpec = &model.SchemaSpec{
	Nodes:   Nodes,
	Marks:   Marks,
	TopNode: "doc",
}

// DefaultSchema is the instantiated default schema.
var DefaultSchema *model.Schema

func init() {
	schema, err := model.NewSchema(DefaultSchemaSpec)
	if err != nil {
		panic(err)
	}
	DefaultSchema = schema
}
