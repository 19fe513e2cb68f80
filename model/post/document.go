package post

import (
	"github.com/cozy/prosemirror-go/model"
)

// Document is a post body in memory. The raw content is the serializable
// value exchanged with the host: it is replaced wholesale on load, and
// emitted as a read-only snapshot on every mutation.
type Document struct {
	DocID      string                 `json:"_id"`
	Title      string                 `json:"title"`
	Version    int64                  `json:"version"`
	SchemaSpec map[string]interface{} `json:"schema,omitempty"`
	RawContent map[string]interface{} `json:"content"`

	// Use cache for some computed properties
	schema  *model.Schema
	content *model.Node
}

// ID returns the document qualified identifier.
func (d *Document) ID() string { return d.DocID }

// SetID changes the document qualified identifier.
func (d *Document) SetID(id string) { d.DocID = id }

// Schema returns the prosemirror schema for this post. Posts created by
// this stack use the default schema; a stored schema spec takes precedence
// so that legacy content keeps its own.
func (d *Document) Schema() (*model.Schema, error) {
	if d.schema == nil {
		if len(d.SchemaSpec) == 0 {
			d.schema = DefaultSchema
			return d.schema, nil
		}
		spec := model.SchemaSpecFromJSON(d.SchemaSpec)
		schema, err := model.NewSchema(&spec)
		if err != nil {
			return nil, ErrInvalidSchema
		}
		d.schema = schema
	}
	return d.schema, nil
}

// SetContent updates the content of this post, and clears the cache.
func (d *Document) SetContent(content *model.Node) {
	d.RawContent = content.ToJSON()
	d.content = content
}

// Content returns the prosemirror content for this post.
func (d *Document) Content() (*model.Node, error) {
	if d.content == nil {
		if len(d.RawContent) == 0 {
			return nil, ErrInvalidContent
		}
		schema, err := d.Schema()
		if err != nil {
			return nil, err
		}
		content, err := model.NodeFromJSON(schema, d.RawContent)
		if err != nil {
			return nil, err
		}
		d.content = content
	}
	return d.content, nil
}

// Markdown returns a markdown serialization of the content.
func (d *Document) Markdown() ([]byte, error) {
	content, err := d.Content()
	if err != nil {
		return nil, err
	}
	md := markdownSerializer().Serialize(content)
	return []byte(md), nil
}

// Metadata returns the metadata stored with this post by the surrounding
// CMS screens.
func (d *Document) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"id":      d.DocID,
		"title":   d.Title,
		"content": d.RawContent,
		"version": d.Version,
	}
}
