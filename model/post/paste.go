package post

import (
	"context"
	"strings"
	"sync"

	"github.com/h2non/filetype"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/openpress/openpress-stack/pkg/assets"
	"github.com/openpress/openpress-stack/pkg/logger"
	"github.com/openpress/openpress-stack/pkg/provider"
)

// Item is one clipboard payload, identified by its mime type.
type Item struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// Clipboard is the set of payloads of one paste event.
type Clipboard struct {
	Items []Item `json:"items"`
}

// Pipeline intercepts paste events ahead of the engine's default handling.
// It decides among three mutually exclusive actions: upload-and-insert for
// image data, classify-and-embed for embeddable URLs, or fallthrough to the
// default paste. No failure ever escapes it: a broken paste degrades to
// nothing inserted.
type Pipeline struct {
	session  *Session
	uploader assets.Uploader
	policy   *bluemonday.Policy
	log      logger.Logger
	wg       sync.WaitGroup

	// OnUploadError is invoked when an upload fails, so the host can show a
	// transient notification. The document is never mutated on failure.
	OnUploadError func(error)
}

// NewPipeline returns a pipeline bound to an edit session.
func NewPipeline(session *Session, uploader assets.Uploader) *Pipeline {
	return &Pipeline{
		session:  session,
		uploader: uploader,
		policy:   bluemonday.UGCPolicy(),
		log:      logger.WithNamespace("paste"),
	}
}

// HandlePaste consumes the paste event when it carries image data or an
// embeddable URL, and reports whether it did. Image data takes precedence
// over URLs. When it returns false, the caller must let the engine's
// default paste handling proceed.
func (p *Pipeline) HandlePaste(ctx context.Context, clip Clipboard) (consumed bool) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("Paste handler has panicked: %v", r)
			consumed = true
		}
	}()

	if item, ok := imageItem(clip); ok {
		p.wg.Add(1)
		go p.uploadAndInsert(ctx, item.Data, "pasted image")
		return true
	}

	if attrs := embeddableURL(clip); attrs != nil {
		if err := p.session.InsertEmbed(attrs); err != nil {
			p.log.Warnf("Cannot insert embed: %s", err)
		}
		return true
	}

	return false
}

// uploadAndInsert runs outside the event flow: the user keeps editing while
// the upload is in flight. On success the image is inserted at the cursor
// position of completion time; on failure nothing is inserted.
func (p *Pipeline) uploadAndInsert(ctx context.Context, data []byte, name string) {
	defer p.wg.Done()
	res, err := p.uploader.Upload(ctx, data, name)
	if err != nil {
		p.log.Warnf("Image upload has failed: %s", err)
		if p.OnUploadError != nil {
			p.OnUploadError(err)
		}
		return
	}
	if err := p.session.InsertImage(res.URL, name); err != nil {
		p.log.Warnf("Cannot insert uploaded image: %s", err)
	}
}

// Flush waits for the in-flight uploads. It is used on shutdown and in
// tests; the editor itself never blocks on it.
func (p *Pipeline) Flush() {
	p.wg.Wait()
}

// InsertImageFromPicker is the toolbar file-picker path: it awaits the
// upload and only then mutates the document.
func (p *Pipeline) InsertImageFromPicker(ctx context.Context, data []byte, name string) error {
	res, err := p.uploader.Upload(ctx, data, name)
	if err != nil {
		p.log.Warnf("Image upload has failed: %s", err)
		if p.OnUploadError != nil {
			p.OnUploadError(err)
		}
		return err
	}
	return p.session.InsertImage(res.URL, name)
}

// PasteFallback is the default paste handling used when HandlePaste did not
// consume the event: rich HTML is sanitized and flattened into paragraphs,
// plain text is split on line breaks.
func (p *Pipeline) PasteFallback(clip Clipboard) error {
	for _, item := range clip.Items {
		if item.Type == "text/html" {
			for _, text := range p.htmlToParagraphs(string(item.Data)) {
				if err := p.session.InsertParagraph(text); err != nil {
					return err
				}
			}
			return nil
		}
	}
	for _, item := range clip.Items {
		if item.Type == "text/plain" {
			for _, line := range strings.Split(string(item.Data), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					if err := p.session.InsertParagraph(line); err != nil {
						return err
					}
				}
			}
			return nil
		}
	}
	return nil
}

// htmlToParagraphs strips the markup down to user-generated content and
// flattens it into one text per block element.
func (p *Pipeline) htmlToParagraphs(raw string) []string {
	clean := p.policy.Sanitize(raw)
	root, err := html.Parse(strings.NewReader(clean))
	if err != nil {
		return []string{strings.TrimSpace(clean)}
	}

	var paragraphs []string
	var current strings.Builder
	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			current.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode && isBlockElement(n.Data) {
			flush()
		}
	}
	walk(root)
	flush()
	return paragraphs
}

func isBlockElement(name string) bool {
	switch name {
	case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "br", "tr":
		return true
	}
	return false
}

// imageItem returns the first clipboard item carrying image data.
func imageItem(clip Clipboard) (Item, bool) {
	for _, item := range clip.Items {
		if strings.HasPrefix(item.Type, "image/") {
			return item, true
		}
		if (item.Type == "" || item.Type == "application/octet-stream") && filetype.IsImage(item.Data) {
			return item, true
		}
	}
	return Item{}, false
}

// embeddableURL classifies the plain-text payload, trimmed of surrounding
// whitespace, and returns its embed attributes if any.
func embeddableURL(clip Clipboard) *provider.Attrs {
	for _, item := range clip.Items {
		if item.Type != "text/plain" {
			continue
		}
		return provider.Classify(strings.TrimSpace(string(item.Data)))
	}
	return nil
}
