package embed

import (
	"bytes"
	"html/template"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/openpress/openpress-stack/pkg/logger"
	"github.com/openpress/openpress-stack/pkg/provider"
)

// Iframe heights by provider. The Facebook video plugin needs more room
// than the YouTube player.
const (
	youtubeHeight  = 315
	facebookHeight = 476
	genericHeight  = 315
)

const renderCacheSize = 256

var iframeTmpl = template.Must(template.New("iframe").Parse(
	`<iframe src="{{.Src}}" title="{{.Title}}" height="{{.Height}}"` +
		` loading="lazy" frameborder="0"` +
		` sandbox="allow-scripts allow-same-origin allow-popups allow-presentation"` +
		` allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture"` +
		` allowfullscreen></iframe>`))

var instagramTmpl = template.Must(template.New("instagram").Parse(
	`<div class="embed embed--instagram" data-embed-state="{{.State}}">` +
		`<a class="embed-placeholder" href="{{.URL}}" target="_blank" rel="noopener"{{if .Hidden}} hidden{{end}}>View this post on Instagram</a>` +
		`<blockquote class="instagram-media" data-instgrm-permalink="{{.URL}}" data-instgrm-version="14" style="min-height: 480px"></blockquote>` +
		`</div>`))

var adSnippetTmpl = template.Must(template.New("adSnippet").Parse(
	`<div class="ad-snippet" title="{{.Code}}"><span>Ad snippet</span></div>`))

// Renderer renders embed attributes to HTML. Attributes are immutable once
// inserted, so renderings are cached. Rendering the same attributes twice
// is safe and yields the same markup.
type Renderer struct {
	cache *lru.Cache[string, template.HTML]
	log   logger.Logger
}

// NewRenderer returns a renderer with a warm cache.
func NewRenderer() *Renderer {
	cache, _ := lru.New[string, template.HTML](renderCacheSize)
	return &Renderer{
		cache: cache,
		log:   logger.WithNamespace("embed"),
	}
}

// Render returns the HTML for an embed node. Every provider of the closed
// enum has exactly one rendering path: an iframe on src for YouTube,
// Facebook and the empty provider, the placeholder + stub pair on the
// permalink for Instagram. Empty attributes render a safe empty state.
func (r *Renderer) Render(attrs provider.Attrs) template.HTML {
	key := attrs.Provider.String() + "\x00" + attrs.Src + "\x00" + attrs.URL + "\x00" + attrs.Title
	if html, ok := r.cache.Get(key); ok {
		return html
	}

	var html template.HTML
	switch attrs.Provider {
	case provider.YouTube:
		html = r.iframe(attrs.Src, attrs.Title, youtubeHeight)
	case provider.Facebook:
		html = r.iframe(attrs.Src, attrs.Title, facebookHeight)
	case provider.Instagram:
		html = r.instagram(attrs.URL, false)
	case provider.None:
		html = r.iframe(attrs.Src, attrs.Title, genericHeight)
	}

	r.cache.Add(key, html)
	return html
}

// RenderInstance renders an Instagram embed according to its current
// lifecycle state: the placeholder is hidden once the embed is loaded.
func (r *Renderer) RenderInstance(ig *InstagramEmbed) template.HTML {
	return r.instagram(ig.Permalink(), ig.Loaded())
}

// RenderAdSnippet renders the static placeholder of an adSnippet node. The
// code is only ever exposed as escaped hover text, never executed.
func (r *Renderer) RenderAdSnippet(code string) template.HTML {
	return r.execute(adSnippetTmpl, map[string]interface{}{"Code": code})
}

func (r *Renderer) iframe(src, title string, height int) template.HTML {
	if src == "" {
		return `<div class="embed embed--empty"></div>`
	}
	return r.execute(iframeTmpl, map[string]interface{}{
		"Src":    src,
		"Title":  title,
		"Height": height,
	})
}

func (r *Renderer) instagram(permalink string, loaded bool) template.HTML {
	state := "loading"
	if loaded {
		state = "loaded"
	}
	return r.execute(instagramTmpl, map[string]interface{}{
		"URL":    permalink,
		"State":  state,
		"Hidden": loaded,
	})
}

func (r *Renderer) execute(tmpl *template.Template, data interface{}) template.HTML {
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		r.log.Errorf("Cannot render embed: %s", err)
		return ""
	}
	return template.HTML(buf.String())
}
