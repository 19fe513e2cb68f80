// Package provider classifies the URLs pasted or submitted in the editor
// into embeddable providers, and normalizes them into the attributes of an
// embed node. It is pure: no DOM, no network.
package provider

import (
	"net/url"
	"strings"
)

// Provider is the closed set of platforms that can be embedded in a post.
type Provider int

const (
	// None means the URL does not belong to a known provider. An embed node
	// with an empty provider falls back to a generic iframe on its src.
	None Provider = iota
	YouTube
	Instagram
	Facebook
)

// String returns the provider tag as stored in the embed node attributes.
func (p Provider) String() string {
	switch p {
	case YouTube:
		return "youtube"
	case Instagram:
		return "instagram"
	case Facebook:
		return "facebook"
	default:
		return ""
	}
}

// FromString returns the provider for a stored tag. Unknown tags map to
// None, so that legacy content renders through the generic iframe path
// instead of failing.
func FromString(s string) Provider {
	switch s {
	case "youtube":
		return YouTube
	case "instagram":
		return Instagram
	case "facebook":
		return Facebook
	default:
		return None
	}
}

// Attrs are the embed attributes built from a classified URL. They match
// the attributes of the embed node: src is an iframe source (youtube,
// facebook, generic), url is a permalink (instagram).
type Attrs struct {
	Provider Provider
	Src      string
	URL      string
	Title    string
}

// ToNodeAttrs returns the attributes in the shape stored on an embed node.
func (a *Attrs) ToNodeAttrs() map[string]interface{} {
	return map[string]interface{}{
		"provider": a.Provider.String(),
		"src":      a.Src,
		"url":      a.URL,
		"title":    a.Title,
	}
}

// Classify parses a raw URL string and returns the embed attributes for its
// provider, or nil when the string is not an embeddable URL. It never
// panics on malformed input.
func Classify(raw string) *Attrs {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	switch {
	case strings.Contains(host, "youtube.com") || strings.Contains(host, "youtu.be"):
		return classifyYouTube(u, host)
	case strings.Contains(host, "instagram.com"):
		return classifyInstagram(u)
	case strings.Contains(host, "facebook.com") || strings.Contains(host, "fb.watch"):
		return classifyFacebook(raw)
	default:
		return nil
	}
}

// classifyYouTube extracts the video id, in order of precedence: the
// youtu.be path, the v query parameter, then a /shorts/ path. A host match
// without a usable id is not embeddable.
func classifyYouTube(u *url.URL, host string) *Attrs {
	var id string
	if strings.Contains(host, "youtu.be") {
		id = firstSegment(u.Path)
	}
	if id == "" {
		id = u.Query().Get("v")
	}
	if id == "" {
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			id = firstSegment("/" + rest)
		}
	}
	if id == "" {
		return nil
	}
	return &Attrs{
		Provider: YouTube,
		Src:      "https://www.youtube.com/embed/" + id,
		Title:    "YouTube video player",
	}
}

// classifyInstagram normalizes to origin + path with exactly one trailing
// slash. It always succeeds when the host matches.
func classifyInstagram(u *url.URL) *Attrs {
	permalink := u.Scheme + "://" + u.Host + u.Path
	if !strings.HasSuffix(permalink, "/") {
		permalink += "/"
	}
	return &Attrs{
		Provider: Instagram,
		URL:      permalink,
		Title:    "Instagram post",
	}
}

// classifyFacebook always succeeds when the host matches, and carries the
// original URL, unmodified, as a percent-encoded parameter of the video
// plugin endpoint.
func classifyFacebook(raw string) *Attrs {
	return &Attrs{
		Provider: Facebook,
		Src:      "https://www.facebook.com/plugins/video.php?href=" + url.QueryEscape(raw) + "&show_text=false",
		Title:    "Facebook video player",
	}
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}
