package extract

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/hyperifyio/unfurl/internal/embed"
)

// MediaKind is the kind of the primary media in a submission.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaImage
	MediaVideo
	MediaAudio
)

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	default:
		return "none"
	}
}

// PrimaryMedia returns the first image, video or audio element under root.
// An object or embed element seen first means the submission uses a plugin
// we can't represent, and no media is reported at all. The same holds when
// the first recognized element has no usable source.
func PrimaryMedia(root *html.Node) (MediaKind, *embed.Media) {
	var (
		kind MediaKind
		el   *html.Node
	)
	Walk(root, func(n *html.Node) Action {
		if n.Type != html.ElementNode {
			return Continue
		}
		switch strings.ToLower(n.Data) {
		case "img":
			kind = MediaImage
		case "video":
			kind = MediaVideo
		case "audio":
			kind = MediaAudio
		case "object", "embed":
			return Stop
		default:
			return Continue
		}
		el = n
		return Stop
	})
	if el == nil {
		return MediaNone, nil
	}

	src, ok := Attr(el, "src")
	if !ok && kind != MediaImage {
		src, ok = sourceChild(el)
	}
	if !ok || strings.TrimSpace(src) == "" {
		return MediaNone, nil
	}
	m := embed.NewMedia(src)
	if alt, ok := Attr(el, "alt"); ok {
		m.Alt = alt
	}
	return kind, m
}

// sourceChild finds <source src> inside a video or audio element.
func sourceChild(el *html.Node) (string, bool) {
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, "source") {
			if src, ok := Attr(c, "src"); ok {
				return src, true
			}
		}
	}
	return "", false
}

// Description flattens a description container into plain text.
//
// Text nodes lose surrounding CR/LF and leading whitespace. A <br> adds a
// newline unless the text already ends in a blank line. An <img> adds its
// alt text unless the very next sibling is a text node repeating it.
func Description(root *html.Node) string {
	var b strings.Builder
	Walk(root, func(n *html.Node) Action {
		switch n.Type {
		case html.TextNode:
			b.WriteString(strings.TrimLeftFunc(strings.Trim(n.Data, "\r\n"), unicode.IsSpace))
		case html.ElementNode:
			switch strings.ToLower(n.Data) {
			case "br":
				if !strings.HasSuffix(b.String(), "\n\n") {
					b.WriteByte('\n')
				}
			case "img":
				alt, ok := Attr(n, "alt")
				if !ok {
					break
				}
				if next := n.NextSibling; next != nil && next.Type == html.TextNode && strings.TrimSpace(next.Data) == alt {
					break
				}
				b.WriteString(alt)
			}
		}
		return Continue
	})
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

// Title returns the trimmed text of a title container.
func Title(n *html.Node) string {
	return strings.TrimSpace(Text(n))
}

// AuthorAfter scans the element siblings following title for the first one
// whose href starts with profilePrefix. The href is resolved against base.
func AuthorAfter(title *html.Node, profilePrefix string, base *url.URL) *embed.Author {
	if title == nil {
		return nil
	}
	for s := title.NextSibling; s != nil; s = s.NextSibling {
		if s.Type != html.ElementNode {
			continue
		}
		href, ok := Attr(s, "href")
		if !ok || !strings.HasPrefix(href, profilePrefix) {
			continue
		}
		a := &embed.Author{Name: strings.TrimSpace(Text(s)), URL: href}
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				a.URL = base.ResolveReference(ref).String()
			}
		}
		return a
	}
	return nil
}

// IconURL returns the protocol-relative-fixed src of an icon element.
func IconURL(n *html.Node) (string, bool) {
	src, ok := Attr(n, "src")
	if !ok || src == "" {
		return "", false
	}
	return embed.FixProtocolRelative(src), true
}
