// Package embed defines the canonical rich preview record produced for any
// matched URL, independent of which upstream it came from.
package embed

import (
	"net/url"
	"strings"
)

// Flags is a monotonic bit set describing content sensitivity.
type Flags uint32

const (
	FlagAdult Flags = 1 << iota
	FlagGraphic
	FlagSpoiler
)

// Set ORs f into the set. Bits are never cleared.
func (s *Flags) Set(f Flags) { *s |= f }

// Has reports whether every bit in f is set.
func (s Flags) Has(f Flags) bool { return s&f == f }

// Media is a url plus optional alt text. Size and hash metadata are filled
// in later by the media resolver, not here.
type Media struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// NewMedia returns media pointing at u with protocol-relative URLs fixed up.
func NewMedia(u string) *Media {
	return &Media{URL: FixProtocolRelative(u)}
}

type Author struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Icon *Media `json:"icon,omitempty"`
}

// Provider identifies the source site; usually a constant per extractor.
type Provider struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
	Icon *Media `json:"icon,omitempty"`
}

// Object is inline HTML an upstream offered for embedding.
type Object struct {
	HTML   string `json:"html"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type Embed struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Author      *Author  `json:"author,omitempty"`
	Provider    Provider `json:"provider"`
	Thumbnail   *Media   `json:"thumb,omitempty"`
	Images      []Media  `json:"imgs,omitempty"`
	Video       *Media   `json:"video,omitempty"`
	Audio       *Media   `json:"audio,omitempty"`
	Object      *Object  `json:"obj,omitempty"`
	Color       *uint32  `json:"color,omitempty"`
	URL         string   `json:"url,omitempty"`
	Flags       Flags    `json:"flags,omitempty"`
}

// WithExpire pairs an embed with the number of seconds it may be cached for.
type WithExpire struct {
	Embed   *Embed `json:"embed"`
	Expires uint64 `json:"expires"`
}

// HasFullsizeMedia reports whether the embed carries a gallery image or a
// video, which makes a separate thumbnail redundant.
func (e *Embed) HasFullsizeMedia() bool {
	return len(e.Images) > 0 || e.Video != nil
}

// SetColor stores a 0xRRGGBB value.
func (e *Embed) SetColor(c uint32) {
	e.Color = &c
}

// Canonicalize returns scheme://host followed by the path. Query, fragment
// and the scheme's default port are dropped. Applying it to its own output
// is a no-op.
func Canonicalize(u *url.URL) string {
	if u == nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch port := u.Port(); {
	case scheme == "http" && port == "80", scheme == "https" && port == "443":
		host = strings.TrimSuffix(host, ":"+port)
	}
	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	b.WriteString(u.EscapedPath())
	return b.String()
}

// CanonicalizeString is Canonicalize for an already serialized URL. Input
// that does not parse as an absolute URL is returned unchanged.
func CanonicalizeString(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	return Canonicalize(u)
}

// FixProtocolRelative rewrites //host/path to https://host/path. Anything
// else, including root-relative paths, passes through.
func FixProtocolRelative(u string) string {
	if rest, ok := strings.CutPrefix(u, "//"); ok {
		return "https://" + rest
	}
	return u
}
