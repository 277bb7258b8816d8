// Package oembed maps oEmbed responses (https://oembed.com) onto the
// canonical embed model.
package oembed

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hyperifyio/unfurl/internal/embed"
)

// Record is a standard oEmbed response. Providers add their own fields by
// embedding it in a larger struct.
type Record struct {
	Type            string   `json:"type"`
	Version         string   `json:"version"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	AuthorName      string   `json:"author_name"`
	AuthorURL       string   `json:"author_url"`
	ProviderName    string   `json:"provider_name"`
	ProviderURL     string   `json:"provider_url"`
	ThumbnailURL    string   `json:"thumbnail_url"`
	ThumbnailWidth  int      `json:"thumbnail_width"`
	ThumbnailHeight int      `json:"thumbnail_height"`
	URL             string   `json:"url"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	HTML            string   `json:"html"`
	CacheAge        CacheAge `json:"cache_age"`
}

// CacheAge is the provider's suggested lifetime in seconds. Providers send
// it as a number or a numeric string; anything else is treated as absent.
type CacheAge struct {
	seconds uint64
	set     bool
}

func (c *CacheAge) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		c.seconds, c.set = n, true
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v >= math.MaxUint64 {
		return nil
	}
	c.seconds, c.set = uint64(v), true
	return nil
}

// Seconds returns the lifetime, or nil when the provider did not send one.
func (c CacheAge) Seconds() *uint64 {
	if !c.set {
		return nil
	}
	s := c.seconds
	return &s
}

// Extra carries hints from the response that are not part of the embed.
type Extra struct {
	MaxAge *uint64
}

// strict strips every tag; text fields from providers are plain text only.
var strict = bluemonday.StrictPolicy()

func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Map copies the standard fields of r into e and returns the hints that
// don't belong in the embed itself.
func Map(e *embed.Embed, r *Record) Extra {
	if r == nil {
		return Extra{}
	}
	if t := plain(r.Title); t != "" {
		e.Title = t
	}
	if d := plain(r.Description); d != "" {
		e.Description = d
	}
	if name := plain(r.AuthorName); name != "" || r.AuthorURL != "" {
		e.Author = &embed.Author{Name: name, URL: r.AuthorURL}
	}
	if name := plain(r.ProviderName); name != "" {
		e.Provider.Name = name
	}
	if r.ProviderURL != "" {
		e.Provider.URL = r.ProviderURL
	}
	if r.ThumbnailURL != "" {
		e.Thumbnail = embed.NewMedia(r.ThumbnailURL)
	}

	switch strings.ToLower(r.Type) {
	case "photo":
		if r.URL != "" {
			e.Images = append(e.Images, *embed.NewMedia(r.URL))
		}
	case "video", "rich":
		if r.HTML != "" {
			e.Object = &embed.Object{HTML: r.HTML, Width: r.Width, Height: r.Height}
		}
	}

	return Extra{MaxAge: r.CacheAge.Seconds()}
}

// Endpoint builds the request URL for an oEmbed API.
func Endpoint(base, target string) string {
	return base + "?format=json&url=" + url.QueryEscape(target)
}

// MaxTags is how many tags TagDescription lists before summarizing.
const MaxTags = 16

// TagDescription turns a comma-separated tag string into a readable list:
// the first MaxTags tags, title-cased, followed by "More" if any were cut.
func TagDescription(raw string) string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return ""
	}

	more := len(tags) > MaxTags
	if more {
		tags = append(tags[:MaxTags:MaxTags], "more")
	}

	caser := cases.Title(language.English)
	for i, t := range tags {
		words := strings.FieldsFunc(t, func(r rune) bool {
			return r == '_' || r == '-' || unicode.IsSpace(r)
		})
		tags[i] = caser.String(strings.Join(words, " "))
	}
	return FormatList(tags)
}

// FormatList joins items into a single human-readable line.
func FormatList(items []string) string {
	return strings.Join(items, ", ")
}
