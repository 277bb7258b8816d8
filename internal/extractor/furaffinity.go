package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/http/httpguts"

	"github.com/hyperifyio/unfurl/internal/embed"
	"github.com/hyperifyio/unfurl/internal/extract"
	"github.com/hyperifyio/unfurl/internal/safety"
)

const (
	furAffinityBase  = "https://www.furaffinity.net"
	furAffinityIcon  = "https://www.furaffinity.net/themes/beta/img/favicon.ico"
	furAffinityColor = 0xadd8f5
	furAffinityUA    = "%browser"
)

// Page structure the scraper relies on. FurAffinity has no API, so these
// are the contract; a missing element only drops its field.
var (
	faSubmissionArea = cascadia.MustCompile("div.submission-area")
	faDescription    = cascadia.MustCompile("div.submission-description")
	faTitle          = cascadia.MustCompile("div.submission-title")
	faUserIcon       = cascadia.MustCompile("img.submission-user-icon")
	faRating         = cascadia.MustCompile("span.rating-box")
	faTags           = cascadia.MustCompile("span.tags > a")
)

// FurAffinityFactory builds the scraper from the "furaffinity" section,
// which must hold the "a" and "b" session cookies. Pages hide mature
// submissions from anonymous visitors, hence the cookies and a browser UA.
type FurAffinityFactory struct{}

func (FurAffinityFactory) Name() string { return "furaffinity" }

func (FurAffinityFactory) Create(s *Settings) (Extractor, error) {
	sec, ok := s.Section("furaffinity")
	if !ok {
		return nil, nil
	}
	a := strings.TrimSpace(sec["a"])
	if a == "" {
		return nil, &ConfigError{Kind: ErrMissingField, Field: "furaffinity.a"}
	}
	b := strings.TrimSpace(sec["b"])
	if b == "" {
		return nil, &ConfigError{Kind: ErrMissingField, Field: "furaffinity.b"}
	}
	ua, ok := s.UserAgent(furAffinityUA)
	if !ok {
		return nil, &ConfigError{Kind: ErrInvalidUserAgent, Field: furAffinityUA, Detail: "not found"}
	}
	if !httpguts.ValidHeaderFieldValue(ua) {
		return nil, &ConfigError{Kind: ErrInvalidUserAgent, Field: furAffinityUA, Detail: "not a valid header value"}
	}
	cookie := fmt.Sprintf("b=%s; a=%s", b, a)
	if !httpguts.ValidHeaderFieldValue(cookie) {
		return nil, &ConfigError{Kind: ErrInvalidField, Field: "furaffinity.(a|b)", Detail: "not a valid header value"}
	}

	h := http.Header{}
	h.Set("Cookie", cookie)
	h.Set("User-Agent", ua)
	return &FurAffinity{header: h}, nil
}

// FurAffinity scrapes submission pages.
type FurAffinity struct {
	header http.Header
}

func (*FurAffinity) Name() string { return "furaffinity" }

func (*FurAffinity) Matches(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if host != "furaffinity.net" && host != "www.furaffinity.net" {
		return false
	}
	return strings.HasPrefix(u.Path, "/view/") || strings.HasPrefix(u.Path, "/full/")
}

func (f *FurAffinity) Extract(ctx context.Context, st *State, u *url.URL) (*embed.WithExpire, error) {
	resp, err := st.Client.Get(ctx, u.String(), f.header.Clone())
	if err != nil {
		return nil, fmt.Errorf("furaffinity page: %w", err)
	}
	doc, err := extract.ParseBytes(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("furaffinity page: %w", err)
	}

	e := parseFurAffinity(doc, u)

	if err := st.resolver().Resolve(ctx, e); err != nil {
		return nil, fmt.Errorf("resolve media: %w", err)
	}
	return Finalize(e, nil, DefaultExpiry), nil
}

func parseFurAffinity(doc *extract.Document, u *url.URL) *embed.Embed {
	e := &embed.Embed{}

	if area := doc.First(faSubmissionArea); area != nil {
		kind, m := extract.PrimaryMedia(area)
		switch kind {
		case extract.MediaImage:
			// stories and poems show a cover image; treat it as a thumbnail
			if extract.HasClass(area, "submission-writing") {
				e.Thumbnail = m
			} else {
				e.Images = append(e.Images, *m)
			}
		case extract.MediaVideo:
			e.Video = m
		case extract.MediaAudio:
			e.Audio = m
		}
	}

	if desc := doc.First(faDescription); desc != nil {
		e.Description = extract.Description(desc)
	}

	author := &embed.Author{}
	if title := doc.First(faTitle); title != nil {
		e.Title = extract.Title(title)
		base, _ := url.Parse(furAffinityBase)
		if a := extract.AuthorAfter(title, "/user/", base); a != nil {
			author = a
		}
	}
	if icon := doc.First(faUserIcon); icon != nil {
		if src, ok := extract.IconURL(icon); ok {
			author.Icon = &embed.Media{URL: src}
		}
	}
	if author.Name != "" || author.URL != "" || author.Icon != nil {
		e.Author = author
	}

	rating := doc.First(faRating)
	e.Flags = safety.Rating(e.Flags, rating != nil, extract.HasClass(rating, "general"))

	// ratings are loosely enforced, so look at tags too
	var tags []string
	for _, a := range doc.All(faTags) {
		if t, ok := extract.FirstText(a); ok {
			tags = append(tags, t)
		}
	}
	e.Flags = safety.Default.Tags(e.Flags, tags)

	e.URL = embed.Canonicalize(u)
	e.SetColor(furAffinityColor)
	e.Provider = embed.Provider{
		Name: "FurAffinity",
		URL:  furAffinityBase,
		Icon: embed.NewMedia(furAffinityIcon),
	}
	return e
}
