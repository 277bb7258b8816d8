package extractor

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hyperifyio/unfurl/internal/embed"
	"github.com/hyperifyio/unfurl/internal/oembed"
	"github.com/hyperifyio/unfurl/internal/safety"
)

// https://www.deviantart.com/developers/oembed
const (
	deviantArtEndpoint = "https://backend.deviantart.com/oembed"
	deviantArtIcon     = "https://st.deviantart.net/eclipse/icons/da_favicon_v2.ico"
	deviantArtColor    = 0x05cc47
)

// DeviantArtFactory needs no settings. An optional "deviantart" section may
// override the oEmbed endpoint.
type DeviantArtFactory struct{}

func (DeviantArtFactory) Name() string { return "deviantart" }

func (DeviantArtFactory) Create(s *Settings) (Extractor, error) {
	endpoint := deviantArtEndpoint
	if sec, ok := s.Section("deviantart"); ok {
		if v := strings.TrimSpace(sec["endpoint"]); v != "" {
			u, err := url.Parse(v)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, &ConfigError{Kind: ErrInvalidField, Field: "deviantart.endpoint", Detail: "must be an absolute http(s) URL"}
			}
			endpoint = v
		}
	}
	return &DeviantArt{endpoint: endpoint}, nil
}

// DeviantArt reads the public oEmbed API.
type DeviantArt struct {
	endpoint string
}

func (*DeviantArt) Name() string { return "deviantart" }

func (*DeviantArt) Matches(u *url.URL) bool {
	switch {
	case hostIs(u, "deviantart.com"):
		return strings.Contains(u.Path, "/art/")
	case hostIs(u, "sta.sh"), hostIs(u, "fav.me"):
		return hasPath(u)
	}
	return false
}

// deviantArtRecord is the oEmbed response plus DeviantArt's extensions.
type deviantArtRecord struct {
	oembed.Record
	Safety string `json:"safety"`
	Tags   string `json:"tags"`
}

func (d *DeviantArt) Extract(ctx context.Context, st *State, u *url.URL) (*embed.WithExpire, error) {
	canonical := embed.Canonicalize(u)

	var rec deviantArtRecord
	if err := st.Client.GetJSON(ctx, oembed.Endpoint(d.endpoint, canonical), nil, &rec); err != nil {
		return nil, fmt.Errorf("deviantart oembed: %w", err)
	}

	e := &embed.Embed{}
	e.Flags = safety.Label(e.Flags, rec.Safety)

	extra := oembed.Map(e, &rec.Record)
	if e.Description == "" {
		e.Description = oembed.TagDescription(rec.Tags)
	}

	// never forward upstream HTML
	e.Object = nil

	if e.Provider.Name == "" {
		e.Provider.Name = "DeviantArt"
	}
	if e.Provider.URL == "" {
		e.Provider.URL = "https://www.deviantart.com"
	}
	e.Provider.Icon = embed.NewMedia(deviantArtIcon)

	// the oEmbed thumbnail is a low-res copy of the full image
	if e.HasFullsizeMedia() {
		e.Thumbnail = nil
	}

	e.SetColor(deviantArtColor)
	e.URL = canonical

	return Finalize(e, extra.MaxAge, DefaultExpiry), nil
}
