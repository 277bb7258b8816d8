package extractor

import "github.com/hyperifyio/unfurl/internal/embed"

// DefaultExpiry is used when neither upstream nor extractor says otherwise.
const DefaultExpiry uint64 = 4 * 60 * 60

// MaxImages caps the gallery.
const MaxImages = 4

const maxColor = 0xFFFFFF

// Finalize applies the invariants every extractor's output shares and
// attaches the expiry: maxAge when the upstream declared one, else fallback.
// Flags and individual media entries are left as they are.
func Finalize(e *embed.Embed, maxAge *uint64, fallback uint64) *embed.WithExpire {
	if e.URL != "" {
		e.URL = embed.CanonicalizeString(e.URL)
	}
	if e.Color != nil && *e.Color > maxColor {
		e.SetColor(maxColor)
	}
	if len(e.Images) > MaxImages {
		e.Images = e.Images[:MaxImages]
	}
	// a thumbnail that repeats the first gallery image adds nothing
	if e.Thumbnail != nil && len(e.Images) > 0 && e.Thumbnail.URL == e.Images[0].URL {
		e.Thumbnail = nil
	}

	expires := fallback
	if maxAge != nil {
		expires = *maxAge
	}
	return &embed.WithExpire{Embed: e, Expires: expires}
}
