package embed

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"strips query", "https://www.deviantart.com/art/Sunset-123?foo=bar", "https://www.deviantart.com/art/Sunset-123"},
		{"strips fragment", "https://www.furaffinity.net/view/1/#comments", "https://www.furaffinity.net/view/1/"},
		{"strips both", "http://example.com/a/b?x=1#y", "http://example.com/a/b"},
		{"lowercases host", "https://WWW.Example.com/Path", "https://www.example.com/Path"},
		{"keeps escaped path", "https://example.com/a%20b", "https://example.com/a%20b"},
		{"keeps port", "https://example.com:8443/x", "https://example.com:8443/x"},
		{"drops https default port", "https://www.deviantart.com:443/art/x", "https://www.deviantart.com/art/x"},
		{"drops http default port", "http://example.com:80/a", "http://example.com/a"},
		{"keeps mismatched default port", "http://example.com:443/a", "http://example.com:443/a"},
		{"no path", "https://example.com", "https://example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			require.NoError(t, err)
			got := Canonicalize(u)
			assert.Equal(t, tt.expected, got)
			// idempotent
			assert.Equal(t, got, CanonicalizeString(got))
		})
	}
}

func TestCanonicalizeString_NotAbsolute(t *testing.T) {
	assert.Equal(t, "/relative/path", CanonicalizeString("/relative/path"))
	assert.Equal(t, "", Canonicalize(nil))
}

func TestFixProtocolRelative(t *testing.T) {
	assert.Equal(t, "https://a.example/b.png", FixProtocolRelative("//a.example/b.png"))
	assert.Equal(t, "https://a.example/b.png", FixProtocolRelative("https://a.example/b.png"))
	assert.Equal(t, "/relative/path", FixProtocolRelative("/relative/path"))
	assert.Equal(t, "", FixProtocolRelative(""))
}

func TestFlags_Monotonic(t *testing.T) {
	var f Flags
	f.Set(FlagAdult)
	assert.True(t, f.Has(FlagAdult))
	assert.False(t, f.Has(FlagGraphic))

	f.Set(0)
	f.Set(FlagGraphic)
	assert.True(t, f.Has(FlagAdult|FlagGraphic))

	f.Set(FlagAdult)
	assert.Equal(t, FlagAdult|FlagGraphic, f)
}

func TestHasFullsizeMedia(t *testing.T) {
	e := &Embed{}
	assert.False(t, e.HasFullsizeMedia())

	e.Thumbnail = NewMedia("//cdn.example/t.png")
	assert.False(t, e.HasFullsizeMedia())
	assert.Equal(t, "https://cdn.example/t.png", e.Thumbnail.URL)

	e.Images = append(e.Images, Media{URL: "https://cdn.example/full.png"})
	assert.True(t, e.HasFullsizeMedia())

	v := &Embed{Video: &Media{URL: "https://cdn.example/v.mp4"}}
	assert.True(t, v.HasFullsizeMedia())
}

func TestEmbed_JSONOmitsEmpty(t *testing.T) {
	e := &Embed{Title: "Sunset"}
	e.SetColor(0x05cc47)
	b, err := json.Marshal(WithExpire{Embed: e, Expires: 14400})
	require.NoError(t, err)
	assert.JSONEq(t, `{"embed":{"title":"Sunset","provider":{},"color":379975},"expires":14400}`, string(b))
}
