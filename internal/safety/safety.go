// Package safety classifies content sensitivity from site ratings and tag
// lists. Results are only ever ORed into an existing flag set.
package safety

import (
	"strings"

	"github.com/hyperifyio/unfurl/internal/embed"
)

// TagSet is an immutable, case-insensitive set of keywords.
type TagSet struct {
	words map[string]struct{}
}

// NewTagSet builds a set from words. Empty entries are ignored.
func NewTagSet(words ...string) *TagSet {
	s := &TagSet{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = normalize(w)
		if w == "" {
			continue
		}
		s.words[w] = struct{}{}
	}
	return s
}

// Contains reports an exact, case-insensitive match of the whole tag.
func (s *TagSet) Contains(tag string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[normalize(tag)]
	return ok
}

// Len returns the number of keywords.
func (s *TagSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

func normalize(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// Keyword lists are best-effort. Ratings on community art sites are
// loosely enforced, so tags are checked as a second signal.
var (
	AdultTags = NewTagSet(
		"nsfw", "sex", "horny", "r18", "fetish", "hentai", "yiff",
		"rape", "necrophilia", "vore", "hyper", "clit",
		"erection", "penis", "cum", "pussy", "dick",
		"porn", "ssbbw", "immobility", "ussbbw",
	)
	GraphicTags = NewTagSet("gore", "snuff", "necrophilia")
)

// Classifier pairs the keyword sets used for ADULT and GRAPHIC.
type Classifier struct {
	Adult   *TagSet
	Graphic *TagSet
}

// Default uses the package keyword sets.
var Default = Classifier{Adult: AdultTags, Graphic: GraphicTags}

// Rating ORs ADULT into flags when a site rating element is present and is
// not the general audience category.
func Rating(flags embed.Flags, present, general bool) embed.Flags {
	if present && !general {
		flags.Set(embed.FlagAdult)
	}
	return flags
}

// Tags ORs ADULT and GRAPHIC into flags for tags found in the classifier's
// sets. A set is no longer consulted once its flag is on, and the scan ends
// as soon as both flags are on.
func (c Classifier) Tags(flags embed.Flags, tags []string) embed.Flags {
	for _, tag := range tags {
		if flags.Has(embed.FlagAdult | embed.FlagGraphic) {
			break
		}
		if !flags.Has(embed.FlagAdult) && c.Adult.Contains(tag) {
			flags.Set(embed.FlagAdult)
		}
		if !flags.Has(embed.FlagGraphic) && c.Graphic.Contains(tag) {
			flags.Set(embed.FlagGraphic)
		}
	}
	return flags
}

// Label sets FlagAdult when the upstream safety label is "adult". Other
// labels leave flags unchanged.
func Label(flags embed.Flags, label string) embed.Flags {
	if strings.EqualFold(strings.TrimSpace(label), "adult") {
		flags.Set(embed.FlagAdult)
	}
	return flags
}
